package config

import (
	"sync"

	"github.com/SlimIO/Winelog/internal/utils/logger"
)

// ConfigManager handles all configuration-related operations in a centralized manner
// ConfigManager 以集中方式处理所有配置相关操作
type ConfigManager struct {
	configPath string
	mutex      sync.RWMutex
	config     *Config
}

// NewConfigManager creates a new configuration manager instance
// NewConfigManager 创建新的配置管理器实例
func NewConfigManager(configPath string) *ConfigManager {
	return &ConfigManager{
		configPath: configPath,
	}
}

// LoadConfig loads the configuration from the manager's path. A missing
// file leaves the defaults in place.
// LoadConfig 从指定路径加载配置，文件不存在时使用默认值。
func (cm *ConfigManager) LoadConfig() error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	cfg, err := LoadOrDefault(cm.configPath)
	if err != nil {
		return err
	}
	cm.config = cfg
	return nil
}

// SaveConfig saves the current configuration to the specified path
// SaveConfig 将当前配置保存到指定路径
func (cm *ConfigManager) SaveConfig() error {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	if cm.config == nil {
		return nil
	}
	return SaveConfig(cm.configPath, cm.config)
}

// GetConfig returns a copy of the current configuration, or the defaults
// when nothing was loaded.
// GetConfig 返回当前配置的副本
func (cm *ConfigManager) GetConfig() *Config {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	if cm.config == nil {
		return DefaultConfig()
	}
	cfgCopy := *cm.config
	return &cfgCopy
}

// UpdateConfig updates the current configuration
// UpdateConfig 更新当前配置
func (cm *ConfigManager) UpdateConfig(newConfig *Config) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	cm.config = newConfig
}

func (cm *ConfigManager) GetReaderConfig() ReaderConfig {
	return cm.GetConfig().Reader
}

func (cm *ConfigManager) GetLoggingConfig() logger.LoggingConfig {
	return cm.GetConfig().Logging
}

func (cm *ConfigManager) GetMetricsConfig() MetricsConfig {
	return cm.GetConfig().Metrics
}

// SetReaderConfig replaces the reader section.
// SetReaderConfig 替换读取配置段。
func (cm *ConfigManager) SetReaderConfig(readerConfig ReaderConfig) {
	cm.mutate(func(c *Config) { c.Reader = readerConfig })
}

func (cm *ConfigManager) SetLoggingConfig(loggingConfig logger.LoggingConfig) {
	cm.mutate(func(c *Config) { c.Logging = loggingConfig })
}

func (cm *ConfigManager) SetMetricsConfig(metricsConfig MetricsConfig) {
	cm.mutate(func(c *Config) { c.Metrics = metricsConfig })
}

func (cm *ConfigManager) mutate(fn func(*Config)) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if cm.config == nil {
		cm.config = DefaultConfig()
	}
	fn(cm.config)
}

// GetConfigPath returns the configuration file path
// GetConfigPath 返回配置文件路径
func (cm *ConfigManager) GetConfigPath() string {
	return cm.configPath
}

// Validate validates the current configuration
// Validate 验证当前配置
func (cm *ConfigManager) Validate() error {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	if cm.config == nil {
		return nil
	}
	return cm.config.Validate()
}
