package config

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConfigManager tests the configuration manager functionality
// TestConfigManager 测试配置管理器功能
func TestConfigManager(t *testing.T) {
	// 为测试创建临时配置文件
	tempConfigFile := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.Reader.BatchSize = 25
	cfg.Reader.Direction = "forward"
	cfg.Metrics.Enabled = true
	cfg.Metrics.Port = 9090

	cfgManager := NewConfigManager(tempConfigFile)
	cfgManager.UpdateConfig(cfg)
	require.NoError(t, cfgManager.SaveConfig())

	loaded := NewConfigManager(tempConfigFile)
	require.NoError(t, loaded.LoadConfig())
	loadedCfg := loaded.GetConfig()
	assert.Equal(t, 25, loadedCfg.Reader.BatchSize)
	assert.Equal(t, "forward", loadedCfg.Reader.Direction)
	assert.Equal(t, 9090, loaded.GetMetricsConfig().Port)
	assert.Equal(t, tempConfigFile, loaded.GetConfigPath())

	// 测试单独的 setter 方法
	reader := loaded.GetReaderConfig()
	reader.DecodeErrorPolicy = "skip"
	loaded.SetReaderConfig(reader)
	assert.Equal(t, "skip", loaded.GetReaderConfig().DecodeErrorPolicy)

	logging := loaded.GetLoggingConfig()
	logging.Level = "debug"
	loaded.SetLoggingConfig(logging)
	assert.Equal(t, "debug", loaded.GetConfig().Logging.Level)
	assert.NoError(t, loaded.Validate())

	loaded.SetMetricsConfig(MetricsConfig{Enabled: true, Port: 0})
	assert.Error(t, loaded.Validate())
}

func TestConfigManager_MissingFile(t *testing.T) {
	cm := NewConfigManager(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.NoError(t, cm.Validate())
	assert.Equal(t, DefaultConfig(), cm.GetConfig())

	require.NoError(t, cm.LoadConfig())
	assert.Equal(t, DefaultConfig(), cm.GetConfig())
}

func TestConfigManager_SetterBeforeLoad(t *testing.T) {
	cm := NewConfigManager(filepath.Join(t.TempDir(), "config.yaml"))
	cm.SetMetricsConfig(MetricsConfig{Enabled: true, Port: 9100})
	assert.Equal(t, 9100, cm.GetMetricsConfig().Port)
	assert.Equal(t, DefaultConfig().Reader, cm.GetReaderConfig())
}

// TestConfigManagerConcurrentAccess tests concurrent read/write access
// TestConfigManagerConcurrentAccess 测试并发读写访问
func TestConfigManagerConcurrentAccess(t *testing.T) {
	cfgManager := NewConfigManager(filepath.Join(t.TempDir(), "concurrent.yaml"))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 10; i++ {
			cfg := DefaultConfig()
			cfg.Reader.BatchSize = i + 1
			cfgManager.UpdateConfig(cfg)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 10; i++ {
			_ = cfgManager.GetReaderConfig().BatchSize
		}
	}()
	wg.Wait()
	assert.Equal(t, 10, cfgManager.GetReaderConfig().BatchSize)
}
