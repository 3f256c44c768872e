package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/SlimIO/Winelog/internal/eventlog"
	"github.com/SlimIO/Winelog/internal/evtstore"
	"github.com/SlimIO/Winelog/internal/utils/fileutil"
	"github.com/SlimIO/Winelog/internal/utils/logger"
	"github.com/SlimIO/Winelog/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultConfigTemplate is written by `winelog init`. It carries the same
// values as DefaultConfig plus bilingual comments.
const DefaultConfigTemplate = `# Winelog Configuration File / Winelog 配置文件
#

# Logging Configuration / 日志配置
logging:
  # Enabled: write logs to the file below instead of stderr.
  # 启用：将日志写入下方文件而不是标准错误输出。
  enabled: false

  # Level: debug, info, warn, error
  # 日志级别：debug, info, warn, error
  level: "info"

  # Path of the rotated log file.
  # 轮转日志文件路径。
  path: "/var/log/winelog/winelog.log"

  # Rotation: size in MB, number of backups, age in days.
  # 轮转：大小（MB）、备份数量、保留天数。
  max_size: 10
  max_backups: 3
  max_age: 30
  compress: true

# Reader Configuration / 读取配置
reader:
  # Records fetched per batch. Cancellation is checked between records.
  # 每批获取的记录数。取消检查在记录之间进行。
  batch_size: 10

  # Initial record buffer in bytes, and the limit it may grow to.
  # 初始记录缓冲区大小（字节）及其可增长到的上限。
  buffer_size: 65536
  max_buffer_size: 16777216

  # Initial per-record render buffer in bytes.
  # 每条记录的初始渲染缓冲区大小（字节）。
  render_buffer_size: 2048

  # Longest wait for one batch. "0s" waits forever.
  # 单批次最长等待时间。"0s" 表示无限等待。
  batch_timeout: "1s"

  # Directory holding .evtx files for logical file names.
  # 逻辑文件名对应的 .evtx 文件目录。
  log_directory: 'C:\Windows\System32\winevt\Logs'

  # Read order: reverse (most recent first) or forward.
  # 读取顺序：reverse（最新优先）或 forward。
  direction: "reverse"

  # Undecodable records: abort the read, or skip them with a warning.
  # 无法解码的记录：中止读取，或记录警告后跳过。
  decode_error_policy: "abort"

# Metrics Configuration / 指标配置
metrics:
  # Serve Prometheus metrics on /metrics while reading.
  # 读取期间在 /metrics 上提供 Prometheus 指标。
  enabled: false
  port: 9478
`

// Config is the winelog configuration file.
// Config 是 winelog 配置文件结构。
type Config struct {
	Logging logger.LoggingConfig `yaml:"logging"`
	Reader  ReaderConfig         `yaml:"reader"`
	Metrics MetricsConfig        `yaml:"metrics"`
}

// ReaderConfig tunes the read engine.
// ReaderConfig 调整读取引擎参数。
type ReaderConfig struct {
	BatchSize         int    `yaml:"batch_size"`
	BufferSize        int    `yaml:"buffer_size"`
	MaxBufferSize     int    `yaml:"max_buffer_size"`
	RenderBufferSize  int    `yaml:"render_buffer_size"`
	BatchTimeout      string `yaml:"batch_timeout"`
	LogDirectory      string `yaml:"log_directory"`
	Direction         string `yaml:"direction"`
	DecodeErrorPolicy string `yaml:"decode_error_policy"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// DefaultConfig returns the configuration used when no file exists.
// DefaultConfig 返回不存在配置文件时使用的配置。
func DefaultConfig() *Config {
	return &Config{
		Logging: logger.LoggingConfig{
			Enabled:    false,
			Level:      "info",
			Path:       DefaultLogPath,
			MaxSize:    10, // 10MB
			MaxBackups: 3,
			MaxAge:     30, // 30 days
			Compress:   true,
		},
		Reader: ReaderConfig{
			BatchSize:         eventlog.DefaultBatchSize,
			BufferSize:        eventlog.DefaultBufferSize,
			MaxBufferSize:     eventlog.DefaultMaxBufferSize,
			RenderBufferSize:  eventlog.DefaultRenderBufferSize,
			BatchTimeout:      eventlog.DefaultBatchTimeout.String(),
			LogDirectory:      eventlog.DefaultLogDirectory,
			Direction:         evtstore.Reverse.String(),
			DecodeErrorPolicy: eventlog.DecodeAbort.String(),
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    DefaultMetricsPort,
		},
	}
}

// LoadConfig reads path over the defaults and validates the result.
// A missing file is reported as errors.ErrConfigNotFound.
// LoadConfig 在默认值之上读取配置文件并校验。
func LoadConfig(path string) (*Config, error) {
	safePath := filepath.Clean(path) // Sanitize path to prevent directory traversal
	data, err := os.ReadFile(safePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", errors.ErrConfigNotFound, safePath)
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", safePath, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault is LoadConfig with a missing file meaning DefaultConfig.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if errors.Is(err, errors.ErrConfigNotFound) {
		return DefaultConfig(), nil
	}
	return cfg, err
}

// Validate checks the configuration for errors.
// Validate 检查配置是否存在错误。
func (c *Config) Validate() error {
	if err := c.Reader.Validate(); err != nil {
		return fmt.Errorf("reader config error: %w", err)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging config error: %w", errors.NewConfigError("logging.level", c.Logging.Level))
	}
	if c.Metrics.Enabled && (c.Metrics.Port <= 0 || c.Metrics.Port > 65535) {
		return fmt.Errorf("metrics config error: %w", errors.NewConfigError("metrics.port", c.Metrics.Port))
	}
	return nil
}

func (r *ReaderConfig) Validate() error {
	if r.BatchSize <= 0 {
		return errors.NewConfigError("reader.batch_size", r.BatchSize)
	}
	if r.BufferSize <= 0 {
		return errors.NewConfigError("reader.buffer_size", r.BufferSize)
	}
	if r.MaxBufferSize > 0 && r.MaxBufferSize < r.BufferSize {
		return errors.NewConfigError("reader.max_buffer_size", r.MaxBufferSize)
	}
	if r.RenderBufferSize < 0 {
		return errors.NewConfigError("reader.render_buffer_size", r.RenderBufferSize)
	}
	if _, err := r.timeout(); err != nil {
		return errors.NewConfigError("reader.batch_timeout", r.BatchTimeout)
	}
	if _, err := evtstore.ParseDirection(r.Direction); err != nil {
		return errors.NewConfigError("reader.direction", r.Direction)
	}
	if _, err := eventlog.ParseDecodePolicy(r.DecodeErrorPolicy); err != nil {
		return errors.NewConfigError("reader.decode_error_policy", r.DecodeErrorPolicy)
	}
	return nil
}

func (r *ReaderConfig) timeout() (time.Duration, error) {
	if r.BatchTimeout == "" {
		return eventlog.DefaultBatchTimeout, nil
	}
	d, err := time.ParseDuration(r.BatchTimeout)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative timeout %s", d)
	}
	if d == 0 {
		// Zero in the file means no bound; the engine spells that as negative.
		return -1, nil
	}
	return d, nil
}

// Options converts the reader section into engine options.
// Options 将读取配置转换为引擎参数。
func (r *ReaderConfig) Options() (eventlog.Options, error) {
	if err := r.Validate(); err != nil {
		return eventlog.Options{}, err
	}
	timeout, _ := r.timeout()
	policy, _ := eventlog.ParseDecodePolicy(r.DecodeErrorPolicy)
	return eventlog.Options{
		BatchSize:        r.BatchSize,
		BufferSize:       r.BufferSize,
		RenderBufferSize: r.RenderBufferSize,
		MaxBufferSize:    r.MaxBufferSize,
		BatchTimeout:     timeout,
		LogDirectory:     r.LogDirectory,
		DecodePolicy:     policy,
	}, nil
}

// ReadDirection returns the configured default read order.
func (r *ReaderConfig) ReadDirection() evtstore.Direction {
	d, _ := evtstore.ParseDirection(r.Direction)
	return d
}

// SaveConfig writes cfg to path. When path already holds a readable YAML
// document, values are merged into it so its comments survive.
// SaveConfig 将配置写入文件，并尽量保留已有注释。
func SaveConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	var newNode yaml.Node
	if err := yaml.Unmarshal(data, &newNode); err != nil {
		return err
	}

	safePath := filepath.Clean(path) // Sanitize path to prevent directory traversal
	fileData, readErr := os.ReadFile(safePath)
	if readErr == nil {
		var fileNode yaml.Node
		if err := yaml.Unmarshal(fileData, &fileNode); err == nil && fileNode.Kind == yaml.DocumentNode {
			MergeYamlNodes(&fileNode, &newNode)

			var buf bytes.Buffer
			enc := yaml.NewEncoder(&buf)
			enc.SetIndent(2)
			if err := enc.Encode(&fileNode); err != nil {
				return err
			}
			return fileutil.AtomicWriteFile(safePath, buf.Bytes(), 0600)
		}
	}

	// File missing or malformed: write the marshaled config as is.
	return fileutil.AtomicWriteFile(safePath, data, 0600)
}

// MergeYamlNodes updates target (existing file) with source (new values),
// keeping target's key order and comments. Keys only in source are appended.
func MergeYamlNodes(target, source *yaml.Node) {
	if target.Kind == yaml.DocumentNode {
		if source.Kind == yaml.DocumentNode && len(target.Content) > 0 && len(source.Content) > 0 {
			MergeYamlNodes(target.Content[0], source.Content[0])
		}
		return
	}

	if target.Kind != yaml.MappingNode || source.Kind != yaml.MappingNode {
		if source.HeadComment == "" {
			source.HeadComment = target.HeadComment
		}
		if source.LineComment == "" {
			source.LineComment = target.LineComment
		}
		if source.FootComment == "" {
			source.FootComment = target.FootComment
		}
		*target = *source
		return
	}

	sourceMap := make(map[string]int)
	for i := 0; i < len(source.Content); i += 2 {
		sourceMap[source.Content[i].Value] = i
	}

	var newContent []*yaml.Node
	processed := make(map[string]bool)
	for i := 0; i < len(target.Content); i += 2 {
		tKey := target.Content[i]
		tVal := target.Content[i+1]
		if sIdx, ok := sourceMap[tKey.Value]; ok {
			MergeYamlNodes(tVal, source.Content[sIdx+1])
			processed[tKey.Value] = true
		}
		newContent = append(newContent, tKey, tVal)
	}
	for i := 0; i < len(source.Content); i += 2 {
		if !processed[source.Content[i].Value] {
			newContent = append(newContent, source.Content[i], source.Content[i+1])
		}
	}
	target.Content = newContent
}

// InitConfiguration writes DefaultConfigTemplate to path unless a file is
// already there. It reports whether a file was created.
// InitConfiguration 在文件不存在时写入默认配置模板。
func InitConfiguration(path string) (bool, error) {
	safePath := filepath.Clean(path)
	if _, err := os.Stat(safePath); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, err
	}
	if err := os.MkdirAll(filepath.Dir(safePath), 0755); err != nil {
		return false, fmt.Errorf("create config directory: %w", err)
	}
	if err := fileutil.AtomicWriteFile(safePath, []byte(DefaultConfigTemplate), 0600); err != nil {
		return false, err
	}
	return true, nil
}
