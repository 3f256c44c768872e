package config

const (
	// DefaultConfigPath is the standard location for the winelog configuration file.
	// DefaultConfigPath 是 winelog 配置文件的标准位置。
	DefaultConfigPath = "/etc/winelog/config.yaml"

	// DefaultLogPath is where file logging writes when enabled without a path.
	// DefaultLogPath 是启用文件日志但未指定路径时的写入位置。
	DefaultLogPath = "/var/log/winelog/winelog.log"

	// DefaultMetricsPort is the port of the /metrics endpoint.
	DefaultMetricsPort = 9478
)
