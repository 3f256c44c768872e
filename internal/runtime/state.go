package runtime

// ConfigPath stores the path to the configuration file provided via CLI flags.
// ConfigPath 存储通过 CLI 标志提供的配置文件路径。
var ConfigPath string

// FixturePath, when set, replaces the host event log with a recorded fixture.
// FixturePath 设置后使用录制的测试数据代替主机事件日志。
var FixturePath string
