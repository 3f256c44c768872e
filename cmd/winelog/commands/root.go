package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/SlimIO/Winelog/internal/config"
	"github.com/SlimIO/Winelog/internal/runtime"
	"github.com/SlimIO/Winelog/internal/utils/logger"
	"github.com/spf13/cobra"
)

type configKey struct{}

// NewRootCmd builds the winelog command tree.
// NewRootCmd 构建 winelog 命令树。
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "winelog",
		Short: "Read and decode Windows event logs",
		// Short: 读取并解码 Windows 事件日志
		Long: `winelog reads Windows event log channels and exported .evtx files,
decodes every record into a flat row and writes the rows as JSON lines or a table.
winelog 读取 Windows 事件日志通道和导出的 .evtx 文件，
将每条记录解码为扁平行，并以 JSON 行或表格输出。`,
		PersistentPreRunE: loadSettings,
		SilenceErrors:     true,
	}

	// Config file path
	// 配置文件路径
	root.PersistentFlags().StringVarP(&runtime.ConfigPath, "config", "c", "", fmt.Sprintf("Path to configuration file (default: %s)", config.DefaultConfigPath))
	// 使用录制的事件归档代替主机事件日志
	root.PersistentFlags().StringVar(&runtime.FixturePath, "fixture", "", "Replay a recorded event archive (.jsonl or .jsonl.zst) instead of the host event log")

	root.AddCommand(newReadCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newTestCmd())
	root.AddCommand(newVersionCmd())

	root.CompletionOptions.DisableDefaultCmd = true
	root.AddCommand(createCustomCompletionCmd(root))
	return root
}

// loadSettings loads the configuration and logger into the command context.
// loadSettings 将配置与日志记录器注入命令上下文。
func loadSettings(cmd *cobra.Command, args []string) error {
	cm := config.NewConfigManager(configPath())
	if err := cm.LoadConfig(); err != nil {
		// 配置无效时仍初始化日志以报告错误
		logger.Init(config.DefaultConfig().Logging)
		return fmt.Errorf("load config %s: %w", cm.GetConfigPath(), err)
	}
	cfg := cm.GetConfig()
	logger.Init(cfg.Logging)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logger.WithContext(ctx, logger.Get(nil))
	ctx = context.WithValue(ctx, configKey{}, cfg)
	cmd.SetContext(ctx)
	return nil
}

func configPath() string {
	if runtime.ConfigPath != "" {
		return runtime.ConfigPath
	}
	return config.DefaultConfigPath
}

// configFromContext returns the configuration loaded by loadSettings, or the
// defaults when the command ran without it.
func configFromContext(ctx context.Context) *config.Config {
	if ctx != nil {
		if cfg, ok := ctx.Value(configKey{}).(*config.Config); ok {
			return cfg
		}
	}
	return config.DefaultConfig()
}

// createCustomCompletionCmd creates a completion command without powershell.
// createCustomCompletionCmd 创建不含 powershell 的自定义补全命令。
func createCustomCompletionCmd(root *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish]",
		Short: "Generate shell autocompletion script",
		Long: `Generate shell autocompletion script for winelog.
生成 winelog 的 shell 自动补全脚本。

Examples:
  winelog completion bash > /etc/bash_completion.d/winelog
  winelog completion zsh  > "${fpath[1]}/_winelog"
  winelog completion fish > ~/.config/fish/completions/winelog.fish`,
		Args:              cobra.ExactArgs(1),
		ValidArgs:         []string{"bash", "zsh", "fish"},
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(out, true)
			case "zsh":
				return root.GenZshCompletion(out)
			case "fish":
				return root.GenFishCompletion(out, true)
			default:
				return fmt.Errorf("unsupported shell: %s (supported: bash, zsh, fish)", args[0])
			}
		},
	}
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	root := NewRootCmd()
	err := root.Execute()
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
