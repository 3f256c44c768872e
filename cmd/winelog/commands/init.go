package commands

import (
	"fmt"

	"github.com/SlimIO/Winelog/internal/config"
	"github.com/spf13/cobra"
)

// newInitCmd implements the 'init' command
// newInitCmd 实现 'init' 命令
func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration",
		// Short: 初始化配置
		Long: `Write the default configuration file to --config (or the default path) unless one exists.`,
		// Long: 在配置文件不存在时写入默认配置
		Args:              cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath()
			created, err := config.InitConfiguration(path)
			if err != nil {
				return fmt.Errorf("initialize %s: %w", path, err)
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "[OK] Configuration written to %s\n", path)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "[INFO] Configuration already exists at %s\n", path)
			}
			return nil
		},
	}
}

// newTestCmd implements the 'test' command
// newTestCmd 实现 'test' 命令
func newTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Test configuration",
		// Short: 测试配置
		Long: `Load and validate the configuration file, then print the effective reader settings.`,
		// Long: 加载并校验配置文件
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFromContext(cmd.Context())
			opts, err := cfg.Reader.Options()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "[OK] Configuration test passed (%s)\n", configPath())
			fmt.Fprintf(out, "  batch size:     %d\n", opts.BatchSize)
			if opts.BatchTimeout < 0 {
				fmt.Fprintln(out, "  batch timeout:  none")
			} else {
				fmt.Fprintf(out, "  batch timeout:  %s\n", opts.BatchTimeout)
			}
			fmt.Fprintf(out, "  direction:      %s\n", cfg.Reader.ReadDirection())
			fmt.Fprintf(out, "  decode errors:  %s\n", opts.DecodePolicy)
			fmt.Fprintf(out, "  log directory:  %s\n", opts.LogDirectory)
			return nil
		},
	}
}
