package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"ftpgram/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigShowCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Edit the file to set the FTP credentials and bot_token (or export BOT_TOKEN) before starting the bridge.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Configuration is valid")
			return nil
		},
	}
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			rows := [][]string{
				{"ftp.host", cfg.FTP.Host},
				{"ftp.port", fmt.Sprintf("%d", cfg.FTP.Port)},
				{"ftp.user", cfg.FTP.User},
				{"ftp.watch_dir", cfg.FTP.WatchDir},
				{"ftp.record_subdir", cfg.FTP.RecordSubdir},
				{"ftp.extensions", strings.Join(cfg.FTP.Extensions, " ")},
				{"telegram.chat_id", cfg.Telegram.ChatID},
				{"telegram.bot_token", maskSecret(cfg.Telegram.BotToken)},
				{"telegram.max_upload_mib", fmt.Sprintf("%d", cfg.Telegram.MaxUploadMiB)},
				{"telegram.oversize_policy", cfg.Telegram.OversizePolicy},
				{"encoding.target_fps", fmt.Sprintf("%d", cfg.Encoding.TargetFPS)},
				{"encoding.on_failure", cfg.Encoding.OnFailure},
				{"paths.staging_dir", cfg.Paths.StagingDir},
				{"paths.log_dir", cfg.Paths.LogDir},
				{"cleanup.delete_after_success", yesNo(cfg.Cleanup.DeleteAfterSuccess)},
				{"workflow.poll_interval", fmt.Sprintf("%ds", cfg.Workflow.PollInterval)},
				{"workflow.workers", fmt.Sprintf("%d", cfg.Workflow.Workers)},
				{"workflow.max_attempts", fmt.Sprintf("%d", cfg.Workflow.MaxAttempts)},
				{"notifications.ntfy_topic", cfg.Notifications.NtfyTopic},
				{"logging.format", cfg.Logging.Format},
				{"logging.level", cfg.Logging.Level},
			}

			out := renderTable([]column{
				{title: "Setting"},
				{title: "Value", maxWidth: 60},
			}, rows)
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
}

func maskSecret(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 8 {
		return "********"
	}
	return value[:4] + "..." + value[len(value)-4:]
}
