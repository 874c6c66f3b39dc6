package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"ftpgram/internal/queue"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show bridge configuration and queue summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			fmt.Fprintln(out, renderSectionHeader("Bridge", colorize))
			fmt.Fprintln(out, renderStatusLine("FTP server", statusInfo, cfg.FTPAddr(), colorize))
			fmt.Fprintln(out, renderStatusLine("Watch dir", statusInfo, cfg.FTP.WatchDir, colorize))
			fmt.Fprintln(out, renderStatusLine("Telegram chat", statusInfo, cfg.Telegram.ChatID, colorize))

			encoding := "pass-through"
			if cfg.Encoding.TargetFPS > 0 {
				encoding = fmt.Sprintf("%d fps", cfg.Encoding.TargetFPS)
			}
			fmt.Fprintln(out, renderStatusLine("Encoding", statusInfo, encoding, colorize))
			fmt.Fprintln(out, renderStatusLine("Delete after send", statusInfo, yesNo(cfg.Cleanup.DeleteAfterSuccess), colorize))
			fmt.Fprintln(out, renderStatusLine("Upload limit", statusInfo, fmt.Sprintf("%d MiB", cfg.Telegram.MaxUploadMiB), colorize))
			notify := "disabled"
			if strings.TrimSpace(cfg.Notifications.NtfyTopic) != "" {
				notify = "ntfy"
			}
			fmt.Fprintln(out, renderStatusLine("Notifications", statusInfo, notify, colorize))

			return ctx.withStore(cmd.Context(), func(store *queue.Store) error {
				health, err := store.Health(cmd.Context())
				if err != nil {
					return err
				}

				fmt.Fprintln(out, renderSectionHeader("Queue", colorize))
				fmt.Fprintln(out, renderStatusLine("Total", statusInfo, strconv.Itoa(health.Total), colorize))
				fmt.Fprintln(out, renderStatusLine("Pending", statusInfo, strconv.Itoa(health.Pending), colorize))
				fmt.Fprintln(out, renderStatusLine("Processing", statusInfo, strconv.Itoa(health.Processing), colorize))
				fmt.Fprintln(out, renderStatusLine("Completed", statusInfo, strconv.Itoa(health.Completed), colorize))

				failedKind := statusOK
				if health.Failed > 0 {
					failedKind = statusWarn
				}
				fmt.Fprintln(out, renderStatusLine("Failed", failedKind, strconv.Itoa(health.Failed), colorize))
				return nil
			})
		},
	}
}
