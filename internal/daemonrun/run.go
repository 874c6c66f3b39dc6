package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"ftpgram/internal/config"
	"ftpgram/internal/daemon"
	"ftpgram/internal/encoding"
	"ftpgram/internal/finalize"
	"ftpgram/internal/logging"
	"ftpgram/internal/notifications"
	"ftpgram/internal/poller"
	"ftpgram/internal/publish"
	"ftpgram/internal/queue"
	"ftpgram/internal/transfer"
	"ftpgram/internal/workflow"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel string
}

// Run starts the ftpgram daemon runtime loop. It blocks until the context is
// cancelled or a termination signal arrives.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("ftpgram-%s.log", runID))

	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", logPath},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logDependencySnapshot(logger, cfg)
	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update ftpgram.log link: %v\n", err)
	}

	pidPath := filepath.Join(cfg.Paths.LogDir, "ftpgram.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open queue store", logging.Error(err))
		return err
	}
	defer store.Close()

	notifier := notifications.NewService(cfg)
	manager := workflow.NewManagerWithNotifier(cfg, store, logger, notifier)
	if err := registerStages(manager, cfg, store, logger); err != nil {
		return err
	}

	scanner := poller.New(cfg, store, logger)
	d, err := daemon.New(cfg, store, logger, scanner, manager, notifier)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		logger.Error("daemon start failed", logging.Error(err))
		return err
	}

	<-signalCtx.Done()
	logger.Info("ftpgram daemon shutting down")
	return nil
}

func registerStages(mgr *workflow.Manager, cfg *config.Config, store *queue.Store, logger *slog.Logger) error {
	publisher, err := publish.NewPublisher(cfg, store, logger)
	if err != nil {
		return fmt.Errorf("init publisher: %w", err)
	}

	mgr.ConfigureStages(workflow.StageSet{
		Downloader: transfer.NewDownloader(cfg, store, logger),
		Normalizer: encoding.NewNormalizer(cfg, store, logger),
		Publisher:  publisher,
		Finalizer:  finalize.NewFinalizer(cfg, store, logger),
	})
	return nil
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "ftpgram.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	logger.Info("dependency snapshot",
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.Bool("telegram_token_present", strings.TrimSpace(cfg.Telegram.BotToken) != ""),
		logging.Bool("ffmpeg_available", binaryAvailable("ffmpeg")),
		logging.Bool("ffprobe_available", binaryAvailable("ffprobe")),
		logging.Bool("encoding_enabled", cfg.Encoding.TargetFPS > 0),
		logging.Bool("delete_after_success", cfg.Cleanup.DeleteAfterSuccess),
	)
}

func binaryAvailable(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
