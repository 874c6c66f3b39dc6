package finalize

import (
	"context"
	"log/slog"
	"path/filepath"

	"ftpgram/internal/config"
	"ftpgram/internal/fileutil"
	"ftpgram/internal/logging"
	"ftpgram/internal/notifications"
	"ftpgram/internal/queue"
	"ftpgram/internal/services"
	"ftpgram/internal/services/remoteftp"
	"ftpgram/internal/stage"
)

// Finalizer performs post-delivery cleanup.
type Finalizer struct {
	cfg      *config.Config
	store    *queue.Store
	logger   *slog.Logger
	dialer   remoteftp.Dialer
	notifier notifications.Service
}

// NewFinalizer constructs the finalize stage handler using default dependencies.
func NewFinalizer(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Finalizer {
	return NewFinalizerWithDependencies(cfg, store, logger, remoteftp.NewServerDialer(cfg), notifications.NewService(cfg))
}

// NewFinalizerWithDependencies allows injecting collaborators (used in tests).
func NewFinalizerWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, dialer remoteftp.Dialer, notifier notifications.Service) *Finalizer {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "finalize"))
	}
	return &Finalizer{cfg: cfg, store: store, logger: stageLogger, dialer: dialer, notifier: notifier}
}

func (f *Finalizer) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, f.logger)
	if item.MessageID == 0 {
		return services.Wrap(services.ErrValidation, "finalize", "validate inputs", "item has no delivery receipt", nil)
	}
	item.ErrorMessage = ""
	logger.Info("starting finalize preparation",
		logging.String(logging.FieldRemotePath, item.RemotePath),
		logging.Int64("message_id", item.MessageID),
	)
	return nil
}

func (f *Finalizer) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, f.logger)

	if f.cfg.Cleanup.DeleteAfterSuccess {
		// Deletion only happens with a delivery receipt in hand. A failed
		// delete leaves the source in place; the identity index keeps the
		// rediscovered file from being sent twice.
		if err := f.deleteRemote(ctx, item.RemotePath); err != nil {
			logger.Warn("remote delete failed, leaving source in place",
				logging.String(logging.FieldRemotePath, item.RemotePath),
				logging.Error(err),
			)
		} else {
			logger.Info("remote source deleted", logging.String(logging.FieldRemotePath, item.RemotePath))
		}
	}

	if item.LocalPath != "" {
		fileutil.RemoveQuietly(filepath.Dir(item.LocalPath))
	}
	item.LocalPath = ""
	item.PublishPath = ""
	item.Status = queue.StatusCompleted

	if f.notifier != nil {
		if err := f.notifier.NotifyDelivered(ctx, item.RemoteBase(), item.MessageID); err != nil {
			logger.Warn("delivery notification failed", logging.Error(err))
		}
	}

	logger.Info("item completed",
		logging.Int64(logging.FieldItemID, item.ID),
		logging.String(logging.FieldRemotePath, item.RemotePath),
	)
	return nil
}

func (f *Finalizer) deleteRemote(ctx context.Context, remotePath string) error {
	conn, err := f.dialer.Dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	return conn.Delete(ctx, remotePath)
}

func (f *Finalizer) HealthCheck(ctx context.Context) stage.Health {
	if !f.cfg.Cleanup.DeleteAfterSuccess {
		return stage.Healthy("finalize")
	}
	conn, err := f.dialer.Dial(ctx)
	if err != nil {
		return stage.Unhealthy("finalize", err.Error())
	}
	_ = conn.Close()
	return stage.Healthy("finalize")
}

var _ stage.Handler = (*Finalizer)(nil)
