package transfer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"ftpgram/internal/config"
	"ftpgram/internal/fileutil"
	"ftpgram/internal/logging"
	"ftpgram/internal/queue"
	"ftpgram/internal/services"
	"ftpgram/internal/services/remoteftp"
	"ftpgram/internal/stage"
)

// Downloader copies remote files into the staging directory.
type Downloader struct {
	cfg    *config.Config
	store  *queue.Store
	logger *slog.Logger
	dialer remoteftp.Dialer
}

// NewDownloader constructs the download stage handler using default dependencies.
func NewDownloader(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Downloader {
	return NewDownloaderWithDialer(cfg, store, logger, remoteftp.NewServerDialer(cfg))
}

// NewDownloaderWithDialer allows injecting the FTP dialer (used in tests).
func NewDownloaderWithDialer(cfg *config.Config, store *queue.Store, logger *slog.Logger, dialer remoteftp.Dialer) *Downloader {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "transfer"))
	}
	return &Downloader{cfg: cfg, store: store, logger: stageLogger, dialer: dialer}
}

func (d *Downloader) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, d.logger)
	if item.RemotePath == "" {
		return services.Wrap(services.ErrValidation, "download", "validate inputs", "item has no remote path", nil)
	}
	item.ErrorMessage = ""
	logger.Info("starting download preparation",
		logging.String(logging.FieldRemotePath, item.RemotePath),
		logging.Int64("remote_size", item.RemoteSize),
	)
	return nil
}

func (d *Downloader) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, d.logger)

	itemDir := fileutil.ItemScratchDir(d.cfg.Paths.StagingDir, item.ID)
	if err := fileutil.EnsureDir(itemDir); err != nil {
		return services.Wrap(services.ErrTransient, "download", "stage directory", "cannot create staging directory", err)
	}

	localPath := filepath.Join(itemDir, fileutil.SanitizeBase(item.RemotePath))
	partPath := localPath + ".part"

	conn, err := d.dialer.Dial(ctx)
	if err != nil {
		return services.Wrap(services.ErrConnectivity, "download", "dial", "cannot reach FTP server", err)
	}
	defer conn.Close()

	written, err := d.fetch(ctx, conn, item.RemotePath, partPath)
	if err != nil {
		fileutil.RemoveQuietly(partPath)
		return err
	}

	if written != item.RemoteSize {
		fileutil.RemoveQuietly(partPath)
		return services.Wrap(
			services.ErrTransfer,
			"download",
			"verify size",
			fmt.Sprintf("downloaded %d bytes, expected %d", written, item.RemoteSize),
			nil,
		)
	}

	if err := os.Rename(partPath, localPath); err != nil {
		fileutil.RemoveQuietly(partPath)
		return services.Wrap(services.ErrTransient, "download", "finalize file", "cannot move download into place", err)
	}

	item.LocalPath = localPath
	logger.Info("download completed",
		logging.String(logging.FieldRemotePath, item.RemotePath),
		logging.String("local_path", localPath),
		logging.Int64("bytes", written),
	)
	return nil
}

func (d *Downloader) fetch(ctx context.Context, conn remoteftp.Conn, remotePath, partPath string) (int64, error) {
	reader, err := conn.Retrieve(ctx, remotePath)
	if err != nil {
		return 0, services.Wrap(services.ErrTransfer, "download", "retrieve", "cannot open remote file", err)
	}
	defer reader.Close()

	out, err := os.Create(partPath)
	if err != nil {
		return 0, services.Wrap(services.ErrTransient, "download", "create file", "cannot create staging file", err)
	}

	written, copyErr := io.Copy(out, reader)
	closeErr := out.Close()
	if copyErr != nil {
		return written, services.Wrap(services.ErrTransfer, "download", "copy", "download interrupted", copyErr)
	}
	if closeErr != nil {
		return written, services.Wrap(services.ErrTransient, "download", "close file", "cannot flush staging file", closeErr)
	}
	return written, nil
}

func (d *Downloader) HealthCheck(ctx context.Context) stage.Health {
	conn, err := d.dialer.Dial(ctx)
	if err != nil {
		return stage.Unhealthy("transfer", err.Error())
	}
	_ = conn.Close()
	return stage.Healthy("transfer")
}

var _ stage.Handler = (*Downloader)(nil)
