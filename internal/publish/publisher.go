package publish

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"strings"
	"time"

	"ftpgram/internal/config"
	"ftpgram/internal/fileutil"
	"ftpgram/internal/logging"
	"ftpgram/internal/media/ffprobe"
	"ftpgram/internal/queue"
	"ftpgram/internal/services"
	"ftpgram/internal/services/ffmpeg"
	"ftpgram/internal/services/telegram"
	"ftpgram/internal/stage"
)

// probeFunc matches ffprobe.Inspect and is injectable for tests.
type probeFunc func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// Publisher delivers artifacts to the Telegram chat.
type Publisher struct {
	cfg     *config.Config
	store   *queue.Store
	logger  *slog.Logger
	sender  telegram.Sender
	encoder ffmpeg.Client
	probe   probeFunc
}

// NewPublisher constructs the publish stage handler using default dependencies.
func NewPublisher(cfg *config.Config, store *queue.Store, logger *slog.Logger) (*Publisher, error) {
	sender, err := telegram.NewBot(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	if err != nil {
		return nil, err
	}
	encoder := ffmpeg.NewCLI(ffmpeg.WithBinary(cfg.FFmpegBinary()))
	return NewPublisherWithDependencies(cfg, store, logger, sender, encoder, ffprobe.Inspect), nil
}

// NewPublisherWithDependencies allows injecting collaborators (used in tests).
func NewPublisherWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, sender telegram.Sender, encoder ffmpeg.Client, probe probeFunc) *Publisher {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "publish"))
	}
	return &Publisher{cfg: cfg, store: store, logger: stageLogger, sender: sender, encoder: encoder, probe: probe}
}

func (p *Publisher) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, p.logger)
	if item.PublishPath == "" {
		return services.Wrap(services.ErrValidation, "publish", "validate inputs", "no artifact to publish", nil)
	}
	item.ErrorMessage = ""
	logger.Info("starting publish preparation",
		logging.String("publish_path", item.PublishPath),
		logging.Int64("bytes", fileutil.FileSize(item.PublishPath)),
	)
	return nil
}

func (p *Publisher) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, p.logger)

	artifact, err := p.enforceSizeLimit(ctx, item, logger)
	if err != nil {
		return err
	}

	receipt, err := p.sendWithRetry(ctx, logger, artifact, item.RemoteBase())
	if err != nil {
		return err
	}

	item.PublishPath = artifact
	item.MessageID = receipt.MessageID
	logger.Info("publish completed",
		logging.String("publish_path", artifact),
		logging.Int64("message_id", receipt.MessageID),
	)
	return nil
}

// enforceSizeLimit applies the oversize policy and returns the artifact path
// that fits under the upload ceiling.
func (p *Publisher) enforceSizeLimit(ctx context.Context, item *queue.Item, logger *slog.Logger) (string, error) {
	limit := p.cfg.MaxUploadBytes()
	size := fileutil.FileSize(item.PublishPath)
	if size < 0 {
		return "", services.Wrap(services.ErrValidation, "publish", "stat artifact", "artifact missing from staging", nil)
	}
	if size <= limit {
		return item.PublishPath, nil
	}

	if p.cfg.Telegram.OversizePolicy != config.OversizeCompress {
		return "", services.Wrap(
			services.ErrPayloadTooLarge,
			"publish",
			"size gate",
			fmt.Sprintf("artifact is %d bytes, limit is %d", size, limit),
			nil,
		)
	}

	logger.Info("artifact over limit, attempting compression pass",
		logging.Int64("bytes", size),
		logging.Int64("limit", limit),
	)
	compressed, err := p.compress(ctx, item)
	if err != nil {
		return "", services.Wrap(services.ErrEncoding, "publish", "compression pass", "cannot compress oversize artifact", err)
	}
	if compressedSize := fileutil.FileSize(compressed); compressedSize > limit {
		fileutil.RemoveQuietly(compressed)
		return "", services.Wrap(
			services.ErrPayloadTooLarge,
			"publish",
			"size gate",
			fmt.Sprintf("artifact still %d bytes after compression, limit is %d", compressedSize, limit),
			nil,
		)
	}
	return compressed, nil
}

func (p *Publisher) compress(ctx context.Context, item *queue.Item) (string, error) {
	probed, err := p.probe(ctx, p.cfg.FFprobeBinary(), item.PublishPath)
	if err != nil {
		return "", fmt.Errorf("probe artifact: %w", err)
	}

	fps := p.cfg.Encoding.TargetFPS
	if fps <= 0 {
		if probedRate := probed.VideoFrameRate(); probedRate > 0 {
			fps = int(math.Round(probedRate))
		}
	}
	if fps <= 0 {
		fps = 25
	}

	base := filepath.Base(item.PublishPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	outputPath := filepath.Join(filepath.Dir(item.PublishPath), stem+"-compressed.mp4")

	req := ffmpeg.Request{
		InputPath:  item.PublishPath,
		OutputPath: outputPath,
		TargetFPS:  fps,
		CRF:        p.cfg.Encoding.CompressCRF,
		HasAudio:   probed.HasAudio(),
	}
	if err := p.encoder.Recode(ctx, req); err != nil {
		fileutil.RemoveQuietly(outputPath)
		return "", err
	}
	return outputPath, nil
}

func (p *Publisher) sendWithRetry(ctx context.Context, logger *slog.Logger, artifact, caption string) (telegram.Receipt, error) {
	maxAttempts := p.cfg.Telegram.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	backoff := time.Duration(p.cfg.Telegram.RetryBackoffSeconds) * time.Second

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		receipt, err := p.send(ctx, artifact, caption)
		if err == nil {
			return receipt, nil
		}
		lastErr = err

		if !services.IsRetryable(err) {
			return telegram.Receipt{}, err
		}
		if attempt == maxAttempts {
			break
		}

		wait := backoff * time.Duration(1<<(attempt-1))
		logger.Warn("delivery failed, backing off",
			logging.Error(err),
			logging.Int("attempt", attempt),
			logging.Duration("backoff", wait),
		)
		select {
		case <-ctx.Done():
			return telegram.Receipt{}, ctx.Err()
		case <-time.After(wait):
		}
	}
	return telegram.Receipt{}, lastErr
}

func (p *Publisher) send(ctx context.Context, artifact, caption string) (telegram.Receipt, error) {
	if strings.EqualFold(filepath.Ext(artifact), ".mp4") {
		return p.sender.SendVideo(ctx, artifact, caption)
	}
	return p.sender.SendDocument(ctx, artifact, caption)
}

func (p *Publisher) HealthCheck(ctx context.Context) stage.Health {
	if err := p.sender.Ping(ctx); err != nil {
		return stage.Unhealthy("publish", err.Error())
	}
	return stage.Healthy("publish")
}

var _ stage.Handler = (*Publisher)(nil)
