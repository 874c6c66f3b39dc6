package encoding

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"ftpgram/internal/config"
	"ftpgram/internal/fileutil"
	"ftpgram/internal/logging"
	"ftpgram/internal/media/ffprobe"
	"ftpgram/internal/queue"
	"ftpgram/internal/services"
	"ftpgram/internal/services/ffmpeg"
	"ftpgram/internal/stage"
)

// normalizeCRF is the libx264 rate factor used for frame-rate conversion.
const normalizeCRF = 23

// maxDriftRatio is the tolerated disagreement between the recoded duration
// and the duration the source frame count implies before a setpts pass
// re-times the output.
const maxDriftRatio = 0.05

// probeFunc matches ffprobe.Inspect and is injectable for tests.
type probeFunc func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// frameCountFunc matches ffprobe.CountFrames and is injectable for tests.
type frameCountFunc func(ctx context.Context, binary, path string) (int64, error)

// Normalizer re-encodes downloads to the target frame rate.
type Normalizer struct {
	cfg         *config.Config
	store       *queue.Store
	logger      *slog.Logger
	encoder     ffmpeg.Client
	probe       probeFunc
	countFrames frameCountFunc
}

// NewNormalizer constructs the encoding stage handler using default dependencies.
func NewNormalizer(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Normalizer {
	return NewNormalizerWithDependencies(cfg, store, logger, ffmpeg.NewCLI(ffmpeg.WithBinary(cfg.FFmpegBinary())), ffprobe.Inspect)
}

// NewNormalizerWithDependencies allows injecting collaborators (used in tests).
func NewNormalizerWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, encoder ffmpeg.Client, probe probeFunc) *Normalizer {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "encoding"))
	}
	return &Normalizer{
		cfg:         cfg,
		store:       store,
		logger:      stageLogger,
		encoder:     encoder,
		probe:       probe,
		countFrames: ffprobe.CountFrames,
	}
}

func (n *Normalizer) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, n.logger)
	if item.LocalPath == "" {
		return services.Wrap(services.ErrValidation, "encode", "validate inputs", "no downloaded file to normalize", nil)
	}
	item.ErrorMessage = ""
	logger.Info("starting normalization preparation",
		logging.String("local_path", item.LocalPath),
		logging.Int("target_fps", n.cfg.Encoding.TargetFPS),
	)
	return nil
}

func (n *Normalizer) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, n.logger)

	// A zero target disables normalization entirely; the download is
	// published byte for byte.
	if n.cfg.Encoding.TargetFPS == 0 {
		item.PublishPath = item.LocalPath
		logger.Info("normalization disabled, passing download through",
			logging.String("publish_path", item.PublishPath),
		)
		return nil
	}

	outputPath, err := n.recode(ctx, item)
	if err != nil {
		if n.cfg.Encoding.OnFailure == config.EncodeFailureSkip {
			return services.Wrap(services.ErrEncoding, "encode", "normalize", "normalization failed and policy skips the item", err)
		}
		item.PublishPath = item.LocalPath
		logger.Warn("normalization failed, publishing original",
			logging.Error(err),
			logging.String("publish_path", item.PublishPath),
		)
		return nil
	}

	item.PublishPath = outputPath
	logger.Info("normalization completed",
		logging.String("publish_path", outputPath),
		logging.Int64("bytes", fileutil.FileSize(outputPath)),
	)
	return nil
}

func (n *Normalizer) recode(ctx context.Context, item *queue.Item) (string, error) {
	probed, err := n.probe(ctx, n.cfg.FFprobeBinary(), item.LocalPath)
	if err != nil {
		return "", fmt.Errorf("probe source: %w", err)
	}

	raw := isRawHEVC(item.LocalPath)
	base := filepath.Base(item.LocalPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	outputPath := filepath.Join(filepath.Dir(item.LocalPath), fmt.Sprintf("%s-%dfps.mp4", stem, n.cfg.Encoding.TargetFPS))

	req := ffmpeg.Request{
		InputPath:  item.LocalPath,
		OutputPath: outputPath,
		TargetFPS:  n.cfg.Encoding.TargetFPS,
		CRF:        normalizeCRF,
		RawHEVC:    raw,
		InputFPS:   probed.VideoFrameRate(),
		HasAudio:   !raw && probed.HasAudio(),
	}
	if err := n.encoder.Recode(ctx, req); err != nil {
		fileutil.RemoveQuietly(outputPath)
		return "", err
	}

	n.fixDurationDrift(ctx, item.LocalPath, outputPath)
	return outputPath, nil
}

// fixDurationDrift validates the recoded duration against the source frame
// count and re-times the output with a setpts pass when they disagree by
// more than maxDriftRatio. Raw camera streams lack timestamps, so the first
// recode can land short or long. The pass is best effort: when probing or
// the fix itself fails, the recoded file is published as is.
func (n *Normalizer) fixDurationDrift(ctx context.Context, sourcePath, outputPath string) {
	logger := logging.WithContext(ctx, n.logger)

	frames, err := n.countFrames(ctx, n.cfg.FFprobeBinary(), sourcePath)
	if err != nil || frames <= 0 {
		logger.Debug("skipping drift validation, no source frame count", logging.Error(err))
		return
	}
	probed, err := n.probe(ctx, n.cfg.FFprobeBinary(), outputPath)
	if err != nil {
		logger.Debug("skipping drift validation, cannot probe output", logging.Error(err))
		return
	}
	actual := probed.DurationSeconds()
	if actual <= 0 {
		logger.Debug("skipping drift validation, no output duration")
		return
	}

	expected := float64(frames) / float64(n.cfg.Encoding.TargetFPS)
	multiplier := expected / actual
	if math.Abs(multiplier-1.0) <= maxDriftRatio {
		return
	}

	logger.Info("duration drift detected, re-timing output",
		logging.Int64("source_frames", frames),
		logging.String("expected_duration", fmt.Sprintf("%.3fs", expected)),
		logging.String("actual_duration", fmt.Sprintf("%.3fs", actual)),
		logging.String("pts_factor", fmt.Sprintf("%.3f", multiplier)),
	)

	fixedPath := outputPath + ".fixed.mp4"
	err = n.encoder.FixDrift(ctx, ffmpeg.DriftFixRequest{
		InputPath:  outputPath,
		OutputPath: fixedPath,
		TargetFPS:  n.cfg.Encoding.TargetFPS,
		CRF:        normalizeCRF,
		PTSFactor:  multiplier,
	})
	if err != nil {
		fileutil.RemoveQuietly(fixedPath)
		logger.Warn("drift fix failed, keeping recoded output", logging.Error(err))
		return
	}
	if err := os.Rename(fixedPath, outputPath); err != nil {
		fileutil.RemoveQuietly(fixedPath)
		logger.Warn("cannot swap in re-timed output", logging.Error(err))
	}
}

func (n *Normalizer) HealthCheck(ctx context.Context) stage.Health {
	if n.cfg.Encoding.TargetFPS == 0 {
		return stage.Healthy("encoding")
	}
	if _, err := exec.LookPath(n.cfg.FFmpegBinary()); err != nil {
		return stage.Unhealthy("encoding", fmt.Sprintf("ffmpeg unavailable: %v", err))
	}
	return stage.Healthy("encoding")
}

// isRawHEVC reports whether the file is a bare HEVC elementary stream as
// produced by camera firmware (.265 and the vendor .250 variant).
func isRawHEVC(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".265", ".250":
		return true
	default:
		return false
	}
}

var _ stage.Handler = (*Normalizer)(nil)
