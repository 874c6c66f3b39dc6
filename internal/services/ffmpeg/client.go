package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

var commandContext = exec.CommandContext

// Request describes one re-encode of a source file into an MP4 container.
type Request struct {
	InputPath  string
	OutputPath string

	// TargetFPS is the constant output frame rate.
	TargetFPS int

	// CRF is the libx264 rate factor for the output.
	CRF int

	// RawHEVC marks inputs that are bare HEVC elementary streams with no
	// container. ffmpeg needs the demuxer and input rate spelled out for
	// those.
	RawHEVC bool

	// InputFPS is the probed source frame rate, used to time raw streams.
	// When zero the target rate is assumed.
	InputFPS float64

	// HasAudio controls whether an AAC audio track is carried over.
	HasAudio bool
}

// DriftFixRequest describes a timestamp-correction pass over an already
// recoded MP4 whose container duration drifted from the source frame count.
type DriftFixRequest struct {
	InputPath  string
	OutputPath string

	// TargetFPS is the constant output frame rate.
	TargetFPS int

	// CRF is the libx264 rate factor for the output.
	CRF int

	// PTSFactor stretches or shrinks presentation timestamps. A value of
	// 1.1 makes the output ten percent longer.
	PTSFactor float64
}

// Client defines ffmpeg re-encode behaviour.
type Client interface {
	Recode(ctx context.Context, req Request) error
	FixDrift(ctx context.Context, req DriftFixRequest) error
}

// Option configures the CLI client.
type Option func(*CLI)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// CLI wraps the ffmpeg command-line encoder.
type CLI struct {
	binary string
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "ffmpeg"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Recode launches ffmpeg and blocks until the output file is written.
func (c *CLI) Recode(ctx context.Context, req Request) error {
	if req.InputPath == "" {
		return errors.New("input path required")
	}
	if req.OutputPath == "" {
		return errors.New("output path required")
	}
	if req.TargetFPS <= 0 {
		return errors.New("target fps must be positive")
	}

	args := buildArgs(req)
	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg recode failed: %w: %s", err, tail(string(output), 512))
	}
	return nil
}

// FixDrift re-times a recoded file with a setpts multiplier. The camera's
// raw streams carry no usable timestamps, so the first recode can land with
// a duration that disagrees with the source frame count.
func (c *CLI) FixDrift(ctx context.Context, req DriftFixRequest) error {
	if req.InputPath == "" {
		return errors.New("input path required")
	}
	if req.OutputPath == "" {
		return errors.New("output path required")
	}
	if req.TargetFPS <= 0 {
		return errors.New("target fps must be positive")
	}
	if req.PTSFactor <= 0 {
		return errors.New("pts factor must be positive")
	}

	args := buildDriftArgs(req)
	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg drift fix failed: %w: %s", err, tail(string(output), 512))
	}
	return nil
}

func buildArgs(req Request) []string {
	fps := strconv.Itoa(req.TargetFPS)

	// genpts regenerates presentation timestamps for raw camera streams
	// that arrive without any.
	args := []string{"-hide_banner", "-loglevel", "error", "-y", "-fflags", "+genpts"}
	if req.RawHEVC {
		inputRate := req.InputFPS
		if inputRate <= 0 {
			inputRate = float64(req.TargetFPS)
		}
		args = append(args, "-f", "hevc", "-framerate", strconv.FormatFloat(inputRate, 'f', -1, 64))
	}
	args = append(args, "-i", req.InputPath)

	args = append(args,
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", strconv.Itoa(req.CRF),
		"-pix_fmt", "yuv420p",
		"-r", fps,
		"-filter:v", "fps="+fps,
		"-fps_mode", "cfr",
	)
	if req.HasAudio {
		args = append(args, "-c:a", "aac", "-b:a", "128k")
	} else {
		args = append(args, "-an")
	}
	args = append(args,
		"-avoid_negative_ts", "make_zero",
		"-movflags", "+faststart",
		req.OutputPath,
	)
	return args
}

func buildDriftArgs(req DriftFixRequest) []string {
	return []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-i", req.InputPath,
		"-filter:v", fmt.Sprintf("setpts=PTS*%s", strconv.FormatFloat(req.PTSFactor, 'f', -1, 64)),
		"-r", strconv.Itoa(req.TargetFPS),
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", strconv.Itoa(req.CRF),
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
		req.OutputPath,
	}
}

// tail returns at most the last n bytes of trimmed command output.
func tail(output string, n int) string {
	trimmed := strings.TrimSpace(output)
	if len(trimmed) <= n {
		return trimmed
	}
	return trimmed[len(trimmed)-n:]
}

var _ Client = (*CLI)(nil)
