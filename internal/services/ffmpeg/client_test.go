package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func TestNewCLIWithBinary(t *testing.T) {
	cli := NewCLI(WithBinary("/opt/ffmpeg"))
	if cli.binary != "/opt/ffmpeg" {
		t.Fatalf("expected binary override to be applied, got %q", cli.binary)
	}
}

func TestCLIRecodeRequiresInput(t *testing.T) {
	cli := NewCLI()
	err := cli.Recode(context.Background(), Request{OutputPath: "/tmp/out.mp4", TargetFPS: 25})
	if err == nil {
		t.Fatal("expected error when input path is empty")
	}
}

func TestCLIRecodeRequiresOutput(t *testing.T) {
	cli := NewCLI()
	err := cli.Recode(context.Background(), Request{InputPath: "/media/clip.265", TargetFPS: 25})
	if err == nil {
		t.Fatal("expected error when output path is empty")
	}
}

func TestCLIRecodeRequiresPositiveFPS(t *testing.T) {
	cli := NewCLI()
	err := cli.Recode(context.Background(), Request{InputPath: "/media/clip.265", OutputPath: "/tmp/out.mp4"})
	if err == nil {
		t.Fatal("expected error when target fps is zero")
	}
}

func TestCLIRecodeBuildsRawHEVCArgs(t *testing.T) {
	var capturedArgs []string
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		capturedArgs = append([]string(nil), args...)
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "FFMPEG_HELPER_MODE=success")
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})

	cli := NewCLI()
	tempDir := t.TempDir()
	req := Request{
		InputPath:  filepath.Join(tempDir, "clip.265"),
		OutputPath: filepath.Join(tempDir, "clip.mp4"),
		TargetFPS:  20,
		CRF:        23,
		RawHEVC:    true,
		InputFPS:   25,
	}
	if err := cli.Recode(context.Background(), req); err != nil {
		t.Fatalf("Recode returned error: %v", err)
	}

	if len(capturedArgs) == 0 {
		t.Fatal("expected ffmpeg arguments to be captured")
	}

	idx := findArg(capturedArgs, "-fflags")
	if idx == -1 || capturedArgs[idx+1] != "+genpts" {
		t.Fatalf("expected genpts input flag, got %v", capturedArgs)
	}
	idx = findArg(capturedArgs, "-f")
	if idx == -1 || capturedArgs[idx+1] != "hevc" {
		t.Fatalf("expected raw hevc demuxer flag, got %v", capturedArgs)
	}
	idx = findArg(capturedArgs, "-framerate")
	if idx == -1 || capturedArgs[idx+1] != "25" {
		t.Fatalf("expected input framerate 25, got %v", capturedArgs)
	}
	idx = findArg(capturedArgs, "-filter:v")
	if idx == -1 || capturedArgs[idx+1] != "fps=20" {
		t.Fatalf("expected fps filter at target rate, got %v", capturedArgs)
	}
	idx = findArg(capturedArgs, "-crf")
	if idx == -1 || capturedArgs[idx+1] != "23" {
		t.Fatalf("expected crf 23, got %v", capturedArgs)
	}
	if findArg(capturedArgs, "-an") == -1 {
		t.Fatalf("expected audio dropped for raw stream, got %v", capturedArgs)
	}
	if capturedArgs[len(capturedArgs)-1] != req.OutputPath {
		t.Fatalf("expected output path last, got %v", capturedArgs)
	}
}

func TestCLIRecodeCarriesAudio(t *testing.T) {
	var capturedArgs []string
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		capturedArgs = append([]string(nil), args...)
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "FFMPEG_HELPER_MODE=success")
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})

	cli := NewCLI()
	tempDir := t.TempDir()
	req := Request{
		InputPath:  filepath.Join(tempDir, "clip.mp4"),
		OutputPath: filepath.Join(tempDir, "clip-norm.mp4"),
		TargetFPS:  20,
		CRF:        23,
		HasAudio:   true,
	}
	if err := cli.Recode(context.Background(), req); err != nil {
		t.Fatalf("Recode returned error: %v", err)
	}

	if findArg(capturedArgs, "-f") != -1 {
		t.Fatalf("expected no demuxer override for containered input, got %v", capturedArgs)
	}
	idx := findArg(capturedArgs, "-c:a")
	if idx == -1 || capturedArgs[idx+1] != "aac" {
		t.Fatalf("expected aac audio, got %v", capturedArgs)
	}
	if findArg(capturedArgs, "-movflags") == -1 {
		t.Fatalf("expected faststart movflags, got %v", capturedArgs)
	}
}

func TestCLIFixDriftBuildsSetPTSArgs(t *testing.T) {
	var capturedArgs []string
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		capturedArgs = append([]string(nil), args...)
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "FFMPEG_HELPER_MODE=success")
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})

	cli := NewCLI()
	tempDir := t.TempDir()
	req := DriftFixRequest{
		InputPath:  filepath.Join(tempDir, "clip-20fps.mp4"),
		OutputPath: filepath.Join(tempDir, "clip-20fps.mp4.fixed.mp4"),
		TargetFPS:  20,
		CRF:        23,
		PTSFactor:  1.25,
	}
	if err := cli.FixDrift(context.Background(), req); err != nil {
		t.Fatalf("FixDrift returned error: %v", err)
	}

	idx := findArg(capturedArgs, "-filter:v")
	if idx == -1 || capturedArgs[idx+1] != "setpts=PTS*1.25" {
		t.Fatalf("expected setpts filter, got %v", capturedArgs)
	}
	idx = findArg(capturedArgs, "-r")
	if idx == -1 || capturedArgs[idx+1] != "20" {
		t.Fatalf("expected target fps 20, got %v", capturedArgs)
	}
	if capturedArgs[len(capturedArgs)-1] != req.OutputPath {
		t.Fatalf("expected output path last, got %v", capturedArgs)
	}
}

func TestCLIFixDriftRequiresPositiveFactor(t *testing.T) {
	cli := NewCLI()
	err := cli.FixDrift(context.Background(), DriftFixRequest{
		InputPath:  "/media/clip.mp4",
		OutputPath: "/tmp/out.mp4",
		TargetFPS:  20,
		CRF:        23,
	})
	if err == nil {
		t.Fatal("expected error when pts factor is zero")
	}
}

func TestCLIRecodeFailure(t *testing.T) {
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "FFMPEG_HELPER_MODE=failure")
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})

	cli := NewCLI()
	tempDir := t.TempDir()
	req := Request{
		InputPath:  filepath.Join(tempDir, "clip.mp4"),
		OutputPath: filepath.Join(tempDir, "out.mp4"),
		TargetFPS:  20,
		CRF:        23,
	}
	if err := cli.Recode(context.Background(), req); err == nil {
		t.Fatal("expected recode failure error")
	}
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	switch os.Getenv("FFMPEG_HELPER_MODE") {
	case "success":
		os.Exit(0)
	case "failure":
		fmt.Fprintln(os.Stderr, "Conversion failed!")
		os.Exit(1)
	default:
		os.Exit(0)
	}
}

func findArg(args []string, target string) int {
	for i, arg := range args {
		if arg == target {
			return i
		}
	}
	return -1
}
