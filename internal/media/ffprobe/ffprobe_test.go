package ffprobe

import (
	"math"
	"testing"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video", CodecName: "hevc", AvgFrameRate: "25/1"},
			{CodecType: "audio"},
			{CodecType: "audio"},
		},
		Format: Format{
			Duration: "123.45",
			Size:     "1000",
			BitRate:  "32000",
		},
	}
	if result.VideoStreamCount() != 1 {
		t.Fatalf("expected 1 video stream, got %d", result.VideoStreamCount())
	}
	if result.AudioStreamCount() != 2 {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
	if !result.HasAudio() {
		t.Fatal("expected audio present")
	}
	if result.VideoCodec() != "hevc" {
		t.Fatalf("unexpected codec: %s", result.VideoCodec())
	}
	if result.VideoFrameRate() != 25 {
		t.Fatalf("unexpected frame rate: %v", result.VideoFrameRate())
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 1000 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}
	if result.BitRate() != 32000 {
		t.Fatalf("unexpected bitrate: %d", result.BitRate())
	}
}

func TestVideoFrameRateFallsBackToRFrameRate(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video", AvgFrameRate: "0/0", RFrameRate: "30000/1001"},
		},
	}
	fps := result.VideoFrameRate()
	if math.Abs(fps-29.97) > 0.01 {
		t.Fatalf("expected ~29.97, got %v", fps)
	}
}

func TestVideoFrameRateWithoutVideoStream(t *testing.T) {
	result := Result{
		Streams: []Stream{{CodecType: "audio"}},
	}
	if result.VideoFrameRate() != 0 {
		t.Fatalf("expected 0 frame rate, got %v", result.VideoFrameRate())
	}
	if result.FirstVideoStream() != nil {
		t.Fatal("expected no video stream")
	}
}

func TestParseRational(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"25/1", 25},
		{"0/0", 0},
		{"30/0", 0},
		{"", 0},
		{"24", 24},
		{"garbage", 0},
	}
	for _, tc := range cases {
		if got := parseRational(tc.in); got != tc.want {
			t.Fatalf("parseRational(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{
		Format: Format{
			Duration: "bad",
			Size:     "-1",
			BitRate:  "nope",
		},
	}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
	if result.BitRate() != 0 {
		t.Fatalf("expected bitrate 0, got %d", result.BitRate())
	}
}
