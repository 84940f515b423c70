package media

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"igreelbot/pkg/config"
	igerrors "igreelbot/pkg/errors"
)

// Prober reports the duration of a video in seconds
type Prober interface {
	Duration(ctx context.Context, videoPath string) (float64, error)
}

// FrameExtractor writes the frame at second `at` of a video to outPath
type FrameExtractor interface {
	ExtractFrame(ctx context.Context, videoPath string, at int, outPath string) error
}

// FFmpeg implements Prober and FrameExtractor with the ffprobe and ffmpeg
// binaries
type FFmpeg struct {
	ffmpegPath   string
	ffprobePath  string
	probeTimeout time.Duration
	frameTimeout time.Duration
}

// NewFFmpeg resolves both binaries on PATH
func NewFFmpeg(cfg config.ThumbnailConfig) (*FFmpeg, error) {
	ffprobePath, err := exec.LookPath(cfg.FFprobePath)
	if err != nil {
		return nil, igerrors.Wrap(igerrors.ErrorTypeToolUnavailable, "ffprobe not found", err)
	}
	ffmpegPath, err := exec.LookPath(cfg.FFmpegPath)
	if err != nil {
		return nil, igerrors.Wrap(igerrors.ErrorTypeToolUnavailable, "ffmpeg not found", err)
	}

	return &FFmpeg{
		ffmpegPath:   ffmpegPath,
		ffprobePath:  ffprobePath,
		probeTimeout: cfg.ProbeTimeout,
		frameTimeout: cfg.FrameTimeout,
	}, nil
}

// Duration runs ffprobe on the container format
func (f *FFmpeg) Duration(ctx context.Context, videoPath string) (float64, error) {
	ctx, cancel := withTimeout(ctx, f.probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, f.ffprobePath,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		videoPath,
	)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}

	return parseDuration(output)
}

func parseDuration(output []byte) (float64, error) {
	if !gjson.ValidBytes(output) {
		return 0, fmt.Errorf("ffprobe: invalid json output")
	}
	raw := gjson.GetBytes(output, "format.duration")
	if !raw.Exists() {
		return 0, fmt.Errorf("ffprobe: no duration reported")
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(raw.String()), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe: parse duration %q: %w", raw.String(), err)
	}
	return d, nil
}

// ExtractFrame grabs a single high-quality JPEG frame
func (f *FFmpeg) ExtractFrame(ctx context.Context, videoPath string, at int, outPath string) error {
	ctx, cancel := withTimeout(ctx, f.frameTimeout)
	defer cancel()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, f.ffmpegPath,
		"-y",
		"-loglevel", "error",
		"-ss", strconv.Itoa(at),
		"-i", videoPath,
		"-vframes", "1",
		"-q:v", "2",
		outPath,
	)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg at %ds: %w: %s", at, err, strings.TrimSpace(stderr.String()))
	}
	if _, err := os.Stat(outPath); err != nil {
		return fmt.Errorf("ffmpeg at %ds produced no frame: %w", at, err)
	}
	return nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
