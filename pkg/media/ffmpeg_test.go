package media

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igreelbot/pkg/config"
	igerrors "igreelbot/pkg/errors"
)

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755))
	return path
}

func testThumbnailConfig(ffmpeg, ffprobe string) config.ThumbnailConfig {
	return config.ThumbnailConfig{
		FFmpegPath:   ffmpeg,
		FFprobePath:  ffprobe,
		Count:        5,
		MinDuration:  2,
		ProbeTimeout: 5 * time.Second,
		FrameTimeout: 10 * time.Second,
	}
}

func TestNewFFmpegToolUnavailable(t *testing.T) {
	dir := t.TempDir()
	ffmpeg := writeScript(t, dir, "ffmpeg", "exit 0\n")

	_, err := NewFFmpeg(testThumbnailConfig(ffmpeg, filepath.Join(dir, "missing-ffprobe")))
	require.Error(t, err)
	assert.True(t, igerrors.IsType(err, igerrors.ErrorTypeToolUnavailable))

	ffprobe := writeScript(t, dir, "ffprobe", "exit 0\n")
	_, err = NewFFmpeg(testThumbnailConfig(filepath.Join(dir, "missing-ffmpeg"), ffprobe))
	assert.True(t, igerrors.IsType(err, igerrors.ErrorTypeToolUnavailable))
}

func TestDuration(t *testing.T) {
	dir := t.TempDir()
	ffmpeg := writeScript(t, dir, "ffmpeg", "exit 0\n")
	ffprobe := writeScript(t, dir, "ffprobe", `echo '{"format":{"filename":"v.mp4","duration":"14.533333"}}'`+"\n")

	f, err := NewFFmpeg(testThumbnailConfig(ffmpeg, ffprobe))
	require.NoError(t, err)

	d, err := f.Duration(context.Background(), "v.mp4")
	require.NoError(t, err)
	assert.InDelta(t, 14.533333, d, 1e-9)
}

func TestDurationFailure(t *testing.T) {
	dir := t.TempDir()
	ffmpeg := writeScript(t, dir, "ffmpeg", "exit 0\n")
	ffprobe := writeScript(t, dir, "ffprobe", "echo 'v.mp4: Invalid data' >&2\nexit 1\n")

	f, err := NewFFmpeg(testThumbnailConfig(ffmpeg, ffprobe))
	require.NoError(t, err)

	_, err = f.Duration(context.Background(), "v.mp4")
	assert.Error(t, err)
}

func TestParseDuration(t *testing.T) {
	_, err := parseDuration([]byte(`{"format":{}}`))
	assert.Error(t, err)

	_, err = parseDuration([]byte(`{"format":{"duration":"N/A"}}`))
	assert.Error(t, err)

	_, err = parseDuration([]byte("not json"))
	assert.Error(t, err)

	d, err := parseDuration([]byte(`{"format":{"duration":"2.0"}}`))
	require.NoError(t, err)
	assert.Equal(t, 2.0, d)
}

func TestExtractFrame(t *testing.T) {
	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args")
	// the output path is the last argument
	ffmpeg := writeScript(t, dir, "ffmpeg",
		"printf '%s\\n' \"$@\" > "+argsFile+"\n"+
			"for last; do :; done\n"+
			"echo jpeg > \"$last\"\n")
	ffprobe := writeScript(t, dir, "ffprobe", "exit 0\n")

	f, err := NewFFmpeg(testThumbnailConfig(ffmpeg, ffprobe))
	require.NoError(t, err)

	out := filepath.Join(dir, "C9xyz_thumb_1.jpg")
	require.NoError(t, f.ExtractFrame(context.Background(), "v.mp4", 4, out))
	assert.FileExists(t, out)

	args, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	assert.Contains(t, string(args), "-ss\n4\n-i\nv.mp4\n-vframes\n1\n-q:v\n2\n")
}

func TestExtractFrameNoOutput(t *testing.T) {
	dir := t.TempDir()
	ffmpeg := writeScript(t, dir, "ffmpeg", "exit 0\n")
	ffprobe := writeScript(t, dir, "ffprobe", "exit 0\n")

	f, err := NewFFmpeg(testThumbnailConfig(ffmpeg, ffprobe))
	require.NoError(t, err)

	err = f.ExtractFrame(context.Background(), "v.mp4", 1, filepath.Join(dir, "out.jpg"))
	assert.Error(t, err)
}

func TestExtractFrameTimeout(t *testing.T) {
	dir := t.TempDir()
	ffmpeg := writeScript(t, dir, "ffmpeg", "exec sleep 5\n")
	ffprobe := writeScript(t, dir, "ffprobe", "exit 0\n")

	cfg := testThumbnailConfig(ffmpeg, ffprobe)
	cfg.FrameTimeout = 100 * time.Millisecond
	f, err := NewFFmpeg(cfg)
	require.NoError(t, err)

	start := time.Now()
	err = f.ExtractFrame(context.Background(), "v.mp4", 1, filepath.Join(dir, "out.jpg"))
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 4*time.Second)
}
