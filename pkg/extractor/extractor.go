// Package extractor resolves a reel URL into a downloaded video file and its
// metadata by running yt-dlp.
package extractor

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"igreelbot/pkg/config"
	igerrors "igreelbot/pkg/errors"
	"igreelbot/pkg/instagram"
)

// Extractor fetches a remote reel and downloads its video
type Extractor interface {
	Fetch(ctx context.Context, url, cookiePath string) (*instagram.Reel, error)
}

// YtDlp runs the yt-dlp binary
type YtDlp struct {
	binaryPath string
	workDir    string
	format     string
	timeout    time.Duration
}

// NewYtDlp creates a yt-dlp backed extractor from the download settings
func NewYtDlp(cfg config.DownloadConfig) *YtDlp {
	return &YtDlp{
		binaryPath: cfg.YtDlpPath,
		workDir:    cfg.WorkDir,
		format:     cfg.Format,
		timeout:    cfg.Timeout,
	}
}

// Fetch downloads the reel at url into the work directory. A non-empty
// cookiePath is passed to yt-dlp as a Netscape cookie jar.
//
// yt-dlp writes into a scratch directory under the work directory that is
// removed on return. Only a successfully fetched video is moved out of it.
func (y *YtDlp) Fetch(ctx context.Context, url, cookiePath string) (*instagram.Reel, error) {
	authenticated := cookiePath != ""

	if err := os.MkdirAll(y.workDir, 0755); err != nil {
		return nil, fetchFailed("failed to create work directory", err, authenticated)
	}
	runDir, err := os.MkdirTemp(y.workDir, ".fetch-")
	if err != nil {
		return nil, fetchFailed("failed to create scratch directory", err, authenticated)
	}
	defer os.RemoveAll(runDir)

	if y.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, y.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, y.binaryPath, y.args(runDir, url, cookiePath)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := "yt-dlp failed"
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			msg = "yt-dlp timed out"
		} else if line := lastLine(stderr.String()); line != "" {
			msg = fmt.Sprintf("yt-dlp failed: %s", line)
		}
		return nil, fetchFailed(msg, err, authenticated)
	}

	meta, err := parseInfo(stdout.Bytes())
	if err != nil {
		return nil, fetchFailed("malformed yt-dlp output", err, authenticated)
	}

	videoPath := downloadedPath(meta)
	if videoPath == "" {
		return nil, fetchFailed("yt-dlp reported no file", nil, authenticated)
	}
	if _, err := os.Stat(videoPath); err != nil {
		return nil, fetchFailed("downloaded file missing", err, authenticated)
	}

	finalPath := filepath.Join(y.workDir, filepath.Base(videoPath))
	if err := os.Rename(videoPath, finalPath); err != nil {
		return nil, fetchFailed("failed to move downloaded file", err, authenticated)
	}

	return instagram.NewReel(finalPath, url, meta), nil
}

func (y *YtDlp) args(outDir, url, cookiePath string) []string {
	args := []string{
		"-f", y.format,
		"-o", filepath.Join(outDir, "%(id)s.%(ext)s"),
		"--dump-json",
		"--no-simulate",
		"--no-playlist",
		"--no-progress",
		"--no-warnings",
	}
	if cookiePath != "" {
		args = append(args, "--cookies", cookiePath)
	}
	return append(args, "--", url)
}

// parseInfo returns the last JSON object printed on stdout
func parseInfo(out []byte) (gjson.Result, error) {
	var last string
	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "{") && gjson.Valid(line) {
			last = line
		}
	}
	if err := scanner.Err(); err != nil {
		return gjson.Result{}, err
	}
	if last == "" {
		return gjson.Result{}, errors.New("no info json in output")
	}
	return gjson.Parse(last), nil
}

// downloadedPath prefers the post-processed location over the template name
func downloadedPath(meta gjson.Result) string {
	for _, field := range []string{"requested_downloads.0.filepath", "_filename", "filename"} {
		if p := meta.Get(field).String(); p != "" {
			return p
		}
	}
	return ""
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

func fetchFailed(msg string, err error, authenticated bool) error {
	e := igerrors.Wrap(igerrors.ErrorTypeFetchFailed, msg, err)
	e.Authenticated = authenticated
	return e
}
