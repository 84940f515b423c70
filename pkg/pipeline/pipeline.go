// Package pipeline turns a reel URL into a downloaded video plus preview
// frames, ready to be relayed and then deleted.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"igreelbot/pkg/config"
	igerrors "igreelbot/pkg/errors"
	"igreelbot/pkg/extractor"
	"igreelbot/pkg/instagram"
	"igreelbot/pkg/logger"
	"igreelbot/pkg/media"
	"igreelbot/pkg/storage"
)

// Request is one fetch: the reel URL and the requester's cookie file, if any
type Request struct {
	URL        string
	CookiePath string
}

// Result holds everything produced for a request. Callers must call Cleanup
// once the artifacts have been relayed.
type Result struct {
	Reel             *instagram.Reel
	Thumbnails       []string
	PreviewsDisabled bool
	Artifacts        *storage.Workspace

	log logger.Logger
}

// Cleanup deletes the video and every thumbnail. Failures are logged only.
func (r *Result) Cleanup() {
	if r == nil || r.Artifacts == nil {
		return
	}
	if err := r.Artifacts.Cleanup(); err != nil {
		r.log.WithError(err).Error("Failed to remove artifacts")
	}
}

// ThumbnailGenerator samples preview frames from a video into a workspace
type ThumbnailGenerator interface {
	Generate(ctx context.Context, videoPath, shortcode string, ws *storage.Workspace) []string
}

// ThumbnailerFactory returns a generator, or a tool_unavailable error when
// the media tools are not installed
type ThumbnailerFactory func() (ThumbnailGenerator, error)

// Pipeline runs fetch requests
type Pipeline struct {
	extractor  extractor.Extractor
	thumbnails ThumbnailerFactory
	workDir    string
	log        logger.Logger
}

// New wires the pipeline to yt-dlp and ffmpeg as configured
func New(cfg *config.Config, log logger.Logger) *Pipeline {
	thumbCfg := cfg.Thumbnails
	factory := func() (ThumbnailGenerator, error) {
		ff, err := media.NewFFmpeg(thumbCfg)
		if err != nil {
			return nil, err
		}
		return media.NewThumbnailer(ff, ff, thumbCfg.Count, thumbCfg.MinDuration, log), nil
	}
	return NewWithDeps(extractor.NewYtDlp(cfg.Download), factory, cfg.Download.WorkDir, log)
}

// NewWithDeps creates a pipeline from explicit collaborators
func NewWithDeps(x extractor.Extractor, thumbnails ThumbnailerFactory, workDir string, log logger.Logger) *Pipeline {
	return &Pipeline{
		extractor:  x,
		thumbnails: thumbnails,
		workDir:    workDir,
		log:        log.WithField("component", "pipeline"),
	}
}

// Run validates the URL, downloads the reel and generates thumbnails. The
// returned error is an *igerrors.Error of type invalid_input or
// fetch_failed for expected failures.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	log := p.log.WithField("url", req.URL)

	if err := instagram.ValidateURL(req.URL); err != nil {
		return nil, err
	}

	ws, err := storage.NewWorkspace(p.workDir)
	if err != nil {
		return nil, fmt.Errorf("prepare workspace: %w", err)
	}
	result := &Result{Artifacts: ws, log: log}

	started := time.Now()
	reel, err := p.extractor.Fetch(ctx, req.URL, req.CookiePath)
	logger.LogStep(log, "fetch", started, err)
	if err != nil {
		return nil, asFetchFailed(err, req.CookiePath != "")
	}
	ws.Track(reel.VideoPath)
	result.Reel = reel

	log = log.WithField("shortcode", reel.Shortcode)
	result.log = log

	gen, err := p.thumbnails()
	if err != nil {
		if !igerrors.IsType(err, igerrors.ErrorTypeToolUnavailable) {
			err = igerrors.Wrap(igerrors.ErrorTypeToolUnavailable, "media tools", err)
		}
		log.WithError(err).Warn("Previews disabled")
		result.PreviewsDisabled = true
		return result, nil
	}

	shortcode := reel.Shortcode
	if shortcode == "" {
		shortcode = "reel"
	}
	started = time.Now()
	result.Thumbnails = gen.Generate(ctx, reel.VideoPath, shortcode, ws)
	logger.LogStep(log.WithField("thumbnails", len(result.Thumbnails)), "thumbnails", started, nil)

	return result, nil
}

func asFetchFailed(err error, authenticated bool) error {
	var e *igerrors.Error
	if errors.As(err, &e) && e.Type == igerrors.ErrorTypeFetchFailed {
		e.Authenticated = authenticated
		return e
	}
	wrapped := igerrors.Wrap(igerrors.ErrorTypeFetchFailed, "fetch reel", err)
	wrapped.Authenticated = authenticated
	return wrapped
}
