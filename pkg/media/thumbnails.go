package media

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"igreelbot/pkg/config"
	"igreelbot/pkg/logger"
	"igreelbot/pkg/storage"
)

// MaxThumbnails bounds the preview set
const MaxThumbnails = config.MaxThumbnails

// SampleTimestamps picks min(max, floor(duration)-1) distinct whole seconds
// from [1, floor(duration)), sorted ascending. Durations under two seconds
// yield nothing.
func SampleTimestamps(duration float64, max int, rng *rand.Rand) []int {
	if duration < 2 || max <= 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		return nil
	}
	whole := int(math.Floor(duration))
	count := min(max, whole-1)
	if count < 1 {
		return nil
	}

	picked := rng.Perm(whole - 1)[:count]
	timestamps := make([]int, count)
	for i, p := range picked {
		timestamps[i] = p + 1
	}
	slices.Sort(timestamps)
	return timestamps
}

// ThumbnailName is the file name of the ordinal-th preview of a reel
func ThumbnailName(shortcode string, ordinal int) string {
	return fmt.Sprintf("%s_thumb_%d.jpg", shortcode, ordinal)
}

// Thumbnailer samples preview frames from a downloaded video
type Thumbnailer struct {
	prober      Prober
	frames      FrameExtractor
	count       int
	minDuration float64
	log         logger.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewThumbnailer creates a Thumbnailer producing up to count frames
func NewThumbnailer(prober Prober, frames FrameExtractor, count int, minDuration float64, log logger.Logger) *Thumbnailer {
	seed := uint64(time.Now().UnixNano())
	return &Thumbnailer{
		prober:      prober,
		frames:      frames,
		count:       min(count, MaxThumbnails),
		minDuration: minDuration,
		log:         log,
		rng:         rand.New(rand.NewPCG(seed, seed>>1)),
	}
}

// WithRand replaces the timestamp source
func (t *Thumbnailer) WithRand(rng *rand.Rand) *Thumbnailer {
	t.rng = rng
	return t
}

// Generate probes the video and extracts frames at sampled timestamps into
// the workspace. Probe and frame failures are logged and skipped; the result
// holds only frames that were written, in timestamp order.
func (t *Thumbnailer) Generate(ctx context.Context, videoPath, shortcode string, ws *storage.Workspace) []string {
	log := t.log.WithField("shortcode", shortcode)

	duration, err := t.prober.Duration(ctx, videoPath)
	if err != nil {
		log.WithError(err).Warn("Duration probe failed, skipping thumbnails")
		return nil
	}
	if duration < t.minDuration {
		log.WithField("duration", duration).Debug("Video too short for thumbnails")
		return nil
	}

	t.mu.Lock()
	timestamps := SampleTimestamps(duration, t.count, t.rng)
	t.mu.Unlock()

	var thumbnails []string
	for i, at := range timestamps {
		out := ws.Path(ThumbnailName(shortcode, i+1))
		ws.Track(out)

		if err := t.frames.ExtractFrame(ctx, videoPath, at, out); err != nil {
			log.WithError(err).WithField("timestamp", at).Debug("Frame extraction failed")
			continue
		}
		thumbnails = append(thumbnails, out)
	}

	log.WithFields(map[string]interface{}{
		"duration":   duration,
		"requested":  len(timestamps),
		"thumbnails": len(thumbnails),
	}).Debug("Thumbnails generated")
	return thumbnails
}
