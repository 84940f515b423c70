package media

import (
	"context"
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igreelbot/pkg/logger"
	"igreelbot/pkg/storage"
)

func TestSampleTimestamps(t *testing.T) {
	tests := []struct {
		name      string
		duration  float64
		wantCount int
	}{
		{"below floor", 1.9, 0},
		{"zero", 0, 0},
		{"exactly two", 2.0, 1},
		{"fractional", 3.7, 2},
		{"six seconds", 6, 5},
		{"long", 120.5, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for seed := uint64(0); seed < 50; seed++ {
				rng := rand.New(rand.NewPCG(seed, seed))
				got := SampleTimestamps(tt.duration, MaxThumbnails, rng)

				require.Len(t, got, tt.wantCount)
				assert.True(t, slices.IsSorted(got))
				assert.Len(t, slices.Compact(slices.Clone(got)), len(got), "timestamps must be distinct")
				for _, ts := range got {
					assert.GreaterOrEqual(t, ts, 1)
					assert.Less(t, float64(ts), tt.duration)
				}
			}
		})
	}
}

func TestSampleTimestampsSmallMax(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	assert.Len(t, SampleTimestamps(60, 2, rng), 2)
	assert.Empty(t, SampleTimestamps(60, 0, rng))
}

func TestSampleTimestampsCoversRange(t *testing.T) {
	// d=3 has exactly two candidates, both must be picked
	rng := rand.New(rand.NewPCG(7, 7))
	assert.Equal(t, []int{1, 2}, SampleTimestamps(3, MaxThumbnails, rng))
}

func TestThumbnailName(t *testing.T) {
	assert.Equal(t, "C9xyz_thumb_3.jpg", ThumbnailName("C9xyz", 3))
}

type fakeProber struct {
	duration float64
	err      error
}

func (f *fakeProber) Duration(context.Context, string) (float64, error) {
	return f.duration, f.err
}

type fakeFrames struct {
	calls  []int
	failAt map[int]bool
}

func (f *fakeFrames) ExtractFrame(_ context.Context, _ string, at int, outPath string) error {
	f.calls = append(f.calls, at)
	if f.failAt[at] {
		return errors.New("ffmpeg exited 1")
	}
	return os.WriteFile(outPath, []byte("jpeg"), 0644)
}

func newWorkspace(t *testing.T) *storage.Workspace {
	t.Helper()
	ws, err := storage.NewWorkspace(t.TempDir())
	require.NoError(t, err)
	return ws
}

func TestGenerate(t *testing.T) {
	ws := newWorkspace(t)
	frames := &fakeFrames{}
	th := NewThumbnailer(&fakeProber{duration: 30}, frames, 5, 2, logger.NewNopLogger()).
		WithRand(rand.New(rand.NewPCG(3, 4)))

	thumbs := th.Generate(context.Background(), "/work/C9xyz.mp4", "C9xyz", ws)

	require.Len(t, thumbs, 5)
	assert.True(t, slices.IsSorted(frames.calls))
	for i, p := range thumbs {
		assert.Equal(t, ws.Path(ThumbnailName("C9xyz", i+1)), p)
		assert.FileExists(t, p)
	}
	assert.ElementsMatch(t, thumbs, ws.Tracked())
}

func TestGenerateSkipsFailedFrames(t *testing.T) {
	ws := newWorkspace(t)
	frames := &fakeFrames{failAt: map[int]bool{1: true}}
	tl := logger.NewTestLogger()
	th := NewThumbnailer(&fakeProber{duration: 3}, frames, 5, 2, tl)

	thumbs := th.Generate(context.Background(), "v.mp4", "C9xyz", ws)

	assert.Equal(t, []int{1, 2}, frames.calls)
	require.Len(t, thumbs, 1)
	assert.Equal(t, ws.Path("C9xyz_thumb_2.jpg"), thumbs[0])
	assert.True(t, tl.HasMessage("Frame extraction failed"))
	assert.Len(t, ws.Tracked(), 2, "failed outputs are still tracked for cleanup")
}

func TestGenerateShortVideo(t *testing.T) {
	frames := &fakeFrames{}
	th := NewThumbnailer(&fakeProber{duration: 1.5}, frames, 5, 2, logger.NewNopLogger())

	assert.Empty(t, th.Generate(context.Background(), "v.mp4", "C9xyz", newWorkspace(t)))
	assert.Empty(t, frames.calls, "ffmpeg must not run for short videos")
}

func TestGenerateProbeFailure(t *testing.T) {
	frames := &fakeFrames{}
	tl := logger.NewTestLogger()
	th := NewThumbnailer(&fakeProber{err: errors.New("moov atom not found")}, frames, 5, 2, tl)

	assert.Empty(t, th.Generate(context.Background(), "v.mp4", "C9xyz", newWorkspace(t)))
	assert.Empty(t, frames.calls)
	assert.Len(t, tl.GetMessagesByLevel("WARN"), 1)
}

func TestNewThumbnailerCapsCount(t *testing.T) {
	th := NewThumbnailer(&fakeProber{}, &fakeFrames{}, 9, 2, logger.NewNopLogger())
	assert.Equal(t, MaxThumbnails, th.count)
}

func TestGenerateWritesIntoWorkspace(t *testing.T) {
	ws := newWorkspace(t)
	th := NewThumbnailer(&fakeProber{duration: 10}, &fakeFrames{}, 2, 2, logger.NewNopLogger())

	for _, p := range th.Generate(context.Background(), "v.mp4", "abc", ws) {
		assert.Equal(t, filepath.Dir(ws.Path("x")), filepath.Dir(p))
	}
}
