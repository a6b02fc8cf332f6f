package v2detect

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crowdwatch-data/density.report/internal/config"
	"github.com/crowdwatch-data/density.report/internal/vision"
)

func testFrame(i int) Frame {
	return Frame{Index: i, Width: 1280, Height: 720}
}

func TestBoundaryCaching(t *testing.T) {
	t.Parallel()

	calls := 0
	adapter := AdapterFunc(func(_ context.Context, _ Frame) ([]vision.Detection, error) {
		calls++
		return []vision.Detection{personBox(50, 120, vision.MethodNeural, 0.9)}, nil
	})

	cfg := config.EmptyTuningConfig()
	skip := 2
	cfg.DetectionSkipFrames = &skip
	b := NewBoundary(adapter, cfg)

	// --- Frame 0: real detector run.
	r0 := b.Process(context.Background(), testFrame(0))
	require.Len(t, r0.Detections, 1)
	assert.False(t, r0.Cached)

	// --- Frames 1 and 2: served from cache, flagged as such.
	r1 := b.Process(context.Background(), testFrame(1))
	r2 := b.Process(context.Background(), testFrame(2))
	assert.True(t, r1.Cached)
	assert.True(t, r2.Cached)
	assert.Equal(t, r0.Detections, r1.Detections)
	assert.Equal(t, r0.Detections, r2.Detections)

	// --- Frame 3: cadence expired, detector runs again.
	r3 := b.Process(context.Background(), testFrame(3))
	assert.False(t, r3.Cached)

	assert.Equal(t, 2, calls, "detector should run on frames 0 and 3 only")

	c := b.Counters()
	assert.Equal(t, 4, c.FramesProcessed)
	assert.Equal(t, 2, c.DetectorRuns)
	assert.Equal(t, 2, c.CachedFrames)
}

func TestBoundaryRunsEveryFrameWhenSkipZero(t *testing.T) {
	t.Parallel()

	calls := 0
	adapter := AdapterFunc(func(_ context.Context, _ Frame) ([]vision.Detection, error) {
		calls++
		return nil, nil
	})

	cfg := config.EmptyTuningConfig()
	zero := 0
	cfg.DetectionSkipFrames = &zero
	b := NewBoundary(adapter, cfg)

	for i := 0; i < 5; i++ {
		r := b.Process(context.Background(), testFrame(i))
		assert.False(t, r.Cached)
	}
	assert.Equal(t, 5, calls)
}

func TestBoundaryDegradesOnError(t *testing.T) {
	t.Parallel()

	boom := errors.New("camera unplugged")
	adapter := AdapterFunc(func(_ context.Context, _ Frame) ([]vision.Detection, error) {
		return nil, boom
	})

	b := NewBoundary(adapter, nil)
	r := b.Process(context.Background(), testFrame(0))

	assert.True(t, r.Degraded)
	assert.Empty(t, r.Detections)
	assert.ErrorIs(t, r.Err, boom)
	assert.Equal(t, 1, b.Counters().DegradedFrames)
}

func TestBoundaryDegradesOnPanic(t *testing.T) {
	t.Parallel()

	adapter := AdapterFunc(func(_ context.Context, _ Frame) ([]vision.Detection, error) {
		panic("index out of range in detector glue")
	})

	b := NewBoundary(adapter, nil)

	var r Result
	assert.NotPanics(t, func() {
		r = b.Process(context.Background(), testFrame(7))
	})
	assert.True(t, r.Degraded)
	assert.Empty(t, r.Detections)
	assert.ErrorContains(t, r.Err, "frame 7")
}

func TestBoundaryDegradedFrameClearsCache(t *testing.T) {
	t.Parallel()

	fail := false
	adapter := AdapterFunc(func(_ context.Context, _ Frame) ([]vision.Detection, error) {
		if fail {
			return nil, errors.New("transient")
		}
		return []vision.Detection{personBox(50, 120, vision.MethodNeural, 0.9)}, nil
	})

	cfg := config.EmptyTuningConfig()
	skip := 1
	cfg.DetectionSkipFrames = &skip
	b := NewBoundary(adapter, cfg)

	b.Process(context.Background(), testFrame(0)) // real run, populates cache
	b.Process(context.Background(), testFrame(1)) // cached

	fail = true
	r2 := b.Process(context.Background(), testFrame(2)) // real run fails
	require.True(t, r2.Degraded)

	// The frame after a failure must not resurrect pre-failure boxes.
	r3 := b.Process(context.Background(), testFrame(3))
	assert.True(t, r3.Cached)
	assert.Empty(t, r3.Detections)
}

func TestBoundaryFiltersQuality(t *testing.T) {
	t.Parallel()

	adapter := AdapterFunc(func(_ context.Context, _ Frame) ([]vision.Detection, error) {
		return []vision.Detection{
			personBox(50, 120, vision.MethodNeural, 0.9),
			personBox(5, 5, vision.MethodNeural, 0.9), // implausibly small
		}, nil
	})

	b := NewBoundary(adapter, nil)
	r := b.Process(context.Background(), testFrame(0))

	assert.Len(t, r.Detections, 1)
	assert.Equal(t, 1, r.Rejected)
	assert.Equal(t, 1, b.Counters().RejectedTotal)
}

func TestBoundarySetSkipFramesAtRuntime(t *testing.T) {
	t.Parallel()

	calls := 0
	adapter := AdapterFunc(func(_ context.Context, _ Frame) ([]vision.Detection, error) {
		calls++
		return nil, nil
	})

	cfg := config.EmptyTuningConfig()
	skip := 4
	cfg.DetectionSkipFrames = &skip
	b := NewBoundary(adapter, cfg)

	b.Process(context.Background(), testFrame(0)) // run
	b.SetSkipFrames(0)
	b.Process(context.Background(), testFrame(1)) // run: cadence now every frame
	b.Process(context.Background(), testFrame(2)) // run

	assert.Equal(t, 3, calls)
}
