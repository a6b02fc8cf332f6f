package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/crowdwatch-data/density.report/internal/config"
	"github.com/crowdwatch-data/density.report/internal/vision/v2detect"
)

// AdapterFactory builds the detection adapter for a stream. Streams
// never share adapters; each gets its own from the factory.
type AdapterFactory func(streamID string) v2detect.Adapter

// StreamStatus describes one managed stream.
type StreamStatus struct {
	StreamID string `json:"stream_id"`
	RunID    string `json:"run_id,omitempty"` // set while running
	Running  bool   `json:"running"`
}

// stream pairs a pipeline with its lifecycle state.
type stream struct {
	pipeline *Pipeline
	runID    string
	running  bool
}

// Manager owns one Pipeline per camera stream. Streams are isolated:
// separate track stores, histories, and windows, so concurrent streams
// are embarrassingly parallel. Start and Stop are idempotent; calling
// either redundantly is a reported no-op, not an error.
type Manager struct {
	mu      sync.Mutex
	tuning  *config.TuningConfig
	factory AdapterFactory
	streams map[string]*stream
}

// NewManager builds a stream manager. A nil tuning config uses
// defaults.
func NewManager(tuning *config.TuningConfig, factory AdapterFactory) *Manager {
	if tuning == nil {
		tuning = config.EmptyTuningConfig()
	}
	return &Manager{
		tuning:  tuning,
		factory: factory,
		streams: make(map[string]*stream),
	}
}

// Start begins (or resumes) processing for a stream. It returns the
// run id and whether this call actually started the stream; starting
// an already-running stream returns its existing run id with started
// false.
func (m *Manager) Start(streamID string) (runID string, started bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.streams[streamID]
	if !ok {
		s = &stream{pipeline: NewPipeline(m.factory(streamID), m.tuning)}
		m.streams[streamID] = s
	}
	if s.running {
		diagf("start stream %s: already running (run %s)", streamID, s.runID)
		return s.runID, false
	}

	s.runID = uuid.New().String()
	s.running = true
	opsf("stream %s started, run %s", streamID, s.runID)
	return s.runID, true
}

// Stop halts processing for a stream. Stopping an unknown or
// already-stopped stream returns false. The stream's state (tracks,
// window) is retained for a later Start.
func (m *Manager) Stop(streamID string) (stopped bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.streams[streamID]
	if !ok || !s.running {
		diagf("stop stream %s: not running", streamID)
		return false
	}
	s.running = false
	opsf("stream %s stopped, run %s", streamID, s.runID)
	s.runID = ""
	return true
}

// Process runs one frame through a stream's pipeline. The stream must
// be running.
func (m *Manager) Process(ctx context.Context, streamID string, frame v2detect.Frame) (FrameResult, error) {
	m.mu.Lock()
	s, ok := m.streams[streamID]
	if !ok || !s.running {
		m.mu.Unlock()
		return FrameResult{}, fmt.Errorf("stream %q is not running", streamID)
	}
	p := s.pipeline
	m.mu.Unlock()

	// The pipeline is not held under the manager lock: frame
	// processing on one stream must not block another.
	return p.ProcessFrame(ctx, frame), nil
}

// Pipeline returns the pipeline for a stream, if it exists.
func (m *Manager) Pipeline(streamID string) (*Pipeline, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.streams[streamID]
	if !ok {
		return nil, false
	}
	return s.pipeline, true
}

// Status lists all known streams.
func (m *Manager) Status() []StreamStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]StreamStatus, 0, len(m.streams))
	for id, s := range m.streams {
		out = append(out, StreamStatus{StreamID: id, RunID: s.runID, Running: s.running})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].StreamID < out[b].StreamID })
	return out
}

// ApplyTuning merges a (possibly partial) tuning update into the
// manager's config and pushes the result to every stream.
func (m *Manager) ApplyTuning(update *config.TuningConfig) error {
	if update == nil {
		return nil
	}
	if err := update.Validate(); err != nil {
		return fmt.Errorf("rejecting tuning update: %w", err)
	}

	m.mu.Lock()
	m.tuning = m.tuning.Merge(update)
	merged := m.tuning
	pipelines := make([]*Pipeline, 0, len(m.streams))
	for _, s := range m.streams {
		pipelines = append(pipelines, s.pipeline)
	}
	m.mu.Unlock()

	for _, p := range pipelines {
		p.ApplyTuning(merged)
	}
	return nil
}

// Tuning returns the manager's current merged tuning config.
func (m *Manager) Tuning() *config.TuningConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tuning
}
