package v2detect

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/crowdwatch-data/density.report/internal/vision"
)

// ReplayRecord is one frame of a recorded detection log.
type ReplayRecord struct {
	Frame      Frame
	Detections []vision.Detection
}

// replayLine is the JSONL wire format for one frame of detections.
// Timestamps are unix milliseconds to keep the log compact and
// language-neutral.
type replayLine struct {
	FrameIndex  int                `json:"frame_index"`
	TimestampMS int64              `json:"timestamp_ms"`
	Width       int                `json:"width"`
	Height      int                `json:"height"`
	Detections  []vision.Detection `json:"detections"`
}

// ReplayReader streams ReplayRecords from a JSONL detection log, one
// frame per line. Blank lines are skipped. A malformed line is an
// error naming the line number; the reader does not guess.
type ReplayReader struct {
	scanner *bufio.Scanner
	line    int
}

// NewReplayReader wraps r in a ReplayReader.
func NewReplayReader(r io.Reader) *ReplayReader {
	sc := bufio.NewScanner(r)
	// Frames with many detections can exceed the default token size.
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &ReplayReader{scanner: sc}
}

// Next returns the next frame record, or io.EOF when the log is
// exhausted.
func (r *ReplayReader) Next() (ReplayRecord, error) {
	for r.scanner.Scan() {
		r.line++
		raw := r.scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var line replayLine
		if err := json.Unmarshal(raw, &line); err != nil {
			return ReplayRecord{}, fmt.Errorf("replay line %d: %w", r.line, err)
		}

		return ReplayRecord{
			Frame: Frame{
				Index:     line.FrameIndex,
				Timestamp: time.UnixMilli(line.TimestampMS).UTC(),
				Width:     line.Width,
				Height:    line.Height,
			},
			Detections: line.Detections,
		}, nil
	}
	if err := r.scanner.Err(); err != nil {
		return ReplayRecord{}, fmt.Errorf("replay read: %w", err)
	}
	return ReplayRecord{}, io.EOF
}

// LoadReplay reads an entire JSONL detection log from disk.
func LoadReplay(path string) ([]ReplayRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open replay log: %w", err)
	}
	defer f.Close()

	rr := NewReplayReader(f)
	var records []ReplayRecord
	for {
		rec, err := rr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// ReplayAdapter serves a recorded detection log through the Adapter
// interface, keyed by frame index. Frames absent from the log yield no
// detections, matching a live detector that saw nothing.
type ReplayAdapter struct {
	byIndex map[int][]vision.Detection
}

// NewReplayAdapter builds a ReplayAdapter from loaded records.
func NewReplayAdapter(records []ReplayRecord) *ReplayAdapter {
	byIndex := make(map[int][]vision.Detection, len(records))
	for _, rec := range records {
		byIndex[rec.Frame.Index] = rec.Detections
	}
	return &ReplayAdapter{byIndex: byIndex}
}

// Detect implements Adapter.
func (a *ReplayAdapter) Detect(_ context.Context, frame Frame) ([]vision.Detection, error) {
	return a.byIndex[frame.Index], nil
}
