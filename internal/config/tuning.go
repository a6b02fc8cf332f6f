package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for tuning parameters.
// Every field is a pointer so that partial JSON files are safe: fields
// omitted from the file fall back to the defaults baked into the Get*
// accessors. The same schema is accepted for startup configuration and
// runtime updates.
type TuningConfig struct {
	// Detection boundary params
	DetectionSkipFrames          *int     `json:"detection_skip_frames,omitempty"`
	MinDetectionWidth            *int     `json:"min_detection_width,omitempty"`
	MinDetectionHeight           *int     `json:"min_detection_height,omitempty"`
	MaxDetectionWidth            *int     `json:"max_detection_width,omitempty"`
	MaxDetectionHeight           *int     `json:"max_detection_height,omitempty"`
	MinAspectRatio               *float64 `json:"min_aspect_ratio,omitempty"`
	MaxAspectRatio               *float64 `json:"max_aspect_ratio,omitempty"`
	NeuralConfidenceThreshold    *float64 `json:"neural_confidence_threshold,omitempty"`
	ClassicalConfidenceThreshold *float64 `json:"classical_confidence_threshold,omitempty"`

	// Tracker params
	MaxDisappeared       *int     `json:"max_disappeared,omitempty"`
	MaxDistance          *float64 `json:"max_distance,omitempty"`
	BBoxHistoryLength    *int     `json:"bbox_history_length,omitempty"`
	ConfHistoryLength    *int     `json:"confidence_history_length,omitempty"`
	TrailHistoryLength   *int     `json:"trail_history_length,omitempty"`
	UseOptimalAssignment *bool    `json:"use_optimal_assignment,omitempty"`

	// Group merger params
	ProximityThreshold *float64 `json:"proximity_threshold,omitempty"`
	GroupPadding       *int     `json:"group_padding,omitempty"`
	StrictOverlap      *bool    `json:"strict_overlap,omitempty"`

	// Density classifier params. Each *Below bound is the exclusive
	// upper people count for the level it names; counts at or above the
	// last bound classify as the highest severity.
	VeryLowBelow   *int `json:"very_low_below,omitempty"`
	LowBelow       *int `json:"low_below,omitempty"`
	MediumBelow    *int `json:"medium_below,omitempty"`
	HighBelow      *int `json:"high_below,omitempty"`
	CrowdThreshold *int `json:"crowd_threshold,omitempty"`
	GroupThreshold *int `json:"group_threshold,omitempty"`

	// Stats params
	StatsWindowFrames *int `json:"stats_window_frames,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under
// the max file size. Fields omitted from the JSON file retain their
// default values, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	// Validate the config file path.
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from
// DefaultConfigPath. It searches the current directory and common
// parent directories so tests in nested packages find the file.
// Panics if the file cannot be loaded.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/vision/<layer>/
		"../../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run from repository root")
}

// Validate checks that the configured values are coherent.
func (c *TuningConfig) Validate() error {
	if c.DetectionSkipFrames != nil && *c.DetectionSkipFrames < 0 {
		return fmt.Errorf("detection_skip_frames must be non-negative, got %d", *c.DetectionSkipFrames)
	}
	if c.MaxDisappeared != nil && *c.MaxDisappeared < 0 {
		return fmt.Errorf("max_disappeared must be non-negative, got %d", *c.MaxDisappeared)
	}
	if c.MaxDistance != nil && *c.MaxDistance <= 0 {
		return fmt.Errorf("max_distance must be positive, got %f", *c.MaxDistance)
	}
	if c.ProximityThreshold != nil && *c.ProximityThreshold < 0 {
		return fmt.Errorf("proximity_threshold must be non-negative, got %f", *c.ProximityThreshold)
	}
	if c.BBoxHistoryLength != nil && *c.BBoxHistoryLength < 1 {
		return fmt.Errorf("bbox_history_length must be at least 1, got %d", *c.BBoxHistoryLength)
	}
	if c.ConfHistoryLength != nil && *c.ConfHistoryLength < 1 {
		return fmt.Errorf("confidence_history_length must be at least 1, got %d", *c.ConfHistoryLength)
	}
	if c.TrailHistoryLength != nil && *c.TrailHistoryLength < 1 {
		return fmt.Errorf("trail_history_length must be at least 1, got %d", *c.TrailHistoryLength)
	}
	if c.GroupPadding != nil && *c.GroupPadding < 0 {
		return fmt.Errorf("group_padding must be non-negative, got %d", *c.GroupPadding)
	}
	if c.StatsWindowFrames != nil && *c.StatsWindowFrames < 1 {
		return fmt.Errorf("stats_window_frames must be at least 1, got %d", *c.StatsWindowFrames)
	}
	if c.NeuralConfidenceThreshold != nil {
		if v := *c.NeuralConfidenceThreshold; v < 0 || v > 1 {
			return fmt.Errorf("neural_confidence_threshold must be in [0,1], got %f", v)
		}
	}
	if c.ClassicalConfidenceThreshold != nil {
		if v := *c.ClassicalConfidenceThreshold; v < 0 || v > 1 {
			return fmt.Errorf("classical_confidence_threshold must be in [0,1], got %f", v)
		}
	}
	if c.MinAspectRatio != nil && c.MaxAspectRatio != nil && *c.MinAspectRatio > *c.MaxAspectRatio {
		return fmt.Errorf("min_aspect_ratio %f exceeds max_aspect_ratio %f", *c.MinAspectRatio, *c.MaxAspectRatio)
	}

	// Density bounds must be strictly increasing where set.
	prev := 0
	for _, b := range []struct {
		name string
		val  *int
	}{
		{"very_low_below", c.VeryLowBelow},
		{"low_below", c.LowBelow},
		{"medium_below", c.MediumBelow},
		{"high_below", c.HighBelow},
	} {
		if b.val == nil {
			continue
		}
		if *b.val <= prev {
			return fmt.Errorf("%s must exceed the previous density bound, got %d", b.name, *b.val)
		}
		prev = *b.val
	}

	return nil
}

// Merge overlays the set fields of other onto a copy of c and returns
// the result. Nil fields in other leave c's values untouched, which is
// what lets a runtime update adjust a single knob.
func (c *TuningConfig) Merge(other *TuningConfig) *TuningConfig {
	out := *c
	if other == nil {
		return &out
	}
	if other.DetectionSkipFrames != nil {
		out.DetectionSkipFrames = other.DetectionSkipFrames
	}
	if other.MinDetectionWidth != nil {
		out.MinDetectionWidth = other.MinDetectionWidth
	}
	if other.MinDetectionHeight != nil {
		out.MinDetectionHeight = other.MinDetectionHeight
	}
	if other.MaxDetectionWidth != nil {
		out.MaxDetectionWidth = other.MaxDetectionWidth
	}
	if other.MaxDetectionHeight != nil {
		out.MaxDetectionHeight = other.MaxDetectionHeight
	}
	if other.MinAspectRatio != nil {
		out.MinAspectRatio = other.MinAspectRatio
	}
	if other.MaxAspectRatio != nil {
		out.MaxAspectRatio = other.MaxAspectRatio
	}
	if other.NeuralConfidenceThreshold != nil {
		out.NeuralConfidenceThreshold = other.NeuralConfidenceThreshold
	}
	if other.ClassicalConfidenceThreshold != nil {
		out.ClassicalConfidenceThreshold = other.ClassicalConfidenceThreshold
	}
	if other.MaxDisappeared != nil {
		out.MaxDisappeared = other.MaxDisappeared
	}
	if other.MaxDistance != nil {
		out.MaxDistance = other.MaxDistance
	}
	if other.BBoxHistoryLength != nil {
		out.BBoxHistoryLength = other.BBoxHistoryLength
	}
	if other.ConfHistoryLength != nil {
		out.ConfHistoryLength = other.ConfHistoryLength
	}
	if other.TrailHistoryLength != nil {
		out.TrailHistoryLength = other.TrailHistoryLength
	}
	if other.UseOptimalAssignment != nil {
		out.UseOptimalAssignment = other.UseOptimalAssignment
	}
	if other.ProximityThreshold != nil {
		out.ProximityThreshold = other.ProximityThreshold
	}
	if other.GroupPadding != nil {
		out.GroupPadding = other.GroupPadding
	}
	if other.StrictOverlap != nil {
		out.StrictOverlap = other.StrictOverlap
	}
	if other.VeryLowBelow != nil {
		out.VeryLowBelow = other.VeryLowBelow
	}
	if other.LowBelow != nil {
		out.LowBelow = other.LowBelow
	}
	if other.MediumBelow != nil {
		out.MediumBelow = other.MediumBelow
	}
	if other.HighBelow != nil {
		out.HighBelow = other.HighBelow
	}
	if other.CrowdThreshold != nil {
		out.CrowdThreshold = other.CrowdThreshold
	}
	if other.GroupThreshold != nil {
		out.GroupThreshold = other.GroupThreshold
	}
	if other.StatsWindowFrames != nil {
		out.StatsWindowFrames = other.StatsWindowFrames
	}
	return &out
}

// GetDetectionSkipFrames returns detection_skip_frames or its default.
// Zero means the detector runs every frame.
func (c *TuningConfig) GetDetectionSkipFrames() int {
	if c.DetectionSkipFrames == nil {
		return 2
	}
	return *c.DetectionSkipFrames
}

// GetMinDetectionWidth returns min_detection_width or its default.
func (c *TuningConfig) GetMinDetectionWidth() int {
	if c.MinDetectionWidth == nil {
		return 20
	}
	return *c.MinDetectionWidth
}

// GetMinDetectionHeight returns min_detection_height or its default.
func (c *TuningConfig) GetMinDetectionHeight() int {
	if c.MinDetectionHeight == nil {
		return 40
	}
	return *c.MinDetectionHeight
}

// GetMaxDetectionWidth returns max_detection_width or its default.
func (c *TuningConfig) GetMaxDetectionWidth() int {
	if c.MaxDetectionWidth == nil {
		return 300
	}
	return *c.MaxDetectionWidth
}

// GetMaxDetectionHeight returns max_detection_height or its default.
func (c *TuningConfig) GetMaxDetectionHeight() int {
	if c.MaxDetectionHeight == nil {
		return 500
	}
	return *c.MaxDetectionHeight
}

// GetMinAspectRatio returns min_aspect_ratio (height/width) or its default.
func (c *TuningConfig) GetMinAspectRatio() float64 {
	if c.MinAspectRatio == nil {
		return 1.2
	}
	return *c.MinAspectRatio
}

// GetMaxAspectRatio returns max_aspect_ratio (height/width) or its default.
func (c *TuningConfig) GetMaxAspectRatio() float64 {
	if c.MaxAspectRatio == nil {
		return 4.0
	}
	return *c.MaxAspectRatio
}

// GetNeuralConfidenceThreshold returns neural_confidence_threshold or its default.
func (c *TuningConfig) GetNeuralConfidenceThreshold() float64 {
	if c.NeuralConfidenceThreshold == nil {
		return 0.5
	}
	return *c.NeuralConfidenceThreshold
}

// GetClassicalConfidenceThreshold returns classical_confidence_threshold or its default.
func (c *TuningConfig) GetClassicalConfidenceThreshold() float64 {
	if c.ClassicalConfidenceThreshold == nil {
		return 0.7
	}
	return *c.ClassicalConfidenceThreshold
}

// GetMaxDisappeared returns max_disappeared or its default.
func (c *TuningConfig) GetMaxDisappeared() int {
	if c.MaxDisappeared == nil {
		return 15
	}
	return *c.MaxDisappeared
}

// GetMaxDistance returns max_distance (pixels) or its default.
func (c *TuningConfig) GetMaxDistance() float64 {
	if c.MaxDistance == nil {
		return 80
	}
	return *c.MaxDistance
}

// GetBBoxHistoryLength returns bbox_history_length or its default.
func (c *TuningConfig) GetBBoxHistoryLength() int {
	if c.BBoxHistoryLength == nil {
		return 3
	}
	return *c.BBoxHistoryLength
}

// GetConfHistoryLength returns confidence_history_length or its default.
func (c *TuningConfig) GetConfHistoryLength() int {
	if c.ConfHistoryLength == nil {
		return 2
	}
	return *c.ConfHistoryLength
}

// GetTrailHistoryLength returns trail_history_length or its default.
func (c *TuningConfig) GetTrailHistoryLength() int {
	if c.TrailHistoryLength == nil {
		return 30
	}
	return *c.TrailHistoryLength
}

// GetUseOptimalAssignment returns use_optimal_assignment or its
// default. Greedy matching is the production default.
func (c *TuningConfig) GetUseOptimalAssignment() bool {
	if c.UseOptimalAssignment == nil {
		return false
	}
	return *c.UseOptimalAssignment
}

// GetProximityThreshold returns proximity_threshold (pixels) or its default.
func (c *TuningConfig) GetProximityThreshold() float64 {
	if c.ProximityThreshold == nil {
		return 80
	}
	return *c.ProximityThreshold
}

// GetGroupPadding returns group_padding (pixels) or its default.
func (c *TuningConfig) GetGroupPadding() int {
	if c.GroupPadding == nil {
		return 10
	}
	return *c.GroupPadding
}

// GetStrictOverlap returns strict_overlap or its default. The default
// treats edge-touching boxes as overlapping.
func (c *TuningConfig) GetStrictOverlap() bool {
	if c.StrictOverlap == nil {
		return false
	}
	return *c.StrictOverlap
}

// GetVeryLowBelow returns very_low_below or its default.
func (c *TuningConfig) GetVeryLowBelow() int {
	if c.VeryLowBelow == nil {
		return 2
	}
	return *c.VeryLowBelow
}

// GetLowBelow returns low_below or its default.
func (c *TuningConfig) GetLowBelow() int {
	if c.LowBelow == nil {
		return 5
	}
	return *c.LowBelow
}

// GetMediumBelow returns medium_below or its default.
func (c *TuningConfig) GetMediumBelow() int {
	if c.MediumBelow == nil {
		return 10
	}
	return *c.MediumBelow
}

// GetHighBelow returns high_below or its default.
func (c *TuningConfig) GetHighBelow() int {
	if c.HighBelow == nil {
		return 20
	}
	return *c.HighBelow
}

// GetCrowdThreshold returns crowd_threshold or its default. A group
// whose member count exceeds this forces the highest density level.
func (c *TuningConfig) GetCrowdThreshold() int {
	if c.CrowdThreshold == nil {
		return 8
	}
	return *c.CrowdThreshold
}

// GetGroupThreshold returns group_threshold or its default. A group
// whose member count exceeds this bumps the density one level.
func (c *TuningConfig) GetGroupThreshold() int {
	if c.GroupThreshold == nil {
		return 5
	}
	return *c.GroupThreshold
}

// GetStatsWindowFrames returns stats_window_frames or its default.
func (c *TuningConfig) GetStatsWindowFrames() int {
	if c.StatsWindowFrames == nil {
		return 100
	}
	return *c.StatsWindowFrames
}
