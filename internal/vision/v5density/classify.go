package v5density

import (
	"encoding/json"
	"fmt"

	"github.com/crowdwatch-data/density.report/internal/config"
	"github.com/crowdwatch-data/density.report/internal/vision/v4groups"
)

// Level is an ordered crowd-density severity. Higher values are more
// severe; arithmetic comparison between levels is meaningful.
type Level int

const (
	LevelEmpty Level = iota
	LevelVeryLow
	LevelLow
	LevelMedium
	LevelHigh
	LevelVeryHigh
)

var levelNames = [...]string{
	LevelEmpty:    "empty",
	LevelVeryLow:  "very_low",
	LevelLow:      "low",
	LevelMedium:   "medium",
	LevelHigh:     "high",
	LevelVeryHigh: "very_high",
}

func (l Level) String() string {
	if l < LevelEmpty || int(l) >= len(levelNames) {
		return fmt.Sprintf("level(%d)", int(l))
	}
	return levelNames[l]
}

// MarshalJSON encodes the level as its string name.
func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// UnmarshalJSON decodes a level from its string name.
func (l *Level) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for i, name := range levelNames {
		if name == s {
			*l = Level(i)
			return nil
		}
	}
	return fmt.Errorf("unknown density level %q", s)
}

// Metrics is the per-frame density snapshot.
type Metrics struct {
	TotalPeople      int     `json:"total_people"`
	GroupCount       int     `json:"group_count"`       // groups with more than one member
	IndividualCount  int     `json:"individual_count"`  // singleton groups
	LargestGroupSize int     `json:"largest_group_size"`
	Level            Level   `json:"density_level"`
	Score            float64 `json:"density_score"` // people per 10,000 px²
}

// ClassifierConfig holds the tunable density thresholds. Each *Below
// bound is exclusive: a people count classifies at the level whose
// bound it is strictly under.
type ClassifierConfig struct {
	VeryLowBelow int
	LowBelow     int
	MediumBelow  int
	HighBelow    int
	// CrowdThreshold: a single group with more members than this
	// forces the highest severity.
	CrowdThreshold int
	// GroupThreshold: a single group with more members than this (but
	// not enough to be a crowd) bumps the base level one step.
	GroupThreshold int
}

// DefaultClassifierConfig returns the production defaults.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfigFromTuning(config.EmptyTuningConfig())
}

// ClassifierConfigFromTuning extracts the density thresholds from a
// tuning config.
func ClassifierConfigFromTuning(cfg *config.TuningConfig) ClassifierConfig {
	return ClassifierConfig{
		VeryLowBelow:   cfg.GetVeryLowBelow(),
		LowBelow:       cfg.GetLowBelow(),
		MediumBelow:    cfg.GetMediumBelow(),
		HighBelow:      cfg.GetHighBelow(),
		CrowdThreshold: cfg.GetCrowdThreshold(),
		GroupThreshold: cfg.GetGroupThreshold(),
	}
}

// Classify maps a frame's groups and dimensions to density metrics.
// Zero tracks or a degenerate frame area short-circuit to the empty
// result; there is no division by zero path.
func Classify(groups []v4groups.Group, frameWidth, frameHeight int, cfg ClassifierConfig) Metrics {
	m := Metrics{Level: LevelEmpty}

	for _, g := range groups {
		m.TotalPeople += g.Count
		if g.IsGroup {
			m.GroupCount++
		} else {
			m.IndividualCount++
		}
		if g.Count > m.LargestGroupSize {
			m.LargestGroupSize = g.Count
		}
	}

	if m.TotalPeople == 0 {
		return m
	}

	area := frameWidth * frameHeight
	if area > 0 {
		m.Score = float64(m.TotalPeople) / float64(area) * 10000
	}

	switch {
	case m.TotalPeople < cfg.VeryLowBelow:
		m.Level = LevelVeryLow
	case m.TotalPeople < cfg.LowBelow:
		m.Level = LevelLow
	case m.TotalPeople < cfg.MediumBelow:
		m.Level = LevelMedium
	case m.TotalPeople < cfg.HighBelow:
		m.Level = LevelHigh
	default:
		m.Level = LevelVeryHigh
	}

	// A dense knot of people dominates the area-wide count.
	switch {
	case m.LargestGroupSize > cfg.CrowdThreshold:
		m.Level = LevelVeryHigh
	case m.LargestGroupSize > cfg.GroupThreshold && m.Level < LevelVeryHigh:
		m.Level++
	}

	return m
}
