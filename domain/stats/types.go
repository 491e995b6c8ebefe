package stats

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"ephysval/domain/core"
)

// ScoreType tags which statistic / hypothesis-test pair a run uses.
type ScoreType string

const (
	ScoreTypeNone  ScoreType = ""
	ScoreTypeT     ScoreType = "t_score"      // parametric, hypothesis about means
	ScoreTypeZSign ScoreType = "z_sign_score" // non-parametric, sign test about medians
)

// Label is the short name used in score strings.
func (s ScoreType) Label() string {
	switch s {
	case ScoreTypeT:
		return "TScore"
	case ScoreTypeZSign:
		return "ZScore"
	default:
		return "NoneScore"
	}
}

// ForDataCondition maps the data-condition outcome to a score type.
func ForDataCondition(parametric bool) ScoreType {
	if parametric {
		return ScoreTypeT
	}
	return ScoreTypeZSign
}

// ConfidenceLevel is one of the supported two-tailed confidence presets.
type ConfidenceLevel int

const (
	Confidence90 ConfidenceLevel = 90
	Confidence95 ConfidenceLevel = 95
	Confidence99 ConfidenceLevel = 99

	DefaultConfidence = Confidence95
)

// Valid reports whether c is a supported preset
func (c ConfidenceLevel) Valid() bool {
	switch c {
	case Confidence90, Confidence95, Confidence99:
		return true
	}
	return false
}

// Fraction returns the level in (0,1), e.g. 0.95.
func (c ConfidenceLevel) Fraction() float64 {
	return float64(c) / 100
}

// Alpha is the two-tailed significance level, 1 - confidence.
func (c ConfidenceLevel) Alpha() float64 {
	return float64(100-c) / 100
}

func (c ConfidenceLevel) String() string {
	return fmt.Sprintf("%d%%", int(c))
}

// ParseConfidenceLevel accepts "95", "95%" or "0.95".
func ParseConfidenceLevel(s string) (ConfidenceLevel, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	if s == "" {
		return 0, fmt.Errorf("empty confidence level")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid confidence level %q: %w", s, err)
	}
	if f > 0 && f < 1 {
		f *= 100
	}
	c := ConfidenceLevel(math.Round(f))
	if !c.Valid() || math.Abs(f-float64(c)) > 1e-9 {
		return 0, fmt.Errorf("unsupported confidence level %q (want 90, 95 or 99)", s)
	}
	return c, nil
}

// Statistics holds named numeric diagnostics from a hypothesis test.
type Statistics map[string]float64

// Score is the outcome of one validation test run.
type Score struct {
	JudgmentID  core.JudgmentID      `json:"judgment_id,omitempty"`
	Test        string               `json:"test,omitempty"`
	Observation core.ObservationHash `json:"observation_hash,omitempty"`
	Type        ScoreType            `json:"score_type"`
	Value       float64              `json:"score"`
	Description string               `json:"description"`
	Statistics  Statistics           `json:"statistics"`
	Rejected    bool                 `json:"null_rejected"`
}

// SortKey orders scores by their statistic value.
func (s *Score) SortKey() float64 {
	return s.Value
}

func (s *Score) String() string {
	return s.Type.Label() + " is " + strconv.FormatFloat(s.Value, 'g', -1, 64)
}
