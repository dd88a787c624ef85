package types

import "time"

type SafetyStatus string

const (
	SafetySafe    SafetyStatus = "SAFE"
	SafetyUnsafe  SafetyStatus = "UNSAFE"
	SafetyUnknown SafetyStatus = "UNKNOWN"
)

// AnalysisPoint is one timestamped observation produced by the analysis
// client during a live session. Scores are nominally 1-10; 0 marks a hard
// call failure and 5 a partial/parse failure. A point with SafetyStatus
// UNSAFE terminates the owning session and is never appended to history.
type AnalysisPoint struct {
	Timestamp       time.Time    `json:"timestamp"`
	PostureScore    int          `json:"posture_score"`
	FocusScore      int          `json:"focus_score"`
	LightingScore   int          `json:"lighting_score"`
	DetectedObjects []string     `json:"detected_objects"`
	Suggestion      string       `json:"suggestion"`
	GoodPoints      []string     `json:"good_points,omitempty"`
	Improvements    []string     `json:"improvements,omitempty"`
	SafetyStatus    SafetyStatus `json:"safety_status"`
}

// SessionSummary is the analysis client's aggregate over a finished
// session's point history.
type SessionSummary struct {
	KeyInsights  []string `json:"key_insights"`
	OverallScore int      `json:"overall_score"`
}
