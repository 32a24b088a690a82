// Package settings persists user preferences in SQLite
package settings

// Threshold bounds enforced before anything reaches the duplicate detector.
// The detector itself accepts any value; clamping is this layer's job.
const (
	MinDuplicateThreshold = 0.0
	MaxDuplicateThreshold = 0.5
)

// Settings holds the user-configurable capture preferences.
type Settings struct {
	IntervalSeconds    float64 `json:"interval_seconds"`
	MaxShots           int     `json:"max_shots"`
	SaveDir            string  `json:"save_dir"`
	DetectDuplicates   bool    `json:"detect_duplicates"`
	DuplicateThreshold float64 `json:"duplicate_threshold"`
	ShutterSound       string  `json:"shutter_sound"`
	EndSound           string  `json:"end_sound"`
	Display            int     `json:"display"`
}

// ClampThreshold forces v into the useful threshold range.
func ClampThreshold(v float64) float64 {
	if v < MinDuplicateThreshold {
		return MinDuplicateThreshold
	}
	if v > MaxDuplicateThreshold {
		return MaxDuplicateThreshold
	}
	return v
}
