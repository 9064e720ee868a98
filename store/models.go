package store

const (
	DefaultDwellMs = 10000
	MinDwellMs     = 2000
	MaxDwellMs     = 30000
)

// ItemPreferences is the persisted per-announcement display record. A
// missing record means defaults; records are never deleted automatically.
type ItemPreferences struct {
	DwellDurationMs   int     `json:"dwell_duration_ms"`
	ImageLayout       string  `json:"image_layout"`
	ImageScale        float64 `json:"image_scale"`
	ImageSplitPercent int     `json:"image_split_percent"`
	ImageOpacity      float64 `json:"image_opacity"`
}

func DefaultPreferences() ItemPreferences {
	return ItemPreferences{
		DwellDurationMs:   DefaultDwellMs,
		ImageLayout:       "cover",
		ImageScale:        1.0,
		ImageSplitPercent: 50,
		ImageOpacity:      1.0,
	}
}

// ClampDwell bounds a requested dwell duration to the supported range.
func ClampDwell(ms int) int {
	if ms < MinDwellMs {
		return MinDwellMs
	}
	if ms > MaxDwellMs {
		return MaxDwellMs
	}
	return ms
}

type AppSettings struct {
	DefaultDwellMs int    `json:"default_dwell_ms"`
	PlayerURL      string `json:"player_url"`
}

type Schedule struct {
	Enabled bool   `json:"enabled"`
	Start   string `json:"start"`
	End     string `json:"end"`
}
