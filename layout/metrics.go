// Package layout derives sizing tokens for the carousel renderer from live
// screen metrics so content lays out correctly on arbitrary displays.
package layout

import "log/slog"

type Orientation string

const (
	OrientationPortrait  Orientation = "portrait"
	OrientationLandscape Orientation = "landscape"
)

// landscapeRatio is the width/height cutoff between portrait and landscape.
// Slightly above 4:3 so near-square panels are treated as portrait.
const landscapeRatio = 1.37

const (
	largeHeightPx      = 2000
	largeWidthPx       = 3000
	constrainedWidthPx = 1400
)

// Default profile used when the metrics source reports garbage.
const (
	DefaultWidth      = 1920
	DefaultHeight     = 1080
	DefaultPixelRatio = 1.0
)

type ScreenMetrics struct {
	Width          int         `json:"width"`
	Height         int         `json:"height"`
	PixelRatio     float64     `json:"pixel_ratio"`
	Orientation    Orientation `json:"orientation"`
	IsLargeDisplay bool        `json:"is_large_display"`
	IsConstrained  bool        `json:"is_constrained"`
}

// Classify computes the derived display classification for a raw
// width/height/pixel-ratio sample. Invalid samples fall back to a normal
// density landscape profile rather than returning an error.
func Classify(width, height int, pixelRatio float64) ScreenMetrics {
	if width <= 0 || height <= 0 || pixelRatio <= 0 {
		slog.Warn("invalid screen metrics, using default profile",
			"width", width, "height", height, "pixel_ratio", pixelRatio)
		width, height, pixelRatio = DefaultWidth, DefaultHeight, DefaultPixelRatio
	}

	orientation := OrientationPortrait
	if float64(width)/float64(height) >= landscapeRatio {
		orientation = OrientationLandscape
	}

	return ScreenMetrics{
		Width:          width,
		Height:         height,
		PixelRatio:     pixelRatio,
		Orientation:    orientation,
		IsLargeDisplay: height > largeHeightPx || width > largeWidthPx,
		IsConstrained:  width < constrainedWidthPx,
	}
}
