package layout

import (
	"math"
	"sync"
)

// TextSizes holds the discrete size tier picked for each semantic text role.
type TextSizes struct {
	Title       int `json:"title"`
	Description int `json:"description"`
	Location    int `json:"location"`
	Date        int `json:"date"`
	Type        int `json:"type"`
}

// Sizes is the full bundle of tokens the renderer needs for one display.
type Sizes struct {
	Text             TextSizes `json:"text"`
	Padding          int       `json:"padding"`
	Gap              int       `json:"gap"`
	VerticalSpace    int       `json:"vertical_space"`
	ImageWidth       int       `json:"image_width"`
	ImageHeight      int       `json:"image_height"`
	ImageScale       float64   `json:"image_scale"`
	SplitPercent     int       `json:"split_percent"`
	IconMultiplier   float64   `json:"icon_multiplier"`
	AvatarMultiplier float64   `json:"avatar_multiplier"`
}

// sizeTiers is the fixed palette of text size classes the presentation
// layer supports. Role sizes are rounded into the nearest tier, never
// interpolated.
var sizeTiers = []int{11, 12, 14, 16, 18, 21, 24, 28, 34, 40, 48, 56}

var roleWeights = struct {
	title, description, location, date, typ float64
}{
	title:       1.5,
	description: 1.0,
	location:    0.9,
	date:        0.8,
	typ:         0.7,
}

const baseTextPx = 16.0

// densityCorrection softens the base scale on dense panels. Physical size
// matters more than pixel count, so a 2x panel does not get 2x text.
const densityCorrection = 0.15

// resolutionOverride is a per-display correction the general formula does
// not produce. Keyed by exact mode resolution.
type resolutionOverride struct {
	icon   float64
	avatar float64

	// forceRecompute makes this display ignore manual operator overrides
	// of the icon/avatar multipliers. Kept for the fixed-install portrait
	// kiosk whose multipliers must track the table, not the operator.
	forceRecompute bool
}

type resolution struct {
	width, height int
}

var resolutionOverrides = map[resolution]resolutionOverride{
	{3840, 2160}: {icon: 1.45, avatar: 1.6},
	{2160, 3840}: {icon: 1.7, avatar: 1.9, forceRecompute: true},
	{1080, 1920}: {icon: 1.15, avatar: 1.25},
}

// baseScale orders display classes from roomiest to tightest:
// large portrait > large landscape > normal portrait > normal landscape >
// constrained portrait > constrained landscape.
func baseScale(m ScreenMetrics) float64 {
	var scale float64
	switch {
	case m.IsLargeDisplay && m.Orientation == OrientationPortrait:
		scale = 1.9
	case m.IsLargeDisplay:
		scale = 1.6
	case m.IsConstrained && m.Orientation == OrientationPortrait:
		scale = 0.9
	case m.IsConstrained:
		scale = 0.8
	case m.Orientation == OrientationPortrait:
		scale = 1.25
	default:
		scale = 1.0
	}

	if m.PixelRatio > 1 {
		scale /= 1 + densityCorrection*(m.PixelRatio-1)
	}
	return scale
}

// nearestTier maps a continuous pixel value into the size palette,
// rounding to the closest tier and clamping at the palette bounds.
func nearestTier(px float64) int {
	if px <= float64(sizeTiers[0]) {
		return sizeTiers[0]
	}
	last := sizeTiers[len(sizeTiers)-1]
	if px >= float64(last) {
		return last
	}
	best := sizeTiers[0]
	bestDist := math.Abs(px - float64(best))
	for _, tier := range sizeTiers[1:] {
		dist := math.Abs(px - float64(tier))
		if dist < bestDist {
			best = tier
			bestDist = dist
		}
	}
	return best
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ComputeSizes maps screen metrics to the renderer's sizing tokens. Pure:
// identical metrics always produce identical output, which keeps the layout
// stable while countdown renders race resize events.
func ComputeSizes(m ScreenMetrics) Sizes {
	scale := baseScale(m)

	text := TextSizes{
		Title:       nearestTier(baseTextPx * scale * roleWeights.title),
		Description: nearestTier(baseTextPx * scale * roleWeights.description),
		Location:    nearestTier(baseTextPx * scale * roleWeights.location),
		Date:        nearestTier(baseTextPx * scale * roleWeights.date),
		Type:        nearestTier(baseTextPx * scale * roleWeights.typ),
	}

	splitPercent := 45
	if m.Orientation == OrientationPortrait {
		splitPercent = 55
	}

	sizes := Sizes{
		Text:             text,
		Padding:          int(math.Round(16 * scale)),
		Gap:              int(math.Round(10 * scale)),
		VerticalSpace:    int(math.Round(24 * scale)),
		ImageWidth:       int(math.Round(520 * scale)),
		ImageHeight:      int(math.Round(340 * scale)),
		ImageScale:       round2(scale),
		SplitPercent:     splitPercent,
		IconMultiplier:   round2(scale),
		AvatarMultiplier: round2(scale * 1.1),
	}

	// Known displays get hand-tuned icon/avatar corrections ahead of the
	// general formula.
	if ov, ok := resolutionOverrides[resolution{m.Width, m.Height}]; ok {
		sizes.IconMultiplier = ov.icon
		sizes.AvatarMultiplier = ov.avatar
	}

	return sizes
}

// Engine wraps ComputeSizes with the operator's manual icon/avatar
// multiplier overrides. Manual overrides persist until cleared, except on
// displays flagged forceRecompute in the override table.
type Engine struct {
	mu           sync.Mutex
	manualIcon   *float64
	manualAvatar *float64
}

func NewEngine() *Engine {
	return &Engine{}
}

func (e *Engine) SizesFor(m ScreenMetrics) Sizes {
	sizes := ComputeSizes(m)

	if ov, ok := resolutionOverrides[resolution{m.Width, m.Height}]; ok && ov.forceRecompute {
		return sizes
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.manualIcon != nil {
		sizes.IconMultiplier = *e.manualIcon
	}
	if e.manualAvatar != nil {
		sizes.AvatarMultiplier = *e.manualAvatar
	}
	return sizes
}

func (e *Engine) SetIconMultiplier(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.manualIcon = &v
}

func (e *Engine) SetAvatarMultiplier(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.manualAvatar = &v
}

func (e *Engine) ClearOverrides() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.manualIcon = nil
	e.manualAvatar = nil
}
