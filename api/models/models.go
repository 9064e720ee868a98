// Package models tracks all api models for requests and responses
package models

import "lobbysign/carousel"

type PublishItemsRequest struct {
	BatchID string                 `json:"batch_id"`
	Items   []carousel.DisplayItem `json:"items"`
}

type PublishItemsResponse struct {
	BatchID  string `json:"batch_id"`
	Received int    `json:"received"`
	Rotation int    `json:"rotation"`
	Message  string `json:"message"`
}

type ItemListResponse struct {
	Items []carousel.DisplayItem `json:"items"`
	Total int                    `json:"total"`
}

type DwellRequest struct {
	DwellDurationMs int `json:"dwell_duration_ms"`
}

type DwellResponse struct {
	ItemID          string `json:"item_id"`
	DwellDurationMs int    `json:"dwell_duration_ms"`
}

// ImagePrefsRequest carries a partial update; nil fields are left untouched
// on the stored record.
type ImagePrefsRequest struct {
	ImageLayout       *string  `json:"image_layout"`
	ImageScale        *float64 `json:"image_scale"`
	ImageSplitPercent *int     `json:"image_split_percent"`
	ImageOpacity      *float64 `json:"image_opacity"`
}

type ResizeRequest struct {
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	PixelRatio float64 `json:"pixel_ratio"`
}

type LayoutOverridesRequest struct {
	IconMultiplier   *float64 `json:"icon_multiplier"`
	AvatarMultiplier *float64 `json:"avatar_multiplier"`
	Clear            bool     `json:"clear"`
}

type PauseResponse struct {
	Paused bool `json:"paused"`
}

type DisplayStateResponse struct {
	Enabled bool `json:"enabled"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
