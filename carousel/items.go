// Package carousel drives the announcement rotation: item sequencing,
// per-item dwell timing, pause state, and synchronization with the slide
// transport.
package carousel

import (
	"log/slog"

	mapset "github.com/deckarep/golang-set/v2"
)

type ItemStatus string

const StatusPublished ItemStatus = "published"

// DisplayItem is one rotating unit. Everything besides ID and Status is a
// presentation field the scheduler never inspects. StartsAt/EndsAt are kept
// as the feed supplied them.
type DisplayItem struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	Location    string     `json:"location"`
	PrimaryLink string     `json:"primary_link"`
	StartsAt    string     `json:"starts_at"`
	EndsAt      string     `json:"ends_at"`
	Status      ItemStatus `json:"status"`
}

// BuildRotation filters a raw feed down to the authoritative rotation
// sequence: published items only, first occurrence of each id wins, input
// order preserved verbatim. Duplicates and id-less items are dropped with a
// warning, never surfaced to the display.
func BuildRotation(raw []DisplayItem) []DisplayItem {
	seen := mapset.NewSet[string]()
	rotation := make([]DisplayItem, 0, len(raw))

	for _, item := range raw {
		if item.Status != StatusPublished {
			continue
		}
		if item.ID == "" {
			slog.Warn("dropping announcement without id", "title", item.Title)
			continue
		}
		if !seen.Add(item.ID) {
			slog.Warn("dropping duplicate announcement id", "id", item.ID)
			continue
		}
		rotation = append(rotation, item)
	}

	return rotation
}
