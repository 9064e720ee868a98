package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"lobbysign/carousel"
	"lobbysign/util"
)

func serverURL() string {
	if url := os.Getenv("LOBBYSIGN_SERVER_URL"); url != "" {
		return url
	}
	return "http://localhost:8080"
}

// parseFeedFile reads one announcement feed. A feed is either a bare JSON
// array of items or an object with an "items" array.
func parseFeedFile(path string) ([]carousel.DisplayItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read feed file: %w", err)
	}

	var items []carousel.DisplayItem
	if err := json.Unmarshal(data, &items); err == nil {
		return items, nil
	}

	var wrapped struct {
		Items []carousel.DisplayItem `json:"items"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("unable to parse feed file: %w", err)
	}
	return wrapped.Items, nil
}

// loadFeedDir concatenates every feed file in the directory in name order.
// Directory order is the externally supplied rotation order; it is never
// sorted by content. Malformed files are skipped with a warning so one bad
// feed cannot take the display down.
func loadFeedDir(dir string) []carousel.DisplayItem {
	entries, err := os.ReadDir(dir)
	if err != nil {
		slog.Warn("unable to read feed directory", "dir", dir, "error", err)
		return nil
	}

	var items []carousel.DisplayItem
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !util.SupportedFeedExt.Contains(filepath.Ext(name)) {
			continue
		}

		feedItems, err := parseFeedFile(filepath.Join(dir, name))
		if err != nil {
			slog.Warn("skipping malformed feed file", "name", name, "error", err)
			continue
		}
		items = append(items, feedItems...)
	}

	return items
}
