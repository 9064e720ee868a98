package api

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"lobbysign/api/client"
	"lobbysign/util"
)

const localCheckInterval = 5 * time.Minute

// LocalManager watches the local feed directory and republishes the
// rotation whenever a feed file appears, disappears, or changes.
type LocalManager struct {
	path string

	feedClient   *client.FeedClient
	trackedFiles mapset.Set[string]

	Updated chan bool
}

func NewLocalManager() (*LocalManager, error) {
	// Use LOBBYSIGN_ROOT_PATH/feeds if set
	rootPath := os.Getenv("LOBBYSIGN_ROOT_PATH")
	var path string
	if rootPath != "" {
		path = filepath.Join(rootPath, "feeds")
	} else {
		path = "feeds"
	}

	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create feed directory: %w", err)
	}

	l := &LocalManager{
		path:         path,
		feedClient:   client.NewFeedClient(serverURL()),
		trackedFiles: mapset.NewSet[string](),
		Updated:      make(chan bool),
	}

	return l, nil
}

// getCurrentFiles fingerprints the feed directory. Each entry is keyed by
// name plus modification time so in-place edits are detected as changes.
func (l *LocalManager) getCurrentFiles() (mapset.Set[string], error) {
	dirs, err := os.ReadDir(l.path)
	if err != nil {
		return nil, err
	}

	currentFiles := mapset.NewSet[string]()
	for _, dir := range dirs {
		if dir.IsDir() {
			continue
		}
		name := dir.Name()
		if !util.SupportedFeedExt.Contains(filepath.Ext(name)) {
			continue
		}

		info, err := dir.Info()
		if err != nil {
			continue
		}

		currentFiles.Add(fmt.Sprintf("%s@%d", name, info.ModTime().UnixNano()))
	}

	return currentFiles, nil
}

func (l *LocalManager) Run() {
	ticker := time.NewTicker(localCheckInterval)

	// Initial scan
	l.scanAndPublish()

	for range ticker.C {
		l.scanAndPublish()
	}
}

func (l *LocalManager) scanAndPublish() {
	currentFiles, err := l.getCurrentFiles()
	if err != nil {
		slog.Warn("error reading feed directory", "path", l.path, "error", err)
		return
	}

	added := currentFiles.Difference(l.trackedFiles)
	removed := l.trackedFiles.Difference(currentFiles)
	if added.Cardinality() == 0 && removed.Cardinality() == 0 {
		return
	}

	l.trackedFiles = currentFiles

	items := loadFeedDir(l.path)
	if err := l.feedClient.PublishItems(items); err != nil {
		slog.Warn("error publishing local feed", "error", err)
		return
	}

	slog.Info("local feed published",
		"files", currentFiles.Cardinality(), "items", len(items))

	select {
	case l.Updated <- true:
	default:
		// Channel is full, skip
	}
}
