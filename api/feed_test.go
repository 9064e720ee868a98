package api

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFeed(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestParseFeedFileBareArray(t *testing.T) {
	dir := t.TempDir()
	writeFeed(t, dir, "feed.json", `[
		{"id": "a", "title": "Town hall", "status": "published"},
		{"id": "b", "title": "Fire drill", "status": "draft"}
	]`)

	items, err := parseFeedFile(filepath.Join(dir, "feed.json"))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].ID)
	assert.Equal(t, "Fire drill", items[1].Title)
}

func TestParseFeedFileWrappedObject(t *testing.T) {
	dir := t.TempDir()
	writeFeed(t, dir, "feed.json", `{"items": [{"id": "a", "status": "published"}]}`)

	items, err := parseFeedFile(filepath.Join(dir, "feed.json"))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "a", items[0].ID)
}

func TestParseFeedFileMalformed(t *testing.T) {
	dir := t.TempDir()
	writeFeed(t, dir, "feed.json", `not json at all`)

	_, err := parseFeedFile(filepath.Join(dir, "feed.json"))
	assert.Error(t, err)
}

func TestParseFeedFileMissing(t *testing.T) {
	_, err := parseFeedFile(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoadFeedDirNameOrder(t *testing.T) {
	dir := t.TempDir()

	// name order is the rotation order regardless of write order
	writeFeed(t, dir, "20-afternoon.json", `[{"id": "b", "status": "published"}]`)
	writeFeed(t, dir, "10-morning.json", `[{"id": "a", "status": "published"}]`)
	writeFeed(t, dir, "30-evening.json", `[{"id": "c", "status": "published"}]`)

	items := loadFeedDir(dir)
	require.Len(t, items, 3)
	assert.Equal(t, "a", items[0].ID)
	assert.Equal(t, "b", items[1].ID)
	assert.Equal(t, "c", items[2].ID)
}

func TestLoadFeedDirSkipsMalformedAndForeignFiles(t *testing.T) {
	dir := t.TempDir()

	writeFeed(t, dir, "bad.json", `{{{`)
	writeFeed(t, dir, "good.json", `[{"id": "a", "status": "published"}]`)
	writeFeed(t, dir, "notes.txt", `[{"id": "x", "status": "published"}]`)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))

	items := loadFeedDir(dir)
	require.Len(t, items, 1)
	assert.Equal(t, "a", items[0].ID)
}

func TestLoadFeedDirMissing(t *testing.T) {
	assert.Empty(t, loadFeedDir(filepath.Join(t.TempDir(), "nope")))
}
