// Package store persists per-item display preferences, app settings, and
// the display schedule.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

type Database struct {
	db *sql.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	// Create directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	database := &Database{db: db}

	// Create tables if they don't exist
	if err := database.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return database, nil
}

func (d *Database) createTables() error {
	query := `
	CREATE TABLE IF NOT EXISTS item_prefs (
		item_id           TEXT NOT NULL,
		dwell_duration_ms INTEGER NOT NULL,
		image_layout      TEXT NOT NULL,
		image_scale       REAL NOT NULL,
		image_split_pct   INTEGER NOT NULL,
		image_opacity     REAL NOT NULL,
		PRIMARY KEY (item_id)
	);
	CREATE TABLE IF NOT EXISTS app_settings (
		singleton INTEGER NOT NULL DEFAULT 1 CHECK (singleton = 1),
		default_dwell_ms INTEGER NOT NULL,
		player_url       TEXT NOT NULL,
		PRIMARY KEY (singleton)
	);
	CREATE TABLE IF NOT EXISTS schedule (
		singleton INTEGER NOT NULL DEFAULT 1 CHECK (singleton = 1),
		enabled    INTEGER NOT NULL,
		start_time TEXT NOT NULL,
		end_time   TEXT NOT NULL,
		PRIMARY KEY (singleton)
	);
	`
	_, err := d.db.Exec(query)
	return err
}

// LoadPreferences reads the full per-item preference mapping. A corrupt or
// unreadable backing store degrades to an empty mapping with a log line;
// the carousel keeps running on defaults.
func (d *Database) LoadPreferences() map[string]ItemPreferences {
	prefs := make(map[string]ItemPreferences)

	query := `
		SELECT item_id, dwell_duration_ms, image_layout, image_scale, image_split_pct, image_opacity
		FROM item_prefs
	`
	rows, err := d.db.Query(query)
	if err != nil {
		slog.Error("unable to load item preferences, starting empty", "error", err)
		return prefs
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var p ItemPreferences
		if err := rows.Scan(&id, &p.DwellDurationMs, &p.ImageLayout, &p.ImageScale, &p.ImageSplitPercent, &p.ImageOpacity); err != nil {
			slog.Warn("skipping unreadable preference row", "error", err)
			continue
		}
		prefs[id] = p
	}

	if err := rows.Err(); err != nil {
		slog.Error("error iterating preference rows, starting empty", "error", err)
		return make(map[string]ItemPreferences)
	}

	return prefs
}

// SavePreferences rewrites the entire persisted mapping in one transaction.
// Merging of individual fields happens in memory before this call; the
// storage layer is strictly last-write-wins on the whole mapping.
func (d *Database) SavePreferences(prefs map[string]ItemPreferences) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin preference save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM item_prefs`); err != nil {
		return fmt.Errorf("failed to clear item preferences: %w", err)
	}

	stmt := `
		INSERT INTO item_prefs (item_id, dwell_duration_ms, image_layout, image_scale, image_split_pct, image_opacity)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	for id, p := range prefs {
		if _, err := tx.Exec(stmt, id, p.DwellDurationMs, p.ImageLayout, p.ImageScale, p.ImageSplitPercent, p.ImageOpacity); err != nil {
			return fmt.Errorf("failed to insert preferences for %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit preference save: %w", err)
	}
	return nil
}

func (d *Database) GetAppSettings() (*AppSettings, error) {
	const query = `
		SELECT default_dwell_ms,
		       player_url
		FROM app_settings
		WHERE singleton = 1
	`

	var settings AppSettings
	err := d.db.QueryRow(query).Scan(&settings.DefaultDwellMs, &settings.PlayerURL)
	if err == sql.ErrNoRows {
		// Bootstrap defaults if no settings row exists yet
		defaults := &AppSettings{
			DefaultDwellMs: DefaultDwellMs,
			PlayerURL:      "http://localhost:8080/",
		}
		if err := d.UpsertAppSettings(defaults); err != nil {
			return nil, err
		}
		return defaults, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get app settings: %w", err)
	}

	return &settings, nil
}

func (d *Database) UpsertAppSettings(s *AppSettings) error {
	const stmt = `
		INSERT INTO app_settings (
			singleton,
			default_dwell_ms,
			player_url
		) VALUES (1, ?, ?)
		ON CONFLICT(singleton) DO UPDATE SET
			default_dwell_ms = excluded.default_dwell_ms,
			player_url       = excluded.player_url
	`

	_, err := d.db.Exec(stmt, s.DefaultDwellMs, s.PlayerURL)
	if err != nil {
		return fmt.Errorf("upsert app settings: %w", err)
	}
	return nil
}

func (d *Database) GetSchedule() (*Schedule, error) {
	const query = `
		SELECT enabled,
		       start_time,
		       end_time
		FROM schedule
		WHERE singleton = 1
	`

	var enabled bool
	var start, end string

	err := d.db.QueryRow(query).Scan(&enabled, &start, &end)
	if err == sql.ErrNoRows {
		// Bootstrap defaults if no schedule row exists yet
		defaults := &Schedule{
			Enabled: true,
			Start:   "06:00",
			End:     "23:00",
		}
		if err := d.UpsertSchedule(defaults); err != nil {
			return nil, err
		}
		return defaults, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}

	schedule := &Schedule{
		Enabled: enabled,
		Start:   start,
		End:     end,
	}
	return schedule, nil
}

func (d *Database) UpsertSchedule(s *Schedule) error {
	const stmt = `
		INSERT INTO schedule (
			singleton,
			enabled,
			start_time,
			end_time
		) VALUES (1, ?, ?, ?)
		ON CONFLICT(singleton) DO UPDATE SET
			enabled    = excluded.enabled,
			start_time = excluded.start_time,
			end_time   = excluded.end_time
	`

	_, err := d.db.Exec(
		stmt,
		boolToInt(s.Enabled),
		s.Start,
		s.End,
	)
	if err != nil {
		return fmt.Errorf("upsert schedule: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (d *Database) Close() error {
	return d.db.Close()
}
