// Package player manages the starting and stopping of the full-screen
// kiosk player that renders the carousel page.
package player

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
)

const defaultBinary = "/usr/bin/cog"

func binaryPath() string {
	if bin := os.Getenv("LOBBYSIGN_PLAYER_BIN"); bin != "" {
		return bin
	}
	return defaultBinary
}

func kill() error {
	cmd := exec.Command("pkill", "-f", binaryPath())
	if err := cmd.Run(); err != nil {
		// pkill returns an error if no process was found, which is fine
		return fmt.Errorf("player not running or already killed, %w", err)
	}
	return nil
}

func start(url string) error {
	args := []string{"--platform=wl", url}
	cmd := exec.Command(binaryPath(), args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start kiosk player: %w", err)
	}

	slog.Info("started kiosk player", "url", url)
	return nil
}

// Restart kills any running kiosk player and launches a fresh one pointed
// at the carousel URL. Callers serialize restarts; this function does not.
func Restart(url string) error {
	if url == "" {
		return errors.New("no player url provided")
	}

	if err := kill(); err != nil {
		slog.Info("error killing kiosk player", "error", err)
	}

	if err := start(url); err != nil {
		return fmt.Errorf("failed to restart kiosk player: %w", err)
	}

	return nil
}
