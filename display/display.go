// Package display controls the physical signage output and samples its
// current mode through wlr-randr.
package display

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"

	"lobbysign/layout"
)

const defaultOutputName = "HDMI-A-1"

// OutputName resolves the wlr-randr output to manage.
func OutputName() string {
	if name := os.Getenv("LOBBYSIGN_OUTPUT_NAME"); name != "" {
		return name
	}
	return defaultOutputName
}

type Output struct {
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Make         string       `json:"make"`
	Model        string       `json:"model"`
	Serial       string       `json:"serial"`
	PhysicalSize PhysicalSize `json:"physical_size"`
	Enabled      bool         `json:"enabled"`
	Modes        []Mode       `json:"modes"`
	Position     Position     `json:"position"`
	Transform    string       `json:"transform"`
	Scale        float64      `json:"scale"`
	AdaptiveSync bool         `json:"adaptive_sync"`
}

type PhysicalSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type Mode struct {
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	Refresh   float64 `json:"refresh"`
	Preferred bool    `json:"preferred"`
	Current   bool    `json:"current"`
}

type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func queryOutput() (*Output, error) {
	name := OutputName()
	cmd := exec.Command("wlr-randr", "--output", name, "--json")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to run wlr-randr: %w", err)
	}

	var results []Output
	if err := json.Unmarshal(out, &results); err != nil {
		return nil, fmt.Errorf("failed to unmarshal wlr-randr output: %w", err)
	}

	for _, result := range results {
		if result.Name == name {
			return &result, nil
		}
	}

	return nil, fmt.Errorf("output %s not found", name)
}

// GetEnabled inspects the current state of the managed output.
// It returns true if the output is enabled, false if disabled.
func GetEnabled() (bool, error) {
	output, err := queryOutput()
	if err != nil {
		return false, err
	}
	return output.Enabled, nil
}

// UpdateEnabled updates the enabled state of the managed output.
func UpdateEnabled(enabled bool) error {
	arg := "--off"
	if enabled {
		arg = "--on"
	}
	cmd := exec.Command("wlr-randr", "--output", OutputName(), arg)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to run wlr-randr: %w", err)
	}
	return nil
}

// CurrentMetrics samples the output's active mode and scale and classifies
// it for the layout engine. When no mode is current the layout default
// profile is used.
func CurrentMetrics() (layout.ScreenMetrics, error) {
	output, err := queryOutput()
	if err != nil {
		return layout.Classify(0, 0, 0), err
	}

	for _, mode := range output.Modes {
		if mode.Current {
			return layout.Classify(mode.Width, mode.Height, output.Scale), nil
		}
	}

	return layout.Classify(0, 0, 0), fmt.Errorf("no current mode on output %s", output.Name)
}
