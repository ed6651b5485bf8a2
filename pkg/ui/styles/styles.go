// Package styles defines the visual styling for ariamove's terminal output.
//
// Styles use semantic names and adaptive colors that adjust to light and
// dark terminal themes. The definitions live in the embedded styles.yaml;
// a user copy at $XDG_CONFIG_HOME/ariamove/styles.yaml replaces them.
package styles

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/arthur-debert/ariamove/pkg/paths"
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

// StylesFileName is looked up next to the user config file
const StylesFileName = "styles.yaml"

// ColorDef represents an adaptive color definition in YAML
type ColorDef struct {
	Light string `yaml:"light"`
	Dark  string `yaml:"dark"`
}

// StyleDef represents a style definition in YAML
type StyleDef struct {
	Bold         bool   `yaml:"bold,omitempty"`
	Italic       bool   `yaml:"italic,omitempty"`
	Underline    bool   `yaml:"underline,omitempty"`
	Faint        bool   `yaml:"faint,omitempty"`
	Foreground   string `yaml:"foreground,omitempty"`
	Background   string `yaml:"background,omitempty"`
	Width        int    `yaml:"width,omitempty"`
	Align        string `yaml:"align,omitempty"`
	MarginLeft   int    `yaml:"marginLeft,omitempty"`
	PaddingLeft  int    `yaml:"paddingLeft,omitempty"`
	PaddingRight int    `yaml:"paddingRight,omitempty"`
}

// Config represents the complete styles configuration
type Config struct {
	Colors map[string]ColorDef `yaml:"colors"`
	Styles map[string]StyleDef `yaml:"styles"`
}

// Names every renderer relies on. A styles file missing one of them still
// works; the name renders unstyled.
var Names = []string{
	"Header", "Success", "Error", "Warning", "Info", "Muted",
	"FilePath", "Arrow", "Renamed", "Copied", "Skipped", "DryRunBanner",
}

// StyleRegistry maps semantic names to lipgloss styles
var StyleRegistry map[string]lipgloss.Style

var colors map[string]lipgloss.AdaptiveColor

//go:embed styles.yaml
var embeddedStyles []byte

func init() {
	if path := userStylesPath(); path != "" {
		if err := LoadStyles(path); err == nil {
			return
		}
	}
	if err := LoadStylesFromData(embeddedStyles); err == nil {
		return
	}
	initDefaultStyles()
}

// userStylesPath returns the user's styles file if one exists
func userStylesPath() string {
	path := filepath.Join(paths.ConfigDir(), StylesFileName)
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

// initDefaultStyles registers every known name with an empty style so
// lookups never fail
func initDefaultStyles() {
	colors = make(map[string]lipgloss.AdaptiveColor)
	StyleRegistry = make(map[string]lipgloss.Style)
	for _, name := range Names {
		StyleRegistry[name] = lipgloss.NewStyle()
	}
}

// LoadStyles loads style configuration from a YAML file
func LoadStyles(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read styles file %s: %w", path, err)
	}
	return LoadStylesFromData(data)
}

// LoadStylesFromData loads style configuration from byte data
func LoadStylesFromData(data []byte) error {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("failed to parse styles data: %w", err)
	}
	if len(config.Styles) == 0 {
		return fmt.Errorf("styles data defines no styles")
	}

	colors = make(map[string]lipgloss.AdaptiveColor, len(config.Colors))
	for name, def := range config.Colors {
		colors[name] = lipgloss.AdaptiveColor{Light: def.Light, Dark: def.Dark}
	}

	StyleRegistry = make(map[string]lipgloss.Style, len(config.Styles))
	for name, def := range config.Styles {
		StyleRegistry[name] = buildStyle(def)
	}
	return nil
}

// buildStyle constructs a lipgloss style from a style definition
func buildStyle(def StyleDef) lipgloss.Style {
	style := lipgloss.NewStyle()

	if def.Bold {
		style = style.Bold(true)
	}
	if def.Italic {
		style = style.Italic(true)
	}
	if def.Underline {
		style = style.Underline(true)
	}
	if def.Faint {
		style = style.Faint(true)
	}

	if def.Foreground != "" {
		if color, ok := colors[def.Foreground]; ok {
			style = style.Foreground(color)
		}
	}
	if def.Background != "" {
		if color, ok := colors[def.Background]; ok {
			style = style.Background(color)
		}
	}

	if def.Width > 0 {
		style = style.Width(def.Width)
	}
	switch def.Align {
	case "left":
		style = style.Align(lipgloss.Left)
	case "center":
		style = style.Align(lipgloss.Center)
	case "right":
		style = style.Align(lipgloss.Right)
	}

	if def.MarginLeft > 0 {
		style = style.MarginLeft(def.MarginLeft)
	}
	if def.PaddingLeft > 0 || def.PaddingRight > 0 {
		style = style.Padding(0, def.PaddingRight, 0, def.PaddingLeft)
	}
	return style
}

// GetStyle safely retrieves a style from the registry
func GetStyle(name string) lipgloss.Style {
	if style, ok := StyleRegistry[name]; ok {
		return style
	}
	return lipgloss.NewStyle()
}

// Render applies the named style to text.
func Render(name, text string) string {
	return GetStyle(name).Render(text)
}

// MergeStyles combines multiple styles
func MergeStyles(styles ...string) lipgloss.Style {
	result := lipgloss.NewStyle()
	for _, name := range styles {
		result = result.Inherit(GetStyle(name))
	}
	return result
}
