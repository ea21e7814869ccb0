// file: gate/pkg/x_log/style.go
package x_log

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
)

//
// ---------- IBM Carbon Colors ----------

const (
	ColorTeal40   = "#3ddbd9"
	ColorBlue60   = "#4589ff"
	ColorRed60    = "#da1e28"
	ColorOrange40 = "#ff832b"
	ColorGray60   = "#8d8d8d"
)

//
// ---------- Styles Definition ----------

// Styles maps log levels and field keys to lipgloss render styles for the
// console writer.
type Styles struct {
	Timestamp    lipgloss.Style
	Levels       map[string]lipgloss.Style
	DefaultKey   lipgloss.Style
	DefaultValue lipgloss.Style
}

// DefaultStyles returns the dark console theme.
func DefaultStyles() *Styles {
	return &Styles{
		Timestamp: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray60)),
		Levels: map[string]lipgloss.Style{
			"trace": lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray60)),
			"debug": lipgloss.NewStyle().Foreground(lipgloss.Color(ColorTeal40)),
			"info":  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorBlue60)),
			"warn":  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorOrange40)),
			"error": lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed60)).Bold(true),
			"fatal": lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed60)).Bold(true),
		},
		DefaultKey:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray60)),
		DefaultValue: lipgloss.NewStyle(),
	}
}

//
// ---------- Console Formatter ----------

// ApplyStyles installs lipgloss formatters on a zerolog.ConsoleWriter.
func ApplyStyles(w *zerolog.ConsoleWriter, styles *Styles) {
	w.FormatTimestamp = func(i any) string {
		return styles.Timestamp.Render(fmt.Sprint(i))
	}
	w.FormatLevel = func(i any) string {
		lvl := strings.ToLower(fmt.Sprint(i))
		if s, ok := styles.Levels[lvl]; ok {
			return s.Render(strings.ToUpper(lvl))
		}
		return styles.DefaultKey.Render(strings.ToUpper(lvl))
	}
	w.FormatFieldName = func(i any) string {
		return styles.DefaultKey.Render(fmt.Sprint(i) + "=")
	}
	w.FormatFieldValue = func(i any) string {
		return styles.DefaultValue.Render(fmt.Sprint(i))
	}
}
