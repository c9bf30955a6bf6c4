package output

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// Color palette (256-color codes).
const (
	ColorLime     = "154"
	ColorGray     = "245"
	ColorDarkGray = "238"
	ColorRed      = "196"
	ColorYellow   = "220"
	ColorCyan     = "80"
)

// Styles holds the styles used for CLI output.
type Styles struct {
	Key     lipgloss.Style
	Type    lipgloss.Style
	Field   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Dim     lipgloss.Style
}

// newStyles builds styles bound to r. With color off every style renders
// its input unchanged.
func newStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Key:     r.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorLime)),
		Type:    r.NewStyle().Foreground(lipgloss.Color(ColorCyan)),
		Field:   r.NewStyle().Foreground(lipgloss.Color(ColorGray)),
		Success: r.NewStyle().Foreground(lipgloss.Color(ColorLime)),
		Warning: r.NewStyle().Foreground(lipgloss.Color(ColorYellow)),
		Error:   r.NewStyle().Foreground(lipgloss.Color(ColorRed)),
		Dim:     r.NewStyle().Foreground(lipgloss.Color(ColorDarkGray)),
	}
}

func newRenderer(out io.Writer, useColor bool) *lipgloss.Renderer {
	r := lipgloss.NewRenderer(out)
	if useColor {
		r.SetColorProfile(termenv.ANSI256)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	return r
}

// ResolveColor decides whether to color output for mode
// ("auto", "always" or "never"). Auto colors terminals unless NO_COLOR is set.
func ResolveColor(mode string, w io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	default:
		return IsTTY(w) && !DetectNoColor()
	}
}

// IsTTY checks if w is a terminal.
func IsTTY(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// DetectNoColor checks if the NO_COLOR environment variable is set.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}
