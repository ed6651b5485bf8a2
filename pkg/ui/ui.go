// Package ui renders move and reconcile results to the user in terminal
// (styled), text (plain) or JSON form.
package ui

import (
	"io"
	"os"

	"github.com/arthur-debert/ariamove/pkg/errors"
	"github.com/arthur-debert/ariamove/pkg/ui/json"
	"github.com/arthur-debert/ariamove/pkg/ui/terminal"
	"github.com/arthur-debert/ariamove/pkg/ui/text"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// Renderer is the common interface for all output renderers.
type Renderer interface {
	// RenderResult renders a *display.MoveResult, a *display.ReconcileResult
	// or, as a fallback, any value
	RenderResult(result interface{}) error

	// RenderError renders an error with appropriate formatting
	RenderError(err error) error

	// RenderMessage renders a simple message
	RenderMessage(msg string) error
}

// Mode names a renderer
type Mode string

const (
	Styled Mode = "terminal"
	Plain  Mode = "text"
	JSON   Mode = "json"
)

// ModeFor picks the renderer for w. Styled output needs a color-capable
// terminal; aria2 runs the hook without one, so buffers, pipes and NO_COLOR
// all get Plain.
func ModeFor(wantJSON bool, w io.Writer) Mode {
	if wantJSON {
		return JSON
	}
	f, ok := w.(*os.File)
	if !ok || os.Getenv("NO_COLOR") != "" {
		return Plain
	}
	if fd := f.Fd(); !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return Plain
	}
	if termenv.NewOutput(f).Profile == termenv.Ascii {
		return Plain
	}
	return Styled
}

// NewRenderer creates the renderer for mode writing to output.
func NewRenderer(mode Mode, output io.Writer) (Renderer, error) {
	switch mode {
	case Styled:
		return terminal.New(output)
	case Plain:
		return text.New(output)
	case JSON:
		return json.New(output)
	}
	return nil, errors.Newf(errors.ErrInvalidInput, "unknown output mode %q", string(mode)).WithDetail("value", string(mode))
}
