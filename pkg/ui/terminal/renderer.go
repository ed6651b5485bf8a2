// Package terminal provides rich terminal output with colors and styling
package terminal

import (
	"fmt"
	"io"
	"strings"

	"github.com/arthur-debert/ariamove/pkg/errors"
	"github.com/arthur-debert/ariamove/pkg/ui/display"
	"github.com/arthur-debert/ariamove/pkg/ui/styles"
)

// Renderer styles output through the styles registry
type Renderer struct {
	output io.Writer
}

// New creates a new terminal renderer
func New(w io.Writer) (*Renderer, error) {
	return &Renderer{output: w}, nil
}

// RenderResult renders any result type with rich terminal formatting
func (r *Renderer) RenderResult(result interface{}) error {
	switch v := result.(type) {
	case *display.MoveResult:
		return r.renderMove(v)
	case *display.ReconcileResult:
		if v.Empty() {
			return r.println(styles.Render("Muted", "nothing to reconcile"))
		}
		return r.renderReconcile(v)
	default:
		_, err := fmt.Fprintf(r.output, "%+v\n", result)
		return err
	}
}

func (r *Renderer) renderMove(v *display.MoveResult) error {
	if v.DryRun {
		if err := r.println(styles.Render("DryRunBanner", "dry run, nothing was moved")); err != nil {
			return err
		}
	}
	if v.Reconciled.Removed() > 0 {
		if err := r.renderReconcile(v.Reconciled); err != nil {
			return err
		}
	}
	return r.println(strings.Join([]string{
		styles.Render(actionStyle(v.Action), v.Action),
		styles.Render("FilePath", v.Source),
		styles.Render("Arrow", "→"),
		styles.Render("FilePath", v.Destination),
	}, " "))
}

func actionStyle(action string) string {
	switch action {
	case "renamed":
		return "Renamed"
	case "copied":
		return "Copied"
	case "skipped", "dry-run":
		return "Skipped"
	default:
		return "Info"
	}
}

func (r *Renderer) renderReconcile(v *display.ReconcileResult) error {
	header := "Reconciled"
	if v.DryRun {
		header = "Would reconcile"
	}
	if err := r.println(styles.Render("Header", header)); err != nil {
		return err
	}
	for _, p := range v.Artifacts {
		if err := r.println("  " + styles.Render("Muted", "artifact ") + styles.Render("FilePath", p)); err != nil {
			return err
		}
	}
	for _, p := range v.PartialDirs {
		if err := r.println("  " + styles.Render("Muted", "partial  ") + styles.Render("FilePath", p)); err != nil {
			return err
		}
	}
	for _, p := range v.Contended {
		if err := r.println("  " + styles.Render("Warning", "busy     ") + styles.Render("FilePath", p)); err != nil {
			return err
		}
	}
	return nil
}

// RenderError renders an error with its hint, if any
func (r *Renderer) RenderError(err error) error {
	if werr := r.println(styles.Render("Error", "Error: ") + err.Error()); werr != nil {
		return werr
	}
	if hint := errors.Hint(err); hint != "" && !strings.Contains(err.Error(), hint) {
		return r.println("  " + styles.Render("Muted", hint))
	}
	return nil
}

// RenderMessage renders a simple message
func (r *Renderer) RenderMessage(msg string) error {
	return r.println(styles.Render("Info", msg))
}

func (r *Renderer) println(s string) error {
	_, err := fmt.Fprintln(r.output, s)
	return err
}
