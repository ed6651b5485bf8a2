// Package text provides plain text output without any styling
package text

import (
	"fmt"
	"io"

	"github.com/arthur-debert/ariamove/pkg/errors"
	"github.com/arthur-debert/ariamove/pkg/ui/display"
)

// Renderer provides plain text output without colors or styling
type Renderer struct {
	output io.Writer
}

// New creates a new text renderer
func New(output io.Writer) (*Renderer, error) {
	return &Renderer{output: output}, nil
}

// RenderResult renders any result type as plain text
func (r *Renderer) RenderResult(result interface{}) error {
	switch v := result.(type) {
	case *display.MoveResult:
		if v.Reconciled.Removed() > 0 {
			if err := r.renderReconcile(v.Reconciled); err != nil {
				return err
			}
		}
		_, err := fmt.Fprintf(r.output, "%s: %s -> %s\n", v.Action, v.Source, v.Destination)
		return err
	case *display.ReconcileResult:
		if v.Empty() {
			_, err := fmt.Fprintln(r.output, "nothing to reconcile")
			return err
		}
		return r.renderReconcile(v)
	default:
		_, err := fmt.Fprintf(r.output, "%+v\n", result)
		return err
	}
}

func (r *Renderer) renderReconcile(v *display.ReconcileResult) error {
	verb := "removed"
	if v.DryRun {
		verb = "would remove"
	}
	for _, p := range v.Artifacts {
		if _, err := fmt.Fprintf(r.output, "%s artifact: %s\n", verb, p); err != nil {
			return err
		}
	}
	for _, p := range v.PartialDirs {
		if _, err := fmt.Fprintf(r.output, "%s partial directory: %s\n", verb, p); err != nil {
			return err
		}
	}
	for _, p := range v.Contended {
		if _, err := fmt.Fprintf(r.output, "busy, skipped: %s\n", p); err != nil {
			return err
		}
	}
	return nil
}

// RenderError renders an error as plain text
func (r *Renderer) RenderError(err error) error {
	_, werr := fmt.Fprintf(r.output, "Error: %v\n", err)
	if werr != nil {
		return werr
	}
	if p := pathOf(err); p != "" {
		_, werr = fmt.Fprintf(r.output, "  path: %s\n", p)
	}
	return werr
}

// RenderMessage renders a simple message
func (r *Renderer) RenderMessage(msg string) error {
	_, err := fmt.Fprintln(r.output, msg)
	return err
}

func pathOf(err error) string {
	if p, ok := errors.GetErrorDetails(err)["path"].(string); ok {
		return p
	}
	return ""
}
