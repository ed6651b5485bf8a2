// Package json provides machine-readable JSON output
package json

import (
	"encoding/json"
	"io"

	"github.com/arthur-debert/ariamove/pkg/errors"
)

// Renderer writes one JSON document per call
type Renderer struct {
	encoder *json.Encoder
}

// New creates a new JSON renderer
func New(output io.Writer) (*Renderer, error) {
	return &Renderer{encoder: json.NewEncoder(output)}, nil
}

// RenderResult renders any result type as JSON
func (r *Renderer) RenderResult(result interface{}) error {
	return r.encoder.Encode(result)
}

// errorDoc carries the stable code and details alongside the message
type errorDoc struct {
	Error   string                 `json:"error"`
	Code    errors.ErrorCode       `json:"code"`
	Details map[string]interface{} `json:"details,omitempty"`
	Hint    string                 `json:"hint,omitempty"`
}

// RenderError renders an error as JSON
func (r *Renderer) RenderError(err error) error {
	return r.encoder.Encode(errorDoc{
		Error:   err.Error(),
		Code:    errors.GetErrorCode(err),
		Details: errors.GetErrorDetails(err),
		Hint:    errors.Hint(err),
	})
}

// RenderMessage renders a simple message as JSON
func (r *Renderer) RenderMessage(msg string) error {
	return r.encoder.Encode(map[string]string{"message": msg})
}
