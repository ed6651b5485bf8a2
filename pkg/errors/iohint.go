package errors

import (
	"errors"
	"io/fs"
)

// WrapIO enriches an OS error with the attempted operation, the offending path
// and a platform hint. Permission failures become ErrPermissionDenied; all
// other failures become ErrIO. The original error stays reachable through
// errors.Is and errors.As.
func WrapIO(op, path string, err error) *Error {
	if err == nil {
		return nil
	}
	hint := ioHint(err)
	msg := op + " '" + path + "'"
	if hint != "" {
		msg += " (" + hint + ")"
	}

	code := ErrIO
	if errors.Is(err, fs.ErrPermission) {
		code = ErrPermissionDenied
	}
	e := Wrap(err, code, msg).WithDetail("path", path).WithDetail("op", op)
	if code == ErrPermissionDenied {
		e.WithDetail("context", op)
	}
	if hint != "" {
		e.WithDetail("hint", hint)
	}
	return e
}

// Hint returns the human hint for err, or "" when none applies.
func Hint(err error) string {
	return ioHint(err)
}

func ioHint(err error) string {
	if h := platformHint(err); h != "" {
		return h
	}
	switch {
	case errors.Is(err, fs.ErrPermission):
		return "permission denied; check ownership and write permissions"
	case errors.Is(err, fs.ErrNotExist):
		return "path not found; verify it exists"
	case errors.Is(err, fs.ErrExist):
		return "already exists; remove it or choose a unique name"
	}
	return ""
}
