package errors

import "fmt"

// Constructors for the relocation error taxonomy. Every kind that concerns a
// filesystem entry carries it under the "path" detail.

func SourceNotFound(path string) *Error {
	return Newf(ErrSourceNotFound, "source path not found: %s", path).WithDetail("path", path)
}

func ProvidedNotFile(path string) *Error {
	return Newf(ErrProvidedNotFile, "provided source is not a regular file: %s", path).WithDetail("path", path)
}

func Disappeared(path string) *Error {
	return Newf(ErrDisappeared, "resolved path disappeared before use: %s", path).WithDetail("path", path)
}

func NoneFound(base string) *Error {
	return Newf(ErrNoneFound, "no recently modified file found under %s", base).WithDetail("path", base)
}

func BaseInvalid(base string) *Error {
	return Newf(ErrBaseInvalid, "base is missing, not a directory, or a root that cannot be moved: %s", base).WithDetail("path", base)
}

// PermissionDenied reports a permission problem on path. context describes
// what was being attempted.
func PermissionDenied(path, context string) *Error {
	return Newf(ErrPermissionDenied, "permission denied on %s: %s", path, context).
		WithDetails(map[string]interface{}{"path": path, "context": context})
}

// InsufficientSpace reports that destination lacks room for required bytes.
func InsufficientSpace(required, available uint64, destination string) *Error {
	return Newf(ErrInsufficientSpace,
		"insufficient disk space for destination %s: need %s, have %s",
		destination, FormatBytes(required), FormatBytes(available)).
		WithDetails(map[string]interface{}{
			"path":        destination,
			"destination": destination,
			"required":    required,
			"available":   available,
		})
}

func Interrupted() *Error {
	return New(ErrInterrupted, "operation interrupted by shutdown request")
}

func SymlinkRejected(path string) *Error {
	return Newf(ErrSymlinkRejected, "refusing to move symlink: %s", path).WithDetail("path", path)
}

func SpecialFile(path string) *Error {
	return Newf(ErrSpecialFile, "refusing to move special file (socket, fifo or device): %s", path).WithDetail("path", path)
}

func Unstable(path string) *Error {
	return Newf(ErrUnstable, "%s appears to be in use or still being written", path).WithDetail("path", path)
}

func LockContended(dir string) *Error {
	return Newf(ErrLockContended, "directory %s is locked by another process", dir).WithDetail("path", dir)
}

// FormatBytes renders n using binary units with one decimal.
func FormatBytes(n uint64) string {
	const (
		kib = 1024.0
		mib = kib * 1024
		gib = mib * 1024
	)
	f := float64(n)
	switch {
	case f >= gib:
		return fmt.Sprintf("%.1f GiB", f/gib)
	case f >= mib:
		return fmt.Sprintf("%.1f MiB", f/mib)
	case f >= kib:
		return fmt.Sprintf("%.1f KiB", f/kib)
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// ExitCode maps an error to the process exit status used by the CLI.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch GetErrorCode(err) {
	case ErrInterrupted:
		return 130
	case ErrSourceNotFound, ErrNoneFound, ErrDisappeared:
		return 3
	case ErrProvidedNotFile, ErrSymlinkRejected, ErrSpecialFile, ErrBaseInvalid:
		return 4
	case ErrPermissionDenied:
		return 5
	case ErrInsufficientSpace:
		return 6
	case ErrUnstable, ErrLockContended:
		return 7
	case ErrConfigLoad, ErrConfigValid, ErrInvalidInput:
		return 2
	default:
		return 1
	}
}
