// pkg/errors/errors_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: None
// PURPOSE: Test error creation, wrapping, taxonomy constructors and IO hints

package errors_test

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/arthur-debert/ariamove/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    errors.ErrorCode
		message string
		wantStr string
	}{
		{
			name:    "source_not_found_error",
			code:    errors.ErrSourceNotFound,
			message: "file not found",
			wantStr: "[SOURCE_NOT_FOUND] file not found",
		},
		{
			name:    "invalid_input_error",
			code:    errors.ErrInvalidInput,
			message: "invalid configuration",
			wantStr: "[INVALID_INPUT] invalid configuration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := errors.New(tt.code, tt.message)

			if err.Code != tt.code {
				t.Errorf("New() code = %v, want %v", err.Code, tt.code)
			}
			if err.Message != tt.message {
				t.Errorf("New() message = %q, want %q", err.Message, tt.message)
			}
			if err.Details == nil {
				t.Error("New() details should be initialized")
			}
			if got := err.Error(); got != tt.wantStr {
				t.Errorf("Error() = %q, want %q", got, tt.wantStr)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	baseErr := stderrors.New("base error")

	t.Run("wrap_non_nil_error", func(t *testing.T) {
		err := errors.Wrap(baseErr, errors.ErrInternal, "internal error")

		assert.Equal(t, errors.ErrInternal, err.Code)
		assert.Same(t, baseErr, err.Wrapped)
		assert.Equal(t, "[INTERNAL] internal error: base error", err.Error())
	})

	t.Run("wrap_nil_error_returns_nil", func(t *testing.T) {
		assert.Nil(t, errors.Wrap(nil, errors.ErrInternal, "internal error"))
	})
}

func TestIsComparesCodes(t *testing.T) {
	err1 := errors.New(errors.ErrNoneFound, "error 1")
	err2 := errors.New(errors.ErrNoneFound, "error 2")
	err3 := errors.New(errors.ErrInternal, "error 3")

	assert.True(t, err1.Is(err2))
	assert.False(t, err1.Is(err3))
	assert.True(t, stderrors.Is(err1, err2))
}

func TestIsErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     errors.ErrorCode
		expected bool
	}{
		{"matching_code", errors.SourceNotFound("/x"), errors.ErrSourceNotFound, true},
		{"different_code", errors.SourceNotFound("/x"), errors.ErrInternal, false},
		{"wrapped_error", errors.Wrap(stderrors.New("base"), errors.ErrIO, "denied"), errors.ErrIO, true},
		{"standard_error", stderrors.New("standard error"), errors.ErrSourceNotFound, false},
		{"nil_error", nil, errors.ErrSourceNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, errors.IsErrorCode(tt.err, tt.code))
		})
	}
}

func TestTaxonomyCarriesPath(t *testing.T) {
	tests := []struct {
		name string
		err  *errors.Error
		code errors.ErrorCode
	}{
		{"source_not_found", errors.SourceNotFound("/s/a"), errors.ErrSourceNotFound},
		{"provided_not_file", errors.ProvidedNotFile("/s/a"), errors.ErrProvidedNotFile},
		{"disappeared", errors.Disappeared("/s/a"), errors.ErrDisappeared},
		{"none_found", errors.NoneFound("/s/a"), errors.ErrNoneFound},
		{"base_invalid", errors.BaseInvalid("/s/a"), errors.ErrBaseInvalid},
		{"symlink_rejected", errors.SymlinkRejected("/s/a"), errors.ErrSymlinkRejected},
		{"special_file", errors.SpecialFile("/s/a"), errors.ErrSpecialFile},
		{"unstable", errors.Unstable("/s/a"), errors.ErrUnstable},
		{"lock_contended", errors.LockContended("/s/a"), errors.ErrLockContended},
		{"permission_denied", errors.PermissionDenied("/s/a", "write"), errors.ErrPermissionDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, "/s/a", tt.err.Path())
			assert.Contains(t, tt.err.Error(), "/s/a")
		})
	}
}

func TestInsufficientSpaceDetails(t *testing.T) {
	err := errors.InsufficientSpace(10*1024*1024, 1024, "/dest")

	assert.Equal(t, errors.ErrInsufficientSpace, err.Code)
	assert.Equal(t, uint64(10*1024*1024), err.Details["required"])
	assert.Equal(t, uint64(1024), err.Details["available"])
	assert.Equal(t, "/dest", err.Details["destination"])
	assert.Contains(t, err.Error(), "10.0 MiB")
	assert.Contains(t, err.Error(), "1.0 KiB")
}

func TestWrapIO(t *testing.T) {
	t.Run("not_found_keeps_cause", func(t *testing.T) {
		_, statErr := os.Stat(filepath.Join(t.TempDir(), "missing"))
		require.Error(t, statErr)

		err := errors.WrapIO("stat source", "/missing", statErr)
		require.NotNil(t, err)
		assert.Equal(t, errors.ErrIO, err.Code)
		assert.True(t, stderrors.Is(err, fs.ErrNotExist))
		assert.Contains(t, err.Error(), "path not found")
		assert.Equal(t, "/missing", err.Path())
	})

	t.Run("permission_maps_to_permission_denied", func(t *testing.T) {
		err := errors.WrapIO("open", "/root/x", &fs.PathError{Op: "open", Path: "/root/x", Err: fs.ErrPermission})
		assert.Equal(t, errors.ErrPermissionDenied, err.Code)
		assert.Equal(t, "open", err.Details["context"])
	})

	t.Run("nil_passthrough", func(t *testing.T) {
		assert.Nil(t, errors.WrapIO("op", "/p", nil))
	})
}

func TestWrapIOCrossDeviceHint(t *testing.T) {
	linkErr := &os.LinkError{Op: "rename", Old: "/a", New: "/b", Err: syscall.EXDEV}
	err := errors.WrapIO("rename", "/b", linkErr)

	assert.True(t, stderrors.Is(err, syscall.EXDEV))
	assert.Contains(t, errors.Hint(linkErr), "cross-filesystem")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, errors.ExitCode(nil))
	assert.Equal(t, 130, errors.ExitCode(errors.Interrupted()))
	assert.Equal(t, 3, errors.ExitCode(errors.NoneFound("/s")))
	assert.Equal(t, 4, errors.ExitCode(errors.SymlinkRejected("/s")))
	assert.Equal(t, 6, errors.ExitCode(errors.InsufficientSpace(1, 0, "/d")))
	assert.Equal(t, 1, errors.ExitCode(stderrors.New("plain")))
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", errors.FormatBytes(512))
	assert.Equal(t, "1.5 KiB", errors.FormatBytes(1536))
	assert.Equal(t, "2.0 GiB", errors.FormatBytes(2*1024*1024*1024))
}
