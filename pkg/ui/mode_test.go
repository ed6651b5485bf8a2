package ui_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/ariamove/pkg/ui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModeFor(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)
	defer func() {
		_ = f.Close()
	}()

	assert.Equal(t, ui.JSON, ui.ModeFor(true, f))
	assert.Equal(t, ui.Plain, ui.ModeFor(false, f), "regular file is not a terminal")
	assert.Equal(t, ui.Plain, ui.ModeFor(false, &bytes.Buffer{}))

	t.Setenv("NO_COLOR", "1")
	assert.Equal(t, ui.Plain, ui.ModeFor(false, os.Stdout))
	assert.Equal(t, ui.JSON, ui.ModeFor(true, os.Stdout))
}
