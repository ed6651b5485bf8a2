package metadata

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture(t *testing.T) (src, dest string, info os.FileInfo) {
	t.Helper()
	dir := t.TempDir()
	src = filepath.Join(dir, "src")
	dest = filepath.Join(dir, "dest")
	require.NoError(t, os.WriteFile(src, []byte("data"), 0640))
	require.NoError(t, os.WriteFile(dest, []byte("data"), 0600))

	old := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, os.Chtimes(src, old, old))
	require.NoError(t, os.Chmod(src, 0640))

	info, err := os.Stat(src)
	require.NoError(t, err)
	return src, dest, info
}

func TestApplyFull(t *testing.T) {
	src, dest, info := fixture(t)

	require.NoError(t, Apply(src, info, dest, Options{Full: true}))

	got, err := os.Stat(dest)
	require.NoError(t, err)
	assert.True(t, got.ModTime().Equal(info.ModTime()))
	if runtime.GOOS != "windows" {
		assert.Equal(t, os.FileMode(0640), got.Mode().Perm())
	}
}

func TestApplyPermissionsOnly(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("mode bits are not meaningful on windows")
	}
	src, dest, info := fixture(t)
	before, err := os.Stat(dest)
	require.NoError(t, err)

	require.NoError(t, Apply(src, info, dest, Options{Permissions: true}))

	got, err := os.Stat(dest)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0640), got.Mode().Perm())
	assert.True(t, got.ModTime().Equal(before.ModTime()), "times untouched without Full")
}

func TestApplyDisabled(t *testing.T) {
	src, dest, info := fixture(t)
	assert.False(t, Options{}.Enabled())
	require.NoError(t, Apply(src, info, dest, Options{}))

	got, err := os.Stat(dest)
	require.NoError(t, err)
	assert.False(t, got.ModTime().Equal(info.ModTime()))
}

func TestApplyMissingDestination(t *testing.T) {
	src, _, info := fixture(t)
	err := Apply(src, info, filepath.Join(t.TempDir(), "missing"), Options{Full: true})
	assert.Error(t, err)
}

func TestAccessTime(t *testing.T) {
	_, _, info := fixture(t)
	assert.False(t, AccessTime(info).IsZero())
}
