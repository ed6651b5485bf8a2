package mover_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/ariamove/pkg/errors"
	"github.com/arthur-debert/ariamove/pkg/mover"
	"github.com/arthur-debert/ariamove/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryRename(t *testing.T) {
	dir := t.TempDir()
	src := testutil.CreateFile(t, dir, "staging/a.txt", "hi")
	dest := filepath.Join(testutil.CreateDir(t, dir, "dest"), "a.txt")

	require.NoError(t, mover.New(nil).TryRename(src, dest))

	testutil.AssertNoFile(t, src)
	testutil.AssertFileContent(t, dest, "hi")
}

func TestTryRenameReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	src := testutil.CreateFile(t, dir, "a.txt", "new")
	dest := testutil.CreateFile(t, dir, "dest/a.txt", "old")

	require.NoError(t, mover.New(nil).TryRename(src, dest))
	testutil.AssertFileContent(t, dest, "new")
}

func TestTryRenameCrossDeviceFallsBack(t *testing.T) {
	dir := t.TempDir()
	src := testutil.CreateFile(t, dir, "a.txt", "hi")
	dest := filepath.Join(dir, "b.txt")

	err := mover.New(testutil.CrossDeviceFS()).TryRename(src, dest)
	require.Error(t, err)
	assert.True(t, mover.IsFallback(err))
	assert.True(t, mover.IsCrossDevice(err))
	testutil.AssertFileContent(t, src, "hi")
}

func TestTryRenamePermissionFallsBack(t *testing.T) {
	fsys := testutil.NewFaultFS(nil)
	fsys.FailRenames(func(oldpath, newpath string) error {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: fs.ErrPermission}
	})

	err := mover.New(fsys).TryRename("/a", "/b")
	assert.True(t, mover.IsFallback(err))
}

func TestTryRenameOtherErrorsAreFatal(t *testing.T) {
	dir := t.TempDir()

	err := mover.New(nil).TryRename(filepath.Join(dir, "missing"), filepath.Join(dir, "b"))
	require.Error(t, err)
	assert.False(t, mover.IsFallback(err))
	assert.True(t, errors.IsErrorCode(err, errors.ErrIO))
	assert.Equal(t, filepath.Join(dir, "b"), errors.GetErrorDetails(err)["path"])
}

func TestIsCrossDeviceRejectsPlainErrors(t *testing.T) {
	assert.False(t, mover.IsCrossDevice(nil))
	assert.False(t, mover.IsCrossDevice(fs.ErrNotExist))
}
