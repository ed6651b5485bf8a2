// pkg/relocate/engine_test.go
// TEST TYPE: Integration Test
// DEPENDENCIES: Real filesystem (t.TempDir), FaultFS for cross-device paths
// PURPOSE: Exercise file and directory relocation end to end

package relocate

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/arthur-debert/ariamove/pkg/errors"
	"github.com/arthur-debert/ariamove/pkg/filesystem"
	"github.com/arthur-debert/ariamove/pkg/internal/hashutil"
	"github.com/arthur-debert/ariamove/pkg/lock"
	"github.com/arthur-debert/ariamove/pkg/naming"
	"github.com/arthur-debert/ariamove/pkg/shutdown"
	"github.com/arthur-debert/ariamove/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	staging string
	dest    string
	req     Request
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	base := t.TempDir()
	f := &fixture{
		staging: filepath.Join(base, "staging"),
		dest:    filepath.Join(base, "dest"),
	}
	require.NoError(t, os.MkdirAll(f.staging, 0755))
	require.NoError(t, os.MkdirAll(f.dest, 0755))
	f.req = Request{
		StagingRoot:       f.staging,
		DestinationRoot:   f.dest,
		LocksEnabled:      true,
		Workers:           2,
		StabilityInterval: time.Millisecond,
		StabilityAttempts: 2,
	}
	return f
}

func (f *fixture) engine(fsys filesystem.FS) *Engine {
	return New(f.req, Options{FS: fsys})
}

func artifactsIn(t *testing.T, dir string) []string {
	t.Helper()
	var out []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if naming.IsEngineFile(d.Name()) {
			out = append(out, path)
		}
		return nil
	})
	require.NoError(t, err)
	return out
}

func TestMoveFileRenames(t *testing.T) {
	f := newFixture(t)
	src := testutil.CreateFile(t, f.staging, "a.txt", "hi")

	out, err := f.engine(nil).MoveFile(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, Renamed, out.Kind)
	assert.Equal(t, filepath.Join(f.dest, "a.txt"), out.Dest)
	testutil.AssertFileContent(t, out.Dest, "hi")
	testutil.AssertNoFile(t, src)
	assert.Empty(t, artifactsIn(t, f.dest))
	assert.Empty(t, artifactsIn(t, f.staging))
}

func TestMoveFileRenameWithSuffix(t *testing.T) {
	f := newFixture(t)
	testutil.CreateFile(t, f.dest, "file.txt", "original")
	src := testutil.CreateFile(t, f.staging, "file.txt", "incoming")

	out, err := f.engine(nil).MoveFile(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(f.dest, "file (2).txt"), out.Dest)
	testutil.AssertFileContent(t, out.Dest, "incoming")
	testutil.AssertFileContent(t, filepath.Join(f.dest, "file.txt"), "original")
	testutil.AssertNoFile(t, src)
}

func TestMoveFileSkipLeavesSource(t *testing.T) {
	f := newFixture(t)
	f.req.OnDuplicate = naming.Skip
	testutil.CreateFile(t, f.dest, "file.txt", "original")
	src := testutil.CreateFile(t, f.staging, "file.txt", "incoming")

	out, err := f.engine(nil).MoveFile(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, Skipped, out.Kind)
	testutil.AssertFileContent(t, filepath.Join(f.dest, "file.txt"), "original")
	testutil.AssertFileContent(t, src, "incoming")
}

func TestMoveFileOverwrite(t *testing.T) {
	f := newFixture(t)
	f.req.OnDuplicate = naming.Overwrite
	testutil.CreateFile(t, f.dest, "file.txt", "original")
	src := testutil.CreateFile(t, f.staging, "file.txt", "incoming")

	out, err := f.engine(testutil.CrossDeviceFS()).MoveFile(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, CopiedAndRenamed, out.Kind)
	assert.Equal(t, filepath.Join(f.dest, "file.txt"), out.Dest)
	testutil.AssertFileContent(t, out.Dest, "incoming")
	testutil.AssertNoFile(t, src)
}

func TestMoveEntryRejectsSymlinkWithoutMutation(t *testing.T) {
	testutil.SkipOnWindows(t)
	f := newFixture(t)
	target := testutil.CreateFile(t, t.TempDir(), "target.txt", "data")
	link := filepath.Join(f.staging, "link")
	testutil.CreateSymlink(t, target, link)

	_, err := f.engine(nil).MoveEntry(context.Background(), link)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrSymlinkRejected))

	_, lerr := os.Lstat(link)
	assert.NoError(t, lerr)
	assert.Empty(t, testutil.ReadTree(t, f.dest))
	testutil.AssertFileContent(t, target, "data")
}

func TestMoveEntryRejectsSymlinkedAncestor(t *testing.T) {
	testutil.SkipOnWindows(t)
	f := newFixture(t)
	elsewhere := testutil.CreateDir(t, t.TempDir(), "elsewhere")
	testutil.CreateFile(t, elsewhere, "x.bin", "x")
	testutil.CreateSymlink(t, elsewhere, filepath.Join(f.staging, "sub"))

	_, err := f.engine(nil).MoveEntry(context.Background(), filepath.Join(f.staging, "sub", "x.bin"))
	assert.True(t, errors.IsErrorCode(err, errors.ErrSymlinkRejected))
	testutil.AssertFileContent(t, filepath.Join(elsewhere, "x.bin"), "x")
}

func TestMoveEntryRejectsRoots(t *testing.T) {
	f := newFixture(t)
	e := f.engine(nil)

	for _, root := range []string{f.staging, f.dest, f.staging + string(filepath.Separator)} {
		_, err := e.MoveEntry(context.Background(), root)
		assert.True(t, errors.IsErrorCode(err, errors.ErrBaseInvalid), root)
	}
	_, err := os.Stat(f.staging)
	assert.NoError(t, err)
}

func TestMoveEntryMissingSource(t *testing.T) {
	f := newFixture(t)
	missing := filepath.Join(f.staging, "nope")

	_, err := f.engine(nil).MoveEntry(context.Background(), missing)
	assert.True(t, errors.IsErrorCode(err, errors.ErrSourceNotFound))

	var typed *errors.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, missing, typed.Path())
}

func TestMoveFileRejectsDirectory(t *testing.T) {
	f := newFixture(t)
	dir := testutil.CreateDir(t, f.staging, "album")

	_, err := f.engine(nil).MoveFile(context.Background(), dir)
	assert.True(t, errors.IsErrorCode(err, errors.ErrProvidedNotFile))
}

func TestMoveFileIncompleteDownloadIsUnstable(t *testing.T) {
	f := newFixture(t)
	src := testutil.CreateFile(t, f.staging, "movie.mkv.part", "partial")

	_, err := f.engine(nil).MoveFile(context.Background(), src)
	assert.True(t, errors.IsErrorCode(err, errors.ErrUnstable))
	testutil.AssertFileContent(t, src, "partial")
}

func TestMoveInterrupted(t *testing.T) {
	f := newFixture(t)
	src := testutil.CreateFile(t, f.staging, "a.txt", "hi")

	shutdown.Request()
	t.Cleanup(shutdown.Reset)

	_, err := f.engine(nil).MoveEntry(context.Background(), src)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInterrupted))
	testutil.AssertFileContent(t, src, "hi")
}

func TestMoveCancelledContext(t *testing.T) {
	f := newFixture(t)
	src := testutil.CreateFile(t, f.staging, "a.txt", "hi")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.engine(nil).MoveEntry(ctx, src)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInterrupted))
	testutil.AssertFileContent(t, src, "hi")
}

func TestDryRun(t *testing.T) {
	f := newFixture(t)
	f.req.DryRun = true
	src := testutil.CreateFile(t, f.staging, "a.txt", "hi")

	out, err := f.engine(nil).MoveFile(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, DryRun, out.Kind)
	assert.Equal(t, filepath.Join(f.dest, "a.txt"), out.Dest)
	testutil.AssertFileContent(t, src, "hi")
	testutil.AssertNoFile(t, out.Dest)
	assert.Empty(t, artifactsIn(t, f.staging))
}

func TestDryRunMissingDestination(t *testing.T) {
	f := newFixture(t)
	f.req.DryRun = true
	f.req.DestinationRoot = filepath.Join(f.dest, "missing")
	src := testutil.CreateFile(t, f.staging, "a.txt", "hi")

	_, err := f.engine(nil).MoveFile(context.Background(), src)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrPermissionDenied))
	assert.Contains(t, err.Error(), "dry-run parent missing or readonly")
}

func TestMoveFileCrossDevice(t *testing.T) {
	f := newFixture(t)
	f.req.Verify = true
	payload := bytes.Repeat([]byte("0123456789"), 10000)
	src := filepath.Join(f.staging, "big.bin")
	require.NoError(t, os.WriteFile(src, payload, 0644))
	fsys := testutil.CrossDeviceFS()

	out, err := f.engine(fsys).MoveFile(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, CopiedAndRenamed, out.Kind)
	got, err := os.ReadFile(out.Dest)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	testutil.AssertNoFile(t, src)
	assert.Empty(t, artifactsIn(t, f.dest))
	assert.Equal(t, int64(1), fsys.FailedRenames())
}

func TestMoveFileResumesPartialCopy(t *testing.T) {
	f := newFixture(t)
	payload := bytes.Repeat([]byte("abcdefgh"), 4096)
	src := filepath.Join(f.staging, "big.bin")
	require.NoError(t, os.WriteFile(src, payload, 0644))

	// A crashed run of this process left the first half behind. The
	// planted half is zeroed so the result proves it was not re-copied.
	half := len(payload) / 2
	name := naming.TempName{
		PID:     os.Getpid(),
		Created: time.Now().Add(-time.Minute),
		Seq:     1 << 40,
		Key:     hashutil.NameKey("big.bin"),
	}
	artifact := filepath.Join(f.dest, name.String())
	require.NoError(t, os.WriteFile(artifact, make([]byte, half), 0600))

	out, err := f.engine(testutil.CrossDeviceFS()).MoveFile(context.Background(), src)
	require.NoError(t, err)

	got, err := os.ReadFile(out.Dest)
	require.NoError(t, err)
	require.Len(t, got, len(payload))
	assert.Equal(t, make([]byte, half), got[:half])
	assert.Equal(t, payload[half:], got[half:])
	testutil.AssertNoFile(t, artifact)
	testutil.AssertNoFile(t, src)
}

func TestMoveFileDiscardsStaleArtifactsAfterRename(t *testing.T) {
	f := newFixture(t)
	src := testutil.CreateFile(t, f.staging, "a.txt", "hi")
	name := naming.TempName{PID: os.Getpid(), Created: time.Now(), Seq: 1 << 41, Key: hashutil.NameKey("a.txt")}
	stale := testutil.CreateFile(t, f.dest, name.String(), "h")

	out, err := f.engine(nil).MoveFile(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, Renamed, out.Kind)
	testutil.AssertNoFile(t, stale)
}

func TestMoveFileUnreadableDestinationSkipsVerification(t *testing.T) {
	testutil.SkipOnWindows(t)
	testutil.SkipIfRoot(t)
	f := newFixture(t)
	f.req.Verify = true
	src := testutil.CreateFile(t, f.staging, "a.txt", "hi")
	testutil.Chmod(t, f.dest, 0300)

	out, err := f.engine(testutil.CrossDeviceFS()).MoveFile(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, CopiedAndRenamed, out.Kind)
	testutil.AssertNoFile(t, src)
	require.NoError(t, os.Chmod(f.dest, 0755))
	testutil.AssertFileContent(t, out.Dest, "hi")
}

func TestMoveFileReadOnlySourceDirIsPermissionDenied(t *testing.T) {
	testutil.SkipOnWindows(t)
	testutil.SkipIfRoot(t)
	f := newFixture(t)
	src := testutil.CreateFile(t, f.staging, "a.txt", "hi")
	testutil.Chmod(t, f.staging, 0500)

	_, err := f.engine(nil).MoveEntry(context.Background(), src)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrPermissionDenied), err.Error())
	testutil.AssertFileContent(t, src, "hi")
	assert.Empty(t, testutil.ReadTree(t, f.dest))
}

func TestMoveDirReadOnlyDestinationIsPermissionDenied(t *testing.T) {
	testutil.SkipOnWindows(t)
	testutil.SkipIfRoot(t)
	f := newFixture(t)
	testutil.WriteTree(t, f.staging, map[string]string{"album/01.flac": "1"})
	testutil.Chmod(t, f.dest, 0500)

	_, err := f.engine(testutil.CrossDeviceFS()).MoveDir(context.Background(), filepath.Join(f.staging, "album"))
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrPermissionDenied), err.Error())
	testutil.AssertFileContent(t, filepath.Join(f.staging, "album", "01.flac"), "1")
}

func TestMoveFileWaitsForSourceLock(t *testing.T) {
	f := newFixture(t)
	src := testutil.CreateFile(t, f.staging, "a.txt", "hi")

	held, err := lock.New(true).Acquire(f.staging)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := f.engine(nil).MoveFile(context.Background(), src)
		done <- err
	}()

	select {
	case err := <-done:
		t.Fatalf("move finished while the source directory was locked: %v", err)
	case <-time.After(100 * time.Millisecond):
	}
	testutil.AssertFileContent(t, src, "hi")

	require.NoError(t, held.Release())
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("move did not finish after the lock was released")
	}
	testutil.AssertFileContent(t, filepath.Join(f.dest, "a.txt"), "hi")
}

func TestMoveDirRenames(t *testing.T) {
	f := newFixture(t)
	tree := map[string]string{
		"album/01.flac":       "one",
		"album/02.flac":       "two",
		"album/cover/art.jpg": "art",
	}
	testutil.WriteTree(t, f.staging, tree)

	out, err := f.engine(nil).MoveDir(context.Background(), filepath.Join(f.staging, "album"))
	require.NoError(t, err)

	assert.Equal(t, Renamed, out.Kind)
	assert.Equal(t, map[string]string{
		"01.flac":       "one",
		"02.flac":       "two",
		"cover/art.jpg": "art",
	}, testutil.ReadTree(t, out.Dest))
	testutil.AssertNoFile(t, filepath.Join(f.staging, "album"))
}

func TestMoveDirCrossDevice(t *testing.T) {
	f := newFixture(t)
	f.req.Verify = true
	testutil.WriteTree(t, f.staging, map[string]string{
		"album/01.flac":       "one",
		"album/02.flac":       "two",
		"album/cover/art.jpg": "art",
		"album/empty/":        "",
	})

	out, err := f.engine(testutil.CrossDeviceFS()).MoveDir(context.Background(), filepath.Join(f.staging, "album"))
	require.NoError(t, err)

	assert.Equal(t, CopiedAndRenamed, out.Kind)
	assert.Equal(t, map[string]string{
		"01.flac":       "one",
		"02.flac":       "two",
		"cover/art.jpg": "art",
	}, testutil.ReadTree(t, out.Dest))
	info, err := os.Stat(filepath.Join(out.Dest, "empty"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	testutil.AssertNoFile(t, filepath.Join(f.staging, "album"))
	assert.Empty(t, artifactsIn(t, f.dest))
}

func TestMoveDirCollisionKeepsDotsInName(t *testing.T) {
	f := newFixture(t)
	testutil.WriteTree(t, f.staging, map[string]string{"show.s01/e01.mkv": "e1"})
	testutil.CreateDir(t, f.dest, "show.s01")

	out, err := f.engine(nil).MoveEntry(context.Background(), filepath.Join(f.staging, "show.s01"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(f.dest, "show.s01 (2)"), out)
	testutil.AssertFileContent(t, filepath.Join(out, "e01.mkv"), "e1")
}

func TestMoveDirCopyRejectsNestedSymlink(t *testing.T) {
	testutil.SkipOnWindows(t)
	f := newFixture(t)
	testutil.WriteTree(t, f.staging, map[string]string{"album/01.flac": "one"})
	testutil.CreateSymlink(t, "/etc/hosts", filepath.Join(f.staging, "album", "hosts"))

	_, err := f.engine(testutil.CrossDeviceFS()).MoveDir(context.Background(), filepath.Join(f.staging, "album"))
	assert.True(t, errors.IsErrorCode(err, errors.ErrSymlinkRejected))
	testutil.AssertFileContent(t, filepath.Join(f.staging, "album", "01.flac"), "one")
}

func TestMoveDirOverwriteReplacesTree(t *testing.T) {
	f := newFixture(t)
	f.req.OnDuplicate = naming.Overwrite
	testutil.WriteTree(t, f.dest, map[string]string{"album/old.flac": "old"})
	testutil.WriteTree(t, f.staging, map[string]string{"album/new.flac": "new"})

	out, err := f.engine(testutil.CrossDeviceFS()).MoveDir(context.Background(), filepath.Join(f.staging, "album"))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"new.flac": "new"}, testutil.ReadTree(t, out.Dest))
	assert.Empty(t, artifactsIn(t, f.dest))
}

func TestMoveDirOverwriteKeepsExistingTreeOnFailure(t *testing.T) {
	testutil.SkipOnWindows(t)
	f := newFixture(t)
	f.req.OnDuplicate = naming.Overwrite
	testutil.WriteTree(t, f.dest, map[string]string{"album/old.flac": "old"})
	testutil.WriteTree(t, f.staging, map[string]string{"album/new.flac": "new"})
	testutil.CreateSymlink(t, "/etc/hosts", filepath.Join(f.staging, "album", "hosts"))

	_, err := f.engine(testutil.CrossDeviceFS()).MoveDir(context.Background(), filepath.Join(f.staging, "album"))
	require.True(t, errors.IsErrorCode(err, errors.ErrSymlinkRejected), "got %v", err)

	assert.Equal(t, map[string]string{"old.flac": "old"}, testutil.ReadTree(t, filepath.Join(f.dest, "album")))
	assert.Empty(t, artifactsIn(t, f.dest))
	testutil.AssertFileContent(t, filepath.Join(f.staging, "album", "new.flac"), "new")
}

func TestMoveDirOverwriteRestoresAfterFailedRename(t *testing.T) {
	f := newFixture(t)
	f.req.OnDuplicate = naming.Overwrite
	testutil.WriteTree(t, f.dest, map[string]string{"album/old.flac": "old"})
	testutil.WriteTree(t, f.staging, map[string]string{"album/new.flac": "new"})

	fsys := testutil.NewFaultFS(nil)
	fsys.FailRenames(func(oldpath, newpath string) error {
		if oldpath == filepath.Join(f.staging, "album") {
			return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: os.ErrInvalid}
		}
		return nil
	})

	_, err := f.engine(fsys).MoveDir(context.Background(), filepath.Join(f.staging, "album"))
	require.Error(t, err)

	testutil.AssertFileContent(t, filepath.Join(f.dest, "album", "old.flac"), "old")
	assert.Empty(t, artifactsIn(t, f.dest))
}

func TestMoveDirOverwriteRefusesExistingFile(t *testing.T) {
	f := newFixture(t)
	f.req.OnDuplicate = naming.Overwrite
	testutil.CreateFile(t, f.dest, "album", "a file")
	testutil.WriteTree(t, f.staging, map[string]string{"album/new.flac": "new"})

	_, err := f.engine(nil).MoveDir(context.Background(), filepath.Join(f.staging, "album"))
	require.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput), "got %v", err)

	testutil.AssertFileContent(t, filepath.Join(f.dest, "album"), "a file")
	testutil.AssertFileContent(t, filepath.Join(f.staging, "album", "new.flac"), "new")
}

func TestConcurrentMoveDirOnDisjointTrees(t *testing.T) {
	f := newFixture(t)
	a := map[string]string{"a/1.bin": "a1", "a/2.bin": "a2", "a/sub/3.bin": "a3"}
	b := map[string]string{"b/1.bin": "b1", "b/2.bin": "b2", "b/sub/4.bin": "b4"}
	testutil.WriteTree(t, f.staging, a)
	testutil.WriteTree(t, f.staging, b)

	fsys := testutil.CrossDeviceFS()
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, name := range []string{"a", "b"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.engine(fsys).MoveDir(context.Background(), filepath.Join(f.staging, name))
		}()
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, map[string]string{"1.bin": "a1", "2.bin": "a2", "sub/3.bin": "a3"}, testutil.ReadTree(t, filepath.Join(f.dest, "a")))
	assert.Equal(t, map[string]string{"1.bin": "b1", "2.bin": "b2", "sub/4.bin": "b4"}, testutil.ReadTree(t, filepath.Join(f.dest, "b")))
	assert.Empty(t, testutil.ReadTree(t, f.staging))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "renamed", Renamed.String())
	assert.Equal(t, "copied", CopiedAndRenamed.String())
	assert.Equal(t, "skipped", Skipped.String())
	assert.Equal(t, "dry-run", DryRun.String())
}

func TestMoveReportsKindForEitherEntryType(t *testing.T) {
	f := newFixture(t)
	file := testutil.CreateFile(t, f.staging, "a.bin", "a")
	dir := testutil.CreateDir(t, f.staging, "season")
	testutil.CreateFile(t, dir, "e01.mkv", "e")

	e := f.engine(testutil.CrossDeviceFS())
	out, err := e.Move(context.Background(), file)
	require.NoError(t, err)
	assert.Equal(t, CopiedAndRenamed, out.Kind)

	out, err = e.Move(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, CopiedAndRenamed, out.Kind)
	testutil.AssertFileContent(t, filepath.Join(out.Dest, "e01.mkv"), "e")

	dest, err := f.engine(nil).MoveEntry(context.Background(), filepath.Join(f.staging, "missing"))
	assert.Empty(t, dest)
	assert.True(t, errors.IsErrorCode(err, errors.ErrSourceNotFound))
}
