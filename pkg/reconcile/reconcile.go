// Package reconcile cleans up after a previous run that crashed.
//
// It removes temp artifacts left under the destination root and destination
// directories that look like an interrupted tree copy. A directory whose
// lock another process holds is being worked on and is left alone, and so
// is any artifact whose owning process is still running.
//
// Partial directory detection compares direct entry counts between a
// destination directory and its namesake in staging. It is a heuristic: a
// destination that is legitimately smaller than its staging namesake is
// removed as well.
package reconcile

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/arthur-debert/ariamove/pkg/copier"
	"github.com/arthur-debert/ariamove/pkg/errors"
	"github.com/arthur-debert/ariamove/pkg/filesystem"
	"github.com/arthur-debert/ariamove/pkg/lock"
	"github.com/arthur-debert/ariamove/pkg/logging"
	"github.com/arthur-debert/ariamove/pkg/naming"
	"github.com/arthur-debert/ariamove/pkg/relocate"
	"github.com/arthur-debert/ariamove/pkg/shutdown"
)

// Report lists what a run removed, or would remove in dry-run mode
type Report struct {
	Artifacts   []string
	PartialDirs []string
	// Contended lists directories skipped because another process held
	// their lock
	Contended []string
}

// Empty reports whether the run found nothing to do
func (r Report) Empty() bool {
	return len(r.Artifacts) == 0 && len(r.PartialDirs) == 0 && len(r.Contended) == 0
}

// Options contains the collaborators of a run. Zero values select the real
// implementations.
type Options struct {
	FS    filesystem.FS
	Locks lock.DirectoryLock
	// Alive reports whether the process that created an artifact still
	// runs. Defaults to copier.ProcessAlive.
	Alive func(pid int) bool
}

type reconciler struct {
	req    relocate.Request
	fs     filesystem.FS
	locks  lock.DirectoryLock
	alive  func(pid int) bool
	report Report
}

// Run reconciles req's destination root against its staging root.
func Run(ctx context.Context, req relocate.Request) (Report, error) {
	return RunWith(ctx, req, Options{})
}

// RunWith is Run with explicit collaborators.
func RunWith(ctx context.Context, req relocate.Request, opts Options) (Report, error) {
	r := &reconciler{req: req, fs: opts.FS, locks: opts.Locks, alive: opts.Alive}
	if r.fs == nil {
		r.fs = filesystem.NewOS()
	}
	if r.locks == nil {
		r.locks = lock.New(req.LocksEnabled)
	}
	if r.alive == nil {
		r.alive = copier.ProcessAlive
	}

	logger := logging.GetLogger("reconcile")
	done := logging.LogOperationStart(logger, "reconcile")
	defer done()

	info, err := r.fs.Stat(req.DestinationRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return r.report, nil
		}
		return r.report, errors.WrapIO("inspect destination root", req.DestinationRoot, err)
	}
	if !info.IsDir() {
		return r.report, errors.BaseInvalid(req.DestinationRoot)
	}

	if err := r.removeArtifacts(ctx); err != nil {
		return r.report, err
	}
	if err := r.removePartialDirs(ctx); err != nil {
		return r.report, err
	}

	if !r.report.Empty() {
		logger.Info().
			Int("artifacts", len(r.report.Artifacts)).
			Int("partialDirs", len(r.report.PartialDirs)).
			Int("contended", len(r.report.Contended)).
			Bool("dryRun", req.DryRun).
			Msg("reconciled destination")
	}
	return r.report, nil
}

// removeArtifacts deletes every orphaned temp artifact below the
// destination root, one directory at a time under that directory's lock.
// Artifacts of a running process belong to a move in progress.
func (r *reconciler) removeArtifacts(ctx context.Context) error {
	logger := logging.GetLogger("reconcile")
	byDir := make(map[string][]string)
	root := r.req.DestinationRoot
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsPermission(err) && path != root {
				logger.Debug().Err(err).Str("path", path).Msg("skipping unreadable directory")
				return filepath.SkipDir
			}
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		name, ok := naming.ParseTempName(d.Name())
		if !ok {
			return nil
		}
		if r.alive(name.PID) {
			logger.Debug().Str("path", path).Int("pid", name.PID).Msg("artifact owner still running, keeping")
			return nil
		}
		dir := filepath.Dir(path)
		byDir[dir] = append(byDir[dir], path)
		return nil
	})
	if err != nil {
		return errors.WrapIO("scan destination root", root, err)
	}

	dirs := make([]string, 0, len(byDir))
	for dir := range byDir {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	for _, dir := range dirs {
		if shutdown.Requested(ctx) {
			return errors.Interrupted()
		}
		err := r.withLock(dir, func() {
			for _, path := range byDir[dir] {
				if r.remove(path, false) {
					r.report.Artifacts = append(r.report.Artifacts, path)
				}
			}
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// removePartialDirs removes top-level destination directories holding
// fewer direct entries than their staging namesake.
func (r *reconciler) removePartialDirs(ctx context.Context) error {
	root := r.req.DestinationRoot
	if r.req.StagingRoot == "" {
		return nil
	}

	entries, err := r.fs.ReadDir(root)
	if err != nil {
		if os.IsPermission(err) {
			return nil
		}
		return errors.WrapIO("list destination root", root, err)
	}

	var candidates []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		candidates = append(candidates, e.Name())
	}
	if len(candidates) == 0 {
		return nil
	}

	if shutdown.Requested(ctx) {
		return errors.Interrupted()
	}
	return r.withLock(root, func() {
		for _, name := range candidates {
			staged := filepath.Join(r.req.StagingRoot, name)
			info, err := r.fs.Lstat(staged)
			if err != nil || !info.IsDir() {
				continue
			}

			dest := filepath.Join(root, name)
			srcCount := r.countEntries(staged)
			dstCount := r.countEntries(dest)
			if srcCount > 0 && dstCount < srcCount {
				logger := logging.GetLogger("reconcile")
				logger.Debug().
					Str("dir", dest).
					Int("staged", srcCount).
					Int("present", dstCount).
					Msg("destination directory looks partial")
				if r.remove(dest, true) {
					r.report.PartialDirs = append(r.report.PartialDirs, dest)
				}
			}
		}
	})
}

// withLock runs fn holding dir's lock. A contended directory is recorded
// and skipped. Any other lock failure, a lock file that cannot be created
// included, stops the run.
func (r *reconciler) withLock(dir string, fn func()) error {
	logger := logging.GetLogger("reconcile")

	h, err := r.tryLock(dir)
	if err != nil {
		if errors.IsErrorCode(err, errors.ErrLockContended) {
			logger.Info().Err(err).Str("dir", dir).Msg("directory in use by another process, skipping")
			r.report.Contended = append(r.report.Contended, dir)
			return nil
		}
		return err
	}
	defer func() {
		if err := h.Release(); err != nil {
			logger.Debug().Err(err).Str("dir", dir).Msg("lock release failed")
		}
	}()
	fn()
	return nil
}

// tryLock turns contention into a LOCK_CONTENDED error.
func (r *reconciler) tryLock(dir string) (*lock.Handle, error) {
	h, err := r.locks.TryAcquire(dir)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, errors.LockContended(dir)
	}
	return h, nil
}

// countEntries counts the direct entries of dir, ignoring engine files.
func (r *reconciler) countEntries(dir string) int {
	entries, err := r.fs.ReadDir(dir)
	if err != nil {
		return 0
	}
	n := 0
	for _, e := range entries {
		if !naming.IsEngineFile(e.Name()) {
			n++
		}
	}
	return n
}

// remove deletes path unless running dry. It reports whether path is gone
// (or would be).
func (r *reconciler) remove(path string, tree bool) bool {
	logger := logging.GetLogger("reconcile")
	if r.req.DryRun {
		logger.Info().Str("path", path).Msg("dry run, would remove")
		return true
	}

	var err error
	if tree {
		err = r.fs.RemoveAll(path)
	} else {
		err = r.fs.Remove(path)
	}
	if err != nil && !os.IsNotExist(err) {
		logger.Warn().Err(err).Str("path", path).Msg("could not remove leftover")
		return false
	}
	logger.Debug().Str("path", path).Msg("removed leftover")
	return true
}
