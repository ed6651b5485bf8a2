package relocate

import (
	"context"
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/arthur-debert/ariamove/pkg/copier"
	"github.com/arthur-debert/ariamove/pkg/diskspace"
	"github.com/arthur-debert/ariamove/pkg/errors"
	"github.com/arthur-debert/ariamove/pkg/filesystem"
	"github.com/arthur-debert/ariamove/pkg/metadata"
	"github.com/arthur-debert/ariamove/pkg/mover"
	"github.com/arthur-debert/ariamove/pkg/naming"
	"github.com/arthur-debert/ariamove/pkg/security"
	"github.com/arthur-debert/ariamove/pkg/shutdown"
	"github.com/arthur-debert/ariamove/pkg/stability"
	"github.com/sourcegraph/conc/pool"
)

// treeEntry is one directory or regular file below a source tree
type treeEntry struct {
	rel  string
	info fs.FileInfo
}

// MoveDir relocates the directory src, with everything below it, into the
// destination root.
func (e *Engine) MoveDir(ctx context.Context, src string) (Outcome, error) {
	src, info, err := e.inspect(ctx, src)
	if err != nil {
		return Outcome{}, err
	}
	if !info.IsDir() {
		return Outcome{}, errors.Newf(errors.ErrInvalidInput, "not a directory: %s", src).WithDetail("path", src)
	}
	return e.moveDir(ctx, src)
}

func (e *Engine) moveDir(ctx context.Context, src string) (Outcome, error) {
	logger := e.logger.With().Str("src", src).Logger()

	srcDir := filepath.Dir(src)
	srcLock, err := e.lockDir(srcDir)
	if err != nil {
		return Outcome{}, err
	}
	defer e.release(srcLock)

	destDir := e.req.DestinationRoot
	name := filepath.Base(src)

	if e.req.DryRun {
		if err := e.probeDryRun(destDir); err != nil {
			return Outcome{}, err
		}
		dest := naming.ResolveDir(destDir, name, e.req.OnDuplicate)
		logger.Info().Str("dest", dest).Msg("dry run, would move directory")
		return Outcome{Kind: DryRun, Dest: dest}, nil
	}

	destLock, err := e.lockDest(srcDir, destDir)
	if err != nil {
		return Outcome{}, err
	}
	defer e.release(destLock)

	if _, err := e.fs.Lstat(src); err != nil {
		return Outcome{}, errors.SourceNotFound(src)
	}
	if shutdown.Requested(ctx) {
		return Outcome{}, errors.Interrupted()
	}

	dest := naming.ResolveDir(destDir, name, e.req.OnDuplicate)
	var displaced string
	if existing, err := e.fs.Lstat(dest); err == nil {
		switch e.req.OnDuplicate {
		case naming.Skip:
			logger.Info().Str("dest", dest).Msg("destination exists, skipping")
			return Outcome{Kind: Skipped, Dest: dest}, nil
		case naming.Overwrite:
			if !existing.IsDir() {
				return Outcome{}, errors.Newf(errors.ErrInvalidInput, "cannot overwrite file %s with a directory", dest).
					WithDetail("path", dest)
			}
			// The old tree stays aside until the new one is complete.
			displaced = filepath.Join(destDir, naming.DisplacedName(os.Getpid(), name))
			if err := e.fs.Rename(dest, displaced); err != nil {
				return Outcome{}, errors.WrapIO("set aside existing destination", dest, err)
			}
			logger.Debug().Str("dest", dest).Str("aside", displaced).Msg("existing destination set aside")
		}
	}

	err = e.mover.TryRename(src, dest)
	if err == nil {
		e.dropDisplaced(displaced)
		logger.Info().Str("dest", dest).Msg("moved directory")
		return Outcome{Kind: Renamed, Dest: dest}, nil
	}
	if !mover.IsFallback(err) {
		e.restoreDisplaced(dest, displaced)
		return Outcome{}, err
	}
	logger.Debug().Err(err).Msg("rename not possible, copying tree")

	files, err := e.copyTree(ctx, src, dest)
	if err != nil {
		// Without a displaced tree the partial copy stays for the
		// reconciler or a later resume.
		e.restoreDisplaced(dest, displaced)
		return Outcome{}, err
	}
	e.dropDisplaced(displaced)
	if err := e.removeSource(src, true); err != nil {
		return Outcome{}, err
	}

	logger.Info().Str("dest", dest).Int("files", files).Msg("copied directory")
	return Outcome{Kind: CopiedAndRenamed, Dest: dest}, nil
}

// restoreDisplaced puts a set-aside destination back after a failed move,
// discarding whatever the move left at dest.
func (e *Engine) restoreDisplaced(dest, displaced string) {
	if displaced == "" {
		return
	}
	if err := e.fs.RemoveAll(dest); err != nil && !os.IsNotExist(err) {
		e.logger.Warn().Err(err).Str("dest", dest).Msg("could not clear failed copy")
	}
	if err := e.fs.Rename(displaced, dest); err != nil {
		e.logger.Error().Err(err).Str("dest", dest).Str("aside", displaced).
			Msg("could not restore replaced destination; it remains under the aside name")
		return
	}
	if err := filesystem.SyncDir(filepath.Dir(dest)); err != nil {
		e.logger.Debug().Err(err).Str("dir", filepath.Dir(dest)).Msg("directory sync after restore failed")
	}
}

// dropDisplaced removes a set-aside destination once its replacement is in
// place. Failure leaves it under the aside name and is not an error.
func (e *Engine) dropDisplaced(displaced string) {
	if displaced == "" {
		return
	}
	if err := e.fs.RemoveAll(displaced); err != nil {
		e.logger.Warn().Err(err).Str("path", displaced).Msg("could not remove replaced destination")
	}
}

// copyTree recreates src's directories under dest and copies its regular
// files with at most Workers copies in flight. The first failure cancels
// the remaining copies. It returns the number of files copied.
func (e *Engine) copyTree(ctx context.Context, src, dest string) (int, error) {
	dirs, files, err := scanTree(src)
	if err != nil {
		return 0, err
	}

	size, err := diskspace.TreeSize(src)
	if err != nil {
		return 0, err
	}
	if err := diskspace.Ensure(filepath.Dir(dest), size); err != nil {
		return 0, err
	}

	for _, d := range dirs {
		target := filepath.Join(dest, d.rel)
		if err := e.fs.MkdirAll(target, d.info.Mode().Perm()|0o700); err != nil {
			return 0, errors.WrapIO("create directory", target, err)
		}
	}

	p := pool.New().
		WithMaxGoroutines(e.req.Workers).
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError()
	for _, f := range files {
		p.Go(func(ctx context.Context) error {
			return e.copyTreeFile(ctx, filepath.Join(src, f.rel), filepath.Join(dest, f.rel))
		})
	}
	if err := p.Wait(); err != nil {
		return 0, err
	}

	// Deepest first, so writing into a child never touches a parent's
	// restored times.
	opts := e.metadataOptions()
	for i := len(dirs) - 1; i >= 0; i-- {
		d := dirs[i]
		if err := metadata.Apply(filepath.Join(src, d.rel), d.info, filepath.Join(dest, d.rel), opts); err != nil {
			e.logger.Debug().Err(err).Str("dir", filepath.Join(dest, d.rel)).Msg("metadata preservation incomplete")
		}
	}
	return len(files), nil
}

func (e *Engine) copyTreeFile(ctx context.Context, src, dest string) error {
	if shutdown.Requested(ctx) {
		return errors.Interrupted()
	}
	if err := stability.Check(ctx, src, e.req.StabilityInterval, e.req.StabilityAttempts); err != nil {
		return err
	}
	if _, err := e.copier.CopyWithResume(ctx, src, dest, copier.Options{Metadata: e.metadataOptions()}); err != nil {
		return err
	}
	return e.verify(src, dest)
}

// scanTree lists the directories (parents first, root included as ".") and
// regular files below root. Symlinks and special files anywhere in the tree
// reject the whole move; engine files are ignored.
func scanTree(root string) (dirs, files []treeEntry, err error) {
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if path != root && naming.IsEngineFile(d.Name()) {
			return nil
		}
		if err := security.RejectMode(path, d.Type()); err != nil {
			return err
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if d.IsDir() {
			dirs = append(dirs, treeEntry{rel: rel, info: info})
		} else {
			files = append(files, treeEntry{rel: rel, info: info})
		}
		return nil
	})
	if err != nil {
		var typed *errors.Error
		if stderrors.As(err, &typed) {
			return nil, nil, typed
		}
		return nil, nil, errors.WrapIO("scan source tree", root, err)
	}
	return dirs, files, nil
}
