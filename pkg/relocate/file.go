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
	"github.com/arthur-debert/ariamove/pkg/internal/hashutil"
	"github.com/arthur-debert/ariamove/pkg/mover"
	"github.com/arthur-debert/ariamove/pkg/naming"
	"github.com/arthur-debert/ariamove/pkg/shutdown"
	"github.com/arthur-debert/ariamove/pkg/stability"
)

// MoveFile relocates the regular file src into the destination root.
func (e *Engine) MoveFile(ctx context.Context, src string) (Outcome, error) {
	src, info, err := e.inspect(ctx, src)
	if err != nil {
		return Outcome{}, err
	}
	return e.moveFile(ctx, src, info)
}

func (e *Engine) moveFile(ctx context.Context, src string, info fs.FileInfo) (Outcome, error) {
	if !info.Mode().IsRegular() {
		return Outcome{}, errors.ProvidedNotFile(src)
	}
	logger := e.logger.With().Str("src", src).Logger()

	if err := stability.Check(ctx, src, e.req.StabilityInterval, e.req.StabilityAttempts); err != nil {
		return Outcome{}, err
	}

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
		dest := naming.Resolve(destDir, name, e.req.OnDuplicate)
		logger.Info().Str("dest", dest).Msg("dry run, would move file")
		return Outcome{Kind: DryRun, Dest: dest}, nil
	}

	destLock, err := e.lockDest(srcDir, destDir)
	if err != nil {
		return Outcome{}, err
	}
	defer e.release(destLock)

	// Another invocation may have moved it while we waited.
	info, err = e.fs.Lstat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return Outcome{}, errors.SourceNotFound(src)
		}
		return Outcome{}, errors.WrapIO("inspect source", src, err)
	}
	if shutdown.Requested(ctx) {
		return Outcome{}, errors.Interrupted()
	}

	dest := naming.Resolve(destDir, name, e.req.OnDuplicate)
	if existing, err := e.fs.Lstat(dest); err == nil {
		switch e.req.OnDuplicate {
		case naming.Skip:
			logger.Info().Str("dest", dest).Msg("destination exists, skipping")
			return Outcome{Kind: Skipped, Dest: dest}, nil
		case naming.Overwrite:
			if existing.IsDir() {
				return Outcome{}, errors.Newf(errors.ErrInvalidInput, "cannot overwrite directory %s with a file", dest).
					WithDetail("path", dest)
			}
			logger.Debug().Str("dest", dest).Msg("overwriting existing destination")
		}
	}

	if err := diskspace.Ensure(destDir, uint64(info.Size())); err != nil {
		return Outcome{}, err
	}

	err = e.mover.TryRename(src, dest)
	if err == nil {
		if n := e.copier.DiscardStale(dest); n > 0 {
			logger.Debug().Int("artifacts", n).Msg("discarded stale partial copies")
		}
		logger.Info().Str("dest", dest).Msg("moved file")
		return Outcome{Kind: Renamed, Dest: dest}, nil
	}
	if !mover.IsFallback(err) {
		return Outcome{}, err
	}
	logger.Debug().Err(err).Msg("rename not possible, copying")

	res, err := e.copier.CopyWithResume(ctx, src, dest, copier.Options{Metadata: e.metadataOptions()})
	if err != nil {
		return Outcome{}, err
	}
	if err := e.verify(src, dest); err != nil {
		return Outcome{}, err
	}
	if err := e.removeSource(src, false); err != nil {
		return Outcome{}, err
	}

	logger.Info().
		Str("dest", dest).
		Int64("bytes", res.ResumedFrom+res.Copied).
		Int64("resumedFrom", res.ResumedFrom).
		Msg("copied file")
	return Outcome{Kind: CopiedAndRenamed, Dest: dest}, nil
}

// verify compares the checksums of src and its copy at dest when
// verification is enabled and dest's directory is readable.
func (e *Engine) verify(src, dest string) error {
	if !e.req.Verify {
		return nil
	}
	if !e.dirReadable(filepath.Dir(dest)) {
		e.logger.Debug().Str("dest", dest).Msg("destination not readable, skipping verification")
		return nil
	}

	same, err := hashutil.SameContent(src, dest)
	if err != nil {
		if stderrors.Is(err, fs.ErrPermission) {
			e.logger.Debug().Err(err).Str("dest", dest).Msg("copy not readable, skipping verification")
			return nil
		}
		return errors.WrapIO("verify copy", dest, err)
	}
	if !same {
		return errors.Newf(errors.ErrIO, "checksum mismatch after copying %s to %s", src, dest).
			WithDetails(map[string]interface{}{"path": dest, "source": src})
	}
	return nil
}
