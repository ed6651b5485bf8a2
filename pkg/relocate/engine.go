package relocate

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/arthur-debert/ariamove/pkg/copier"
	"github.com/arthur-debert/ariamove/pkg/errors"
	"github.com/arthur-debert/ariamove/pkg/filesystem"
	"github.com/arthur-debert/ariamove/pkg/lock"
	"github.com/arthur-debert/ariamove/pkg/logging"
	"github.com/arthur-debert/ariamove/pkg/metadata"
	"github.com/arthur-debert/ariamove/pkg/mover"
	"github.com/arthur-debert/ariamove/pkg/naming"
	"github.com/arthur-debert/ariamove/pkg/security"
	"github.com/arthur-debert/ariamove/pkg/shutdown"
	"github.com/arthur-debert/ariamove/pkg/stability"
	"github.com/rs/zerolog"
)

// Request is the typed configuration of one invocation. Roots are expected
// to be absolute and symlink-resolved; config.Validate produces them so.
type Request struct {
	StagingRoot     string
	DestinationRoot string

	DryRun              bool
	PreserveMetadata    bool
	PreservePermissions bool
	LocksEnabled        bool

	OnDuplicate naming.Policy

	// Workers bounds concurrent file copies in a directory move. Zero uses
	// the number of CPUs.
	Workers int

	StabilityInterval time.Duration
	StabilityAttempts int

	// RecencyWindow bounds how old an automatically chosen source may be.
	// Zero means unbounded.
	RecencyWindow time.Duration

	// Verify compares checksums after every copy, before the source is
	// removed.
	Verify bool
}

// Options contains the collaborators of an engine. Zero values select the
// real implementations.
type Options struct {
	// Filesystem operations interface for testing
	FS     filesystem.FS
	Locks  lock.DirectoryLock
	Logger zerolog.Logger
}

// Kind tags how a move completed
type Kind int

const (
	// Renamed means the entry was moved by a single rename
	Renamed Kind = iota
	// CopiedAndRenamed means the entry was copied through temp artifacts
	// and the source removed
	CopiedAndRenamed
	// Skipped means the destination existed under the Skip policy; the
	// source was left in place
	Skipped
	// DryRun means nothing was changed
	DryRun
)

func (k Kind) String() string {
	switch k {
	case Renamed:
		return "renamed"
	case CopiedAndRenamed:
		return "copied"
	case Skipped:
		return "skipped"
	case DryRun:
		return "dry-run"
	default:
		return "unknown"
	}
}

// Outcome is the result of a move
type Outcome struct {
	Kind Kind
	// Dest is the resolved destination path
	Dest string
}

// Engine performs relocations for one Request
type Engine struct {
	req    Request
	fs     filesystem.FS
	locks  lock.DirectoryLock
	mover  *mover.Mover
	copier *copier.Copier
	logger zerolog.Logger

	// roots holds both configured roots, cleaned and symlink-resolved
	roots []string
}

// New creates an engine for req
func New(req Request, opts Options) *Engine {
	logger := opts.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = logging.GetLogger("relocate")
	}

	fsys := opts.FS
	if fsys == nil {
		fsys = filesystem.NewOS()
	}

	locks := opts.Locks
	if locks == nil {
		locks = lock.New(req.LocksEnabled)
	}

	if req.Workers < 1 {
		req.Workers = runtime.NumCPU()
	}
	if req.StabilityInterval <= 0 {
		req.StabilityInterval = stability.DefaultInterval
	}
	if req.StabilityAttempts < 1 {
		req.StabilityAttempts = stability.DefaultAttempts
	}
	req.StagingRoot = filepath.Clean(req.StagingRoot)
	req.DestinationRoot = filepath.Clean(req.DestinationRoot)

	e := &Engine{
		req:    req,
		fs:     fsys,
		locks:  locks,
		mover:  mover.New(fsys),
		copier: copier.New(fsys),
		logger: logger,
	}
	for _, root := range []string{req.StagingRoot, req.DestinationRoot} {
		e.roots = append(e.roots, canonical(root))
	}
	return e
}

// Request returns the engine's normalized request
func (e *Engine) Request() Request {
	return e.req
}

// MoveEntry relocates src, a file or directory, and returns where it ended
// up. Under the Skip policy an existing destination is returned with the
// source left in place.
func (e *Engine) MoveEntry(ctx context.Context, src string) (string, error) {
	out, err := e.Move(ctx, src)
	if err != nil {
		return "", err
	}
	return out.Dest, nil
}

// Move is MoveEntry reporting how the move completed.
func (e *Engine) Move(ctx context.Context, src string) (Outcome, error) {
	done := logging.LogOperationStart(e.logger, "move_entry")
	defer done()

	src, info, err := e.inspect(ctx, src)
	if err != nil {
		return Outcome{}, err
	}
	if info.IsDir() {
		return e.moveDir(ctx, src)
	}
	return e.moveFile(ctx, src, info)
}

// inspect runs the checks shared by every entry point and returns the
// absolute source path with its lstat info. No filesystem state changes.
func (e *Engine) inspect(ctx context.Context, src string) (string, fs.FileInfo, error) {
	if shutdown.Requested(ctx) {
		return "", nil, errors.Interrupted()
	}

	abs, err := filepath.Abs(src)
	if err != nil {
		return "", nil, errors.WrapIO("resolve absolute path", src, err)
	}
	if e.isRoot(abs) {
		return "", nil, errors.BaseInvalid(abs)
	}
	if err := e.rejectLinkedAncestors(abs); err != nil {
		return "", nil, err
	}

	info, err := e.fs.Lstat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, errors.SourceNotFound(abs)
		}
		return "", nil, errors.WrapIO("inspect source", abs, err)
	}
	if err := security.RejectMode(abs, info.Mode()); err != nil {
		return "", nil, err
	}
	return abs, info, nil
}

// isRoot reports whether path names one of the configured roots. The final
// component is not followed, so a symlink pointing at a root is not a root.
func (e *Engine) isRoot(path string) bool {
	candidates := []string{filepath.Clean(path), canonical(path)}
	for _, root := range e.roots {
		for _, c := range candidates {
			if c == root {
				return true
			}
		}
	}
	return false
}

// rejectLinkedAncestors fails when a directory between the staging root and
// src is a symlink. Paths outside the staging root are not walked.
func (e *Engine) rejectLinkedAncestors(src string) error {
	root := e.req.StagingRoot
	rel, err := filepath.Rel(root, src)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil
	}

	for dir := filepath.Dir(src); len(dir) > len(root); dir = filepath.Dir(dir) {
		info, err := e.fs.Lstat(dir)
		if err != nil {
			continue
		}
		if info.Mode()&fs.ModeSymlink != 0 {
			return errors.SymlinkRejected(dir)
		}
	}
	return nil
}

// canonical cleans path and resolves symlinks in its parent.
func canonical(path string) string {
	path = filepath.Clean(path)
	parent, err := filepath.EvalSymlinks(filepath.Dir(path))
	if err != nil {
		return path
	}
	return filepath.Join(parent, filepath.Base(path))
}

// lockDir acquires dir's lock. A lock file that cannot be created fails the
// move with PERMISSION_DENIED before anything is touched.
func (e *Engine) lockDir(dir string) (*lock.Handle, error) {
	h, err := e.locks.Acquire(dir)
	if err != nil {
		e.logger.Debug().Err(err).Str("dir", dir).Msg("could not lock directory")
		return nil, err
	}
	return h, nil
}

func (e *Engine) release(h *lock.Handle) {
	if err := h.Release(); err != nil {
		e.logger.Debug().Err(err).Str("dir", h.Dir()).Msg("lock release failed")
	}
}

// lockDest creates and locks destDir. A destination that is also the
// source's parent is already held and is not locked twice.
func (e *Engine) lockDest(srcDir, destDir string) (*lock.Handle, error) {
	if err := e.fs.MkdirAll(destDir, 0o700); err != nil {
		return nil, errors.WrapIO("create destination directory", destDir, err)
	}
	if destDir == srcDir {
		return nil, nil
	}
	return e.lockDir(destDir)
}

// probeDryRun checks that destDir exists and is writable without creating
// anything in it.
func (e *Engine) probeDryRun(destDir string) error {
	info, err := e.fs.Stat(destDir)
	if err != nil || !info.IsDir() || info.Mode().Perm()&0o200 == 0 {
		return errors.PermissionDenied(destDir, "dry-run parent missing or readonly")
	}
	return nil
}

func (e *Engine) metadataOptions() metadata.Options {
	return metadata.Options{
		Full:        e.req.PreserveMetadata,
		Permissions: e.req.PreservePermissions,
	}
}

// dirReadable reports whether dir can be listed. Write-only destinations
// still accept moves; only read-back verification is skipped.
func (e *Engine) dirReadable(dir string) bool {
	f, err := e.fs.Open(dir)
	if err != nil {
		return false
	}
	defer func() {
		_ = f.Close()
	}()
	_, err = f.Readdirnames(1)
	return err == nil || !os.IsPermission(err)
}

// removeSource deletes the original after a successful copy.
func (e *Engine) removeSource(src string, tree bool) error {
	var err error
	if tree {
		err = e.fs.RemoveAll(src)
	} else {
		err = e.fs.Remove(src)
	}
	if err != nil && !os.IsNotExist(err) {
		return errors.WrapIO("remove source", src, err)
	}
	if err := filesystem.SyncDir(filepath.Dir(src)); err != nil {
		e.logger.Debug().Err(err).Str("dir", filepath.Dir(src)).Msg("directory sync after removal failed")
	}
	return nil
}
