package copier

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync/atomic"
	"time"

	"github.com/arthur-debert/ariamove/pkg/errors"
	"github.com/arthur-debert/ariamove/pkg/filesystem"
	"github.com/arthur-debert/ariamove/pkg/internal/hashutil"
	"github.com/arthur-debert/ariamove/pkg/logging"
	"github.com/arthur-debert/ariamove/pkg/metadata"
	"github.com/arthur-debert/ariamove/pkg/naming"
	"github.com/arthur-debert/ariamove/pkg/shutdown"
)

// chunkSize bounds how much is copied between cancellation checks.
const chunkSize int64 = 64 * 1024 * 1024

// seq numbers artifacts created by this process.
var seq atomic.Uint64

// Artifact is a temp copy found on disk
type Artifact struct {
	Path string
	Name naming.TempName
	Size int64
}

// Result describes a completed copy
type Result struct {
	// Dest is the promoted destination path
	Dest string
	// Artifact is the temp path the bytes went through
	Artifact string
	// ResumedFrom is the offset adopted from an earlier artifact, 0 for a
	// fresh copy
	ResumedFrom int64
	// Copied is the number of bytes written by this call
	Copied int64
}

// Options tunes a single copy
type Options struct {
	// Metadata is applied to the artifact before promotion
	Metadata metadata.Options
}

// Copier performs resumable copies through a filesystem seam
type Copier struct {
	fs    filesystem.FS
	pid   int
	now   func() time.Time
	alive func(pid int) bool
}

// New creates a Copier. A nil fs uses the OS filesystem.
func New(fsys filesystem.FS) *Copier {
	if fsys == nil {
		fsys = filesystem.NewOS()
	}
	return &Copier{
		fs:    fsys,
		pid:   os.Getpid(),
		now:   time.Now,
		alive: ProcessAlive,
	}
}

// ArtifactPath returns a fresh temp artifact path colocated with dest.
func (c *Copier) ArtifactPath(dest string) string {
	name := naming.TempName{
		PID:     c.pid,
		Created: c.now(),
		Seq:     seq.Add(1),
		Key:     hashutil.NameKey(filepath.Base(dest)),
	}
	return filepath.Join(filepath.Dir(dest), name.String())
}

// Artifacts lists the temp artifacts in dest's directory headed for dest.
func (c *Copier) Artifacts(dest string) ([]Artifact, error) {
	dir := filepath.Dir(dest)
	key := hashutil.NameKey(filepath.Base(dest))

	entries, err := c.fs.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		if os.IsPermission(err) {
			// Write-only directories cannot be listed; there is nothing to adopt.
			logger := logging.GetLogger("copier")
			logger.Debug().Str("dir", dir).Msg("directory not readable, skipping artifact scan")
			return nil, nil
		}
		return nil, errors.WrapIO("list artifacts", dir, err)
	}

	var out []Artifact
	for _, e := range entries {
		tn, ok := naming.ParseTempName(e.Name())
		if !ok || tn.Key != key || !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, Artifact{Path: filepath.Join(dir, e.Name()), Name: tn, Size: info.Size()})
	}
	return out, nil
}

// ownedElsewhere reports whether a live process other than this one created a.
func (c *Copier) ownedElsewhere(a Artifact) bool {
	return a.Name.PID != c.pid && c.alive(a.Name.PID)
}

// FindResumable returns the best artifact to continue a copy of srcSize
// bytes into dest: the largest one no bigger than the source whose owner is
// this process or no longer running. nil means start fresh.
func (c *Copier) FindResumable(dest string, srcSize int64) (*Artifact, error) {
	arts, err := c.Artifacts(dest)
	if err != nil {
		return nil, err
	}

	var candidates []Artifact
	for _, a := range arts {
		if a.Size > srcSize || c.ownedElsewhere(a) {
			continue
		}
		candidates = append(candidates, a)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Size != candidates[j].Size {
			return candidates[i].Size > candidates[j].Size
		}
		return candidates[i].Name.Created.After(candidates[j].Name.Created)
	})
	return &candidates[0], nil
}

// DiscardStale removes artifacts headed for dest that no live process owns.
// Failures are logged, never returned.
func (c *Copier) DiscardStale(dest string) int {
	logger := logging.GetLogger("copier")

	arts, err := c.Artifacts(dest)
	if err != nil {
		logger.Debug().Err(err).Str("dest", dest).Msg("could not list stale artifacts")
		return 0
	}

	removed := 0
	for _, a := range arts {
		if c.ownedElsewhere(a) {
			continue
		}
		if err := c.fs.Remove(a.Path); err != nil && !os.IsNotExist(err) {
			logger.Warn().Err(err).Str("artifact", a.Path).Msg("could not remove stale artifact")
			continue
		}
		removed++
		logger.Debug().Str("artifact", a.Path).Msg("removed stale artifact")
	}
	return removed
}

// CopyWithResume copies src into dest through a temp artifact, adopting a
// matching earlier artifact when one exists. On success the artifact has
// been promoted to dest, replacing any previous file there.
func (c *Copier) CopyWithResume(ctx context.Context, src, dest string, opts Options) (Result, error) {
	logger := logging.GetLogger("copier")
	res := Result{Dest: dest}

	srcInfo, err := c.fs.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return res, errors.SourceNotFound(src)
		}
		return res, errors.WrapIO("stat source", src, err)
	}
	size := srcInfo.Size()

	art, err := c.FindResumable(dest, size)
	if err != nil {
		return res, err
	}

	var out *os.File
	if art != nil {
		res.Artifact = art.Path
		res.ResumedFrom = art.Size
		out, err = c.fs.OpenFile(art.Path, os.O_WRONLY, 0)
		if err != nil {
			return res, errors.WrapIO("open artifact", art.Path, err)
		}
		logger.Info().
			Str("artifact", art.Path).
			Int64("offset", art.Size).
			Int64("size", size).
			Msg("resuming partial copy")
	} else {
		res.Artifact = c.ArtifactPath(dest)
		out, err = c.fs.OpenFile(res.Artifact, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0666)
		if err != nil {
			return res, errors.WrapIO("create artifact", res.Artifact, err)
		}
	}

	copied, err := c.fill(ctx, src, out, res.ResumedFrom, res.Artifact)
	res.Copied = copied
	if err == nil {
		if serr := out.Sync(); serr != nil {
			err = errors.WrapIO("fsync artifact", res.Artifact, serr)
		}
	}
	if cerr := out.Close(); err == nil && cerr != nil {
		err = errors.WrapIO("close artifact", res.Artifact, cerr)
	}
	if err != nil {
		return res, err
	}

	if total := res.ResumedFrom + copied; total != size {
		return res, errors.Newf(errors.ErrIO, "copied %d bytes of %s but it is %d bytes; source changed during copy", total, src, size).
			WithDetails(map[string]interface{}{"path": src, "artifact": res.Artifact})
	}

	if err := metadata.Apply(src, srcInfo, res.Artifact, opts.Metadata); err != nil {
		logger.Debug().Err(err).Str("artifact", res.Artifact).Msg("metadata preservation incomplete")
	}

	if err := c.promote(res.Artifact, dest); err != nil {
		return res, err
	}

	logger.Debug().
		Str("src", src).
		Str("dest", dest).
		Int64("copied", copied).
		Int64("resumedFrom", res.ResumedFrom).
		Msg("copy promoted")
	return res, nil
}

// fill copies src from offset to EOF into out at the same offset, checking
// for shutdown between chunks.
func (c *Copier) fill(ctx context.Context, src string, out *os.File, offset int64, artifact string) (int64, error) {
	in, err := c.fs.Open(src)
	if err != nil {
		return 0, errors.WrapIO("open source", src, err)
	}
	defer func() {
		_ = in.Close()
	}()

	if err := out.Truncate(offset); err != nil {
		return 0, errors.WrapIO("truncate artifact", artifact, err)
	}
	if _, err := in.Seek(offset, io.SeekStart); err != nil {
		return 0, errors.WrapIO("seek source", src, err)
	}
	if _, err := out.Seek(offset, io.SeekStart); err != nil {
		return 0, errors.WrapIO("seek artifact", artifact, err)
	}

	var total int64
	for {
		if shutdown.Requested(ctx) {
			return total, errors.Interrupted().WithDetail("path", artifact)
		}
		n, err := io.CopyN(out, in, chunkSize)
		total += n
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, errors.WrapIO("copy", artifact, err).WithDetail("source", src)
		}
	}
}

// promote renames the artifact onto dest and syncs the directory.
func (c *Copier) promote(artifact, dest string) error {
	if runtime.GOOS == "windows" {
		if err := c.fs.Remove(dest); err != nil && !os.IsNotExist(err) {
			return errors.WrapIO("remove existing destination", dest, err)
		}
	}
	if err := c.fs.Rename(artifact, dest); err != nil {
		return errors.WrapIO("promote artifact", dest, err).WithDetail("artifact", artifact)
	}
	if err := filesystem.SyncDir(filepath.Dir(dest)); err != nil {
		return errors.WrapIO("fsync destination directory", filepath.Dir(dest), err)
	}
	return nil
}
