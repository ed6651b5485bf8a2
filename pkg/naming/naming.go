// Package naming computes collision-free destination names.
//
// Resolve only looks at the current filesystem state; callers hold the
// destination directory lock so the answer stays valid until they use it.
package naming

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// MaxNameBytes is the conservative per-component ceiling applied to
// generated names.
const MaxNameBytes = 255

// Resolve returns the destination path for name inside dstDir.
//
// Skip and Overwrite return dstDir/name whether or not it exists; the caller
// decides the effect. RenameWithSuffix returns the first free candidate of
// name, "<stem> (2)<ext>", "<stem> (3)<ext>", ... with every candidate
// truncated to MaxNameBytes. Engine temp names are returned unmodified.
func Resolve(dstDir, name string, policy Policy) string {
	candidate := filepath.Join(dstDir, name)
	if IsTempName(name) || policy != RenameWithSuffix {
		return candidate
	}

	stem, ext := SplitExt(name)
	candidate = filepath.Join(dstDir, Fit(stem, "", ext))
	if !exists(candidate) {
		return candidate
	}

	for n := 2; ; n++ {
		candidate = filepath.Join(dstDir, Fit(stem, fmt.Sprintf(" (%d)", n), ext))
		if !exists(candidate) {
			return candidate
		}
	}
}

// ResolveDir is Resolve for directories: the whole name is the stem, so
// "photos.2024" collides into "photos.2024 (2)".
func ResolveDir(dstDir, name string, policy Policy) string {
	candidate := filepath.Join(dstDir, name)
	if IsTempName(name) || policy != RenameWithSuffix {
		return candidate
	}

	candidate = filepath.Join(dstDir, Fit(name, "", ""))
	for n := 2; exists(candidate); n++ {
		candidate = filepath.Join(dstDir, Fit(name, fmt.Sprintf(" (%d)", n), ""))
	}
	return candidate
}

// SplitExt splits name at its last dot. A leading dot alone does not start
// an extension, so ".env" has no extension and "archive.tar.gz" splits into
// "archive.tar" and ".gz".
func SplitExt(name string) (stem, ext string) {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 || i == len(name)-1 {
		return name, ""
	}
	return name[:i], name[i:]
}

// Fit joins stem, suffix and ext, shortening stem so the result stays within
// MaxNameBytes. Cuts land on normalization boundaries so a base character is
// never separated from its combining marks.
func Fit(stem, suffix, ext string) string {
	if len(stem)+len(suffix)+len(ext) <= MaxNameBytes {
		return stem + suffix + ext
	}

	budget := MaxNameBytes - len(suffix) - len(ext)
	if budget < 1 {
		// The extension alone is too long to preserve.
		return truncate(stem+suffix+ext, MaxNameBytes)
	}
	return truncate(stem, budget) + suffix + ext
}

// truncate returns the longest prefix of s no longer than limit bytes that
// ends on a normalization boundary.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	pos := 0
	for pos < len(s) {
		n := norm.NFC.NextBoundaryInString(s[pos:], true)
		if n <= 0 {
			n = len(s) - pos
		}
		if pos+n > limit {
			break
		}
		pos += n
	}
	return s[:pos]
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
