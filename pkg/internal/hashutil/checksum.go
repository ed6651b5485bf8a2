package hashutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// CalculateFileChecksum calculates the SHA256 checksum of a file
func CalculateFileChecksum(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = file.Close()
	}()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return fmt.Sprintf("sha256:%x", hash.Sum(nil)), nil
}

// SameContent reports whether two files hash to the same checksum.
func SameContent(a, b string) (bool, error) {
	sumA, err := CalculateFileChecksum(a)
	if err != nil {
		return false, err
	}
	sumB, err := CalculateFileChecksum(b)
	if err != nil {
		return false, err
	}
	return sumA == sumB, nil
}

// NameKey returns a short stable key for a file name. Temp artifacts embed it
// so a later run can tell which destination an orphan was headed for.
func NameKey(name string) string {
	sum := sha256.Sum256([]byte(name))
	return hex.EncodeToString(sum[:8])
}
