package filesystem

import "os"

// SyncDir flushes a directory's entries to durable storage so a rename into
// it survives a crash. It is a no-op where directories cannot be synced.
func SyncDir(dir string) error {
	if !dirSyncSupported {
		return nil
	}
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()
	return f.Sync()
}
