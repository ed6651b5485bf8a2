//go:build windows

package filesystem

// Directory handles cannot be flushed portably on Windows.
const dirSyncSupported = false
