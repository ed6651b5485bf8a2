//go:build !windows

package filesystem

const dirSyncSupported = true
