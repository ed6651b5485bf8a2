// Package filesystem provides the filesystem seam used by the relocation
// engine.
//
// Every mutation the movers perform (rename, remove, mkdir, open for write)
// goes through the FS interface so tests can inject failures such as a
// cross-device rename without needing two real filesystems.
package filesystem
