// Package copier implements crash-safe copies through a temp artifact that
// lives next to its destination.
//
// An artifact is named ".ariamove.tmp.<pid>.<millis>.<seq>.<key>", where key
// is derived from the destination's base name. The pid and sequence keep
// concurrent writers apart; the key lets a later run find an orphan headed
// for the same destination and append only the missing bytes.
//
// Lifecycle:
//
//	create (or adopt) artifact -> copy remaining bytes -> fsync -> rename
//	into place -> fsync directory
//
// A failure at any step before the rename leaves the artifact where it is
// for a later attempt or the reconciler.
package copier
