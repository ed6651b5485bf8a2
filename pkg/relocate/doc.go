// Package relocate moves one staged entry into the destination root.
//
// A move is rename-first: when the staging and destination roots share a
// filesystem the entry is renamed and the destination directory synced.
// Otherwise files go through the resumable copier and directories are
// rebuilt at the destination, their files copied by a bounded worker pool,
// before the source is removed.
//
// Every move holds the lock of the source's parent directory and then the
// lock of the destination directory, in that order, so concurrent
// invocations over the same directories serialize while moves over
// disjoint directories run in parallel.
//
// Failure leaves the source in place. A partially written destination is
// either a temp artifact the next copy resumes from or a partial directory
// the reconciler removes.
package relocate
