// Package testutil provides utilities for testing ariamove components.
//
// Key components:
//   - Tree helpers: WriteTree / ReadTree build and snapshot directory
//     fixtures on the real filesystem
//   - FaultFS: a filesystem.FS wrapper that injects rename failures, used to
//     drive the copy fallback on a single filesystem
//
// All fixtures live under t.TempDir() so every test is isolated and cleaned
// up automatically.
package testutil
