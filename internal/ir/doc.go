// Package ir provides the shared data types for isolate.
//
// This package contains type definitions and pure helpers only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - ItemSet order is the registry's enumeration order and is never re-sorted
//   - Splits always use floor(n/2) as the boundary, so odd sets put the
//     smaller half first
//   - All JSON tags use snake_case
//   - Snapshot identity is content-addressed (canonical JSON + SHA-256)
package ir
