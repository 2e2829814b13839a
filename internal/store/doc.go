// Package store provides SQLite-backed durable state for isolate.
//
// The store holds:
//   - The pending snapshot: two JSON lists of item IDs under the keys
//     last_known_active and last_known_inactive, plus the owning session
//   - Sessions: one row per search, with status and culprit
//   - Steps: the journal of answered questions, used to resume a session
//   - Whitelist: items that quiet mode keeps active
//   - Quiet mode flags
//
// # Critical Patterns
//
// Single Pending Snapshot:
//   - At most one snapshot is pending; SaveSnapshot refuses a second one
//     with ErrSnapshotPending
//   - A snapshot is written in one transaction, so a crash never leaves
//     half a partition behind
//
// Idempotent Journal:
//   - Steps are keyed by (session_id, step_index); re-recording an
//     identical step is a no-op, a different one replaces the tail of the
//     journal from that index on
//
// Deterministic Query Results:
//   - List queries always ORDER BY an explicit column
//
// # Database Configuration
//
//   - WAL mode: readers (status, trace) never block the search
//   - synchronous=FULL: a snapshot must survive power loss, since the
//     process waiting on a human may be gone by the time it is restored
//   - busy_timeout=5000: a restore triggered from a second process waits
//     for the lock instead of failing
//   - foreign_keys=ON: steps cannot outlive their session
package store
