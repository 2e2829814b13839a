// Package engine implements isolate's bisection search.
//
// The engine finds the single item most likely responsible for a problem
// among N candidates using at most ceil(log2 N) yes/no questions.
//
// ARCHITECTURE:
//
// Single Logical Thread:
// A search is a sequential procedure whose only suspension point is
// Feedback.Ask, which blocks until a human answers. There are no parallel
// branches and searches are not re-entrant.
//
// Search Step:
//  1. Split the candidates at floor(n/2)
//  2. Activate the first half, deactivate the second half
//  3. Ask whether the problem persists with only the first half active
//  4. Deactivate the first half regardless of the answer
//  5. Continue with the first half on "yes", the second half on "no"
//
// Every registry call returns before the question is asked, so the human
// never answers against stale state.
//
// State Capture and Restoration:
// CaptureSnapshot persists every candidate's status before the first
// toggle. Restore puts it back after the search, best effort, reporting
// per-item failures instead of failing. The Searcher never restores state
// itself; Session wires capture, search and restore together, and
// RestorePending lets an independent trigger (a closed surface) restore an
// abandoned search.
//
// Resume:
// Each answered step is journaled under a content-addressed step ID. A
// resumed session replays journaled answers for matching questions and
// only asks the human about the rest.
package engine
