// Package harness runs search scenarios end to end and compares their
// traces against golden files.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: four_items_first
//	description: "Culprit in the first half of every split"
//	items:
//	  - id: a
//	    enabled: true
//	  - id: b
//	    enabled: false
//	culprit: a            # answer as a user with this culprit would
//	answers: [true, true] # or: fixed answers, aborting when they run out
//	expect:
//	  status: completed
//	  culprit: a
//	  questions: 2
//	assertions:
//	  - type: trace_order
//	    tokens: ["+a", "-b", "ask", "-a"]
//
// # Trace
//
// Every status change the session makes and every question it asks is
// recorded in order, numbered by testutil.DeterministicClock. A run always
// checks two invariants on top of the scenario's own assertions: at each
// question exactly the asked subset is active among the candidates, and
// after the session every item is back in its starting status.
//
// # Assertion Types
//
//   - trace_contains: an event of the given kind (and item/status) exists
//   - trace_order: tokens appear in order, not necessarily adjacent
//   - trace_count: exactly N events of the given kind (and item)
//   - final_state: items end in the given statuses
//
// Each run uses an in-memory store, a fixed session ID and a stepping wall
// clock, so traces are byte-for-byte reproducible.
package harness
