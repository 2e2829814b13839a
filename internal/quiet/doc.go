// Package quiet implements quiet mode: every candidate that is not on the
// whitelist is disabled in one step and brought back in the next.
package quiet
