// Package watch turns the removal of a session lock file into the
// "surface closed" signal.
//
// A running search holds a lock file containing its session ID. Removing
// or renaming that file, from any process, means the user walked away
// from the search and the pre-search state should come back.
package watch
