// Package feedback implements the channels through which a search asks
// whether the problem persists.
//
// Prompt renders an interactive confirm on a terminal, Line reads y/n
// answers from any reader, Scripted replays a fixed answer list and Oracle
// answers from a known culprit. Every channel satisfies engine.Feedback.
package feedback
