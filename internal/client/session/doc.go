// Package session holds the per-view editing sessions of the CLI: one
// state machine each for journals, selfies and ratings.
//
// A session moves through a closed set of states:
//
//	Browsing -> Creating -> AwaitingPrediction -> Submitted
//	Browsing -> Selected -> Editing -> Resubmitting | Deleting -> Submitted
//
// Every mutation re-fetches the whole list from the server instead of
// patching the local copy. Scheduled tasks (the clock while creating, face
// detection while the camera is on) are stopped on every transition that
// leaves the mode that started them. At most one prediction runs per
// session; a newer request supersedes an older one.
package session
