// Package workspace owns the open project trees and the requests that grow
// them: text analysis, beat breakdowns, stills and clips.
//
// Every change is computed as a pure replacement on the latest tree and
// swapped in under a short lock that is never held across a generative API
// call, then persisted. Each shot (and each beat, for breakdowns) admits one
// outstanding request; a second one fails with ErrBusy. Failures are recorded
// in the project's activity log and leave the tree untouched.
package workspace
