// Package preflight provides readiness checks for the generative API and the
// filesystem paths that storyreel depends on.
//
// These checks run in two contexts:
//   - The daemon runs RunAll on start and reports the results in its status.
//     Failures are logged but do not stop the daemon.
//   - The CLI "storyreel status --check" command calls CheckGenAI to verify
//     the API key against the live endpoint.
package preflight
