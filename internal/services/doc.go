// Package services defines shared utilities consumed by the workspace, the job
// workflow, and the generative API client.
//
// Key responsibilities:
//   - Context helpers that stamp project IDs, job IDs, stage names, and
//     correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent log severities on the project activity log.
//
// Use these helpers when wiring new pipeline steps so operational behaviour
// (error reporting, observability) stays uniform across the service.
package services
