// Package daemon coordinates the long-running storyreel process.
//
// It wires configuration, the project store, the workspace, the job workflow
// and the HTTP API into a single lifecycle with flock-based locking to prevent
// multiple instances. Jobs left running by a previous process are marked
// failed on start. A cron schedule prunes finished jobs and expired log files.
//
// Keep orchestration logic here: generation steps live in the workspace and
// job execution in the workflow package, while the daemon focuses on startup,
// shutdown and the operations exposed over IPC.
package daemon
