// Package store persists projects, their activity logs, and generation jobs in
// SQLite.
//
// Projects are stored as a JSON snapshot of the full script tree alongside a
// few denormalized columns (title, status, scene count) used by the dashboard.
// The activity log is append-only with a per-project sequence number so live
// viewers can resume from the last entry they saw. Jobs record each request
// sent to the generative API; a partial unique index keeps at most one active
// job per project target.
//
// Schema changes bump the version in schema.go; users clear the database to
// adopt the new schema.
package store
