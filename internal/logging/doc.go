// Package logging assembles structured slog loggers and formatting helpers used
// across storyreel services.
//
// It owns the console/JSON handlers, level and output plumbing, and the
// context helpers that tag log lines with project IDs, job IDs, stages and
// correlation IDs. StreamHub keeps a bounded tail of recent events so the CLI
// and API can follow daemon output live.
package logging
