// Package logs reads daemon logs for the CLI.
//
// Tail reads the JSON log file with bounded memory, supports negative offsets
// for "last N lines", and waits for new lines in follow mode. ParseLine turns
// a JSON line back into an Entry for display. StreamClient reads the live
// stream hub and project activity logs through the HTTP API.
package logs
