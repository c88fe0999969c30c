// Package logstream prints daemon logs for the CLI. It reads the HTTP API's
// in-memory event stream when the API is reachable and falls back to tailing
// the JSON log file over IPC otherwise.
package logstream
