// Package ipc exposes the daemon over JSON-RPC on a Unix socket and ships the
// matching client used by the CLI.
//
// The server wraps daemon operations one method per request type; the client
// mirrors them. Request and response types are plain structs so the wire
// format stays stable as the daemon grows.
package ipc
