// Package daemonctl launches, stops, and inspects the storyreel daemon from
// the CLI side of the IPC socket.
package daemonctl
