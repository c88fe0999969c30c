// Command storyreel is the CLI for the storyreel daemon.
//
// It talks to a running daemon over the IPC socket for project, job and log
// commands, launches and stops the daemon process, and manages the
// configuration file. Daemon log streaming prefers the HTTP API and falls back
// to tailing the log file over IPC.
package main
