// Package workflow runs queued generation jobs.
//
// Surfaces enqueue analyze, breakdown, image and video jobs through the
// Manager. A pool of workers claims the oldest pending job, runs it through
// the workspace while refreshing its heartbeat, and records the outcome.
// Jobs for different shots run concurrently; a failing job is marked failed
// and the rest continue. Running jobs whose heartbeat lapses are returned to
// pending on the poll loop.
package workflow
