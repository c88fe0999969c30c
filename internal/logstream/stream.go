package logstream

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storyreel/internal/ipc"
	"storyreel/internal/logging"
	"storyreel/internal/logs"
)

// TailClient captures the IPC log tail contract used for fallback streaming.
type TailClient interface {
	LogTail(req ipc.LogTailRequest) (*ipc.LogTailResponse, error)
}

// Filters narrows the stream. Both paths apply them: the API server-side,
// the file fallback by decoding each JSON line.
type Filters struct {
	Component string
	ProjectID string
}

func (f Filters) empty() bool {
	return strings.TrimSpace(f.Component) == "" && strings.TrimSpace(f.ProjectID) == ""
}

func (f Filters) matches(entry logs.Entry) bool {
	if c := strings.TrimSpace(f.Component); c != "" && !strings.EqualFold(entry.Component, c) {
		return false
	}
	if p := strings.TrimSpace(f.ProjectID); p != "" && entry.ProjectID != p {
		return false
	}
	return true
}

// Options controls stream behavior.
type Options struct {
	Lines   int
	Follow  bool
	Filters Filters
}

// Stream emits events from the API when available, falling back to IPC
// tailing. It returns true when at least one line or event was emitted.
func Stream(
	ctx context.Context,
	apiClient *logs.StreamClient,
	fallback TailClient,
	opts Options,
	onEvent func(logging.LogEvent),
	onLine func(string),
) (bool, error) {
	if apiClient != nil {
		printed, err := streamAPI(ctx, apiClient, opts, onEvent)
		if err == nil || !logs.IsAPIUnavailable(err) {
			return printed, err
		}
	}
	if fallback == nil {
		return false, logs.ErrAPIUnavailable
	}
	return streamFile(ctx, fallback, opts, onLine)
}

func streamAPI(ctx context.Context, client *logs.StreamClient, opts Options, onEvent func(logging.LogEvent)) (bool, error) {
	query := logs.StreamQuery{
		Limit:     opts.Lines,
		Tail:      true,
		Component: opts.Filters.Component,
		ProjectID: opts.Filters.ProjectID,
	}
	if query.Limit <= 0 {
		query.Limit = 200
	}

	printed := false
	for {
		resp, err := client.Fetch(ctx, query)
		if err != nil {
			if printed && ctx.Err() != nil {
				return printed, nil
			}
			return printed, err
		}
		for _, evt := range resp.Events {
			if onEvent != nil {
				onEvent(evt)
			}
			printed = true
		}
		if !opts.Follow {
			return printed, nil
		}
		query.Since = resp.Next
		query.Limit = 200
		query.Tail = false
		query.Follow = true
	}
}

func streamFile(ctx context.Context, client TailClient, opts Options, onLine func(string)) (bool, error) {
	limit := opts.Lines
	if limit < 0 {
		limit = 0
	}
	offset := int64(-1)
	if limit == 0 {
		offset = 0
	}

	printed := false
	for {
		resp, err := client.LogTail(ipc.LogTailRequest{
			Offset:     offset,
			Limit:      limit,
			Follow:     opts.Follow,
			WaitMillis: 1000,
		})
		if err != nil {
			return printed, fmt.Errorf("tail logs: %w", err)
		}
		if resp == nil {
			return printed, errors.New("log tail response missing")
		}
		for _, line := range resp.Lines {
			rendered, ok := renderLine(line, opts.Filters)
			if !ok {
				continue
			}
			if onLine != nil {
				onLine(rendered)
			}
			printed = true
		}
		offset = resp.Offset
		limit = 0
		if !opts.Follow {
			return printed, nil
		}
		select {
		case <-ctx.Done():
			return printed, nil
		default:
		}
	}
}

// renderLine formats a JSON log line. Lines that are not JSON pass through
// unchanged unless a filter is set.
func renderLine(line string, filters Filters) (string, bool) {
	entry, ok := logs.ParseLine(line)
	if !ok {
		return line, filters.empty()
	}
	if !filters.matches(entry) {
		return "", false
	}
	return entry.Line(), true
}
