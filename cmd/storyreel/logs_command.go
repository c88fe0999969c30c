package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"storyreel/internal/ipc"
	"storyreel/internal/logging"
	"storyreel/internal/logs"
	"storyreel/internal/logstream"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		follow    bool
		lines     int
		component string
		projectID string
	)
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Display daemon logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				apiClient, err := streamClient(ctx, client)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				printed, err := logstream.Stream(cmd.Context(), apiClient, client,
					logstream.Options{
						Lines:   lines,
						Follow:  follow,
						Filters: logstream.Filters{Component: component, ProjectID: projectID},
					},
					func(evt logging.LogEvent) { fmt.Fprintln(out, formatLogEvent(evt, colorize)) },
					func(line string) { fmt.Fprintln(out, line) },
				)
				if err != nil {
					return err
				}
				if !printed && !follow {
					fmt.Fprintln(out, "No log entries available")
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow log output")
	cmd.Flags().IntVarP(&lines, "lines", "n", 20, "Number of lines to show")
	cmd.Flags().StringVar(&component, "component", "", "Only events from this component")
	cmd.Flags().StringVarP(&projectID, "project", "p", "", "Only events for this project")
	return cmd
}

// streamClient targets the address the daemon's HTTP API actually bound, so
// ephemeral ports work. It returns nil when the API is not listening.
func streamClient(ctx *commandContext, client *ipc.Client) (*logs.StreamClient, error) {
	status, err := client.Status()
	if err != nil {
		return nil, err
	}
	token := ""
	if cfg := ctx.configValue(); cfg != nil {
		token = cfg.Paths.APIToken
	}
	return logs.NewStreamClient(status.APIAddr, token)
}

func formatLogEvent(evt logging.LogEvent, colorize bool) string {
	entry := logs.Entry{
		Time:      evt.Timestamp,
		Level:     evt.Level,
		Message:   evt.Message,
		Component: evt.Component,
		ProjectID: evt.ProjectID,
		JobID:     evt.JobID,
		Stage:     evt.Stage,
		Fields:    evt.Fields,
	}
	color := ""
	switch strings.ToLower(evt.Level) {
	case "warn", "warning":
		color = ansiYellow
	case "error":
		color = ansiRed
	}
	return paint(entry.Line(), color, colorize)
}
