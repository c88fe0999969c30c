package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"storyreel/internal/daemonctl"
	"storyreel/internal/ipc"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	var startLogLevel string
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the storyreel daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}
			result, err := daemonctl.EnsureStarted(ctx.socketPath(), exe, daemonLaunchOptions(ctx, startLogLevel), 10*time.Second)
			if err != nil {
				return err
			}
			if result.Launched {
				fmt.Fprintln(stdout, "Daemon not running, launching...")
			}
			switch result.State {
			case daemonctl.StartStateStarted:
				fmt.Fprintln(stdout, "Daemon started")
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon already running")
			default:
				fmt.Fprintln(stdout, result.Message)
			}
			return nil
		},
	}
	startCmd.Flags().StringVar(&startLogLevel, "log-level", "", "Override the configured log level for the launched daemon")

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the storyreel daemon and end its process",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.StopAndTerminate(ctx.socketPath(), ctx.configValue(), 5*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if result.ForcedKill && result.PID > 0 {
				fmt.Fprintf(stdout, "Daemon did not exit in time; killed pid %d\n", result.PID)
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	var restartLogLevel string
	restartCmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart the storyreel daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}
			if _, err := daemonctl.StopAndTerminate(ctx.socketPath(), ctx.configValue(), 5*time.Second); err == nil {
				fmt.Fprintln(stdout, "Daemon stopped")
			} else if !errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				return err
			}
			if _, err := daemonctl.EnsureStarted(ctx.socketPath(), exe, daemonLaunchOptions(ctx, restartLogLevel), 10*time.Second); err != nil {
				return err
			}
			fmt.Fprintln(stdout, "Daemon restarted")
			return nil
		},
	}
	restartCmd.Flags().StringVar(&restartLogLevel, "log-level", "", "Override the configured log level for the launched daemon")

	var liveCheck bool
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, configuration and job status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			snap, err := daemonctl.BuildStatusSnapshot(cmd.Context(), ctx.socketPath(), cfg, liveCheck)
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			fmt.Fprint(stdout, renderStatus(snap, shouldColorize(stdout)))
			return nil
		},
	}
	statusCmd.Flags().BoolVar(&liveCheck, "check", false, "Contact the generative API to verify credentials")

	pruneCmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove finished jobs and expired log files now",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Prune()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d finished jobs and %d log files\n", resp.JobsRemoved, resp.LogsRemoved)
				return nil
			})
		},
	}

	return []*cobra.Command{startCmd, stopCmd, restartCmd, statusCmd, pruneCmd}
}

func renderStatus(snap daemonctl.Snapshot, colorize bool) string {
	var b strings.Builder
	line := func(s string) { b.WriteString(s + "\n") }

	for _, l := range renderSectionHeader("Daemon", colorize) {
		line(l)
	}
	status := snap.Status.Status
	switch {
	case !snap.Reachable:
		line(renderStatusLine("storyreeld", statusWarn, "Not running (run `storyreel start`)", colorize))
	case status.Running:
		line(renderStatusLine("storyreeld", statusOK, "Running (pid "+strconv.Itoa(status.PID)+")", colorize))
	default:
		line(renderStatusLine("storyreeld", statusWarn, "Idle (process up, workflow stopped)", colorize))
	}
	if snap.Reachable {
		api := "Not listening"
		kind := statusWarn
		if snap.Status.APIAddr != "" {
			api, kind = "http://"+snap.Status.APIAddr+"/v1/api", statusOK
		}
		line(renderStatusLine("HTTP API", kind, api, colorize))
		if status.Workflow.LastError != "" {
			line(renderStatusLine("Last error", statusError, status.Workflow.LastError, colorize))
		}
		if db := status.Database; db != nil {
			kind := statusOK
			detail := fmt.Sprintf("schema v%d at %s", db.SchemaVersion, db.DBPath)
			if !db.IntegrityCheck {
				kind, detail = statusError, strings.TrimSpace("integrity check failed "+db.Error)
			}
			line(renderStatusLine("Database", kind, detail, colorize))
		}
	}
	line("")

	for _, l := range renderSectionHeader("Checks", colorize) {
		line(l)
	}
	for _, check := range snap.Checks {
		kind := statusOK
		if !check.Passed {
			kind = statusError
		}
		line(renderStatusLine(check.Name, kind, check.Detail, colorize))
	}
	line("")

	for _, l := range renderSectionHeader("Jobs", colorize) {
		line(l)
	}
	jobs := snap.Jobs
	if jobs.Total == 0 {
		line(fmt.Sprintf("%d projects, no jobs", jobs.Projects))
		return b.String()
	}
	b.WriteString(renderTable(
		[]tableColumn{{Header: "Status"}, {Header: "Count", Right: true}},
		[][]string{
			{"pending", strconv.Itoa(jobs.Pending)},
			{"running", strconv.Itoa(jobs.Running)},
			{"completed", strconv.Itoa(jobs.Completed)},
			{"failed", strconv.Itoa(jobs.Failed)},
		},
	))
	line(fmt.Sprintf("%d projects, %d jobs", jobs.Projects, jobs.Total))
	return b.String()
}

func daemonExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	return exe, nil
}

func daemonLaunchOptions(ctx *commandContext, logLevel string) daemonctl.LaunchOptions {
	opts := daemonctl.LaunchOptions{
		SocketPath: ctx.socketPath(),
		ConfigPath: ctx.configPath(),
		LogLevel:   strings.TrimSpace(logLevel),
	}
	return opts
}
