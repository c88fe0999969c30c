package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"storyreel/internal/ipc"
	"storyreel/internal/store"
)

func newGenerateCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newSubmitCommand(ctx, store.JobBreakdown, "shots <project-id> <scene-id>/<beat-id>", "Break a beat down into a shot list"),
		newSubmitCommand(ctx, store.JobImage, "image <project-id> <scene-id>/<beat-id>/<shot-id>", "Generate a still image for a shot"),
		newSubmitCommand(ctx, store.JobVideo, "video <project-id> <scene-id>/<beat-id>/<shot-id>", "Generate a video clip from a shot's still"),
	}
}

func newSubmitCommand(ctx *commandContext, kind store.JobKind, use, short string) *cobra.Command {
	var (
		wait    bool
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Submit(args[0], string(kind), args[1])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Queued %s job #%d for %s\n", kind, resp.Job.ID, args[1])
				if !wait {
					return nil
				}
				return waitForJob(cmd, client, out, resp.Job, timeout)
			})
		},
	}
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Wait for the job to finish")
	cmd.Flags().DurationVar(&timeout, "timeout", 20*time.Minute, "Give up waiting after this long")
	return cmd
}

// waitForJob polls the job list until the job is terminal, then prints the
// outcome.
func waitForJob(cmd *cobra.Command, client *ipc.Client, out io.Writer, job *store.Job, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		resp, err := client.JobList(job.ProjectID, nil)
		if err != nil {
			return err
		}
		for _, candidate := range resp.Jobs {
			if candidate.ID != job.ID || !candidate.Status.IsTerminal() {
				continue
			}
			if candidate.Status == store.JobFailed {
				return fmt.Errorf("job #%d failed: %s", candidate.ID, candidate.ErrorMessage)
			}
			fmt.Fprintf(out, "Job #%d completed\n", candidate.ID)
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("job #%d still running after %s", job.ID, timeout)
		}
		select {
		case <-cmd.Context().Done():
			return cmd.Context().Err()
		case <-time.After(time.Second):
		}
	}
}
