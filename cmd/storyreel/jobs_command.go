package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"storyreel/internal/ipc"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var (
		projectID string
		statuses  []string
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List generation jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.JobList(projectID, statuses)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp.Jobs)
				}
				out := cmd.OutOrStdout()
				if len(resp.Jobs) == 0 {
					fmt.Fprintln(out, "No jobs")
					return nil
				}
				colorize := shouldColorize(out)
				rows := make([][]string, 0, len(resp.Jobs))
				for _, job := range resp.Jobs {
					rows = append(rows, []string{
						strconv.FormatInt(job.ID, 10),
						job.ProjectID,
						string(job.Kind),
						job.Target,
						paint(string(job.Status), statusKindColor(jobStatusKind(job.Status)), colorize),
						formatTime(job.UpdatedAt),
						job.ErrorMessage,
					})
				}
				fmt.Fprint(out, renderTable([]tableColumn{
					{Header: "ID", Right: true}, {Header: "Project"}, {Header: "Kind"}, {Header: "Target", MaxWidth: 40},
					{Header: "Status"}, {Header: "Updated"}, {Header: "Error", MaxWidth: 50},
				}, rows))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&projectID, "project", "p", "", "Only jobs for this project")
	cmd.Flags().StringSliceVarP(&statuses, "status", "s", nil, "Filter by status (pending, running, completed, failed)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}
