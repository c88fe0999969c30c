package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"storyreel/internal/ipc"
	"storyreel/internal/script"
	"storyreel/internal/store"
)

func newProjectCommand(ctx *commandContext) *cobra.Command {
	projectCmd := &cobra.Command{
		Use:     "project",
		Aliases: []string{"projects"},
		Short:   "Manage projects",
	}
	projectCmd.AddCommand(
		newProjectListCommand(ctx),
		newProjectShowCommand(ctx),
		newProjectImportCommand(ctx),
		newProjectLogsCommand(ctx),
		newProjectToggleCommand(ctx),
		newProjectDeleteCommand(ctx),
	)
	return projectCmd
}

func newProjectListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects on the dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ProjectList()
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp.Projects)
				}
				out := cmd.OutOrStdout()
				if len(resp.Projects) == 0 {
					fmt.Fprintln(out, "No projects yet; import one with `storyreel project import`")
					return nil
				}
				colorize := shouldColorize(out)
				rows := make([][]string, 0, len(resp.Projects))
				for _, p := range resp.Projects {
					rows = append(rows, []string{
						p.ID,
						p.Title,
						strconv.Itoa(p.SceneCount),
						paint(string(p.Status), statusKindColor(projectStatusKind(p.Status)), colorize),
						formatTime(p.UpdatedAt),
					})
				}
				fmt.Fprint(out, renderTable([]tableColumn{
					{Header: "ID"}, {Header: "Title", MaxWidth: 40}, {Header: "Scenes", Right: true}, {Header: "Status"}, {Header: "Updated"},
				}, rows))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newProjectShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show a project's assets, scenes, beats and shots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ProjectShow(args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp.Project)
				}
				fmt.Fprint(cmd.OutOrStdout(), renderProject(resp.Project))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newProjectImportCommand(ctx *commandContext) *cobra.Command {
	var (
		title string
		mode  string
		wait  bool
	)
	cmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Import a story or script and analyze it into scenes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, name, err := readImportText(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			if strings.TrimSpace(title) == "" {
				title = name
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ProjectImport(ipc.ProjectImportRequest{Title: title, Text: text, Mode: mode, Wait: wait})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if resp.Job != nil {
					fmt.Fprintf(out, "Created project %s; analysis queued as job #%d\n", resp.Project.ID, resp.Job.ID)
					return nil
				}
				fmt.Fprintf(out, "Created project %s: %s (%d scenes)\n", resp.Project.ID, resp.Project.Title, resp.Project.SceneCount())
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "Project title (defaults to the file name)")
	cmd.Flags().StringVarP(&mode, "mode", "m", "story", "How to read the text: story or script")
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Analyze before returning instead of queueing")
	return cmd
}

func readImportText(stdin io.Reader, arg string) (string, string, error) {
	var (
		data []byte
		err  error
		name string
	)
	if arg == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(arg)
		name = strings.TrimSuffix(filepath.Base(arg), filepath.Ext(arg))
	}
	if err != nil {
		return "", "", fmt.Errorf("read import text: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", "", errors.New("import text is empty")
	}
	return string(data), name, nil
}

func newProjectLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		follow bool
		since  int64
	)
	cmd := &cobra.Command{
		Use:   "logs <project-id>",
		Short: "Show a project's activity log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				printed := false
				for {
					page, err := client.ProjectLogs(args[0], since)
					if err != nil {
						return err
					}
					for _, entry := range page.Entries {
						fmt.Fprintln(out, formatActivity(entry, colorize))
						printed = true
					}
					since = page.Next
					if !follow {
						if !printed {
							fmt.Fprintln(out, "No activity yet")
						}
						return nil
					}
					select {
					case <-cmd.Context().Done():
						return nil
					case <-time.After(time.Second):
					}
				}
			})
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep polling for new entries")
	cmd.Flags().Int64Var(&since, "since", 0, "Only show entries after this sequence number")
	return cmd
}

func newProjectToggleCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <project-id> <scene-id>",
		Short: "Expand or collapse a scene",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.SceneToggle(args[0], args[1])
				if err != nil {
					return err
				}
				scene, ok := script.FindScene(resp.Project, args[1])
				if !ok {
					return fmt.Errorf("scene %s not found", args[1])
				}
				state := "collapsed"
				if scene.Expanded {
					state = "expanded"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Scene %s %s\n", scene.Slugline, state)
				return nil
			})
		},
	}
}

func newProjectDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <project-id>",
		Short: "Delete a project with its activity log and jobs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.ProjectDelete(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted project %s\n", args[0])
				return nil
			})
		},
	}
}

func renderProject(p script.Project) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  [%s]\n", p.Title, p.Status)
	if p.Genre != "" {
		fmt.Fprintf(&b, "Genre:   %s\n", p.Genre)
	}
	if p.Logline != "" {
		fmt.Fprintf(&b, "Logline: %s\n", p.Logline)
	}
	if len(p.Assets) > 0 {
		b.WriteString("\n")
		rows := make([][]string, 0, len(p.Assets))
		for _, a := range p.Assets {
			rows = append(rows, []string{a.ID, a.Name, string(a.Type), a.Description})
		}
		b.WriteString(renderTable([]tableColumn{
			{Header: "Asset"}, {Header: "Name"}, {Header: "Type"}, {Header: "Description", MaxWidth: 60},
		}, rows))
	}
	for _, scene := range p.Scenes {
		marker := "+"
		if scene.Expanded {
			marker = "-"
		}
		fmt.Fprintf(&b, "\n%s %s  (%s)\n", marker, scene.Slugline, scene.ID)
		if !scene.Expanded {
			continue
		}
		for _, beat := range scene.Beats {
			fmt.Fprintf(&b, "    beat %s/%s: %s\n", scene.ID, beat.ID, beat.Description)
			for _, shot := range beat.Shots {
				fmt.Fprintf(&b, "      shot %s  %-10s image:%-3s video:%-3s %s\n",
					shot.ID, shot.ShotType, yesNo(shot.HasImage()), yesNo(shot.HasVideo()), shot.Action)
			}
		}
	}
	return b.String()
}

func formatActivity(entry store.LogEntry, colorize bool) string {
	line := fmt.Sprintf("%4d  %s  %-7s %s", entry.Seq, formatTime(entry.CreatedAt), entry.Severity, entry.Message)
	return paint(line, statusKindColor(severityKind(entry.Severity)), colorize)
}

func formatTime(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format("2006-01-02 15:04:05")
}
