package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"scanflow/internal/ipc"
	"scanflow/internal/stage"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start pipeline processing on the running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Start()
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if resp.Started {
					fmt.Fprintln(stdout, "Pipeline started")
				} else {
					fmt.Fprintln(stdout, resp.Message)
				}
				return nil
			})
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop pipeline processing on the running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.Stop(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Pipeline stopped")
				return nil
			})
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show station and pipeline status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Status()
				if err != nil {
					return err
				}
				renderStatus(cmd.OutOrStdout(), resp)
				return nil
			})
		},
	}

	return []*cobra.Command{startCmd, stopCmd, statusCmd}
}

func stageRows(counts map[string]int) [][]string {
	rows := make([][]string, 0, len(counts))
	seen := make(map[string]bool, len(counts))
	for _, s := range stage.All() {
		if n, ok := counts[s.String()]; ok {
			rows = append(rows, []string{s.Label(), fmt.Sprintf("%d", n)})
			seen[s.String()] = true
		}
	}
	// Stages the daemon knows about but this build does not.
	extra := make([]string, 0)
	for name := range counts {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		rows = append(rows, []string{name, fmt.Sprintf("%d", counts[name])})
	}
	return rows
}
