package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"scanflow/internal/ipc"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect the upload queue",
	}
	queueCmd.AddCommand(newQueueListCommand(ctx))
	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List documents waiting to upload",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueList()
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if len(resp.Pending) == 0 {
					fmt.Fprintf(stdout, "Upload queue is empty (%d uploaded this run)\n", resp.Processed)
					return nil
				}
				rows := make([][]string, 0, len(resp.Pending))
				for i, name := range resp.Pending {
					rows = append(rows, []string{fmt.Sprintf("%d", i+1), name})
				}
				fmt.Fprintln(stdout, renderTable([]string{"#", "Document"}, rows, []columnAlignment{alignRight, alignLeft}))
				fmt.Fprintf(stdout, "%d pending, %d uploaded this run\n", len(resp.Pending), resp.Processed)
				return nil
			})
		},
	}
}
