package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTaskCommand(root *RootCommand) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Operate on single remote tasks",
	}

	var etag string
	del := &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Delete a remote task",
		Long: `Deletes a Planner task. With --etag the delete only succeeds if the task
still carries that version token; without it the current token is used.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			client, err := root.plannerClient(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			if err := client.DeleteTask(cmd.Context(), args[0], etag); err != nil {
				return fmt.Errorf("could not delete task %s: %w", args[0], err)
			}
			root.Logger.Infof("task %s deleted", args[0])
			fmt.Fprintf(root.Stdout, "Deleted task %s\n", args[0])
			return nil
		},
	}
	del.Flags().StringVar(&etag, "etag", "", "Only delete if the task still has this version token.")
	cmd.AddCommand(del)

	return cmd
}
