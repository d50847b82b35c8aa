package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
)

var meiliTaskGetCmd = &cobra.Command{
	Use:   "get <task-id>",
	Short: "Show the status of a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || id < 0 {
			return fmt.Errorf("invalid task id %q", args[0])
		}
		task, err := newMeiliService().GetTask(id)
		if err != nil {
			return err
		}
		return output(cmd.OutOrStdout(), task, func(w io.Writer) {
			outputHuman(w, "Task details\n%+v\n", *task)
		})
	},
}

func init() {
	meiliTaskCmd.AddCommand(meiliTaskGetCmd)
}
