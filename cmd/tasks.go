package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"lst-tools/config"
	"lst-tools/export"
	"lst-tools/platform"
)

// tasksCmd represents the tasks command
var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List, inspect and launch export tasks",
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List export tasks, oldest first",
	Args:  cobra.NoArgs,
	RunE: withPlatform(func(cmd *cobra.Command, local *platform.Local, args []string) error {
		tasks, err := local.Tasks(cmd.Context())
		if err != nil {
			return err
		}
		writeTasks(cmd.OutOrStdout(), tasks)
		return nil
	}),
}

var tasksShowCmd = &cobra.Command{
	Use:   "show [task_id]",
	Short: "Show one export task",
	Args:  cobra.ExactArgs(1),
	RunE: withPlatform(func(cmd *cobra.Command, local *platform.Local, args []string) error {
		task, err := local.Task(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		writeTask(cmd.OutOrStdout(), task)
		return nil
	}),
}

var tasksLaunchCmd = &cobra.Command{
	Use:   "launch [task_id]",
	Short: "Run a READY or FAILED export task",
	Args:  cobra.ExactArgs(1),
	RunE: withPlatform(func(cmd *cobra.Command, local *platform.Local, args []string) error {
		task, err := local.Launch(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Task %s %s: %s\n", task.ID, task.State, task.Output)
		return nil
	}),
}

type platformRunE func(cmd *cobra.Command, local *platform.Local, args []string) error

func withPlatform(run platformRunE) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		setLogLevels()
		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}
		local, closePlatform, err := openPlatform(cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := closePlatform(); err != nil {
				logrus.Error(err)
			}
		}()
		return run(cmd, local, args)
	}
}

func writeTasks(w io.Writer, tasks []*export.Task) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Description", "Format", "State", "Updated", "Output"})
	for _, t := range tasks {
		table.Append([]string{
			t.ID,
			t.Request.Description,
			string(t.Request.Format),
			string(t.State),
			t.UpdatedAt.Format(time.RFC3339),
			t.Output,
		})
	}
	table.Render()
}

func writeTask(w io.Writer, t *export.Task) {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	rows := [][]string{
		{"ID", t.ID},
		{"State", string(t.State)},
		{"Description", t.Request.Description},
		{"Format", string(t.Request.Format)},
		{"Scale", fmt.Sprintf("%vm", t.Request.Scale)},
		{"Destination", t.Request.Destination},
		{"Created", t.CreatedAt.Format(time.RFC3339)},
		{"Updated", t.UpdatedAt.Format(time.RFC3339)},
		{"Output", t.Output},
		{"Error", t.Error},
	}
	table.AppendBulk(rows)
	table.Render()
}

func init() {
	rootCmd.AddCommand(tasksCmd)
	tasksCmd.AddCommand(tasksListCmd, tasksShowCmd, tasksLaunchCmd)
}
