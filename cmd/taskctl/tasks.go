package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/gurkanbulca/taskdesk/internal/api/contracttype"
	"github.com/gurkanbulca/taskdesk/internal/api/statuscatalog"
	"github.com/gurkanbulca/taskdesk/internal/api/task"
	"github.com/gurkanbulca/taskdesk/internal/models"
	"github.com/gurkanbulca/taskdesk/internal/tasklist"
)

func newTable(cmd *cobra.Command, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	return table
}

func names(users []models.User) string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		out = append(out, u.Name)
	}
	return strings.Join(out, ", ")
}

func newTasksCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List, show and delete tasks",
	}
	cmd.AddCommand(newTasksListCmd(opts), newTasksGetCmd(opts), newTasksDeleteCmd(opts))
	return cmd
}

func newTasksListCmd(opts *options) *cobra.Command {
	var (
		filter task.ListFilter
		search string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := task.NewClient(opts.client()).GetTaskList(cmd.Context(), filter)
			if err != nil {
				return fmt.Errorf("list tasks: %w", err)
			}
			tasks = tasklist.Filter(tasks, tasklist.Criteria{Search: search})

			table := newTable(cmd, "ID", "Title", "Status", "Priority", "Assignees", "Due")
			for _, t := range tasks {
				due := "-"
				if t.DueDate != nil {
					due = humanize.Time(*t.DueDate)
				}
				table.Append([]string{t.ID, t.Title, t.Status.Label(), t.Priority.Label(), names(t.Assignees), due})
			}
			table.Render()
			fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n", humanize.Comma(int64(len(tasks)))+" task(s)")
			return nil
		},
	}
	cmd.Flags().StringVar(&filter.Status, "status", "", "only tasks with this status")
	cmd.Flags().StringVar(&filter.Priority, "priority", "", "only tasks with this priority")
	cmd.Flags().StringVar(&filter.ProjectID, "project", "", "only tasks of this project")
	cmd.Flags().StringVar(&search, "search", "", "case-insensitive match on title or description")
	return cmd
}

func newTasksGetCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "get TASK-ID",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := task.NewClient(opts.client()).GetTaskDetail(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("get task: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s  %s\n", t.ID, t.Title)
			fmt.Fprintf(out, "Status: %s   Priority: %s\n", t.Status.Label(), t.Priority.Label())
			if len(t.Assignees) > 0 {
				fmt.Fprintf(out, "Assignees: %s\n", names(t.Assignees))
			}
			if t.EstimatedHours != nil {
				fmt.Fprintf(out, "Estimate: %sh\n", humanize.Ftoa(*t.EstimatedHours))
			}
			fmt.Fprintf(out, "Subtasks: %d/%d done   Comments: %d\n",
				t.CompletedSubtasks(), len(t.Subtasks), models.CountComments(t.Comments))

			if len(t.Attachments) > 0 {
				fmt.Fprintln(out)
				table := newTable(cmd, "Attachment", "Type", "Size")
				for _, a := range t.Attachments {
					table.Append([]string{a.Name, a.Type, humanize.Bytes(uint64(a.Size))})
				}
				table.Render()
			}
			return nil
		},
	}
}

func newTasksDeleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete TASK-ID",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := task.NewClient(opts.client()).DeleteTask(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("delete task: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Deleted %s\n", args[0])
			return nil
		},
	}
}

func newContractTypesCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contract-types",
		Short: "List or create HRM contract types",
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := contracttype.NewClient(opts.client()).GetAll(cmd.Context())
			if err != nil {
				return fmt.Errorf("list contract types: %w", err)
			}
			table := newTable(cmd, "Code", "Name")
			for _, ct := range items {
				table.Append([]string{ct.ContractTypeCode, ct.ContractTypeName})
			}
			table.Render()
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "create CODE NAME",
		Short: "Create a contract type",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ct, err := contracttype.NewClient(opts.client()).CreateContractType(cmd.Context(), models.CreateContractTypeRequest{
				ContractTypeCode: args[0],
				ContractTypeName: args[1],
			})
			if err != nil {
				return fmt.Errorf("create contract type: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Created %s (%s)\n", ct.ContractTypeCode, ct.ID)
			return nil
		},
	})
	return cmd
}

func newStatusesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "statuses",
		Short: "List the backend status catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := statuscatalog.NewQuery(opts.client()).GetAll(cmd.Context())
			if err != nil {
				return fmt.Errorf("list statuses: %w", err)
			}
			table := newTable(cmd, "ID", "Status")
			for _, s := range items {
				table.Append([]string{fmt.Sprint(s.ID), s.StatusName})
			}
			table.Render()
			return nil
		},
	}
}

func newTokenCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Print a service token for manual API calls",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, expiresAt, err := opts.tokenManager().IssueServiceToken(opts.service)
			if err != nil {
				return fmt.Errorf("issue token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", humanize.Time(expiresAt))
			return nil
		},
	}
}
