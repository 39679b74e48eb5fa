package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"recap/board"
	"recap/domain"
)

func boardCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "board",
		Short: "Show tasks grouped by status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := loadBoard(cmd, opts)
			if err != nil {
				return err
			}
			if opts.json {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"columns": b.Columns()})
			}
			return writeBoard(cmd.OutOrStdout(), b.Columns())
		},
	}
}

func moveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "move [task-id] [status]",
		Short: "Set a task status (not-started, in-progress, done)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := domain.ParseStatus(args[1])
			if err != nil {
				return err
			}
			return editTask(cmd, opts, args[0], func(b *board.Board) (domain.Task, error) {
				return b.SetStatus(cmd.Context(), args[0], status)
			})
		},
	}
}

func advanceCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "advance [task-id]",
		Short: "Move a task to its next status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editTask(cmd, opts, args[0], func(b *board.Board) (domain.Task, error) {
				return b.Advance(cmd.Context(), args[0])
			})
		},
	}
}

func ownerCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "owner [task-id] [name]",
		Short: "Assign a task; an empty name clears the owner",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editTask(cmd, opts, args[0], func(b *board.Board) (domain.Task, error) {
				return b.SetOwner(cmd.Context(), args[0], args[1])
			})
		},
	}
}

func deadlineCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "deadline [task-id] [YYYY-MM-DD]",
		Short: "Set a task deadline; an empty date clears it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editTask(cmd, opts, args[0], func(b *board.Board) (domain.Task, error) {
				return b.SetDeadline(cmd.Context(), args[0], args[1])
			})
		},
	}
}

func addTaskCmd(opts *rootOptions) *cobra.Command {
	var (
		in     domain.TaskInput
		status string
	)
	cmd := &cobra.Command{
		Use:   "add-task [title]",
		Short: "Create a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Title = args[0]
			if status != "" {
				s, err := domain.ParseStatus(status)
				if err != nil {
					return err
				}
				in.Status = &s
			}
			task, err := opts.client().CreateTask(cmd.Context(), in)
			if err != nil {
				return err
			}
			if opts.json {
				return writeJSON(cmd.OutOrStdout(), task)
			}
			return writeTask(cmd.OutOrStdout(), task)
		},
	}
	cmd.Flags().StringVar(&in.MeetingID, "meeting", "", "meeting id")
	cmd.Flags().StringVar(&in.Owner, "owner", "", "assignee")
	cmd.Flags().StringVar(&in.Deadline, "deadline", "", "deadline (YYYY-MM-DD)")
	cmd.Flags().StringVar(&status, "status", "", "initial status")
	return cmd
}

func loadBoard(cmd *cobra.Command, opts *rootOptions) (*board.Board, error) {
	b := board.New(opts.client(), opts.logger())
	if err := b.Load(cmd.Context()); err != nil {
		return nil, fmt.Errorf("load board: %w", err)
	}
	return b, nil
}

// editTask loads the board, applies one edit and prints the task. A failed
// write is reported together with the state the board was reloaded to.
func editTask(cmd *cobra.Command, opts *rootOptions, id string, edit func(*board.Board) (domain.Task, error)) error {
	b, err := loadBoard(cmd, opts)
	if err != nil {
		return err
	}
	task, err := edit(b)
	var perr *board.PersistError
	if errors.As(err, &perr) {
		if perr.Reload == nil {
			if current, ok := b.Task(id); ok {
				fmt.Fprintf(cmd.ErrOrStderr(), "Change rolled back, task is %s\n", current.Status.Label())
			}
		}
		return err
	}
	if err != nil {
		return err
	}
	if opts.json {
		return writeJSON(cmd.OutOrStdout(), task)
	}
	if task.Ownership.IsShared() {
		fmt.Fprintln(cmd.ErrOrStderr(), "Sample task changed locally only")
	}
	return writeTask(cmd.OutOrStdout(), task)
}
