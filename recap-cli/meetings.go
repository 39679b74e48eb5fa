package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"recap/domain"
)

func uploadCmd(opts *rootOptions) *cobra.Command {
	var (
		in        domain.UploadInput
		notesFile string
		key       string
	)
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload meeting notes and summarize them",
		Long: `Upload meeting notes. The meeting is saved even when summarization fails;
the outcome and any warning are printed.

Examples:
  recap upload --title "Weekly Sync" --date 2024-03-01 --notes-file notes.txt
  cat notes.txt | recap upload --title "Weekly Sync" --date 2024-03-01 --notes-file -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if notesFile != "" {
				notes, err := readNotes(cmd.InOrStdin(), notesFile)
				if err != nil {
					return err
				}
				in.Notes = notes
			}
			if err := in.Validate(); err != nil {
				return err
			}
			res, err := opts.client().Upload(cmd.Context(), in, key)
			if err != nil {
				return fmt.Errorf("upload failed: %w", err)
			}
			if opts.json {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Saved meeting %s (%s)\n", res.Meeting.ID, res.Outcome)
			if res.Warning != "" {
				fmt.Fprintf(out, "Warning: %s\n", res.Warning)
			}
			if res.Meeting.HasSummary() {
				fmt.Fprintf(out, "\n%s\n", *res.Meeting.Summary)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Title, "title", "", "meeting title")
	cmd.Flags().StringVar(&in.MeetingDate, "date", "", "meeting date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&in.Notes, "notes", "", "raw meeting notes")
	cmd.Flags().StringVar(&notesFile, "notes-file", "", "read notes from a file, - for stdin")
	cmd.Flags().StringVar(&in.Participants, "participants", "", "comma separated participants")
	cmd.Flags().StringVar(&key, "idempotency-key", "", "idempotency key (generated when empty)")
	return cmd
}

func readNotes(stdin io.Reader, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read notes: %w", err)
	}
	return string(data), nil
}

func meetingsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "meetings",
		Short: "List meetings, newest first, followed by the samples",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			meetings, err := opts.client().Meetings(cmd.Context())
			if err != nil {
				return err
			}
			if opts.json {
				return writeJSON(cmd.OutOrStdout(), meetings)
			}
			return writeMeetings(cmd.OutOrStdout(), meetings)
		},
	}
}

func meetingCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "meeting [id]",
		Short: "Show a meeting with its summary and tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, tasks, err := opts.client().Meeting(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if opts.json {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"meeting": m, "tasks": tasks})
			}
			return writeMeeting(cmd.OutOrStdout(), m, tasks)
		},
	}
}

func searchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "search [query]",
		Short: "Search meetings and tasks",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			res, err := opts.client().Search(cmd.Context(), query)
			if err != nil {
				return err
			}
			if opts.json {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			return writeSearch(cmd.OutOrStdout(), res)
		},
	}
}

func dashboardCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show meeting and task totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := opts.client().Dashboard(cmd.Context())
			if err != nil {
				return err
			}
			if opts.json {
				return writeJSON(cmd.OutOrStdout(), stats)
			}
			return writeStats(cmd.OutOrStdout(), stats)
		},
	}
}
