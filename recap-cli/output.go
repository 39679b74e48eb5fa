package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/bytedance/sonic"

	"recap/domain"
)

func writeJSON(w io.Writer, v any) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func writeMeetings(w io.Writer, meetings []domain.Meeting) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTITLE\tSUMMARY")
	for _, m := range meetings {
		summary := "pending"
		if m.HasSummary() {
			summary = "ready"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.ID, orDash(m.MeetingDate), m.Title, summary)
	}
	return tw.Flush()
}

func writeMeeting(w io.Writer, m domain.Meeting, tasks []domain.Task) error {
	fmt.Fprintf(w, "%s\n", m.Title)
	fmt.Fprintf(w, "Date: %s\n", orDash(m.MeetingDate))
	if len(m.Participants) > 0 {
		fmt.Fprintf(w, "Participants: %s\n", strings.Join(m.Participants, ", "))
	}
	if m.HasSummary() {
		fmt.Fprintf(w, "\nSummary:\n%s\n", *m.Summary)
	} else {
		fmt.Fprintln(w, "\nSummary: not available yet")
	}
	if len(tasks) == 0 {
		return nil
	}
	fmt.Fprintln(w, "\nTasks:")
	return writeTaskTable(w, tasks)
}

func writeBoard(w io.Writer, cols []domain.Column) error {
	for i, col := range cols {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s (%d)\n", col.Title, len(col.Tasks))
		if len(col.Tasks) == 0 {
			continue
		}
		if err := writeTaskTable(w, col.Tasks); err != nil {
			return err
		}
	}
	return nil
}

func writeTaskTable(w io.Writer, tasks []domain.Task) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, t := range tasks {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", t.ID, t.Title, orDash(t.Owner), deadline(t.Deadline))
	}
	return tw.Flush()
}

func writeTask(w io.Writer, t domain.Task) error {
	_, err := fmt.Fprintf(w, "%s  %s  [%s]  owner: %s  deadline: %s\n", t.ID, t.Title, t.Status.Label(), orDash(t.Owner), deadline(t.Deadline))
	return err
}

func writeSearch(w io.Writer, res domain.SearchResults) error {
	fmt.Fprintf(w, "Meetings (%d)\n", len(res.Meetings))
	for _, m := range res.Meetings {
		fmt.Fprintf(w, "  %s  %s  %s\n", m.ID, m.Title, m.Excerpt)
	}
	fmt.Fprintf(w, "\nTasks (%d)\n", len(res.Tasks))
	return writeTaskTable(w, res.Tasks)
}

func writeStats(w io.Writer, s domain.Stats) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Meetings\t%d\n", s.TotalMeetings)
	fmt.Fprintf(tw, "Pending summaries\t%d\n", s.PendingSummaries)
	fmt.Fprintf(tw, "Decisions\t%d\n", s.TotalDecisions)
	fmt.Fprintf(tw, "Tasks\t%d\n", s.TotalTasks)
	for _, st := range domain.Statuses {
		fmt.Fprintf(tw, "  %s\t%d\n", st.Label(), s.TasksByStatus[st.String()])
	}
	fmt.Fprintf(tw, "Completion\t%d%%\n", s.CompletionPercent)
	return tw.Flush()
}

func deadline(d *time.Time) string {
	if d == nil {
		return "-"
	}
	return d.Format(domain.DateLayout)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
