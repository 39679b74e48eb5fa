package domain

// Stats are the dashboard totals.
type Stats struct {
	TotalMeetings     int            `json:"total_meetings"`
	PendingSummaries  int            `json:"pending_summaries"`
	TotalDecisions    int            `json:"total_decisions"`
	TotalTasks        int            `json:"total_tasks"`
	TasksByStatus     map[string]int `json:"tasks_by_status"`
	CompletionPercent int            `json:"completion_percent"`
}

// ComputeStats totals meetings and tasks for the dashboard.
func ComputeStats(meetings []Meeting, tasks []Task) Stats {
	s := Stats{TasksByStatus: make(map[string]int, len(Statuses))}
	for _, st := range Statuses {
		s.TasksByStatus[st.String()] = 0
	}
	for _, m := range meetings {
		s.TotalMeetings++
		if !m.HasSummary() {
			s.PendingSummaries++
		}
		if m.DecisionsCount != nil {
			s.TotalDecisions += *m.DecisionsCount
		}
	}
	for _, t := range tasks {
		s.TotalTasks++
		s.TasksByStatus[t.Status.String()]++
	}
	if s.TotalTasks > 0 {
		s.CompletionPercent = s.TasksByStatus[StatusDone.String()] * 100 / s.TotalTasks
	}
	return s
}
