package domain

// Column is one bucket of the task board.
type Column struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Tasks []Task `json:"tasks"`
}

// GroupByStatus buckets tasks into exactly three columns, in board order.
// Task order inside a column follows the input order.
func GroupByStatus(tasks []Task) []Column {
	cols := make([]Column, len(Statuses))
	for i, s := range Statuses {
		cols[i] = Column{ID: s.String(), Title: s.Label(), Tasks: []Task{}}
	}
	for _, t := range tasks {
		idx := int(t.Status)
		if idx < 0 || idx >= len(cols) {
			idx = int(StatusNotStarted)
		}
		cols[idx].Tasks = append(cols[idx].Tasks, t)
	}
	return cols
}
