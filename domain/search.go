package domain

import (
	"fmt"
	"strings"
)

// MeetingHit is a meeting as listed in search results.
type MeetingHit struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Date    string `json:"date,omitempty"`
	Excerpt string `json:"excerpt"`
}

// SearchResults groups matches by kind.
type SearchResults struct {
	Meetings []MeetingHit `json:"meetings"`
	Tasks    []Task       `json:"tasks"`
}

// Search matches query case-insensitively against meeting titles, summaries
// and notes, and against task titles, owners and parent meeting titles. An
// empty query returns everything.
func Search(meetings []Meeting, tasks []Task, query string) SearchResults {
	q := strings.ToLower(strings.TrimSpace(query))
	res := SearchResults{Meetings: []MeetingHit{}, Tasks: []Task{}}

	titles := make(map[string]string, len(meetings))
	for _, m := range meetings {
		titles[m.ID] = m.Title
		if q == "" || containsFold(m.Title, q) || containsFold(m.RawNotes, q) || (m.Summary != nil && containsFold(*m.Summary, q)) {
			res.Meetings = append(res.Meetings, meetingHit(m))
		}
	}
	for _, t := range tasks {
		if q == "" || containsFold(t.Title, q) || containsFold(t.Owner, q) || containsFold(titles[t.MeetingID], q) {
			res.Tasks = append(res.Tasks, t)
		}
	}
	return res
}

func meetingHit(m Meeting) MeetingHit {
	excerpt := fmt.Sprintf("Meeting on %s with %d participants", m.MeetingDate, len(m.Participants))
	if m.HasSummary() {
		excerpt = *m.Summary
	}
	return MeetingHit{ID: m.ID, Title: m.Title, Date: m.MeetingDate, Excerpt: excerpt}
}

func containsFold(s, lowerQuery string) bool {
	return s != "" && strings.Contains(strings.ToLower(s), lowerQuery)
}
