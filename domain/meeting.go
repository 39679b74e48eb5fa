package domain

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// MinNotesLength is the minimum number of characters accepted for raw notes.
const MinNotesLength = 10

// Meeting is one meeting's notes, metadata and AI summary.
type Meeting struct {
	ID             string    `json:"id"`
	Ownership      Ownership `json:"user_id"`
	Title          string    `json:"title"`
	RawNotes       string    `json:"raw_notes"`
	Summary        *string   `json:"ai_summary"`
	MeetingDate    string    `json:"meeting_date,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	Participants   []string  `json:"participants,omitempty"`
	DecisionsCount *int      `json:"decisions_count,omitempty"`
	TasksCount     *int      `json:"tasks_count,omitempty"`
	Status         string    `json:"status,omitempty"`
}

func (m Meeting) HasSummary() bool {
	return m.Summary != nil && strings.TrimSpace(*m.Summary) != ""
}

// UploadInput is the raw form submitted when uploading meeting notes.
type UploadInput struct {
	Title        string `json:"title"`
	MeetingDate  string `json:"meeting_date"`
	Notes        string `json:"notes"`
	Participants string `json:"participants,omitempty"`
}

// ValidationError lists every rejected field with a reason.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// Validate checks the required fields and the notes length.
func (in UploadInput) Validate() error {
	fields := map[string]string{}
	if strings.TrimSpace(in.Title) == "" {
		fields["title"] = "required"
	}
	date := strings.TrimSpace(in.MeetingDate)
	if date == "" {
		fields["meeting_date"] = "required"
	} else if _, err := time.Parse(DateLayout, date); err != nil {
		fields["meeting_date"] = "must be YYYY-MM-DD"
	}
	if n := utf8.RuneCountInString(strings.TrimSpace(in.Notes)); n < MinNotesLength {
		fields["notes"] = "must be at least 10 characters"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// ParticipantList splits the comma separated participants, trimming entries
// and dropping empty ones.
func (in UploadInput) ParticipantList() []string {
	return ParseParticipants(in.Participants)
}

func ParseParticipants(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// NewMeeting builds the unsummarized meeting row for a validated upload.
func NewMeeting(id, userID string, in UploadInput, now time.Time) Meeting {
	return Meeting{
		ID:           id,
		Ownership:    Owned(userID),
		Title:        strings.TrimSpace(in.Title),
		RawNotes:     strings.TrimSpace(in.Notes),
		MeetingDate:  strings.TrimSpace(in.MeetingDate),
		CreatedAt:    now.UTC(),
		Participants: in.ParticipantList(),
	}
}
