package generator

import (
	"strings"

	"recap/summarizer"
)

// Prompt renders the summarization prompt for req.
func Prompt(req summarizer.Request) string {
	title := req.Title
	if title == "" {
		title = "Untitled Meeting"
	}
	date := req.MeetingDate
	if date == "" {
		date = "Not specified"
	}
	participants := "Not specified"
	if req.Participants != nil {
		participants = strings.Join(req.Participants, ", ")
	}

	var b strings.Builder
	b.WriteString("Please provide a concise and professional summary of the following meeting notes. \n")
	b.WriteString("Focus on key decisions, action items, and important discussion points.\n\n")
	b.WriteString("Meeting Title: " + title + "\n")
	b.WriteString("Meeting Date: " + date + "\n")
	b.WriteString("Participants: " + participants + "\n\n")
	b.WriteString("Meeting Notes:\n")
	b.WriteString(req.RawNotes)
	b.WriteString("\n\nPlease provide a summary that includes:\n")
	b.WriteString("1. Main topics discussed\n")
	b.WriteString("2. Key decisions made\n")
	b.WriteString("3. Action items (if any)\n")
	b.WriteString("4. Important points raised\n\n")
	b.WriteString("Summary:")
	return b.String()
}
