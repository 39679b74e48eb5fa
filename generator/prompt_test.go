package generator

import (
	"strings"
	"testing"

	"recap/summarizer"
)

func TestPromptDefaults(t *testing.T) {
	got := Prompt(summarizer.Request{RawNotes: "Discussed the roadmap."})
	for _, want := range []string{
		"Meeting Title: Untitled Meeting\n",
		"Meeting Date: Not specified\n",
		"Participants: Not specified\n",
		"Meeting Notes:\nDiscussed the roadmap.\n",
		"3. Action items (if any)\n",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("prompt missing %q:\n%s", want, got)
		}
	}
	if !strings.HasSuffix(got, "Summary:") {
		t.Fatalf("prompt should end with the summary cue: %q", got)
	}
}

func TestPromptFields(t *testing.T) {
	got := Prompt(summarizer.Request{
		RawNotes:     "notes",
		Title:        "Weekly Sync",
		MeetingDate:  "2024-03-01",
		Participants: []string{"Ana", "Ben"},
	})
	for _, want := range []string{"Meeting Title: Weekly Sync\n", "Meeting Date: 2024-03-01\n", "Participants: Ana, Ben\n"} {
		if !strings.Contains(got, want) {
			t.Fatalf("prompt missing %q", want)
		}
	}

	if got := Prompt(summarizer.Request{RawNotes: "n", Participants: []string{}}); !strings.Contains(got, "Participants: \n") {
		t.Fatalf("an empty participant list is rendered empty: %q", got)
	}
}
