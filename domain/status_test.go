package domain

import (
	"encoding/json"
	"testing"
)

func TestParseStatusAcceptsStoredAndWireForms(t *testing.T) {
	tests := []struct {
		raw  string
		want Status
	}{
		{raw: "not-started", want: StatusNotStarted},
		{raw: "Not Started", want: StatusNotStarted},
		{raw: "in-progress", want: StatusInProgress},
		{raw: "In Progress", want: StatusInProgress},
		{raw: "  IN_PROGRESS ", want: StatusInProgress},
		{raw: "in  progress", want: StatusInProgress},
		{raw: "done", want: StatusDone},
		{raw: "Done", want: StatusDone},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseStatus(tt.raw)
			if err != nil {
				t.Fatalf("ParseStatus(%q): %v", tt.raw, err)
			}
			if got != tt.want {
				t.Fatalf("ParseStatus(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseStatusRejectsUnknown(t *testing.T) {
	for _, raw := range []string{"", "blocked", "in-progress-ish"} {
		if _, err := ParseStatus(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestClassifyStatusFallsBackToNotStarted(t *testing.T) {
	s, ok := ClassifyStatus("Blocked")
	if ok {
		t.Fatalf("expected unknown status to be reported")
	}
	if s != StatusNotStarted {
		t.Fatalf("expected not-started bucket, got %v", s)
	}
}

func TestStatusNextCycles(t *testing.T) {
	if got := StatusNotStarted.Next(); got != StatusInProgress {
		t.Fatalf("not-started next = %v", got)
	}
	if got := StatusInProgress.Next(); got != StatusDone {
		t.Fatalf("in-progress next = %v", got)
	}
	stored, err := ParseStatus("Done")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := stored.Next(); got != StatusNotStarted {
		t.Fatalf("done next = %v, want not-started", got)
	}
	if got := Status(42).Next(); got != StatusInProgress {
		t.Fatalf("out of range status should cycle from not-started, got %v", got)
	}
}

func TestStatusLabels(t *testing.T) {
	want := []string{"Not Started", "In Progress", "Done"}
	for i, s := range Statuses {
		if s.Label() != want[i] {
			t.Fatalf("label %d = %q, want %q", i, s.Label(), want[i])
		}
	}
}

func TestStatusJSONUsesCanonicalForm(t *testing.T) {
	var payload struct {
		Status Status `json:"status"`
	}
	if err := json.Unmarshal([]byte(`{"status":"In Progress"}`), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.Status != StatusInProgress {
		t.Fatalf("unexpected status: %v", payload.Status)
	}
	out, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"status":"in-progress"}` {
		t.Fatalf("unexpected encoding: %s", out)
	}
	if err := json.Unmarshal([]byte(`{"status":"waiting"}`), &payload); err == nil {
		t.Fatalf("expected unknown status to be rejected")
	}
}

func TestGroupByStatusBucketsMixedVocabulary(t *testing.T) {
	stored := []string{"In Progress", "in-progress", "Done", "not-started", "Not Started"}
	tasks := make([]Task, 0, len(stored))
	for i, raw := range stored {
		s, _ := ClassifyStatus(raw)
		tasks = append(tasks, Task{ID: string(rune('a' + i)), Status: s})
	}

	cols := GroupByStatus(tasks)
	if len(cols) != 3 {
		t.Fatalf("expected 3 columns, got %d", len(cols))
	}
	if cols[0].ID != "not-started" || cols[1].ID != "in-progress" || cols[2].ID != "done" {
		t.Fatalf("unexpected column order: %s %s %s", cols[0].ID, cols[1].ID, cols[2].ID)
	}
	if len(cols[0].Tasks) != 2 || len(cols[1].Tasks) != 2 || len(cols[2].Tasks) != 1 {
		t.Fatalf("unexpected bucket sizes: %d %d %d", len(cols[0].Tasks), len(cols[1].Tasks), len(cols[2].Tasks))
	}
	if cols[1].Tasks[0].ID != "a" || cols[1].Tasks[1].ID != "b" {
		t.Fatalf("expected input order preserved in bucket, got %#v", cols[1].Tasks)
	}
}
