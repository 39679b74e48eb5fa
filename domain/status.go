package domain

import (
	"fmt"
	"strings"
)

// Status is the canonical task state. The zero value is StatusNotStarted.
type Status int

const (
	StatusNotStarted Status = iota
	StatusInProgress
	StatusDone
)

// Statuses lists every status in board order.
var Statuses = [...]Status{StatusNotStarted, StatusInProgress, StatusDone}

var statusKeys = [...]string{"not-started", "in-progress", "done"}

var statusLabels = [...]string{"Not Started", "In Progress", "Done"}

// ParseStatus accepts both the stored forms ("In Progress") and the
// hyphenated wire forms ("in-progress"). Case is ignored and spaces,
// hyphens and underscores are interchangeable.
func ParseStatus(raw string) (Status, error) {
	norm := normalizeStatus(raw)
	for i, key := range statusKeys {
		if norm == key {
			return Status(i), nil
		}
	}
	return StatusNotStarted, fmt.Errorf("unknown task status %q", raw)
}

// ClassifyStatus is ParseStatus for stored data: unknown values fall into
// the not-started bucket. ok reports whether the value was recognized.
func ClassifyStatus(raw string) (s Status, ok bool) {
	s, err := ParseStatus(raw)
	return s, err == nil
}

func normalizeStatus(raw string) string {
	fields := strings.FieldsFunc(strings.ToLower(strings.TrimSpace(raw)), func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	})
	return strings.Join(fields, "-")
}

// String returns the canonical persisted form.
func (s Status) String() string {
	if !s.valid() {
		return statusKeys[StatusNotStarted]
	}
	return statusKeys[s]
}

// Label returns the display form used for board columns.
func (s Status) Label() string {
	if !s.valid() {
		return statusLabels[StatusNotStarted]
	}
	return statusLabels[s]
}

// Next cycles not-started -> in-progress -> done -> not-started.
func (s Status) Next() Status {
	if !s.valid() {
		return StatusInProgress
	}
	return Status((int(s) + 1) % len(statusKeys))
}

func (s Status) valid() bool {
	return s >= StatusNotStarted && int(s) < len(statusKeys)
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
