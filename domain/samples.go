package domain

import "time"

// Sample data overlaid onto every user's meetings and tasks. These rows are
// Shared and never persisted.

func sampleTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return t
}

func sampleDate(value string) *time.Time {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		panic(err)
	}
	return &t
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

// SampleMeetings returns a fresh copy of the shared meetings.
func SampleMeetings() []Meeting {
	return []Meeting{
		{
			ID:    "default-meeting-1",
			Title: "Q4 Planning Session",
			RawNotes: `Meeting: Q4 Planning Session
Date: January 15, 2024
Attendees: John Doe, Jane Smith, Bob Johnson, Alice Brown, Charlie Wilson

Discussion Points:
- Review Q3 performance metrics
- Set Q4 revenue targets
- Discuss new product initiatives
- Address resource allocation concerns
- Plan for upcoming client presentations

Key Points Raised:
- Revenue exceeded targets by 15%
- Need additional engineering resources
- New product launch scheduled for March
- Client feedback has been positive
- Marketing budget needs adjustment`,
			Summary:        strPtr("This Q4 planning session reviewed strong Q3 performance (15% above revenue targets) and established key initiatives for the upcoming quarter. The team identified resource gaps in engineering and marketing, decided to launch a new product in March, and committed to addressing client presentation scheduling. Five action items were assigned with clear ownership and deadlines."),
			MeetingDate:    "2024-01-15",
			CreatedAt:      sampleTime("2024-01-15T14:00:00Z"),
			Participants:   []string{"John Doe", "Jane Smith", "Bob Johnson", "Alice Brown", "Charlie Wilson"},
			DecisionsCount: intPtr(3),
			TasksCount:     intPtr(5),
			Status:         "completed",
		},
		{
			ID:    "default-meeting-2",
			Title: "Product Review Meeting",
			RawNotes: `Meeting: Product Review Meeting
Date: January 14, 2024
Attendees: Jane Smith, Alice Brown, Charlie Wilson, Mike Torres, Sarah Chen

Discussion Points:
- Review current product features
- Discuss user feedback
- Plan new feature releases
- Address technical debt
- Review design system updates`,
			Summary:        strPtr("The product review meeting covered current features, user feedback, and upcoming releases. The team discussed technical debt and design system improvements."),
			MeetingDate:    "2024-01-14",
			CreatedAt:      sampleTime("2024-01-14T10:00:00Z"),
			Participants:   []string{"Jane Smith", "Alice Brown", "Charlie Wilson", "Mike Torres", "Sarah Chen"},
			DecisionsCount: intPtr(5),
			TasksCount:     intPtr(8),
			Status:         "completed",
		},
		{
			ID:    "default-meeting-3",
			Title: "Team Standup",
			RawNotes: `Meeting: Team Standup
Date: January 14, 2024
Attendees: John Doe, Jane Smith, Bob Johnson, Alice Brown, Charlie Wilson, Mike Torres, Sarah Chen, Alex Kim

Discussion Points:
- Daily progress updates
- Blockers and challenges
- Upcoming priorities
- Resource needs`,
			Summary:        strPtr("Daily standup covered progress updates, blockers, and upcoming priorities. Team identified resource needs and action items."),
			MeetingDate:    "2024-01-14",
			CreatedAt:      sampleTime("2024-01-14T09:00:00Z"),
			Participants:   []string{"John Doe", "Jane Smith", "Bob Johnson", "Alice Brown", "Charlie Wilson", "Mike Torres", "Sarah Chen", "Alex Kim"},
			DecisionsCount: intPtr(2),
			TasksCount:     intPtr(4),
			Status:         "completed",
		},
	}
}

type sampleTask struct {
	id, meetingID, title, status, deadline, owner, createdAt string
}

var sampleTaskRows = []sampleTask{
	{"default-task-1", "default-meeting-1", "Post job listings for senior engineers", "Not Started", "2024-01-20", "Jane Smith", "2024-01-15T14:00:00Z"},
	{"default-task-2", "default-meeting-1", "Prepare revised marketing budget proposal", "In Progress", "2024-01-22", "Bob Johnson", "2024-01-15T14:00:00Z"},
	{"default-task-3", "default-meeting-1", "Create client presentation schedule", "Not Started", "2024-01-18", "Alice Brown", "2024-01-15T14:00:00Z"},
	{"default-task-4", "default-meeting-1", "Update product roadmap with Q4 initiatives", "Not Started", "2024-01-25", "John Doe", "2024-01-15T14:00:00Z"},
	{"default-task-5", "default-meeting-1", "Send meeting summary to all stakeholders", "Done", "2024-01-16", "Charlie Wilson", "2024-01-15T14:00:00Z"},
	{"default-task-6", "default-meeting-2", "Review Q3 performance metrics", "Not Started", "2024-01-22", "Charlie Wilson", "2024-01-14T10:00:00Z"},
	{"default-task-7", "default-meeting-2", "Design new feature mockups", "In Progress", "2024-01-19", "Jane Smith", "2024-01-14T10:00:00Z"},
	{"default-task-8", "default-meeting-3", "Conduct user research interviews", "In Progress", "2024-01-23", "Alice Brown", "2024-01-14T09:00:00Z"},
	{"default-task-9", "default-meeting-3", "Update team on project status", "Done", "2024-01-15", "John Doe", "2024-01-14T09:00:00Z"},
}

// SampleTasks returns a fresh copy of the shared tasks.
func SampleTasks() []Task {
	out := make([]Task, 0, len(sampleTaskRows))
	for _, row := range sampleTaskRows {
		status, _ := ClassifyStatus(row.status)
		out = append(out, Task{
			ID:        row.id,
			MeetingID: row.meetingID,
			Title:     row.title,
			Status:    status,
			Deadline:  sampleDate(row.deadline),
			Owner:     row.owner,
			CreatedAt: sampleTime(row.createdAt),
		})
	}
	return out
}

// IsSampleID reports whether id names a shared sample meeting or task.
func IsSampleID(id string) bool {
	for _, m := range SampleMeetings() {
		if m.ID == id {
			return true
		}
	}
	for _, row := range sampleTaskRows {
		if row.id == id {
			return true
		}
	}
	return false
}
