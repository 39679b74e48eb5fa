package storage

import (
	"encoding/json"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"recap/domain"
)

const (
	edmInt32 = "Edm.Int32"
	edmInt64 = "Edm.Int64"
)

// entity represents base table entity keys.
type entity struct {
	PartitionKey string `json:"PartitionKey"`
	RowKey       string `json:"RowKey"`
}

type meetingEntity struct {
	entity
	Title              string  `json:"Title"`
	RawNotes           string  `json:"RawNotes"`
	Summary            *string `json:"Summary,omitempty"`
	MeetingDate        string  `json:"MeetingDate,omitempty"`
	Participants       string  `json:"Participants,omitempty"`
	DecisionsCount     *int    `json:"DecisionsCount,omitempty"`
	DecisionsCountType string  `json:"DecisionsCount@odata.type,omitempty"`
	TasksCount         *int    `json:"TasksCount,omitempty"`
	TasksCountType     string  `json:"TasksCount@odata.type,omitempty"`
	Status             string  `json:"Status,omitempty"`
	CreatedAt          int64   `json:"CreatedAt,string"`
	CreatedAtType      string  `json:"CreatedAt@odata.type"`
}

type meetingSummaryUpdate struct {
	entity
	Summary string `json:"Summary"`
}

type meetingTasksCountUpdate struct {
	entity
	TasksCount     int    `json:"TasksCount"`
	TasksCountType string `json:"TasksCount@odata.type"`
}

type taskEntity struct {
	entity
	MeetingID     string `json:"MeetingId,omitempty"`
	Title         string `json:"Title"`
	Status        string `json:"Status"`
	Deadline      string `json:"Deadline,omitempty"`
	Owner         string `json:"Owner,omitempty"`
	CreatedAt     int64  `json:"CreatedAt,string"`
	CreatedAtType string `json:"CreatedAt@odata.type"`
}

// taskUpdate carries partial updates for a task. An empty Deadline clears it.
type taskUpdate struct {
	entity
	Status   *string `json:"Status,omitempty"`
	Owner    *string `json:"Owner,omitempty"`
	Deadline *string `json:"Deadline,omitempty"`
}

// Participants are stored newline separated since names may contain commas.
const participantSep = "\n"

func encodeMeeting(m domain.Meeting) ([]byte, error) {
	uid, _ := m.Ownership.UserID()
	ent := meetingEntity{
		entity:         entity{PartitionKey: uid, RowKey: m.ID},
		Title:          m.Title,
		RawNotes:       m.RawNotes,
		Summary:        m.Summary,
		MeetingDate:    m.MeetingDate,
		Participants:   strings.Join(m.Participants, participantSep),
		DecisionsCount: m.DecisionsCount,
		TasksCount:     m.TasksCount,
		Status:         m.Status,
		CreatedAt:      m.CreatedAt.UnixMilli(),
		CreatedAtType:  edmInt64,
	}
	if ent.DecisionsCount != nil {
		ent.DecisionsCountType = edmInt32
	}
	if ent.TasksCount != nil {
		ent.TasksCountType = edmInt32
	}
	return json.Marshal(ent)
}

func decodeMeeting(data []byte) (domain.Meeting, error) {
	var ent meetingEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return domain.Meeting{}, err
	}
	m := domain.Meeting{
		ID:             ent.RowKey,
		Ownership:      domain.Owned(ent.PartitionKey),
		Title:          ent.Title,
		RawNotes:       ent.RawNotes,
		Summary:        ent.Summary,
		MeetingDate:    ent.MeetingDate,
		DecisionsCount: ent.DecisionsCount,
		TasksCount:     ent.TasksCount,
		Status:         ent.Status,
		CreatedAt:      time.UnixMilli(ent.CreatedAt).UTC(),
	}
	if ent.Participants != "" {
		m.Participants = strings.Split(ent.Participants, participantSep)
	}
	return m, nil
}

func encodeTask(ref domain.TaskRef, t domain.Task) ([]byte, error) {
	ent := taskEntity{
		entity:        entity{PartitionKey: ref.UserID(), RowKey: ref.TaskID()},
		MeetingID:     t.MeetingID,
		Title:         t.Title,
		Status:        t.Status.String(),
		Owner:         t.Owner,
		CreatedAt:     t.CreatedAt.UnixMilli(),
		CreatedAtType: edmInt64,
	}
	if t.Deadline != nil {
		ent.Deadline = t.Deadline.Format(domain.DateLayout)
	}
	return json.Marshal(ent)
}

func encodeTaskPatch(ref domain.TaskRef, p domain.TaskPatch) ([]byte, error) {
	upd := taskUpdate{entity: entity{PartitionKey: ref.UserID(), RowKey: ref.TaskID()}}
	if p.Status != nil {
		s := p.Status.String()
		upd.Status = &s
	}
	if p.Owner != nil {
		o := strings.TrimSpace(*p.Owner)
		upd.Owner = &o
	}
	if p.Deadline != nil {
		d, err := domain.ParseDeadline(*p.Deadline)
		if err != nil {
			return nil, err
		}
		formatted := ""
		if d != nil {
			formatted = d.Format(domain.DateLayout)
		}
		upd.Deadline = &formatted
	}
	return json.Marshal(upd)
}

func decodeTask(data []byte) (domain.Task, error) {
	var ent taskEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return domain.Task{}, err
	}
	status, ok := domain.ClassifyStatus(ent.Status)
	if !ok {
		log.WithFields(log.Fields{
			"task_id": ent.RowKey,
			"status":  ent.Status,
		}).Warn("unknown stored task status, treating as not-started")
	}
	t := domain.Task{
		ID:        ent.RowKey,
		Ownership: domain.Owned(ent.PartitionKey),
		MeetingID: ent.MeetingID,
		Title:     ent.Title,
		Status:    status,
		Owner:     ent.Owner,
		CreatedAt: time.UnixMilli(ent.CreatedAt).UTC(),
	}
	if ent.Deadline != "" {
		d, err := domain.ParseDeadline(ent.Deadline)
		if err != nil {
			log.WithError(err).WithField("task_id", ent.RowKey).Warn("ignoring unreadable task deadline")
		} else {
			t.Deadline = d
		}
	}
	return t, nil
}
