package api

import (
	"context"

	"recap/domain"
	"recap/ingest"
	"recap/summarizer"
)

// Storage abstracts the record store for handlers.
type Storage interface {
	GetMeeting(ctx context.Context, userID, id string) (domain.Meeting, error)
	ListMeetings(ctx context.Context, userID string) ([]domain.Meeting, error)
	ListTasks(ctx context.Context, userID string) ([]domain.Task, error)
	GetTask(ctx context.Context, userID, id string) (domain.Task, error)
	CreateTask(ctx context.Context, t domain.Task) error
	UpdateTask(ctx context.Context, ref domain.TaskRef, patch domain.TaskPatch) error
	PublishEvent(ctx context.Context, evt domain.Event) error
}

// Authenticator is implemented by types able to verify an Authorization header.
type Authenticator interface {
	Authenticate(header string) (Session, error)
}

// Deduper prevents processing of duplicate uploads.
type Deduper interface {
	// Add records the idempotency key and returns true if it was newly added.
	Add(ctx context.Context, userID, key string) (bool, error)
	// Remove deletes a previously added key, used when downstream processing fails.
	Remove(ctx context.Context, userID, key string) error
}

// Ingestor runs the upload workflow.
type Ingestor interface {
	Run(ctx context.Context, userID, token string, in domain.UploadInput) (ingest.Result, error)
}

// Summarizer forwards a summarize request to the gateway.
type Summarizer interface {
	Validate() error
	Summarize(ctx context.Context, token string, body any) (summarizer.Response, error)
}

var _ Summarizer = (*summarizer.Client)(nil)

var _ Ingestor = (*ingest.Workflow)(nil)

// Deps bundles what Register wires into the routes.
type Deps struct {
	Store      Storage
	Auth       Authenticator
	Deduper    Deduper
	Ingestor   Ingestor
	Summarizer Summarizer
	// ProjectRef names the session cookie sb-<ref>-auth-token read by the
	// summarize relay.
	ProjectRef string
}
