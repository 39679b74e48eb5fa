package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"recap/domain"
)

type backend interface {
	CreateMeeting(ctx context.Context, m domain.Meeting) error
	GetMeeting(ctx context.Context, userID, id string) (domain.Meeting, error)
	ListMeetings(ctx context.Context, userID string) ([]domain.Meeting, error)
	UpdateMeetingSummary(ctx context.Context, userID, id, summary string) error
	UpdateMeetingTasksCount(ctx context.Context, userID, id string, n int) error
	ListTasks(ctx context.Context, userID string) ([]domain.Task, error)
	GetTask(ctx context.Context, userID, id string) (domain.Task, error)
	CreateTask(ctx context.Context, t domain.Task) error
	UpdateTask(ctx context.Context, ref domain.TaskRef, patch domain.TaskPatch) error
	PublishEvent(ctx context.Context, evt domain.Event) error
}

// Cache wraps a backend with Redis-backed caching for the list reads.
// Writes go straight to the backend and evict the user's cached lists.
type Cache struct {
	base  backend
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching wrapper using the provided Redis client and TTL.
func NewCache(base backend, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base storage is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{base: base, redis: client, ttl: ttl}
}

func (c *Cache) ListMeetings(ctx context.Context, userID string) ([]domain.Meeting, error) {
	var meetings []domain.Meeting
	if c.load(ctx, meetingsCacheKey(userID), &meetings) {
		return meetings, nil
	}
	meetings, err := c.base.ListMeetings(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.store(ctx, meetingsCacheKey(userID), meetings)
	return meetings, nil
}

func (c *Cache) ListTasks(ctx context.Context, userID string) ([]domain.Task, error) {
	var tasks []domain.Task
	if c.load(ctx, tasksCacheKey(userID), &tasks) {
		return tasks, nil
	}
	tasks, err := c.base.ListTasks(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.store(ctx, tasksCacheKey(userID), tasks)
	return tasks, nil
}

func (c *Cache) GetMeeting(ctx context.Context, userID, id string) (domain.Meeting, error) {
	return c.base.GetMeeting(ctx, userID, id)
}

func (c *Cache) GetTask(ctx context.Context, userID, id string) (domain.Task, error) {
	return c.base.GetTask(ctx, userID, id)
}

func (c *Cache) CreateMeeting(ctx context.Context, m domain.Meeting) error {
	if err := c.base.CreateMeeting(ctx, m); err != nil {
		return err
	}
	uid, _ := m.Ownership.UserID()
	c.evict(ctx, meetingsCacheKey(uid))
	return nil
}

func (c *Cache) UpdateMeetingSummary(ctx context.Context, userID, id, summary string) error {
	if err := c.base.UpdateMeetingSummary(ctx, userID, id, summary); err != nil {
		return err
	}
	c.evict(ctx, meetingsCacheKey(userID))
	return nil
}

func (c *Cache) UpdateMeetingTasksCount(ctx context.Context, userID, id string, n int) error {
	if err := c.base.UpdateMeetingTasksCount(ctx, userID, id, n); err != nil {
		return err
	}
	c.evict(ctx, meetingsCacheKey(userID))
	return nil
}

// Invalidate drops every cached list of the user.
func (c *Cache) Invalidate(ctx context.Context, userID string) {
	c.evict(ctx, meetingsCacheKey(userID), tasksCacheKey(userID))
}

func (c *Cache) CreateTask(ctx context.Context, t domain.Task) error {
	if err := c.base.CreateTask(ctx, t); err != nil {
		return err
	}
	uid, _ := t.Ownership.UserID()
	c.evict(ctx, tasksCacheKey(uid))
	return nil
}

func (c *Cache) UpdateTask(ctx context.Context, ref domain.TaskRef, patch domain.TaskPatch) error {
	err := c.base.UpdateTask(ctx, ref, patch)
	// Evict on failure too: a merge may have landed before the error surfaced.
	c.evict(ctx, tasksCacheKey(ref.UserID()))
	return err
}

func (c *Cache) PublishEvent(ctx context.Context, evt domain.Event) error {
	return c.base.PublishEvent(ctx, evt)
}

func (c *Cache) load(ctx context.Context, key string, dst any) bool {
	if c.redis == nil {
		return false
	}
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing storage without failing.
			_ = c.redis.Del(ctx, key).Err()
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return false
	}
	return true
}

func (c *Cache) store(ctx context.Context, key string, v any) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context, keys ...string) {
	if c.redis == nil {
		return
	}
	_, _ = c.redis.Del(ctx, keys...).Result()
}

func meetingsCacheKey(userID string) string {
	return "meetings:" + userID
}

func tasksCacheKey(userID string) string {
	return "tasks:" + userID
}
