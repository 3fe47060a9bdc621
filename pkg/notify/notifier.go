package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"taskboard/pkg/models"
)

const (
	KindTaskCreatedHighPriority = "task-created-high-priority"
	KindTaskCompleted           = "task-completed"
)

// Event is the wire payload for task notifications.
type Event struct {
	EventID       string  `json:"eventId"`
	Kind          string  `json:"kind"`
	TaskID        uint    `json:"taskId"`
	Title         string  `json:"title"`
	Priority      string  `json:"priority"`
	Status        string  `json:"status"`
	Deadline      *string `json:"deadline"`
	OwnerUsername string  `json:"ownerUsername"`
}

func NewTaskEvent(task *models.Task, ownerUsername string) Event {
	ev := Event{
		EventID:       uuid.NewString(),
		TaskID:        task.ID,
		Title:         task.Title,
		Priority:      string(task.Priority),
		Status:        string(task.Status),
		OwnerUsername: ownerUsername,
	}
	if task.Deadline != nil {
		d := task.Deadline.Format("2006-01-02")
		ev.Deadline = &d
	}
	return ev
}

// Dispatcher delivers events best-effort. Dispatch must return immediately
// and must never surface delivery errors to the caller.
type Dispatcher interface {
	Dispatch(kind string, event Event)
}

const publishTimeout = 5 * time.Second

// RedisPublisher pushes events onto a redis pub/sub channel from a detached
// goroutine, so a slow or dead broker never blocks the owning transaction.
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
}

func NewRedisPublisher(rdb *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, channel: channel}
}

func (p *RedisPublisher) Dispatch(kind string, event Event) {
	event.Kind = kind
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		payload, err := json.Marshal(event)
		if err != nil {
			zap.L().Error("failed to encode task event",
				zap.String("kind", kind), zap.Uint("task_id", event.TaskID), zap.Error(err))
			return
		}
		if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
			zap.L().Error("failed to publish task event",
				zap.String("kind", kind), zap.Uint("task_id", event.TaskID), zap.Error(err))
			return
		}
		zap.L().Info("published task event",
			zap.String("kind", kind), zap.Uint("task_id", event.TaskID))
	}()
}

var _ Dispatcher = (*RedisPublisher)(nil)
