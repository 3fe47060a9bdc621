package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"taskboard/pkg/models"
	"taskboard/pkg/notify"
)

type TaskStore interface {
	FindByStatus(ctx context.Context, status models.Status) ([]models.Task, error)
	SaveScalars(ctx context.Context, task *models.Task) error
}

type UserStore interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
}

type CacheSweeper interface {
	InvalidateAll(ctx context.Context)
}

// Reminder is the system-level maintenance job: on every tick it completes
// all pending tasks, across all owners, and notifies per task. It runs
// outside any request context and never reads the per-request cache.
type Reminder struct {
	tasks      TaskStore
	users      UserStore
	cache      CacheSweeper
	dispatcher notify.Dispatcher
	mailer     notify.EmailSender
	cron       *cron.Cron
	spec       string
}

func NewReminder(tasks TaskStore, users UserStore, cache CacheSweeper, dispatcher notify.Dispatcher, mailer notify.EmailSender, spec string) *Reminder {
	return &Reminder{
		tasks:      tasks,
		users:      users,
		cache:      cache,
		dispatcher: dispatcher,
		mailer:     mailer,
		cron:       cron.New(),
		spec:       spec,
	}
}

func (r *Reminder) Start() error {
	_, err := r.cron.AddFunc(r.spec, func() {
		r.Run(context.Background())
	})
	if err != nil {
		return err
	}
	r.cron.Start()
	return nil
}

func (r *Reminder) Stop() {
	r.cron.Stop()
}

// Run performs one sweep. Each task's transition is independent: a failed
// persist or notification is logged and the sweep moves on. A version
// conflict here means a request-driven update won the race; that task is
// skipped and picked up again next tick if still pending.
func (r *Reminder) Run(ctx context.Context) {
	pending, err := r.tasks.FindByStatus(ctx, models.StatusPending)
	if err != nil {
		zap.L().Error("reminder sweep failed to load pending tasks", zap.Error(err))
		return
	}
	if len(pending) == 0 {
		return
	}

	completed := 0
	for i := range pending {
		task := &pending[i]
		task.Status = models.StatusCompleted
		if err := r.tasks.SaveScalars(ctx, task); err != nil {
			zap.L().Warn("reminder sweep could not complete task",
				zap.Uint("task_id", task.ID), zap.Error(err))
			continue
		}
		completed++
		zap.L().Info("marked pending task as completed",
			zap.Uint("task_id", task.ID), zap.String("title", task.Title))

		r.notifyCompleted(ctx, task)
	}

	if completed > 0 {
		r.cache.InvalidateAll(ctx)
	}
	zap.L().Info("reminder sweep finished",
		zap.Int("pending", len(pending)), zap.Int("completed", completed))
}

func (r *Reminder) notifyCompleted(ctx context.Context, task *models.Task) {
	var username, email string
	owner, err := r.users.FindByID(ctx, task.UserID)
	if err != nil {
		zap.L().Warn("reminder sweep could not resolve task owner",
			zap.Uint("task_id", task.ID), zap.Uint("owner_id", task.UserID), zap.Error(err))
	} else {
		username = owner.Username
		email = owner.Email
	}

	r.dispatcher.Dispatch(notify.KindTaskCompleted, notify.NewTaskEvent(task, username))
	r.mailer.SendTaskCompleted(email, task.Title, task.ID)
}
