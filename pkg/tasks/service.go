package tasks

import (
	"context"
	"time"

	"go.uber.org/zap"

	"taskboard/pkg/auth"
	"taskboard/pkg/models"
	"taskboard/pkg/notify"
	"taskboard/pkg/taskerr"
)

// Repository is the transactional gateway for task aggregates. Every write is
// all-or-nothing and version-checked; a stale version surfaces as
// taskerr.ErrConflict.
type Repository interface {
	Create(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, id uint) (*models.Task, error)
	Query(ctx context.Context, ownerID uint, q Query) ([]models.Task, int64, error)
	// Update persists the task's scalar fields and its reconciled subtask
	// collection, deleting the given subtask ids, in one transaction.
	Update(ctx context.Context, task *models.Task, deletedSubTaskIDs []uint) error
	// SaveScalars updates the task's scalar columns only, leaving subtasks
	// untouched.
	SaveScalars(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, task *models.Task) error
}

type SubTaskRepository interface {
	Create(ctx context.Context, st *models.SubTask) error
	FindByID(ctx context.Context, id uint) (*models.SubTask, error)
	Update(ctx context.Context, st *models.SubTask) error
	Delete(ctx context.Context, st *models.SubTask) error
	ListByTask(ctx context.Context, taskID uint) ([]models.SubTask, error)
}

// Cache is the shared read-through cache. Implementations must degrade to
// misses on backend failure; the service never treats a cache error as fatal.
type Cache interface {
	GetList(ctx context.Context, key string) (*Page, bool)
	SetList(ctx context.Context, key string, page *Page)
	GetTask(ctx context.Context, id uint) (*models.Task, bool)
	SetTask(ctx context.Context, task *models.Task)
	InvalidateTask(ctx context.Context, id uint)
	InvalidateOwner(ctx context.Context, ownerID uint)
}

type AttachmentStore interface {
	Upload(data []byte, name string) (string, error)
}

// Service orchestrates the task/subtask aggregate: ownership scoping,
// reconciliation, optimistic-concurrency writes, cache invalidation and
// side-effect dispatch.
type Service struct {
	repo        Repository
	subs        SubTaskRepository
	cache       Cache
	dispatcher  notify.Dispatcher
	attachments AttachmentStore
	now         func() time.Time
}

func NewService(repo Repository, subs SubTaskRepository, cache Cache, dispatcher notify.Dispatcher, attachments AttachmentStore) *Service {
	return &Service{
		repo:        repo,
		subs:        subs,
		cache:       cache,
		dispatcher:  dispatcher,
		attachments: attachments,
		now:         time.Now,
	}
}

// Create persists a new task, with any nested subtasks linked to it, owned by
// the caller. A caller-supplied owner or id is ignored. High-priority tasks
// trigger an asynchronous creation event after commit.
func (s *Service) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	owner, err := auth.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	task.ID = 0
	task.UserID = owner.ID
	task.Version = 0
	for i := range task.Subtasks {
		task.Subtasks[i].ID = 0
		task.Subtasks[i].Version = 0
	}

	if err := task.Validate(s.now()); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, task); err != nil {
		return nil, err
	}

	if task.Priority == models.PriorityHigh {
		s.dispatcher.Dispatch(notify.KindTaskCreatedHighPriority, notify.NewTaskEvent(task, owner.Username))
	}

	// The new task may match any number of filter combinations, so the whole
	// owner namespace goes.
	s.cache.InvalidateOwner(ctx, owner.ID)
	return task, nil
}

// Get loads a task by id. Absence is ErrNotFound; a task owned by someone
// else is ErrAccessDenied, reported precisely at this layer.
func (s *Service) Get(ctx context.Context, id uint) (*models.Task, error) {
	owner, err := auth.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	task, ok := s.cache.GetTask(ctx, id)
	if !ok {
		task, err = s.repo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		s.cache.SetTask(ctx, task)
	}

	if task.UserID != owner.ID {
		zap.L().Warn("task access denied",
			zap.Uint("task_id", id),
			zap.Uint("owner_id", task.UserID),
			zap.Uint("caller_id", owner.ID))
		return nil, taskerr.ErrAccessDenied
	}
	return task, nil
}

// List returns one page of the caller's tasks matching the query. Identical
// parameter tuples are served from cache until the next write invalidates it.
func (s *Service) List(ctx context.Context, q Query) (*Page, error) {
	owner, err := auth.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	q = q.Normalize()
	if err := q.Validate(); err != nil {
		return nil, err
	}

	key := q.CacheKey(owner.ID)
	if page, ok := s.cache.GetList(ctx, key); ok {
		return page, nil
	}

	items, total, err := s.repo.Query(ctx, owner.ID, q)
	if err != nil {
		return nil, err
	}

	page := &Page{Items: items, TotalCount: total, Page: q.Page, Size: q.Size}
	s.cache.SetList(ctx, key, page)
	return page, nil
}

// Update applies full-replace semantics: every scalar field of the existing
// task is overwritten from the input, including zero values the caller may
// not have meant to send. The subtask list is reconciled by id; a nil list
// clears the collection. A stale version fails with ErrConflict and is never
// retried here.
func (s *Service) Update(ctx context.Context, task *models.Task) (*models.Task, error) {
	owner, existing, err := s.ownedTask(ctx, task.ID)
	if err != nil {
		return nil, err
	}

	existing.Title = task.Title
	existing.Priority = task.Priority
	existing.Deadline = task.Deadline
	existing.Status = task.Status

	next, deletedIDs := ReconcileSubTasks(existing.Subtasks, task.Subtasks, existing.ID)
	existing.Subtasks = next

	if err := existing.Validate(s.now()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, existing, deletedIDs); err != nil {
		return nil, err
	}

	if existing.Priority == models.PriorityHigh {
		s.dispatcher.Dispatch(notify.KindTaskCreatedHighPriority, notify.NewTaskEvent(existing, owner.Username))
	}

	s.cache.InvalidateOwner(ctx, owner.ID)
	s.cache.SetTask(ctx, existing)
	return existing, nil
}

// Delete removes the task and all of its subtasks. No event is dispatched.
func (s *Service) Delete(ctx context.Context, id uint) error {
	owner, existing, err := s.ownedTask(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, existing); err != nil {
		return err
	}
	s.cache.InvalidateTask(ctx, id)
	s.cache.InvalidateOwner(ctx, owner.ID)
	return nil
}

// CreateSubTask inserts a subtask directly under an owned parent, outside the
// reconciliation path.
func (s *Service) CreateSubTask(ctx context.Context, taskID uint, st *models.SubTask) (*models.SubTask, error) {
	owner, _, err := s.ownedTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	st.ID = 0
	st.Version = 0
	st.TaskID = taskID
	if err := st.Validate(s.now()); err != nil {
		return nil, err
	}
	if err := s.subs.Create(ctx, st); err != nil {
		return nil, err
	}

	s.cache.InvalidateTask(ctx, taskID)
	s.cache.InvalidateOwner(ctx, owner.ID)
	return st, nil
}

// UpdateSubTask overwrites the subtask's scalar fields unconditionally.
// Ownership is checked through the parent task.
func (s *Service) UpdateSubTask(ctx context.Context, st *models.SubTask) (*models.SubTask, error) {
	existing, err := s.subs.FindByID(ctx, st.ID)
	if err != nil {
		return nil, err
	}
	owner, _, err := s.ownedTask(ctx, existing.TaskID)
	if err != nil {
		return nil, err
	}

	existing.Title = st.Title
	existing.Priority = st.Priority
	existing.Status = st.Status
	existing.Deadline = st.Deadline

	if err := existing.Validate(s.now()); err != nil {
		return nil, err
	}
	if err := s.subs.Update(ctx, existing); err != nil {
		return nil, err
	}

	s.cache.InvalidateTask(ctx, existing.TaskID)
	s.cache.InvalidateOwner(ctx, owner.ID)
	return existing, nil
}

func (s *Service) DeleteSubTask(ctx context.Context, id uint) error {
	existing, err := s.subs.FindByID(ctx, id)
	if err != nil {
		return err
	}
	owner, _, err := s.ownedTask(ctx, existing.TaskID)
	if err != nil {
		return err
	}
	if err := s.subs.Delete(ctx, existing); err != nil {
		return err
	}
	s.cache.InvalidateTask(ctx, existing.TaskID)
	s.cache.InvalidateOwner(ctx, owner.ID)
	return nil
}

func (s *Service) ListSubTasks(ctx context.Context, taskID uint) ([]models.SubTask, error) {
	_, _, err := s.ownedTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return s.subs.ListByTask(ctx, taskID)
}

// UploadAttachment stores the file and records its url on the task.
func (s *Service) UploadAttachment(ctx context.Context, taskID uint, data []byte, filename string) (*models.Task, error) {
	owner, existing, err := s.ownedTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	url, err := s.attachments.Upload(data, filename)
	if err != nil {
		return nil, err
	}

	existing.AttachmentURL = url
	if err := s.repo.SaveScalars(ctx, existing); err != nil {
		return nil, err
	}

	s.cache.InvalidateOwner(ctx, owner.ID)
	s.cache.SetTask(ctx, existing)
	return existing, nil
}

// ownedTask loads the task and verifies the caller owns it. The not-found and
// access-denied outcomes stay distinct so the boundary can decide whether to
// mask them.
func (s *Service) ownedTask(ctx context.Context, id uint) (models.User, *models.Task, error) {
	owner, err := auth.CurrentUser(ctx)
	if err != nil {
		return models.User{}, nil, err
	}
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return models.User{}, nil, err
	}
	if task.UserID != owner.ID {
		zap.L().Warn("task access denied",
			zap.Uint("task_id", id),
			zap.Uint("owner_id", task.UserID),
			zap.Uint("caller_id", owner.ID))
		return models.User{}, nil, taskerr.ErrAccessDenied
	}
	return owner, task, nil
}
