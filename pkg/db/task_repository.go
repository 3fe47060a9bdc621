package db

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"taskboard/pkg/models"
	"taskboard/pkg/taskerr"
	"taskboard/pkg/tasks"
)

// TaskRepository persists task aggregates. Every write runs in one
// transaction; scalar updates are guarded by a version check, so a stale
// writer gets taskerr.ErrConflict and nothing is partially applied.
type TaskRepository struct {
	store *Store
}

func NewTaskRepository(store *Store) *TaskRepository {
	return &TaskRepository{store: store}
}

var _ tasks.Repository = (*TaskRepository)(nil)

func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.store.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		subtasks := task.Subtasks
		task.Subtasks = nil
		task.Version = 1
		if err := tx.Create(task).Error; err != nil {
			return err
		}

		// Parent back-reference is set before each insert.
		for i := range subtasks {
			subtasks[i].TaskID = task.ID
			subtasks[i].Version = 1
			if err := tx.Create(&subtasks[i]).Error; err != nil {
				return err
			}
		}
		task.Subtasks = subtasks
		return nil
	})
}

func (r *TaskRepository) FindByID(ctx context.Context, id uint) (*models.Task, error) {
	var task models.Task
	err := r.store.DB.WithContext(ctx).Preload("Subtasks").First(&task, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, taskerr.ErrNotFound
		}
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) Query(ctx context.Context, ownerID uint, q tasks.Query) ([]models.Task, int64, error) {
	var total int64
	if err := q.Apply(r.store.DB.WithContext(ctx).Model(&models.Task{}), ownerID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []models.Task
	err := q.Apply(r.store.DB.WithContext(ctx).Model(&models.Task{}), ownerID).
		Order(q.OrderClause()).
		Offset(q.Page * q.Size).
		Limit(q.Size).
		Preload("Subtasks").
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *TaskRepository) Update(ctx context.Context, task *models.Task, deletedSubTaskIDs []uint) error {
	return r.store.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateTaskScalars(tx, task); err != nil {
			return err
		}

		if len(deletedSubTaskIDs) > 0 {
			if err := tx.Where("id IN ? AND task_id = ?", deletedSubTaskIDs, task.ID).
				Delete(&models.SubTask{}).Error; err != nil {
				return err
			}
		}

		for i := range task.Subtasks {
			st := &task.Subtasks[i]
			st.TaskID = task.ID
			if st.ID == 0 {
				st.Version = 1
				if err := tx.Create(st).Error; err != nil {
					return err
				}
				continue
			}
			if err := updateSubTaskScalars(tx, st); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *TaskRepository) SaveScalars(ctx context.Context, task *models.Task) error {
	return r.store.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return updateTaskScalars(tx, task)
	})
}

func (r *TaskRepository) Delete(ctx context.Context, task *models.Task) error {
	return r.store.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", task.ID).Delete(&models.SubTask{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Task{}, task.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return taskerr.ErrNotFound
		}
		return nil
	})
}

// FindByStatus loads tasks across all owners. Used by the reminder sweep,
// which is a system-level job and deliberately not ownership-scoped.
func (r *TaskRepository) FindByStatus(ctx context.Context, status models.Status) ([]models.Task, error) {
	var items []models.Task
	err := r.store.DB.WithContext(ctx).Where("status = ?", status).Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func updateTaskScalars(tx *gorm.DB, task *models.Task) error {
	res := tx.Model(&models.Task{}).
		Where("id = ? AND version = ?", task.ID, task.Version).
		Updates(map[string]interface{}{
			"title":          task.Title,
			"priority":       task.Priority,
			"status":         task.Status,
			"deadline":       task.Deadline,
			"attachment_url": task.AttachmentURL,
			"version":        task.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return taskerr.ErrConflict
	}
	task.Version++
	return nil
}

func updateSubTaskScalars(tx *gorm.DB, st *models.SubTask) error {
	res := tx.Model(&models.SubTask{}).
		Where("id = ? AND version = ?", st.ID, st.Version).
		Updates(map[string]interface{}{
			"title":    st.Title,
			"priority": st.Priority,
			"status":   st.Status,
			"deadline": st.Deadline,
			"version":  st.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return taskerr.ErrConflict
	}
	st.Version++
	return nil
}
