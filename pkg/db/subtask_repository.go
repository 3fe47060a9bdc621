package db

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"taskboard/pkg/models"
	"taskboard/pkg/taskerr"
	"taskboard/pkg/tasks"
)

// SubTaskRepository serves the subtask-scoped operations that bypass the
// parent task's reconciliation path.
type SubTaskRepository struct {
	store *Store
}

func NewSubTaskRepository(store *Store) *SubTaskRepository {
	return &SubTaskRepository{store: store}
}

var _ tasks.SubTaskRepository = (*SubTaskRepository)(nil)

func (r *SubTaskRepository) Create(ctx context.Context, st *models.SubTask) error {
	st.Version = 1
	return r.store.DB.WithContext(ctx).Create(st).Error
}

func (r *SubTaskRepository) FindByID(ctx context.Context, id uint) (*models.SubTask, error) {
	var st models.SubTask
	err := r.store.DB.WithContext(ctx).First(&st, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, taskerr.ErrNotFound
		}
		return nil, err
	}
	return &st, nil
}

func (r *SubTaskRepository) Update(ctx context.Context, st *models.SubTask) error {
	return r.store.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return updateSubTaskScalars(tx, st)
	})
}

func (r *SubTaskRepository) Delete(ctx context.Context, st *models.SubTask) error {
	res := r.store.DB.WithContext(ctx).Delete(&models.SubTask{}, st.ID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return taskerr.ErrNotFound
	}
	return nil
}

func (r *SubTaskRepository) ListByTask(ctx context.Context, taskID uint) ([]models.SubTask, error) {
	var items []models.SubTask
	err := r.store.DB.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
