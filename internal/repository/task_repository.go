package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"famtasks/internal/model"
)

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// ListByHousehold returns open tasks first, then by sort order, newest first
// within equal sort orders.
func (r *TaskRepository) ListByHousehold(ctx context.Context, householdID uuid.UUID) ([]model.Task, error) {
	var tasks []model.Task
	result := r.db.WithContext(ctx).
		Where("household_id = ?", householdID).
		Order("is_done").
		Order("sort_order").
		Order("created_at DESC").
		Find(&tasks)
	if result.Error != nil {
		return nil, result.Error
	}
	return tasks, nil
}

// GetByID retrieves a task of the household by its ID
func (r *TaskRepository) GetByID(ctx context.Context, householdID, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	result := r.db.WithContext(ctx).First(&task, "id = ? AND household_id = ?", id, householdID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, result.Error
	}
	return &task, nil
}

// Create inserts the task, keeping a caller supplied ID.
func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(task).Error
}

// Update applies the patch and returns the stored row.
func (r *TaskRepository) Update(ctx context.Context, householdID, id uuid.UUID, patch model.TaskPatch) (*model.Task, error) {
	var task model.Task
	result := r.db.WithContext(ctx).Model(&task).
		Clauses(clause.Returning{}).
		Where("id = ? AND household_id = ?", id, householdID).
		Updates(patch.Columns())
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrTaskNotFound
	}
	return &task, nil
}

// Delete removes a task and returns the deleted row.
func (r *TaskRepository) Delete(ctx context.Context, householdID, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	result := r.db.WithContext(ctx).
		Clauses(clause.Returning{}).
		Where("id = ? AND household_id = ?", id, householdID).
		Delete(&task)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrTaskNotFound
	}
	return &task, nil
}

// Reorder assigns sort orders 0..n-1 to the given tasks in one transaction
// and returns the updated rows. Any unknown ID aborts the whole batch.
func (r *TaskRepository) Reorder(ctx context.Context, householdID uuid.UUID, taskIDs []uuid.UUID) ([]model.Task, error) {
	updated := make([]model.Task, 0, len(taskIDs))
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, id := range taskIDs {
			var task model.Task
			result := tx.Model(&task).
				Clauses(clause.Returning{}).
				Where("id = ? AND household_id = ?", id, householdID).
				Update("sort_order", i)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return ErrTaskNotFound
			}
			updated = append(updated, task)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ListAssignees returns the profiles assigned to a task
func (r *TaskRepository) ListAssignees(ctx context.Context, taskID uuid.UUID) ([]model.Profile, error) {
	var profiles []model.Profile
	err := r.db.WithContext(ctx).
		Joins("JOIN task_assignees ON task_assignees.profile_id = profiles.id").
		Where("task_assignees.task_id = ?", taskID).
		Find(&profiles).Error
	return profiles, err
}

// SetAssignees replaces the assignee set of a task
func (r *TaskRepository) SetAssignees(ctx context.Context, taskID uuid.UUID, profileIDs []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", taskID).Delete(&model.TaskAssignee{}).Error; err != nil {
			return err
		}
		if len(profileIDs) == 0 {
			return nil
		}
		rows := make([]model.TaskAssignee, len(profileIDs))
		for i, id := range profileIDs {
			rows[i] = model.TaskAssignee{TaskID: taskID, ProfileID: id}
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
	})
}

// ListImages returns the images attached to a task
func (r *TaskRepository) ListImages(ctx context.Context, taskID uuid.UUID) ([]model.TaskImage, error) {
	var images []model.TaskImage
	err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("created_at").
		Find(&images).Error
	return images, err
}
