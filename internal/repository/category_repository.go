package repository

import (
	"context"
	"errors"

	"famtasks/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// Create appends the category to its household: sort order is the current
// number of categories.
func (r *CategoryRepository) Create(ctx context.Context, category *model.Category) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Category{}).
			Where("household_id = ?", category.HouseholdID).
			Count(&count).Error; err != nil {
			return err
		}
		if category.ID == uuid.Nil {
			category.ID = uuid.New()
		}
		category.SortOrder = int(count)
		return tx.Create(category).Error
	})
}

func (r *CategoryRepository) ListByHousehold(ctx context.Context, householdID uuid.UUID) ([]model.Category, error) {
	var categories []model.Category
	err := r.db.WithContext(ctx).
		Where("household_id = ?", householdID).
		Order("sort_order").
		Find(&categories).Error
	return categories, err
}

func (r *CategoryRepository) GetByID(ctx context.Context, householdID, id uuid.UUID) (*model.Category, error) {
	var category model.Category
	err := r.db.WithContext(ctx).
		Where("id = ? AND household_id = ?", id, householdID).
		First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// Update writes the given columns (name, color, icon, sort_order).
func (r *CategoryRepository) Update(ctx context.Context, householdID, id uuid.UUID, cols map[string]any) error {
	result := r.db.WithContext(ctx).Model(&model.Category{}).
		Where("id = ? AND household_id = ?", id, householdID).
		Updates(cols)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

func (r *CategoryRepository) Delete(ctx context.Context, householdID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND household_id = ?", id, householdID).
		Delete(&model.Category{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCategoryNotFound
	}
	return nil
}
