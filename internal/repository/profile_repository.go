package repository

import (
	"context"
	"errors"

	"famtasks/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProfileRepository struct {
	db *gorm.DB
}

type ProfileRepositoryInterface interface {
	Create(ctx context.Context, profile *model.Profile) error
	FindByEmail(ctx context.Context, email string) (*model.Profile, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Profile, error)
	UpdateDetails(ctx context.Context, id uuid.UUID, nickname string, avatarURL *string) error
	SetHousehold(ctx context.Context, id uuid.UUID, householdID *uuid.UUID) error
	ListByHousehold(ctx context.Context, householdID uuid.UUID) ([]model.Profile, error)
	ListOtherMemberIDs(ctx context.Context, householdID, excludeID uuid.UUID) ([]uuid.UUID, error)
}

var _ ProfileRepositoryInterface = (*ProfileRepository)(nil)

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Create(ctx context.Context, profile *model.Profile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

func (r *ProfileRepository) FindByEmail(ctx context.Context, email string) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *ProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *ProfileRepository) UpdateDetails(ctx context.Context, id uuid.UUID, nickname string, avatarURL *string) error {
	result := r.db.WithContext(ctx).Model(&model.Profile{}).
		Where("id = ?", id).
		Updates(map[string]any{"nickname": nickname, "avatar_url": avatarURL})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProfileNotFound
	}
	return nil
}

// SetHousehold links the profile to a household; nil leaves it unassigned.
func (r *ProfileRepository) SetHousehold(ctx context.Context, id uuid.UUID, householdID *uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&model.Profile{}).
		Where("id = ?", id).
		Update("household_id", householdID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (r *ProfileRepository) ListByHousehold(ctx context.Context, householdID uuid.UUID) ([]model.Profile, error) {
	var profiles []model.Profile
	err := r.db.WithContext(ctx).
		Where("household_id = ?", householdID).
		Order("created_at").
		Find(&profiles).Error
	return profiles, err
}

// ListOtherMemberIDs returns the ids of every household member except excludeID.
func (r *ProfileRepository) ListOtherMemberIDs(ctx context.Context, householdID, excludeID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.Profile{}).
		Where("household_id = ? AND id <> ?", householdID, excludeID).
		Pluck("id", &ids).Error
	return ids, err
}
