package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"famtasks/internal/model"
)

type PushSubscriptionRepository struct {
	db *gorm.DB
}

func NewPushSubscriptionRepository(db *gorm.DB) *PushSubscriptionRepository {
	return &PushSubscriptionRepository{db: db}
}

// Upsert stores the subscription keyed by endpoint. A re-registered endpoint
// takes over the new keys and owner.
func (r *PushSubscriptionRepository) Upsert(ctx context.Context, sub *model.PushSubscription) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth", "profile_id"}),
	}).Create(sub).Error
}

// DeleteOwn removes the endpoint only when it belongs to profileID.
func (r *PushSubscriptionRepository) DeleteOwn(ctx context.Context, endpoint string, profileID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("endpoint = ? AND profile_id = ?", endpoint, profileID).
		Delete(&model.PushSubscription{}).Error
}

// DeleteByEndpoint removes a subscription the push service reported gone.
func (r *PushSubscriptionRepository) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	return r.db.WithContext(ctx).
		Where("endpoint = ?", endpoint).
		Delete(&model.PushSubscription{}).Error
}

func (r *PushSubscriptionRepository) ListByProfiles(ctx context.Context, profileIDs []uuid.UUID) ([]model.PushSubscription, error) {
	if len(profileIDs) == 0 {
		return nil, nil
	}
	var subs []model.PushSubscription
	err := r.db.WithContext(ctx).
		Where("profile_id IN ?", profileIDs).
		Find(&subs).Error
	return subs, err
}
