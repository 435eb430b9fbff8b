package repository

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"famtasks/internal/model"
)

// inviteAlphabet leaves out characters that are easy to misread (0/O, 1/I/L).
const (
	inviteAlphabet     = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	inviteCodeLength   = 6
	inviteCodeAttempts = 5
)

type HouseholdRepository struct {
	db *gorm.DB
}

func NewHouseholdRepository(db *gorm.DB) *HouseholdRepository {
	return &HouseholdRepository{db: db}
}

// Provision creates a household, moves the owner into it, seeds the default
// categories and issues a first invite code, all in one transaction. The
// transaction is retried with a fresh code when the code is already taken.
func (r *HouseholdRepository) Provision(ctx context.Context, household *model.Household, ownerID uuid.UUID, inviteTTL time.Duration) error {
	var err error
	for attempt := 0; attempt < inviteCodeAttempts; attempt++ {
		err = r.provision(ctx, household, ownerID, inviteTTL)
		if !isInviteCodeConflict(err) {
			return err
		}
	}
	return err
}

func (r *HouseholdRepository) provision(ctx context.Context, household *model.Household, ownerID uuid.UUID, inviteTTL time.Duration) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if household.ID == uuid.Nil {
			household.ID = uuid.New()
		}
		code, err := NewInviteCode()
		if err != nil {
			return err
		}
		expires := time.Now().Add(inviteTTL)
		household.InviteCode = &code
		household.InviteCodeExpiresAt = &expires

		if err := tx.Create(household).Error; err != nil {
			return err
		}

		result := tx.Model(&model.Profile{}).Where("id = ?", ownerID).Update("household_id", household.ID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrProfileNotFound
		}

		categories := make([]model.Category, len(model.DefaultCategories))
		for i, c := range model.DefaultCategories {
			categories[i] = model.Category{
				ID:          uuid.New(),
				HouseholdID: household.ID,
				Name:        c.Name,
				Color:       c.Color,
				SortOrder:   i,
			}
		}
		return tx.Create(&categories).Error
	})
}

func (r *HouseholdRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Household, error) {
	var household model.Household
	err := r.db.WithContext(ctx).First(&household, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrHouseholdNotFound
	}
	if err != nil {
		return nil, err
	}
	return &household, nil
}

// FindByInviteCode returns the household whose invite code matches code
// (case-insensitively) and has not expired at now.
func (r *HouseholdRepository) FindByInviteCode(ctx context.Context, code string, now time.Time) (*model.Household, error) {
	var household model.Household
	err := r.db.WithContext(ctx).
		Where("invite_code = ? AND invite_code_expires_at > ?", strings.ToUpper(strings.TrimSpace(code)), now).
		First(&household).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInviteCodeInvalid
	}
	if err != nil {
		return nil, err
	}
	return &household, nil
}

// RotateInviteCode replaces the household's invite code, invalidating the
// previous one.
func (r *HouseholdRepository) RotateInviteCode(ctx context.Context, id uuid.UUID, ttl time.Duration) (string, time.Time, error) {
	var (
		code    string
		expires time.Time
		err     error
	)
	for attempt := 0; attempt < inviteCodeAttempts; attempt++ {
		code, expires, err = r.rotateInviteCode(ctx, id, ttl)
		if !isInviteCodeConflict(err) {
			break
		}
	}
	return code, expires, err
}

func (r *HouseholdRepository) rotateInviteCode(ctx context.Context, id uuid.UUID, ttl time.Duration) (string, time.Time, error) {
	code, err := NewInviteCode()
	if err != nil {
		return "", time.Time{}, err
	}
	expires := time.Now().Add(ttl)

	result := r.db.WithContext(ctx).Model(&model.Household{}).
		Where("id = ?", id).
		Updates(map[string]any{"invite_code": code, "invite_code_expires_at": expires})
	if result.Error != nil {
		return "", time.Time{}, result.Error
	}
	if result.RowsAffected == 0 {
		return "", time.Time{}, ErrHouseholdNotFound
	}
	return code, expires, nil
}

// Rename changes the household display name.
func (r *HouseholdRepository) Rename(ctx context.Context, id uuid.UUID, name string) error {
	result := r.db.WithContext(ctx).Model(&model.Household{}).Where("id = ?", id).Update("name", name)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrHouseholdNotFound
	}
	return nil
}

// NewInviteCode returns a random invite code.
func NewInviteCode() (string, error) {
	var b strings.Builder
	max := big.NewInt(int64(len(inviteAlphabet)))
	for i := 0; i < inviteCodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(inviteAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// isInviteCodeConflict reports a unique violation on households.invite_code.
func isInviteCodeConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && strings.Contains(pgErr.ConstraintName, "invite_code")
}
