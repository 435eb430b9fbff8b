package handler_test

import (
	"context"
	"time"

	"famtasks/internal/model"
	"famtasks/internal/push"
	"famtasks/internal/realtime"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Мок репозитория профилей
type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) Create(ctx context.Context, profile *model.Profile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockProfileRepository) FindByEmail(ctx context.Context, email string) (*model.Profile, error) {
	args := m.Called(ctx, email)
	profile := args.Get(0)
	if profile == nil {
		return nil, args.Error(1)
	}
	return profile.(*model.Profile), args.Error(1)
}

func (m *MockProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	args := m.Called(ctx, id)
	profile := args.Get(0)
	if profile == nil {
		return nil, args.Error(1)
	}
	return profile.(*model.Profile), args.Error(1)
}

func (m *MockProfileRepository) UpdateDetails(ctx context.Context, id uuid.UUID, nickname string, avatarURL *string) error {
	args := m.Called(ctx, id, nickname, avatarURL)
	return args.Error(0)
}

func (m *MockProfileRepository) SetHousehold(ctx context.Context, id uuid.UUID, householdID *uuid.UUID) error {
	args := m.Called(ctx, id, householdID)
	return args.Error(0)
}

func (m *MockProfileRepository) ListByHousehold(ctx context.Context, householdID uuid.UUID) ([]model.Profile, error) {
	args := m.Called(ctx, householdID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Profile), args.Error(1)
}

// Мок репозитория домохозяйств
type MockHouseholdRepository struct {
	mock.Mock
}

func (m *MockHouseholdRepository) Provision(ctx context.Context, household *model.Household, ownerID uuid.UUID, inviteTTL time.Duration) error {
	args := m.Called(ctx, household, ownerID, inviteTTL)
	return args.Error(0)
}

func (m *MockHouseholdRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Household, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Household), args.Error(1)
}

func (m *MockHouseholdRepository) FindByInviteCode(ctx context.Context, code string, now time.Time) (*model.Household, error) {
	args := m.Called(ctx, code, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Household), args.Error(1)
}

func (m *MockHouseholdRepository) RotateInviteCode(ctx context.Context, id uuid.UUID, ttl time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, id, ttl)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockHouseholdRepository) Rename(ctx context.Context, id uuid.UUID, name string) error {
	args := m.Called(ctx, id, name)
	return args.Error(0)
}

// Мок репозитория категорий
type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) Create(ctx context.Context, category *model.Category) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *MockCategoryRepository) ListByHousehold(ctx context.Context, householdID uuid.UUID) ([]model.Category, error) {
	args := m.Called(ctx, householdID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Category), args.Error(1)
}

func (m *MockCategoryRepository) GetByID(ctx context.Context, householdID, id uuid.UUID) (*model.Category, error) {
	args := m.Called(ctx, householdID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Category), args.Error(1)
}

func (m *MockCategoryRepository) Update(ctx context.Context, householdID, id uuid.UUID, cols map[string]any) error {
	args := m.Called(ctx, householdID, id, cols)
	return args.Error(0)
}

func (m *MockCategoryRepository) Delete(ctx context.Context, householdID, id uuid.UUID) error {
	args := m.Called(ctx, householdID, id)
	return args.Error(0)
}

// Мок репозитория задач
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) ListByHousehold(ctx context.Context, householdID uuid.UUID) ([]model.Task, error) {
	args := m.Called(ctx, householdID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Task), args.Error(1)
}

func (m *MockTaskRepository) GetByID(ctx context.Context, householdID, id uuid.UUID) (*model.Task, error) {
	args := m.Called(ctx, householdID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Task), args.Error(1)
}

func (m *MockTaskRepository) Create(ctx context.Context, task *model.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskRepository) Update(ctx context.Context, householdID, id uuid.UUID, patch model.TaskPatch) (*model.Task, error) {
	args := m.Called(ctx, householdID, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Task), args.Error(1)
}

func (m *MockTaskRepository) Delete(ctx context.Context, householdID, id uuid.UUID) (*model.Task, error) {
	args := m.Called(ctx, householdID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Task), args.Error(1)
}

func (m *MockTaskRepository) Reorder(ctx context.Context, householdID uuid.UUID, taskIDs []uuid.UUID) ([]model.Task, error) {
	args := m.Called(ctx, householdID, taskIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Task), args.Error(1)
}

func (m *MockTaskRepository) ListAssignees(ctx context.Context, taskID uuid.UUID) ([]model.Profile, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Profile), args.Error(1)
}

func (m *MockTaskRepository) SetAssignees(ctx context.Context, taskID uuid.UUID, profileIDs []uuid.UUID) error {
	args := m.Called(ctx, taskID, profileIDs)
	return args.Error(0)
}

func (m *MockTaskRepository) ListImages(ctx context.Context, taskID uuid.UUID) ([]model.TaskImage, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.TaskImage), args.Error(1)
}

// Мок публикации событий
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, ev realtime.Event) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

// Мок диспетчера уведомлений
type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(ctx context.Context, callerID uuid.UUID, msg push.Message) (int, error) {
	args := m.Called(ctx, callerID, msg)
	return args.Int(0), args.Error(1)
}

func (m *MockDispatcher) PublicKey() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

// Мок хранилища подписок
type MockSubscriptionRepository struct {
	mock.Mock
}

func (m *MockSubscriptionRepository) Upsert(ctx context.Context, sub *model.PushSubscription) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

func (m *MockSubscriptionRepository) DeleteOwn(ctx context.Context, endpoint string, profileID uuid.UUID) error {
	args := m.Called(ctx, endpoint, profileID)
	return args.Error(0)
}
