// Package taskstore keeps one household's task list in memory and applies
// mutations optimistically: the local list changes first, the backend call
// follows, and the local change is rolled back when the call fails.
package taskstore

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"famtasks/internal/model"
	"famtasks/internal/push"
)

var (
	ErrNoHousehold  = errors.New("no household loaded")
	ErrTaskNotFound = errors.New("task not found")
	ErrEmptyTitle   = errors.New("title is required")
)

// NotificationTitle heads every notification the store sends.
const NotificationTitle = "Family tasks"

type Backend interface {
	ListTasks(ctx context.Context, householdID uuid.UUID) ([]model.Task, error)
	CreateTask(ctx context.Context, task model.Task) (model.Task, error)
	UpdateTask(ctx context.Context, id uuid.UUID, patch model.TaskPatch) (model.Task, error)
	DeleteTask(ctx context.Context, id uuid.UUID) error
	ReorderTasks(ctx context.Context, taskIDs []uuid.UUID) error
}

type Notifier interface {
	Notify(ctx context.Context, msg push.Message) error
}

// Input describes a task to create.
type Input struct {
	Title      string
	CategoryID *uuid.UUID
	DueDate    *time.Time
	Memo       *string
	URL        *string
	CreatedBy  *uuid.UUID
}

// Store is safe for concurrent use. The lock is never held across a backend
// call, so mutations on different tasks proceed independently.
type Store struct {
	backend  Backend
	notifier Notifier
	now      func() time.Time

	mu           sync.Mutex
	householdID  uuid.UUID
	tasks        []model.Task
	// placeholders are created tasks the backend has not confirmed yet.
	// Only Create adds and removes them.
	placeholders map[uuid.UUID]struct{}

	wg sync.WaitGroup
}

func New(backend Backend, notifier Notifier) *Store {
	return &Store{
		backend:      backend,
		notifier:     notifier,
		now:          time.Now,
		placeholders: make(map[uuid.UUID]struct{}),
	}
}

func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Load replaces the list with the household's tasks. On failure the previous
// state is kept.
func (s *Store) Load(ctx context.Context, householdID uuid.UUID) error {
	tasks, err := s.backend.ListTasks(ctx, householdID)
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if householdID != s.householdID {
		s.placeholders = make(map[uuid.UUID]struct{})
	}
	s.householdID = householdID
	s.tasks = tasks
	return nil
}

func (s *Store) Create(ctx context.Context, in Input) (model.Task, error) {
	if in.Title == "" {
		return model.Task{}, ErrEmptyTitle
	}

	now := s.now()
	s.mu.Lock()
	if s.householdID == uuid.Nil {
		s.mu.Unlock()
		return model.Task{}, ErrNoHousehold
	}
	householdID := s.householdID
	placeholder := model.Task{
		ID:          uuid.New(),
		HouseholdID: householdID,
		CategoryID:  in.CategoryID,
		Title:       in.Title,
		Memo:        in.Memo,
		URL:         in.URL,
		DueDate:     in.DueDate,
		CreatedBy:   in.CreatedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.tasks = slices.Insert(s.tasks, 0, placeholder)
	s.placeholders[placeholder.ID] = struct{}{}
	s.mu.Unlock()

	saved, err := s.backend.CreateTask(ctx, placeholder)

	s.mu.Lock()
	delete(s.placeholders, placeholder.ID)
	idx := s.indexLocked(householdID, placeholder.ID)
	if err != nil {
		if idx >= 0 {
			s.tasks = slices.Delete(s.tasks, idx, idx+1)
		}
		s.mu.Unlock()
		return model.Task{}, fmt.Errorf("create task: %w", err)
	}
	if idx >= 0 {
		s.tasks[idx] = saved
	}
	s.mu.Unlock()

	s.notify(householdID, fmt.Sprintf(`"%s" was added`, saved.Title))
	return saved, nil
}

// Update applies patch locally, persists it, and replaces the local record
// with the server copy. Marking a task done stamps completed_at, reopening it
// clears the stamp.
func (s *Store) Update(ctx context.Context, id uuid.UUID, patch model.TaskPatch) (model.Task, error) {
	patch.StampCompletion(s.now())

	s.mu.Lock()
	householdID := s.householdID
	idx := s.indexLocked(householdID, id)
	if idx < 0 {
		s.mu.Unlock()
		return model.Task{}, ErrTaskNotFound
	}
	snapshot := s.tasks[idx]
	patched := snapshot
	patch.ApplyTo(&patched)
	s.tasks[idx] = patched
	s.mu.Unlock()

	saved, err := s.backend.UpdateTask(ctx, id, patch)

	s.mu.Lock()
	defer s.mu.Unlock()
	idx = s.indexLocked(householdID, id)
	if err != nil {
		if idx >= 0 {
			s.tasks[idx] = snapshot
		}
		return model.Task{}, fmt.Errorf("update task: %w", err)
	}
	if idx >= 0 {
		s.tasks[idx] = saved
	}
	return saved, nil
}

func (s *Store) ToggleCompletion(ctx context.Context, id uuid.UUID) (model.Task, error) {
	current, ok := s.Get(id)
	if !ok {
		return model.Task{}, ErrTaskNotFound
	}

	done := !current.IsDone
	saved, err := s.Update(ctx, id, model.TaskPatch{IsDone: &done})
	if err != nil {
		return model.Task{}, err
	}
	if done {
		s.notify(current.HouseholdID, fmt.Sprintf(`"%s" was completed`, current.Title))
	}
	return saved, nil
}

// Delete removes the task locally and restores it at its old position when
// the backend call fails.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	householdID := s.householdID
	idx := s.indexLocked(householdID, id)
	if idx < 0 {
		s.mu.Unlock()
		return ErrTaskNotFound
	}
	snapshot := s.tasks[idx]
	s.tasks = slices.Delete(s.tasks, idx, idx+1)
	s.mu.Unlock()

	err := s.backend.DeleteTask(ctx, id)
	if err == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.householdID == householdID && s.indexLocked(householdID, id) < 0 {
		s.tasks = slices.Insert(s.tasks, min(idx, len(s.tasks)), snapshot)
	}
	return fmt.Errorf("delete task: %w", err)
}

// Reorder gives the listed tasks sort orders 0..n-1 and moves them to the
// front in that order. One backend call persists the whole batch; if it fails
// the moved tasks get their previous sort orders and positions back, while
// changes made to the list in the meantime are kept.
func (s *Store) Reorder(ctx context.Context, orderedIDs []uuid.UUID) error {
	if len(orderedIDs) == 0 {
		return nil
	}

	s.mu.Lock()
	householdID := s.householdID
	if householdID == uuid.Nil {
		s.mu.Unlock()
		return ErrNoHousehold
	}

	position := make(map[uuid.UUID]int, len(s.tasks))
	byID := make(map[uuid.UUID]model.Task, len(s.tasks))
	for i, t := range s.tasks {
		position[t.ID] = i
		byID[t.ID] = t
	}
	prevSort := make(map[uuid.UUID]int, len(orderedIDs))
	assigned := make(map[uuid.UUID]int, len(orderedIDs))
	reordered := make([]model.Task, 0, len(s.tasks))
	for i, id := range orderedIDs {
		t, ok := byID[id]
		if !ok {
			continue
		}
		prevSort[id] = t.SortOrder
		assigned[id] = i
		t.SortOrder = i
		reordered = append(reordered, t)
	}
	for _, t := range s.tasks {
		if _, ok := assigned[t.ID]; !ok {
			reordered = append(reordered, t)
		}
	}
	s.tasks = reordered
	s.mu.Unlock()

	if err := s.backend.ReorderTasks(ctx, orderedIDs); err != nil {
		s.mu.Lock()
		if s.householdID == householdID {
			s.undoReorderLocked(position, prevSort, assigned)
		}
		s.mu.Unlock()
		return fmt.Errorf("reorder tasks: %w", err)
	}
	return nil
}

// undoReorderLocked puts tasks that existed before a failed reorder back in
// their previous relative order. Tasks that arrived during the call stay at
// the head, where inserts land. A sort order changed by someone else since
// the reorder is left alone.
func (s *Store) undoReorderLocked(position, prevSort, assigned map[uuid.UUID]int) {
	arrived := make([]model.Task, 0)
	known := make([]model.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if so, ok := assigned[t.ID]; ok && t.SortOrder == so {
			t.SortOrder = prevSort[t.ID]
		}
		if _, ok := position[t.ID]; ok {
			known = append(known, t)
		} else {
			arrived = append(arrived, t)
		}
	}
	slices.SortStableFunc(known, func(a, b model.Task) int {
		return cmp.Compare(position[a.ID], position[b.ID])
	})
	s.tasks = append(arrived, known...)
}

// Wait blocks until all background notifications have finished.
func (s *Store) Wait() {
	s.wg.Wait()
}

func (s *Store) notify(householdID uuid.UUID, body string) {
	if s.notifier == nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := s.notifier.Notify(ctx, push.Message{
			Title:       NotificationTitle,
			Body:        body,
			HouseholdID: householdID.String(),
		})
		if err != nil {
			log.WithError(err).Warn("⚠️  notification failed")
		}
	}()
}

// indexLocked returns the position of id, or -1 when it is absent or the
// store has since switched to another household.
func (s *Store) indexLocked(householdID, id uuid.UUID) int {
	if s.householdID != householdID {
		return -1
	}
	return slices.IndexFunc(s.tasks, func(t model.Task) bool { return t.ID == id })
}
