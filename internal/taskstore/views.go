package taskstore

import (
	"slices"

	"github.com/google/uuid"

	"famtasks/internal/model"
)

func (s *Store) HouseholdID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.householdID
}

// Tasks returns a copy of the list in display order.
func (s *Store) Tasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.tasks)
}

func (s *Store) Get(id uuid.UUID) (model.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(s.householdID, id)
	if idx < 0 {
		return model.Task{}, false
	}
	return s.tasks[idx], true
}

// Pending reports whether id is a created task the backend has not
// confirmed yet.
func (s *Store) Pending(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.placeholders[id]
	return ok
}

func (s *Store) Incomplete() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if !t.IsDone {
			out = append(out, t)
		}
	}
	return out
}

// Completed returns done tasks, most recently completed first.
func (s *Store) Completed() []model.Task {
	s.mu.Lock()
	out := make([]model.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if t.IsDone {
			out = append(out, t)
		}
	}
	s.mu.Unlock()

	slices.SortStableFunc(out, func(a, b model.Task) int {
		switch {
		case a.CompletedAt == nil && b.CompletedAt == nil:
			return 0
		case a.CompletedAt == nil:
			return 1
		case b.CompletedAt == nil:
			return -1
		}
		return b.CompletedAt.Compare(*a.CompletedAt)
	})
	return out
}
