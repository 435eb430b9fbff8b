package taskstore

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"famtasks/internal/model"
	"famtasks/internal/realtime"
)

// Apply merges one change event into the list. Events are applied last write
// wins by task ID; events of another household are ignored.
func (s *Store) Apply(ev realtime.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ev.Table != realtime.TableTasks || ev.HouseholdID != s.householdID {
		return
	}

	switch ev.Type {
	case realtime.EventInsert:
		if ev.New != nil {
			s.applyInsertLocked(*ev.New)
		}
	case realtime.EventUpdate:
		if ev.New == nil {
			return
		}
		if idx := s.indexLocked(s.householdID, ev.New.ID); idx >= 0 {
			s.tasks[idx] = *ev.New
		}
	case realtime.EventDelete:
		if ev.Old == nil {
			return
		}
		if idx := s.indexLocked(s.householdID, ev.Old.ID); idx >= 0 {
			s.tasks = slices.Delete(s.tasks, idx, idx+1)
		}
	}
}

func (s *Store) applyInsertLocked(task model.Task) {
	if s.indexLocked(s.householdID, task.ID) >= 0 {
		return
	}
	for i, t := range s.tasks {
		if _, ok := s.placeholders[t.ID]; ok && t.Title == task.Title {
			delete(s.placeholders, t.ID)
			s.tasks[i] = task
			return
		}
	}
	s.tasks = slices.Insert(s.tasks, 0, task)
}

// Reconciler feeds a household's change events into a Store.
type Reconciler struct {
	store    *Store
	source   realtime.Source
	observer func(realtime.Event)

	mu     sync.Mutex
	sub    realtime.Subscription
	cancel context.CancelFunc
	done   chan struct{}
}

func NewReconciler(store *Store, source realtime.Source) *Reconciler {
	return &Reconciler{store: store, source: source}
}

// OnApply registers fn to run on the event loop after each event has been
// applied to the store. Set it before Start.
func (r *Reconciler) OnApply(fn func(realtime.Event)) *Reconciler {
	r.observer = fn
	return r
}

// Start subscribes to householdID, tearing down any previous subscription.
func (r *Reconciler) Start(ctx context.Context, householdID uuid.UUID) error {
	r.Stop()

	sub, err := r.source.Subscribe(ctx, householdID)
	if err != nil {
		return fmt.Errorf("subscribe to household %s: %w", householdID, err)
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	r.mu.Lock()
	r.sub, r.cancel, r.done = sub, cancel, done
	r.mu.Unlock()

	go r.run(ctx, sub, done)
	return nil
}

// Stop tears down the current subscription and waits for the event loop to
// exit. It is a no-op when nothing is running.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	sub, cancel, done := r.sub, r.cancel, r.done
	r.sub, r.cancel, r.done = nil, nil, nil
	r.mu.Unlock()

	if sub == nil {
		return
	}
	cancel()
	if err := sub.Close(); err != nil {
		log.WithError(err).Warn("⚠️  closing realtime subscription")
	}
	<-done
}

func (r *Reconciler) run(ctx context.Context, sub realtime.Subscription, done chan struct{}) {
	defer close(done)
	events := sub.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			r.store.Apply(ev)
			if r.observer != nil {
				r.observer(ev)
			}
		}
	}
}
