package taskstore

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"famtasks/internal/model"
	"famtasks/internal/realtime"
)

func TestApply_InsertPrependsNewTask(t *testing.T) {
	store, _, _, householdID := newLoadedStore(t, task("a", 0))
	incoming := task("from partner", 0)
	incoming.HouseholdID = householdID

	store.Apply(realtime.Inserted(incoming))

	tasks := store.Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, incoming.ID, tasks[0].ID)
}

func TestApply_InsertDuplicateIgnored(t *testing.T) {
	existing := task("a", 0)
	store, _, _, _ := newLoadedStore(t, existing)
	dup := store.Tasks()[0]
	dup.Title = "server copy"

	store.Apply(realtime.Inserted(dup))

	tasks := store.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, "a", tasks[0].Title)
}

func TestApply_InsertReplacesPendingPlaceholder(t *testing.T) {
	store, backend, _, householdID := newLoadedStore(t)
	serverTask := model.Task{ID: uuid.New(), HouseholdID: householdID, Title: "Buy milk"}

	backend.create = func(_ context.Context, tk model.Task) (model.Task, error) {
		store.Apply(realtime.Inserted(serverTask))
		tasks := store.Tasks()
		require.Len(t, tasks, 1)
		assert.Equal(t, serverTask.ID, tasks[0].ID)
		return tk, nil
	}

	_, err := store.Create(context.Background(), Input{Title: "Buy milk"})
	store.Wait()

	require.NoError(t, err)
	tasks := store.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, serverTask.ID, tasks[0].ID)
}

func TestApply_InsertDuringUpdateKeepsExistingTask(t *testing.T) {
	// Arrange
	existing := task("Buy milk", 0)
	store, backend, _, householdID := newLoadedStore(t, existing)
	partner := model.Task{ID: uuid.New(), HouseholdID: householdID, Title: "Buy milk"}

	backend.update = func(_ context.Context, id uuid.UUID, patch model.TaskPatch) (model.Task, error) {
		store.Apply(realtime.Inserted(partner))
		saved := existing
		saved.HouseholdID = householdID
		patch.ApplyTo(&saved)
		return saved, nil
	}

	// Act
	saved, err := store.Update(context.Background(), existing.ID, model.TaskPatch{Memo: model.Some("2 liters")})

	// Assert
	require.NoError(t, err)
	tasks := store.Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, partner.ID, tasks[0].ID)
	assert.Equal(t, existing.ID, tasks[1].ID)
	assert.Equal(t, saved, tasks[1])
}

func TestUpdate_KeepsPlaceholderOfPendingCreate(t *testing.T) {
	store, backend, _, householdID := newLoadedStore(t)
	serverTask := model.Task{ID: uuid.New(), HouseholdID: householdID, Title: "Buy milk"}

	backend.update = func(_ context.Context, id uuid.UUID, patch model.TaskPatch) (model.Task, error) {
		tk, _ := store.Get(id)
		patch.ApplyTo(&tk)
		return tk, nil
	}
	backend.create = func(_ context.Context, tk model.Task) (model.Task, error) {
		memo := "2 liters"
		_, err := store.Update(context.Background(), tk.ID, model.TaskPatch{Memo: model.Some(memo)})
		require.NoError(t, err)
		assert.True(t, store.Pending(tk.ID), "update must not confirm a pending create")

		store.Apply(realtime.Inserted(serverTask))
		tasks := store.Tasks()
		require.Len(t, tasks, 1)
		assert.Equal(t, serverTask.ID, tasks[0].ID)
		return tk, nil
	}

	_, err := store.Create(context.Background(), Input{Title: "Buy milk"})
	store.Wait()

	require.NoError(t, err)
}

func TestApply_UpdateReplacesInPlace(t *testing.T) {
	store, _, _, _ := newLoadedStore(t, task("a", 0), task("b", 1))
	changed := store.Tasks()[1]
	changed.Title = "b (edited)"

	store.Apply(realtime.Updated(changed))
	store.Apply(realtime.Updated(model.Task{ID: uuid.New(), HouseholdID: changed.HouseholdID, Title: "ghost"}))

	tasks := store.Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, "b (edited)", tasks[1].Title)
}

func TestApply_DeleteIsIdempotent(t *testing.T) {
	store, _, _, _ := newLoadedStore(t, task("a", 0), task("b", 1))
	victim := store.Tasks()[0]

	store.Apply(realtime.Deleted(victim))
	after := store.Tasks()
	store.Apply(realtime.Deleted(victim))

	assert.Equal(t, after, store.Tasks())
	assert.Len(t, after, 1)
}

func TestApply_OtherHouseholdIgnored(t *testing.T) {
	store, _, _, _ := newLoadedStore(t, task("a", 0))
	before := store.Tasks()

	store.Apply(realtime.Inserted(model.Task{ID: uuid.New(), HouseholdID: uuid.New(), Title: "elsewhere"}))

	assert.Equal(t, before, store.Tasks())
}

type chanSource struct {
	subs []*chanSubscription
}

type chanSubscription struct {
	householdID uuid.UUID
	ch          chan realtime.Event
	closed      bool
}

func (s *chanSubscription) Events() <-chan realtime.Event { return s.ch }
func (s *chanSubscription) Close() error {
	s.closed = true
	return nil
}

func (s *chanSource) Subscribe(_ context.Context, householdID uuid.UUID) (realtime.Subscription, error) {
	sub := &chanSubscription{householdID: householdID, ch: make(chan realtime.Event)}
	s.subs = append(s.subs, sub)
	return sub, nil
}

func TestReconciler_AppliesEventsInOrder(t *testing.T) {
	// Arrange
	store, _, _, householdID := newLoadedStore(t)
	source := &chanSource{}
	r := NewReconciler(store, source)
	require.NoError(t, r.Start(context.Background(), householdID))
	defer r.Stop()

	tk := model.Task{ID: uuid.New(), HouseholdID: householdID, Title: "first"}
	edited := tk
	edited.Title = "second"

	// Act
	sub := source.subs[0]
	sub.ch <- realtime.Inserted(tk)
	sub.ch <- realtime.Updated(edited)
	sub.ch <- realtime.Deleted(edited)
	sub.ch <- realtime.Inserted(model.Task{ID: uuid.New(), HouseholdID: householdID, Title: "last"})

	// Assert
	require.Eventually(t, func() bool {
		tasks := store.Tasks()
		return len(tasks) == 1 && tasks[0].Title == "last"
	}, time.Second, 10*time.Millisecond)
}

func TestReconciler_OnApplySeesAppliedState(t *testing.T) {
	// Arrange
	store, _, _, householdID := newLoadedStore(t)
	source := &chanSource{}
	seen := make(chan int, 4)
	r := NewReconciler(store, source).OnApply(func(ev realtime.Event) {
		seen <- len(store.Tasks())
	})
	require.NoError(t, r.Start(context.Background(), householdID))
	defer r.Stop()

	tk := model.Task{ID: uuid.New(), HouseholdID: householdID, Title: "Buy milk"}

	// Act
	sub := source.subs[0]
	sub.ch <- realtime.Inserted(tk)
	sub.ch <- realtime.Deleted(tk)
	sub.ch <- realtime.Deleted(tk)

	// Assert
	for _, want := range []int{1, 0, 0} {
		select {
		case got := <-seen:
			assert.Equal(t, want, got)
		case <-time.After(time.Second):
			t.Fatal("observer was not called")
		}
	}
	assert.Empty(t, store.Tasks())
}

func TestReconciler_StartReplacesSubscription(t *testing.T) {
	store, _, _, householdID := newLoadedStore(t)
	source := &chanSource{}
	r := NewReconciler(store, source)

	require.NoError(t, r.Start(context.Background(), householdID))
	require.NoError(t, r.Start(context.Background(), householdID))
	r.Stop()
	r.Stop()

	require.Len(t, source.subs, 2)
	assert.True(t, source.subs[0].closed)
	assert.True(t, source.subs[1].closed)
}
