package realtime

import (
	"context"
	"time"

	"github.com/google/uuid"

	"famtasks/internal/model"
)

type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

const TableTasks = "tasks"

// Event is one committed change to a task row. New is set for inserts and
// updates, Old for deletes.
type Event struct {
	Type            EventType   `json:"eventType"`
	Table           string      `json:"table"`
	HouseholdID     uuid.UUID   `json:"household_id"`
	New             *model.Task `json:"new,omitempty"`
	Old             *model.Task `json:"old,omitempty"`
	CommitTimestamp time.Time   `json:"commit_timestamp"`
}

func Inserted(task model.Task) Event {
	return Event{Type: EventInsert, Table: TableTasks, HouseholdID: task.HouseholdID, New: &task, CommitTimestamp: time.Now().UTC()}
}

func Updated(task model.Task) Event {
	return Event{Type: EventUpdate, Table: TableTasks, HouseholdID: task.HouseholdID, New: &task, CommitTimestamp: time.Now().UTC()}
}

func Deleted(task model.Task) Event {
	return Event{Type: EventDelete, Table: TableTasks, HouseholdID: task.HouseholdID, Old: &task, CommitTimestamp: time.Now().UTC()}
}

// Subscription delivers the change events of one household in commit order.
// Events is closed once the subscription ends.
type Subscription interface {
	Events() <-chan Event
	Close() error
}

type Source interface {
	Subscribe(ctx context.Context, householdID uuid.UUID) (Subscription, error)
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}
