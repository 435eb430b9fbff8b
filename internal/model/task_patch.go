package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TaskPatch is a partial task update. Nil pointers and unset Nullables are
// left untouched.
type TaskPatch struct {
	Title       *string             `json:"title,omitempty"`
	CategoryID  Nullable[uuid.UUID] `json:"category_id,omitzero"`
	Memo        Nullable[string]    `json:"memo,omitzero"`
	URL         Nullable[string]    `json:"url,omitzero"`
	DueDate     Nullable[time.Time] `json:"due_date,omitzero"`
	IsDone      *bool               `json:"is_done,omitempty"`
	SortOrder   *int                `json:"sort_order,omitempty"`
	CompletedAt Nullable[time.Time] `json:"completed_at,omitzero"`
}

// StampCompletion sets CompletedAt when the patch marks the task done and
// clears it when the patch reopens the task.
func (p *TaskPatch) StampCompletion(now time.Time) {
	if p.IsDone == nil {
		return
	}
	if *p.IsDone {
		p.CompletedAt = Some(now)
	} else {
		p.CompletedAt = Null[time.Time]()
	}
}

func (p TaskPatch) Empty() bool {
	return p.Title == nil && !p.CategoryID.Set && !p.Memo.Set && !p.URL.Set &&
		!p.DueDate.Set && p.IsDone == nil && p.SortOrder == nil && !p.CompletedAt.Set
}

// ApplyTo writes the patched fields into t.
func (p TaskPatch) ApplyTo(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.CategoryID.Set {
		t.CategoryID = p.CategoryID.ptr()
	}
	if p.Memo.Set {
		t.Memo = p.Memo.ptr()
	}
	if p.URL.Set {
		t.URL = p.URL.ptr()
	}
	if p.DueDate.Set {
		t.DueDate = p.DueDate.ptr()
	}
	if p.IsDone != nil {
		t.IsDone = *p.IsDone
	}
	if p.SortOrder != nil {
		t.SortOrder = *p.SortOrder
	}
	if p.CompletedAt.Set {
		t.CompletedAt = p.CompletedAt.ptr()
	}
}

// Columns maps the patch onto column names for a gorm Updates call.
func (p TaskPatch) Columns() map[string]any {
	cols := make(map[string]any)
	if p.Title != nil {
		cols["title"] = *p.Title
	}
	if p.CategoryID.Set {
		cols["category_id"] = p.CategoryID.column()
	}
	if p.Memo.Set {
		cols["memo"] = p.Memo.column()
	}
	if p.URL.Set {
		cols["url"] = p.URL.column()
	}
	if p.DueDate.Set {
		cols["due_date"] = p.DueDate.column()
	}
	if p.IsDone != nil {
		cols["is_done"] = *p.IsDone
	}
	if p.SortOrder != nil {
		cols["sort_order"] = *p.SortOrder
	}
	if p.CompletedAt.Set {
		cols["completed_at"] = p.CompletedAt.column()
	}
	return cols
}

// MarshalJSON writes only the fields the patch sets, so encoders without
// omitzero support cannot turn an absent field into an explicit null.
func (p TaskPatch) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Columns())
}
