package model_test

import (
	"encoding/json"
	"testing"
	"time"

	"famtasks/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskPatch_StampCompletion(t *testing.T) {
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

	done := true
	p := model.TaskPatch{IsDone: &done}
	p.StampCompletion(now)
	require.True(t, p.CompletedAt.Set)
	require.NotNil(t, p.CompletedAt.Value)
	assert.Equal(t, now, *p.CompletedAt.Value)

	reopen := false
	p = model.TaskPatch{IsDone: &reopen}
	p.StampCompletion(now)
	assert.True(t, p.CompletedAt.Set)
	assert.Nil(t, p.CompletedAt.Value)

	p = model.TaskPatch{}
	p.StampCompletion(now)
	assert.False(t, p.CompletedAt.Set)
}

func TestTaskPatch_ApplyTo(t *testing.T) {
	category := uuid.New()
	memo := "old memo"
	task := model.Task{ID: uuid.New(), Title: "Buy milk", Memo: &memo, CategoryID: &category}

	title := "Buy oat milk"
	model.TaskPatch{
		Title:      &title,
		Memo:       model.Null[string](),
		CategoryID: model.Nullable[uuid.UUID]{},
	}.ApplyTo(&task)

	assert.Equal(t, "Buy oat milk", task.Title)
	assert.Nil(t, task.Memo)
	assert.Equal(t, &category, task.CategoryID)
}

func TestTaskPatch_JSONDistinguishesNullFromAbsent(t *testing.T) {
	var p model.TaskPatch
	err := json.Unmarshal([]byte(`{"memo": null, "title": "x"}`), &p)
	require.NoError(t, err)

	assert.True(t, p.Memo.Set)
	assert.Nil(t, p.Memo.Value)
	assert.False(t, p.URL.Set)
	assert.Equal(t, map[string]any{"memo": nil, "title": "x"}, p.Columns())

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"memo": null, "title": "x"}`, string(out))
}

func TestHousehold_InviteCodeValid(t *testing.T) {
	now := time.Now()
	code := "ABC234"
	expires := now.Add(time.Hour)
	h := model.Household{InviteCode: &code, InviteCodeExpiresAt: &expires}

	assert.True(t, h.InviteCodeValid("ABC234", now))
	assert.False(t, h.InviteCodeValid("ZZZ999", now))
	assert.False(t, h.InviteCodeValid("ABC234", expires))
	assert.False(t, (&model.Household{}).InviteCodeValid("ABC234", now))
}
