package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"famtasks/internal/model"
	"famtasks/internal/push"
	"famtasks/internal/realtime"
	"famtasks/internal/taskstore"
)

func TestClient_LoginKeepsToken(t *testing.T) {
	var gotAuth string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"token":"tok-123","user":{"id":"`+uuid.NewString()+`","nickname":"Mom"}}`)
	})
	mux.HandleFunc("GET /tasks", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `[]`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL, "", nil)
	profile, err := c.Login(context.Background(), "mom@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "Mom", profile.Nickname)

	_, err = c.ListTasks(context.Background(), uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", gotAuth)
}

func TestClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprint(w, `{"error":"Household required"}`)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "tok", nil).ListTasks(context.Background(), uuid.Nil)

	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusConflict))
	assert.Contains(t, err.Error(), "Household required")
}

func TestClient_UpdateSendsOnlySetFields(t *testing.T) {
	var body map[string]any
	id := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/tasks/"+id.String(), r.URL.Path)
		data, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(data, &body))
		fmt.Fprint(w, `{"id":"`+id.String()+`","title":"x","is_done":true}`)
	}))
	defer srv.Close()

	done := true
	saved, err := New(srv.URL, "tok", nil).UpdateTask(context.Background(), id, model.TaskPatch{
		IsDone: &done,
		Memo:   model.Null[string](),
	})

	require.NoError(t, err)
	assert.True(t, saved.IsDone)
	assert.Equal(t, map[string]any{"is_done": true, "memo": nil}, body)
}

func TestClient_NotifyPostsMessage(t *testing.T) {
	var got push.Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/push/send", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"success":true,"sent":1}`)
	}))
	defer srv.Close()

	householdID := uuid.NewString()
	err := New(srv.URL, "tok", nil).Notify(context.Background(), push.Message{
		Title: taskstore.NotificationTitle, Body: `"Buy milk" was added`, HouseholdID: householdID,
	})

	require.NoError(t, err)
	assert.Equal(t, householdID, got.HouseholdID)
	assert.Equal(t, `"Buy milk" was added`, got.Body)
}

func TestClient_SubscribeParsesStream(t *testing.T) {
	// Arrange
	householdID := uuid.New()
	mine := realtime.Inserted(model.Task{ID: uuid.New(), HouseholdID: householdID, Title: "Buy milk"})
	other := realtime.Inserted(model.Task{ID: uuid.New(), HouseholdID: uuid.New(), Title: "elsewhere"})
	frame := func(ev realtime.Event) string {
		data, _ := json.Marshal(ev)
		return "data: " + string(data) + "\n\n"
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, ": keep-alive\n\n")
		fmt.Fprint(w, frame(other))
		fmt.Fprint(w, frame(mine))
	}))
	defer srv.Close()

	// Act
	sub, err := New(srv.URL, "tok", nil).Subscribe(context.Background(), householdID)
	require.NoError(t, err)
	defer sub.Close()

	// Assert
	select {
	case ev := <-sub.Events():
		assert.Equal(t, realtime.EventInsert, ev.Type)
		assert.Equal(t, mine.New.ID, ev.New.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}
	select {
	case _, ok := <-sub.Events():
		assert.False(t, ok, "stream ended")
	case <-time.After(2 * time.Second):
		t.Fatal("events channel not closed")
	}
}

func TestClient_DrivesTaskStore(t *testing.T) {
	householdID := uuid.New()
	var created model.Task
	mux := http.NewServeMux()
	mux.HandleFunc("GET /tasks", func(w http.ResponseWriter, r *http.Request) { fmt.Fprint(w, `[]`) })
	mux.HandleFunc("POST /tasks", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&created))
		created.HouseholdID = householdID
		created.CreatedAt = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
		w.WriteHeader(http.StatusCreated)
		require.NoError(t, json.NewEncoder(w).Encode(created))
	})
	mux.HandleFunc("POST /push/send", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":"Too many requests"}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL, "tok", nil)
	store := taskstore.New(c, c)
	require.NoError(t, store.Load(context.Background(), householdID))

	saved, err := store.Create(context.Background(), taskstore.Input{Title: "Buy milk"})
	store.Wait()

	require.NoError(t, err)
	assert.Equal(t, created.ID, saved.ID)
	tasks := store.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, "Buy milk", tasks[0].Title)
	assert.True(t, created.CreatedAt.Equal(tasks[0].CreatedAt))
}
