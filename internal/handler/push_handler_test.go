package handler_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"famtasks/internal/handler"
	"famtasks/internal/middleware"
	"famtasks/internal/model"
	"famtasks/internal/push"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupPushTest(userID uuid.UUID) (*gin.Engine, *MockDispatcher, *MockSubscriptionRepository) {
	gin.SetMode(gin.TestMode)
	dispatcher := new(MockDispatcher)
	subs := new(MockSubscriptionRepository)
	h := handler.NewPushHandler(dispatcher, subs)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if userID != uuid.Nil {
			c.Set(middleware.UserIDKey, userID)
		}
	})
	r.POST("/push/send", h.Send)
	r.POST("/push/subscribe", h.Subscribe)
	r.DELETE("/push/subscribe", h.Unsubscribe)
	r.GET("/push/vapid-public-key", h.PublicKey)
	return r, dispatcher, subs
}

func send(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestPushSend_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"success", nil, http.StatusOK, `{"success":true,"sent":2}`},
		{"not configured", push.ErrNotConfigured, http.StatusInternalServerError, "Push notifications not configured"},
		{"unauthenticated", push.ErrUnauthenticated, http.StatusUnauthorized, "Unauthorized"},
		{"rate limited", push.ErrRateLimited, http.StatusTooManyRequests, "Too many requests"},
		{"missing fields", push.ErrInvalidInput, http.StatusBadRequest, "Missing required fields"},
		{"household mismatch", push.ErrForbidden, http.StatusForbidden, "Forbidden"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			userID := uuid.New()
			householdID := uuid.NewString()
			r, dispatcher, _ := setupPushTest(userID)
			sent := 0
			if tt.err == nil {
				sent = 2
			}
			dispatcher.On("Dispatch", mock.Anything, userID, push.Message{
				Title: "Family tasks", Body: "hi", HouseholdID: householdID,
			}).Return(sent, tt.err)

			// Act
			resp := send(r, "POST", "/push/send", `{"title":"Family tasks","body":"hi","householdId":"`+householdID+`"}`)

			// Assert
			assert.Equal(t, tt.status, resp.Code)
			assert.Contains(t, resp.Body.String(), tt.body)
			dispatcher.AssertExpectations(t)
		})
	}
}

func TestPushSend_AnonymousCallerReachesDispatcher(t *testing.T) {
	r, dispatcher, _ := setupPushTest(uuid.Nil)
	dispatcher.On("Dispatch", mock.Anything, uuid.Nil, mock.Anything).Return(0, push.ErrUnauthenticated)

	resp := send(r, "POST", "/push/send", `{}`)

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestPushSubscribe(t *testing.T) {
	userID := uuid.New()
	r, _, subs := setupPushTest(userID)
	subs.On("Upsert", mock.Anything, mock.MatchedBy(func(s *model.PushSubscription) bool {
		return s.Endpoint == "https://push.example/abc" && s.ProfileID == userID && s.P256dh == "key" && s.Auth == "secret"
	})).Return(nil)

	resp := send(r, "POST", "/push/subscribe", `{"endpoint":"https://push.example/abc","keys":{"p256dh":"key","auth":"secret"}}`)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"success":true`)

	resp = send(r, "POST", "/push/subscribe", `{"endpoint":"https://push.example/abc","keys":{"p256dh":"key"}}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "Invalid subscription")

	subs.AssertNumberOfCalls(t, "Upsert", 1)
}

func TestPushUnsubscribe_OnlyOwnRow(t *testing.T) {
	userID := uuid.New()
	r, _, subs := setupPushTest(userID)
	subs.On("DeleteOwn", mock.Anything, "https://push.example/abc", userID).Return(nil)

	resp := send(r, "DELETE", "/push/subscribe", `{"endpoint":"https://push.example/abc"}`)
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = send(r, "DELETE", "/push/subscribe", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	subs.AssertExpectations(t)
}

func TestPushPublicKey(t *testing.T) {
	r, dispatcher, _ := setupPushTest(uuid.New())
	dispatcher.On("PublicKey").Return("BPublicKey", nil)

	resp := send(r, "GET", "/push/vapid-public-key", "")

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "BPublicKey")
}
