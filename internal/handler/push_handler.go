package handler

import (
	"context"
	"errors"
	"net/http"

	"famtasks/internal/middleware"
	"famtasks/internal/model"
	"famtasks/internal/push"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type Dispatcher interface {
	Dispatch(ctx context.Context, callerID uuid.UUID, msg push.Message) (int, error)
	PublicKey() (string, error)
}

type SubscriptionStore interface {
	Upsert(ctx context.Context, sub *model.PushSubscription) error
	DeleteOwn(ctx context.Context, endpoint string, profileID uuid.UUID) error
}

type PushHandler struct {
	dispatcher    Dispatcher
	subscriptions SubscriptionStore
}

func NewPushHandler(dispatcher Dispatcher, subscriptions SubscriptionStore) *PushHandler {
	return &PushHandler{dispatcher: dispatcher, subscriptions: subscriptions}
}

type SubscribeRequest struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

type UnsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

type SendResponse struct {
	Success bool `json:"success"`
	Sent    int  `json:"sent"`
}

// Send notifies the other members of the caller's household. The dispatcher
// runs its checks in a fixed order, so a misconfigured server answers 500
// before anything else.
func (h *PushHandler) Send(c *gin.Context) {
	// Аутентификация необязательна: диспетчер сам вернет 401 в нужном порядке
	callerID, _ := middleware.CurrentUserID(c)

	var msg push.Message
	if err := c.ShouldBindJSON(&msg); err != nil {
		msg = push.Message{}
	}

	sent, err := h.dispatcher.Dispatch(c.Request.Context(), callerID, msg)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, SendResponse{Success: true, Sent: sent})
	case errors.Is(err, push.ErrNotConfigured):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Push notifications not configured"})
	case errors.Is(err, push.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	case errors.Is(err, push.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
	case errors.Is(err, push.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
	case errors.Is(err, push.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
	default:
		log.WithError(err).Error("❌ push dispatch failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send notifications"})
	}
}

// Subscribe stores the browser's push subscription, keyed by endpoint.
func (h *PushHandler) Subscribe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Endpoint == "" || req.Keys.P256dh == "" || req.Keys.Auth == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid subscription"})
		return
	}

	sub := &model.PushSubscription{
		Endpoint:  req.Endpoint,
		P256dh:    req.Keys.P256dh,
		Auth:      req.Keys.Auth,
		ProfileID: userID,
	}
	if err := h.subscriptions.Upsert(c.Request.Context(), sub); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Unsubscribe removes the endpoint only if it belongs to the caller.
func (h *PushHandler) Unsubscribe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req UnsubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Endpoint == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing endpoint"})
		return
	}

	if err := h.subscriptions.DeleteOwn(c.Request.Context(), req.Endpoint, userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove subscription"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *PushHandler) PublicKey(c *gin.Context) {
	key, err := h.dispatcher.PublicKey()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Push notifications not configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"public_key": key})
}
