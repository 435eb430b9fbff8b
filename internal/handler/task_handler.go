package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"famtasks/internal/model"
	"famtasks/internal/realtime"
	"famtasks/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type TaskStore interface {
	ListByHousehold(ctx context.Context, householdID uuid.UUID) ([]model.Task, error)
	GetByID(ctx context.Context, householdID, id uuid.UUID) (*model.Task, error)
	Create(ctx context.Context, task *model.Task) error
	Update(ctx context.Context, householdID, id uuid.UUID, patch model.TaskPatch) (*model.Task, error)
	Delete(ctx context.Context, householdID, id uuid.UUID) (*model.Task, error)
	Reorder(ctx context.Context, householdID uuid.UUID, taskIDs []uuid.UUID) ([]model.Task, error)
	ListAssignees(ctx context.Context, taskID uuid.UUID) ([]model.Profile, error)
	SetAssignees(ctx context.Context, taskID uuid.UUID, profileIDs []uuid.UUID) error
	ListImages(ctx context.Context, taskID uuid.UUID) ([]model.TaskImage, error)
}

type CategoryGetter interface {
	GetByID(ctx context.Context, householdID, id uuid.UUID) (*model.Category, error)
}

type MemberLister interface {
	ListByHousehold(ctx context.Context, householdID uuid.UUID) ([]model.Profile, error)
}

type TaskHandler struct {
	tasks      TaskStore
	categories CategoryGetter
	members    MemberLister
	publisher  realtime.Publisher
	source     realtime.Source
	keepAlive  time.Duration
	now        func() time.Time
}

func NewTaskHandler(
	tasks TaskStore,
	categories CategoryGetter,
	members MemberLister,
	publisher realtime.Publisher,
	source realtime.Source,
) *TaskHandler {
	return &TaskHandler{
		tasks:      tasks,
		categories: categories,
		members:    members,
		publisher:  publisher,
		source:     source,
		keepAlive:  realtime.KeepAliveInterval,
		now:        time.Now,
	}
}

// CreateTaskRequest представляет запрос на создание задачи. ID можно передать
// с клиента, чтобы оптимистичная запись совпала с сохраненной.
type CreateTaskRequest struct {
	ID         *uuid.UUID `json:"id"`
	Title      string     `json:"title" binding:"required,min=1,max=200"`
	CategoryID *uuid.UUID `json:"category_id"`
	Memo       *string    `json:"memo"`
	URL        *string    `json:"url" binding:"omitempty,url"`
	DueDate    *time.Time `json:"due_date"`
}

type ReorderTasksRequest struct {
	TaskIDs []uuid.UUID `json:"task_ids" binding:"required,min=1"`
}

type SetAssigneesRequest struct {
	ProfileIDs []uuid.UUID `json:"profile_ids"`
}

// TaskDetailResponse представляет задачу вместе с исполнителями и изображениями
type TaskDetailResponse struct {
	model.Task
	Assignees []model.Profile   `json:"assignees"`
	Images    []model.TaskImage `json:"images"`
}

// List returns open tasks first, then by sort order, newest first.
func (h *TaskHandler) List(c *gin.Context) {
	householdID, ok := currentHouseholdID(c)
	if !ok {
		return
	}

	tasks, err := h.tasks.ListByHousehold(c.Request.Context(), householdID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
		return
	}

	c.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) GetByID(c *gin.Context) {
	householdID, ok := currentHouseholdID(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "task")
	if !ok {
		return
	}

	task, err := h.tasks.GetByID(c.Request.Context(), householdID, taskID)
	if errors.Is(err, repository.ErrTaskNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		return
	}

	// Подгружаем исполнителей и изображения
	assignees, err := h.tasks.ListAssignees(c.Request.Context(), taskID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve assignees"})
		return
	}
	images, err := h.tasks.ListImages(c.Request.Context(), taskID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve images"})
		return
	}

	c.JSON(http.StatusOK, TaskDetailResponse{Task: *task, Assignees: assignees, Images: images})
}

func (h *TaskHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	householdID, ok := currentHouseholdID(c)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title is required"})
		return
	}

	// Категория должна принадлежать тому же домохозяйству
	if req.CategoryID != nil && !h.categoryExists(c, householdID, *req.CategoryID) {
		return
	}

	task := &model.Task{
		HouseholdID: householdID,
		CategoryID:  req.CategoryID,
		Title:       title,
		Memo:        req.Memo,
		URL:         req.URL,
		DueDate:     req.DueDate,
		CreatedBy:   &userID,
	}
	if req.ID != nil {
		task.ID = *req.ID
	}

	if err := h.tasks.Create(c.Request.Context(), task); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task"})
		return
	}

	h.publish(c, realtime.Inserted(*task))
	c.JSON(http.StatusCreated, task)
}

// Update applies a partial update. Marking a task done stamps completed_at
// and reopening it clears the stamp, whatever the client sent.
func (h *TaskHandler) Update(c *gin.Context) {
	householdID, ok := currentHouseholdID(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "task")
	if !ok {
		return
	}

	var patch model.TaskPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if patch.Empty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title is required"})
		return
	}
	if patch.CategoryID.Set && patch.CategoryID.Value != nil && !h.categoryExists(c, householdID, *patch.CategoryID.Value) {
		return
	}
	patch.StampCompletion(h.now())

	task, err := h.tasks.Update(c.Request.Context(), householdID, taskID, patch)
	if errors.Is(err, repository.ErrTaskNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task"})
		return
	}

	h.publish(c, realtime.Updated(*task))
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) Delete(c *gin.Context) {
	householdID, ok := currentHouseholdID(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "task")
	if !ok {
		return
	}

	task, err := h.tasks.Delete(c.Request.Context(), householdID, taskID)
	if errors.Is(err, repository.ErrTaskNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete task"})
		return
	}

	h.publish(c, realtime.Deleted(*task))
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

// Reorder gives the listed tasks sort orders 0..n-1 in one transaction.
func (h *TaskHandler) Reorder(c *gin.Context) {
	householdID, ok := currentHouseholdID(c)
	if !ok {
		return
	}

	var req ReorderTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	seen := make(map[uuid.UUID]struct{}, len(req.TaskIDs))
	for _, id := range req.TaskIDs {
		if _, dup := seen[id]; dup {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Duplicate task ID"})
			return
		}
		seen[id] = struct{}{}
	}

	tasks, err := h.tasks.Reorder(c.Request.Context(), householdID, req.TaskIDs)
	if errors.Is(err, repository.ErrTaskNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reorder tasks"})
		return
	}

	for _, task := range tasks {
		h.publish(c, realtime.Updated(task))
	}
	c.JSON(http.StatusOK, gin.H{"message": "Tasks reordered successfully"})
}

// SetAssignees replaces the task's assignees; every assignee must belong to
// the household.
func (h *TaskHandler) SetAssignees(c *gin.Context) {
	householdID, ok := currentHouseholdID(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "task")
	if !ok {
		return
	}

	var req SetAssigneesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if _, err := h.tasks.GetByID(c.Request.Context(), householdID, taskID); err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		return
	}

	members, err := h.members.ListByHousehold(c.Request.Context(), householdID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve members"})
		return
	}
	isMember := make(map[uuid.UUID]struct{}, len(members))
	for _, m := range members {
		isMember[m.ID] = struct{}{}
	}
	for _, id := range req.ProfileIDs {
		if _, ok := isMember[id]; !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Assignee is not a household member"})
			return
		}
	}

	if err := h.tasks.SetAssignees(c.Request.Context(), taskID, req.ProfileIDs); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update assignees"})
		return
	}

	assignees, err := h.tasks.ListAssignees(c.Request.Context(), taskID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve assignees"})
		return
	}

	c.JSON(http.StatusOK, assignees)
}

// Stream sends the household's task changes as server-sent events.
func (h *TaskHandler) Stream(c *gin.Context) {
	householdID, ok := currentHouseholdID(c)
	if !ok {
		return
	}

	sub, err := h.source.Subscribe(c.Request.Context(), householdID)
	if err != nil {
		log.WithError(err).Error("❌ realtime subscribe failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Realtime unavailable"})
		return
	}
	defer sub.Close()

	realtime.Stream(c, sub, h.keepAlive)
}

func (h *TaskHandler) categoryExists(c *gin.Context, householdID, categoryID uuid.UUID) bool {
	_, err := h.categories.GetByID(c.Request.Context(), householdID, categoryID)
	if errors.Is(err, repository.ErrCategoryNotFound) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown category"})
		return false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve category"})
		return false
	}
	return true
}

// publish never fails the request: clients that miss an event catch up on
// their next load.
func (h *TaskHandler) publish(c *gin.Context, ev realtime.Event) {
	if err := h.publisher.Publish(c.Request.Context(), ev); err != nil {
		log.WithError(err).WithField("event", ev.Type).Warn("⚠️  failed to publish task event")
	}
}
