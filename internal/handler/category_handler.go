package handler

import (
	"context"
	"errors"
	"net/http"

	"famtasks/internal/model"
	"famtasks/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CategoryStore interface {
	Create(ctx context.Context, category *model.Category) error
	ListByHousehold(ctx context.Context, householdID uuid.UUID) ([]model.Category, error)
	GetByID(ctx context.Context, householdID, id uuid.UUID) (*model.Category, error)
	Update(ctx context.Context, householdID, id uuid.UUID, cols map[string]any) error
	Delete(ctx context.Context, householdID, id uuid.UUID) error
}

type CategoryHandler struct {
	repo CategoryStore
}

func NewCategoryHandler(repo CategoryStore) *CategoryHandler {
	return &CategoryHandler{repo: repo}
}

type CreateCategoryRequest struct {
	Name  string  `json:"name" binding:"required,min=1,max=30"`
	Color string  `json:"color" binding:"omitempty,hexcolor"`
	Icon  *string `json:"icon"`
}

type UpdateCategoryRequest struct {
	Name      *string                `json:"name" binding:"omitempty,min=1,max=30"`
	Color     *string                `json:"color" binding:"omitempty,hexcolor"`
	Icon      model.Nullable[string] `json:"icon"`
	SortOrder *int                   `json:"sort_order" binding:"omitempty,min=0"`
}

func (r UpdateCategoryRequest) columns() map[string]any {
	cols := make(map[string]any)
	if r.Name != nil {
		cols["name"] = *r.Name
	}
	if r.Color != nil {
		cols["color"] = *r.Color
	}
	if r.Icon.Set {
		cols["icon"] = r.Icon.Value
	}
	if r.SortOrder != nil {
		cols["sort_order"] = *r.SortOrder
	}
	return cols
}

func (h *CategoryHandler) List(c *gin.Context) {
	householdID, ok := currentHouseholdID(c)
	if !ok {
		return
	}

	categories, err := h.repo.ListByHousehold(c.Request.Context(), householdID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve categories"})
		return
	}

	c.JSON(http.StatusOK, categories)
}

// Create appends a category at the end of the household's list.
func (h *CategoryHandler) Create(c *gin.Context) {
	householdID, ok := currentHouseholdID(c)
	if !ok {
		return
	}

	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	category := &model.Category{
		HouseholdID: householdID,
		Name:        req.Name,
		Color:       req.Color,
		Icon:        req.Icon,
	}
	if err := h.repo.Create(c.Request.Context(), category); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create category"})
		return
	}

	c.JSON(http.StatusCreated, category)
}

func (h *CategoryHandler) Update(c *gin.Context) {
	householdID, ok := currentHouseholdID(c)
	if !ok {
		return
	}
	categoryID, ok := pathID(c, "category")
	if !ok {
		return
	}

	var req UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	cols := req.columns()
	if len(cols) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}

	if err := h.repo.Update(c.Request.Context(), householdID, categoryID, cols); err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update category"})
		return
	}

	category, err := h.repo.GetByID(c.Request.Context(), householdID, categoryID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve category"})
		return
	}

	c.JSON(http.StatusOK, category)
}

// Delete removes a category; its tasks keep existing without a category.
func (h *CategoryHandler) Delete(c *gin.Context) {
	householdID, ok := currentHouseholdID(c)
	if !ok {
		return
	}
	categoryID, ok := pathID(c, "category")
	if !ok {
		return
	}

	if err := h.repo.Delete(c.Request.Context(), householdID, categoryID); err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete category"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
}
