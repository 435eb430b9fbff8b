package handler_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"famtasks/internal/handler"
	"famtasks/internal/middleware"
	"famtasks/internal/model"
	"famtasks/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupCategoryTest(householdID uuid.UUID) (*gin.Engine, *MockCategoryRepository) {
	gin.SetMode(gin.TestMode)
	repo := new(MockCategoryRepository)
	h := handler.NewCategoryHandler(repo)

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(middleware.HouseholdIDKey, householdID) })
	r.POST("/categories", h.Create)
	r.PUT("/categories/:id", h.Update)
	r.DELETE("/categories/:id", h.Delete)
	return r, repo
}

func categoryRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestCategoryCreate(t *testing.T) {
	householdID := uuid.New()
	r, repo := setupCategoryTest(householdID)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(c *model.Category) bool {
		return c.HouseholdID == householdID && c.Name == "Garden" && c.Color == "#22C55E"
	})).Return(nil)

	resp := categoryRequest(r, "POST", "/categories", `{"name":"Garden","color":"#22C55E"}`)

	assert.Equal(t, http.StatusCreated, resp.Code)
	repo.AssertExpectations(t)
}

func TestCategoryCreate_InvalidColor(t *testing.T) {
	r, repo := setupCategoryTest(uuid.New())

	resp := categoryRequest(r, "POST", "/categories", `{"name":"Garden","color":"green"}`)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCategoryUpdate_ClearsIcon(t *testing.T) {
	householdID, categoryID := uuid.New(), uuid.New()
	r, repo := setupCategoryTest(householdID)
	repo.On("Update", mock.Anything, householdID, categoryID, mock.MatchedBy(func(cols map[string]any) bool {
		icon, ok := cols["icon"]
		return ok && icon.(*string) == nil && len(cols) == 1
	})).Return(nil)
	repo.On("GetByID", mock.Anything, householdID, categoryID).Return(&model.Category{ID: categoryID}, nil)

	resp := categoryRequest(r, "PUT", "/categories/"+categoryID.String(), `{"icon":null}`)

	assert.Equal(t, http.StatusOK, resp.Code)
	repo.AssertExpectations(t)
}

func TestCategoryDelete_NotFound(t *testing.T) {
	householdID, categoryID := uuid.New(), uuid.New()
	r, repo := setupCategoryTest(householdID)
	repo.On("Delete", mock.Anything, householdID, categoryID).Return(repository.ErrCategoryNotFound)

	resp := categoryRequest(r, "DELETE", "/categories/"+categoryID.String(), "")

	assert.Equal(t, http.StatusNotFound, resp.Code)
}

