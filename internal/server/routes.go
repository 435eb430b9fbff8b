package server

import (
	"context"
	"net/http"
	"time"

	"famtasks/internal/handler"
	"famtasks/internal/middleware"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type Handlers struct {
	User      *handler.UserHandler
	Household *handler.HouseholdHandler
	Category  *handler.CategoryHandler
	Task      *handler.TaskHandler
	Push      *handler.PushHandler
}

func NewRouter(h Handlers, tokens middleware.TokenParser, profiles middleware.ProfileGetter, health func(context.Context) error) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// Public routes
	r.POST("/register", h.User.Register)
	r.POST("/login", h.User.Login)
	r.GET("/healthz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := health(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// /push/send checks configuration before authentication
	r.POST("/push/send", middleware.OptionalJWTAuth(tokens), h.Push.Send)

	// Protected routes - require authentication
	authorized := r.Group("/")
	authorized.Use(middleware.JWTAuthMiddleware(tokens))
	{
		authorized.GET("/me", h.User.Me)
		authorized.PUT("/me", h.User.UpdateMe)

		authorized.POST("/households", h.Household.Create)
		authorized.POST("/households/join", h.Household.Join)

		authorized.POST("/push/subscribe", h.Push.Subscribe)
		authorized.DELETE("/push/subscribe", h.Push.Unsubscribe)
		authorized.GET("/push/vapid-public-key", h.Push.PublicKey)
	}

	// Household routes - require a household
	member := authorized.Group("/")
	member.Use(middleware.RequireHousehold(profiles))
	{
		member.GET("/households/current", h.Household.Current)
		member.PUT("/households/current", h.Household.Rename)
		member.GET("/households/current/members", h.Household.Members)
		member.POST("/households/current/invite-code", h.Household.RotateInviteCode)

		member.GET("/categories", h.Category.List)
		member.POST("/categories", h.Category.Create)
		member.PUT("/categories/:id", h.Category.Update)
		member.DELETE("/categories/:id", h.Category.Delete)

		member.GET("/tasks", h.Task.List)
		member.GET("/tasks/stream", h.Task.Stream)
		member.POST("/tasks/reorder", h.Task.Reorder)
		member.GET("/tasks/:id", h.Task.GetByID)
		member.POST("/tasks", h.Task.Create)
		member.PATCH("/tasks/:id", h.Task.Update)
		member.DELETE("/tasks/:id", h.Task.Delete)
		member.PUT("/tasks/:id/assignees", h.Task.SetAssignees)
	}

	return r
}
