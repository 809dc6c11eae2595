package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"threadmind/internal/infrastructure/config"
	"threadmind/internal/interfaces/http/middleware"
	"threadmind/internal/shared/logger"
)

// Router owns the Gin engine and route table.
type Router struct {
	engine    *gin.Engine
	container *Container
	logger    logger.Interface
}

func NewRouter(container *Container, log logger.Interface) *Router {
	return &Router{
		engine:    gin.New(),
		container: container,
		logger:    log,
	}
}

// SetupRoutes configures all HTTP routes
func (r *Router) SetupRoutes(cfg *config.Config) {
	r.engine.Use(middleware.Logger(r.logger))
	r.engine.Use(middleware.Recovery(r.logger))
	r.engine.Use(middleware.CORS(cfg.Server.AllowedOrigins))

	r.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.engine.POST("/auth/token", r.container.AuthHandler.IssueToken)

	api := r.engine.Group("/api/v1")
	api.Use(r.container.AuthMiddleware.RequireAuth())
	{
		tenant := api.Group("/tenant")
		{
			tenant.GET("/state", r.container.TenantHandler.GetState)
			tenant.POST("/register", r.container.TenantHandler.Register)
			tenant.POST("/disconnect", r.container.TenantHandler.Disconnect)
		}

		api.GET("/credits", r.container.CreditHandler.GetBalance)

		indexing := api.Group("/indexing")
		{
			indexing.POST("/plan", r.container.IndexingHandler.Plan)
			indexing.POST("/jobs", r.container.IndexingHandler.Enqueue)
			indexing.DELETE("/jobs", r.container.IndexingHandler.Cancel)
			indexing.POST("/drain", r.container.IndexingHandler.Drain)
			indexing.GET("/progress", r.container.IndexingHandler.Progress)
			indexing.POST("/clear", r.container.IndexingHandler.Clear)
		}

		tasks := api.Group("/tasks")
		{
			tasks.POST("", r.container.TaskHandler.CreateTask)
			tasks.GET("", r.container.TaskHandler.ListTasks)
			tasks.PUT("/:id", r.container.TaskHandler.UpdateTask)
			tasks.DELETE("/:id", r.container.TaskHandler.DeleteTask)
			tasks.PATCH("/:id/status", r.container.TaskHandler.ToggleTask)
			tasks.POST("/:id/run", r.container.TaskHandler.RunTask)
		}

		events := api.Group("/events")
		{
			events.POST("/content-approved", r.container.EventHandler.ContentApproved)
		}
	}
}

// GetEngine returns the Gin engine
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
