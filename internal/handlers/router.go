package handlers

import (
	"log/slog"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	apierrors "github.com/yukikurage/taskflow-api/internal/errors"
	"github.com/yukikurage/taskflow-api/internal/logger"
	"github.com/yukikurage/taskflow-api/internal/middleware"
	"github.com/yukikurage/taskflow-api/internal/services"
)

// RouterConfig holds everything the HTTP layer needs.
type RouterConfig struct {
	AppName      string
	Log          *slog.Logger
	CORSOrigins  []string
	SessionStore sessions.Store

	AuthService    *services.AuthService
	ProjectService *services.ProjectService
	TaskService    *services.TaskService
	Health         *HealthHandler
}

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		apierrors.RegisterJSONTagNames(v)
	}
}

// NewRouter wires middleware and routes. Every route answers with and
// without a trailing slash.
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.RedirectTrailingSlash = false
	r.Use(gin.Recovery())
	r.Use(logger.RequestLogger(cfg.Log))
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.Sessions(cfg.SessionStore))

	authHandler := NewAuthHandler(cfg.AuthService, cfg.Log)
	userHandler := NewUserHandler(cfg.AuthService, cfg.Log)
	projectHandler := NewProjectHandler(cfg.ProjectService, cfg.TaskService, cfg.Log)
	taskHandler := NewTaskHandler(cfg.TaskService, cfg.Log)

	handle(r, "GET", "/", Root(cfg.AppName))
	if cfg.Health != nil {
		handle(r, "GET", "/health", cfg.Health.Health)
	}

	api := r.Group("/api")

	// Public auth routes
	auth := api.Group("/auth")
	handle(auth, "POST", "/signup", authHandler.Signup)
	handle(auth, "POST", "/login", authHandler.Login)
	handle(auth, "POST", "/logout", authHandler.Logout)

	// Protected routes
	protected := api.Group("")
	protected.Use(middleware.RequireAuth(cfg.AuthService, cfg.Log))

	users := protected.Group("/users")
	handle(users, "GET", "/me", userHandler.GetMe)
	handle(users, "PATCH", "/me", userHandler.UpdateMe)

	projects := protected.Group("/projects")
	handle(projects, "GET", "", projectHandler.ListProjects)
	handle(projects, "POST", "", projectHandler.CreateProject)
	projectByID := projects.Group("/:id", middleware.RequireIDParam())
	handle(projectByID, "GET", "", projectHandler.GetProject)
	handle(projectByID, "PATCH", "", projectHandler.UpdateProject)
	handle(projectByID, "DELETE", "", projectHandler.DeleteProject)
	handle(projectByID, "POST", "/suggestions", projectHandler.SuggestTasks)

	tasks := protected.Group("/tasks")
	handle(tasks, "GET", "", taskHandler.ListTasks)
	handle(tasks, "POST", "", taskHandler.CreateTask)
	taskByID := tasks.Group("/:id", middleware.RequireIDParam())
	handle(taskByID, "GET", "", taskHandler.GetTask)
	handle(taskByID, "PATCH", "", taskHandler.UpdateTask)
	handle(taskByID, "DELETE", "", taskHandler.DeleteTask)

	return r
}

// handle registers path both bare and with a trailing slash.
func handle(r gin.IRoutes, method, path string, h gin.HandlerFunc) {
	r.Handle(method, path, h)
	if path == "/" {
		return
	}
	r.Handle(method, path+"/", h)
}
