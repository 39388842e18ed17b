package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskflow-api/internal/dto"
	apierrors "github.com/yukikurage/taskflow-api/internal/errors"
	"github.com/yukikurage/taskflow-api/internal/middleware"
	"github.com/yukikurage/taskflow-api/internal/services"
	"github.com/yukikurage/taskflow-api/internal/utils"
)

// ProjectHandler handles project CRUD and AI task suggestions.
type ProjectHandler struct {
	projects *services.ProjectService
	tasks    *services.TaskService
	log      *slog.Logger
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(projects *services.ProjectService, tasks *services.TaskService, log *slog.Logger) *ProjectHandler {
	return &ProjectHandler{
		projects: projects,
		tasks:    tasks,
		log:      log,
	}
}

// ListProjects returns the caller's projects (skip/limit pagination).
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	params, err := utils.GetSkipLimitParams(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	projects, err := h.projects.ListProjects(c.Request.Context(), userID, params.Offset, params.Limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToProjectDTOs(projects))
}

// GetProject returns one project with its tasks.
func (h *ProjectHandler) GetProject(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	result, err := h.projects.GetProject(c.Request.Context(), userID, middleware.GetResourceID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToProjectWithTasksDTO(*result.Project, result.Tasks))
}

// CreateProject creates a project owned by the caller.
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req dto.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	project, err := h.projects.CreateProject(c.Request.Context(), userID, services.CreateProjectInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToProjectDTO(*project))
}

// UpdateProject applies the keys present in the body.
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req dto.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	verr := &apierrors.ValidationError{}
	requireNotNull(verr, "name", req.Name.IsNull())
	if err := verr.OrNil(); err != nil {
		respondError(c, h.log, err)
		return
	}

	project, err := h.projects.UpdateProject(c.Request.Context(), userID, middleware.GetResourceID(c), services.UpdateProjectInput{
		Name:             req.Name.Value,
		Description:      req.Description.Value,
		ClearDescription: req.Description.IsNull(),
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToProjectDTO(*project))
}

// DeleteProject deletes a project and its tasks, returning the deleted project.
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	project, err := h.projects.DeleteProject(c.Request.Context(), userID, middleware.GetResourceID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToProjectDTO(*project))
}

// SuggestTasks returns AI-generated task suggestions for a project.
// Nothing is saved; the client creates the tasks it wants to keep.
func (h *ProjectHandler) SuggestTasks(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req dto.SuggestTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	suggestions, err := h.tasks.SuggestTasks(c.Request.Context(), userID, middleware.GetResourceID(c), req.Text)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"suggestions": suggestions,
		"count":       len(suggestions),
	})
}
