package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskflow-api/internal/dto"
	apierrors "github.com/yukikurage/taskflow-api/internal/errors"
	"github.com/yukikurage/taskflow-api/internal/middleware"
	"github.com/yukikurage/taskflow-api/internal/models"
	"github.com/yukikurage/taskflow-api/internal/services"
	"github.com/yukikurage/taskflow-api/internal/utils"
)

// TotalCountHeader carries the number of tasks matching a list query.
const TotalCountHeader = "X-Total-Count"

// TaskHandler handles task CRUD.
type TaskHandler struct {
	tasks *services.TaskService
	log   *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(tasks *services.TaskService, log *slog.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, log: log}
}

// ListTasks returns the caller's tasks with filters, sorting and pagination.
// Query params: status, priority, due_date, project_id, sort, sort_order, page, limit.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	params, err := utils.GetPaginationParams(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	input, err := parseTaskFilters(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	input.Offset = params.Offset
	input.Limit = params.Limit

	tasks, total, err := h.tasks.ListTasks(c.Request.Context(), userID, input)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.Header(TotalCountHeader, strconv.FormatInt(total, 10))
	c.JSON(http.StatusOK, dto.ToTaskDTOs(tasks))
}

func parseTaskFilters(c *gin.Context) (services.ListTasksInput, error) {
	verr := &apierrors.ValidationError{}
	input := services.ListTasksInput{
		SortBy: c.Query("sort"),
		Order:  c.Query("sort_order"),
	}

	if raw := c.Query("status"); raw != "" {
		status := models.TaskStatus(raw)
		input.Status = &status
	}
	if raw := c.Query("priority"); raw != "" {
		priority := models.TaskPriority(raw)
		input.Priority = &priority
	}
	if raw := c.Query("due_date"); raw != "" {
		due, err := dto.ParseDueDate(raw)
		if err != nil {
			verr.Add("due_date", "must be an RFC3339 timestamp or a YYYY-MM-DD date")
		} else {
			input.DueDate = &due
		}
	}
	if raw := c.Query("project_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			verr.Add("project_id", "value is not a valid integer")
		} else {
			input.ProjectID = &id
		}
	}
	switch input.Order {
	case "", "asc", "desc":
	default:
		verr.Add("sort_order", "must be one of [asc desc]")
	}

	return input, verr.OrNil()
}

// GetTask returns one task.
func (h *TaskHandler) GetTask(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	task, err := h.tasks.GetTask(c.Request.Context(), userID, middleware.GetResourceID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// CreateTask creates a task in one of the caller's projects.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	task, err := h.tasks.CreateTask(c.Request.Context(), userID, services.CreateTaskInput{
		Title:          req.Title,
		Description:    req.Description,
		Status:         req.Status,
		Priority:       req.Priority,
		DueDate:        req.DueDate.Ptr(),
		ProjectID:      req.ProjectID,
		AssignedUserID: req.AssignedUserID,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// UpdateTask applies the keys present in the body. Null clears description,
// due_date and assigned_user_id; it is rejected for every other field.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req dto.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	verr := &apierrors.ValidationError{}
	requireNotNull(verr, "title", req.Title.IsNull())
	requireNotNull(verr, "status", req.Status.IsNull())
	requireNotNull(verr, "priority", req.Priority.IsNull())
	requireNotNull(verr, "project_id", req.ProjectID.IsNull())
	if err := verr.OrNil(); err != nil {
		respondError(c, h.log, err)
		return
	}

	input := services.UpdateTaskInput{
		Title:            req.Title.Value,
		Description:      req.Description.Value,
		ClearDescription: req.Description.IsNull(),
		Status:           req.Status.Value,
		Priority:         req.Priority.Value,
		ClearDueDate:     req.DueDate.IsNull(),
		ProjectID:        req.ProjectID.Value,
		AssignedUserID:   req.AssignedUserID.Value,
		ClearAssignee:    req.AssignedUserID.IsNull(),
	}
	if req.DueDate.Present() {
		input.DueDate = req.DueDate.Value.Ptr()
	}

	task, err := h.tasks.UpdateTask(c.Request.Context(), userID, middleware.GetResourceID(c), input)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// DeleteTask deletes a task and returns it.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	task, err := h.tasks.DeleteTask(c.Request.Context(), userID, middleware.GetResourceID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}
