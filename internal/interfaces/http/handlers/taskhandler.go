package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"threadmind/internal/application/automation/usecases"
	"threadmind/internal/domain/automation"
	"threadmind/internal/shared/logger"
	"threadmind/internal/shared/utils"
)

type ToggleTaskRequest struct {
	Pause  bool   `json:"pause"`
	Reason string `json:"reason"`
}

type TaskHandler struct {
	createUC *usecases.CreateTaskUseCase
	updateUC *usecases.UpdateTaskUseCase
	deleteUC *usecases.DeleteTaskUseCase
	listUC   *usecases.ListTasksUseCase
	toggleUC *usecases.ToggleTaskUseCase
	runUC    *usecases.RunTaskUseCase
	logger   logger.Interface
}

func NewTaskHandler(
	createUC *usecases.CreateTaskUseCase,
	updateUC *usecases.UpdateTaskUseCase,
	deleteUC *usecases.DeleteTaskUseCase,
	listUC *usecases.ListTasksUseCase,
	toggleUC *usecases.ToggleTaskUseCase,
	runUC *usecases.RunTaskUseCase,
	log logger.Interface,
) *TaskHandler {
	return &TaskHandler{
		createUC: createUC,
		updateUC: updateUC,
		deleteUC: deleteUC,
		listUC:   listUC,
		toggleUC: toggleUC,
		runUC:    runUC,
		logger:   log,
	}
}

// CreateTask handles POST /tasks
func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	days, err := parseActiveDays(req.ActiveDays)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	task, err := h.createUC.Execute(c.Request.Context(), usecases.CreateTaskCommand{
		Name:       req.Name,
		Type:       automation.TaskType(req.Type),
		Config:     req.Config,
		Frequency:  automation.Frequency(req.Frequency),
		ActiveDays: days,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, toTaskResponse(task), "Task created")
}

// UpdateTask handles PUT /tasks/:id
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	var req TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	days, err := parseActiveDays(req.ActiveDays)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	task, err := h.updateUC.Execute(c.Request.Context(), usecases.UpdateTaskCommand{
		TaskID:     c.Param("id"),
		Name:       req.Name,
		Config:     req.Config,
		Frequency:  automation.Frequency(req.Frequency),
		ActiveDays: days,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Task updated", toTaskResponse(task))
}

// DeleteTask handles DELETE /tasks/:id
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	if err := h.deleteUC.Execute(c.Request.Context(), c.Param("id")); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.NoContentResponse(c)
}

// ListTasks handles GET /tasks
func (h *TaskHandler) ListTasks(c *gin.Context) {
	tasks, err := h.listUC.Execute(c.Request.Context())
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	items := make([]TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		items = append(items, toTaskResponse(task))
	}
	utils.SuccessResponse(c, http.StatusOK, "", items)
}

// ToggleTask handles PATCH /tasks/:id/status
func (h *TaskHandler) ToggleTask(c *gin.Context) {
	var req ToggleTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	task, err := h.toggleUC.Execute(c.Request.Context(), usecases.ToggleTaskCommand{
		TaskID: c.Param("id"),
		Pause:  req.Pause,
		Reason: req.Reason,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", toTaskResponse(task))
}

// RunTask handles POST /tasks/:id/run, executing the task immediately.
func (h *TaskHandler) RunTask(c *gin.Context) {
	result, err := h.runUC.Execute(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}
