package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"threadmind/internal/application/automation/usecases"
	"threadmind/internal/shared/logger"
	"threadmind/internal/shared/utils"
)

type ContentApprovedRequest struct {
	ItemID      uint   `json:"item_id" validate:"required"`
	ForumID     uint   `json:"forum_id" validate:"required"`
	ContentType string `json:"content_type" validate:"required,oneof=topic reply"`
}

// EventHandler receives forum-side hooks.
type EventHandler struct {
	approvedUC *usecases.HandleContentApprovedUseCase
	logger     logger.Interface
}

func NewEventHandler(approvedUC *usecases.HandleContentApprovedUseCase, log logger.Interface) *EventHandler {
	return &EventHandler{approvedUC: approvedUC, logger: log}
}

// ContentApproved handles POST /events/content-approved. Approval-driven
// tasks whose scope covers the forum run inline.
func (h *EventHandler) ContentApproved(c *gin.Context) {
	var req ContentApprovedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	err := h.approvedUC.Execute(c.Request.Context(), usecases.ContentApprovedEvent{
		ItemID:      req.ItemID,
		ForumID:     req.ForumID,
		ContentType: req.ContentType,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Event processed", nil)
}
