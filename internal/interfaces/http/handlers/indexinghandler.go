package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"threadmind/internal/application/indexing/usecases"
	"threadmind/internal/shared/logger"
	"threadmind/internal/shared/utils"
)

type PlanRequest struct {
	ItemIDs        []uint `json:"item_ids"`
	ForumIDs       []uint `json:"forum_ids"`
	MaxAgeDays     int    `json:"max_age_days" validate:"gte=0"`
	ChunkSize      int    `json:"chunk_size" validate:"gte=0"`
	OverlapPercent *int   `json:"overlap_percent" validate:"omitempty,gte=0,lte=50"`
}

type EnqueueRequest struct {
	ItemIDs   []uint `json:"item_ids"`
	ChunkSize int    `json:"chunk_size" validate:"gte=0"`
	// A pointer so an explicit 0 survives; omitting the field falls back to
	// the configured default.
	OverlapPercent *int `json:"overlap_percent" validate:"omitempty,gte=0,lte=50"`
}

type DrainRequest struct {
	BatchSize int `json:"batch_size" validate:"gte=0"`
}

type IndexingHandler struct {
	planUC     *usecases.PlanIndexingUseCase
	enqueueUC  *usecases.EnqueueIndexingUseCase
	drainUC    *usecases.DrainIndexingUseCase
	cancelUC   *usecases.CancelIndexingUseCase
	progressUC *usecases.GetProgressUseCase
	clearUC    *usecases.ClearIndexUseCase
	logger     logger.Interface
}

func NewIndexingHandler(
	planUC *usecases.PlanIndexingUseCase,
	enqueueUC *usecases.EnqueueIndexingUseCase,
	drainUC *usecases.DrainIndexingUseCase,
	cancelUC *usecases.CancelIndexingUseCase,
	progressUC *usecases.GetProgressUseCase,
	clearUC *usecases.ClearIndexUseCase,
	log logger.Interface,
) *IndexingHandler {
	return &IndexingHandler{
		planUC:     planUC,
		enqueueUC:  enqueueUC,
		drainUC:    drainUC,
		cancelUC:   cancelUC,
		progressUC: progressUC,
		clearUC:    clearUC,
		logger:     log,
	}
}

// Plan handles POST /indexing/plan. It is a dry run: nothing is queued and
// no credits move.
func (h *IndexingHandler) Plan(c *gin.Context) {
	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.planUC.Execute(c.Request.Context(), usecases.PlanIndexingQuery{
		ItemIDs:        req.ItemIDs,
		ForumIDs:       req.ForumIDs,
		MaxAgeDays:     req.MaxAgeDays,
		ChunkSize:      req.ChunkSize,
		OverlapPercent: req.OverlapPercent,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", gin.H{
		"to_submit":         result.ToSubmit,
		"new":               result.New,
		"changed":           result.Changed,
		"unchanged":         result.Unchanged,
		"skipped_empty":     result.SkippedEmpty,
		"estimated_credits": result.EstimatedCredits,
	})
}

// Enqueue handles POST /indexing/jobs
func (h *IndexingHandler) Enqueue(c *gin.Context) {
	var req EnqueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.enqueueUC.Execute(c.Request.Context(), usecases.EnqueueIndexingCommand{
		ItemIDs:        req.ItemIDs,
		ChunkSize:      req.ChunkSize,
		OverlapPercent: req.OverlapPercent,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, result, "Indexing job queued")
}

// Drain handles POST /indexing/drain, processing one batch of the active job
// right now instead of waiting for the next scheduled pass.
func (h *IndexingHandler) Drain(c *gin.Context) {
	var req DrainRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.drainUC.Execute(c.Request.Context(), usecases.DrainIndexingCommand{BatchSize: req.BatchSize})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// Cancel handles DELETE /indexing/jobs
func (h *IndexingHandler) Cancel(c *gin.Context) {
	result, err := h.cancelUC.Execute(c.Request.Context())
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Indexing queue cancelled", result)
}

// Progress handles GET /indexing/progress
func (h *IndexingHandler) Progress(c *gin.Context) {
	includeRemote, _ := strconv.ParseBool(c.DefaultQuery("include_remote", "false"))

	result, err := h.progressUC.Execute(c.Request.Context(), usecases.GetProgressQuery{IncludeRemote: includeRemote})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// Clear handles POST /indexing/clear, wiping the remote index and resetting
// local records.
func (h *IndexingHandler) Clear(c *gin.Context) {
	result, err := h.clearUC.Execute(c.Request.Context())
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Index cleared", result)
}
