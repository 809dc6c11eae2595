package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"threadmind/internal/application/tenant/usecases"
	"threadmind/internal/shared/logger"
	"threadmind/internal/shared/utils"
)

type RegisterRequest struct {
	SiteURL      string `json:"site_url" validate:"required,url"`
	ContactEmail string `json:"contact_email" validate:"required,email"`
}

type DisconnectRequest struct {
	Reason string `json:"reason"`
}

type StateResponse struct {
	State            string     `json:"state"`
	Cause            string     `json:"cause,omitempty"`
	Plan             string     `json:"plan,omitempty"`
	CreditsRemaining int        `json:"credits_remaining"`
	CreditsTotal     int        `json:"credits_total"`
	Features         []string   `json:"features,omitempty"`
	LastSyncedAt     *time.Time `json:"last_synced_at,omitempty"`
}

type TenantHandler struct {
	resolveStateUC *usecases.ResolveStateUseCase
	registerUC     *usecases.RegisterTenantUseCase
	disconnectUC   *usecases.DisconnectUseCase
	logger         logger.Interface
}

func NewTenantHandler(
	resolveStateUC *usecases.ResolveStateUseCase,
	registerUC *usecases.RegisterTenantUseCase,
	disconnectUC *usecases.DisconnectUseCase,
	log logger.Interface,
) *TenantHandler {
	return &TenantHandler{
		resolveStateUC: resolveStateUC,
		registerUC:     registerUC,
		disconnectUC:   disconnectUC,
		logger:         log,
	}
}

// GetState handles GET /tenant/state
func (h *TenantHandler) GetState(c *gin.Context) {
	result, err := h.resolveStateUC.Execute(c.Request.Context())
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	resp := StateResponse{
		State:            string(result.State),
		Cause:            result.Cause,
		Plan:             string(result.Plan),
		CreditsRemaining: result.CreditsRemaining,
		CreditsTotal:     result.CreditsTotal,
		Features:         result.Features,
	}
	if !result.LastSyncedAt.IsZero() {
		synced := result.LastSyncedAt
		resp.LastSyncedAt = &synced
	}

	utils.SuccessResponse(c, http.StatusOK, "", resp)
}

// Register handles POST /tenant/register
func (h *TenantHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for register", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.registerUC.Execute(c.Request.Context(), usecases.RegisterTenantCommand{
		SiteURL:      req.SiteURL,
		ContactEmail: req.ContactEmail,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, result, "Installation registered")
}

// Disconnect handles POST /tenant/disconnect
func (h *TenantHandler) Disconnect(c *gin.Context) {
	var req DisconnectRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.disconnectUC.Execute(c.Request.Context(), usecases.DisconnectCommand{Reason: req.Reason})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Installation disconnected", result)
}
