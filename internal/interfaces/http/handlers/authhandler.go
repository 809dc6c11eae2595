package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"threadmind/internal/infrastructure/auth"
	"threadmind/internal/shared/logger"
	"threadmind/internal/shared/utils"
)

type TokenRequest struct {
	AdminKey string `json:"admin_key" validate:"required"`
}

type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

// AuthHandler exchanges the configured admin key for a short-lived token.
type AuthHandler struct {
	jwtService *auth.JWTService
	adminKey   string
	logger     logger.Interface
}

func NewAuthHandler(jwtService *auth.JWTService, adminKey string, log logger.Interface) *AuthHandler {
	return &AuthHandler{jwtService: jwtService, adminKey: adminKey, logger: log}
}

// IssueToken handles POST /auth/token
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	if h.adminKey == "" ||
		subtle.ConstantTimeCompare([]byte(req.AdminKey), []byte(h.adminKey)) != 1 {
		h.logger.Warnw("rejected token request", "client_ip", c.ClientIP())
		utils.ErrorResponse(c, http.StatusUnauthorized, "invalid admin key")
		return
	}

	token, expiresIn, err := h.jwtService.Generate("operator")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", TokenResponse{Token: token, ExpiresIn: expiresIn})
}
