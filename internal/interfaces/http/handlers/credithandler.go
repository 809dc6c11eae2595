package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"threadmind/internal/application/credit/usecases"
	"threadmind/internal/shared/logger"
	"threadmind/internal/shared/utils"
)

type CreditHandler struct {
	balanceUC *usecases.GetBalanceUseCase
	logger    logger.Interface
}

func NewCreditHandler(balanceUC *usecases.GetBalanceUseCase, log logger.Interface) *CreditHandler {
	return &CreditHandler{balanceUC: balanceUC, logger: log}
}

// GetBalance returns the remaining and total credits. Pass ?refresh=true to
// bypass the cached snapshot.
func (h *CreditHandler) GetBalance(c *gin.Context) {
	refresh, _ := strconv.ParseBool(c.DefaultQuery("refresh", "false"))

	result, err := h.balanceUC.Execute(c.Request.Context(), usecases.GetBalanceQuery{ForceRefresh: refresh})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}
