package handler

import (
	"net/http"

	"anoa.com/handchatter/internal/modules/account/dto"
	account "anoa.com/handchatter/internal/modules/account/service"
	"anoa.com/handchatter/pkg/response"
	"github.com/gin-gonic/gin"
)

type RecoveryHandler struct {
	recovery account.RecoveryService
}

func NewRecoveryHandler(recovery account.RecoveryService) *RecoveryHandler {
	return &RecoveryHandler{recovery: recovery}
}

// SearchID handles GET /api/searchId.
func (h *RecoveryHandler) SearchID(c *gin.Context) {
	var query dto.SearchIDQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ValidationError(c, err)
		return
	}

	id, err := h.recovery.SearchID(c.Request.Context(), query.Email)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id})
}

// SearchPassword handles GET /api/searchPassword. The reset link goes to the
// account's mailbox only.
func (h *RecoveryHandler) SearchPassword(c *gin.Context) {
	var query dto.SearchPasswordQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ValidationError(c, err)
		return
	}

	if err := h.recovery.SearchPassword(c.Request.Context(), query.ID, query.Email); err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Message(c, "password reset link sent", nil)
}

// ResetPassword handles PATCH /api/resetPassword.
func (h *RecoveryHandler) ResetPassword(c *gin.Context) {
	var input dto.ResetPasswordInput
	if err := c.ShouldBind(&input); err != nil {
		response.ValidationError(c, err)
		return
	}

	if err := h.recovery.ResetPassword(c.Request.Context(), input.Token, input.NewPassword); err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Message(c, "password reset", nil)
}
