package handler

import (
	"anoa.com/handchatter/internal/middleware"
	"anoa.com/handchatter/internal/modules/verification/dto"
	verification "anoa.com/handchatter/internal/modules/verification/service"
	"anoa.com/handchatter/pkg/response"
	"github.com/gin-gonic/gin"
)

type VerificationHandler struct {
	service    verification.VerificationService
	exposeCode bool
}

// NewVerificationHandler builds the email handlers. exposeCode echoes the
// issued code in the response and must only be set in development.
func NewVerificationHandler(service verification.VerificationService, exposeCode bool) *VerificationHandler {
	return &VerificationHandler{service: service, exposeCode: exposeCode}
}

// SendEmail handles POST /api/email.
func (h *VerificationHandler) SendEmail(c *gin.Context) {
	var input dto.SendEmailInput
	if err := c.ShouldBind(&input); err != nil {
		response.ValidationError(c, err)
		return
	}

	code, err := h.service.IssueChallenge(c.Request.Context(), input.Email)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	extra := gin.H{}
	if h.exposeCode {
		extra["randomNum"] = code
	}
	response.Message(c, "verification code sent", extra)
}

// VerifyEmail handles POST /api/email/verify.
func (h *VerificationHandler) VerifyEmail(c *gin.Context) {
	var input dto.VerifyEmailInput
	if err := c.ShouldBind(&input); err != nil {
		response.ValidationError(c, err)
		return
	}

	ticketID, _ := c.Cookie(middleware.SignupCookie)
	if err := h.service.VerifyChallenge(c.Request.Context(), input.Email, input.Code, ticketID); err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Message(c, "email verified", gin.H{"verified": true})
}
