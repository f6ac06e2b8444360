package response

import (
	"errors"
	"net/http"

	"anoa.com/handchatter/internal/entity"
	"anoa.com/handchatter/pkg/apperror"
	"anoa.com/handchatter/pkg/logger"
	"anoa.com/handchatter/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Context keys set by the session middleware.
const (
	PrincipalKey    = "principal"
	SessionTokenKey = "session_token"
)

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// GetPrincipal retrieves the authenticated principal from the context
func GetPrincipal(c *gin.Context) (*entity.Principal, error) {
	value, exists := c.Get(PrincipalKey)
	if !exists {
		return nil, apperror.ErrUnauthorized
	}

	principal, ok := value.(*entity.Principal)
	if !ok || principal == nil {
		return nil, apperror.ErrUnauthorized
	}

	return principal, nil
}

// GetSessionToken returns the raw session token of the current request, if any.
func GetSessionToken(c *gin.Context) string {
	return c.GetString(SessionTokenKey)
}

// ResponseError standardized error response
func ResponseError(c *gin.Context, err error) {
	code := apperror.MapErrorToStatus(err)
	message := err.Error()

	// Log internal errors
	if code == http.StatusInternalServerError {
		logger.Log.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).WithError(err).Error("internal error")

		var appErr *apperror.AppError
		if !errors.As(err, &appErr) || appErr.Message == "" {
			message = "internal server error"
		}
	}

	c.JSON(code, gin.H{"error": ErrorBody{
		Code:    apperror.Kind(err),
		Message: message,
	}})
}

// ValidationError responds 400 for a failed request binding.
func ValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": ErrorBody{
		Code:    apperror.Kind(apperror.ErrInvalidInput),
		Message: validator.FormatValidationError(err),
	}})
}

// Message responds 200 with a human readable message and optional extra fields.
func Message(c *gin.Context, msg string, extra gin.H) {
	body := gin.H{"result": true, "msg": msg}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}
