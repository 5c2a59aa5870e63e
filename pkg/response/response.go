package response

import (
	"errors"
	"net/http"

	"anoa.com/kopilka/pkg/apperror"
	"anoa.com/kopilka/pkg/logger"
	"anoa.com/kopilka/pkg/validator"
	"github.com/gin-gonic/gin"
	playground "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var log = logger.Nop()

// SetLogger installs the logger used for server-side error reporting.
func SetLogger(l *logger.Logger) {
	if l != nil {
		log = l.With("component", "response")
	}
}

// GetUserID retrieves the authenticated user ID from the context
func GetUserID(c *gin.Context) (uuid.UUID, error) {
	userIDStr, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	raw, ok := userIDStr.(string)
	if !ok {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	return userID, nil
}

// ResponseError standardized error response
func ResponseError(c *gin.Context, err error) {
	ResponseErrorWithMessage(c, err, "")
}

// ResponseErrorWithMessage is ResponseError with a caller-chosen message for 5xx responses.
// Internal details never leave the server; they are logged instead.
func ResponseErrorWithMessage(c *gin.Context, err error, internalMessage string) {
	var validationErrs playground.ValidationErrors
	if errors.As(err, &validationErrs) {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(validationErrs)})
		return
	}

	code := apperror.MapErrorToStatus(err)

	if code >= http.StatusInternalServerError {
		log.Error("request failed", "path", c.FullPath(), "error", err)
		if internalMessage == "" {
			internalMessage = apperror.ErrInternal.Error()
		}
		c.JSON(code, gin.H{"error": internalMessage})
		return
	}

	c.JSON(code, gin.H{"error": err.Error()})
}

// BadRequest writes a 400 with the given message.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}

// BindError writes a 400 for a failed ShouldBind* call.
func BindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
}
