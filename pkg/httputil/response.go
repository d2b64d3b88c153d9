package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/lawdesk/pkg/errors"
	"github.com/jwalitptl/lawdesk/pkg/validator"
)

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": data})
}

// RespondWithCreated sends a 201 with the created resource
func RespondWithCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{"status": "success", "data": data})
}

// RespondWithError sends an error response. AppErrors keep their message;
// anything else is reported as a generic internal error.
func RespondWithError(c *gin.Context, err error) {
	statusCode := http.StatusInternalServerError
	message := "internal server error"

	if appErr, ok := errors.As(err); ok {
		statusCode = appErr.StatusCode()
		message = appErr.Message
	}

	c.Error(err)
	c.JSON(statusCode, gin.H{"status": "error", "message": message})
}

// RespondWithBadRequest is a shorthand for binding and parameter errors
func RespondWithBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": message})
}

// RespondWithValidationError reports a failed ShouldBind with per-field
// messages when the validator produced them.
func RespondWithValidationError(c *gin.Context, err error) {
	body := gin.H{"status": "error", "message": validator.Summary(err)}
	if fields := validator.Errors(err); len(fields) > 0 {
		body["errors"] = fields
	}
	c.JSON(http.StatusBadRequest, body)
}
