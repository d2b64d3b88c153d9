package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/lawdesk/pkg/httputil"
)

// ParseID reads a UUID path parameter, answering 400 when it is malformed.
func ParseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		httputil.RespondWithBadRequest(c, "invalid "+param)
		return uuid.Nil, false
	}
	return id, true
}

// BindJSON binds and validates the body, answering 400 on failure.
func BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		httputil.RespondWithValidationError(c, err)
		return false
	}
	return true
}
