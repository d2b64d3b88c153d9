package hearing

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/lawdesk/internal/handler"
	"github.com/jwalitptl/lawdesk/internal/middleware"
	"github.com/jwalitptl/lawdesk/internal/model"
	hearingService "github.com/jwalitptl/lawdesk/internal/service/hearing"
	"github.com/jwalitptl/lawdesk/pkg/httputil"
)

type Handler struct {
	service hearingService.HearingServicer
}

func NewHandler(service hearingService.HearingServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/cases/:id/hearings", h.AddHearing)
	r.GET("/cases/:id/hearings", h.ListHearings)
	r.PUT("/hearings/:id", h.UpdateHearing)
	r.DELETE("/hearings/:id", h.DeleteHearing)
}

func (h *Handler) AddHearing(c *gin.Context) {
	caseID, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}
	var in model.HearingInput
	if !handler.BindJSON(c, &in) {
		return
	}
	created, err := h.service.AddHearing(c.Request.Context(), middleware.UserID(c), caseID, &in)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, created)
}

func (h *Handler) ListHearings(c *gin.Context) {
	caseID, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}
	hearings, err := h.service.ListHearings(c.Request.Context(), middleware.UserID(c), caseID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, hearings)
}

func (h *Handler) UpdateHearing(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}
	var in model.HearingInput
	if !handler.BindJSON(c, &in) {
		return
	}
	updated, err := h.service.UpdateHearing(c.Request.Context(), middleware.UserID(c), id, &in)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, updated)
}

func (h *Handler) DeleteHearing(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteHearing(c.Request.Context(), middleware.UserID(c), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
