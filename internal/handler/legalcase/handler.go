package legalcase

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/lawdesk/internal/handler"
	"github.com/jwalitptl/lawdesk/internal/middleware"
	"github.com/jwalitptl/lawdesk/internal/model"
	caseService "github.com/jwalitptl/lawdesk/internal/service/legalcase"
	"github.com/jwalitptl/lawdesk/pkg/httputil"
)

type Handler struct {
	service caseService.CaseServicer
}

func NewHandler(service caseService.CaseServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	cases := r.Group("/cases")
	{
		cases.POST("", h.CreateCase)
		cases.GET("", h.ListCases)
		cases.GET("/:id", h.GetCase)
		cases.PUT("/:id", h.UpdateCase)
		cases.DELETE("/:id", h.DeleteCase)
		cases.PATCH("/:id/status", h.ToggleStatus)
		cases.POST("/:id/documents", h.AttachDocument)
		// Public IDs are folder paths, hence the catch-all.
		cases.DELETE("/:id/documents/*publicID", h.DetachDocument)
	}
}

func (h *Handler) CreateCase(c *gin.Context) {
	var req model.CreateCaseRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	created, err := h.service.CreateCase(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, created)
}

func (h *Handler) ListCases(c *gin.Context) {
	cases, err := h.service.ListCases(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, cases)
}

func (h *Handler) GetCase(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}
	found, err := h.service.GetCase(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, found)
}

func (h *Handler) UpdateCase(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}
	var req model.UpdateCaseRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	updated, err := h.service.UpdateCase(c.Request.Context(), middleware.UserID(c), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, updated)
}

func (h *Handler) ToggleStatus(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}
	updated, err := h.service.ToggleStatus(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, updated)
}

func (h *Handler) DeleteCase(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteCase(c.Request.Context(), middleware.UserID(c), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) AttachDocument(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}
	var doc model.DocumentRef
	if !handler.BindJSON(c, &doc) {
		return
	}
	updated, err := h.service.AttachDocument(c.Request.Context(), middleware.UserID(c), id, doc)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, updated)
}

func (h *Handler) DetachDocument(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}
	publicID := strings.TrimPrefix(c.Param("publicID"), "/")
	if publicID == "" {
		httputil.RespondWithBadRequest(c, "public id is required")
		return
	}
	updated, err := h.service.DetachDocument(c.Request.Context(), middleware.UserID(c), id, publicID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, updated)
}
