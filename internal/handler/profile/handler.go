package profile

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/lawdesk/internal/handler"
	"github.com/jwalitptl/lawdesk/internal/middleware"
	"github.com/jwalitptl/lawdesk/internal/model"
	profileService "github.com/jwalitptl/lawdesk/internal/service/profile"
	"github.com/jwalitptl/lawdesk/pkg/httputil"
)

type Handler struct {
	service profileService.ProfileServicer
}

func NewHandler(service profileService.ProfileServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/me", h.GetProfile)
	r.PUT("/me", h.UpdateProfile)
}

func (h *Handler) GetProfile(c *gin.Context) {
	u, err := h.service.GetProfile(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, u)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req model.UpdateProfileRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	u, err := h.service.UpdateProfile(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, u)
}
