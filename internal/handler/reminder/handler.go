package reminder

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/lawdesk/internal/handler"
	"github.com/jwalitptl/lawdesk/internal/reminder"
	"github.com/jwalitptl/lawdesk/internal/sms"
	apperrors "github.com/jwalitptl/lawdesk/pkg/errors"
	"github.com/jwalitptl/lawdesk/pkg/httputil"
	"github.com/jwalitptl/lawdesk/pkg/logger"
)

// Runner executes one reminder run per call.
type Runner interface {
	ProcessScheduled(ctx context.Context) (*reminder.ProcessSummary, error)
	NotifyWindow(ctx context.Context) (*reminder.NotifySummary, error)
}

// Handler serves the scheduler trigger endpoints. Their bodies are plain
// summaries, not the API envelope, because the external scheduler reads them.
type Handler struct {
	runner Runner
	sms    sms.Sender
	log    *logger.Logger
}

func NewHandler(runner Runner, smsSender sms.Sender, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{runner: runner, sms: smsSender, log: log}
}

// RegisterTriggerRoutes mounts the run endpoints. The caller guards the group
// with the cron secret.
func (h *Handler) RegisterTriggerRoutes(r gin.IRoutes) {
	r.GET("/process", h.Process)
	r.POST("/process", h.Process)
	r.GET("/notify", h.Notify)
	r.POST("/notify", h.Notify)
}

// RegisterRoutes mounts the authenticated operator endpoints.
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.POST("/test-sms", h.TestSMS)
}

func (h *Handler) Process(c *gin.Context) {
	summary, err := h.runner.ProcessScheduled(c.Request.Context())
	if err != nil {
		h.runError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) Notify(c *gin.Context) {
	summary, err := h.runner.NotifyWindow(c.Request.Context())
	if err != nil {
		h.runError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) runError(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, reminder.ErrRunInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": "run in progress"})
	case apperrors.IsCode(err, apperrors.ErrConfig):
		appErr, _ := apperrors.As(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": appErr.Message})
	default:
		h.log.WithContext(c.Request.Context()).Error(err, "Reminder run failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

type testSMSRequest struct {
	To   string `json:"to" binding:"required"`
	Body string `json:"body" binding:"omitempty,max=1600"`
}

// TestSMS sends an ad-hoc message to check the SMS provider wiring.
func (h *Handler) TestSMS(c *gin.Context) {
	var req testSMSRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	if !reminder.IsE164(req.To) {
		httputil.RespondWithBadRequest(c, "to must be an E.164 number such as +919876543210")
		return
	}
	if err := h.sms.Validate(); err != nil {
		httputil.RespondWithError(c, apperrors.Config(err.Error()))
		return
	}

	body := req.Body
	if body == "" {
		body = "Test message from your hearing reminder service."
	}
	receipt, err := h.sms.Send(c.Request.Context(), &sms.Message{To: req.To, Body: body})
	if err != nil {
		h.log.WithContext(c.Request.Context()).Error(err, "Test SMS failed", "to", req.To)
		c.JSON(http.StatusBadGateway, gin.H{"status": "error", "message": err.Error()})
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"sid": receipt.ID, "status": receipt.Status})
}
