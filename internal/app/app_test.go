package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/lawdesk/config"
	"github.com/jwalitptl/lawdesk/internal/email"
	"github.com/jwalitptl/lawdesk/internal/middleware"
	"github.com/jwalitptl/lawdesk/internal/reminder"
	"github.com/jwalitptl/lawdesk/internal/repository/memory"
	"github.com/jwalitptl/lawdesk/internal/sms"
	"github.com/jwalitptl/lawdesk/pkg/logger"
)

const cronSecret = "cron-secret"

type fakeSMS struct {
	mu   sync.Mutex
	sent []*sms.Message
}

func (f *fakeSMS) Validate() error { return nil }

func (f *fakeSMS) Send(_ context.Context, msg *sms.Message) (*sms.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return &sms.Receipt{ID: "SM0001", Status: "queued"}, nil
}

type fakeEmail struct{}

func (fakeEmail) Validate() error { return nil }

func (fakeEmail) Send(context.Context, *email.Message) (*email.Receipt, error) {
	return &email.Receipt{ID: "msg-1", Status: "accepted"}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Environment: config.EnvProduction,
		Server: config.ServerConfig{
			MaxBodyBytes:   1 << 20,
			RequestTimeout: 5 * time.Second,
			AllowedOrigins: []string{"*"},
		},
		JWT:  config.JWTConfig{Secret: "jwt-secret", Issuer: "lawdesk", ExpiryHours: 1},
		Cron: config.CronConfig{Secret: cronSecret},
		Reminders: config.ReminderConfig{
			Policy:             config.PolicyTimestamp,
			Channel:            config.ChannelSMS,
			Timezone:           "Asia/Kolkata",
			DefaultTime:        "18:00",
			OffsetDays:         1,
			WindowMinutes:      10,
			BatchSize:          20,
			DefaultCountryCode: "+91",
			BrandName:          "LawDesk",
		},
	}
}

type harness struct {
	t      *testing.T
	server http.Handler
	sms    *fakeSMS
	token  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	store := memory.NewStore()
	fake := &fakeSMS{}
	a, err := Build(testConfig(), logger.Nop(), Stores{
		Users:    store.Users(),
		Cases:    store.Cases(),
		Hearings: store.Hearings(),
	}, nil, Overrides{
		SMS:   fake,
		Email: fakeEmail{},
		Clock: reminder.FixedClock(time.Date(2025, 3, 1, 18, 5, 0, 0, loc)),
	})
	require.NoError(t, err)

	token, _, err := a.Tokens.Issue("user-1", "advocate@example.com")
	require.NoError(t, err)
	return &harness{t: t, server: a.Router().Engine(), sms: fake, token: token}
}

func (h *harness) do(method, path string, body interface{}, headers map[string]string) (int, map[string]interface{}) {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.server.ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(h.t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w.Code, out
}

func (h *harness) authed(method, path string, body interface{}) (int, map[string]interface{}) {
	return h.do(method, path, body, map[string]string{"Authorization": "Bearer " + h.token})
}

func (h *harness) trigger(path string) (int, map[string]interface{}) {
	return h.do(http.MethodPost, path, nil, map[string]string{middleware.HeaderCronSecret: cronSecret})
}

// seed stores a profile, a case and a hearing dated 2025-03-02.
func (h *harness) seed(notificationTime string) string {
	code, _ := h.authed(http.MethodPut, "/api/v1/me", map[string]string{"mobile": "98765 43210", "display_name": "A. Advocate"})
	require.Equal(h.t, http.StatusOK, code)

	code, resp := h.authed(http.MethodPost, "/api/v1/cases", map[string]string{
		"client_name":        "Ramesh Kumar",
		"case_number":        "CS/123/2024",
		"first_hearing_date": "2025-02-10",
	})
	require.Equal(h.t, http.StatusCreated, code, resp)
	caseID := resp["data"].(map[string]interface{})["id"].(string)

	code, resp = h.authed(http.MethodPost, "/api/v1/cases/"+caseID+"/hearings", map[string]string{
		"hearing_date":      "2025-03-02",
		"notification_time": notificationTime,
		"next_stage":        "Evidence",
	})
	require.Equal(h.t, http.StatusCreated, code, resp)
	return caseID
}

func TestFlow_ProcessScheduled(t *testing.T) {
	h := newHarness(t)
	caseID := h.seed("")

	code, resp := h.authed(http.MethodGet, "/api/v1/cases/"+caseID, nil)
	require.Equal(t, http.StatusOK, code)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "2025-03-02", data["next_hearing_date"])
	assert.Equal(t, "Evidence", data["next_stage"])

	code, resp = h.trigger("/api/v1/reminders/process")
	require.Equal(t, http.StatusOK, code, resp)
	assert.Equal(t, map[string]interface{}{"processed": 1.0, "sent": 1.0, "failed": 0.0, "skipped": 0.0}, resp)

	require.Len(t, h.sms.sent, 1)
	assert.Equal(t, "+919876543210", h.sms.sent[0].To)
	assert.Contains(t, h.sms.sent[0].Body, "CS/123/2024")

	code, resp = h.authed(http.MethodGet, "/api/v1/cases/"+caseID+"/hearings", nil)
	require.Equal(t, http.StatusOK, code)
	hearings := resp["data"].([]interface{})
	require.Len(t, hearings, 1)
	hearing := hearings[0].(map[string]interface{})
	assert.Equal(t, true, hearing["reminder_sent"])
	assert.Equal(t, "SM0001", hearing["reminder_sid"])

	code, resp = h.trigger("/api/v1/reminders/process")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0.0, resp["processed"])
	assert.Len(t, h.sms.sent, 1)
}

func TestFlow_NotifyWindow(t *testing.T) {
	h := newHarness(t)
	h.seed("")

	code, resp := h.trigger("/api/v1/reminders/notify")
	require.Equal(t, http.StatusOK, code, resp)
	assert.Equal(t, true, resp["ok"])
	assert.Equal(t, 1.0, resp["sent"])

	code, resp = h.trigger("/api/v1/reminders/notify")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0.0, resp["sent"])
	assert.Len(t, h.sms.sent, 1, "a repeated trigger inside the window does not resend")
}

func TestFlow_Auth(t *testing.T) {
	h := newHarness(t)

	code, resp := h.do(http.MethodPost, "/api/v1/reminders/process", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Unauthorized", resp["error"])

	code, _ = h.do(http.MethodGet, "/api/v1/reminders/process?secret="+cronSecret, nil, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = h.do(http.MethodGet, "/api/v1/cases", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = h.do(http.MethodGet, "/health/live", nil, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestFlow_Validation(t *testing.T) {
	h := newHarness(t)
	caseID := h.seed("")

	code, resp := h.authed(http.MethodPost, "/api/v1/cases/"+caseID+"/hearings", map[string]string{
		"hearing_date":      "2025-03-05",
		"notification_time": "25:99",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "error", resp["status"])

	code, _ = h.authed(http.MethodPut, "/api/v1/me", map[string]string{"mobile": "12"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = h.authed(http.MethodPost, "/api/v1/reminders/test-sms", map[string]string{"to": "9876543210"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp = h.authed(http.MethodPost, "/api/v1/reminders/test-sms", map[string]string{"to": "+919876543210"})
	require.Equal(t, http.StatusOK, code, resp)
	assert.Equal(t, "SM0001", resp["data"].(map[string]interface{})["sid"])
}
