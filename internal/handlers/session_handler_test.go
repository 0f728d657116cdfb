package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tejaspachgade2315/Voosh/internal/domain"
	"github.com/tejaspachgade2315/Voosh/internal/platform/kv"
	"github.com/tejaspachgade2315/Voosh/internal/platform/logger"
	"github.com/tejaspachgade2315/Voosh/internal/services"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func newSessionRouter(t *testing.T) (*gin.Engine, services.SessionService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := testLogger(t)
	svc, err := services.NewSessionService(log, kv.NewMemoryStore(), time.Hour)
	if err != nil {
		t.Fatalf("session service: %v", err)
	}
	h := NewSessionHandler(log, svc)

	r := gin.New()
	r.POST("/api/session", h.CreateSession)
	r.GET("/api/session/:id/history", h.GetHistory)
	r.DELETE("/api/session/:id/history", h.ClearHistory)
	r.DELETE("/api/session/:id", h.DeleteSession)
	return r, svc
}

func doRequest(t *testing.T, r *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateSessionEndpoint(t *testing.T) {
	r, _ := newSessionRouter(t)

	w := doRequest(t, r, http.MethodPost, "/api/session", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Session domain.Session `json:"session"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Session.ID == "" {
		t.Fatalf("empty session id in %s", w.Body.String())
	}
}

func TestGetHistoryEndpoint(t *testing.T) {
	r, svc := newSessionRouter(t)
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.AddMessage(ctx, sess.ID, domain.RoleUser, "hello"); err != nil {
		t.Fatalf("add: %v", err)
	}

	w := doRequest(t, r, http.MethodGet, "/api/session/"+sess.ID+"/history", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		Messages []domain.Message `json:"messages"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Messages) != 1 || resp.Messages[0].Content != "hello" {
		t.Fatalf("messages = %#v", resp.Messages)
	}

	w = doRequest(t, r, http.MethodGet, "/api/session/unknown-id/history", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown session status = %d", w.Code)
	}
}

func TestClearHistoryEndpoint(t *testing.T) {
	r, svc := newSessionRouter(t)
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.AddMessage(ctx, sess.ID, domain.RoleUser, "hello"); err != nil {
		t.Fatalf("add: %v", err)
	}

	w := doRequest(t, r, http.MethodDelete, "/api/session/"+sess.ID+"/history", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	history, err := svc.GetHistory(ctx, sess.ID, 10)
	if err != nil || len(history) != 0 {
		t.Fatalf("history after clear = %#v, %v", history, err)
	}

	w = doRequest(t, r, http.MethodDelete, "/api/session/unknown-id/history", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown session status = %d", w.Code)
	}
}

func TestDeleteSessionEndpoint(t *testing.T) {
	r, svc := newSessionRouter(t)
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	w := doRequest(t, r, http.MethodDelete, "/api/session/"+sess.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	got, err := svc.GetSession(ctx, sess.ID)
	if err != nil || got != nil {
		t.Fatalf("session survives delete: %#v, %v", got, err)
	}
}
