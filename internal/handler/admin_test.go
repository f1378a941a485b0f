package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"order-gateway/internal/model"
)

func seedOperator(t *testing.T) {
	t.Helper()
	operator := model.Operator{Email: "ops@example.com", Name: "Ops", Role: "admin"}
	if err := operator.SetPassword("secret123"); err != nil {
		t.Fatalf("set password: %v", err)
	}
	if err := model.DB.Create(&operator).Error; err != nil {
		t.Fatalf("create operator: %v", err)
	}
}

func login(t *testing.T, r http.Handler, email, password string) (int, string) {
	t.Helper()
	payload, _ := json.Marshal(map[string]string{"email": email, "password": password})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		return w.Code, ""
	}
	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad login response: %v", err)
	}
	return w.Code, resp.Data.Token
}

func TestLogin(t *testing.T) {
	r := setupTestServer(t)
	seedOperator(t)

	code, token := login(t, r, "ops@example.com", "secret123")
	if code != http.StatusOK {
		t.Fatalf("login status = %d", code)
	}
	if token == "" {
		t.Fatal("empty token")
	}

	if code, _ := login(t, r, "ops@example.com", "wrong"); code != http.StatusUnauthorized {
		t.Errorf("wrong password status = %d, want 401", code)
	}
}

func TestAdminQueueRequiresAuth(t *testing.T) {
	r := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/queue", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAdminQueueListAndRequeue(t *testing.T) {
	r := setupTestServer(t)
	seedOperator(t)
	_, token := login(t, r, "ops@example.com", "secret123")

	// 一条死信记录
	now := time.Now()
	terminalErr := "max retries exceeded: x"
	entry := model.WebhookQueueEntry{
		OrgID:       "org-1",
		Platform:    model.PlatformUberEats,
		Payload:     "{}",
		RetryCount:  6,
		MaxRetries:  6,
		ProcessedAt: &now,
		LastError:   &terminalErr,
	}
	if err := model.DB.Create(&entry).Error; err != nil {
		t.Fatalf("create entry: %v", err)
	}

	// 死信过滤
	req := httptest.NewRequest(http.MethodGet, "/api/admin/queue?status=dead", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}

	var resp struct {
		Data struct {
			Total int64 `json:"total"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad list response: %v", err)
	}
	if resp.Data.Total != 1 {
		t.Errorf("dead total = %d, want 1", resp.Data.Total)
	}

	// 人工重放
	req = httptest.NewRequest(http.MethodPost, "/api/admin/queue/"+entry.ID+"/requeue", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("requeue status = %d, body = %s", w.Code, w.Body.String())
	}

	var updated model.WebhookQueueEntry
	model.DB.First(&updated, "id = ?", entry.ID)
	if !updated.Live() {
		t.Error("requeued entry should be live")
	}
}
