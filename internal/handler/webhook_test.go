package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"order-gateway/internal/config"
	"order-gateway/internal/model"
	"order-gateway/internal/pkg/signature"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "handler-test-webhook-secret"

// setupTestServer wires an in-memory database and a full router
func setupTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	config.Set(&config.Config{
		Server: config.ServerConfig{Mode: "test"},
		JWT:    config.JWTConfig{Secret: "0123456789abcdef0123456789abcdef", ExpireHours: 1},
	})

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	model.DB = db
	if err := model.AutoMigrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	r := gin.New()
	SetupRouter(r)
	return r
}

func seedTenant(t *testing.T) string {
	t.Helper()

	org := model.Organization{Name: "Handler Restaurant", Slug: "handler", Status: model.OrgStatusActive}
	if err := model.DB.Create(&org).Error; err != nil {
		t.Fatalf("create org: %v", err)
	}
	branch := model.Branch{OrgID: org.ID, Name: "Main", IsDefault: true, Active: true}
	if err := model.DB.Create(&branch).Error; err != nil {
		t.Fatalf("create branch: %v", err)
	}
	integration := model.PlatformIntegration{
		OrgID:    org.ID,
		Platform: model.PlatformUberEats,
		StoreID:  "store-77",
		Secret:   testSecret,
		Active:   true,
	}
	if err := model.DB.Create(&integration).Error; err != nil {
		t.Fatalf("create integration: %v", err)
	}
	return org.ID
}

func uberEatsBody(orderID string) []byte {
	return []byte(fmt.Sprintf(`{
		"event_type": "orders.notification",
		"order": {
			"id": %q,
			"display_id": "D-9",
			"store": {"id": "store-77"},
			"eater": {"first_name": "Sara", "last_name": "Ahmed"},
			"payment": {"charges": {"sub_total": 3000, "tax": 250, "tip": 245, "total": 3495}, "method": "card", "status": "paid"},
			"current_state": "created",
			"cart": {"items": [{"title": "Shawarma", "quantity": 1, "price": 3000}]}
		}
	}`, orderID))
}

func postWebhook(r *gin.Engine, orgID string, body []byte, sig string) *httptest.ResponseRecorder {
	url := "/api/webhooks/ubereats"
	if orgID != "" {
		url += "?org_id=" + orgID
	}
	req := httptest.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if sig != "" {
		req.Header.Set("X-Uber-Signature", sig)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func queueCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	model.DB.Model(&model.WebhookQueueEntry{}).Count(&count)
	return count
}

func TestWebhookSuccess(t *testing.T) {
	r := setupTestServer(t)
	orgID := seedTenant(t)

	body := uberEatsBody("wh-1")
	w := postWebhook(r, orgID, body, signature.Sign(testSecret, body))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response json: %v", err)
	}
	if resp["success"] != true {
		t.Errorf("success = %v", resp["success"])
	}
	if resp["order_id"] == "" || resp["order_id"] == nil {
		t.Error("missing order_id in response")
	}

	var order model.UnifiedOrder
	if err := model.DB.First(&order).Error; err != nil {
		t.Fatalf("order not persisted: %v", err)
	}
	if order.TotalAmount != 34.95 {
		t.Errorf("TotalAmount = %v, want 34.95", order.TotalAmount)
	}
}

func TestWebhookReplayIsIdempotent(t *testing.T) {
	r := setupTestServer(t)
	orgID := seedTenant(t)

	body := uberEatsBody("wh-2")
	sig := signature.Sign(testSecret, body)

	for i := 0; i < 2; i++ {
		if w := postWebhook(r, orgID, body, sig); w.Code != http.StatusOK {
			t.Fatalf("attempt %d: status = %d", i, w.Code)
		}
	}

	var count int64
	model.DB.Model(&model.UnifiedOrder{}).Count(&count)
	if count != 1 {
		t.Errorf("order count = %d, want 1", count)
	}
}

func TestWebhookInvalidSignature(t *testing.T) {
	r := setupTestServer(t)
	orgID := seedTenant(t)

	body := uberEatsBody("wh-3")
	w := postWebhook(r, orgID, body, "deadbeef")

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	// 伪造报文不得入列
	if n := queueCount(t); n != 0 {
		t.Errorf("queue count = %d, want 0", n)
	}
}

func TestWebhookMissingOrg(t *testing.T) {
	r := setupTestServer(t)
	seedTenant(t)

	body := uberEatsBody("wh-4")
	w := postWebhook(r, "", body, signature.Sign(testSecret, body))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if n := queueCount(t); n != 0 {
		t.Errorf("queue count = %d, want 0", n)
	}
}

func TestWebhookUnknownPlatform(t *testing.T) {
	r := setupTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/foodpanda?org_id=x", bytes.NewReader([]byte("{}")))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

// TestWebhookTenantNotReady missing integration returns 404 but the raw
// delivery is queued so a later processor run can pick it up
func TestWebhookTenantNotReady(t *testing.T) {
	r := setupTestServer(t)

	body := uberEatsBody("wh-5")
	w := postWebhook(r, "unprovisioned-org", body, signature.Sign(testSecret, body))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if n := queueCount(t); n != 1 {
		t.Fatalf("queue count = %d, want 1", n)
	}

	var entry model.WebhookQueueEntry
	model.DB.First(&entry)
	if entry.Payload != string(body) {
		t.Error("payload must be stored verbatim")
	}
	if entry.MaxRetries <= 0 {
		t.Error("tenant-miss retries must be bounded")
	}
}

func TestWebhookStoreMismatch(t *testing.T) {
	r := setupTestServer(t)
	orgID := seedTenant(t)
	model.DB.Model(&model.PlatformIntegration{}).
		Where("org_id = ?", orgID).Update("store_id", "different-store")

	body := uberEatsBody("wh-6")
	w := postWebhook(r, orgID, body, signature.Sign(testSecret, body))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if n := queueCount(t); n != 0 {
		t.Errorf("queue count = %d, want 0", n)
	}
}
