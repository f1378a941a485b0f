package service

import (
	"strings"
	"testing"
	"time"

	"order-gateway/internal/model"
)

// TestBackoffSequence successive failed attempts yield 2,4,8,16,32,60,60 minutes
func TestBackoffSequence(t *testing.T) {
	want := []time.Duration{
		2 * time.Minute,
		4 * time.Minute,
		8 * time.Minute,
		16 * time.Minute,
		32 * time.Minute,
		60 * time.Minute,
		60 * time.Minute,
	}

	for i, expected := range want {
		attempt := i + 1 // 失败后自增过的 retry_count
		if got := BackoffDelay(attempt); got != expected {
			t.Errorf("BackoffDelay(%d) = %v, want %v", attempt, got, expected)
		}
	}

	// 上限封顶，不随次数无限增长
	if got := BackoffDelay(30); got != 60*time.Minute {
		t.Errorf("BackoffDelay(30) = %v, want 60m", got)
	}
}

func TestEnqueueCreatesLiveEntry(t *testing.T) {
	db := newTestDB(t)
	queue := NewQueueService(db, newTestReceiver(db), time.Now)

	body := uberEatsBody("o-q1", "created")
	entry, err := queue.Enqueue(model.PlatformUberEats, "org-1", body, signedHeaders(body), "未找到有效的平台接入配置")
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if !entry.Live() {
		t.Error("fresh entry should be live")
	}
	if entry.MaxRetries != queue.MaxRetries {
		t.Errorf("MaxRetries = %d, want %d", entry.MaxRetries, queue.MaxRetries)
	}
	if !entry.NextAttemptAt.After(time.Now()) {
		t.Error("next attempt should be scheduled in the future")
	}
	if entry.Payload != string(body) {
		t.Error("payload must be stored verbatim")
	}
}

// TestProcessDueLateProvisioning an entry queued before the tenant was
// configured succeeds once the integration shows up
func TestProcessDueLateProvisioning(t *testing.T) {
	db := newTestDB(t)
	queue := NewQueueService(db, newTestReceiver(db), time.Now)

	body := uberEatsBody("o-q2", "created")
	entry, err := queue.Enqueue(model.PlatformUberEats, "org-pending", body, signedHeaders(body), "tenant not ready")
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	// 配置补齐
	orgID, _ := seedTenant(t, db)
	db.Model(entry).Updates(map[string]interface{}{
		"org_id":          orgID,
		"next_attempt_at": time.Now().Add(-time.Minute),
	})

	succeeded, failed := queue.ProcessDue()
	if succeeded != 1 || failed != 0 {
		t.Fatalf("ProcessDue = (%d, %d), want (1, 0)", succeeded, failed)
	}

	var updated model.WebhookQueueEntry
	db.First(&updated, "id = ?", entry.ID)
	if updated.ProcessedAt == nil {
		t.Error("entry should be marked processed")
	}
	if updated.LastError != nil {
		t.Errorf("last_error should be cleared, got %q", *updated.LastError)
	}

	var orderCount int64
	db.Model(&model.UnifiedOrder{}).Count(&orderCount)
	if orderCount != 1 {
		t.Errorf("order count = %d, want 1", orderCount)
	}
}

// TestProcessDueBackoffReschedule a failing entry moves forward with a
// non-decreasing next_attempt_at and records the failure reason
func TestProcessDueBackoffReschedule(t *testing.T) {
	db := newTestDB(t)
	queue := NewQueueService(db, newTestReceiver(db), time.Now)

	body := uberEatsBody("o-q3", "created")
	entry, err := queue.Enqueue(model.PlatformUberEats, "org-missing", body, signedHeaders(body), "tenant not ready")
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	db.Model(entry).Update("next_attempt_at", time.Now().Add(-time.Minute))

	before := time.Now()
	succeeded, failed := queue.ProcessDue()
	if succeeded != 0 || failed != 1 {
		t.Fatalf("ProcessDue = (%d, %d), want (0, 1)", succeeded, failed)
	}

	var updated model.WebhookQueueEntry
	db.First(&updated, "id = ?", entry.ID)
	if updated.RetryCount != 1 {
		t.Errorf("RetryCount = %d, want 1", updated.RetryCount)
	}
	if updated.ProcessedAt != nil {
		t.Error("entry should still be pending")
	}
	if updated.LastError == nil {
		t.Error("failure reason should be recorded")
	}
	// 退避后的下一次尝试时间单调不减
	if updated.NextAttemptAt.Before(before.Add(BackoffDelay(1) - time.Second)) {
		t.Errorf("NextAttemptAt = %v, expected about %v later", updated.NextAttemptAt, BackoffDelay(1))
	}
}

// TestDeadLetter retries exhaust, entry becomes terminal and leaves the scan window
func TestDeadLetter(t *testing.T) {
	db := newTestDB(t)
	queue := NewQueueService(db, newTestReceiver(db), time.Now)

	body := uberEatsBody("o-q4", "created")
	entry, err := queue.Enqueue(model.PlatformUberEats, "org-missing", body, signedHeaders(body), "tenant not ready")
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	db.Model(entry).Update("max_retries", 2)

	for attempt := 0; attempt < 2; attempt++ {
		db.Model(entry).Update("next_attempt_at", time.Now().Add(-time.Minute))
		queue.ProcessDue()
	}

	var updated model.WebhookQueueEntry
	db.First(&updated, "id = ?", entry.ID)
	if updated.ProcessedAt == nil {
		t.Fatal("exhausted entry should be terminal")
	}
	if updated.LastError == nil || !strings.Contains(*updated.LastError, maxRetriesExceeded) {
		t.Errorf("terminal error = %v, want %q prefix", updated.LastError, maxRetriesExceeded)
	}
	if !updated.DeadLettered() {
		t.Error("entry should report dead-lettered")
	}

	// 死信不再出现在到期扫描中
	db.Model(&updated).Update("next_attempt_at", time.Now().Add(-time.Hour))
	due, err := queue.DueEntries(10)
	if err != nil {
		t.Fatalf("due entries: %v", err)
	}
	if len(due) != 0 {
		t.Errorf("dead-lettered entry still scanned: %d entries", len(due))
	}
}

// TestClaimPreventsDoubleProcessing two concurrent processors cannot both
// claim the same entry inside the lease window
func TestClaimPreventsDoubleProcessing(t *testing.T) {
	db := newTestDB(t)
	queue := NewQueueService(db, newTestReceiver(db), time.Now)

	body := uberEatsBody("o-q5", "created")
	entry, err := queue.Enqueue(model.PlatformUberEats, "org-1", body, nil, "x")
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if !queue.claim(entry) {
		t.Fatal("first claim should succeed")
	}
	if queue.claim(entry) {
		t.Fatal("second claim inside lease should fail")
	}

	// 租约过期后可以再次抢占
	expired := time.Now().Add(-queue.ClaimLease - time.Minute)
	db.Model(entry).Update("claimed_at", expired)
	if !queue.claim(entry) {
		t.Error("claim should succeed after lease expiry")
	}
}

// TestPurgeBoundary entries older than the retention window are purged,
// younger ones retained, regardless of success or dead-letter outcome
func TestPurgeBoundary(t *testing.T) {
	db := newTestDB(t)
	queue := NewQueueService(db, newTestReceiver(db), time.Now)

	old := time.Now().Add(-25 * time.Hour)
	young := time.Now().Add(-time.Hour)
	terminalErr := "max retries exceeded: x"

	entries := []model.WebhookQueueEntry{
		{OrgID: "o", Platform: model.PlatformUberEats, Payload: "{}", ProcessedAt: &old},
		{OrgID: "o", Platform: model.PlatformUberEats, Payload: "{}", ProcessedAt: &old, LastError: &terminalErr},
		{OrgID: "o", Platform: model.PlatformUberEats, Payload: "{}", ProcessedAt: &young},
		{OrgID: "o", Platform: model.PlatformUberEats, Payload: "{}"},
	}
	for i := range entries {
		if err := db.Create(&entries[i]).Error; err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	purged, err := queue.PurgeProcessed()
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if purged != 2 {
		t.Errorf("purged = %d, want 2", purged)
	}

	var remaining int64
	db.Model(&model.WebhookQueueEntry{}).Count(&remaining)
	if remaining != 2 {
		t.Errorf("remaining = %d, want 2", remaining)
	}
}

func TestRequeueRevivesDeadLetter(t *testing.T) {
	db := newTestDB(t)
	queue := NewQueueService(db, newTestReceiver(db), time.Now)

	now := time.Now()
	terminalErr := "max retries exceeded: x"
	entry := model.WebhookQueueEntry{
		OrgID:       "o",
		Platform:    model.PlatformUberEats,
		Payload:     "{}",
		RetryCount:  6,
		MaxRetries:  6,
		ProcessedAt: &now,
		LastError:   &terminalErr,
	}
	if err := db.Create(&entry).Error; err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := queue.Requeue(entry.ID); err != nil {
		t.Fatalf("requeue: %v", err)
	}

	var updated model.WebhookQueueEntry
	db.First(&updated, "id = ?", entry.ID)
	if !updated.Live() {
		t.Error("requeued entry should be live again")
	}
	if updated.RetryCount != 0 || updated.LastError != nil {
		t.Errorf("requeue should reset state: %+v", updated)
	}
}
