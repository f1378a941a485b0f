package service

import (
	"encoding/json"
	"log"
	"time"

	"order-gateway/internal/config"
	"order-gateway/internal/model"

	"gorm.io/gorm"
)

// maxRetriesExceeded 死信终态错误前缀
const maxRetriesExceeded = "max retries exceeded"

// BackoffDelay 指数退避延迟: min(2^retryCount, 60) 分钟
// 以失败后自增过的 retry_count 作为输入，序列为 2,4,8,16,32,60,60,...
func BackoffDelay(retryCount int) time.Duration {
	if retryCount >= 6 {
		return 60 * time.Minute
	}
	minutes := 1 << retryCount
	if minutes > 60 {
		minutes = 60
	}
	return time.Duration(minutes) * time.Minute
}

// QueueService Webhook 重试队列
// 扫描到期记录重新走接收流程，失败按指数退避改期，
// 重试耗尽进入死信态，已处理记录按保留期清理
type QueueService struct {
	db       *gorm.DB
	receiver *Receiver
	now      func() time.Time

	BatchSize      int           // 每轮最多处理条数
	MaxRetries     int           // 新建记录的重试上限
	ClaimLease     time.Duration // 处理租约，防止并发扫描重复处理
	RetentionHours int           // 已处理记录保留时长
}

// NewQueueService 创建队列服务
func NewQueueService(db *gorm.DB, receiver *Receiver, now func() time.Time) *QueueService {
	if now == nil {
		now = time.Now
	}
	return &QueueService{
		db:             db,
		receiver:       receiver,
		now:            now,
		BatchSize:      50,
		MaxRetries:     6,
		ClaimLease:     2 * time.Minute,
		RetentionHours: 24,
	}
}

// ApplyConfig 应用队列配置
func (s *QueueService) ApplyConfig(cfg *config.QueueConfig) {
	if cfg == nil {
		return
	}
	s.BatchSize = cfg.BatchSize
	s.MaxRetries = cfg.MaxRetries
	s.ClaimLease = time.Duration(cfg.ClaimLeaseMinutes) * time.Minute
	s.RetentionHours = cfg.RetentionHours
}

// Enqueue 将失败的 Webhook 推送入列
// 只有可重试的失败（租户配置未就绪、落库错误）才会走到这里；
// 签名错误等永久失败由接收器直接拒绝，不入列
func (s *QueueService) Enqueue(p model.Platform, orgID string, body []byte, headers map[string]string, cause string) (*model.WebhookQueueEntry, error) {
	headersJSON := "{}"
	if len(headers) > 0 {
		bytes, err := json.Marshal(headers)
		if err == nil {
			headersJSON = string(bytes)
		}
	}

	entry := model.WebhookQueueEntry{
		OrgID:         orgID,
		Platform:      p,
		Payload:       string(body),
		Headers:       headersJSON,
		RetryCount:    0,
		MaxRetries:    s.MaxRetries,
		NextAttemptAt: s.now().Add(BackoffDelay(1)),
	}
	if cause != "" {
		entry.LastError = &cause
	}

	if err := s.db.Create(&entry).Error; err != nil {
		return nil, err
	}
	log.Printf("[队列] 入列 platform=%s org=%s 原因: %s", p, orgID, cause)
	return &entry, nil
}

// DueEntries 查询到期可处理的记录
func (s *QueueService) DueEntries(limit int) ([]model.WebhookQueueEntry, error) {
	var entries []model.WebhookQueueEntry
	err := s.db.
		Where("processed_at IS NULL AND next_attempt_at <= ? AND retry_count < max_retries", s.now()).
		Order("next_attempt_at ASC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

// ProcessDue 处理一批到期记录，返回 (成功数, 失败数)
func (s *QueueService) ProcessDue() (int, int) {
	entries, err := s.DueEntries(s.BatchSize)
	if err != nil {
		log.Printf("[队列] 扫描到期记录失败: %v", err)
		return 0, 0
	}
	if len(entries) == 0 {
		return 0, 0
	}

	succeeded, failed := 0, 0
	for i := range entries {
		entry := &entries[i]
		// 抢占租约失败说明另一个处理器正在处理，跳过
		if !s.claim(entry) {
			continue
		}
		if s.processEntry(entry) {
			succeeded++
		} else {
			failed++
		}
	}
	log.Printf("[队列] 本轮处理完成: 成功 %d, 失败 %d", succeeded, failed)
	return succeeded, failed
}

// claim 原子抢占处理租约
// 条件更新保证两个并发的处理器不会同时拿到同一条记录
func (s *QueueService) claim(entry *model.WebhookQueueEntry) bool {
	now := s.now()
	leaseExpiry := now.Add(-s.ClaimLease)
	result := s.db.Model(&model.WebhookQueueEntry{}).
		Where("id = ? AND processed_at IS NULL AND (claimed_at IS NULL OR claimed_at < ?)",
			entry.ID, leaseExpiry).
		Update("claimed_at", now)
	if result.Error != nil {
		log.Printf("[队列] 抢占租约失败 id=%s: %v", entry.ID, result.Error)
		return false
	}
	return result.RowsAffected == 1
}

// processEntry 重放单条记录，返回是否成功
func (s *QueueService) processEntry(entry *model.WebhookQueueEntry) bool {
	var headers map[string]string
	if entry.Headers != "" {
		json.Unmarshal([]byte(entry.Headers), &headers)
	}

	_, rerr := s.receiver.Receive(entry.Platform, entry.OrgID, []byte(entry.Payload), headers)
	now := s.now()

	if rerr == nil {
		// 成功：置终态并清除错误
		s.db.Model(entry).Updates(map[string]interface{}{
			"processed_at": &now,
			"last_error":   nil,
			"claimed_at":   nil,
		})
		return true
	}

	entry.RetryCount++
	cause := rerr.Error()

	if entry.RetryCount >= entry.MaxRetries {
		// 重试耗尽，进入死信态，保留终态错误供人工排查
		terminal := maxRetriesExceeded + ": " + cause
		s.db.Model(entry).Updates(map[string]interface{}{
			"retry_count":  entry.RetryCount,
			"processed_at": &now,
			"last_error":   terminal,
			"claimed_at":   nil,
		})
		log.Printf("[队列] 记录 %s 重试耗尽进入死信: %s", entry.ID, cause)
		return false
	}

	// 按退避改期下一次尝试
	next := now.Add(BackoffDelay(entry.RetryCount))
	s.db.Model(entry).Updates(map[string]interface{}{
		"retry_count":     entry.RetryCount,
		"next_attempt_at": next,
		"last_error":      cause,
		"claimed_at":      nil,
	})
	return false
}

// PurgeProcessed 清理超过保留期的已处理记录（含死信）
func (s *QueueService) PurgeProcessed() (int64, error) {
	cutoff := s.now().Add(-time.Duration(s.RetentionHours) * time.Hour)
	result := s.db.Unscoped().
		Where("processed_at IS NOT NULL AND processed_at < ?", cutoff).
		Delete(&model.WebhookQueueEntry{})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected > 0 {
		log.Printf("[队列] 清理已处理记录: %d 条", result.RowsAffected)
	}
	return result.RowsAffected, nil
}

// Requeue 人工重新入列一条死信记录
func (s *QueueService) Requeue(id string) error {
	result := s.db.Model(&model.WebhookQueueEntry{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"retry_count":     0,
			"processed_at":    nil,
			"last_error":      nil,
			"claimed_at":      nil,
			"next_attempt_at": s.now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
