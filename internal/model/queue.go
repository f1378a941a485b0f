package model

import "time"

// WebhookQueueEntry Webhook 重试队列记录
// 入列条件：租户配置未就绪（可能尚未同步）或订单落库失败；
// 签名错误、门店不匹配等永久性错误不入列。
// processed_at 为空且 retry_count < max_retries 的记录视为存活，可被调度处理；
// 终态（成功或重试耗尽）统一通过 processed_at 置值表达
type WebhookQueueEntry struct {
	BaseModel
	OrgID    string   `gorm:"type:varchar(36);not null;index" json:"org_id"`
	Platform Platform `gorm:"type:varchar(20);not null" json:"platform"`

	Payload string `gorm:"type:json;not null" json:"payload"` // 原始请求体，原样保存
	Headers string `gorm:"type:json" json:"headers"`          // 原始请求头快照

	RetryCount    int        `gorm:"default:0" json:"retry_count"`
	MaxRetries    int        `gorm:"default:6" json:"max_retries"`
	NextAttemptAt time.Time  `gorm:"index:idx_queue_due" json:"next_attempt_at"`
	LastError     *string    `gorm:"type:text" json:"last_error"`
	ProcessedAt   *time.Time `gorm:"index:idx_queue_due" json:"processed_at"`
	ClaimedAt     *time.Time `json:"claimed_at"` // 处理租约，防止并发扫描重复处理
}

func (WebhookQueueEntry) TableName() string {
	return "webhook_processing_queue"
}

// Live 是否仍可被调度处理
func (e *WebhookQueueEntry) Live() bool {
	return e.ProcessedAt == nil && e.RetryCount < e.MaxRetries
}

// DeadLettered 是否已重试耗尽进入死信态
func (e *WebhookQueueEntry) DeadLettered() bool {
	return e.ProcessedAt != nil && e.LastError != nil
}
