package handler

import (
	"strconv"

	"order-gateway/internal/model"
	"order-gateway/internal/pkg/response"
	"order-gateway/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// QueueHandler 重试队列巡检接口
type QueueHandler struct {
	queue *service.QueueService
}

// NewQueueHandler 创建队列 Handler
func NewQueueHandler(queue *service.QueueService) *QueueHandler {
	return &QueueHandler{queue: queue}
}

// List 查询队列记录
// status 过滤: pending(待处理) / dead(死信) / processed(已成功)
func (h *QueueHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	status := c.Query("status")
	platform := c.Query("platform")

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	query := model.DB.Model(&model.WebhookQueueEntry{})

	switch status {
	case "pending":
		query = query.Where("processed_at IS NULL")
	case "dead":
		query = query.Where("processed_at IS NOT NULL AND last_error IS NOT NULL")
	case "processed":
		query = query.Where("processed_at IS NOT NULL AND last_error IS NULL")
	}
	if platform != "" {
		query = query.Where("platform = ?", platform)
	}

	var total int64
	query.Count(&total)

	var entries []model.WebhookQueueEntry
	if err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&entries).Error; err != nil {
		response.ServerError(c, "查询队列失败: "+err.Error())
		return
	}

	response.SuccessPage(c, entries, total, page, pageSize)
}

// Get 查询单条队列记录
func (h *QueueHandler) Get(c *gin.Context) {
	var entry model.WebhookQueueEntry
	if err := model.DB.First(&entry, "id = ?", c.Param("id")).Error; err != nil {
		response.NotFound(c, "队列记录不存在")
		return
	}

	response.Success(c, entry)
}

// Requeue 人工重新入列（通常用于死信修复后重放）
func (h *QueueHandler) Requeue(c *gin.Context) {
	if err := h.queue.Requeue(c.Param("id")); err != nil {
		if err == gorm.ErrRecordNotFound {
			response.NotFound(c, "队列记录不存在")
			return
		}
		response.ServerError(c, "重新入列失败: "+err.Error())
		return
	}

	response.Success(c, gin.H{"requeued": true})
}

// Process 手动触发一轮队列处理
func (h *QueueHandler) Process(c *gin.Context) {
	succeeded, failed := h.queue.ProcessDue()
	response.Success(c, gin.H{
		"succeeded": succeeded,
		"failed":    failed,
	})
}
