package handler

import (
	"log"
	"net/http"

	"order-gateway/internal/model"
	"order-gateway/internal/pkg/response"
	"order-gateway/internal/service"

	"github.com/gin-gonic/gin"
)

// WebhookHandler 外卖平台 Webhook 入口
type WebhookHandler struct {
	receiver *service.Receiver
	queue    *service.QueueService
}

// NewWebhookHandler 创建 Webhook Handler
func NewWebhookHandler(receiver *service.Receiver, queue *service.QueueService) *WebhookHandler {
	return &WebhookHandler{receiver: receiver, queue: queue}
}

// Handle 接收订单事件推送
// POST /api/webhooks/:platform?org_id=xxx
func (h *WebhookHandler) Handle(c *gin.Context) {
	p := model.Platform(c.Param("platform"))
	if _, ok := h.receiver.Registry().Get(p); !ok {
		response.NotFound(c, "不支持的平台")
		return
	}

	orgID := c.Query("org_id")
	if orgID == "" {
		response.BadRequest(c, "缺少组织标识")
		return
	}

	// 签名必须针对原始字节校验，读取后不再让 gin 解析请求体
	body, err := c.GetRawData()
	if err != nil {
		response.BadRequest(c, "读取请求体失败")
		return
	}

	headers := flattenHeaders(c.Request.Header)

	orderID, rerr := h.receiver.Receive(p, orgID, body, headers)
	if rerr == nil {
		c.JSON(http.StatusOK, gin.H{"success": true, "order_id": orderID})
		return
	}

	// 可重试的失败入列，等待队列处理器重放
	if rerr.Retryable() {
		if _, qerr := h.queue.Enqueue(p, orgID, body, headers, rerr.Error()); qerr != nil {
			log.Printf("[Webhook] 入列失败 platform=%s org=%s: %v", p, orgID, qerr)
		}
	}

	switch rerr.Kind {
	case service.ErrorKindAuth:
		response.Unauthorized(c, rerr.Message)
	case service.ErrorKindTenant:
		response.NotFound(c, rerr.Message)
	case service.ErrorKindPersistence:
		response.ServerError(c, rerr.Message)
	default:
		response.BadRequest(c, rerr.Message)
	}
}

// flattenHeaders 请求头转为单值映射，键保持规范化形式
func flattenHeaders(header http.Header) map[string]string {
	headers := make(map[string]string, len(header))
	for key, values := range header {
		if len(values) > 0 {
			headers[key] = values[0]
		}
	}
	return headers
}
