package handler

import (
	"order-gateway/internal/model"
	"order-gateway/internal/pkg/response"
	"order-gateway/internal/pkg/utils"

	"github.com/gin-gonic/gin"
)

// IntegrationHandler 平台接入配置只读接口
// 配置的增删改由租户配置后台负责，这里只提供巡检视图
type IntegrationHandler struct{}

func NewIntegrationHandler() *IntegrationHandler {
	return &IntegrationHandler{}
}

// List 获取接入配置列表
func (h *IntegrationHandler) List(c *gin.Context) {
	orgID := c.Query("org_id")

	query := model.DB.Model(&model.PlatformIntegration{})
	if orgID != "" {
		query = query.Where("org_id = ?", orgID)
	}

	var integrations []model.PlatformIntegration
	if err := query.Order("created_at DESC").Find(&integrations).Error; err != nil {
		response.ServerError(c, "查询接入配置失败: "+err.Error())
		return
	}

	// 密钥脱敏后返回
	list := make([]gin.H, 0, len(integrations))
	for _, integration := range integrations {
		list = append(list, gin.H{
			"id":           integration.ID,
			"org_id":       integration.OrgID,
			"platform":     integration.Platform,
			"store_id":     integration.StoreID,
			"secret":       utils.MaskSecret(integration.Secret),
			"active":       integration.Active,
			"last_sync_at": integration.LastSyncAt,
			"created_at":   integration.CreatedAt,
		})
	}

	response.Success(c, list)
}
