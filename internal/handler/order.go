package handler

import (
	"strconv"

	"order-gateway/internal/model"
	"order-gateway/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// OrderHandler 统一订单查询接口
type OrderHandler struct{}

func NewOrderHandler() *OrderHandler {
	return &OrderHandler{}
}

// List 获取订单列表
func (h *OrderHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	orgID := c.Query("org_id")
	platform := c.Query("platform")
	status := c.Query("status")

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	query := model.DB.Model(&model.UnifiedOrder{})

	if orgID != "" {
		query = query.Where("org_id = ?", orgID)
	}
	if platform != "" {
		query = query.Where("platform = ?", platform)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	query.Count(&total)

	var orders []model.UnifiedOrder
	if err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&orders).Error; err != nil {
		response.ServerError(c, "查询订单失败: "+err.Error())
		return
	}

	response.SuccessPage(c, orders, total, page, pageSize)
}

// Get 获取订单详情（含明细行）
func (h *OrderHandler) Get(c *gin.Context) {
	var order model.UnifiedOrder
	if err := model.DB.Preload("Items").
		First(&order, "id = ?", c.Param("id")).Error; err != nil {
		response.NotFound(c, "订单不存在")
		return
	}

	response.Success(c, order)
}
