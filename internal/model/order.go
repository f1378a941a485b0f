package model

import "time"

// OrderStatus 统一订单状态
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"   // 待确认
	OrderStatusConfirmed OrderStatus = "confirmed" // 已确认
	OrderStatusPreparing OrderStatus = "preparing" // 制作中
	OrderStatusReady     OrderStatus = "ready"     // 待取餐
	OrderStatusCompleted OrderStatus = "completed" // 已完成
	OrderStatusCancelled OrderStatus = "cancelled" // 已取消
)

// OrderType 订单类型
type OrderType string

const (
	OrderTypeDelivery OrderType = "delivery"
	OrderTypeTakeout  OrderType = "takeout"
	OrderTypeDineIn   OrderType = "dine_in"
)

// PaymentStatus 支付状态
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusUnpaid  PaymentStatus = "unpaid"
)

// UnifiedOrder 统一订单 - 各外卖平台订单归一化后的表示
// (integration_id, platform_order_id) 唯一，作为幂等键：
// 同一平台订单的重复推送只会更新已有记录，不会产生重复订单
type UnifiedOrder struct {
	BaseModel
	OrgID           string   `gorm:"type:varchar(36);not null;index" json:"org_id"`
	BranchID        string   `gorm:"type:varchar(36);not null;index" json:"branch_id"`
	IntegrationID   string   `gorm:"type:varchar(36);not null;uniqueIndex:idx_integration_order" json:"integration_id"`
	PlatformOrderID string   `gorm:"type:varchar(100);not null;uniqueIndex:idx_integration_order" json:"platform_order_id"`
	Platform        Platform `gorm:"type:varchar(20);not null;index" json:"platform"`

	OrderNumber string      `gorm:"type:varchar(50)" json:"order_number"` // 平台展示单号
	OrderType   OrderType   `gorm:"type:varchar(20);default:delivery" json:"order_type"`
	Status      OrderStatus `gorm:"type:varchar(20);default:pending;index" json:"status"`

	CustomerName  string `gorm:"type:varchar(100)" json:"customer_name"`
	CustomerPhone string `gorm:"type:varchar(30)" json:"customer_phone"`

	// 金额统一换算为主货币单位（元）
	Subtotal    float64 `gorm:"type:decimal(10,2)" json:"subtotal"`
	TaxAmount   float64 `gorm:"type:decimal(10,2)" json:"tax_amount"`
	TipAmount   float64 `gorm:"type:decimal(10,2)" json:"tip_amount"`
	TotalAmount float64 `gorm:"type:decimal(10,2)" json:"total_amount"`

	PaymentStatus PaymentStatus `gorm:"type:varchar(20);default:pending" json:"payment_status"`
	PaymentMethod string        `gorm:"type:varchar(30)" json:"payment_method"`

	SpecialInstructions string     `gorm:"type:text" json:"special_instructions"`
	RawPayload          string     `gorm:"type:json" json:"-"` // 原始报文快照，审计用
	PlacedAt            *time.Time `json:"placed_at"`

	// 关联
	Integration *PlatformIntegration `gorm:"foreignKey:IntegrationID" json:"integration,omitempty"`
	Items       []OrderItem          `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

func (UnifiedOrder) TableName() string {
	return "orders"
}

// OrderItem 订单明细行
type OrderItem struct {
	BaseModel
	OrderID             string  `gorm:"type:varchar(36);not null;index" json:"order_id"`
	Name                string  `gorm:"type:varchar(200);not null" json:"name"`
	Quantity            int     `gorm:"not null;default:1" json:"quantity"`
	UnitPrice           float64 `gorm:"type:decimal(10,2)" json:"unit_price"`
	LineTotal           float64 `gorm:"type:decimal(10,2)" json:"line_total"`
	SpecialInstructions string  `gorm:"type:text" json:"special_instructions"`
	Modifiers           string  `gorm:"type:json" json:"modifiers"` // [{group,name,price}] 列表
}

func (OrderItem) TableName() string {
	return "order_items"
}
