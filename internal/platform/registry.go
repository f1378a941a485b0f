package platform

import (
	"time"

	"order-gateway/internal/model"
)

// Modifier 统一的餐品修饰项（规格/加料）
type Modifier struct {
	Group string  `json:"group"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// ItemDraft 归一化后的订单明细行草稿
type ItemDraft struct {
	Name                string
	Quantity            int
	UnitPrice           float64
	LineTotal           float64
	SpecialInstructions string
	Modifiers           []Modifier
}

// NormalizedOrder 归一化后的订单草稿
// 纯数据结构，由各平台 Adapter 从原始报文转换得到，不含任何 I/O
type NormalizedOrder struct {
	PlatformOrderID string // 平台侧订单标识，幂等键的一部分
	OrderNumber     string // 平台展示单号
	StoreID         string // 平台侧门店标识，用于与接入配置核对
	Status          model.OrderStatus

	CustomerName  string
	CustomerPhone string

	// 金额已换算为主货币单位
	Subtotal    float64
	TaxAmount   float64
	TipAmount   float64
	TotalAmount float64

	PaymentStatus model.PaymentStatus
	PaymentMethod string

	SpecialInstructions string
	PlacedAt            *time.Time

	Items []ItemDraft
}

// Adapter 平台适配器
// 新增平台只需实现本接口并注册，不需要改动接收与重试的公共流程
type Adapter interface {
	Platform() model.Platform
	SignatureHeader() string
	Normalize(raw []byte) (*NormalizedOrder, error)
}

// Registry 平台注册表
type Registry struct {
	adapters map[model.Platform]Adapter
}

// NewRegistry 创建注册表
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[model.Platform]Adapter)}
	for _, a := range adapters {
		r.adapters[a.Platform()] = a
	}
	return r
}

// Default 内置全部受支持平台的注册表
func Default() *Registry {
	return NewRegistry(
		NewUberEatsAdapter(),
		NewDeliverooAdapter(),
		NewJahezAdapter(),
	)
}

// Get 按平台标识取适配器
func (r *Registry) Get(p model.Platform) (Adapter, bool) {
	a, ok := r.adapters[p]
	return a, ok
}

// Platforms 已注册的平台列表
func (r *Registry) Platforms() []model.Platform {
	list := make([]model.Platform, 0, len(r.adapters))
	for p := range r.adapters {
		list = append(list, p)
	}
	return list
}

// fromMinor 次货币单位（分）换算为主货币单位（元）
func fromMinor(v int64) float64 {
	return float64(v) / 100
}

// parseTime 解析平台时间戳，失败时返回 nil 而不是报错
func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}
