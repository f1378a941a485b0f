package service

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"order-gateway/internal/model"
	"order-gateway/internal/pkg/signature"
	"order-gateway/internal/platform"

	"gorm.io/gorm"
)

// ErrorKind 接收失败的类别，决定响应码与是否入列重试
type ErrorKind int

const (
	ErrorKindValidation  ErrorKind = iota // 参数或门店身份错误，永久失败，不重试
	ErrorKindAuth                         // 签名缺失或错误，不重试
	ErrorKindTenant                       // 租户配置未就绪，入列重试
	ErrorKindPersistence                  // 落库失败，入列重试
)

// ReceiveError 接收失败错误
type ReceiveError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *ReceiveError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ReceiveError) Unwrap() error {
	return e.Err
}

// Retryable 是否应进入重试队列
// 伪造报文和门店不匹配属于永久失败，重放没有意义
func (e *ReceiveError) Retryable() bool {
	return e.Kind == ErrorKindTenant || e.Kind == ErrorKindPersistence
}

func receiveErr(kind ErrorKind, message string, err error) *ReceiveError {
	return &ReceiveError{Kind: kind, Message: message, Err: err}
}

// Receiver Webhook 接收器
// 依赖全部显式注入，不持有可变共享状态，可并发调用；
// 重复推送的正确性由订单表 (integration_id, platform_order_id) 唯一约束兜底
type Receiver struct {
	db       *gorm.DB
	registry *platform.Registry
	now      func() time.Time
}

// NewReceiver 创建接收器
func NewReceiver(db *gorm.DB, registry *platform.Registry, now func() time.Time) *Receiver {
	if now == nil {
		now = time.Now
	}
	return &Receiver{db: db, registry: registry, now: now}
}

// Registry 平台注册表
func (r *Receiver) Registry() *platform.Registry {
	return r.registry
}

// Receive 处理一次 Webhook 推送
// 流程：租户解析 → 签名校验 → 门店身份核对 → 归一化 → 幂等落库。
// HTTP 入口和队列处理器复用同一实现
func (r *Receiver) Receive(p model.Platform, orgID string, body []byte, headers map[string]string) (string, *ReceiveError) {
	adapter, ok := r.registry.Get(p)
	if !ok {
		return "", receiveErr(ErrorKindValidation, "不支持的平台", nil)
	}
	if orgID == "" {
		return "", receiveErr(ErrorKindValidation, "缺少组织标识", nil)
	}

	// 1. 租户解析：查找该组织在该平台的有效接入配置
	var integration model.PlatformIntegration
	err := r.db.Where("org_id = ? AND platform = ? AND active = ?", orgID, p, true).
		First(&integration).Error
	if err == gorm.ErrRecordNotFound {
		// 配置可能尚未同步，交给重试队列
		return "", receiveErr(ErrorKindTenant, "未找到有效的平台接入配置", nil)
	}
	if err != nil {
		return "", receiveErr(ErrorKindPersistence, "查询接入配置失败", err)
	}

	// 2. 签名校验：必须针对解析前的原始字节
	if !signature.Verify(integration.Secret, body, headerValue(headers, adapter.SignatureHeader())) {
		return "", receiveErr(ErrorKindAuth, "签名缺失或校验失败", nil)
	}

	// 3. 归一化：解析严格放在签名校验之后
	normalized, nerr := adapter.Normalize(body)
	if nerr != nil {
		return "", receiveErr(ErrorKindValidation, "报文解析失败", nerr)
	}

	// 门店身份核对：报文中的门店必须与接入配置一致
	if normalized.StoreID != integration.StoreID {
		return "", receiveErr(ErrorKindValidation,
			fmt.Sprintf("门店标识不匹配: %s", normalized.StoreID), nil)
	}

	// 4. 解析目标门店（组织目录协作方）
	var branch model.Branch
	err = r.db.Where("org_id = ? AND active = ?", orgID, true).
		Order("is_default DESC, created_at ASC").
		First(&branch).Error
	if err == gorm.ErrRecordNotFound {
		return "", receiveErr(ErrorKindTenant, "组织下没有可用门店", nil)
	}
	if err != nil {
		return "", receiveErr(ErrorKindPersistence, "查询门店失败", err)
	}

	// 5. 幂等落库
	orderID, perr := r.upsertOrder(&integration, branch.ID, normalized, body)
	if perr != nil {
		return "", perr
	}

	// 更新接入配置的最后同步时间，失败不影响结果
	now := r.now()
	r.db.Model(&integration).Update("last_sync_at", &now)

	return orderID, nil
}

// upsertOrder 按 (integration_id, platform_order_id) 幂等写入订单
// 已存在则更新（状态流转、金额修正），不存在则创建；
// 明细行写入失败只记日志，订单本身的存在性是首要保证，
// 整单重试反而会放大重复落库的风险
func (r *Receiver) upsertOrder(integration *model.PlatformIntegration, branchID string, normalized *platform.NormalizedOrder, raw []byte) (string, *ReceiveError) {
	var order model.UnifiedOrder
	err := r.db.Where("integration_id = ? AND platform_order_id = ?",
		integration.ID, normalized.PlatformOrderID).First(&order).Error

	isNew := err == gorm.ErrRecordNotFound
	if err != nil && !isNew {
		return "", receiveErr(ErrorKindPersistence, "查询订单失败", err)
	}

	applyNormalized(&order, normalized)
	order.RawPayload = string(raw)

	if isNew {
		order.OrgID = integration.OrgID
		order.BranchID = branchID
		order.IntegrationID = integration.ID
		order.PlatformOrderID = normalized.PlatformOrderID
		order.Platform = integration.Platform
		order.OrderType = model.OrderTypeDelivery
		if err := r.db.Create(&order).Error; err != nil {
			// 并发重复推送触发唯一约束冲突也会走到这里，
			// 入列重试后下一次会命中已有记录转为更新
			return "", receiveErr(ErrorKindPersistence, "订单落库失败", err)
		}
	} else {
		if err := r.db.Save(&order).Error; err != nil {
			return "", receiveErr(ErrorKindPersistence, "订单更新失败", err)
		}
	}

	if err := r.replaceItems(order.ID, normalized.Items); err != nil {
		log.Printf("[接收器] 订单 %s 明细写入失败: %v", order.ID, err)
	}

	return order.ID, nil
}

// applyNormalized 将归一化字段写入订单记录
func applyNormalized(order *model.UnifiedOrder, n *platform.NormalizedOrder) {
	order.OrderNumber = n.OrderNumber
	order.Status = n.Status
	order.CustomerName = n.CustomerName
	order.CustomerPhone = n.CustomerPhone
	order.Subtotal = n.Subtotal
	order.TaxAmount = n.TaxAmount
	order.TipAmount = n.TipAmount
	order.TotalAmount = n.TotalAmount
	order.PaymentStatus = n.PaymentStatus
	order.PaymentMethod = n.PaymentMethod
	order.SpecialInstructions = n.SpecialInstructions
	if n.PlacedAt != nil {
		order.PlacedAt = n.PlacedAt
	}
}

// replaceItems 重建订单明细行
func (r *Receiver) replaceItems(orderID string, drafts []platform.ItemDraft) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("order_id = ?", orderID).
			Delete(&model.OrderItem{}).Error; err != nil {
			return err
		}
		for _, draft := range drafts {
			item := model.OrderItem{
				OrderID:             orderID,
				Name:                draft.Name,
				Quantity:            draft.Quantity,
				UnitPrice:           draft.UnitPrice,
				LineTotal:           draft.LineTotal,
				SpecialInstructions: draft.SpecialInstructions,
				Modifiers:           marshalModifiers(draft.Modifiers),
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// marshalModifiers 序列化修饰项列表
func marshalModifiers(mods []platform.Modifier) string {
	if len(mods) == 0 {
		return "[]"
	}
	bytes, _ := json.Marshal(mods)
	return string(bytes)
}

// headerValue 读取请求头，兼容规范化与原始两种键形式
func headerValue(headers map[string]string, key string) string {
	if v, ok := headers[key]; ok {
		return v
	}
	return headers[http.CanonicalHeaderKey(key)]
}
