package platform

import "order-gateway/internal/model"

// statusTable 平台状态到统一状态的有限映射表
type statusTable map[string]model.OrderStatus

// Map 查表映射，未知状态一律回落到 pending
// 保证映射总是成功，不会因为平台新增状态而丢单
func (t statusTable) Map(s string) model.OrderStatus {
	if status, ok := t[s]; ok {
		return status
	}
	return model.OrderStatusPending
}

var uberEatsStatuses = statusTable{
	"created":          model.OrderStatusPending,
	"accepted":         model.OrderStatusConfirmed,
	"denied":           model.OrderStatusCancelled,
	"preparing":        model.OrderStatusPreparing,
	"ready_for_pickup": model.OrderStatusReady,
	"finished":         model.OrderStatusCompleted,
	"delivered":        model.OrderStatusCompleted,
	"canceled":         model.OrderStatusCancelled,
	"cancelled":        model.OrderStatusCancelled,
}

var deliverooStatuses = statusTable{
	"pending":                   model.OrderStatusPending,
	"placed":                    model.OrderStatusPending,
	"accepted":                  model.OrderStatusConfirmed,
	"acknowledged":              model.OrderStatusConfirmed,
	"in_kitchen":                model.OrderStatusPreparing,
	"ready_for_collection_soon": model.OrderStatusPreparing,
	"ready_for_collection":      model.OrderStatusReady,
	"collected":                 model.OrderStatusCompleted,
	"delivered":                 model.OrderStatusCompleted,
	"rejected":                  model.OrderStatusCancelled,
	"cancelled":                 model.OrderStatusCancelled,
	"failed":                    model.OrderStatusCancelled,
}

// Jahez 使用单字母状态码
var jahezStatuses = statusTable{
	"N": model.OrderStatusPending,   // New
	"A": model.OrderStatusConfirmed, // Accepted
	"O": model.OrderStatusPreparing, // Out of kitchen
	"D": model.OrderStatusReady,     // Ready for driver
	"T": model.OrderStatusCompleted, // Taken / delivered
	"C": model.OrderStatusCancelled, // Cancelled
	"R": model.OrderStatusCancelled, // Rejected
}

// MapStatus 按平台映射状态，未注册平台同样回落到 pending
func MapStatus(p model.Platform, status string) model.OrderStatus {
	switch p {
	case model.PlatformUberEats:
		return uberEatsStatuses.Map(status)
	case model.PlatformDeliveroo:
		return deliverooStatuses.Map(status)
	case model.PlatformJahez:
		return jahezStatuses.Map(status)
	}
	return model.OrderStatusPending
}

// mapPaymentStatus 支付状态归一化
func mapPaymentStatus(s string) model.PaymentStatus {
	switch s {
	case "paid", "PAID", "captured", "settled":
		return model.PaymentStatusPaid
	case "unpaid", "UNPAID", "cash_on_delivery":
		return model.PaymentStatusUnpaid
	}
	return model.PaymentStatusPending
}
