package platform

import (
	"encoding/json"
	"errors"

	"order-gateway/internal/model"
)

// DeliverooAdapter Deliveroo 平台适配器
type DeliverooAdapter struct{}

func NewDeliverooAdapter() *DeliverooAdapter {
	return &DeliverooAdapter{}
}

func (a *DeliverooAdapter) Platform() model.Platform {
	return model.PlatformDeliveroo
}

func (a *DeliverooAdapter) SignatureHeader() string {
	return "X-Deliveroo-Hmac-Sha256"
}

// fractional Deliveroo 的金额对象，fractional 为次货币单位
type fractional struct {
	Fractional int64 `json:"fractional"`
}

// deliverooPayload Deliveroo 订单事件报文
type deliverooPayload struct {
	Event string `json:"event"`
	Order struct {
		ID          string `json:"id"`
		OrderNumber string `json:"order_number"`
		Status      string `json:"status"`
		LocationID  string `json:"location_id"`
		Customer    struct {
			FirstName     string `json:"first_name"`
			ContactNumber string `json:"contact_number"`
		} `json:"customer"`
		Subtotal   fractional `json:"subtotal"`
		Tax        fractional `json:"tax"`
		Tip        fractional `json:"tip"`
		TotalPrice fractional `json:"total_price"`
		Payment    struct {
			Method string `json:"method"`
			Status string `json:"status"`
		} `json:"payment"`
		Items []struct {
			Name       string     `json:"name"`
			Quantity   int        `json:"quantity"`
			UnitPrice  fractional `json:"unit_price"`
			TotalPrice fractional `json:"total_price"`
			Notes      string     `json:"notes"`
			Modifiers  []struct {
				GroupName string     `json:"group_name"`
				Name      string     `json:"name"`
				Price     fractional `json:"price"`
			} `json:"modifiers"`
		} `json:"items"`
		Notes    string `json:"notes"`
		PlacedAt string `json:"placed_at"`
	} `json:"order"`
}

// Normalize 将 Deliveroo 报文转换为统一订单草稿
func (a *DeliverooAdapter) Normalize(raw []byte) (*NormalizedOrder, error) {
	var p deliverooPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	if p.Order.ID == "" {
		return nil, errors.New("missing order id")
	}

	order := &NormalizedOrder{
		PlatformOrderID: p.Order.ID,
		OrderNumber:     p.Order.OrderNumber,
		StoreID:         p.Order.LocationID,
		Status:          deliverooStatuses.Map(p.Order.Status),
		CustomerName:    p.Order.Customer.FirstName,
		CustomerPhone:   p.Order.Customer.ContactNumber,
		Subtotal:        fromMinor(p.Order.Subtotal.Fractional),
		TaxAmount:       fromMinor(p.Order.Tax.Fractional),
		TipAmount:       fromMinor(p.Order.Tip.Fractional),
		TotalAmount:     fromMinor(p.Order.TotalPrice.Fractional),
		PaymentStatus:   mapPaymentStatus(p.Order.Payment.Status),
		PaymentMethod:   p.Order.Payment.Method,

		SpecialInstructions: p.Order.Notes,
		PlacedAt:            parseTime(p.Order.PlacedAt),
	}

	for _, item := range p.Order.Items {
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		draft := ItemDraft{
			Name:                item.Name,
			Quantity:            qty,
			UnitPrice:           fromMinor(item.UnitPrice.Fractional),
			LineTotal:           fromMinor(item.TotalPrice.Fractional),
			SpecialInstructions: item.Notes,
		}
		for _, mod := range item.Modifiers {
			draft.Modifiers = append(draft.Modifiers, Modifier{
				Group: mod.GroupName,
				Name:  mod.Name,
				Price: fromMinor(mod.Price.Fractional),
			})
		}
		order.Items = append(order.Items, draft)
	}

	return order, nil
}
