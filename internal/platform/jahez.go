package platform

import (
	"encoding/json"
	"errors"

	"order-gateway/internal/model"
)

// JahezAdapter Jahez 平台适配器
type JahezAdapter struct{}

func NewJahezAdapter() *JahezAdapter {
	return &JahezAdapter{}
}

func (a *JahezAdapter) Platform() model.Platform {
	return model.PlatformJahez
}

func (a *JahezAdapter) SignatureHeader() string {
	return "X-Jahez-Signature"
}

// jahezPayload Jahez 订单事件报文
// 状态为单字母代码，金额为次货币单位
type jahezPayload struct {
	JahezID  string `json:"jahez_id"`
	BranchID string `json:"branch_id"`
	Status   string `json:"status"`
	Customer struct {
		Name   string `json:"name"`
		Mobile string `json:"mobile"`
	} `json:"customer"`
	PriceSummary struct {
		Subtotal   int64 `json:"subtotal"`
		VAT        int64 `json:"vat"`
		Tip        int64 `json:"tip"`
		FinalPrice int64 `json:"final_price"`
	} `json:"price_summary"`
	PaymentMethod string `json:"payment_method"`
	PaymentStatus string `json:"payment_status"`
	Products      []struct {
		ProductName string `json:"product_name"`
		Quantity    int    `json:"quantity"`
		FinalPrice  int64  `json:"final_price"`
		Notes       string `json:"notes"`
		Modifiers   []struct {
			ModifierGroup string `json:"modifier_group"`
			ModifierName  string `json:"modifier_name"`
			Price         int64  `json:"price"`
		} `json:"modifiers"`
	} `json:"products"`
	Notes     string `json:"notes"`
	CreatedAt string `json:"created_at"`
}

// Normalize 将 Jahez 报文转换为统一订单草稿
func (a *JahezAdapter) Normalize(raw []byte) (*NormalizedOrder, error) {
	var p jahezPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	if p.JahezID == "" {
		return nil, errors.New("missing order id")
	}

	order := &NormalizedOrder{
		PlatformOrderID: p.JahezID,
		OrderNumber:     p.JahezID,
		StoreID:         p.BranchID,
		Status:          jahezStatuses.Map(p.Status),
		CustomerName:    p.Customer.Name,
		CustomerPhone:   p.Customer.Mobile,
		Subtotal:        fromMinor(p.PriceSummary.Subtotal),
		TaxAmount:       fromMinor(p.PriceSummary.VAT),
		TipAmount:       fromMinor(p.PriceSummary.Tip),
		TotalAmount:     fromMinor(p.PriceSummary.FinalPrice),
		PaymentStatus:   mapPaymentStatus(p.PaymentStatus),
		PaymentMethod:   p.PaymentMethod,

		SpecialInstructions: p.Notes,
		PlacedAt:            parseTime(p.CreatedAt),
	}

	for _, product := range p.Products {
		qty := product.Quantity
		if qty <= 0 {
			qty = 1
		}
		draft := ItemDraft{
			Name:                product.ProductName,
			Quantity:            qty,
			UnitPrice:           fromMinor(product.FinalPrice),
			LineTotal:           fromMinor(product.FinalPrice * int64(qty)),
			SpecialInstructions: product.Notes,
		}
		for _, mod := range product.Modifiers {
			draft.Modifiers = append(draft.Modifiers, Modifier{
				Group: mod.ModifierGroup,
				Name:  mod.ModifierName,
				Price: fromMinor(mod.Price),
			})
		}
		order.Items = append(order.Items, draft)
	}

	return order, nil
}
