package platform

import (
	"encoding/json"
	"errors"
	"strings"

	"order-gateway/internal/model"
)

// UberEatsAdapter Uber Eats 平台适配器
type UberEatsAdapter struct{}

func NewUberEatsAdapter() *UberEatsAdapter {
	return &UberEatsAdapter{}
}

func (a *UberEatsAdapter) Platform() model.Platform {
	return model.PlatformUberEats
}

func (a *UberEatsAdapter) SignatureHeader() string {
	return "X-Uber-Signature"
}

// uberEatsPayload Uber Eats 订单事件报文
// 金额均为次货币单位（分）
type uberEatsPayload struct {
	EventType string `json:"event_type"`
	Order     struct {
		ID        string `json:"id"`
		DisplayID string `json:"display_id"`
		Store     struct {
			ID string `json:"id"`
		} `json:"store"`
		Eater struct {
			FirstName string `json:"first_name"`
			LastName  string `json:"last_name"`
			Phone     string `json:"phone"`
		} `json:"eater"`
		Payment struct {
			Charges struct {
				SubTotal int64 `json:"sub_total"`
				Tax      int64 `json:"tax"`
				Tip      int64 `json:"tip"`
				Total    int64 `json:"total"`
			} `json:"charges"`
			Method string `json:"method"`
			Status string `json:"status"`
		} `json:"payment"`
		CurrentState string `json:"current_state"`
		Cart         struct {
			Items []struct {
				Title                  string `json:"title"`
				Quantity               int    `json:"quantity"`
				Price                  int64  `json:"price"`
				SpecialInstructions    string `json:"special_instructions"`
				SelectedModifierGroups []struct {
					Title         string `json:"title"`
					SelectedItems []struct {
						Title string `json:"title"`
						Price int64  `json:"price"`
					} `json:"selected_items"`
				} `json:"selected_modifier_groups"`
			} `json:"items"`
		} `json:"cart"`
		SpecialInstructions string `json:"special_instructions"`
		PlacedAt            string `json:"placed_at"`
	} `json:"order"`
}

// Normalize 将 Uber Eats 报文转换为统一订单草稿
func (a *UberEatsAdapter) Normalize(raw []byte) (*NormalizedOrder, error) {
	var p uberEatsPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	if p.Order.ID == "" {
		return nil, errors.New("missing order id")
	}

	order := &NormalizedOrder{
		PlatformOrderID: p.Order.ID,
		OrderNumber:     p.Order.DisplayID,
		StoreID:         p.Order.Store.ID,
		Status:          uberEatsStatuses.Map(p.Order.CurrentState),
		CustomerName:    strings.TrimSpace(p.Order.Eater.FirstName + " " + p.Order.Eater.LastName),
		CustomerPhone:   p.Order.Eater.Phone,
		Subtotal:        fromMinor(p.Order.Payment.Charges.SubTotal),
		TaxAmount:       fromMinor(p.Order.Payment.Charges.Tax),
		TipAmount:       fromMinor(p.Order.Payment.Charges.Tip),
		TotalAmount:     fromMinor(p.Order.Payment.Charges.Total),
		PaymentStatus:   mapPaymentStatus(p.Order.Payment.Status),
		PaymentMethod:   p.Order.Payment.Method,

		SpecialInstructions: p.Order.SpecialInstructions,
		PlacedAt:            parseTime(p.Order.PlacedAt),
	}

	for _, item := range p.Order.Cart.Items {
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		draft := ItemDraft{
			Name:                item.Title,
			Quantity:            qty,
			UnitPrice:           fromMinor(item.Price),
			LineTotal:           fromMinor(item.Price * int64(qty)),
			SpecialInstructions: item.SpecialInstructions,
		}
		// 展平嵌套的修饰组结构
		for _, group := range item.SelectedModifierGroups {
			for _, sel := range group.SelectedItems {
				draft.Modifiers = append(draft.Modifiers, Modifier{
					Group: group.Title,
					Name:  sel.Title,
					Price: fromMinor(sel.Price),
				})
			}
		}
		order.Items = append(order.Items, draft)
	}

	return order, nil
}
