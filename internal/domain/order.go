package domain

import "time"

// OrderStatus is the lifecycle state of an order. Only pending is
// reachable today; the remaining states are declared so the stored
// value stays an enumerable field when fulfillment transitions land.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pendiente"
	OrderStatusShipped   OrderStatus = "enviado"
	OrderStatusDelivered OrderStatus = "entregado"
	OrderStatusCancelled OrderStatus = "cancelado"
)

// orderTransitions is the allowed state machine. Empty for now: no
// transition out of pending is implemented.
var orderTransitions = map[OrderStatus][]OrderStatus{}

// CanTransition reports whether s may move to next.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CartItem is a client-submitted order line. Price is the unit price
// the client believes applies; the server treats it as advisory only.
type CartItem struct {
	ProductID int `json:"productId"`
	Quantity  int `json:"quantity"`
	Price     int `json:"price,omitempty"`
}

// OrderItem is the committed form of a line: the unit price is the
// server-resolved price at commit time, frozen regardless of later
// catalog changes.
type OrderItem struct {
	ProductID int    `json:"productId"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int    `json:"price"`
}

// CustomerInfo is the free-text delivery contact attached to an order.
// It is not validated against the User record.
type CustomerInfo struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address"`
}

// Order is a committed purchase. All monetary fields are recomputed
// server-side at commit time; the record is immutable once persisted.
// Total == ItemsTotal - PremiumDiscount + ShippingCost always holds.
type Order struct {
	ID              int          `json:"id"`
	UserID          int          `json:"userId"`
	Items           []OrderItem  `json:"items"`
	CustomerInfo    CustomerInfo `json:"customerInfo"`
	ItemsTotal      int          `json:"itemsTotal"`
	PremiumDiscount int          `json:"premiumDiscount"`
	ShippingCost    int          `json:"shippingCost"`
	Total           int          `json:"total"`
	Status          OrderStatus  `json:"status"`
	Date            time.Time    `json:"date"`
}
