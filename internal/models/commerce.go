package models

import "time"

type CartItem struct {
	ProductID string `json:"productId"`
	VariantID string `json:"variantId"`
	Quantity  int    `json:"quantity"`
}

type Cart struct {
	AccountID string     `json:"-"`
	Items     []CartItem `json:"items"`
	Total     int64      `json:"total"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Upsert sets the quantity of variantID, appending a line when absent.
func (c *Cart) Upsert(item CartItem) {
	for i := range c.Items {
		if c.Items[i].VariantID == item.VariantID {
			c.Items[i].Quantity = item.Quantity
			c.Items[i].ProductID = item.ProductID
			return
		}
	}
	c.Items = append(c.Items, item)
}

// Remove reports whether a line for variantID existed.
func (c *Cart) Remove(variantID string) bool {
	for i := range c.Items {
		if c.Items[i].VariantID == variantID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

// CartTotal is the derived cart price: lines whose variant is unknown or
// short on stock contribute nothing.
func CartTotal(items []CartItem, variants map[string]Variant) int64 {
	var total int64
	for _, item := range items {
		v, ok := variants[item.VariantID]
		if !ok || item.Quantity <= 0 || v.StockQuantity < item.Quantity {
			continue
		}
		total += v.Price * int64(item.Quantity)
	}
	return total
}

type Wishlist struct {
	AccountID  string   `json:"-"`
	ProductIDs []string `json:"productIds"`
}

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPaid      OrderStatus = "paid"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderPaid, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// Terminal statuses are final: an order never leaves them.
func (s OrderStatus) Terminal() bool {
	return s == OrderDelivered || s == OrderCancelled
}

// CanBecome reports whether an order in s may be set to next. Re-applying
// the current status is always allowed.
func (s OrderStatus) CanBecome(next OrderStatus) bool {
	return s == next || !s.Terminal()
}

type OrderItem struct {
	ProductID string `json:"productId"`
	VariantID string `json:"variantId"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unitPrice"`
}

type Order struct {
	ID        string      `json:"id"`
	Reference string      `json:"reference"`
	AccountID string      `json:"accountId"`
	AddressID string      `json:"addressId"`
	Items     []OrderItem `json:"items"`
	Total     int64       `json:"total"`
	Status    OrderStatus `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}
