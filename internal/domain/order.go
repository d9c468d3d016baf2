package domain

import "strings"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

type OrderItem struct {
	Product  Ref     `json:"product"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
	Color    *Ref    `json:"color,omitempty"`
	Size     *Ref    `json:"size,omitempty"`
}

type Order struct {
	ID       string      `json:"_id"`
	Customer Ref         `json:"user"`
	Items    []OrderItem `json:"items"`
	Total    float64     `json:"total"`
	Discount float64     `json:"discount,omitempty"` // Amount taken off by a coupon
	Coupon   string      `json:"coupon,omitempty"`
	Status   OrderStatus `json:"status"`
	Timestamps
}

const orderShortIDLength = 8

// ShortID is the id suffix shown in order tables
func (o Order) ShortID() string {
	id := o.ID
	if len(id) > orderShortIDLength {
		id = id[len(id)-orderShortIDLength:]
	}
	return strings.ToUpper(id)
}
