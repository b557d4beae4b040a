package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

var orderStatusDisplay = map[string]string{
	OrderStatusPending:    "Pending",
	OrderStatusProcessing: "Processing",
	OrderStatusShipped:    "Shipped",
	OrderStatusDelivered:  "Delivered",
	OrderStatusCancelled:  "Cancelled",
}

func ValidOrderStatus(s string) bool {
	_, ok := orderStatusDisplay[s]
	return ok
}

func OrderStatusDisplay(s string) string {
	if d, ok := orderStatusDisplay[s]; ok {
		return d
	}
	return s
}

type Order struct {
	ID          uint            `gorm:"primaryKey"                          json:"id"`
	OrderNumber string          `gorm:"size:32;uniqueIndex;not null"        json:"order_number"`
	OwnerKind   string          `gorm:"size:16;not null;index:idx_orders_owner" json:"-"`
	OwnerKey    string          `gorm:"size:64;not null;index:idx_orders_owner" json:"-"`
	Email       string          `gorm:"size:254;not null"                   json:"email"`
	FirstName   string          `gorm:"size:100;not null"                   json:"first_name"`
	LastName    string          `gorm:"size:100;not null"                   json:"last_name"`
	Phone       string          `gorm:"size:20;not null"                    json:"phone"`
	Address     string          `gorm:"type:text;not null"                  json:"address"`
	City        string          `gorm:"size:100;not null"                   json:"city"`
	PostalCode  string          `gorm:"size:20;not null"                    json:"postal_code"`
	Country     string          `gorm:"size:100;not null"                   json:"country"`
	Notes       string          `gorm:"type:text"                           json:"notes"`
	Status      string          `gorm:"size:20;not null;index"              json:"status"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(10,2);not null"         json:"total_amount"`
	Paid        bool            `gorm:"not null"                            json:"paid"`
	PaidAt      *time.Time      `                                           json:"paid_at"`
	Items       []OrderItem     `                                           json:"items"`
	CreatedAt   time.Time       `gorm:"index"                               json:"created_at"`
	UpdatedAt   time.Time       `                                           json:"updated_at"`
}

// OrderItem snapshots the product name and unit price at placement time.
type OrderItem struct {
	ID           uint            `gorm:"primaryKey"                      json:"id"`
	OrderID      uint            `gorm:"not null;index"                  json:"order_id"`
	ProductID    *uint           `gorm:"index"                           json:"product_id"`
	Product      *Product        `gorm:"constraint:OnDelete:SET NULL"    json:"-"`
	ProductName  string          `gorm:"size:200;not null"               json:"product_name"`
	ProductPrice decimal.Decimal `gorm:"type:numeric(10,2);not null"     json:"product_price"`
	Quantity     int             `gorm:"not null;check:quantity > 0"     json:"quantity"`
}

func (i *OrderItem) Subtotal() decimal.Decimal {
	return i.ProductPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
