package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusSucceeded = "succeeded"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
	PaymentStatusCancelled = "cancelled"
)

type Payment struct {
	ID            uint            `gorm:"primaryKey"                       json:"id"`
	OrderID       uint            `gorm:"uniqueIndex;not null"             json:"order_id"`
	Order         *Order          `gorm:"constraint:OnDelete:CASCADE"      json:"-"`
	IntentID      string          `gorm:"size:255;uniqueIndex;not null"    json:"payment_intent_id"`
	Amount        decimal.Decimal `gorm:"type:numeric(10,2);not null"      json:"amount"`
	Currency      string          `gorm:"size:3;not null"                  json:"currency"`
	Status        string          `gorm:"size:32;not null;index"           json:"status"`
	PaymentMethod string          `gorm:"size:255"                         json:"payment_method"`
	CustomerRef   string          `gorm:"size:255"                         json:"customer_id"`
	ErrorMessage  string          `gorm:"type:text"                        json:"error_message"`
	CreatedAt     time.Time       `                                        json:"created_at"`
	UpdatedAt     time.Time       `                                        json:"updated_at"`
}
