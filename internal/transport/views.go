package transport

import (
	"time"

	"github.com/Skotchmaster/shopfront/internal/util"
)

type ProductView struct {
	ID          uint      `json:"id"`
	CategoryID  *uint     `json:"category_id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Price       Money     `json:"price"`
	Stock       int       `json:"stock"`
	InStock     bool      `json:"in_stock"`
	CreatedAt   time.Time `json:"created_at"`
}

type ProductPage struct {
	Data []ProductView `json:"data"`
	Meta util.PageMeta `json:"meta"`
}

type CartItemView struct {
	ID       uint        `json:"id"`
	Product  ProductView `json:"product"`
	Quantity int         `json:"quantity"`
	Subtotal Money       `json:"subtotal"`
}

type CartView struct {
	ID         uint           `json:"id"`
	Items      []CartItemView `json:"items"`
	Total      Money          `json:"total"`
	ItemsCount int            `json:"items_count"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

type OrderItemView struct {
	ID           uint   `json:"id"`
	ProductID    *uint  `json:"product"`
	ProductName  string `json:"product_name"`
	ProductPrice Money  `json:"product_price"`
	Quantity     int    `json:"quantity"`
	Subtotal     Money  `json:"subtotal"`
}

type OrderView struct {
	ID            uint            `json:"id"`
	OrderNumber   string          `json:"order_number"`
	Email         string          `json:"email"`
	FirstName     string          `json:"first_name"`
	LastName      string          `json:"last_name"`
	Phone         string          `json:"phone"`
	Address       string          `json:"address"`
	City          string          `json:"city"`
	PostalCode    string          `json:"postal_code"`
	Country       string          `json:"country"`
	Status        string          `json:"status"`
	StatusDisplay string          `json:"status_display"`
	TotalAmount   Money           `json:"total_amount"`
	Notes         string          `json:"notes"`
	Paid          bool            `json:"paid"`
	PaidAt        *time.Time      `json:"paid_at"`
	Items         []OrderItemView `json:"items"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type OrderPage struct {
	Data []OrderView   `json:"data"`
	Meta util.PageMeta `json:"meta"`
}

type PaymentView struct {
	ID              uint      `json:"id"`
	OrderID         uint      `json:"order_id"`
	PaymentIntentID string    `json:"payment_intent_id"`
	Amount          Money     `json:"amount"`
	Currency        string    `json:"currency"`
	Status          string    `json:"status"`
	PaymentMethod   string    `json:"payment_method"`
	ErrorMessage    string    `json:"error_message"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type IntentResponse struct {
	ClientSecret    string `json:"client_secret"`
	PaymentIntentID string `json:"payment_intent_id"`
	PaymentID       uint   `json:"payment_id"`
	Amount          Money  `json:"amount"`
	PublishableKey  string `json:"publishable_key"`
}

type ConfirmResponse struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	OrderID     uint   `json:"order_id,omitempty"`
	OrderNumber string `json:"order_number,omitempty"`
}

type MessageView struct {
	ID         uint      `json:"id"`
	RoomID     uint      `json:"room_id"`
	SenderType string    `json:"sender_type"`
	SenderID   *uint     `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Message    string    `json:"message"`
	IsRead     bool      `json:"is_read"`
	CreatedAt  time.Time `json:"created_at"`
}

type RoomView struct {
	ID          uint          `json:"id"`
	UserName    string        `json:"user_name"`
	IsActive    bool          `json:"is_active"`
	Messages    []MessageView `json:"messages"`
	UnreadCount int           `json:"unread_count"`
	LastMessage *MessageView  `json:"last_message"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}
