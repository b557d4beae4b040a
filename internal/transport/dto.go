package transport

import "time"

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	UserID  uint      `json:"user_id"`
	Role    string    `json:"role"`
	Expires time.Time `json:"expires_at"`
}

type AddItemRequest struct {
	ProductID uint `json:"product_id"`
	Quantity  *int `json:"quantity"`
}

type UpdateItemRequest struct {
	ItemID   uint `json:"item_id"`
	Quantity *int `json:"quantity"`
}

type RemoveItemRequest struct {
	ItemID uint `json:"item_id"`
}

type PlaceOrderRequest struct {
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Notes      string `json:"notes"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type CreateIntentRequest struct {
	OrderID uint `json:"order_id"`
}

type ConfirmPaymentRequest struct {
	PaymentIntentID string `json:"payment_intent_id"`
}

type SendMessageRequest struct {
	Message string `json:"message"`
}
