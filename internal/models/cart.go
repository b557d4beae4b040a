package models

import "time"

// Cart belongs to exactly one owner: a user or an anonymous session.
type Cart struct {
	ID        uint       `gorm:"primaryKey"                                  json:"id"`
	OwnerKind string     `gorm:"size:16;not null;uniqueIndex:idx_carts_owner" json:"-"`
	OwnerKey  string     `gorm:"size:64;not null;uniqueIndex:idx_carts_owner" json:"-"`
	Items     []CartItem `                                                   json:"items"`
	CreatedAt time.Time  `                                                   json:"created_at"`
	UpdatedAt time.Time  `                                                   json:"updated_at"`
}

type CartItem struct {
	ID        uint      `gorm:"primaryKey"                               json:"id"`
	CartID    uint      `gorm:"not null;uniqueIndex:idx_cart_product"    json:"cart_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_cart_product"    json:"product_id"`
	Product   Product   `gorm:"constraint:OnDelete:CASCADE"              json:"product"`
	Quantity  int       `gorm:"not null;check:quantity > 0"              json:"quantity"`
	CreatedAt time.Time `                                                json:"created_at"`
}
