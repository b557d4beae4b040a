package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID   uint   `gorm:"primaryKey"                    json:"id"`
	Name string `gorm:"size:100;not null"             json:"name"`
	Slug string `gorm:"size:100;uniqueIndex;not null" json:"slug"`
}

type Product struct {
	ID          uint            `gorm:"primaryKey"                      json:"id"`
	CategoryID  *uint           `gorm:"index"                           json:"category_id"`
	Category    *Category       `gorm:"constraint:OnDelete:SET NULL"    json:"category,omitempty"`
	Name        string          `gorm:"size:200;not null"               json:"name"`
	Slug        string          `gorm:"size:200;uniqueIndex;not null"   json:"slug"`
	Description string          `gorm:"type:text"                       json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2);not null"     json:"price"`
	Stock       int             `gorm:"not null;check:stock >= 0"       json:"stock"`
	Active      bool            `gorm:"column:is_active;not null;index" json:"is_active"`
	CreatedAt   time.Time       `                                       json:"created_at"`
	UpdatedAt   time.Time       `                                       json:"updated_at"`
}

func (p *Product) InStock() bool { return p.Stock > 0 }
