package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/shopfront/internal/models"
)

func preloadCartItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("cart_items.id ASC")
	}).Preload("Items.Product")
}

func (r *GormRepo) GetCartByOwner(ctx context.Context, kind, key string) (*models.Cart, error) {
	var cart models.Cart
	err := preloadCartItems(r.DB.WithContext(ctx)).
		Where("owner_kind = ? AND owner_key = ?", kind, key).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *GormRepo) GetCart(ctx context.Context, id uint) (*models.Cart, error) {
	var cart models.Cart
	if err := preloadCartItems(r.DB.WithContext(ctx)).First(&cart, id).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// GetOrCreateCart tolerates a concurrent insert for the same owner.
func (r *GormRepo) GetOrCreateCart(ctx context.Context, kind, key string) (*models.Cart, bool, error) {
	cart := models.Cart{OwnerKind: kind, OwnerKey: key}
	res := r.DB.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&cart)
	if res.Error != nil {
		return nil, false, res.Error
	}
	got, err := r.GetCartByOwner(ctx, kind, key)
	if err != nil {
		return nil, false, err
	}
	return got, res.RowsAffected == 1, nil
}

func (r *GormRepo) LockCartItem(ctx context.Context, cartID, productID uint) (*models.CartItem, error) {
	var item models.CartItem
	err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormRepo) GetCartItem(ctx context.Context, cartID, itemID uint) (*models.CartItem, error) {
	var item models.CartItem
	err := r.DB.WithContext(ctx).
		Preload("Product").
		Where("id = ? AND cart_id = ?", itemID, cartID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormRepo) CreateCartItem(ctx context.Context, item *models.CartItem) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Create(item).Error
}

func (r *GormRepo) SetCartItemQuantity(ctx context.Context, itemID uint, qty int) error {
	return r.DB.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", itemID).
		Update("quantity", qty).Error
}

// AddCartItemQuantity inserts the line or adds qty to the existing one.
func (r *GormRepo) AddCartItemQuantity(ctx context.Context, cartID, productID uint, qty int) error {
	item := models.CartItem{CartID: cartID, ProductID: productID, Quantity: qty}
	return r.DB.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity": gorm.Expr("cart_items.quantity + excluded.quantity"),
			}),
		}).
		Create(&item).Error
}

func (r *GormRepo) DeleteCartItem(ctx context.Context, cartID, itemID uint) (bool, error) {
	res := r.DB.WithContext(ctx).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		Delete(&models.CartItem{})
	return res.RowsAffected > 0, res.Error
}

func (r *GormRepo) ClearCart(ctx context.Context, cartID uint) error {
	return r.DB.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error
}

func (r *GormRepo) DeleteCart(ctx context.Context, cartID uint) error {
	if err := r.ClearCart(ctx, cartID); err != nil {
		return err
	}
	return r.DB.WithContext(ctx).Delete(&models.Cart{}, cartID).Error
}

func (r *GormRepo) TouchCart(ctx context.Context, cartID uint) error {
	return r.DB.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		Update("updated_at", time.Now().UTC()).Error
}
