package repo

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/shopfront/internal/models"
)

func (r *GormRepo) GetPaymentByOrder(ctx context.Context, orderID uint) (*models.Payment, error) {
	var p models.Payment
	if err := r.DB.WithContext(ctx).Where("order_id = ?", orderID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepo) GetPaymentByIntent(ctx context.Context, intentID string) (*models.Payment, error) {
	var p models.Payment
	if err := r.DB.WithContext(ctx).Preload("Order").Where("intent_id = ?", intentID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// UpsertPayment keeps one payment row per order, replacing the intent on retry.
func (r *GormRepo) UpsertPayment(ctx context.Context, p *models.Payment) (*models.Payment, error) {
	err := r.DB.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"intent_id", "amount", "currency", "status", "error_message", "updated_at"}),
		}).
		Create(p).Error
	if err != nil {
		return nil, err
	}
	return r.GetPaymentByOrder(ctx, p.OrderID)
}

func (r *GormRepo) ListPaymentsByOwner(ctx context.Context, kind, key string) ([]models.Payment, error) {
	var items []models.Payment
	err := r.DB.WithContext(ctx).
		Joins("JOIN orders ON orders.id = payments.order_id").
		Where("orders.owner_kind = ? AND orders.owner_key = ?", kind, key).
		Order("payments.created_at DESC, payments.id DESC").
		Find(&items).Error
	return items, err
}

// UpdatePaymentUnless applies fields unless the payment is in one of the
// protected statuses. It reports whether a row changed.
func (r *GormRepo) UpdatePaymentUnless(ctx context.Context, id uint, fields map[string]any, protected ...string) (bool, error) {
	q := r.DB.WithContext(ctx).Model(&models.Payment{}).Where("id = ?", id)
	if len(protected) > 0 {
		q = q.Where("status NOT IN ?", protected)
	}
	res := q.Updates(fields)
	return res.RowsAffected > 0, res.Error
}
