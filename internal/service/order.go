package service

import (
	"context"
	"fmt"
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/shopfront/internal/domain"
	"github.com/Skotchmaster/shopfront/internal/es"
	"github.com/Skotchmaster/shopfront/internal/models"
	"github.com/Skotchmaster/shopfront/internal/mykafka"
	"github.com/Skotchmaster/shopfront/internal/repo"
	"github.com/Skotchmaster/shopfront/internal/transport"
	"github.com/Skotchmaster/shopfront/internal/util"
	pkgdb "github.com/Skotchmaster/shopfront/pkg/db"
	"github.com/Skotchmaster/shopfront/pkg/identity"
	"github.com/Skotchmaster/shopfront/pkg/logging"
)

const stockSyncTimeout = 2 * time.Second

type OrderService struct {
	Repo      *repo.GormRepo
	Events    Publisher
	Stock     StockSyncer
	TxOptions pkgdb.TxOptions
}

func NewOrderService(r *repo.GormRepo, events Publisher, stock StockSyncer) *OrderService {
	return &OrderService{Repo: r, Events: events, Stock: stock, TxOptions: pkgdb.DefaultTxOptions()}
}

// PlaceOrder converts the caller's cart into an order. Stock of every line is
// checked under row locks before anything is written, so a failed check leaves
// no partial order and no decremented stock.
func (s *OrderService) PlaceOrder(ctx context.Context, caller identity.Caller, req transport.PlaceOrderRequest) (*transport.OrderView, error) {
	l := logging.FromContext(ctx).With("svc", "order.place")

	req = normalizeContact(req)
	if err := validateContact(req); err != nil {
		return nil, err
	}

	cart, err := resolveCart(ctx, s.Repo, caller)
	if err != nil {
		return nil, err
	}

	var (
		order   *models.Order
		touched []uint
	)
	err = s.Repo.RetryTransaction(ctx, s.TxOptions, func(tx *repo.GormRepo) error {
		c, err := tx.GetCart(ctx, cart.ID)
		if err != nil {
			return err
		}
		if len(c.Items) == 0 {
			return domain.ErrEmptyCart
		}

		ids := make([]uint, 0, len(c.Items))
		for _, it := range c.Items {
			ids = append(ids, it.ProductID)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		locked, err := tx.LockProducts(ctx, ids)
		if err != nil {
			return err
		}
		products := make(map[uint]*models.Product, len(locked))
		for i := range locked {
			products[locked[i].ID] = &locked[i]
		}

		total := decimal.Zero
		items := make([]models.OrderItem, 0, len(c.Items))
		for _, it := range c.Items {
			p, ok := products[it.ProductID]
			if !ok {
				return &domain.NotFoundError{What: "product"}
			}
			if p.Stock < it.Quantity {
				return stockError(p, it.Quantity)
			}
			pid := p.ID
			line := models.OrderItem{
				ProductID:    &pid,
				ProductName:  p.Name,
				ProductPrice: p.Price,
				Quantity:     it.Quantity,
			}
			total = total.Add(line.Subtotal())
			items = append(items, line)
		}

		o := &models.Order{
			OrderNumber: newOrderNumber(),
			OwnerKind:   caller.Identity.OwnerKind(),
			OwnerKey:    caller.Identity.OwnerKey(),
			Email:       req.Email,
			FirstName:   req.FirstName,
			LastName:    req.LastName,
			Phone:       req.Phone,
			Address:     req.Address,
			City:        req.City,
			PostalCode:  req.PostalCode,
			Country:     req.Country,
			Notes:       req.Notes,
			Status:      models.OrderStatusPending,
			TotalAmount: total,
			Items:       items,
		}
		if err := tx.CreateOrder(ctx, o); err != nil {
			return err
		}

		for _, it := range c.Items {
			ok, err := tx.DecreaseStockIfEnough(ctx, it.ProductID, it.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return stockError(products[it.ProductID], it.Quantity)
			}
		}

		if err := tx.ClearCart(ctx, c.ID); err != nil {
			return err
		}
		if err := tx.TouchCart(ctx, c.ID); err != nil {
			return err
		}

		order, touched = o, ids
		return nil
	})
	if err != nil {
		l.Warn("place_order_failed", "cart_id", cart.ID, "error", err)
		return nil, fmt.Errorf("place order: %w", err)
	}

	l.Info("order_placed", "order_id", order.ID, "order_number", order.OrderNumber, "total", order.TotalAmount.StringFixed(2))

	publish(ctx, s.Events, mykafka.TopicOrders, order.OrderNumber, map[string]any{
		"type":         "order_created",
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"owner":        caller.Identity.String(),
		"total":        order.TotalAmount.StringFixed(2),
		"items":        len(order.Items),
	})
	s.syncStock(ctx, touched)

	fresh, err := s.Repo.GetOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	v := OrderView(fresh)
	return &v, nil
}

func (s *OrderService) syncStock(ctx context.Context, ids []uint) {
	if s.Stock == nil || len(ids) == 0 {
		return
	}
	l := logging.FromContext(ctx)

	products, err := s.Repo.ProductsByIDs(ctx, ids)
	if err != nil {
		l.Warn("stock_sync_error", "error", err)
		return
	}
	levels := make([]es.StockLevel, 0, len(products))
	for _, p := range products {
		levels = append(levels, es.StockLevel{ProductID: p.ID, Name: p.Name, Price: p.Price, Stock: p.Stock})
	}

	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stockSyncTimeout)
	defer cancel()
	if err := s.Stock.SyncStock(sctx, levels); err != nil {
		l.Warn("stock_sync_error", "products", len(levels), "error", err)
	}
}

// List returns every order for staff and the caller's own orders otherwise.
func (s *OrderService) List(ctx context.Context, caller identity.Caller, page, size int) (*transport.OrderPage, error) {
	if !caller.Identity.IsUser() {
		return nil, domain.ErrUnauthorized
	}
	kind, key := caller.Identity.OwnerKind(), caller.Identity.OwnerKey()
	if caller.IsStaff() {
		kind, key = "", ""
	}
	return s.list(ctx, kind, key, page, size)
}

func (s *OrderService) Mine(ctx context.Context, caller identity.Caller, page, size int) (*transport.OrderPage, error) {
	if !caller.Identity.IsUser() {
		return nil, domain.ErrUnauthorized
	}
	return s.list(ctx, caller.Identity.OwnerKind(), caller.Identity.OwnerKey(), page, size)
}

func (s *OrderService) list(ctx context.Context, kind, key string, page, size int) (*transport.OrderPage, error) {
	offset, limit := util.Calculate(page, size)
	total, orders, err := s.Repo.ListOrders(ctx, kind, key, offset, limit)
	if err != nil {
		return nil, err
	}
	out := &transport.OrderPage{
		Data: make([]transport.OrderView, 0, len(orders)),
		Meta: util.Meta(page, size, total),
	}
	for i := range orders {
		out.Data = append(out.Data, OrderView(&orders[i]))
	}
	return out, nil
}

// Get hides orders of other owners behind ErrNotFound.
func (s *OrderService) Get(ctx context.Context, caller identity.Caller, id uint) (*transport.OrderView, error) {
	o, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		return nil, notFound(err, "order")
	}
	if !caller.IsStaff() && !caller.Owns(o.OwnerKind, o.OwnerKey) {
		return nil, &domain.NotFoundError{What: "order"}
	}
	v := OrderView(o)
	return &v, nil
}

func (s *OrderService) UpdateStatus(ctx context.Context, id uint, status string) (*transport.OrderView, error) {
	status = strings.TrimSpace(status)
	if !models.ValidOrderStatus(status) {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, status)
	}
	ok, err := s.Repo.UpdateOrderStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &domain.NotFoundError{What: "order"}
	}

	o, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("order_status_updated", "order_id", id, "status", status)
	publish(ctx, s.Events, mykafka.TopicOrders, o.OrderNumber, map[string]any{
		"type":         "order_status_updated",
		"order_id":     o.ID,
		"order_number": o.OrderNumber,
		"status":       status,
	})
	v := OrderView(o)
	return &v, nil
}

func newOrderNumber() string {
	return "ORD-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}

func normalizeContact(r transport.PlaceOrderRequest) transport.PlaceOrderRequest {
	r.Email = strings.TrimSpace(r.Email)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Address = strings.TrimSpace(r.Address)
	r.City = strings.TrimSpace(r.City)
	r.PostalCode = strings.TrimSpace(r.PostalCode)
	r.Country = strings.TrimSpace(r.Country)
	r.Notes = strings.TrimSpace(r.Notes)
	return r
}

func validateContact(r transport.PlaceOrderRequest) error {
	fields := map[string]string{}
	required := []struct {
		name  string
		value string
		max   int
	}{
		{"email", r.Email, 254},
		{"first_name", r.FirstName, 100},
		{"last_name", r.LastName, 100},
		{"phone", r.Phone, 20},
		{"address", r.Address, 0},
		{"city", r.City, 100},
		{"postal_code", r.PostalCode, 20},
		{"country", r.Country, 100},
	}
	for _, f := range required {
		switch {
		case f.value == "":
			fields[f.name] = "This field is required."
		case f.max > 0 && len(f.value) > f.max:
			fields[f.name] = fmt.Sprintf("Ensure this field has no more than %d characters.", f.max)
		}
	}
	if _, bad := fields["email"]; !bad {
		if addr, err := mail.ParseAddress(r.Email); err != nil || addr.Address != r.Email {
			fields["email"] = "Enter a valid email address."
		}
	}
	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

func OrderView(o *models.Order) transport.OrderView {
	v := transport.OrderView{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		Email:         o.Email,
		FirstName:     o.FirstName,
		LastName:      o.LastName,
		Phone:         o.Phone,
		Address:       o.Address,
		City:          o.City,
		PostalCode:    o.PostalCode,
		Country:       o.Country,
		Status:        o.Status,
		StatusDisplay: models.OrderStatusDisplay(o.Status),
		TotalAmount:   transport.NewMoney(o.TotalAmount),
		Notes:         o.Notes,
		Paid:          o.Paid,
		PaidAt:        o.PaidAt,
		Items:         make([]transport.OrderItemView, 0, len(o.Items)),
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	for i := range o.Items {
		it := &o.Items[i]
		v.Items = append(v.Items, transport.OrderItemView{
			ID:           it.ID,
			ProductID:    it.ProductID,
			ProductName:  it.ProductName,
			ProductPrice: transport.NewMoney(it.ProductPrice),
			Quantity:     it.Quantity,
			Subtotal:     transport.NewMoney(it.Subtotal()),
		})
	}
	return v
}
