package service

import (
	"context"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/shopfront/internal/domain"
	"github.com/Skotchmaster/shopfront/internal/models"
	"github.com/Skotchmaster/shopfront/internal/repo"
	"github.com/Skotchmaster/shopfront/internal/transport"
	"github.com/Skotchmaster/shopfront/pkg/identity"
	"github.com/Skotchmaster/shopfront/pkg/logging"
)

type CartService struct {
	Repo *repo.GormRepo
}

func (s *CartService) Get(ctx context.Context, caller identity.Caller) (*transport.CartView, error) {
	cart, err := resolveCart(ctx, s.Repo, caller)
	if err != nil {
		return nil, err
	}
	return CartView(cart), nil
}

func (s *CartService) AddItem(ctx context.Context, caller identity.Caller, productID uint, quantity *int) (*transport.CartView, error) {
	qty := 1
	if quantity != nil {
		qty = *quantity
	}
	if productID == 0 {
		return nil, domain.FieldError("product_id", "This field is required.")
	}
	if qty < 1 {
		return nil, domain.FieldError("quantity", "Quantity must be at least 1.")
	}

	cart, err := resolveCart(ctx, s.Repo, caller)
	if err != nil {
		return nil, err
	}

	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		product, err := tx.GetProduct(ctx, productID)
		if err != nil {
			return notFound(err, "product")
		}
		if !product.Active {
			return &domain.NotFoundError{What: "product"}
		}

		existing, err := tx.LockCartItem(ctx, cart.ID, productID)
		switch {
		case repo.IsNotFound(err):
			if product.Stock < qty {
				return stockError(product, qty)
			}
			if err := tx.CreateCartItem(ctx, &models.CartItem{CartID: cart.ID, ProductID: productID, Quantity: qty}); err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			if qty > product.Stock-existing.Quantity {
				return stockError(product, requestedTotal(existing.Quantity, qty))
			}
			if err := tx.SetCartItemQuantity(ctx, existing.ID, existing.Quantity+qty); err != nil {
				return err
			}
		}
		return tx.TouchCart(ctx, cart.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("add item: %w", err)
	}

	logging.FromContext(ctx).Info("cart_item_added", "cart_id", cart.ID, "product_id", productID, "quantity", qty)
	return s.view(ctx, cart.ID)
}

// UpdateItem sets the line quantity. Zero or less removes the line.
func (s *CartService) UpdateItem(ctx context.Context, caller identity.Caller, itemID uint, quantity *int) (*transport.CartView, error) {
	if itemID == 0 {
		return nil, domain.FieldError("item_id", "This field is required.")
	}
	if quantity == nil {
		return nil, domain.FieldError("quantity", "This field is required.")
	}
	qty := *quantity

	cart, err := resolveCart(ctx, s.Repo, caller)
	if err != nil {
		return nil, err
	}

	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		item, err := tx.GetCartItem(ctx, cart.ID, itemID)
		if err != nil {
			return notFound(err, "item")
		}
		if qty <= 0 {
			if _, err := tx.DeleteCartItem(ctx, cart.ID, itemID); err != nil {
				return err
			}
			return tx.TouchCart(ctx, cart.ID)
		}
		if qty > item.Product.Stock {
			return stockError(&item.Product, qty)
		}
		if err := tx.SetCartItemQuantity(ctx, itemID, qty); err != nil {
			return err
		}
		return tx.TouchCart(ctx, cart.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	return s.view(ctx, cart.ID)
}

func (s *CartService) RemoveItem(ctx context.Context, caller identity.Caller, itemID uint) (*transport.CartView, error) {
	if itemID == 0 {
		return nil, domain.FieldError("item_id", "This field is required.")
	}
	cart, err := resolveCart(ctx, s.Repo, caller)
	if err != nil {
		return nil, err
	}

	deleted, err := s.Repo.DeleteCartItem(ctx, cart.ID, itemID)
	if err != nil {
		return nil, fmt.Errorf("remove item: %w", err)
	}
	if !deleted {
		return nil, fmt.Errorf("remove item: %w", &domain.NotFoundError{What: "item"})
	}
	if err := s.Repo.TouchCart(ctx, cart.ID); err != nil {
		return nil, err
	}
	return s.view(ctx, cart.ID)
}

func (s *CartService) Clear(ctx context.Context, caller identity.Caller) (*transport.CartView, error) {
	cart, err := resolveCart(ctx, s.Repo, caller)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.ClearCart(ctx, cart.ID); err != nil {
		return nil, fmt.Errorf("clear cart: %w", err)
	}
	if err := s.Repo.TouchCart(ctx, cart.ID); err != nil {
		return nil, err
	}
	return s.view(ctx, cart.ID)
}

func (s *CartService) view(ctx context.Context, cartID uint) (*transport.CartView, error) {
	cart, err := s.Repo.GetCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	return CartView(cart), nil
}

// resolveCart returns the caller's cart, creating it on first use. A user who
// still carries an anonymous session gets that session's cart merged in.
func resolveCart(ctx context.Context, r *repo.GormRepo, caller identity.Caller) (*models.Cart, error) {
	id := caller.Identity
	if id.IsZero() {
		return nil, fmt.Errorf("%w: no session found", domain.ErrValidation)
	}

	if !id.IsUser() || caller.Session == "" {
		cart, _, err := r.GetOrCreateCart(ctx, id.OwnerKind(), id.OwnerKey())
		return cart, err
	}

	var cart *models.Cart
	err := r.Transaction(ctx, func(tx *repo.GormRepo) error {
		uc, _, err := tx.GetOrCreateCart(ctx, id.OwnerKind(), id.OwnerKey())
		if err != nil {
			return err
		}
		cart = uc

		sc, err := tx.GetCartByOwner(ctx, identity.OwnerSession, caller.Session)
		if repo.IsNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}
		for _, it := range sc.Items {
			if err := tx.AddCartItemQuantity(ctx, uc.ID, it.ProductID, it.Quantity); err != nil {
				return err
			}
		}
		if err := tx.DeleteCart(ctx, sc.ID); err != nil {
			return err
		}
		logging.FromContext(ctx).Info("cart_merged", "from_cart", sc.ID, "into_cart", uc.ID, "lines", len(sc.Items))

		cart, err = tx.GetCart(ctx, uc.ID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("resolve cart: %w", err)
	}
	return cart, nil
}

// requestedTotal is have+add, clamped at math.MaxInt.
func requestedTotal(have, add int) int {
	if add > math.MaxInt-have {
		return math.MaxInt
	}
	return have + add
}

func stockError(p *models.Product, requested int) error {
	return &domain.StockError{
		ProductID:   p.ID,
		ProductName: p.Name,
		Requested:   requested,
		Available:   p.Stock,
	}
}

func CartView(c *models.Cart) *transport.CartView {
	v := &transport.CartView{
		ID:        c.ID,
		Items:     make([]transport.CartItemView, 0, len(c.Items)),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	total := decimal.Zero
	for i := range c.Items {
		it := &c.Items[i]
		sub := it.Product.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		total = total.Add(sub)
		v.ItemsCount += it.Quantity
		v.Items = append(v.Items, transport.CartItemView{
			ID:       it.ID,
			Product:  ProductView(&it.Product),
			Quantity: it.Quantity,
			Subtotal: transport.NewMoney(sub),
		})
	}
	v.Total = transport.NewMoney(total)
	return v
}
