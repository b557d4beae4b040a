package service

import (
	"context"

	"github.com/Skotchmaster/shopfront/internal/domain"
	"github.com/Skotchmaster/shopfront/internal/models"
	"github.com/Skotchmaster/shopfront/internal/repo"
	"github.com/Skotchmaster/shopfront/internal/transport"
	"github.com/Skotchmaster/shopfront/internal/util"
)

type CatalogService struct {
	Repo *repo.GormRepo
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*transport.ProductView, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, notFound(err, "product")
	}
	if !p.Active {
		return nil, &domain.NotFoundError{What: "product"}
	}
	v := ProductView(p)
	return &v, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, page, size int) (*transport.ProductPage, error) {
	offset, limit := util.Calculate(page, size)
	total, items, err := s.Repo.ListActiveProducts(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	out := &transport.ProductPage{
		Data: make([]transport.ProductView, 0, len(items)),
		Meta: util.Meta(page, size, total),
	}
	for i := range items {
		out.Data = append(out.Data, ProductView(&items[i]))
	}
	return out, nil
}

func ProductView(p *models.Product) transport.ProductView {
	return transport.ProductView{
		ID:          p.ID,
		CategoryID:  p.CategoryID,
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		Price:       transport.NewMoney(p.Price),
		Stock:       p.Stock,
		InStock:     p.InStock(),
		CreatedAt:   p.CreatedAt,
	}
}
