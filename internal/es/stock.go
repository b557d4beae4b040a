package es

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/shopspring/decimal"
)

type StockLevel struct {
	ProductID uint
	Name      string
	Price     decimal.Decimal
	Stock     int
}

// StockIndexer mirrors product stock into the search index.
type StockIndexer struct {
	Client *elasticsearch.Client
	Index  string
}

func NewStockIndexer(client *elasticsearch.Client, index string) *StockIndexer {
	return &StockIndexer{Client: client, Index: index}
}

type stockDoc struct {
	ID      uint    `json:"id"`
	Name    string  `json:"name"`
	Price   float64 `json:"price"`
	Stock   int     `json:"stock"`
	InStock bool    `json:"in_stock"`
}

// SyncStock upserts every level and returns the joined errors of failed documents.
func (s *StockIndexer) SyncStock(ctx context.Context, levels []StockLevel) error {
	var errs []error
	for _, lvl := range levels {
		if err := s.update(ctx, lvl); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *StockIndexer) update(ctx context.Context, lvl StockLevel) error {
	doc := stockDoc{
		ID:      lvl.ProductID,
		Name:    lvl.Name,
		Price:   lvl.Price.InexactFloat64(),
		Stock:   lvl.Stock,
		InStock: lvl.Stock > 0,
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(map[string]any{"doc": doc, "doc_as_upsert": true}); err != nil {
		return err
	}

	id := strconv.FormatUint(uint64(lvl.ProductID), 10)
	res, err := s.Client.Update(s.Index, id, &buf, s.Client.Update.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("es update %s/%s: %w", s.Index, id, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("es update %s/%s: %s: %s", s.Index, id, res.Status(), body)
	}
	return nil
}
