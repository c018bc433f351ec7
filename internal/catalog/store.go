package catalog

import (
	"context"
	"errors"
	"log"

	"coinshop/internal/model"
	"coinshop/internal/repository"
)

// StoreCatalog reads packages from the product table and falls back to the
// built-in list when the store errors. An unknown product id is not a store
// failure and does not trigger the fallback.
type StoreCatalog struct {
	store    repository.ProductStore
	fallback *StaticCatalog
}

func NewStoreCatalog(store repository.ProductStore) *StoreCatalog {
	return &StoreCatalog{
		store:    store,
		fallback: NewDefaultCatalog(),
	}
}

func (c *StoreCatalog) GetProductByID(ctx context.Context, id string) (*model.CoinProduct, error) {
	product, err := c.store.GetByID(ctx, id)
	if err == nil {
		return product, nil
	}
	if errors.Is(err, repository.ErrProductNotFound) {
		return nil, ErrProductNotFound
	}

	log.Printf("[catalog] product store unavailable, using built-in list: %v", err)
	return c.fallback.GetProductByID(ctx, id)
}

func (c *StoreCatalog) ListActiveProducts(ctx context.Context) ([]*model.CoinProduct, error) {
	products, err := c.store.ListActive(ctx)
	if err != nil {
		log.Printf("[catalog] product store unavailable, using built-in list: %v", err)
		return c.fallback.ListActiveProducts(ctx)
	}
	return products, nil
}
