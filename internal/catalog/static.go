package catalog

import (
	"context"
	"sort"

	"coinshop/internal/model"
)

// DefaultProducts is the built-in package list. It doubles as the fallback
// when the product table is unreachable, so purchases stay possible during a
// partial store outage.
var DefaultProducts = []model.CoinProduct{
	{ID: "coin_10", Name: "코인 10개", Coins: 10, Bonus: 0, Price: 1900, DisplayOrder: 1, IsActive: true},
	{ID: "coin_50", Name: "코인 50개 +5 보너스", Coins: 50, Bonus: 5, Price: 8900, DisplayOrder: 2, IsActive: true},
	{ID: "coin_100", Name: "코인 100개 +15 보너스", Coins: 100, Bonus: 15, Price: 15900, DisplayOrder: 3, IsActive: true},
	{ID: "coin_300", Name: "코인 300개 +60 보너스", Coins: 300, Bonus: 60, Price: 39000, DisplayOrder: 4, IsActive: true},
}

// StaticCatalog serves a fixed in-process product list.
type StaticCatalog struct {
	products map[string]model.CoinProduct
}

func NewStaticCatalog(products []model.CoinProduct) *StaticCatalog {
	m := make(map[string]model.CoinProduct, len(products))
	for _, p := range products {
		m[p.ID] = p
	}
	return &StaticCatalog{products: m}
}

func NewDefaultCatalog() *StaticCatalog {
	return NewStaticCatalog(DefaultProducts)
}

func (c *StaticCatalog) GetProductByID(ctx context.Context, id string) (*model.CoinProduct, error) {
	p, ok := c.products[id]
	if !ok || !p.IsActive {
		return nil, ErrProductNotFound
	}
	product := p
	return &product, nil
}

func (c *StaticCatalog) ListActiveProducts(ctx context.Context) ([]*model.CoinProduct, error) {
	products := make([]*model.CoinProduct, 0, len(c.products))
	for id := range c.products {
		p := c.products[id]
		if !p.IsActive {
			continue
		}
		products = append(products, &p)
	}
	sort.Slice(products, func(i, j int) bool {
		return products[i].DisplayOrder < products[j].DisplayOrder
	})
	return products, nil
}
