package catalog

import (
	"context"
	"errors"

	"coinshop/internal/model"
)

var ErrProductNotFound = errors.New("product not found in catalog")

// Catalog is the authoritative list of purchasable coin packages. Prices and
// coin amounts always come from here, never from a request body.
type Catalog interface {
	GetProductByID(ctx context.Context, id string) (*model.CoinProduct, error)
	// ListActiveProducts returns active packages sorted by display order.
	ListActiveProducts(ctx context.Context) ([]*model.CoinProduct, error)
}
