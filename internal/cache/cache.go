package cache

import (
	"context"
	"errors"

	"github.com/Uchiha-k/LUI-MICHY-COUTURE/internal/domain"
)

var ErrCacheMiss = errors.New("product not found in cache")

// ProductCache keeps hot catalog reads off Postgres. Implementations must
// treat a miss as ErrCacheMiss, never as an empty product.
type ProductCache interface {
	Get(ctx context.Context, productID string) (*domain.Product, error)
	Set(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, productID string) error
}
