// Package catalog supplies the read-only product collection at session
// start. Two drivers: a JSON file and Redis hashes.
package catalog

import (
	"context"

	"github.com/kailas-cloud/cartwise/internal/domain"
)

// Provider loads the product catalog. The core never writes back.
type Provider interface {
	Load(ctx context.Context) ([]domain.Product, error)
}
