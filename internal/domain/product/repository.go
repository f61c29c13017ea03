package product

import (
	"context"

	"example.com/product-catalog/internal/domain/category"
)

// Repository persists products. Find returns (nil, nil) when no row has the
// given id; absence is not an error at this level.
type Repository interface {
	Create(ctx context.Context, p *Product) (*Product, error)
	Update(ctx context.Context, p *Product) (*Product, error)
	Delete(ctx context.Context, id int64) error
	All(ctx context.Context) ([]*Product, error)
	Find(ctx context.Context, id int64) (*Product, error)
	FindByName(ctx context.Context, name string) ([]*Product, error)
	FindByCategory(ctx context.Context, c category.Category) ([]*Product, error)
	FindByAvailability(ctx context.Context, available bool) ([]*Product, error)
	FindByPrice(ctx context.Context, price any) ([]*Product, error)
	Count(ctx context.Context) (int, error)
}
