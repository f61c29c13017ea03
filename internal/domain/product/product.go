package product

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"example.com/product-catalog/internal/domain/category"
)

// Product is a single catalog item. A zero ID means the product has not
// been persisted yet; the store assigns the ID once, on create.
type Product struct {
	ID          int64
	Name        string
	Description string
	Price       decimal.Decimal
	Available   bool
	Category    category.Category
}

func New(name, description string, price decimal.Decimal, available bool, c category.Category) *Product {
	if c == "" {
		c = category.Unknown
	}
	return &Product{
		Name:        name,
		Description: description,
		Price:       normalizePrice(price),
		Available:   available,
		Category:    c,
	}
}

// String renders the product for logs, e.g. "<Product Fedora id=[None]>".
func (p *Product) String() string {
	id := "None"
	if p.ID != 0 {
		id = strconv.FormatInt(p.ID, 10)
	}
	return fmt.Sprintf("<Product %s id=[%s]>", p.Name, id)
}

// Validate checks the fields a row needs before it can be written.
func (p *Product) Validate() error {
	if p.Name == "" {
		return &ValidationError{Field: "name", Reason: "missing name"}
	}
	if err := checkPriceRange(p.Price); err != nil {
		return err
	}
	if !p.Category.IsValid() {
		return &ValidationError{Field: "category", Reason: fmt.Sprintf("invalid attribute [category]: %s", p.Category)}
	}
	return nil
}

// ListFilter selects products by exact match. Nil fields are ignored.
type ListFilter struct {
	Name      *string
	Category  *category.Category
	Available *bool
	Price     *decimal.Decimal
}

func (f ListFilter) IsEmpty() bool {
	return f.Name == nil && f.Category == nil && f.Available == nil && f.Price == nil
}
