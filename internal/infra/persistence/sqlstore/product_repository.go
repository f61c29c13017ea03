package sqlstore

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	domcategory "example.com/product-catalog/internal/domain/category"
	domproduct "example.com/product-catalog/internal/domain/product"
)

const selectProducts = `
        SELECT id, name, description, price, available, category
        FROM products
    `

type productRow struct {
	ID          int64           `db:"id"`
	Name        string          `db:"name"`
	Description string          `db:"description"`
	Price       decimal.Decimal `db:"price"`
	Available   bool            `db:"available"`
	Category    string          `db:"category"`
}

func (r productRow) toDomain() (*domproduct.Product, error) {
	c, err := domcategory.Parse(r.Category)
	if err != nil {
		return nil, errors.Wrapf(err, "product %d", r.ID)
	}
	return &domproduct.Product{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Available:   r.Available,
		Category:    c,
	}, nil
}

type ProductRepository struct {
	store  *Store
	tracer trace.Tracer
}

func NewProductRepository(store *Store) *ProductRepository {
	return &ProductRepository{
		store:  store,
		tracer: otel.Tracer("example.com/product-catalog/sqlstore"),
	}
}

func (r *ProductRepository) Create(ctx context.Context, p *domproduct.Product) (*domproduct.Product, error) {
	ctx, span := r.startSpan(ctx, "Create")
	defer span.End()

	if err := p.Validate(); err != nil {
		return nil, err
	}

	var id int64
	err := r.store.withTx(ctx, func(tx *sqlx.Tx) error {
		query := tx.Rebind(`
            INSERT INTO products (name, description, price, available, category)
            VALUES (?, ?, ?, ?, ?)
        `)
		args := []any{p.Name, p.Description, priceArg(p.Price), p.Available, p.Category.String()}

		if r.store.dialect == Postgres {
			return tx.QueryRowxContext(ctx, query+" RETURNING id", args...).Scan(&id)
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return nil, r.fail(span, errors.Wrap(err, "insert product"))
	}

	p.ID = id
	span.SetAttributes(attribute.Int64("product.id", id))
	return p, nil
}

// Update overwrites every mutable column of the row matching p.ID.
func (r *ProductRepository) Update(ctx context.Context, p *domproduct.Product) (*domproduct.Product, error) {
	ctx, span := r.startSpan(ctx, "Update")
	defer span.End()

	if p.ID == 0 {
		return nil, &domproduct.ValidationError{Field: "id", Reason: "update called with empty ID field"}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int64("product.id", p.ID))

	var rows int64
	err := r.store.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(`
            UPDATE products SET name = ?, description = ?, price = ?, available = ?, category = ?
            WHERE id = ?
        `), p.Name, p.Description, priceArg(p.Price), p.Available, p.Category.String(), p.ID)
		if err != nil {
			return err
		}
		rows, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return nil, r.fail(span, errors.Wrapf(err, "update product %d", p.ID))
	}
	if rows == 0 {
		return nil, domproduct.ErrProductNotFound
	}
	return p, nil
}

// Delete removes the row with the given id. Deleting a missing row is not an error.
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	ctx, span := r.startSpan(ctx, "Delete")
	defer span.End()
	span.SetAttributes(attribute.Int64("product.id", id))

	err := r.store.withTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM products WHERE id = ?`), id)
		return err
	})
	if err != nil {
		return r.fail(span, errors.Wrapf(err, "delete product %d", id))
	}
	return nil
}

func (r *ProductRepository) Find(ctx context.Context, id int64) (*domproduct.Product, error) {
	ctx, span := r.startSpan(ctx, "Find")
	defer span.End()
	span.SetAttributes(attribute.Int64("product.id", id))

	var row productRow
	err := r.store.db.GetContext(ctx, &row, r.store.db.Rebind(selectProducts+` WHERE id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, r.fail(span, errors.Wrapf(err, "find product %d", id))
	}
	return row.toDomain()
}

func (r *ProductRepository) All(ctx context.Context) ([]*domproduct.Product, error) {
	return r.list(ctx, "All", "")
}

func (r *ProductRepository) FindByName(ctx context.Context, name string) ([]*domproduct.Product, error) {
	return r.list(ctx, "FindByName", "name = ?", name)
}

func (r *ProductRepository) FindByCategory(ctx context.Context, c domcategory.Category) ([]*domproduct.Product, error) {
	return r.list(ctx, "FindByCategory", "category = ?", c.String())
}

func (r *ProductRepository) FindByAvailability(ctx context.Context, available bool) ([]*domproduct.Product, error) {
	return r.list(ctx, "FindByAvailability", "available = ?", available)
}

// FindByPrice accepts a decimal, a number or a numeric string and matches
// the stored price exactly in the decimal domain.
func (r *ProductRepository) FindByPrice(ctx context.Context, price any) ([]*domproduct.Product, error) {
	d, err := domproduct.ParsePrice(price)
	if err != nil {
		return nil, err
	}
	return r.list(ctx, "FindByPrice", r.store.dialect.priceEquals(), priceArg(d))
}

func (r *ProductRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.store.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM products`)
	return n, errors.Wrap(err, "count products")
}

func (r *ProductRepository) list(ctx context.Context, op, where string, args ...any) ([]*domproduct.Product, error) {
	ctx, span := r.startSpan(ctx, op)
	defer span.End()

	query := selectProducts
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY id"

	var rows []productRow
	if err := r.store.db.SelectContext(ctx, &rows, r.store.db.Rebind(query), args...); err != nil {
		return nil, r.fail(span, errors.Wrapf(err, "%s products", op))
	}

	products := make([]*domproduct.Product, 0, len(rows))
	for _, row := range rows {
		p, err := row.toDomain()
		if err != nil {
			return nil, r.fail(span, err)
		}
		products = append(products, p)
	}
	span.SetAttributes(attribute.Int("product.count", len(products)))
	return products, nil
}

func (r *ProductRepository) startSpan(ctx context.Context, op string) (context.Context, trace.Span) {
	return r.tracer.Start(ctx, "sqlstore."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("db.system", string(r.store.dialect))),
	)
}

func (r *ProductRepository) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// priceArg is the canonical text form written to and compared against the
// price column on every dialect.
func priceArg(d decimal.Decimal) string {
	return d.StringFixed(domproduct.PriceScale)
}
