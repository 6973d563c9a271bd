package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/Zhima-Mochi/marketplace-orders/internal/domain/inventory"
)

type catalog struct{ q querier }

const productColumns = `id, name, price, stock, held, created_at, updated_at`

func (c *catalog) Create(ctx context.Context, p *inventory.Product) error {
	if p == nil || p.ID == "" {
		return fmt.Errorf("catalog: id is required")
	}
	_, err := c.q.Exec(ctx, `
		INSERT INTO products (id, name, price, stock, held, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 0, $5, $6)`,
		p.ID, p.Name, p.Price, p.Stock, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return inventory.ErrConflict
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (c *catalog) Get(ctx context.Context, id string) (*inventory.Product, error) {
	p, err := scanProduct(c.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, inventory.ErrNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (c *catalog) List(ctx context.Context) ([]*inventory.Product, error) {
	rows, err := c.q.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	out := make([]*inventory.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (c *catalog) UpdatePrice(ctx context.Context, id string, price decimal.Decimal) (*inventory.Product, error) {
	if price.IsNegative() {
		return nil, inventory.ErrInvalidPrice
	}
	p, err := scanProduct(c.q.QueryRow(ctx, `
		UPDATE products SET price = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+productColumns, id, price))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, inventory.ErrNotFound
		}
		return nil, fmt.Errorf("update price: %w", err)
	}
	return p, nil
}

func scanProduct(row pgx.Row) (*inventory.Product, error) {
	var p inventory.Product
	if err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.Held, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
