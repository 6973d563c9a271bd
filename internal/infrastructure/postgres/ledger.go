package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/Zhima-Mochi/marketplace-orders/internal/domain/inventory"
)

// ledger moves stock with conditional row updates. Multi-line calls lock
// products in ascending ID order; outside a unit of work each call runs in
// its own transaction.
type ledger struct {
	s  *Store
	tx pgx.Tx
}

func (l *ledger) within(ctx context.Context, fn func(q pgx.Tx) error) error {
	if l.tx != nil {
		return fn(l.tx)
	}
	return pgx.BeginTxFunc(ctx, l.s.pool, pgx.TxOptions{}, fn)
}

func (l *ledger) CheckAndPrice(ctx context.Context, productID string, quantity int) (decimal.Decimal, error) {
	if quantity <= 0 {
		return decimal.Zero, inventory.ErrInvalidQuantity
	}
	var q querier = l.s.pool
	sql := `SELECT price, stock - held FROM products WHERE id = $1`
	if l.tx != nil {
		// keeps the answer stable until the unit commits
		q = l.tx
		sql += ` FOR UPDATE`
	}
	var price decimal.Decimal
	var avail int
	if err := q.QueryRow(ctx, sql, productID).Scan(&price, &avail); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, fmt.Errorf("%w: %s", inventory.ErrNotFound, productID)
		}
		return decimal.Zero, fmt.Errorf("check stock: %w", err)
	}
	if avail < quantity {
		return decimal.Zero, &inventory.StockError{ProductID: productID, Requested: quantity, Available: avail}
	}
	return price, nil
}

func (l *ledger) Hold(ctx context.Context, orderID string, lines []inventory.Line) error {
	lines, err := inventory.Normalize(lines)
	if err != nil {
		return err
	}
	return l.within(ctx, func(q pgx.Tx) error {
		for _, ln := range lines {
			ct, err := q.Exec(ctx, `
				UPDATE products SET held = held + $2
				WHERE id = $1 AND stock - held >= $2`, ln.ProductID, ln.Quantity)
			if err != nil {
				return fmt.Errorf("hold stock: %w", err)
			}
			if ct.RowsAffected() == 0 {
				return shortfall(ctx, q, ln, 0)
			}
			if _, err := q.Exec(ctx, `
				INSERT INTO stock_holds (order_id, product_id, qty) VALUES ($1, $2, $3)
				ON CONFLICT (order_id, product_id) DO UPDATE SET qty = stock_holds.qty + EXCLUDED.qty`,
				orderID, ln.ProductID, ln.Quantity); err != nil {
				return fmt.Errorf("record hold: %w", err)
			}
		}
		return nil
	})
}

func (l *ledger) ReleaseHold(ctx context.Context, orderID string) error {
	return l.within(ctx, func(q pgx.Tx) error {
		return releaseHolds(ctx, q, orderID)
	})
}

func releaseHolds(ctx context.Context, q pgx.Tx, orderID string) error {
	rows, err := q.Query(ctx, `
		SELECT product_id, qty FROM stock_holds
		WHERE order_id = $1 ORDER BY product_id`, orderID)
	if err != nil {
		return fmt.Errorf("load holds: %w", err)
	}
	holds, err := pgx.CollectRows(rows, pgx.RowToStructByPos[inventory.Line])
	if err != nil {
		return fmt.Errorf("load holds: %w", err)
	}
	for _, h := range holds {
		if _, err := q.Exec(ctx, `UPDATE products SET held = held - $2 WHERE id = $1`, h.ProductID, h.Quantity); err != nil {
			return fmt.Errorf("release hold: %w", err)
		}
	}
	if _, err := q.Exec(ctx, `DELETE FROM stock_holds WHERE order_id = $1`, orderID); err != nil {
		return fmt.Errorf("drop holds: %w", err)
	}
	return nil
}

func (l *ledger) Commit(ctx context.Context, orderID string, lines []inventory.Line) error {
	lines, err := inventory.Normalize(lines)
	if err != nil {
		return err
	}
	return l.within(ctx, func(q pgx.Tx) error {
		for _, ln := range lines {
			var held int
			err := q.QueryRow(ctx, `
				DELETE FROM stock_holds WHERE order_id = $1 AND product_id = $2
				RETURNING qty`, orderID, ln.ProductID).Scan(&held)
			if err != nil && !errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("consume hold: %w", err)
			}
			ct, err := q.Exec(ctx, `
				UPDATE products SET stock = stock - $2, held = held - $3, updated_at = now()
				WHERE id = $1 AND stock - held + $3 >= $2`, ln.ProductID, ln.Quantity, held)
			if err != nil {
				return fmt.Errorf("commit stock: %w", err)
			}
			if ct.RowsAffected() == 0 {
				return shortfall(ctx, q, ln, held)
			}
		}
		// holds on products the order no longer lists
		return releaseHolds(ctx, q, orderID)
	})
}

func (l *ledger) Release(ctx context.Context, lines []inventory.Line) error {
	lines, err := inventory.Normalize(lines)
	if err != nil {
		return err
	}
	return l.within(ctx, func(q pgx.Tx) error {
		for _, ln := range lines {
			ct, err := q.Exec(ctx, `
				UPDATE products SET stock = stock + $2, updated_at = now()
				WHERE id = $1`, ln.ProductID, ln.Quantity)
			if err != nil {
				return fmt.Errorf("release stock: %w", err)
			}
			if ct.RowsAffected() == 0 {
				return fmt.Errorf("%w: %s", inventory.ErrNotFound, ln.ProductID)
			}
		}
		return nil
	})
}

// shortfall explains why a conditional update touched no row.
func shortfall(ctx context.Context, q pgx.Tx, ln inventory.Line, own int) error {
	var avail int
	err := q.QueryRow(ctx, `SELECT stock - held FROM products WHERE id = $1`, ln.ProductID).Scan(&avail)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", inventory.ErrNotFound, ln.ProductID)
	}
	if err != nil {
		return fmt.Errorf("check stock: %w", err)
	}
	return &inventory.StockError{ProductID: ln.ProductID, Requested: ln.Quantity, Available: avail + own}
}
