package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Zhima-Mochi/marketplace-orders/internal/domain/payment"
)

type paymentRepo struct{ q querier }

const paymentColumns = `id, order_id, user_id, amount, method, status,
	gateway_order_id, gateway_payment_id, gateway_signature, failure_reason, paid_at`

func (r *paymentRepo) Insert(ctx context.Context, p *payment.Payment) error {
	if p == nil || p.ID == "" {
		return fmt.Errorf("payment repository: id is required")
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO payments (`+paymentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.OrderID, p.UserID, p.Amount, string(p.Method), string(p.Status),
		p.Gateway.OrderID, p.Gateway.PaymentID, p.Gateway.Signature, p.FailureReason, p.PaidAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %w", payment.ErrConflict, err)
		}
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (r *paymentRepo) Get(ctx context.Context, id string) (*payment.Payment, error) {
	return r.one(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
}

func (r *paymentRepo) List(ctx context.Context) ([]*payment.Payment, error) {
	rows, err := r.q.Query(ctx, `SELECT `+paymentColumns+` FROM payments ORDER BY paid_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()
	out := make([]*payment.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *paymentRepo) FindByGatewayRef(ctx context.Context, ref payment.GatewayRef) (*payment.Payment, error) {
	if ref.PaymentID == "" {
		return nil, payment.ErrNotFound
	}
	return r.one(ctx, `SELECT `+paymentColumns+` FROM payments
		WHERE gateway_order_id = $1 AND gateway_payment_id = $2`, ref.OrderID, ref.PaymentID)
}

func (r *paymentRepo) FindByGatewayOrder(ctx context.Context, gatewayOrderID string) (*payment.Payment, error) {
	if gatewayOrderID == "" {
		return nil, payment.ErrNotFound
	}
	return r.one(ctx, `SELECT `+paymentColumns+` FROM payments
		WHERE gateway_order_id = $1
		ORDER BY paid_at, id
		LIMIT 1`, gatewayOrderID)
}

func (r *paymentRepo) FindSuccessByOrder(ctx context.Context, orderID string) (*payment.Payment, error) {
	return r.one(ctx, `SELECT `+paymentColumns+` FROM payments
		WHERE order_id = $1 AND status = 'SUCCESS'`, orderID)
}

func (r *paymentRepo) one(ctx context.Context, sql string, args ...any) (*payment.Payment, error) {
	p, err := scanPayment(r.q.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, payment.ErrNotFound
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return p, nil
}

func scanPayment(row pgx.Row) (*payment.Payment, error) {
	var p payment.Payment
	var method, status string
	err := row.Scan(&p.ID, &p.OrderID, &p.UserID, &p.Amount, &method, &status,
		&p.Gateway.OrderID, &p.Gateway.PaymentID, &p.Gateway.Signature, &p.FailureReason, &p.PaidAt)
	if err != nil {
		return nil, err
	}
	p.Method = payment.Method(method)
	p.Status = payment.Status(status)
	return &p, nil
}
