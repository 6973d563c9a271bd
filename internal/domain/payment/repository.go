package payment

import "context"

type Repository interface {
	// Insert fails with ErrConflict when the order already has a SUCCESS payment
	// or the gateway key is already recorded.
	Insert(ctx context.Context, p *Payment) error
	Get(ctx context.Context, id string) (*Payment, error)
	List(ctx context.Context) ([]*Payment, error)
	// FindByGatewayRef returns the payment recorded for the ref's order and payment ids.
	FindByGatewayRef(ctx context.Context, ref GatewayRef) (*Payment, error)
	// FindByGatewayOrder returns the first payment recorded against a gateway order id.
	FindByGatewayOrder(ctx context.Context, gatewayOrderID string) (*Payment, error)
	FindSuccessByOrder(ctx context.Context, orderID string) (*Payment, error)
}
