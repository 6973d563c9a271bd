package order

import "context"

type Repository interface {
	// Insert persists the order together with its items.
	Insert(ctx context.Context, order *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	Update(ctx context.Context, order *Order) error
	ListByUser(ctx context.Context, userID string) ([]*Order, error)
	List(ctx context.Context) ([]*Order, error)
}
