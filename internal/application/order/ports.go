package order

type IDGenerator interface {
	NewID() string
}

// LockKey is the Locker key guarding one order's state transitions.
func LockKey(orderID string) string {
	return "order:" + orderID
}
