package payment

type IDGenerator interface {
	NewID() string
}
