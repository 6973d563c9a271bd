package order

// State implements the state pattern for order lifecycle transitions.
type State interface {
	Status() Status
	OnPaid(o *Order) (State, error)
	OnPaymentFailed(o *Order, reason string) (State, error)
	OnCancel(o *Order) (State, error)
}

func stateOf(s Status) State {
	switch s {
	case StatusPaid:
		return paidState{}
	case StatusCancelled:
		return cancelledState{}
	case StatusPaymentFailed:
		return paymentFailedState{}
	default:
		return pendingState{}
	}
}

type pendingState struct{}

func (pendingState) Status() Status { return StatusPending }

func (pendingState) OnPaid(o *Order) (State, error) {
	o.FailureReason = ""
	return paidState{}, nil
}

func (pendingState) OnPaymentFailed(o *Order, reason string) (State, error) {
	o.FailureReason = reason
	return paymentFailedState{}, nil
}

func (pendingState) OnCancel(*Order) (State, error) {
	return cancelledState{}, nil
}

type paidState struct{}

func (paidState) Status() Status { return StatusPaid }

func (paidState) OnPaid(*Order) (State, error) {
	return nil, ErrInvalidStateTransition
}

func (paidState) OnPaymentFailed(*Order, string) (State, error) {
	return nil, ErrInvalidStateTransition
}

func (paidState) OnCancel(*Order) (State, error) {
	return cancelledState{}, nil
}

type paymentFailedState struct{}

func (paymentFailedState) Status() Status { return StatusPaymentFailed }

func (paymentFailedState) OnPaid(*Order) (State, error) {
	return nil, ErrInvalidStateTransition
}

func (paymentFailedState) OnPaymentFailed(o *Order, reason string) (State, error) {
	o.FailureReason = reason
	return paymentFailedState{}, nil
}

func (paymentFailedState) OnCancel(*Order) (State, error) {
	return cancelledState{}, nil
}

// cancelledState is absorbing; cancelling again is a no-op.
type cancelledState struct{}

func (cancelledState) Status() Status { return StatusCancelled }

func (cancelledState) OnPaid(*Order) (State, error) {
	return nil, ErrInvalidStateTransition
}

func (cancelledState) OnPaymentFailed(*Order, string) (State, error) {
	return nil, ErrInvalidStateTransition
}

func (cancelledState) OnCancel(*Order) (State, error) {
	return cancelledState{}, nil
}
