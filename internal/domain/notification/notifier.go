package notification

import "context"

type Type string

const (
	TypeInfo    Type = "INFO"
	TypeSuccess Type = "SUCCESS"
	TypeWarning Type = "WARNING"
)

// Notifier delivers a user-facing message. Callers treat it as best effort.
type Notifier interface {
	Notify(ctx context.Context, userID, message string, typ Type) error
}
