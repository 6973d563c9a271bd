package id

import "github.com/google/uuid"

// UUIDGenerator issues random (v4) UUID strings.
type UUIDGenerator struct{}

func New() UUIDGenerator { return UUIDGenerator{} }

func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}
