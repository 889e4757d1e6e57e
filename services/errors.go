package services

import "errors"

// Error taxonomy shared by the services. Controllers map these onto HTTP
// status codes; anything not in this list is treated as an internal failure,
// rolled back and logged with context.
var (
	ErrNotFound             = errors.New("resource not found")
	ErrForbidden            = errors.New("operation not permitted")
	ErrInvalidInput         = errors.New("invalid input")
	ErrInvalidTime          = errors.New("invalid booking time")
	ErrClosed               = errors.New("restaurant is closed on that date")
	ErrPolicyMissing        = errors.New("restaurant policy or operating hours missing")
	ErrInsufficientCapacity = errors.New("not enough tables available")
	ErrCannotCancel         = errors.New("booking cannot be cancelled in its current status")
	ErrAlreadyProcessed     = errors.New("booking already checked in or closed")
	ErrTableInUse           = errors.New("table is referenced by an active booking")
	ErrDuplicateTableNumber = errors.New("a table with this number already exists in the restaurant")
	ErrCapacityOutOfRange   = errors.New("capacity is outside the table type's range")
	ErrInsufficientStock    = errors.New("insufficient stock for requested quantity")
	ErrOrderFinalized       = errors.New("food order is finalized and cannot be modified")
)
