package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidRange       = errors.New("invalid date range: date_from must be earlier than date_to")
	ErrNoAvailability     = errors.New("no available rooms")
	ErrConflict           = errors.New("already exists")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrValidation         = errors.New("validation failed")
	ErrDataIntegrityFault = errors.New("data integrity fault: more overlapping bookings than room quantity")

	// ErrTxConflict marks a storage error that is safe to retry (deadlock, lock wait timeout).
	ErrTxConflict = errors.New("transaction conflict")
)
