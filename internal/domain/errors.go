package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrUnregisteredDevice = errors.New("unregistered device")
	ErrIdentityConflict   = errors.New("identity conflict")
	ErrDowngradeRejected  = errors.New("downgrade rejected")
	ErrInvalidEnvelope    = errors.New("invalid envelope")
	ErrInvalidEventType   = errors.New("invalid event type")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrUnauthorized       = errors.New("unauthorized")
)
