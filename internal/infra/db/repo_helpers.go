package db

import (
	"errors"
	"fmt"

	"custodia/internal/domain"
)

var errDBUnavailable = fmt.Errorf("%w: db handle is nil", domain.ErrStorageUnavailable)

// wrapStorageErr tags infrastructure failures so callers can retry on
// domain.ErrStorageUnavailable while invariant violations pass through.
func wrapStorageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrIdentityConflict) ||
		errors.Is(err, domain.ErrDowngradeRejected) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrStorageUnavailable, op, err)
}

func stringPtrIfNotEmpty(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func stringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
