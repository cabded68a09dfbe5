// Package common defines shared constants and sentinel errors used across
// the qrvault persistence layer. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound          = errors.New("not found")
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrStoreFailure marks errors originating in the underlying database
	// engine. Repositories wrap the driver error so both this sentinel and
	// the native error stay matchable.
	ErrStoreFailure = errors.New("store failure")

	// Serialization boundary errors.
	ErrMalformedPayload = errors.New("malformed payload")

	// Sync-level errors.
	ErrNoCloudAccount = errors.New("no cloud account available")
)
