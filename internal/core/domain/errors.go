package domain

import "errors"

// ErrAlreadyExists is an error thrown when entity already exists
var ErrAlreadyExists = errors.New("already exists")

// ErrAssetNotFound is an error thrown when a file asset is not found
var ErrAssetNotFound = errors.New("file asset not found")

// ErrInvalidTransition is an error thrown when a lifecycle transition is not allowed
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrNotClaimable is an error thrown when an asset is not pending and its claim has not expired
var ErrNotClaimable = errors.New("asset not claimable")

// ErrClaimLost is an error thrown when a fenced write finds that another worker took over the claim
var ErrClaimLost = errors.New("claim lost")

// ErrObjectNotFound is an error thrown when the storage key does not exist
var ErrObjectNotFound = errors.New("object not found")

// ErrStorageUnavailable is a transient storage error, safe to retry with backoff
var ErrStorageUnavailable = errors.New("storage unavailable")

// ErrStorageMisconfigured is a permission or configuration error, never retried
var ErrStorageMisconfigured = errors.New("storage misconfigured")

// ErrContentTooLarge is an error thrown when the stream exceeds the configured bound
var ErrContentTooLarge = errors.New("content too large")

// ErrContentChanged is an error thrown when reprocessed bytes no longer match the recorded hash
var ErrContentChanged = errors.New("content changed since first fingerprint")

// ErrInvariantViolation signals a bug: two canonicals for one fingerprint, or a duplicate chain
var ErrInvariantViolation = errors.New("invariant violation")

// ErrFileSizeTooBig is an error thrown when file size is too big
var ErrFileSizeTooBig = errors.New("file size too big")

// ErrForeignStorageKey is an error thrown when a commit references a key outside the owner's prefix
var ErrForeignStorageKey = errors.New("storage key does not belong to owner")

// ErrValidation is an error thrown when a request fails boundary validation
var ErrValidation = errors.New("validation failed")

// IsTransient reports whether err is worth retrying with backoff
func IsTransient(err error) bool {
	return errors.Is(err, ErrStorageUnavailable)
}
