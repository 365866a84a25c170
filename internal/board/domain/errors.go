package domain

import "errors"

var (
	// ErrNotFound indicates that a requested listing was not found.
	ErrNotFound = errors.New("listing not found")
	// ErrAlreadyExists indicates an insert hit an already occupied id.
	ErrAlreadyExists = errors.New("listing already exists")
	// ErrValidation indicates that the submission payload is malformed or oversized.
	ErrValidation = errors.New("invalid submission data")
	// ErrDuplicateSubmission indicates the owner already has a live listing.
	ErrDuplicateSubmission = errors.New("owner already has an active or pending listing")
	// ErrPromoInvalid indicates the promo code does not exist or was already used.
	ErrPromoInvalid = errors.New("promo code is invalid or already used")
	// ErrAlreadyPermanent indicates the listing is already in the permanent set.
	ErrAlreadyPermanent = errors.New("listing is already permanent")
	// ErrUnauthorized indicates a bad operator credential or a non-owner delete attempt.
	ErrUnauthorized = errors.New("not authorized to perform this action")
	// ErrRepository indicates a generic data persistence error.
	ErrRepository = errors.New("repository error")
	// ErrCacheMiss indicates the requested key is not in the cache.
	ErrCacheMiss = errors.New("cache miss")
)
