package person

import "errors"

var (
	ErrPersonNotFound  = errors.New("person not found")
	ErrAddressNotFound = errors.New("address not found")

	// ErrPersonReferenced is returned by the store when a person row is still
	// referenced by at least one address.
	ErrPersonReferenced = errors.New("person is referenced by addresses")

	// ErrStoreUnavailable means no store connection could be acquired in time.
	ErrStoreUnavailable = errors.New("store unavailable")

	ErrInvalid = errors.New("invalid")

	ErrUnknownDeletePolicy = errors.New("unknown delete policy")
)
