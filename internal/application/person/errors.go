package person

import "errors"

var (
	ErrPersonNotFound     = errors.New("person not found")
	ErrAddressNotFound    = errors.New("address not found")
	ErrPersonHasAddresses = errors.New("person still has addresses")
	ErrStoreUnavailable   = errors.New("store unavailable")
	ErrStoreFailure       = errors.New("store failure")
)
