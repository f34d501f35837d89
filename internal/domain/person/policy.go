package person

import (
	"fmt"
	"strings"
)

// DeletePolicy decides what happens to the addresses of a person being
// deleted.
type DeletePolicy string

const (
	// DeleteReject refuses to delete a person that still owns addresses.
	DeleteReject DeletePolicy = "reject"
	// DeleteCascade removes the owned addresses together with the person.
	DeleteCascade DeletePolicy = "cascade"
)

func ParseDeletePolicy(raw string) (DeletePolicy, error) {
	switch DeletePolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case DeleteReject:
		return DeleteReject, nil
	case DeleteCascade:
		return DeleteCascade, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDeletePolicy, raw)
	}
}

func (p DeletePolicy) String() string {
	return string(p)
}
