package phone

import (
	"errors"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

var ErrMissing = errors.New("address missing")
var ErrInvalid = errors.New("invalid number")
var ErrRegionNotAllowed = errors.New("region not allowed")

// Resolver turns a raw destination into a canonical E.164 address or a
// rejection reason. Implementations must be deterministic and side-effect
// free.
type Resolver interface {
	Validate(raw string, defaultRegion string) (string, error)
}

type resolver struct {
	allowedRegion string
}

// NewResolver restricts resolution to a single allowed region. An empty
// allowed region disables the region check.
func NewResolver(allowedRegion string) Resolver {
	return &resolver{allowedRegion: allowedRegion}
}

func (r *resolver) Validate(raw string, defaultRegion string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrMissing
	}

	num, err := phonenumbers.Parse(raw, defaultRegion)
	if err != nil {
		return "", ErrInvalid
	}

	if !phonenumbers.IsValidNumber(num) {
		return "", ErrInvalid
	}

	if r.allowedRegion != "" && phonenumbers.GetRegionCodeForNumber(num) != r.allowedRegion {
		return "", ErrRegionNotAllowed
	}

	return phonenumbers.Format(num, phonenumbers.E164), nil
}
