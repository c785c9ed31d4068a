package domain

import "errors"

var (
	// ErrNegativeKWH rejects negative consumption at MonthlyUsage construction.
	ErrNegativeKWH = errors.New("kwh must be non-negative")

	// ErrMalformedRate rejects rate structures whose fields do not match
	// their kind (missing tiers, bounded final tier, negative rates).
	ErrMalformedRate = errors.New("malformed rate structure")
)
