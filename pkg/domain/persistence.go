package domain

import "context"

// CountryStore is a minimal abstraction over durable snapshot backends. A
// snapshot is always rewritten as a whole; there are no partial updates.
type CountryStore interface {
	// ReplaceCountries atomically replaces the stored snapshot with countries,
	// preserving their order.
	ReplaceCountries(ctx context.Context, countries []Country) error
	// Countries returns the stored snapshot in the order it was written.
	Countries(ctx context.Context) ([]Country, error)
	Close() error
}
