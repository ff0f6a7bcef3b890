package core

import (
	"context"
	"io"
)

// Backend abstracts the external log store. All operations are read-only;
// the backend exposes no mutation capability.
type Backend interface {
	// ListUnits returns the units whose names match the given substring
	// filter, in the order the store reports them. An empty filter matches
	// every unit.
	ListUnits(ctx context.Context, filter string) ([]Unit, error)

	// QueryLast returns up to n of the most recent records for the unit,
	// in chronological order. Returns ErrUnitNotLogged when the unit has
	// no journal entries.
	QueryLast(ctx context.Context, unit string, n int) ([]Record, error)

	// Follow streams new records for the unit until ctx is cancelled.
	// The returned channel is closed when the stream ends.
	Follow(ctx context.Context, unit string) (<-chan Record, error)

	// QueryAll returns a lazy stream of every record for the unit, for
	// operator-driven paging. The caller must close the reader.
	QueryAll(ctx context.Context, unit string) (io.ReadCloser, error)

	// ControlStatus reports the unit's current discovery state.
	ControlStatus(ctx context.Context, unit string) (State, error)
}
