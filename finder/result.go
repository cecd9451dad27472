package finder

// NoLimit marks an unbounded count or lookup limit.
const NoLimit = -1

// PagedResult is the outcome of one FindItems call.
type PagedResult[T any] struct {
	// Items are the matches in source order after paging.
	Items []T

	// Start is the number of matches skipped before Items.
	Start int

	// Count is the requested page size, or NoLimit.
	Count int

	// LookupLimit is the cap on scanned candidates, or NoLimit.
	LookupLimit int

	// Scanned is the number of prefiltered candidates read from the source.
	Scanned int

	// LookupLimitReached is set when candidates remained after LookupLimit
	// were scanned, so Items may be incomplete.
	LookupLimitReached bool
}

// Len returns the number of items.
func (r *PagedResult[T]) Len() int {
	return len(r.Items)
}
