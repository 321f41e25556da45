package item

import "context"

// QueryOptions defines filtering and pagination for item queries.
type QueryOptions struct {
	Status   Status
	Category Category
	// Search matches a case-insensitive substring of name, details, or
	// location.  Relevance ranking is deliberately out of scope.
	Search string
	Limit  int
	Offset int
}

// QueryOption is a functional option for item queries.
type QueryOption func(*QueryOptions)

// WithStatus filters results to the given status.
func WithStatus(s Status) QueryOption {
	return func(o *QueryOptions) { o.Status = s }
}

// WithCategory filters results to the given category.
func WithCategory(c Category) QueryOption {
	return func(o *QueryOptions) { o.Category = c }
}

// WithSearch filters results by substring match.
func WithSearch(q string) QueryOption {
	return func(o *QueryOptions) { o.Search = q }
}

// WithLimit sets the page size.
func WithLimit(limit int) QueryOption {
	return func(o *QueryOptions) { o.Limit = limit }
}

// WithOffset sets the page offset.
func WithOffset(offset int) QueryOption {
	return func(o *QueryOptions) { o.Offset = offset }
}

// ApplyOptions applies the given options and clamps pagination bounds.
func ApplyOptions(opts ...QueryOption) QueryOptions {
	options := QueryOptions{Limit: 20}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Limit <= 0 {
		options.Limit = 20
	}
	if options.Limit > 100 {
		options.Limit = 100
	}
	if options.Offset < 0 {
		options.Offset = 0
	}
	return options
}

// Repository defines the persistence contract for items.  The backing store
// must support atomic single-row conditional updates; multi-row transactions
// are not assumed by callers.
type Repository interface {
	Create(ctx context.Context, it *Item) error
	Get(ctx context.Context, id string) (*Item, error)
	List(ctx context.Context, opts ...QueryOption) ([]*Item, int64, error)
	Update(ctx context.Context, it *Item) error

	// AttachClaim appends claimID to the item's claim list and moves the
	// item to pending_claim in one atomic update.  It fails when the item is
	// already claimed.
	AttachClaim(ctx context.Context, itemID, claimID string) error

	// MarkClaimed conditionally transitions the item to claimed, recording
	// the approved claim id and timestamp.  The update applies only while
	// the item's current status is one of fromStatuses; it returns false
	// (and no error) when the condition no longer holds, which callers
	// treat as a lost race.
	MarkClaimed(ctx context.Context, itemID, approvedClaimID string, fromStatuses []Status) (bool, error)

	// ReleaseClaim reverts a claimed item to pending_claim, clearing the
	// approved claim reference.  The update applies only while the item is
	// claimed with approvedClaimID recorded; zero rows is not an error, the
	// item was resolved some other way in the meantime.
	ReleaseClaim(ctx context.Context, itemID, approvedClaimID string) error

	// ResetToUnclaimed sets the item back to unclaimed and clears its claim
	// list.  Used when the last pending claim is rejected; the reset
	// deliberately empties historical claim references.
	ResetToUnclaimed(ctx context.Context, itemID string) error

	// Delete removes the item row.  Callers must have deleted the item's
	// claims first.
	Delete(ctx context.Context, id string) error
}
