package claim

import (
	"context"
	"time"
)

// Repository defines the persistence contract for claims.  It relies on the
// backing store's atomic single-row conditional updates; the pending→terminal
// transition is one-shot and must never be applied twice.
type Repository interface {
	Create(ctx context.Context, c *Claim) error
	Get(ctx context.Context, id string) (*Claim, error)
	ListByItem(ctx context.Context, itemID string) ([]*Claim, error)
	ListByClaimant(ctx context.Context, claimantID string) ([]*Claim, error)

	// Finalize conditionally moves a pending claim to the given terminal
	// status, setting canReclaim accordingly.  It returns false (and no
	// error) when the claim was not pending at apply time, which callers
	// treat as an already-finalized conflict.
	Finalize(ctx context.Context, id string, to Status, canReclaim bool, at time.Time) (bool, error)

	// RecordAction stamps a side-channel admin action tag and timestamp.
	RecordAction(ctx context.Context, id string, a Action, at time.Time) error

	// CountPendingByItem returns the number of pending claims on the item.
	CountPendingByItem(ctx context.Context, itemID string) (int64, error)

	// Delete removes one claim row; used to undo a half-applied submission.
	Delete(ctx context.Context, id string) error

	// DeleteByItem removes every claim referencing the item, returning the
	// number deleted.  Used by item deletion, which must clear claims first.
	DeleteByItem(ctx context.Context, itemID string) (int64, error)
}
