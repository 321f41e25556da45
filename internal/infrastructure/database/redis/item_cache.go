package redis

import (
	"context"
	"time"

	"github.com/turtacn/ClaimBridge/internal/domain/item"
	"github.com/turtacn/ClaimBridge/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClaimBridge/internal/infrastructure/monitoring/prometheus"
)

const (
	itemKeyPrefix = "item:"
	itemCacheName = "items"
	itemTTL       = 10 * time.Minute
)

// cachedItemRepo decorates an item.Repository with a read-through cache on
// single-item lookups.  Every mutation invalidates the cached entry; list
// queries always hit the store because their filters vary.
type cachedItemRepo struct {
	inner   item.Repository
	cache   Cache
	logger  logging.Logger
	metrics *prometheus.AppMetrics
}

// NewCachedItemRepo wraps inner with the item cache.  metrics may be nil.
func NewCachedItemRepo(inner item.Repository, cache Cache, log logging.Logger, metrics *prometheus.AppMetrics) item.Repository {
	return &cachedItemRepo{inner: inner, cache: cache, logger: log, metrics: metrics}
}

func (r *cachedItemRepo) key(id string) string {
	return itemKeyPrefix + id
}

func (r *cachedItemRepo) invalidate(ctx context.Context, id string) {
	if err := r.cache.Delete(ctx, r.key(id)); err != nil {
		r.logger.Warn("item cache invalidation failed",
			logging.String("item_id", id), logging.Err(err))
	}
}

func (r *cachedItemRepo) Create(ctx context.Context, it *item.Item) error {
	return r.inner.Create(ctx, it)
}

func (r *cachedItemRepo) Get(ctx context.Context, id string) (*item.Item, error) {
	var it item.Item
	missed := false
	err := r.cache.GetOrSet(ctx, r.key(id), &it, itemTTL, func(ctx context.Context) (interface{}, error) {
		missed = true
		return r.inner.Get(ctx, id)
	})
	prometheus.RecordCacheAccess(r.metrics, itemCacheName, !missed)
	if err == ErrCacheMiss {
		// Negative entry cached by an earlier lookup.
		return r.inner.Get(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *cachedItemRepo) List(ctx context.Context, opts ...item.QueryOption) ([]*item.Item, int64, error) {
	return r.inner.List(ctx, opts...)
}

func (r *cachedItemRepo) Update(ctx context.Context, it *item.Item) error {
	if err := r.inner.Update(ctx, it); err != nil {
		return err
	}
	r.invalidate(ctx, it.ID)
	return nil
}

func (r *cachedItemRepo) AttachClaim(ctx context.Context, itemID, claimID string) error {
	if err := r.inner.AttachClaim(ctx, itemID, claimID); err != nil {
		return err
	}
	r.invalidate(ctx, itemID)
	return nil
}

func (r *cachedItemRepo) MarkClaimed(ctx context.Context, itemID, approvedClaimID string, fromStatuses []item.Status) (bool, error) {
	won, err := r.inner.MarkClaimed(ctx, itemID, approvedClaimID, fromStatuses)
	if err != nil {
		return false, err
	}
	if won {
		r.invalidate(ctx, itemID)
	}
	return won, nil
}

func (r *cachedItemRepo) ReleaseClaim(ctx context.Context, itemID, approvedClaimID string) error {
	if err := r.inner.ReleaseClaim(ctx, itemID, approvedClaimID); err != nil {
		return err
	}
	r.invalidate(ctx, itemID)
	return nil
}

func (r *cachedItemRepo) ResetToUnclaimed(ctx context.Context, itemID string) error {
	if err := r.inner.ResetToUnclaimed(ctx, itemID); err != nil {
		return err
	}
	r.invalidate(ctx, itemID)
	return nil
}

func (r *cachedItemRepo) Delete(ctx context.Context, id string) error {
	if err := r.inner.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}
