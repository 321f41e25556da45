package claims

import (
	"context"
	"sync"
	"time"

	"github.com/turtacn/ClaimBridge/internal/domain/claim"
	"github.com/turtacn/ClaimBridge/internal/domain/item"
	"github.com/turtacn/ClaimBridge/internal/domain/message"
	"github.com/turtacn/ClaimBridge/pkg/errors"
)

// In-memory repositories backing the service tests.  All methods are
// mutex-guarded since the cascade runs concurrently.

type memItemRepo struct {
	mu    sync.Mutex
	items map[string]*item.Item
}

func newMemItemRepo() *memItemRepo {
	return &memItemRepo{items: make(map[string]*item.Item)}
}

func (r *memItemRepo) Create(ctx context.Context, it *item.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *it
	r.items[it.ID] = &cp
	return nil
}

func (r *memItemRepo) Get(ctx context.Context, id string) (*item.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeItemNotFound, "item not found").WithDetail(id)
	}
	cp := *it
	cp.ClaimIDs = append([]string(nil), it.ClaimIDs...)
	return &cp, nil
}

func (r *memItemRepo) List(ctx context.Context, opts ...item.QueryOption) ([]*item.Item, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*item.Item
	for _, it := range r.items {
		cp := *it
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

func (r *memItemRepo) Update(ctx context.Context, it *item.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *it
	r.items[it.ID] = &cp
	return nil
}

func (r *memItemRepo) AttachClaim(ctx context.Context, itemID, claimID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[itemID]
	if !ok {
		return errors.New(errors.ErrCodeItemNotFound, "item not found").WithDetail(itemID)
	}
	if it.Status == item.StatusClaimed {
		return errors.New(errors.ErrCodeItemAlreadyClaimed, "item already claimed")
	}
	it.ClaimIDs = append(it.ClaimIDs, claimID)
	it.Status = item.StatusPendingClaim
	return nil
}

func (r *memItemRepo) MarkClaimed(ctx context.Context, itemID, approvedClaimID string, fromStatuses []item.Status) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[itemID]
	if !ok {
		return false, errors.New(errors.ErrCodeItemNotFound, "item not found").WithDetail(itemID)
	}
	eligible := false
	for _, st := range fromStatuses {
		if it.Status == st {
			eligible = true
		}
	}
	if !eligible {
		return false, nil
	}
	now := time.Now().UTC()
	it.Status = item.StatusClaimed
	it.ApprovedClaimID = &approvedClaimID
	it.ApprovedAt = &now
	return true, nil
}

func (r *memItemRepo) ReleaseClaim(ctx context.Context, itemID, approvedClaimID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[itemID]
	if !ok {
		return errors.New(errors.ErrCodeItemNotFound, "item not found").WithDetail(itemID)
	}
	if it.Status != item.StatusClaimed || it.ApprovedClaimID == nil || *it.ApprovedClaimID != approvedClaimID {
		return nil
	}
	it.Status = item.StatusPendingClaim
	it.ApprovedClaimID = nil
	it.ApprovedAt = nil
	return nil
}

func (r *memItemRepo) ResetToUnclaimed(ctx context.Context, itemID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[itemID]
	if !ok {
		return errors.New(errors.ErrCodeItemNotFound, "item not found").WithDetail(itemID)
	}
	it.Status = item.StatusUnclaimed
	it.ClaimIDs = []string{}
	it.ApprovedClaimID = nil
	it.ApprovedAt = nil
	return nil
}

func (r *memItemRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return errors.New(errors.ErrCodeItemNotFound, "item not found").WithDetail(id)
	}
	delete(r.items, id)
	return nil
}

type memClaimRepo struct {
	mu     sync.Mutex
	claims map[string]*claim.Claim
	// finalizeErrFor fails Finalize for specific claim ids, to exercise
	// partial cascade outcomes.
	finalizeErrFor map[string]error
	// beforeFinalize runs at the start of each Finalize, outside the lock,
	// so tests can interleave a competing write into the race window.
	beforeFinalize func(id string)
}

func newMemClaimRepo() *memClaimRepo {
	return &memClaimRepo{
		claims:         make(map[string]*claim.Claim),
		finalizeErrFor: make(map[string]error),
	}
}

func (r *memClaimRepo) Create(ctx context.Context, c *claim.Claim) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.claims[c.ID] = &cp
	return nil
}

func (r *memClaimRepo) Get(ctx context.Context, id string) (*claim.Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.claims[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeClaimNotFound, "claim not found").WithDetail(id)
	}
	cp := *c
	return &cp, nil
}

func (r *memClaimRepo) ListByItem(ctx context.Context, itemID string) ([]*claim.Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*claim.Claim
	for _, c := range r.claims {
		if c.ItemID == itemID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memClaimRepo) ListByClaimant(ctx context.Context, claimantID string) ([]*claim.Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*claim.Claim
	for _, c := range r.claims {
		if c.ClaimantID == claimantID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memClaimRepo) Finalize(ctx context.Context, id string, to claim.Status, canReclaim bool, at time.Time) (bool, error) {
	if r.beforeFinalize != nil {
		r.beforeFinalize(id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.finalizeErrFor[id]; ok {
		return false, err
	}
	c, ok := r.claims[id]
	if !ok {
		return false, errors.New(errors.ErrCodeClaimNotFound, "claim not found").WithDetail(id)
	}
	if c.Status != claim.StatusPending {
		return false, nil
	}
	c.Status = to
	c.CanReclaim = canReclaim
	c.ActionedAt = &at
	return true, nil
}

func (r *memClaimRepo) RecordAction(ctx context.Context, id string, a claim.Action, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.claims[id]
	if !ok {
		return errors.New(errors.ErrCodeClaimNotFound, "claim not found").WithDetail(id)
	}
	c.LastAction = &a
	c.LastActionAt = &at
	return nil
}

func (r *memClaimRepo) CountPendingByItem(ctx context.Context, itemID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, c := range r.claims {
		if c.ItemID == itemID && c.Status == claim.StatusPending {
			n++
		}
	}
	return n, nil
}

func (r *memClaimRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.claims, id)
	return nil
}

func (r *memClaimRepo) DeleteByItem(ctx context.Context, itemID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, c := range r.claims {
		if c.ItemID == itemID {
			delete(r.claims, id)
			n++
		}
	}
	return n, nil
}

type memMessageRepo struct {
	mu       sync.Mutex
	messages []*message.Message
	failNext error
}

func (r *memMessageRepo) Create(ctx context.Context, m *message.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNext != nil {
		err := r.failNext
		return err
	}
	cp := *m
	r.messages = append(r.messages, &cp)
	return nil
}

func (r *memMessageRepo) Get(ctx context.Context, id string) (*message.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages {
		if m.ID == id {
			cp := *m
			return &cp, nil
		}
	}
	return nil, errors.NotFound("message not found")
}

func (r *memMessageRepo) ListByRecipient(ctx context.Context, recipientID string, limit, offset int) ([]*message.Message, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*message.Message
	for _, m := range r.messages {
		if m.RecipientID == recipientID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memMessageRepo) ListByClaim(ctx context.Context, claimID string) ([]*message.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*message.Message
	for _, m := range r.messages {
		if m.ClaimID == claimID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memMessageRepo) byType(mt string) []*message.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*message.Message
	for _, m := range r.messages {
		if m.MessageType == mt {
			out = append(out, m)
		}
	}
	return out
}

type memNotifRepo struct {
	mu     sync.Mutex
	notifs []*message.Notification
}

func (r *memNotifRepo) Create(ctx context.Context, n *message.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *n
	r.notifs = append(r.notifs, &cp)
	return nil
}

func (r *memNotifRepo) Get(ctx context.Context, id string) (*message.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notifs {
		if n.ID == id {
			cp := *n
			return &cp, nil
		}
	}
	return nil, errors.New(errors.ErrCodeNotificationNotFound, "notification not found")
}

func (r *memNotifRepo) ListUnread(ctx context.Context, limit, offset int) ([]*message.Notification, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*message.Notification
	for _, n := range r.notifs {
		if !n.Read {
			cp := *n
			out = append(out, &cp)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memNotifRepo) MarkRead(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notifs {
		if n.ID == id {
			n.MarkRead(time.Now().UTC())
			return nil
		}
	}
	return errors.New(errors.ErrCodeNotificationNotFound, "notification not found")
}

type publishedEvent struct {
	Topic string
	Key   string
}

type memPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *memPublisher) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Topic: topic, Key: key})
	return nil
}

func (p *memPublisher) topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.Topic)
	}
	return out
}
