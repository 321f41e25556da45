// Package claims is the application service for claim adjudication: it owns
// the item/claim state machine, the eligibility rules applied at submission,
// and the fan-out of messages and events each transition produces.
package claims

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/turtacn/ClaimBridge/internal/domain/claim"
	"github.com/turtacn/ClaimBridge/internal/domain/delivery"
	"github.com/turtacn/ClaimBridge/internal/domain/item"
	"github.com/turtacn/ClaimBridge/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/ClaimBridge/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClaimBridge/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ClaimBridge/pkg/errors"
)

// Service is the authoritative state machine for item and claim statuses.
// Every transition here enforces the single-approved-claim invariant.
type Service interface {
	Submit(ctx context.Context, input *SubmitInput) (*SubmitResult, error)
	Approve(ctx context.Context, itemID, claimID string) (*claim.Claim, error)
	Reject(ctx context.Context, itemID, claimID string) (*claim.Claim, error)
	AdditionalAction(ctx context.Context, claimID string, action claim.Action) (*claim.Claim, error)
	DeleteItem(ctx context.Context, itemID string) error
	GetClaim(ctx context.Context, id string) (*claim.Claim, error)
	ListByItem(ctx context.Context, itemID string) ([]*claim.Claim, error)
	ListByClaimant(ctx context.Context, claimantID string) ([]*claim.Claim, error)
	EvaluateClaim(ctx context.Context, claimID string) (*Evaluation, error)
}

// SubmitInput carries the claimant-supplied fields of a new claim.
type SubmitInput struct {
	ItemID                string
	ClaimantID            string
	ClaimantEmail         string
	IdentificationDetails string
	UniqueIdentifiers     string
	LocationLost          string
	DateLost              time.Time
	ContactInfo           string
	DeliveryRegion        string
	DeliveryDistrict      string
	Notes                 string
}

// SubmitResult is the persisted claim plus its eligibility evaluation.  When
// the decision is auto_approve the claim comes back already approved and the
// item claimed; on manual_review it stays pending for an admin.
type SubmitResult struct {
	Claim      *claim.Claim `json:"claim"`
	Evaluation Evaluation   `json:"evaluation"`
}

type service struct {
	items      item.Repository
	claims     claim.Repository
	dispatcher Dispatcher
	events     EventPublisher
	logger     logging.Logger
	metrics    *prometheus.AppMetrics
}

// ServiceOption configures optional service collaborators.
type ServiceOption func(*service)

// WithMetrics attaches application metrics to the lifecycle service.
func WithMetrics(m *prometheus.AppMetrics) ServiceOption {
	return func(s *service) { s.metrics = m }
}

// NewService wires the lifecycle state machine.  events may be nil when no
// broker is configured; publishing is best effort either way.
func NewService(items item.Repository, claims claim.Repository, d Dispatcher, events EventPublisher, logger logging.Logger, opts ...ServiceOption) Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	s := &service{
		items:      items,
		claims:     claims,
		dispatcher: d,
		events:     events,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Submit(ctx context.Context, input *SubmitInput) (*SubmitResult, error) {
	sub := claim.Submission{
		ItemID:                input.ItemID,
		ClaimantID:            input.ClaimantID,
		ClaimantEmail:         input.ClaimantEmail,
		IdentificationDetails: input.IdentificationDetails,
		UniqueIdentifiers:     input.UniqueIdentifiers,
		LocationLost:          input.LocationLost,
		DateLost:              input.DateLost,
		ContactInfo:           input.ContactInfo,
		DeliveryRegion:        input.DeliveryRegion,
		DeliveryDistrict:      input.DeliveryDistrict,
		Notes:                 input.Notes,
	}
	if err := sub.Validate(); err != nil {
		return nil, errors.Validation(err.Error())
	}

	fee, err := delivery.Fee(input.DeliveryRegion, input.DeliveryDistrict)
	if err != nil {
		return nil, err
	}

	it, err := s.items.Get(ctx, input.ItemID)
	if err != nil {
		return nil, err
	}
	if !it.Claimable() {
		return nil, errors.New(errors.ErrCodeItemAlreadyClaimed, "item already has an approved claim").
			WithDetail(it.ID)
	}

	c, err := claim.New(sub, fee)
	if err != nil {
		return nil, errors.Validation(err.Error())
	}

	if err := s.claims.Create(ctx, c); err != nil {
		return nil, err
	}
	if err := s.items.AttachClaim(ctx, it.ID, c.ID); err != nil {
		// The claim row exists but never joined the item's claim list.
		// Remove it so the submission is not partially applied.
		if delErr := s.claims.Delete(ctx, c.ID); delErr != nil {
			s.logger.Warn("orphan claim cleanup failed",
				logging.String("claim_id", c.ID), logging.Err(delErr))
		}
		return nil, err
	}

	ev := Evaluate(c, it)
	prometheus.RecordClaimSubmitted(s.metrics, string(ev.Decision))
	prometheus.RecordEligibility(s.metrics, string(ev.Decision), ev.Reason)

	if _, err := s.dispatcher.NotifyNewClaim(ctx, c, it); err != nil {
		s.logger.Warn("admin notification failed",
			logging.String("claim_id", c.ID), logging.Err(err))
	}
	s.publish(ctx, kafka.TopicClaimSubmitted, c, string(claim.StatusPending), "")

	s.logger.Info("claim submitted",
		logging.String("claim_id", c.ID),
		logging.String("item_id", it.ID),
		logging.String("decision", string(ev.Decision)))

	if ev.Decision == DecisionAutoApprove {
		if err := s.finalizeApproval(ctx, c, it); err != nil {
			switch {
			case errors.IsCode(err, errors.ErrCodePartialCascade):
				// The approval itself held; the stragglers are already
				// logged and counted.
				s.logger.Warn("auto-approval cascade incomplete",
					logging.String("claim_id", c.ID), logging.Err(err))
			default:
				// Lost a race with a concurrent adjudication.  The claim
				// stays pending for an admin to resolve.
				s.logger.Warn("auto-approval not applied",
					logging.String("claim_id", c.ID), logging.Err(err))
			}
		}
	}

	return &SubmitResult{Claim: c, Evaluation: ev}, nil
}

func (s *service) Approve(ctx context.Context, itemID, claimID string) (*claim.Claim, error) {
	c, it, err := s.loadPair(ctx, itemID, claimID)
	if err != nil {
		return nil, err
	}
	if c.Status.Terminal() {
		return nil, errors.New(errors.ErrCodeClaimAlreadyFinalized, "claim already finalized").
			WithDetail(string(c.Status))
	}
	if err := s.finalizeApproval(ctx, c, it); err != nil {
		if errors.IsCode(err, errors.ErrCodePartialCascade) {
			return c, err
		}
		return nil, err
	}
	return c, nil
}

// finalizeApproval drives the approval transition shared by Approve and the
// auto-adjudication path in Submit: claim the item, finalize the winning
// claim, cascade-reject the siblings, then dispatch the approval message.
// On success c is updated in place.
func (s *service) finalizeApproval(ctx context.Context, c *claim.Claim, it *item.Item) error {
	now := time.Now().UTC()

	// The item row is the mutual-exclusion point: the conditional update
	// succeeds for exactly one of two racing approvals.
	won, err := s.items.MarkClaimed(ctx, it.ID, c.ID,
		[]item.Status{item.StatusPendingClaim, item.StatusUnclaimed})
	if err != nil {
		return err
	}
	if !won {
		return errors.New(errors.ErrCodeItemAlreadyClaimed, "item was claimed concurrently").
			WithDetail(it.ID)
	}

	applied, err := s.claims.Finalize(ctx, c.ID, claim.StatusApproved, false, now)
	if err != nil || !applied {
		// The claim was finalized out from under us after the item update
		// went through.  Release the item so it does not stay claimed by a
		// claim that was never approved.
		s.releaseItem(ctx, it.ID, c.ID)
		if err != nil {
			return err
		}
		return errors.New(errors.ErrCodeClaimAlreadyFinalized, "claim finalized concurrently").
			WithDetail(c.ID)
	}
	c.Status = claim.StatusApproved
	c.CanReclaim = false
	c.ActionedAt = &now
	prometheus.RecordClaimTransition(s.metrics, string(claim.StatusApproved))

	if err := s.cascadeRejections(ctx, it, c.ID, now); err != nil {
		return err
	}

	_, derr := s.dispatcher.Dispatch(ctx, DispatchApprove, c, it)
	prometheus.RecordDispatch(s.metrics, string(DispatchApprove), derr)
	if derr != nil {
		s.logger.Warn("approval message dispatch failed",
			logging.String("claim_id", c.ID), logging.Err(derr))
	}
	s.publish(ctx, kafka.TopicClaimApproved, c, string(claim.StatusApproved), "")

	s.logger.Info("claim approved",
		logging.String("claim_id", c.ID),
		logging.String("item_id", it.ID))
	return nil
}

func (s *service) releaseItem(ctx context.Context, itemID, claimID string) {
	if err := s.items.ReleaseClaim(ctx, itemID, claimID); err != nil {
		s.logger.Error("item release after lost claim finalize failed",
			logging.String("item_id", itemID),
			logging.String("claim_id", claimID),
			logging.Err(err))
	}
}

// cascadeRejections rejects every other pending claim on the item and
// dispatches a rejection message for each.  The rejections run concurrently;
// a partial outcome is reported distinctly from a total one because it
// leaves some siblings still pending.
func (s *service) cascadeRejections(ctx context.Context, it *item.Item, approvedID string, now time.Time) error {
	siblings, err := s.claims.ListByItem(ctx, it.ID)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodePartialCascade, "approved, but sibling claims could not be listed")
	}

	var pending []*claim.Claim
	for _, sib := range siblings {
		if sib.ID != approvedID && sib.Status == claim.StatusPending {
			pending = append(pending, sib)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		failures []string
	)
	for _, sib := range pending {
		sib := sib
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.claims.Finalize(ctx, sib.ID, claim.StatusRejected, true, now); err != nil {
				mu.Lock()
				failures = append(failures, sib.ID)
				mu.Unlock()
				s.logger.Error("cascade rejection failed",
					logging.String("claim_id", sib.ID), logging.Err(err))
				return
			}
			sib.Status = claim.StatusRejected
			sib.CanReclaim = true
			sib.ActionedAt = &now
			prometheus.RecordClaimTransition(s.metrics, string(claim.StatusRejected))
			_, derr := s.dispatcher.Dispatch(ctx, DispatchReject, sib, it)
			prometheus.RecordDispatch(s.metrics, string(DispatchReject), derr)
			if derr != nil {
				s.logger.Warn("cascade rejection message dispatch failed",
					logging.String("claim_id", sib.ID), logging.Err(derr))
			}
			s.publish(ctx, kafka.TopicClaimRejected, sib, string(claim.StatusRejected), "")
		}()
	}
	wg.Wait()
	prometheus.RecordCascade(s.metrics, len(pending)-len(failures), len(failures))

	if len(failures) > 0 {
		return errors.New(errors.ErrCodePartialCascade,
			"approval applied but some competing claims were not rejected").
			WithDetail(strings.Join(failures, ", "))
	}
	return nil
}

func (s *service) Reject(ctx context.Context, itemID, claimID string) (*claim.Claim, error) {
	c, it, err := s.loadPair(ctx, itemID, claimID)
	if err != nil {
		return nil, err
	}
	if c.Status.Terminal() {
		return nil, errors.New(errors.ErrCodeClaimAlreadyFinalized, "claim already finalized").
			WithDetail(string(c.Status))
	}

	now := time.Now().UTC()
	applied, err := s.claims.Finalize(ctx, c.ID, claim.StatusRejected, true, now)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, errors.New(errors.ErrCodeClaimAlreadyFinalized, "claim finalized concurrently").
			WithDetail(c.ID)
	}
	c.Status = claim.StatusRejected
	c.CanReclaim = true
	c.ActionedAt = &now
	prometheus.RecordClaimTransition(s.metrics, string(claim.StatusRejected))

	remaining, err := s.claims.CountPendingByItem(ctx, it.ID)
	if err != nil {
		s.logger.Error("pending count after rejection failed",
			logging.String("item_id", it.ID), logging.Err(err))
	} else if remaining == 0 && it.Status != item.StatusClaimed {
		// Last pending claim gone: the item goes back on the shelf with an
		// empty claim list, discarding historical claim references.
		if err := s.items.ResetToUnclaimed(ctx, it.ID); err != nil {
			s.logger.Error("item reset after rejection failed",
				logging.String("item_id", it.ID), logging.Err(err))
		}
	}

	_, derr := s.dispatcher.Dispatch(ctx, DispatchReject, c, it)
	prometheus.RecordDispatch(s.metrics, string(DispatchReject), derr)
	if derr != nil {
		s.logger.Warn("rejection message dispatch failed",
			logging.String("claim_id", c.ID), logging.Err(derr))
	}
	s.publish(ctx, kafka.TopicClaimRejected, c, string(claim.StatusRejected), "")

	s.logger.Info("claim rejected",
		logging.String("claim_id", c.ID),
		logging.String("item_id", it.ID))
	return c, nil
}

func (s *service) AdditionalAction(ctx context.Context, claimID string, action claim.Action) (*claim.Claim, error) {
	if !action.IsValid() {
		return nil, errors.New(errors.ErrCodeClaimInvalidAction, "unknown claim action").
			WithDetail(string(action))
	}

	c, err := s.claims.Get(ctx, claimID)
	if err != nil {
		return nil, err
	}
	it, err := s.items.Get(ctx, c.ItemID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := c.RecordAction(action, now); err != nil {
		return nil, errors.New(errors.ErrCodeClaimInvalidAction, err.Error())
	}
	if err := s.claims.RecordAction(ctx, c.ID, action, now); err != nil {
		return nil, err
	}

	_, derr := s.dispatcher.Dispatch(ctx, DispatchType(action), c, it)
	prometheus.RecordDispatch(s.metrics, string(action), derr)
	if derr != nil {
		s.logger.Warn("action message dispatch failed",
			logging.String("claim_id", c.ID),
			logging.String("action", string(action)),
			logging.Err(derr))
	}
	s.publish(ctx, kafka.TopicClaimAction, c, string(c.Status), string(action))

	return c, nil
}

func (s *service) DeleteItem(ctx context.Context, itemID string) error {
	it, err := s.items.Get(ctx, itemID)
	if err != nil {
		return err
	}

	// Claims go first.  If any remain the item must stay addressable, so the
	// caller can retry rather than being left with orphaned claims.
	deleted, err := s.claims.DeleteByItem(ctx, it.ID)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDanglingClaims, "claims could not be deleted before the item")
	}
	if err := s.items.Delete(ctx, it.ID); err != nil {
		return err
	}

	if s.events != nil {
		payload := kafka.ItemEventPayload{
			ItemID:     it.ID,
			Name:       it.Name,
			Category:   string(it.Category),
			Status:     string(it.Status),
			OccurredAt: time.Now().UTC(),
		}
		err := s.events.Publish(ctx, kafka.TopicItemDeleted, it.ID, payload)
		prometheus.RecordEventPublish(s.metrics, kafka.TopicItemDeleted, err)
		if err != nil {
			s.logger.Warn("item deletion event publish failed",
				logging.String("item_id", it.ID), logging.Err(err))
		}
	}

	s.logger.Info("item deleted with claims",
		logging.String("item_id", it.ID),
		logging.Int64("claims_deleted", deleted))
	return nil
}

func (s *service) GetClaim(ctx context.Context, id string) (*claim.Claim, error) {
	return s.claims.Get(ctx, id)
}

func (s *service) ListByItem(ctx context.Context, itemID string) ([]*claim.Claim, error) {
	return s.claims.ListByItem(ctx, itemID)
}

func (s *service) ListByClaimant(ctx context.Context, claimantID string) ([]*claim.Claim, error) {
	return s.claims.ListByClaimant(ctx, claimantID)
}

// EvaluateClaim re-runs the eligibility rules for an existing claim, used by
// admins reviewing a pending claim.
func (s *service) EvaluateClaim(ctx context.Context, claimID string) (*Evaluation, error) {
	c, err := s.claims.Get(ctx, claimID)
	if err != nil {
		return nil, err
	}
	it, err := s.items.Get(ctx, c.ItemID)
	if err != nil {
		return nil, err
	}
	ev := Evaluate(c, it)
	return &ev, nil
}

func (s *service) loadPair(ctx context.Context, itemID, claimID string) (*claim.Claim, *item.Item, error) {
	c, err := s.claims.Get(ctx, claimID)
	if err != nil {
		return nil, nil, err
	}
	if c.ItemID != itemID {
		return nil, nil, errors.New(errors.ErrCodeClaimNotFound, "claim does not belong to item").
			WithDetail(claimID)
	}
	it, err := s.items.Get(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}
	return c, it, nil
}

func (s *service) publish(ctx context.Context, topic string, c *claim.Claim, status, action string) {
	if s.events == nil {
		return
	}
	payload := kafka.ClaimEventPayload{
		ClaimID:    c.ID,
		ItemID:     c.ItemID,
		ClaimantID: c.ClaimantID,
		Status:     status,
		Action:     action,
		OccurredAt: time.Now().UTC(),
	}
	err := s.events.Publish(ctx, topic, c.ID, payload)
	prometheus.RecordEventPublish(s.metrics, topic, err)
	if err != nil {
		s.logger.Warn("event publish failed",
			logging.String("topic", topic),
			logging.String("claim_id", c.ID),
			logging.Err(err))
	}
}
