package claims

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ClaimBridge/internal/domain/claim"
	"github.com/turtacn/ClaimBridge/internal/domain/item"
	"github.com/turtacn/ClaimBridge/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/ClaimBridge/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClaimBridge/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ClaimBridge/pkg/errors"
)

type fixture struct {
	items    *memItemRepo
	claims   *memClaimRepo
	messages *memMessageRepo
	notifs   *memNotifRepo
	events   *memPublisher
	svc      Service
}

func newFixture(t *testing.T, opts ...ServiceOption) *fixture {
	t.Helper()
	f := &fixture{
		items:    newMemItemRepo(),
		claims:   newMemClaimRepo(),
		messages: &memMessageRepo{},
		notifs:   &memNotifRepo{},
		events:   &memPublisher{},
	}
	d := NewDispatcher(DispatcherConfig{
		AdminID:           "admin-1",
		MobileMoneyNumber: "0772000000",
		BankAccount:       "0011223344",
	}, f.messages, f.notifs, logging.NewNopLogger())
	f.svc = NewService(f.items, f.claims, d, f.events, logging.NewNopLogger(), opts...)
	return f
}

func (f *fixture) seedItem(t *testing.T) *item.Item {
	t.Helper()
	it, err := item.New("black wallet", item.CategoryOtherItems,
		"leather bifold wallet",
		"Kampala Road",
		"Serial ABC123, red case",
		time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		"finder-1")
	assert.NoError(t, err)
	assert.NoError(t, f.items.Create(context.Background(), it))
	return it
}

// submitInput passes every eligibility rule against the seeded item, so a
// submission built from it is approved on the spot.
func submitInput(itemID, claimant string) *SubmitInput {
	return &SubmitInput{
		ItemID:                itemID,
		ClaimantID:            claimant,
		ClaimantEmail:         "a@b.com",
		IdentificationDetails: "lost it near the taxi park",
		UniqueIdentifiers:     "ABC123",
		LocationLost:          "Kampala",
		DateLost:              time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		ContactInfo:           "0772111222",
		DeliveryRegion:        "Central",
		DeliveryDistrict:      "Kampala",
	}
}

// manualInput fails the identifier rule, so the claim stays pending for an
// admin to adjudicate.
func manualInput(itemID, claimant string) *SubmitInput {
	in := submitInput(itemID, claimant)
	in.UniqueIdentifiers = "blue sticker on the back"
	return in
}

func TestSubmitCreatesPendingClaim(t *testing.T) {
	f := newFixture(t)
	it := f.seedItem(t)
	ctx := context.Background()

	res, err := f.svc.Submit(ctx, manualInput(it.ID, "user-1"))
	assert.NoError(t, err)
	assert.Equal(t, DecisionManualReview, res.Evaluation.Decision)
	assert.Equal(t, claim.StatusPending, res.Claim.Status)
	assert.Equal(t, int64(8000), res.Claim.DeliveryFee)
	assert.False(t, res.Claim.CanReclaim)

	got, err := f.items.Get(ctx, it.ID)
	assert.NoError(t, err)
	assert.Equal(t, item.StatusPendingClaim, got.Status)
	assert.Contains(t, got.ClaimIDs, res.Claim.ID)

	// Admin notification raised and submission event published.
	assert.Len(t, f.notifs.notifs, 1)
	assert.False(t, f.notifs.notifs[0].Read)
	assert.Contains(t, f.events.topics(), kafka.TopicClaimSubmitted)
}

func TestSubmitEligibleClaimIsApprovedImmediately(t *testing.T) {
	f := newFixture(t)
	it := f.seedItem(t)
	ctx := context.Background()

	res, err := f.svc.Submit(ctx, submitInput(it.ID, "user-1"))
	assert.NoError(t, err)
	assert.Equal(t, DecisionAutoApprove, res.Evaluation.Decision)
	assert.Empty(t, res.Evaluation.Reason)
	assert.Equal(t, claim.StatusApproved, res.Claim.Status)
	assert.False(t, res.Claim.CanReclaim)
	assert.NotNil(t, res.Claim.ActionedAt)

	gotItem, err := f.items.Get(ctx, it.ID)
	assert.NoError(t, err)
	assert.Equal(t, item.StatusClaimed, gotItem.Status)
	assert.Equal(t, res.Claim.ID, *gotItem.ApprovedClaimID)

	// The claimant gets the approval message straight away.
	assert.Len(t, f.messages.byType(string(DispatchApprove)), 1)
	assert.Contains(t, f.events.topics(), kafka.TopicClaimSubmitted)
	assert.Contains(t, f.events.topics(), kafka.TopicClaimApproved)
}

func TestSubmitAutoApprovalRejectsEarlierPendingClaims(t *testing.T) {
	f := newFixture(t)
	it := f.seedItem(t)
	ctx := context.Background()

	loser, err := f.svc.Submit(ctx, manualInput(it.ID, "user-1"))
	assert.NoError(t, err)

	winner, err := f.svc.Submit(ctx, submitInput(it.ID, "user-2"))
	assert.NoError(t, err)
	assert.Equal(t, claim.StatusApproved, winner.Claim.Status)

	c, err := f.claims.Get(ctx, loser.Claim.ID)
	assert.NoError(t, err)
	assert.Equal(t, claim.StatusRejected, c.Status)
	assert.True(t, c.CanReclaim)
	assert.Len(t, f.messages.byType(string(DispatchReject)), 1)
}

func TestSubmitMalformedEmailGoesToManualReview(t *testing.T) {
	f := newFixture(t)
	it := f.seedItem(t)

	in := submitInput(it.ID, "user-1")
	in.ClaimantEmail = "not-an-email"
	res, err := f.svc.Submit(context.Background(), in)
	assert.NoError(t, err)
	assert.Equal(t, DecisionManualReview, res.Evaluation.Decision)
	assert.Equal(t, claim.StatusPending, res.Claim.Status)
}

func TestSubmitDateAfterFoundGoesToManualReview(t *testing.T) {
	f := newFixture(t)
	it := f.seedItem(t)

	in := submitInput(it.ID, "user-1")
	in.DateLost = time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)
	res, err := f.svc.Submit(context.Background(), in)
	assert.NoError(t, err)
	assert.Equal(t, DecisionManualReview, res.Evaluation.Decision)
	assert.Equal(t, claim.StatusPending, res.Claim.Status)
}

func TestSubmitUnknownRegionFailsBeforePersistence(t *testing.T) {
	f := newFixture(t)
	it := f.seedItem(t)

	in := submitInput(it.ID, "user-1")
	in.DeliveryRegion = "Atlantis"
	_, err := f.svc.Submit(context.Background(), in)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidRegion))
	assert.Empty(t, f.claims.claims)
	assert.Empty(t, f.notifs.notifs)
}

func TestSubmitOnClaimedItemFails(t *testing.T) {
	f := newFixture(t)
	it := f.seedItem(t)
	ctx := context.Background()

	first, err := f.svc.Submit(ctx, submitInput(it.ID, "user-1"))
	assert.NoError(t, err)
	assert.Equal(t, claim.StatusApproved, first.Claim.Status)

	_, err = f.svc.Submit(ctx, submitInput(it.ID, "user-2"))
	assert.True(t, errors.IsCode(err, errors.ErrCodeItemAlreadyClaimed))
}

func TestApproveCascadesRejections(t *testing.T) {
	f := newFixture(t)
	it := f.seedItem(t)
	ctx := context.Background()

	winner, err := f.svc.Submit(ctx, manualInput(it.ID, "user-1"))
	assert.NoError(t, err)
	loserA, err := f.svc.Submit(ctx, manualInput(it.ID, "user-2"))
	assert.NoError(t, err)
	loserB, err := f.svc.Submit(ctx, manualInput(it.ID, "user-3"))
	assert.NoError(t, err)

	approved, err := f.svc.Approve(ctx, it.ID, winner.Claim.ID)
	assert.NoError(t, err)
	assert.Equal(t, claim.StatusApproved, approved.Status)
	assert.False(t, approved.CanReclaim)

	gotItem, err := f.items.Get(ctx, it.ID)
	assert.NoError(t, err)
	assert.Equal(t, item.StatusClaimed, gotItem.Status)
	assert.Equal(t, winner.Claim.ID, *gotItem.ApprovedClaimID)
	assert.NotNil(t, gotItem.ApprovedAt)

	for _, loser := range []string{loserA.Claim.ID, loserB.Claim.ID} {
		c, err := f.claims.Get(ctx, loser)
		assert.NoError(t, err)
		assert.Equal(t, claim.StatusRejected, c.Status)
		assert.True(t, c.CanReclaim)
	}

	// One approval message for the winner, one rejection per loser.
	assert.Len(t, f.messages.byType(string(DispatchApprove)), 1)
	assert.Len(t, f.messages.byType(string(DispatchReject)), 2)
}

func TestApproveMessageIncludesFeeAndPaymentChannels(t *testing.T) {
	f := newFixture(t)
	it := f.seedItem(t)
	ctx := context.Background()

	res, err := f.svc.Submit(ctx, manualInput(it.ID, "user-1"))
	assert.NoError(t, err)
	_, err = f.svc.Approve(ctx, it.ID, res.Claim.ID)
	assert.NoError(t, err)

	msgs := f.messages.byType(string(DispatchApprove))
	assert.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Content, "8000")
	assert.Contains(t, msgs[0].Content, "0772000000")
	assert.Contains(t, msgs[0].Content, "0011223344")
	assert.Equal(t, "user-1", msgs[0].RecipientID)
	assert.Equal(t, "admin-1", msgs[0].SenderID)
}

func TestDoubleApproveFails(t *testing.T) {
	f := newFixture(t)
	it := f.seedItem(t)
	ctx := context.Background()

	first, err := f.svc.Submit(ctx, manualInput(it.ID, "user-1"))
	assert.NoError(t, err)
	second, err := f.svc.Submit(ctx, manualInput(it.ID, "user-2"))
	assert.NoError(t, err)

	_, err = f.svc.Approve(ctx, it.ID, first.Claim.ID)
	assert.NoError(t, err)

	// Same claim again: already finalized.
	_, err = f.svc.Approve(ctx, it.ID, first.Claim.ID)
	assert.True(t, errors.IsCode(err, errors.ErrCodeClaimAlreadyFinalized))

	// Competing claim was cascade-rejected, so it is finalized too.
	_, err = f.svc.Approve(ctx, it.ID, second.Claim.ID)
	assert.True(t, errors.IsCode(err, errors.ErrCodeClaimAlreadyFinalized))
}

func TestApproveLosesRaceOnClaimedItem(t *testing.T) {
	f := newFixture(t)
	it := f.seedItem(t)
	ctx := context.Background()

	res, err := f.svc.Submit(ctx, manualInput(it.ID, "user-1"))
	assert.NoError(t, err)

	// Another adjudicator claimed the item between load and apply.
	won, err := f.items.MarkClaimed(ctx, it.ID, "other-claim",
		[]item.Status{item.StatusPendingClaim, item.StatusUnclaimed})
	assert.NoError(t, err)
	assert.True(t, won)

	_, err = f.svc.Approve(ctx, it.ID, res.Claim.ID)
	assert.True(t, errors.IsCode(err, errors.ErrCodeItemAlreadyClaimed))
}

func TestApproveRevertsItemWhenClaimFinalizedConcurrently(t *testing.T) {
	f := newFixture(t)
	it := f.seedItem(t)
	ctx := context.Background()

	res, err := f.svc.Submit(ctx, manualInput(it.ID, "user-1"))
	assert.NoError(t, err)

	// A competing rejection lands after the item update but before the
	// claim row is finalized.
	f.claims.beforeFinalize = func(id string) {
		f.claims.beforeFinalize = nil
		now := time.Now().UTC()
		f.claims.mu.Lock()
		c := f.claims.claims[id]
		c.Status = claim.StatusRejected
		c.CanReclaim = true
		c.ActionedAt = &now
		f.claims.mu.Unlock()
	}

	_, err = f.svc.Approve(ctx, it.ID, res.Claim.ID)
	assert.True(t, errors.IsCode(err, errors.ErrCodeClaimAlreadyFinalized))

	// The item update was rolled back, not left pointing at a rejected claim.
	gotItem, err := f.items.Get(ctx, it.ID)
	assert.NoError(t, err)
	assert.Equal(t, item.StatusPendingClaim, gotItem.Status)
	assert.Nil(t, gotItem.ApprovedClaimID)

	c, err := f.claims.Get(ctx, res.Claim.ID)
	assert.NoError(t, err)
	assert.Equal(t, claim.StatusRejected, c.Status)
	assert.Empty(t, f.messages.byType(string(DispatchApprove)))
}

func TestApprovePartialCascadeSurfaced(t *testing.T) {
	f := newFixture(t)
	it := f.seedItem(t)
	ctx := context.Background()

	winner, err := f.svc.Submit(ctx, manualInput(it.ID, "user-1"))
	assert.NoError(t, err)
	loser, err := f.svc.Submit(ctx, manualInput(it.ID, "user-2"))
	assert.NoError(t, err)

	f.claims.finalizeErrFor[loser.Claim.ID] =
		errors.New(errors.ErrCodeDatabaseError, "write failed")

	approved, err := f.svc.Approve(ctx, it.ID, winner.Claim.ID)
	assert.True(t, errors.IsCode(err, errors.ErrCodePartialCascade))
	// The approval itself held.
	assert.NotNil(t, approved)
	assert.Equal(t, claim.StatusApproved, approved.Status)
}

func TestApproveSurvivesDispatchFailure(t *testing.T) {
	f := newFixture(t)
	it := f.seedItem(t)
	ctx := context.Background()

	res, err := f.svc.Submit(ctx, manualInput(it.ID, "user-1"))
	assert.NoError(t, err)

	f.messages.failNext = errors.New(errors.ErrCodeDatabaseError, "message store down")
	approved, err := f.svc.Approve(ctx, it.ID, res.Claim.ID)
	assert.NoError(t, err)
	assert.Equal(t, claim.StatusApproved, approved.Status)
}

func TestRejectLastPendingResetsItem(t *testing.T) {
	f := newFixture(t)
	it := f.seedItem(t)
	ctx := context.Background()

	res, err := f.svc.Submit(ctx, manualInput(it.ID, "user-1"))
	assert.NoError(t, err)

	rejected, err := f.svc.Reject(ctx, it.ID, res.Claim.ID)
	assert.NoError(t, err)
	assert.Equal(t, claim.StatusRejected, rejected.Status)
	assert.True(t, rejected.CanReclaim)

	gotItem, err := f.items.Get(ctx, it.ID)
	assert.NoError(t, err)
	assert.Equal(t, item.StatusUnclaimed, gotItem.Status)
	assert.Empty(t, gotItem.ClaimIDs)

	assert.Len(t, f.messages.byType(string(DispatchReject)), 1)
	assert.Contains(t, f.events.topics(), kafka.TopicClaimRejected)
}

func TestRejectWithOtherPendingKeepsItemPending(t *testing.T) {
	f := newFixture(t)
	it := f.seedItem(t)
	ctx := context.Background()

	first, err := f.svc.Submit(ctx, manualInput(it.ID, "user-1"))
	assert.NoError(t, err)
	_, err = f.svc.Submit(ctx, manualInput(it.ID, "user-2"))
	assert.NoError(t, err)

	_, err = f.svc.Reject(ctx, it.ID, first.Claim.ID)
	assert.NoError(t, err)

	gotItem, err := f.items.Get(ctx, it.ID)
	assert.NoError(t, err)
	assert.Equal(t, item.StatusPendingClaim, gotItem.Status)
	assert.Len(t, gotItem.ClaimIDs, 2)
}

func TestRejectFinalizedClaimFails(t *testing.T) {
	f := newFixture(t)
	it := f.seedItem(t)
	ctx := context.Background()

	res, err := f.svc.Submit(ctx, manualInput(it.ID, "user-1"))
	assert.NoError(t, err)
	_, err = f.svc.Reject(ctx, it.ID, res.Claim.ID)
	assert.NoError(t, err)

	_, err = f.svc.Reject(ctx, it.ID, res.Claim.ID)
	assert.True(t, errors.IsCode(err, errors.ErrCodeClaimAlreadyFinalized))
}

func TestAdditionalActionOnApprovedClaim(t *testing.T) {
	f := newFixture(t)
	it := f.seedItem(t)
	ctx := context.Background()

	res, err := f.svc.Submit(ctx, submitInput(it.ID, "user-1"))
	assert.NoError(t, err)
	assert.Equal(t, claim.StatusApproved, res.Claim.Status)

	c, err := f.svc.AdditionalAction(ctx, res.Claim.ID, claim.ActionPaymentReminder)
	assert.NoError(t, err)
	assert.Equal(t, claim.StatusApproved, c.Status)
	assert.Equal(t, claim.ActionPaymentReminder, *c.LastAction)
	assert.NotNil(t, c.LastActionAt)

	assert.Len(t, f.messages.byType(string(DispatchPaymentReminder)), 1)
	assert.Contains(t, f.events.topics(), kafka.TopicClaimAction)
}

func TestAdditionalActionStatusGating(t *testing.T) {
	f := newFixture(t)
	it := f.seedItem(t)
	ctx := context.Background()

	res, err := f.svc.Submit(ctx, manualInput(it.ID, "user-1"))
	assert.NoError(t, err)

	// Payment actions need an approved claim.
	_, err = f.svc.AdditionalAction(ctx, res.Claim.ID, claim.ActionPaymentReceived)
	assert.True(t, errors.IsCode(err, errors.ErrCodeClaimInvalidAction))

	// Verification requests only apply while pending.
	c, err := f.svc.AdditionalAction(ctx, res.Claim.ID, claim.ActionVerificationNeeded)
	assert.NoError(t, err)
	assert.Equal(t, claim.StatusPending, c.Status)

	_, err = f.svc.AdditionalAction(ctx, res.Claim.ID, claim.Action("smoke_signal"))
	assert.True(t, errors.IsCode(err, errors.ErrCodeClaimInvalidAction))
}

func TestDeleteItemRemovesClaimsFirst(t *testing.T) {
	f := newFixture(t)
	it := f.seedItem(t)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, manualInput(it.ID, "user-1"))
	assert.NoError(t, err)
	_, err = f.svc.Submit(ctx, manualInput(it.ID, "user-2"))
	assert.NoError(t, err)

	assert.NoError(t, f.svc.DeleteItem(ctx, it.ID))

	assert.Empty(t, f.claims.claims)
	_, err = f.items.Get(ctx, it.ID)
	assert.True(t, errors.IsCode(err, errors.ErrCodeItemNotFound))
	assert.Contains(t, f.events.topics(), kafka.TopicItemDeleted)
}

func TestEvaluateClaimOnDemand(t *testing.T) {
	f := newFixture(t)
	it := f.seedItem(t)
	ctx := context.Background()

	in := submitInput(it.ID, "user-1")
	in.UniqueIdentifiers = "totally different thing"
	res, err := f.svc.Submit(ctx, in)
	assert.NoError(t, err)

	ev, err := f.svc.EvaluateClaim(ctx, res.Claim.ID)
	assert.NoError(t, err)
	assert.Equal(t, DecisionManualReview, ev.Decision)
	assert.NotEmpty(t, ev.Reason)
}

func TestLifecycleRecordsMetrics(t *testing.T) {
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace: "claimbridge",
	}, logging.NewNopLogger())
	require.NoError(t, err)
	m := prometheus.NewAppMetrics(collector)

	f := newFixture(t, WithMetrics(m))
	it := f.seedItem(t)
	ctx := context.Background()

	winner, err := f.svc.Submit(ctx, manualInput(it.ID, "user-1"))
	assert.NoError(t, err)
	_, err = f.svc.Submit(ctx, manualInput(it.ID, "user-2"))
	assert.NoError(t, err)
	_, err = f.svc.Approve(ctx, it.ID, winner.Claim.ID)
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	collector.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	out := w.Body.String()

	assert.Contains(t, out, `claimbridge_claims_submitted_total{decision="manual_review"} 2`)
	assert.Contains(t, out, `claimbridge_eligibility_decisions_total{decision="manual_review"`)
	assert.Contains(t, out, `claimbridge_claim_transitions_total{to_status="approved"} 1`)
	assert.Contains(t, out, `claimbridge_claim_transitions_total{to_status="rejected"} 1`)
	assert.Contains(t, out, `claimbridge_cascade_rejections_total 1`)
	assert.Contains(t, out, `claimbridge_dispatch_total{type="approve"} 1`)
	assert.Contains(t, out, `claimbridge_dispatch_total{type="reject"} 1`)
}
