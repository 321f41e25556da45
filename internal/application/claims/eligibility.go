package claims

import (
	"regexp"

	"github.com/turtacn/ClaimBridge/internal/domain/claim"
	"github.com/turtacn/ClaimBridge/internal/domain/item"
	"github.com/turtacn/ClaimBridge/internal/domain/matching"
)

// Decision is the eligibility outcome for a newly submitted claim.
type Decision string

const (
	DecisionAutoApprove  Decision = "auto_approve"
	DecisionManualReview Decision = "manual_review"
)

// Evaluation carries the decision, the first rule that forced manual review,
// and the similarity breakdown for audit display.
type Evaluation struct {
	Decision Decision       `json:"decision"`
	Reason   string         `json:"reason"`
	Score    matching.Score `json:"score"`
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Evaluate applies the eligibility rules in order and returns the first
// failure as the reason.  A malformed claimant email routes to manual review
// rather than rejecting the submission.  Pure function, no persistence.
func Evaluate(c *claim.Claim, it *item.Item) Evaluation {
	ev := Evaluation{
		Score: matching.WeightedScore(
			matching.ItemAttributes{
				UniqueIdentifiers: it.UniqueIdentifiers,
				Location:          it.LocationFound,
				Category:          string(it.Category),
				DateFound:         it.DateFound,
			},
			matching.ClaimAttributes{
				UniqueIdentifiers: c.UniqueIdentifiers,
				Location:          c.LocationLost,
				Category:          string(it.Category),
				DateLost:          c.DateLost,
			},
		),
	}

	switch {
	case !emailPattern.MatchString(c.ClaimantEmail):
		ev.Reason = "claimant email is not a valid address"
	case !matching.ContainsFold(it.UniqueIdentifiers, c.UniqueIdentifiers):
		ev.Reason = "claimed identifiers do not appear in the item's recorded identifiers"
	case !matching.EitherContainsFold(it.LocationFound, c.LocationLost):
		ev.Reason = "claimed loss location does not match where the item was found"
	case c.DateLost.After(it.DateFound):
		ev.Reason = "claimed loss date is after the item was found"
	}

	if ev.Reason == "" {
		ev.Decision = DecisionAutoApprove
		return ev
	}
	ev.Decision = DecisionManualReview
	return ev
}
