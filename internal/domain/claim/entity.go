// Package claim holds the ownership-claim aggregate and its persistence
// contract.
package claim

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status is the adjudication state of a claim.  pending is the only
// non-terminal state; approved and rejected are terminal.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// IsValid reports whether the status is one of the known values.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	default:
		return false
	}
}

// Terminal reports whether the status admits no further adjudication.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Action is a side-channel admin action recorded on a claim without changing
// its adjudication status.
type Action string

const (
	ActionPaymentReminder    Action = "payment_reminder"
	ActionPaymentReceived    Action = "payment_received"
	ActionVerificationNeeded Action = "verification_needed"
	ActionDeliveryScheduled  Action = "delivery_scheduled"
)

// IsValid reports whether the action is one of the known tags.
func (a Action) IsValid() bool {
	switch a {
	case ActionPaymentReminder, ActionPaymentReceived, ActionVerificationNeeded, ActionDeliveryScheduled:
		return true
	default:
		return false
	}
}

// RequiredStatus returns the claim status the action is gated on.
// Payment and delivery actions only make sense on an approved claim;
// verification requests only on a pending one.
func (a Action) RequiredStatus() Status {
	if a == ActionVerificationNeeded {
		return StatusPending
	}
	return StatusApproved
}

// Claim is a user's assertion of ownership over an item, carrying proof
// details and delivery preferences.  DeliveryFee is computed once at
// submission and never recomputed afterwards.
type Claim struct {
	ID                    string     `json:"id"`
	ItemID                string     `json:"item_id"`
	ClaimantID            string     `json:"claimant_id"`
	ClaimantEmail         string     `json:"claimant_email"`
	IdentificationDetails string     `json:"identification_details"`
	UniqueIdentifiers     string     `json:"unique_identifiers"`
	LocationLost          string     `json:"location_lost"`
	DateLost              time.Time  `json:"date_lost"`
	ContactInfo           string     `json:"contact_info"`
	DeliveryRegion        string     `json:"delivery_region"`
	DeliveryDistrict      string     `json:"delivery_district"`
	DeliveryFee           int64      `json:"delivery_fee"`
	Notes                 string     `json:"notes,omitempty"`
	Status                Status     `json:"status"`
	CanReclaim            bool       `json:"can_reclaim"`
	LastAction            *Action    `json:"last_action,omitempty"`
	LastActionAt          *time.Time `json:"last_action_at,omitempty"`
	SubmittedAt           time.Time  `json:"submitted_at"`
	ActionedAt            *time.Time `json:"actioned_at,omitempty"`
}

// Submission carries the claimant-supplied fields of a new claim.
type Submission struct {
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

// Validate checks the submission's required fields before any persistence
// attempt.  Email shape is deliberately not validated here: a malformed
// email routes the claim to manual review instead of blocking submission.
func (s Submission) Validate() error {
	if s.ItemID == "" {
		return errors.New("item reference cannot be empty")
	}
	if s.ClaimantID == "" {
		return errors.New("claimant reference cannot be empty")
	}
	if s.IdentificationDetails == "" {
		return errors.New("identification details cannot be empty")
	}
	if s.DateLost.IsZero() {
		return errors.New("date lost cannot be zero")
	}
	if s.DeliveryRegion == "" || s.DeliveryDistrict == "" {
		return errors.New("delivery region and district are required")
	}
	return nil
}

// New constructs a pending Claim from a validated submission and the delivery
// fee computed for its region at submission time.
func New(s Submission, deliveryFee int64) (*Claim, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if deliveryFee <= 0 {
		return nil, errors.New("delivery fee must be positive")
	}

	return &Claim{
		ID:                    uuid.New().String(),
		ItemID:                s.ItemID,
		ClaimantID:            s.ClaimantID,
		ClaimantEmail:         s.ClaimantEmail,
		IdentificationDetails: s.IdentificationDetails,
		UniqueIdentifiers:     s.UniqueIdentifiers,
		LocationLost:          s.LocationLost,
		DateLost:              s.DateLost,
		ContactInfo:           s.ContactInfo,
		DeliveryRegion:        s.DeliveryRegion,
		DeliveryDistrict:      s.DeliveryDistrict,
		DeliveryFee:           deliveryFee,
		Notes:                 s.Notes,
		Status:                StatusPending,
		CanReclaim:            false,
		SubmittedAt:           time.Now().UTC(),
	}, nil
}

// MarkApproved finalizes the claim as approved.  CanReclaim is always false
// for an approved claim.
func (c *Claim) MarkApproved(at time.Time) error {
	if c.Status.Terminal() {
		return errors.New("claim already finalized: " + string(c.Status))
	}
	c.Status = StatusApproved
	c.CanReclaim = false
	c.ActionedAt = &at
	return nil
}

// MarkRejected finalizes the claim as rejected.  canReclaim is the only place
// it is ever set true: the claimant may submit a fresh claim afterwards.
func (c *Claim) MarkRejected(at time.Time) error {
	if c.Status.Terminal() {
		return errors.New("claim already finalized: " + string(c.Status))
	}
	c.Status = StatusRejected
	c.CanReclaim = true
	c.ActionedAt = &at
	return nil
}

// RecordAction stamps a side-channel admin action on the claim without
// changing its adjudication status.
func (c *Claim) RecordAction(a Action, at time.Time) error {
	if !a.IsValid() {
		return errors.New("unknown claim action: " + string(a))
	}
	if c.Status != a.RequiredStatus() {
		return errors.New("action " + string(a) + " not allowed while claim is " + string(c.Status))
	}
	c.LastAction = &a
	c.LastActionAt = &at
	return nil
}
