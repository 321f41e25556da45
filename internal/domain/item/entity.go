// Package item holds the found-item aggregate and its persistence contract.
package item

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status is the claim-derived state of a found item.
type Status string

const (
	// StatusUnclaimed means no claim on the item is pending or approved.
	StatusUnclaimed Status = "unclaimed"
	// StatusPendingClaim means at least one claim is pending and none approved.
	StatusPendingClaim Status = "pending_claim"
	// StatusClaimed means exactly one claim on the item is approved.
	StatusClaimed Status = "claimed"
)

// IsValid reports whether the status is one of the known values.
func (s Status) IsValid() bool {
	switch s {
	case StatusUnclaimed, StatusPendingClaim, StatusClaimed:
		return true
	default:
		return false
	}
}

// Category classifies a found item.
type Category string

const (
	CategoryNationalIDs       Category = "National IDs"
	CategoryNumberPlates      Category = "Number Plates"
	CategoryDrivingPermits    Category = "Driving Permits"
	CategoryAcademicDocuments Category = "Academic Documents"
	CategoryOtherItems        Category = "Other Items"
)

// IsValid reports whether the category is one of the known values.
func (c Category) IsValid() bool {
	switch c {
	case CategoryNationalIDs, CategoryNumberPlates, CategoryDrivingPermits,
		CategoryAcademicDocuments, CategoryOtherItems:
		return true
	default:
		return false
	}
}

// Categories returns all known categories in display order.
func Categories() []Category {
	return []Category{
		CategoryNationalIDs,
		CategoryNumberPlates,
		CategoryDrivingPermits,
		CategoryAcademicDocuments,
		CategoryOtherItems,
	}
}

// Item is the aggregate root for a found object awaiting a legitimate owner.
// Status is mutated only by the claim lifecycle service; never directly by
// handlers or repositories.
type Item struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Category          Category   `json:"category"`
	Details           string     `json:"details"`
	LocationFound     string     `json:"location_found"`
	UniqueIdentifiers string     `json:"unique_identifiers"`
	DateFound         time.Time  `json:"date_found"`
	Status            Status     `json:"status"`
	ClaimIDs          []string   `json:"claim_ids"`
	ApprovedClaimID   *string    `json:"approved_claim_id,omitempty"`
	PhotoURL          string     `json:"photo_url,omitempty"`
	ReportedBy        string     `json:"reported_by"`
	ApprovedAt        *time.Time `json:"approved_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// New constructs an unclaimed Item, enforcing required fields.
func New(name string, category Category, details, locationFound, uniqueIdentifiers string, dateFound time.Time, reportedBy string) (*Item, error) {
	if name == "" {
		return nil, errors.New("item name cannot be empty")
	}
	if !category.IsValid() {
		return nil, errors.New("unknown item category: " + string(category))
	}
	if dateFound.IsZero() {
		return nil, errors.New("date found cannot be zero")
	}
	if reportedBy == "" {
		return nil, errors.New("reporter reference cannot be empty")
	}

	now := time.Now().UTC()
	return &Item{
		ID:                uuid.New().String(),
		Name:              name,
		Category:          category,
		Details:           details,
		LocationFound:     locationFound,
		UniqueIdentifiers: uniqueIdentifiers,
		DateFound:         dateFound,
		Status:            StatusUnclaimed,
		ClaimIDs:          []string{},
		ReportedBy:        reportedBy,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// HasClaim reports whether claimID is already attached to the item.
func (it *Item) HasClaim(claimID string) bool {
	for _, id := range it.ClaimIDs {
		if id == claimID {
			return true
		}
	}
	return false
}

// Claimable reports whether a new claim may be submitted against the item.
func (it *Item) Claimable() bool {
	return it.Status == StatusUnclaimed || it.Status == StatusPendingClaim
}

// Validate checks the integrity of the record.
func (it *Item) Validate() error {
	if it.ID == "" {
		return errors.New("ID cannot be empty")
	}
	if it.Name == "" {
		return errors.New("Name cannot be empty")
	}
	if !it.Category.IsValid() {
		return errors.New("unknown category")
	}
	if !it.Status.IsValid() {
		return errors.New("unknown status")
	}
	if it.Status == StatusClaimed && it.ApprovedClaimID == nil {
		return errors.New("claimed item must record its approved claim")
	}
	if it.Status != StatusClaimed && it.ApprovedClaimID != nil {
		return errors.New("only a claimed item may record an approved claim")
	}
	return nil
}
