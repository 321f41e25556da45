package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/ClaimBridge/internal/application/claims"
	"github.com/turtacn/ClaimBridge/internal/domain/claim"
	"github.com/turtacn/ClaimBridge/internal/domain/delivery"
	"github.com/turtacn/ClaimBridge/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClaimBridge/internal/interfaces/http/middleware"
	"github.com/turtacn/ClaimBridge/pkg/errors"
)

// ClaimHandler exposes claim lifecycle endpoints.
type ClaimHandler struct {
	service     claims.Service
	maxBodySize int64
	logger      logging.Logger
}

func NewClaimHandler(service claims.Service, maxBodySize int64, logger logging.Logger) *ClaimHandler {
	if maxBodySize <= 0 {
		maxBodySize = 1 << 20
	}
	return &ClaimHandler{service: service, maxBodySize: maxBodySize, logger: logger}
}

type submitClaimRequest struct {
	ItemID                string `json:"item_id"`
	ClaimantEmail         string `json:"claimant_email"`
	IdentificationDetails string `json:"identification_details"`
	UniqueIdentifiers     string `json:"unique_identifiers"`
	LocationLost          string `json:"location_lost"`
	DateLost              string `json:"date_lost"`
	ContactInfo           string `json:"contact_info"`
	DeliveryRegion        string `json:"delivery_region"`
	DeliveryDistrict      string `json:"delivery_district"`
	Notes                 string `json:"notes"`
}

// Submit files a new claim on an item for the authenticated claimant.
func (h *ClaimHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitClaimRequest
	if err := decodeJSON(r, &req, h.maxBodySize); err != nil {
		writeAppError(w, err)
		return
	}

	dateLost, err := parseDate(req.DateLost, "date_lost")
	if err != nil {
		writeAppError(w, err)
		return
	}

	result, err := h.service.Submit(r.Context(), &claims.SubmitInput{
		ItemID:                req.ItemID,
		ClaimantID:            middleware.ContextGetUserID(r.Context()),
		ClaimantEmail:         req.ClaimantEmail,
		IdentificationDetails: req.IdentificationDetails,
		UniqueIdentifiers:     req.UniqueIdentifiers,
		LocationLost:          req.LocationLost,
		DateLost:              dateLost,
		ContactInfo:           req.ContactInfo,
		DeliveryRegion:        req.DeliveryRegion,
		DeliveryDistrict:      req.DeliveryDistrict,
		Notes:                 req.Notes,
	})
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// Get returns a single claim.  Claimants may only read their own claims.
func (h *ClaimHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.GetClaim(r.Context(), chi.URLParam(r, "claimID"))
	if err != nil {
		writeAppError(w, err)
		return
	}

	identity := middleware.ContextGetIdentity(r.Context())
	if !identity.IsAdmin() && c.ClaimantID != identity.UserID {
		writeAppError(w, errors.Forbidden("claim belongs to another claimant"))
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// ListByItem returns every claim filed against one item.
func (h *ClaimHandler) ListByItem(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListByItem(r.Context(), chi.URLParam(r, "itemID"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"claims": list})
}

// ListMine returns the authenticated claimant's claims.
func (h *ClaimHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListByClaimant(r.Context(), middleware.ContextGetUserID(r.Context()))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"claims": list})
}

// Approve finalizes a claim as the winner and rejects its pending siblings.
// A partially failed cascade still approves the claim; the response carries
// 207 with the approved claim so the caller can see both facts.
func (h *ClaimHandler) Approve(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")
	claimID := chi.URLParam(r, "claimID")

	c, err := h.service.Approve(r.Context(), itemID, claimID)
	if errors.IsCode(err, errors.ErrCodePartialCascade) {
		h.logger.Warn("approval cascade incomplete",
			logging.String("item_id", itemID),
			logging.String("claim_id", claimID),
			logging.Err(err))
		writeJSON(w, http.StatusMultiStatus, map[string]interface{}{
			"claim":   c,
			"warning": err.Error(),
		})
		return
	}
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Reject finalizes a claim as rejected.
func (h *ClaimHandler) Reject(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.Reject(r.Context(), chi.URLParam(r, "itemID"), chi.URLParam(r, "claimID"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type actionRequest struct {
	Action string `json:"action"`
}

// Action records a post-decision follow-up on a claim and notifies the claimant.
func (h *ClaimHandler) Action(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := decodeJSON(r, &req, h.maxBodySize); err != nil {
		writeAppError(w, err)
		return
	}

	c, err := h.service.AdditionalAction(r.Context(), chi.URLParam(r, "claimID"), claim.Action(req.Action))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Evaluate re-runs the eligibility rules for a claim on demand.
func (h *ClaimHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	ev, err := h.service.EvaluateClaim(r.Context(), chi.URLParam(r, "claimID"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// Regions lists the delivery fee schedule.
func (h *ClaimHandler) Regions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"regions": delivery.Regions()})
}
