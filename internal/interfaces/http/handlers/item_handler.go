package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/ClaimBridge/internal/application/items"
	"github.com/turtacn/ClaimBridge/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClaimBridge/internal/interfaces/http/middleware"
	"github.com/turtacn/ClaimBridge/pkg/errors"
)

// ItemDeleter removes an item together with all of its claims.
type ItemDeleter interface {
	DeleteItem(ctx context.Context, itemID string) error
}

// ItemHandler exposes found-item endpoints.
type ItemHandler struct {
	service     items.Service
	deleter     ItemDeleter
	maxBodySize int64
	maxPhotoSize int64
	logger      logging.Logger
}

func NewItemHandler(service items.Service, deleter ItemDeleter, maxBodySize int64, logger logging.Logger) *ItemHandler {
	if maxBodySize <= 0 {
		maxBodySize = 1 << 20
	}
	return &ItemHandler{
		service:      service,
		deleter:      deleter,
		maxBodySize:  maxBodySize,
		maxPhotoSize: 10 << 20,
		logger:       logger,
	}
}

type createItemRequest struct {
	Name              string `json:"name"`
	Category          string `json:"category"`
	Details           string `json:"details"`
	LocationFound     string `json:"location_found"`
	UniqueIdentifiers string `json:"unique_identifiers"`
	DateFound         string `json:"date_found"`
}

// Create registers a newly found item.
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := decodeJSON(r, &req, h.maxBodySize); err != nil {
		writeAppError(w, err)
		return
	}

	dateFound, err := parseDate(req.DateFound, "date_found")
	if err != nil {
		writeAppError(w, err)
		return
	}

	it, err := h.service.Create(r.Context(), &items.CreateInput{
		Name:              req.Name,
		Category:          req.Category,
		Details:           req.Details,
		LocationFound:     req.LocationFound,
		UniqueIdentifiers: req.UniqueIdentifiers,
		DateFound:         dateFound,
		ReportedBy:        middleware.ContextGetUserID(r.Context()),
	})
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

// Get returns a single item by ID.
func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	it, err := h.service.Get(r.Context(), chi.URLParam(r, "itemID"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// List returns a filtered, paginated page of items.
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)
	q := r.URL.Query()

	result, err := h.service.List(r.Context(), &items.ListInput{
		Status:   q.Get("status"),
		Category: q.Get("category"),
		Search:   q.Get("search"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// AttachPhoto uploads an item photo from a multipart form field named "photo".
func (h *ItemHandler) AttachPhoto(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.maxPhotoSize); err != nil {
		writeAppError(w, errors.New(errors.ErrCodeBadRequest, "malformed multipart form").WithCause(err))
		return
	}
	file, header, err := r.FormFile("photo")
	if err != nil {
		writeAppError(w, errors.New(errors.ErrCodeBadRequest, "missing photo field").WithCause(err))
		return
	}
	defer file.Close()

	if header.Size > h.maxPhotoSize {
		writeAppError(w, errors.New(errors.ErrCodeValidation, "photo exceeds maximum size"))
		return
	}

	it, err := h.service.AttachPhoto(
		r.Context(),
		chi.URLParam(r, "itemID"),
		header.Filename,
		header.Header.Get("Content-Type"),
		file,
		header.Size,
	)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// Delete removes an item and cascades to its claims.
func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")
	if err := h.deleter.DeleteItem(r.Context(), itemID); err != nil {
		writeAppError(w, err)
		return
	}
	h.logger.Info("item deleted", logging.String("item_id", itemID))
	w.WriteHeader(http.StatusNoContent)
}

// Categories lists the accepted item categories.
func (h *ItemHandler) Categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"categories": h.service.Categories()})
}

// parseDate parses a date accepted in either RFC 3339 or plain YYYY-MM-DD form.
func parseDate(value, field string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New(errors.ErrCodeValidation, field+" is required")
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, errors.New(errors.ErrCodeValidation, field+" must be RFC 3339 or YYYY-MM-DD").WithCause(err)
	}
	return t, nil
}
