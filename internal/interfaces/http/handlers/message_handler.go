package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/ClaimBridge/internal/application/messages"
	"github.com/turtacn/ClaimBridge/internal/interfaces/http/middleware"
)

// MessageHandler exposes inbox and notification endpoints.
type MessageHandler struct {
	service messages.Service
}

func NewMessageHandler(service messages.Service) *MessageHandler {
	return &MessageHandler{service: service}
}

// Inbox returns one page of the authenticated user's messages.
func (h *MessageHandler) Inbox(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)
	result, err := h.service.Inbox(r.Context(), middleware.ContextGetUserID(r.Context()), page, pageSize)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ByClaim returns the message thread attached to one claim.
func (h *MessageHandler) ByClaim(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ByClaim(r.Context(), chi.URLParam(r, "claimID"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"messages": list})
}

// UnreadNotifications returns one page of unread admin notifications.
func (h *MessageHandler) UnreadNotifications(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)
	list, total, err := h.service.UnreadNotifications(r.Context(), page, pageSize)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": list,
		"total":         total,
		"page":          page,
		"page_size":     pageSize,
	})
}

// MarkNotificationRead marks one notification as read.
func (h *MessageHandler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	if err := h.service.MarkNotificationRead(r.Context(), chi.URLParam(r, "notificationID")); err != nil {
		writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
