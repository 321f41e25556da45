// Package messages exposes read access to dispatched messages and admin
// notifications.  Writing happens in the claims dispatcher; this service
// only lists and marks notifications read.
package messages

import (
	"context"

	"github.com/turtacn/ClaimBridge/internal/domain/message"
	"github.com/turtacn/ClaimBridge/internal/infrastructure/monitoring/logging"
)

// Service lists messages and manages notification read state.
type Service interface {
	Inbox(ctx context.Context, userID string, page, pageSize int) (*InboxResult, error)
	ByClaim(ctx context.Context, claimID string) ([]*message.Message, error)
	UnreadNotifications(ctx context.Context, page, pageSize int) ([]*message.Notification, int64, error)
	MarkNotificationRead(ctx context.Context, id string) error
}

// InboxResult is one page of a user's messages.
type InboxResult struct {
	Messages []*message.Message `json:"messages"`
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
}

type service struct {
	messages message.Repository
	notifs   message.NotificationRepository
	logger   logging.Logger
}

// NewService wires the message read service.
func NewService(messages message.Repository, notifs message.NotificationRepository, logger logging.Logger) Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &service{messages: messages, notifs: notifs, logger: logger}
}

func clampPage(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

func (s *service) Inbox(ctx context.Context, userID string, page, pageSize int) (*InboxResult, error) {
	page, pageSize = clampPage(page, pageSize)
	msgs, total, err := s.messages.ListByRecipient(ctx, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	return &InboxResult{Messages: msgs, Total: total, Page: page, PageSize: pageSize}, nil
}

func (s *service) ByClaim(ctx context.Context, claimID string) ([]*message.Message, error) {
	return s.messages.ListByClaim(ctx, claimID)
}

func (s *service) UnreadNotifications(ctx context.Context, page, pageSize int) ([]*message.Notification, int64, error) {
	page, pageSize = clampPage(page, pageSize)
	return s.notifs.ListUnread(ctx, pageSize, (page-1)*pageSize)
}

func (s *service) MarkNotificationRead(ctx context.Context, id string) error {
	return s.notifs.MarkRead(ctx, id)
}
