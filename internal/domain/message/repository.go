package message

import "context"

// Repository persists message records.  Messages are append-only.
type Repository interface {
	Create(ctx context.Context, m *Message) error
	Get(ctx context.Context, id string) (*Message, error)
	ListByRecipient(ctx context.Context, recipientID string, limit, offset int) ([]*Message, int64, error)
	ListByClaim(ctx context.Context, claimID string) ([]*Message, error)
}

// NotificationRepository persists admin notifications and their read state.
type NotificationRepository interface {
	Create(ctx context.Context, n *Notification) error
	Get(ctx context.Context, id string) (*Notification, error)
	ListUnread(ctx context.Context, limit, offset int) ([]*Notification, int64, error)
	MarkRead(ctx context.Context, id string) error
}
