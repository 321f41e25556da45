// Package message holds the directed user/admin messages and the admin
// notification records emitted by claim lifecycle transitions.
package message

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Role labels the party on either end of a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Message is a directed note between an admin and a user.  Messages are
// immutable once created; corrections are new messages.
type Message struct {
	ID            string    `json:"id"`
	Content       string    `json:"content"`
	SenderID      string    `json:"sender_id"`
	SenderRole    Role      `json:"sender_role"`
	RecipientID   string    `json:"recipient_id"`
	RecipientRole Role      `json:"recipient_role"`
	MessageType   string    `json:"message_type,omitempty"`
	ClaimID       string    `json:"claim_id,omitempty"`
	ItemID        string    `json:"item_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewMessage builds an immutable message record.
func NewMessage(content, senderID string, senderRole Role, recipientID string, recipientRole Role) (*Message, error) {
	if content == "" {
		return nil, errors.New("message content cannot be empty")
	}
	if senderID == "" || recipientID == "" {
		return nil, errors.New("message sender and recipient are required")
	}
	return &Message{
		ID:            uuid.New().String(),
		Content:       content,
		SenderID:      senderID,
		SenderRole:    senderRole,
		RecipientID:   recipientID,
		RecipientRole: recipientRole,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// WithReferences tags the message with the triggering action and the claim
// and item it relates to.  Returns the receiver for chaining at build time;
// a persisted message is never modified.
func (m *Message) WithReferences(messageType, claimID, itemID string) *Message {
	m.MessageType = messageType
	m.ClaimID = claimID
	m.ItemID = itemID
	return m
}

// Notification is an admin-facing alert raised on claim submission, distinct
// from the directed Message records.  Unlike messages it carries a mutable
// read flag.
type Notification struct {
	ID        string     `json:"id"`
	Type      string     `json:"type"`
	Content   string     `json:"content"`
	ClaimID   string     `json:"claim_id,omitempty"`
	ItemID    string     `json:"item_id,omitempty"`
	Read      bool       `json:"read"`
	CreatedAt time.Time  `json:"created_at"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
}

// NewNotification builds an unread admin notification.
func NewNotification(notifType, content, claimID, itemID string) (*Notification, error) {
	if content == "" {
		return nil, errors.New("notification content cannot be empty")
	}
	return &Notification{
		ID:        uuid.New().String(),
		Type:      notifType,
		Content:   content,
		ClaimID:   claimID,
		ItemID:    itemID,
		Read:      false,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// MarkRead flips the read flag.  Marking an already-read notification again
// is a no-op.
func (n *Notification) MarkRead(at time.Time) {
	if n.Read {
		return
	}
	n.Read = true
	n.ReadAt = &at
}
