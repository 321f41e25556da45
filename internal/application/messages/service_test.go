package messages

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ClaimBridge/internal/domain/message"
)

type fakeMessageRepo struct {
	messages []*message.Message

	lastLimit  int
	lastOffset int
}

func (r *fakeMessageRepo) Create(ctx context.Context, m *message.Message) error { return nil }

func (r *fakeMessageRepo) Get(ctx context.Context, id string) (*message.Message, error) {
	return nil, nil
}

func (r *fakeMessageRepo) ListByRecipient(ctx context.Context, recipientID string, limit, offset int) ([]*message.Message, int64, error) {
	r.lastLimit = limit
	r.lastOffset = offset

	var out []*message.Message
	for _, m := range r.messages {
		if m.RecipientID == recipientID {
			out = append(out, m)
		}
	}
	total := int64(len(out))
	if offset >= len(out) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], total, nil
}

func (r *fakeMessageRepo) ListByClaim(ctx context.Context, claimID string) ([]*message.Message, error) {
	var out []*message.Message
	for _, m := range r.messages {
		if m.ClaimID == claimID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeNotifRepo struct {
	notifs     []*message.Notification
	markedRead []string
}

func (r *fakeNotifRepo) Create(ctx context.Context, n *message.Notification) error { return nil }

func (r *fakeNotifRepo) Get(ctx context.Context, id string) (*message.Notification, error) {
	return nil, nil
}

func (r *fakeNotifRepo) ListUnread(ctx context.Context, limit, offset int) ([]*message.Notification, int64, error) {
	var out []*message.Notification
	for _, n := range r.notifs {
		if !n.Read {
			out = append(out, n)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeNotifRepo) MarkRead(ctx context.Context, id string) error {
	r.markedRead = append(r.markedRead, id)
	return nil
}

func inboxMessage(t *testing.T, recipientID, claimID string) *message.Message {
	t.Helper()
	m, err := message.NewMessage("your claim was reviewed", "admin-1", message.RoleAdmin, recipientID, message.RoleUser)
	require.NoError(t, err)
	if claimID != "" {
		m.WithReferences("approve", claimID, "itm-1")
	}
	return m
}

func TestInboxFiltersByRecipient(t *testing.T) {
	repo := &fakeMessageRepo{messages: []*message.Message{
		inboxMessage(t, "user-1", ""),
		inboxMessage(t, "user-2", ""),
		inboxMessage(t, "user-1", ""),
	}}
	svc := NewService(repo, &fakeNotifRepo{}, nil)

	result, err := svc.Inbox(context.Background(), "user-1", 1, 20)
	require.NoError(t, err)

	assert.Len(t, result.Messages, 2)
	assert.Equal(t, int64(2), result.Total)
	assert.Equal(t, 1, result.Page)
	assert.Equal(t, 20, result.PageSize)
}

func TestInboxClampsPagination(t *testing.T) {
	repo := &fakeMessageRepo{}
	svc := NewService(repo, &fakeNotifRepo{}, nil)

	_, err := svc.Inbox(context.Background(), "user-1", -3, 500)
	require.NoError(t, err)

	assert.Equal(t, 100, repo.lastLimit)
	assert.Equal(t, 0, repo.lastOffset)
}

func TestInboxOffsetFromPage(t *testing.T) {
	repo := &fakeMessageRepo{}
	svc := NewService(repo, &fakeNotifRepo{}, nil)

	_, err := svc.Inbox(context.Background(), "user-1", 3, 10)
	require.NoError(t, err)

	assert.Equal(t, 10, repo.lastLimit)
	assert.Equal(t, 20, repo.lastOffset)
}

func TestByClaimReturnsThread(t *testing.T) {
	repo := &fakeMessageRepo{messages: []*message.Message{
		inboxMessage(t, "user-1", "clm-1"),
		inboxMessage(t, "user-1", "clm-2"),
	}}
	svc := NewService(repo, &fakeNotifRepo{}, nil)

	thread, err := svc.ByClaim(context.Background(), "clm-1")
	require.NoError(t, err)

	require.Len(t, thread, 1)
	assert.Equal(t, "clm-1", thread[0].ClaimID)
}

func TestUnreadNotificationsSkipsRead(t *testing.T) {
	unread, err := message.NewNotification("new_claim", "new claim on black wallet", "clm-1", "itm-1")
	require.NoError(t, err)
	read, err := message.NewNotification("new_claim", "old claim", "clm-2", "itm-2")
	require.NoError(t, err)
	read.Read = true

	svc := NewService(&fakeMessageRepo{}, &fakeNotifRepo{notifs: []*message.Notification{unread, read}}, nil)

	list, total, err := svc.UnreadNotifications(context.Background(), 1, 20)
	require.NoError(t, err)

	require.Len(t, list, 1)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "clm-1", list[0].ClaimID)
}

func TestMarkNotificationRead(t *testing.T) {
	notifs := &fakeNotifRepo{}
	svc := NewService(&fakeMessageRepo{}, notifs, nil)

	require.NoError(t, svc.MarkNotificationRead(context.Background(), "ntf-1"))
	assert.Equal(t, []string{"ntf-1"}, notifs.markedRead)
}
