package repositories

import (
	"context"
	"database/sql"

	"github.com/turtacn/ClaimBridge/internal/domain/message"
	"github.com/turtacn/ClaimBridge/internal/infrastructure/database/postgres"
	"github.com/turtacn/ClaimBridge/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClaimBridge/pkg/errors"
)

type postgresMessageRepo struct {
	baseRepo
}

// NewPostgresMessageRepo returns the messages table implementation.
func NewPostgresMessageRepo(conn *postgres.Connection, log logging.Logger) message.Repository {
	return &postgresMessageRepo{baseRepo: baseRepo{conn: conn, log: log}}
}

const messageColumns = `
	id, content, sender_id, sender_role, recipient_id, recipient_role,
	message_type, claim_id, item_id, created_at
`

func (r *postgresMessageRepo) Create(ctx context.Context, m *message.Message) error {
	query := `
		INSERT INTO messages (` + messageColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.executor().ExecContext(ctx, query,
		m.ID, m.Content, m.SenderID, m.SenderRole, m.RecipientID, m.RecipientRole,
		m.MessageType, m.ClaimID, m.ItemID, m.CreatedAt,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert message")
	}
	return nil
}

func (r *postgresMessageRepo) Get(ctx context.Context, id string) (*message.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`
	m, err := scanMessage(r.executor().QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("message not found").WithDetail(id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load message")
	}
	return m, nil
}

func (r *postgresMessageRepo) ListByRecipient(ctx context.Context, recipientID string, limit, offset int) ([]*message.Message, int64, error) {
	var total int64
	countQuery := `SELECT COUNT(*) FROM messages WHERE recipient_id = $1`
	if err := r.executor().QueryRowContext(ctx, countQuery, recipientID).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to count messages")
	}

	query := `
		SELECT ` + messageColumns + ` FROM messages
		WHERE recipient_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.executor().QueryContext(ctx, query, recipientID, limit, offset)
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list messages")
	}
	defer rows.Close()

	var out []*message.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan message")
		}
		out = append(out, m)
	}
	return out, total, rows.Err()
}

func (r *postgresMessageRepo) ListByClaim(ctx context.Context, claimID string) ([]*message.Message, error) {
	query := `
		SELECT ` + messageColumns + ` FROM messages
		WHERE claim_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.executor().QueryContext(ctx, query, claimID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list claim messages")
	}
	defer rows.Close()

	var out []*message.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan message")
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanMessage(s scanner) (*message.Message, error) {
	var m message.Message
	err := s.Scan(
		&m.ID, &m.Content, &m.SenderID, &m.SenderRole, &m.RecipientID,
		&m.RecipientRole, &m.MessageType, &m.ClaimID, &m.ItemID, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

type postgresNotificationRepo struct {
	baseRepo
}

// NewPostgresNotificationRepo returns the notifications table implementation.
func NewPostgresNotificationRepo(conn *postgres.Connection, log logging.Logger) message.NotificationRepository {
	return &postgresNotificationRepo{baseRepo: baseRepo{conn: conn, log: log}}
}

const notificationColumns = `
	id, type, content, claim_id, item_id, read, created_at, read_at
`

func (r *postgresNotificationRepo) Create(ctx context.Context, n *message.Notification) error {
	query := `
		INSERT INTO notifications (` + notificationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.executor().ExecContext(ctx, query,
		n.ID, n.Type, n.Content, n.ClaimID, n.ItemID, n.Read, n.CreatedAt, n.ReadAt,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert notification")
	}
	return nil
}

func (r *postgresNotificationRepo) Get(ctx context.Context, id string) (*message.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`
	n, err := scanNotification(r.executor().QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.New(errors.ErrCodeNotificationNotFound, "notification not found").WithDetail(id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load notification")
	}
	return n, nil
}

func (r *postgresNotificationRepo) ListUnread(ctx context.Context, limit, offset int) ([]*message.Notification, int64, error) {
	var total int64
	countQuery := `SELECT COUNT(*) FROM notifications WHERE read = FALSE`
	if err := r.executor().QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to count notifications")
	}

	query := `
		SELECT ` + notificationColumns + ` FROM notifications
		WHERE read = FALSE
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.executor().QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list notifications")
	}
	defer rows.Close()

	var out []*message.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan notification")
		}
		out = append(out, n)
	}
	return out, total, rows.Err()
}

func (r *postgresNotificationRepo) MarkRead(ctx context.Context, id string) error {
	query := `UPDATE notifications SET read = TRUE, read_at = NOW() WHERE id = $1 AND read = FALSE`
	res, err := r.executor().ExecContext(ctx, query, id)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to mark notification read")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to mark notification read")
	}
	if n == 0 {
		// Missing or already read; only the former is an error.
		if _, getErr := r.Get(ctx, id); getErr != nil {
			return getErr
		}
	}
	return nil
}

func scanNotification(s scanner) (*message.Notification, error) {
	var n message.Notification
	err := s.Scan(
		&n.ID, &n.Type, &n.Content, &n.ClaimID, &n.ItemID,
		&n.Read, &n.CreatedAt, &n.ReadAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
