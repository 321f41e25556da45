package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/turtacn/ClaimBridge/internal/domain/claim"
	"github.com/turtacn/ClaimBridge/internal/infrastructure/database/postgres"
	"github.com/turtacn/ClaimBridge/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClaimBridge/pkg/errors"
)

type postgresClaimRepo struct {
	baseRepo
}

// NewPostgresClaimRepo returns the claims table implementation.
func NewPostgresClaimRepo(conn *postgres.Connection, log logging.Logger) claim.Repository {
	return &postgresClaimRepo{baseRepo: baseRepo{conn: conn, log: log}}
}

const claimColumns = `
	id, item_id, claimant_id, claimant_email, identification_details,
	unique_identifiers, location_lost, date_lost, contact_info,
	delivery_region, delivery_district, delivery_fee, notes, status,
	can_reclaim, last_action, last_action_at, submitted_at, actioned_at
`

func (r *postgresClaimRepo) Create(ctx context.Context, c *claim.Claim) error {
	query := `
		INSERT INTO claims (` + claimColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`
	_, err := r.executor().ExecContext(ctx, query,
		c.ID, c.ItemID, c.ClaimantID, c.ClaimantEmail, c.IdentificationDetails,
		c.UniqueIdentifiers, c.LocationLost, c.DateLost, c.ContactInfo,
		c.DeliveryRegion, c.DeliveryDistrict, c.DeliveryFee, c.Notes, c.Status,
		c.CanReclaim, c.LastAction, c.LastActionAt, c.SubmittedAt, c.ActionedAt,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert claim")
	}
	return nil
}

func (r *postgresClaimRepo) Get(ctx context.Context, id string) (*claim.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims WHERE id = $1`
	c, err := scanClaim(r.executor().QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.New(errors.ErrCodeClaimNotFound, "claim not found").WithDetail(id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load claim")
	}
	return c, nil
}

func (r *postgresClaimRepo) ListByItem(ctx context.Context, itemID string) ([]*claim.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims WHERE item_id = $1 ORDER BY submitted_at ASC`
	return r.list(ctx, query, itemID)
}

func (r *postgresClaimRepo) ListByClaimant(ctx context.Context, claimantID string) ([]*claim.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims WHERE claimant_id = $1 ORDER BY submitted_at DESC`
	return r.list(ctx, query, claimantID)
}

func (r *postgresClaimRepo) list(ctx context.Context, query string, arg interface{}) ([]*claim.Claim, error) {
	rows, err := r.executor().QueryContext(ctx, query, arg)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query claims")
	}
	defer rows.Close()

	var out []*claim.Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan claim")
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *postgresClaimRepo) Finalize(ctx context.Context, id string, to claim.Status, canReclaim bool, at time.Time) (bool, error) {
	// pending→terminal is one-shot; the status guard makes the apply
	// idempotent under races.
	query := `
		UPDATE claims SET
			status = $2,
			can_reclaim = $3,
			actioned_at = $4
		WHERE id = $1 AND status = 'pending'
	`
	res, err := r.executor().ExecContext(ctx, query, id, to, canReclaim, at)
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to finalize claim")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to finalize claim")
	}
	return n == 1, nil
}

func (r *postgresClaimRepo) RecordAction(ctx context.Context, id string, a claim.Action, at time.Time) error {
	query := `UPDATE claims SET last_action = $2, last_action_at = $3 WHERE id = $1`
	res, err := r.executor().ExecContext(ctx, query, id, a, at)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to record claim action")
	}
	return requireRow(res, errors.ErrCodeClaimNotFound, id)
}

func (r *postgresClaimRepo) CountPendingByItem(ctx context.Context, itemID string) (int64, error) {
	var n int64
	query := `SELECT COUNT(*) FROM claims WHERE item_id = $1 AND status = 'pending'`
	if err := r.executor().QueryRowContext(ctx, query, itemID).Scan(&n); err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to count pending claims")
	}
	return n, nil
}

func (r *postgresClaimRepo) Delete(ctx context.Context, id string) error {
	res, err := r.executor().ExecContext(ctx, `DELETE FROM claims WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to delete claim")
	}
	return requireRow(res, errors.ErrCodeClaimNotFound, id)
}

func (r *postgresClaimRepo) DeleteByItem(ctx context.Context, itemID string) (int64, error) {
	res, err := r.executor().ExecContext(ctx, `DELETE FROM claims WHERE item_id = $1`, itemID)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to delete item claims")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to delete item claims")
	}
	return n, nil
}

func scanClaim(s scanner) (*claim.Claim, error) {
	var c claim.Claim
	var lastAction sql.NullString
	err := s.Scan(
		&c.ID, &c.ItemID, &c.ClaimantID, &c.ClaimantEmail, &c.IdentificationDetails,
		&c.UniqueIdentifiers, &c.LocationLost, &c.DateLost, &c.ContactInfo,
		&c.DeliveryRegion, &c.DeliveryDistrict, &c.DeliveryFee, &c.Notes, &c.Status,
		&c.CanReclaim, &lastAction, &c.LastActionAt, &c.SubmittedAt, &c.ActionedAt,
	)
	if err != nil {
		return nil, err
	}
	if lastAction.Valid {
		a := claim.Action(lastAction.String)
		c.LastAction = &a
	}
	return &c, nil
}
