package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/turtacn/ClaimBridge/internal/domain/item"
	"github.com/turtacn/ClaimBridge/internal/infrastructure/database/postgres"
	"github.com/turtacn/ClaimBridge/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClaimBridge/pkg/errors"
)

type postgresItemRepo struct {
	baseRepo
}

// NewPostgresItemRepo returns the items table implementation.
func NewPostgresItemRepo(conn *postgres.Connection, log logging.Logger) item.Repository {
	return &postgresItemRepo{baseRepo: baseRepo{conn: conn, log: log}}
}

const itemColumns = `
	id, name, category, details, location_found, unique_identifiers,
	date_found, status, claim_ids, approved_claim_id, photo_url,
	reported_by, approved_at, created_at, updated_at
`

func (r *postgresItemRepo) Create(ctx context.Context, it *item.Item) error {
	query := `
		INSERT INTO items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := r.executor().ExecContext(ctx, query,
		it.ID, it.Name, it.Category, it.Details, it.LocationFound, it.UniqueIdentifiers,
		it.DateFound, it.Status, pq.Array(it.ClaimIDs), it.ApprovedClaimID, it.PhotoURL,
		it.ReportedBy, it.ApprovedAt, it.CreatedAt, it.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert item")
	}
	return nil
}

func (r *postgresItemRepo) Get(ctx context.Context, id string) (*item.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`
	it, err := scanItem(r.executor().QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.New(errors.ErrCodeItemNotFound, "item not found").WithDetail(id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load item")
	}
	return it, nil
}

func (r *postgresItemRepo) List(ctx context.Context, opts ...item.QueryOption) ([]*item.Item, int64, error) {
	o := item.ApplyOptions(opts...)

	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if o.Status != "" {
		conds = append(conds, "status = "+arg(o.Status))
	}
	if o.Category != "" {
		conds = append(conds, "category = "+arg(o.Category))
	}
	if o.Search != "" {
		p := arg("%" + o.Search + "%")
		conds = append(conds, "(name ILIKE "+p+" OR details ILIKE "+p+" OR location_found ILIKE "+p+")")
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM items` + where
	if err := r.executor().QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to count items")
	}

	query := `SELECT ` + itemColumns + ` FROM items` + where +
		" ORDER BY created_at DESC LIMIT " + arg(o.Limit) + " OFFSET " + arg(o.Offset)
	rows, err := r.executor().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list items")
	}
	defer rows.Close()

	var out []*item.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan item")
		}
		out = append(out, it)
	}
	return out, total, rows.Err()
}

func (r *postgresItemRepo) Update(ctx context.Context, it *item.Item) error {
	query := `
		UPDATE items SET
			name = $2, category = $3, details = $4, location_found = $5,
			unique_identifiers = $6, date_found = $7, status = $8,
			claim_ids = $9, approved_claim_id = $10, photo_url = $11,
			approved_at = $12, updated_at = NOW()
		WHERE id = $1
	`
	res, err := r.executor().ExecContext(ctx, query,
		it.ID, it.Name, it.Category, it.Details, it.LocationFound,
		it.UniqueIdentifiers, it.DateFound, it.Status,
		pq.Array(it.ClaimIDs), it.ApprovedClaimID, it.PhotoURL, it.ApprovedAt,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to update item")
	}
	return requireRow(res, errors.ErrCodeItemNotFound, it.ID)
}

func (r *postgresItemRepo) AttachClaim(ctx context.Context, itemID, claimID string) error {
	query := `
		UPDATE items SET
			claim_ids = array_append(claim_ids, $2),
			status = 'pending_claim',
			updated_at = NOW()
		WHERE id = $1 AND status <> 'claimed'
	`
	res, err := r.executor().ExecContext(ctx, query, itemID, claimID)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to attach claim")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to attach claim")
	}
	if n == 0 {
		// Either missing or already claimed; disambiguate for the caller.
		if _, getErr := r.Get(ctx, itemID); getErr != nil {
			return getErr
		}
		return errors.New(errors.ErrCodeItemAlreadyClaimed, "item already claimed").WithDetail(itemID)
	}
	return nil
}

func (r *postgresItemRepo) MarkClaimed(ctx context.Context, itemID, approvedClaimID string, fromStatuses []item.Status) (bool, error) {
	statuses := make([]string, len(fromStatuses))
	for i, st := range fromStatuses {
		statuses[i] = string(st)
	}
	query := `
		UPDATE items SET
			status = 'claimed',
			approved_claim_id = $2,
			approved_at = NOW(),
			updated_at = NOW()
		WHERE id = $1 AND status = ANY($3)
	`
	res, err := r.executor().ExecContext(ctx, query, itemID, approvedClaimID, pq.Array(statuses))
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to mark item claimed")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to mark item claimed")
	}
	return n == 1, nil
}

func (r *postgresItemRepo) ReleaseClaim(ctx context.Context, itemID, approvedClaimID string) error {
	query := `
		UPDATE items SET
			status = 'pending_claim',
			approved_claim_id = NULL,
			approved_at = NULL,
			updated_at = NOW()
		WHERE id = $1 AND status = 'claimed' AND approved_claim_id = $2
	`
	_, err := r.executor().ExecContext(ctx, query, itemID, approvedClaimID)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to release item claim")
	}
	return nil
}

func (r *postgresItemRepo) ResetToUnclaimed(ctx context.Context, itemID string) error {
	query := `
		UPDATE items SET
			status = 'unclaimed',
			claim_ids = '{}',
			approved_claim_id = NULL,
			approved_at = NULL,
			updated_at = NOW()
		WHERE id = $1
	`
	res, err := r.executor().ExecContext(ctx, query, itemID)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to reset item")
	}
	return requireRow(res, errors.ErrCodeItemNotFound, itemID)
}

func (r *postgresItemRepo) Delete(ctx context.Context, id string) error {
	res, err := r.executor().ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to delete item")
	}
	return requireRow(res, errors.ErrCodeItemNotFound, id)
}

func scanItem(s scanner) (*item.Item, error) {
	var it item.Item
	var claimIDs pq.StringArray
	err := s.Scan(
		&it.ID, &it.Name, &it.Category, &it.Details, &it.LocationFound,
		&it.UniqueIdentifiers, &it.DateFound, &it.Status, &claimIDs,
		&it.ApprovedClaimID, &it.PhotoURL, &it.ReportedBy, &it.ApprovedAt,
		&it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	it.ClaimIDs = []string(claimIDs)
	if it.ClaimIDs == nil {
		it.ClaimIDs = []string{}
	}
	return &it, nil
}

// requireRow maps a zero-row update to a not-found error for the given code.
func requireRow(res sql.Result, code errors.ErrorCode, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read rows affected")
	}
	if n == 0 {
		return errors.New(code, errors.DefaultMessageForCode(code)).WithDetail(id)
	}
	return nil
}
