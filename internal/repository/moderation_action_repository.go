package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/iliyamo/service-marketplace/internal/model"
)

// ModerationActionRepo appends to and reads the moderation audit log.
type ModerationActionRepo struct {
	db *sql.DB
}

func NewModerationActionRepo(db *sql.DB) *ModerationActionRepo {
	return &ModerationActionRepo{db: db}
}

// CreateTx inserts a, filling in its ID and CreatedAt.
func (r *ModerationActionRepo) CreateTx(ctx context.Context, tx *sql.Tx, a *model.ModerationAction) error {
	now := time.Now().UTC().Truncate(time.Second)
	res, err := tx.ExecContext(ctx,
		`INSERT INTO moderation_actions (admin_id, service_id, seller_id, action, justification, internal_notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.AdminID, a.ServiceID, a.SellerID, a.Action, a.Justification, a.InternalNotes, now)
	if err != nil {
		return mapMySQLError(err, "insert moderation action")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	a.CreatedAt = now
	return nil
}

// ModerationHistoryFilter narrows the audit log.  Zero values mean "any".
type ModerationHistoryFilter struct {
	SellerID  uint64
	ServiceID uint64
	Action    model.ModerationActionType
	Page      Page
}

// List returns audit records newest first.
func (r *ModerationActionRepo) List(ctx context.Context, f ModerationHistoryFilter) ([]model.ModerationAction, int64, error) {
	page := f.Page.Normalize()
	cond := sq.And{}
	if f.SellerID != 0 {
		cond = append(cond, sq.Eq{"seller_id": f.SellerID})
	}
	if f.ServiceID != 0 {
		cond = append(cond, sq.Eq{"service_id": f.ServiceID})
	}
	if f.Action != "" {
		cond = append(cond, sq.Eq{"action": string(f.Action)})
	}

	countQ := sq.Select("COUNT(*)").From("moderation_actions")
	dataQ := sq.Select("id, admin_id, service_id, seller_id, action, justification, internal_notes, created_at").
		From("moderation_actions").
		OrderBy("created_at DESC", "id DESC").
		Limit(page.limit()).
		Offset(page.offset())
	if len(cond) > 0 {
		countQ = countQ.Where(cond)
		dataQ = dataQ.Where(cond)
	}

	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count: %w", err)
	}
	var total int64
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, mapMySQLError(err, "count moderation actions")
	}

	dataSQL, dataArgs, err := dataQ.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list: %w", err)
	}
	rows, err := r.db.QueryContext(ctx, dataSQL, dataArgs...)
	if err != nil {
		return nil, 0, mapMySQLError(err, "list moderation actions")
	}
	defer rows.Close()

	out := make([]model.ModerationAction, 0, page.Size)
	for rows.Next() {
		var (
			a         model.ModerationAction
			serviceID sql.NullInt64
			sellerID  sql.NullInt64
			notes     sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.AdminID, &serviceID, &sellerID, &a.Action,
			&a.Justification, &notes, &a.CreatedAt); err != nil {
			return nil, 0, err
		}
		if serviceID.Valid {
			v := uint64(serviceID.Int64)
			a.ServiceID = &v
		}
		if sellerID.Valid {
			v := uint64(sellerID.Int64)
			a.SellerID = &v
		}
		if notes.Valid {
			a.InternalNotes = &notes.String
		}
		a.CreatedAt = a.CreatedAt.UTC()
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
