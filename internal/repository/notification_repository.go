package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/iliyamo/service-marketplace/internal/model"
)

// NotificationRepo provides access to the notifications table.
type NotificationRepo struct {
	db *sql.DB
}

func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{db: db} }

// CreateTx inserts n, filling in its ID and CreatedAt.
func (r *NotificationRepo) CreateTx(ctx context.Context, tx *sql.Tx, n *model.Notification) error {
	now := time.Now().UTC().Truncate(time.Second)
	res, err := tx.ExecContext(ctx,
		`INSERT INTO notifications (seller_id, moderation_action_id, kind, title, message, is_read, created_at)
		 VALUES (?, ?, ?, ?, ?, FALSE, ?)`,
		n.SellerID, n.ModerationActionID, n.Kind, n.Title, n.Message, now)
	if err != nil {
		return mapMySQLError(err, "insert notification")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	n.ID = uint64(id)
	n.CreatedAt = now
	return nil
}

// ListForSeller returns a seller's notifications, newest first.
func (r *NotificationRepo) ListForSeller(ctx context.Context, sellerID uint64, unreadOnly bool, page Page) ([]model.Notification, int64, error) {
	page = page.Normalize()
	cond := sq.And{sq.Eq{"seller_id": sellerID}}
	if unreadOnly {
		cond = append(cond, sq.Eq{"is_read": false})
	}

	countSQL, countArgs, err := sq.Select("COUNT(*)").From("notifications").Where(cond).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count: %w", err)
	}
	var total int64
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, mapMySQLError(err, "count notifications")
	}

	dataSQL, dataArgs, err := sq.Select("id, seller_id, moderation_action_id, kind, title, message, is_read, created_at").
		From("notifications").
		Where(cond).
		OrderBy("created_at DESC", "id DESC").
		Limit(page.limit()).
		Offset(page.offset()).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list: %w", err)
	}
	rows, err := r.db.QueryContext(ctx, dataSQL, dataArgs...)
	if err != nil {
		return nil, 0, mapMySQLError(err, "list notifications")
	}
	defer rows.Close()

	out := make([]model.Notification, 0, page.Size)
	for rows.Next() {
		var (
			n        model.Notification
			actionID sql.NullInt64
		)
		if err := rows.Scan(&n.ID, &n.SellerID, &actionID, &n.Kind, &n.Title, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, 0, err
		}
		if actionID.Valid {
			v := uint64(actionID.Int64)
			n.ModerationActionID = &v
		}
		n.CreatedAt = n.CreatedAt.UTC()
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// MarkRead flags a notification as read.  Marking another seller's
// notification fails with ErrForbidden; marking twice is a no-op.
func (r *NotificationRepo) MarkRead(ctx context.Context, sellerID, id uint64) error {
	var owner uint64
	err := r.db.QueryRowContext(ctx, "SELECT seller_id FROM notifications WHERE id = ?", id).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotificationNotFound
	}
	if err != nil {
		return mapMySQLError(err, "get notification")
	}
	if owner != sellerID {
		return ErrForbidden
	}
	_, err = r.db.ExecContext(ctx, "UPDATE notifications SET is_read = TRUE WHERE id = ? AND seller_id = ?", id, sellerID)
	return mapMySQLError(err, "mark notification read")
}
