package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/iliyamo/service-marketplace/internal/model"
)

// RatingRepo provides access to the ratings table.  Ratings are only ever
// inserted; there is no update or delete path.
type RatingRepo struct {
	db *sql.DB
}

func NewRatingRepo(db *sql.DB) *RatingRepo { return &RatingRepo{db: db} }

const ratingColumns = "id, contact_request_id, service_id, seller_id, score, review_text, is_verified, created_at"

func scanRating(row rowScanner) (model.Rating, error) {
	var (
		rt     model.Rating
		review sql.NullString
	)
	if err := row.Scan(&rt.ID, &rt.ContactRequestID, &rt.ServiceID, &rt.SellerID,
		&rt.Score, &review, &rt.IsVerified, &rt.CreatedAt); err != nil {
		return model.Rating{}, err
	}
	if review.Valid {
		rt.ReviewText = &review.String
	}
	rt.CreatedAt = rt.CreatedAt.UTC()
	return rt, nil
}

// CreateTx inserts rt and fills in its ID and CreatedAt.  A second rating
// for the same contact request fails with a duplicate-key error which the
// caller can detect with IsDuplicate.
func (r *RatingRepo) CreateTx(ctx context.Context, tx *sql.Tx, rt *model.Rating) error {
	now := time.Now().UTC().Truncate(time.Second)
	res, err := tx.ExecContext(ctx,
		`INSERT INTO ratings (contact_request_id, service_id, seller_id, score, review_text, is_verified, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rt.ContactRequestID, rt.ServiceID, rt.SellerID, rt.Score, rt.ReviewText, rt.IsVerified, now)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rt.ID = uint64(id)
	rt.CreatedAt = now
	return nil
}

// ExistsForContactTx reports whether the contact request was already rated.
func (r *RatingRepo) ExistsForContactTx(ctx context.Context, tx *sql.Tx, contactID uint64) (bool, error) {
	var ok bool
	err := tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM ratings WHERE contact_request_id = ?)`, contactID).Scan(&ok)
	if err != nil {
		return false, mapMySQLError(err, "check rating")
	}
	return ok, nil
}

// ExistsForContact is ExistsForContactTx outside a transaction.
func (r *RatingRepo) ExistsForContact(ctx context.Context, contactID uint64) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM ratings WHERE contact_request_id = ?)`, contactID).Scan(&ok)
	if err != nil {
		return false, mapMySQLError(err, "check rating")
	}
	return ok, nil
}

// AggregateForSellerTx computes the seller's rating aggregate from scratch
// with a locking read, so it sees the latest committed ratings rather than
// the transaction snapshot.  The average is rounded to two decimals, half
// away from zero, by MySQL's exact DECIMAL ROUND.
func (r *RatingRepo) AggregateForSellerTx(ctx context.Context, tx *sql.Tx, sellerID uint64) (model.SellerStats, error) {
	var (
		avg   sql.NullFloat64
		count int
		last  sql.NullTime
	)
	err := tx.QueryRowContext(ctx,
		`SELECT ROUND(AVG(score), 2), COUNT(*), MAX(created_at) FROM ratings WHERE seller_id = ? FOR SHARE`,
		sellerID).Scan(&avg, &count, &last)
	if err != nil {
		return model.SellerStats{}, mapMySQLError(err, "aggregate ratings")
	}
	st := model.SellerStats{SellerID: sellerID, TotalCompletedJobs: count}
	if avg.Valid {
		st.AverageRating = avg.Float64
	}
	if last.Valid {
		t := last.Time.UTC()
		st.LastJobDate = &t
	}
	return st, nil
}

// ListByService returns a service's ratings, newest first.
func (r *RatingRepo) ListByService(ctx context.Context, serviceID uint64, page Page) ([]model.Rating, int64, error) {
	return r.list(ctx, sq.Eq{"service_id": serviceID}, page)
}

// ListBySeller returns a seller's ratings across all services, newest first.
func (r *RatingRepo) ListBySeller(ctx context.Context, sellerID uint64, page Page) ([]model.Rating, int64, error) {
	return r.list(ctx, sq.Eq{"seller_id": sellerID}, page)
}

func (r *RatingRepo) list(ctx context.Context, cond sq.Sqlizer, page Page) ([]model.Rating, int64, error) {
	page = page.Normalize()

	countSQL, countArgs, err := sq.Select("COUNT(*)").From("ratings").Where(cond).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count: %w", err)
	}
	var total int64
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, mapMySQLError(err, "count ratings")
	}

	dataSQL, dataArgs, err := sq.Select(ratingColumns).
		From("ratings").
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
		return nil, 0, mapMySQLError(err, "list ratings")
	}
	defer rows.Close()

	out := make([]model.Rating, 0, page.Size)
	for rows.Next() {
		rt, err := scanRating(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
