package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/service-marketplace/internal/model"
)

// UserRepo reads and writes the seller-facing columns of the users table.
// Account creation and credentials belong to the auth service.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `id, email, role, is_active, is_suspended, average_rating,
	total_completed_jobs, last_job_date, created_at, updated_at`

func scanUser(row rowScanner) (model.User, error) {
	var (
		u    model.User
		last sql.NullTime
	)
	if err := row.Scan(&u.ID, &u.Email, &u.Role, &u.IsActive, &u.IsSuspended, &u.AverageRating,
		&u.TotalCompletedJobs, &last, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return model.User{}, err
	}
	if last.Valid {
		t := last.Time.UTC()
		u.LastJobDate = &t
	}
	return u, nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return u, mapMySQLError(err, "get user")
}

// LockSellerTx locks a seller row.  Users that are not sellers are reported
// as ErrSellerNotFound.
func (r *UserRepo) LockSellerTx(ctx context.Context, tx *sql.Tx, id uint64) (model.User, error) {
	u, err := scanUser(tx.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? AND role=? FOR UPDATE", id, model.RoleSeller))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrSellerNotFound
	}
	if err != nil {
		return model.User{}, mapMySQLError(err, "lock seller")
	}
	return u, nil
}

// SetSuspendedTx flips users.is_suspended.
func (r *UserRepo) SetSuspendedTx(ctx context.Context, tx *sql.Tx, id uint64, suspended bool) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE users SET is_suspended=?, updated_at=UTC_TIMESTAMP() WHERE id=?", suspended, id)
	return mapMySQLError(err, "set suspended")
}

// DeleteTx removes the user row; services, sessions and notifications
// follow through their foreign keys.
func (r *UserRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return mapMySQLError(err, "delete user")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSellerNotFound
	}
	return nil
}

// UpdateStatsTx stores a recomputed rating aggregate on the seller row.
func (r *UserRepo) UpdateStatsTx(ctx context.Context, tx *sql.Tx, st model.SellerStats) error {
	var last any
	if st.LastJobDate != nil {
		last = st.LastJobDate.UTC()
	}
	_, err := tx.ExecContext(ctx,
		"UPDATE users SET average_rating=?, total_completed_jobs=?, last_job_date=? WHERE id=?",
		st.AverageRating, st.TotalCompletedJobs, last, st.SellerID)
	return mapMySQLError(err, "update seller stats")
}

// Stats reads the stored aggregate of a seller.
func (r *UserRepo) Stats(ctx context.Context, sellerID uint64) (model.SellerStats, error) {
	var (
		st   = model.SellerStats{SellerID: sellerID}
		last sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT average_rating, total_completed_jobs, last_job_date FROM users WHERE id=? AND role=?",
		sellerID, model.RoleSeller).Scan(&st.AverageRating, &st.TotalCompletedJobs, &last)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SellerStats{}, ErrSellerNotFound
	}
	if err != nil {
		return model.SellerStats{}, mapMySQLError(err, "seller stats")
	}
	if last.Valid {
		t := last.Time.UTC()
		st.LastJobDate = &t
	}
	return st, nil
}
