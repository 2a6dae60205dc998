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

// ContactRequestRepo provides access to the contact_requests table.  Methods
// with a Tx suffix run inside a caller-owned transaction; the caller commits
// or rolls back.
type ContactRequestRepo struct {
	db *sql.DB
}

func NewContactRequestRepo(db *sql.DB) *ContactRequestRepo { return &ContactRequestRepo{db: db} }

const contactColumns = `cr.id, cr.service_id, cr.client_name, cr.client_email, cr.client_phone,
	cr.task_description, cr.status, cr.rating_token, cr.rating_token_expires_at,
	cr.created_at, cr.updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(row rowScanner, extra ...any) (model.ContactRequest, error) {
	var (
		c       model.ContactRequest
		phone   sql.NullString
		token   sql.NullString
		expires sql.NullTime
	)
	dest := []any{
		&c.ID, &c.ServiceID, &c.ClientName, &c.ClientEmail, &phone,
		&c.TaskDescription, &c.Status, &token, &expires,
		&c.CreatedAt, &c.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return model.ContactRequest{}, err
	}
	if phone.Valid {
		c.ClientPhone = &phone.String
	}
	if token.Valid {
		c.RatingToken = &token.String
	}
	if expires.Valid {
		t := expires.Time.UTC()
		c.RatingTokenExpiresAt = &t
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return c, nil
}

// CreateTx inserts a NEW contact request and returns the stored row.
func (r *ContactRequestRepo) CreateTx(ctx context.Context, tx *sql.Tx, serviceID uint64, info model.ClientInfo) (model.ContactRequest, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO contact_requests (service_id, client_name, client_email, client_phone, task_description, status)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		serviceID, info.Name, info.Email, info.Phone, info.TaskDescription, model.StatusNew)
	if err != nil {
		return model.ContactRequest{}, mapMySQLError(err, "insert contact request")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.ContactRequest{}, err
	}
	row := tx.QueryRowContext(ctx, `SELECT `+contactColumns+` FROM contact_requests cr WHERE cr.id = ?`, id)
	c, err := scanContact(row)
	if err != nil {
		return model.ContactRequest{}, mapMySQLError(err, "reload contact request")
	}
	return c, nil
}

// LockWithSellerTx locks a contact request row and returns it together with
// the id of the seller who owns its service.
func (r *ContactRequestRepo) LockWithSellerTx(ctx context.Context, tx *sql.Tx, id uint64) (model.ContactRequest, uint64, error) {
	var sellerID uint64
	row := tx.QueryRowContext(ctx,
		`SELECT `+contactColumns+`, s.seller_id
		   FROM contact_requests cr
		   JOIN services s ON s.id = cr.service_id
		  WHERE cr.id = ?
		  FOR UPDATE OF cr`, id)
	c, err := scanContact(row, &sellerID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ContactRequest{}, 0, ErrContactRequestNotFound
	}
	if err != nil {
		return model.ContactRequest{}, 0, mapMySQLError(err, "lock contact request")
	}
	return c, sellerID, nil
}

// GetWithSeller is the non-locking variant of LockWithSellerTx.
func (r *ContactRequestRepo) GetWithSeller(ctx context.Context, id uint64) (model.ContactRequest, uint64, error) {
	var sellerID uint64
	row := r.db.QueryRowContext(ctx,
		`SELECT `+contactColumns+`, s.seller_id
		   FROM contact_requests cr
		   JOIN services s ON s.id = cr.service_id
		  WHERE cr.id = ?`, id)
	c, err := scanContact(row, &sellerID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ContactRequest{}, 0, ErrContactRequestNotFound
	}
	if err != nil {
		return model.ContactRequest{}, 0, mapMySQLError(err, "get contact request")
	}
	return c, sellerID, nil
}

// SellerForTokenTx returns the seller owning the request that carries
// token, without locking.  sql.ErrNoRows is returned unchanged.
func (r *ContactRequestRepo) SellerForTokenTx(ctx context.Context, tx *sql.Tx, token string) (uint64, error) {
	var sellerID uint64
	err := tx.QueryRowContext(ctx,
		`SELECT s.seller_id
		   FROM contact_requests cr
		   JOIN services s ON s.id = cr.service_id
		  WHERE cr.rating_token = ?`, token).Scan(&sellerID)
	return sellerID, err
}

// LockByTokenTx locks the contact request carrying token.  It returns
// sql.ErrNoRows unchanged when no row matches so the token manager can
// classify it.
func (r *ContactRequestRepo) LockByTokenTx(ctx context.Context, tx *sql.Tx, token string) (model.ContactRequest, uint64, error) {
	var sellerID uint64
	row := tx.QueryRowContext(ctx,
		`SELECT `+contactColumns+`, s.seller_id
		   FROM contact_requests cr
		   JOIN services s ON s.id = cr.service_id
		  WHERE cr.rating_token = ?
		  FOR UPDATE OF cr`, token)
	c, err := scanContact(row, &sellerID)
	if err != nil {
		return model.ContactRequest{}, 0, err
	}
	return c, sellerID, nil
}

// TokenView is what a client sees before submitting a rating.
type TokenView struct {
	ContactRequest model.ContactRequest
	ServiceTitle   string
	SellerID       uint64
	SellerEmail    string
}

// GetByToken reads the request carrying token along with display data.
func (r *ContactRequestRepo) GetByToken(ctx context.Context, token string) (TokenView, error) {
	var v TokenView
	row := r.db.QueryRowContext(ctx,
		`SELECT `+contactColumns+`, s.title, u.id, u.email
		   FROM contact_requests cr
		   JOIN services s ON s.id = cr.service_id
		   JOIN users u    ON u.id = s.seller_id
		  WHERE cr.rating_token = ?`, token)
	c, err := scanContact(row, &v.ServiceTitle, &v.SellerID, &v.SellerEmail)
	if err != nil {
		return TokenView{}, err
	}
	v.ContactRequest = c
	return v, nil
}

// UpdateStatusTx writes the status and the complete token state.  A nil
// token clears both token columns.
func (r *ContactRequestRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status model.Status, token *string, expiresAt *time.Time) error {
	var exp any
	if token != nil && expiresAt != nil {
		exp = expiresAt.UTC()
	}
	_, err := tx.ExecContext(ctx,
		`UPDATE contact_requests
		    SET status = ?, rating_token = ?, rating_token_expires_at = ?, updated_at = UTC_TIMESTAMP()
		  WHERE id = ?`,
		status, token, exp, id)
	return mapMySQLError(err, "update contact request status")
}

// ClearTokenTx removes the rating token from a request after redemption.
func (r *ContactRequestRepo) ClearTokenTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE contact_requests
		    SET rating_token = NULL, rating_token_expires_at = NULL, updated_at = UTC_TIMESTAMP()
		  WHERE id = ?`, id)
	return mapMySQLError(err, "clear rating token")
}

// SweepByServiceTx moves every request of a service whose status is not in
// excluded to target, dropping token fields, and returns the rows moved.
func (r *ContactRequestRepo) SweepByServiceTx(ctx context.Context, tx *sql.Tx, serviceID uint64, target model.Status, excluded []model.Status) (int64, error) {
	return r.sweepTx(ctx, tx, sq.Eq{"service_id": serviceID}, target, excluded)
}

// SweepBySellerTx is SweepByServiceTx across every service of a seller.
func (r *ContactRequestRepo) SweepBySellerTx(ctx context.Context, tx *sql.Tx, sellerID uint64, target model.Status, excluded []model.Status) (int64, error) {
	return r.sweepTx(ctx, tx, sq.Expr("service_id IN (SELECT id FROM services WHERE seller_id = ?)", sellerID), target, excluded)
}

func (r *ContactRequestRepo) sweepTx(ctx context.Context, tx *sql.Tx, scope sq.Sqlizer, target model.Status, excluded []model.Status) (int64, error) {
	query, args, err := sq.Update("contact_requests").
		Set("status", target).
		Set("rating_token", nil).
		Set("rating_token_expires_at", nil).
		Set("updated_at", sq.Expr("UTC_TIMESTAMP()")).
		Where(scope).
		Where(sq.NotEq{"status": statusStrings(excluded)}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build sweep: %w", err)
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, mapMySQLError(err, "sweep contact requests")
	}
	return res.RowsAffected()
}

// DeleteBySellerTx removes every request on the seller's services.  Their
// ratings go with them through the foreign key.
func (r *ContactRequestRepo) DeleteBySellerTx(ctx context.Context, tx *sql.Tx, sellerID uint64) (int64, error) {
	res, err := tx.ExecContext(ctx,
		`DELETE cr FROM contact_requests cr
		   JOIN services s ON s.id = cr.service_id
		  WHERE s.seller_id = ?`, sellerID)
	if err != nil {
		return 0, mapMySQLError(err, "delete contact requests")
	}
	return res.RowsAffected()
}

// CountBySeller counts the requests on a seller's services.
func (r *ContactRequestRepo) CountBySeller(ctx context.Context, sellerID uint64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM contact_requests cr JOIN services s ON s.id = cr.service_id WHERE s.seller_id = ?`,
		sellerID).Scan(&n)
	return n, mapMySQLError(err, "count contact requests")
}

func statusStrings(ss []model.Status) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = string(s)
	}
	return out
}
