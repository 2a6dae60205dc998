package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/service-marketplace/internal/model"
)

// ServiceRepo provides access to the services table.
type ServiceRepo struct {
	db *sql.DB
}

func NewServiceRepo(db *sql.DB) *ServiceRepo { return &ServiceRepo{db: db} }

const serviceColumns = "sv.id, sv.seller_id, sv.title, sv.description, sv.is_active, sv.created_at, sv.updated_at"

func scanService(row rowScanner) (model.Service, error) {
	var s model.Service
	err := row.Scan(&s.ID, &s.SellerID, &s.Title, &s.Description, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// GetByID fetches a service regardless of its moderation state.
func (r *ServiceRepo) GetByID(ctx context.Context, id uint64) (model.Service, error) {
	s, err := scanService(r.db.QueryRowContext(ctx,
		"SELECT "+serviceColumns+" FROM services sv WHERE sv.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Service{}, ErrServiceNotFound
	}
	if err != nil {
		return model.Service{}, mapMySQLError(err, "get service")
	}
	return s, nil
}

// ShareContactableTx takes a shared lock on a service that can receive new
// contact requests: the service is active and its seller is active and not
// suspended.  Anything else is ErrServiceNotFound.  The shared lock keeps a
// concurrent moderation action from deactivating the service before the
// new request is inserted.
func (r *ServiceRepo) ShareContactableTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Service, error) {
	s, err := scanService(tx.QueryRowContext(ctx,
		`SELECT `+serviceColumns+`
		   FROM services sv
		   JOIN users u ON u.id = sv.seller_id
		  WHERE sv.id = ?
		    AND sv.is_active = TRUE
		    AND u.is_active = TRUE
		    AND u.is_suspended = FALSE
		    AND u.role = ?
		  FOR SHARE OF sv`, id, model.RoleSeller))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Service{}, ErrServiceNotFound
	}
	if err != nil {
		return model.Service{}, mapMySQLError(err, "lock service")
	}
	return s, nil
}

// LockTx locks a service row for a moderation change.
func (r *ServiceRepo) LockTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Service, error) {
	s, err := scanService(tx.QueryRowContext(ctx,
		"SELECT "+serviceColumns+" FROM services sv WHERE sv.id = ? FOR UPDATE", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Service{}, ErrServiceNotFound
	}
	if err != nil {
		return model.Service{}, mapMySQLError(err, "lock service")
	}
	return s, nil
}

// SetActiveTx sets services.is_active for one service.
func (r *ServiceRepo) SetActiveTx(ctx context.Context, tx *sql.Tx, id uint64, active bool) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE services SET is_active = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?", active, id)
	return mapMySQLError(err, "set service active")
}

// DeactivateBySellerTx hides every service of a seller and returns how many
// were still active.
func (r *ServiceRepo) DeactivateBySellerTx(ctx context.Context, tx *sql.Tx, sellerID uint64) (int64, error) {
	res, err := tx.ExecContext(ctx,
		"UPDATE services SET is_active = FALSE, updated_at = UTC_TIMESTAMP() WHERE seller_id = ? AND is_active = TRUE",
		sellerID)
	if err != nil {
		return 0, mapMySQLError(err, "deactivate services")
	}
	return res.RowsAffected()
}
