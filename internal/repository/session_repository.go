package repository

import (
	"context"
	"database/sql"
)

// SessionRepo touches the sessions table owned by the auth service.  The
// marketplace core only needs to drop every session of an erased seller.
type SessionRepo struct{ DB *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{DB: db} }

// DeleteAllForUserTx removes every session of a user, active or revoked.
func (r *SessionRepo) DeleteAllForUserTx(ctx context.Context, tx *sql.Tx, userID uint64) (int64, error) {
	res, err := tx.ExecContext(ctx, "DELETE FROM sessions WHERE user_id=?", userID)
	if err != nil {
		return 0, mapMySQLError(err, "delete sessions")
	}
	return res.RowsAffected()
}

// RevokeAllForUserTx marks the user's live sessions revoked so a suspended
// seller is logged out without losing the audit trail.
func (r *SessionRepo) RevokeAllForUserTx(ctx context.Context, tx *sql.Tx, userID uint64) (int64, error) {
	res, err := tx.ExecContext(ctx,
		"UPDATE sessions SET revoked_at=UTC_TIMESTAMP() WHERE user_id=? AND revoked_at IS NULL", userID)
	if err != nil {
		return 0, mapMySQLError(err, "revoke sessions")
	}
	return res.RowsAffected()
}
