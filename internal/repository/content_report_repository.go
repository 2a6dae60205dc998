package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/service-marketplace/internal/model"
)

// ContentReportRepo provides access to the content_reports table.
type ContentReportRepo struct {
	db *sql.DB
}

func NewContentReportRepo(db *sql.DB) *ContentReportRepo { return &ContentReportRepo{db: db} }

// Create files an OPEN report against a service.
func (r *ContentReportRepo) Create(ctx context.Context, serviceID uint64, reporterEmail, reason string) (model.ContentReport, error) {
	now := time.Now().UTC().Truncate(time.Second)
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO content_reports (service_id, reporter_email, reason, status, created_at) VALUES (?, ?, ?, ?, ?)`,
		serviceID, reporterEmail, reason, model.ReportOpen, now)
	if err != nil {
		return model.ContentReport{}, mapMySQLError(err, "insert content report")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.ContentReport{}, err
	}
	return model.ContentReport{
		ID:            uint64(id),
		ServiceID:     serviceID,
		ReporterEmail: reporterEmail,
		Reason:        reason,
		Status:        model.ReportOpen,
		CreatedAt:     now,
	}, nil
}

// ResolveOpenForServiceTx marks every OPEN report on a service RESOLVED.
func (r *ContentReportRepo) ResolveOpenForServiceTx(ctx context.Context, tx *sql.Tx, serviceID uint64) (int64, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE content_reports SET status = ?, resolved_at = UTC_TIMESTAMP() WHERE service_id = ? AND status = ?`,
		model.ReportResolved, serviceID, model.ReportOpen)
	if err != nil {
		return 0, mapMySQLError(err, "resolve content reports")
	}
	return res.RowsAffected()
}

// DeleteBySellerTx removes every report filed against the seller's services.
func (r *ContentReportRepo) DeleteBySellerTx(ctx context.Context, tx *sql.Tx, sellerID uint64) (int64, error) {
	res, err := tx.ExecContext(ctx,
		`DELETE cr FROM content_reports cr JOIN services s ON s.id = cr.service_id WHERE s.seller_id = ?`, sellerID)
	if err != nil {
		return 0, mapMySQLError(err, "delete content reports")
	}
	return res.RowsAffected()
}

// CountBySeller counts reports on the seller's services in any state.
func (r *ContentReportRepo) CountBySeller(ctx context.Context, sellerID uint64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM content_reports cr JOIN services s ON s.id = cr.service_id WHERE s.seller_id = ?`,
		sellerID).Scan(&n)
	return n, mapMySQLError(err, "count content reports")
}
