package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/iliyamo/service-marketplace/internal/model"
)

// ContactRequestFilter defines filters, ordering and pagination for a
// seller's contact request inbox.
type ContactRequestFilter struct {
	SellerID    uint64
	Statuses    []model.Status
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	// Search matches client name, email or phone as a substring.
	Search    string
	SortBy    string // created_at | updated_at | status
	SortOrder string // asc | desc
	Page      Page
}

const (
	SortCreatedAt = "created_at"
	SortUpdatedAt = "updated_at"
	SortStatus    = "status"
)

func (f ContactRequestFilter) orderBy() string {
	col := SortCreatedAt
	switch f.SortBy {
	case SortUpdatedAt, SortStatus:
		col = f.SortBy
	}
	dir := "DESC"
	if strings.EqualFold(f.SortOrder, "asc") {
		dir = "ASC"
	}
	return fmt.Sprintf("cr.%s %s, cr.id %s", col, dir, dir)
}

// List returns one page of the seller's contact requests and the total
// number of matches.
func (r *ContactRequestRepo) List(ctx context.Context, f ContactRequestFilter) ([]model.ContactRequest, int64, error) {
	page := f.Page.Normalize()

	cond := sq.And{sq.Eq{"s.seller_id": f.SellerID}}
	if len(f.Statuses) > 0 {
		cond = append(cond, sq.Eq{"cr.status": statusStrings(f.Statuses)})
	}
	if f.CreatedFrom != nil {
		cond = append(cond, sq.GtOrEq{"cr.created_at": f.CreatedFrom.UTC()})
	}
	if f.CreatedTo != nil {
		cond = append(cond, sq.LtOrEq{"cr.created_at": f.CreatedTo.UTC()})
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := likePattern(s)
		cond = append(cond, sq.Or{
			sq.Like{"LOWER(cr.client_name)": like},
			sq.Like{"LOWER(cr.client_email)": like},
			sq.Like{"cr.client_phone": like},
		})
	}

	countSQL, countArgs, err := sq.Select("COUNT(*)").
		From("contact_requests cr").
		Join("services s ON s.id = cr.service_id").
		Where(cond).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count: %w", err)
	}
	var total int64
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, mapMySQLError(err, "count contact requests")
	}

	dataSQL, dataArgs, err := sq.Select(contactColumns).
		From("contact_requests cr").
		Join("services s ON s.id = cr.service_id").
		Where(cond).
		OrderBy(f.orderBy()).
		Limit(page.limit()).
		Offset(page.offset()).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list: %w", err)
	}
	rows, err := r.db.QueryContext(ctx, dataSQL, dataArgs...)
	if err != nil {
		return nil, 0, mapMySQLError(err, "list contact requests")
	}
	defer rows.Close()

	out := make([]model.ContactRequest, 0, page.Size)
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern builds a case-folded substring pattern for LIKE, escaping the
// user's wildcards with MySQL's default backslash escape.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}
