package testhelper

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
)

func insert(t *testing.T, db *sql.DB, query string, args ...any) uint64 {
	t.Helper()
	res, err := db.ExecContext(context.Background(), query, args...)
	if err != nil {
		t.Fatalf("testhelper: seed: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("testhelper: last insert id: %v", err)
	}
	return uint64(id)
}

func uniqueEmail(prefix string) string {
	return prefix + "-" + uuid.NewString() + "@example.com"
}

// SeedSeller inserts an active, unsuspended seller and returns its id.
func SeedSeller(t *testing.T, db *sql.DB) uint64 {
	t.Helper()
	return insert(t, db, `INSERT INTO users (email, role) VALUES (?, 'SELLER')`, uniqueEmail("seller"))
}

// SeedAdmin inserts an administrator and returns its id.
func SeedAdmin(t *testing.T, db *sql.DB) uint64 {
	t.Helper()
	return insert(t, db, `INSERT INTO users (email, role) VALUES (?, 'ADMIN')`, uniqueEmail("admin"))
}

// SeedService inserts an active service owned by sellerID.
func SeedService(t *testing.T, db *sql.DB, sellerID uint64) uint64 {
	t.Helper()
	return insert(t, db, `INSERT INTO services (seller_id, title, description) VALUES (?, ?, ?)`,
		sellerID, "Service "+uuid.NewString()[:8], "seeded service")
}

// SeedContactRequest inserts a contact request in the given status.
func SeedContactRequest(t *testing.T, db *sql.DB, serviceID uint64, status string) uint64 {
	t.Helper()
	return insert(t, db,
		`INSERT INTO contact_requests (service_id, client_name, client_email, task_description, status) VALUES (?, ?, ?, ?, ?)`,
		serviceID, "Client", uniqueEmail("client"), "seeded task", status)
}

// SeedCompletedWithToken inserts a COMPLETED contact request holding token
// with the given expiry.
func SeedCompletedWithToken(t *testing.T, db *sql.DB, serviceID uint64, token string, expiresAt time.Time) uint64 {
	t.Helper()
	return insert(t, db,
		`INSERT INTO contact_requests (service_id, client_name, client_email, task_description, status, rating_token, rating_token_expires_at)
		 VALUES (?, ?, ?, ?, 'COMPLETED', ?, ?)`,
		serviceID, "Client", uniqueEmail("client"), "seeded task", token, expiresAt.UTC())
}

// SeedSession inserts an unexpired session for userID.
func SeedSession(t *testing.T, db *sql.DB, userID uint64) uint64 {
	t.Helper()
	hash := uuid.NewString() + uuid.NewString()
	return insert(t, db, `INSERT INTO sessions (user_id, token_hash, expires_at) VALUES (?, ?, ?)`,
		userID, hash[:64], time.Now().UTC().Add(24*time.Hour))
}

// SeedReport files an OPEN content report against serviceID.
func SeedReport(t *testing.T, db *sql.DB, serviceID uint64) uint64 {
	t.Helper()
	return insert(t, db, `INSERT INTO content_reports (service_id, reporter_email, reason) VALUES (?, ?, ?)`,
		serviceID, uniqueEmail("reporter"), "misleading listing")
}

// Count runs a COUNT(*) query and returns the result.
func Count(t *testing.T, db *sql.DB, query string, args ...any) int {
	t.Helper()
	var n int
	if err := db.QueryRowContext(context.Background(), query, args...).Scan(&n); err != nil {
		t.Fatalf("testhelper: count: %v", err)
	}
	return n
}
