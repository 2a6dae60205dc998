package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/service-marketplace/internal/lifecycle"
	"github.com/iliyamo/service-marketplace/internal/model"
	"github.com/iliyamo/service-marketplace/internal/repository"
	"github.com/iliyamo/service-marketplace/internal/utils"
)

// tokenBytes is the entropy of a rating token; it is hex encoded to 64
// characters.
const tokenBytes = 32

// TokenManager issues and redeems the single-use rating tokens attached to
// completed contact requests.
type TokenManager struct {
	contacts *repository.ContactRequestRepo
	ratings  *repository.RatingRepo
}

func NewTokenManager(contacts *repository.ContactRequestRepo, ratings *repository.RatingRepo) *TokenManager {
	return &TokenManager{contacts: contacts, ratings: ratings}
}

// Issue returns a fresh token and its expiry.
func (m *TokenManager) Issue(now time.Time) (string, time.Time, error) {
	tok, err := utils.RandomHex(tokenBytes)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("issue rating token: %w", err)
	}
	return tok, lifecycle.TokenExpiry(now), nil
}

// Redeemable is a locked contact request whose token passed every check.
type Redeemable struct {
	Request  model.ContactRequest
	SellerID uint64
}

// Consume locks the request carrying token and checks it can be redeemed
// at now.  It writes nothing: the caller inserts the rating and clears the
// token in the same transaction.  A concurrent redeemer blocks on the row
// lock and then no longer finds the token.
func (m *TokenManager) Consume(ctx context.Context, tx *sql.Tx, token string, now time.Time) (Redeemable, error) {
	if token == "" {
		return Redeemable{}, repository.ErrTokenInvalid
	}
	c, sellerID, err := m.contacts.LockByTokenTx(ctx, tx, token)
	if errors.Is(err, sql.ErrNoRows) {
		return Redeemable{}, repository.ErrTokenInvalid
	}
	if err != nil {
		return Redeemable{}, fmt.Errorf("lock rating token: %w", err)
	}
	rated, err := m.ratings.ExistsForContactTx(ctx, tx, c.ID)
	if err != nil {
		return Redeemable{}, err
	}
	if err := checkRedeemable(c, rated, now); err != nil {
		return Redeemable{}, err
	}
	return Redeemable{Request: c, SellerID: sellerID}, nil
}

// TokenInfo is the read-only view shown before a rating is submitted.
type TokenInfo struct {
	ContactRequestID uint64    `json:"contact_request_id"`
	ServiceID        uint64    `json:"service_id"`
	ServiceTitle     string    `json:"service_title"`
	SellerID         uint64    `json:"seller_id"`
	ClientName       string    `json:"client_name"`
	ExpiresAt        time.Time `json:"expires_at"`
}

// Inspect validates token without locking or writing anything.
func (m *TokenManager) Inspect(ctx context.Context, token string, now time.Time) (TokenInfo, error) {
	if token == "" {
		return TokenInfo{}, repository.ErrTokenInvalid
	}
	v, err := m.contacts.GetByToken(ctx, token)
	if errors.Is(err, sql.ErrNoRows) {
		return TokenInfo{}, repository.ErrTokenInvalid
	}
	if err != nil {
		return TokenInfo{}, fmt.Errorf("inspect rating token: %w", err)
	}
	rated, err := m.ratings.ExistsForContact(ctx, v.ContactRequest.ID)
	if err != nil {
		return TokenInfo{}, err
	}
	if err := checkRedeemable(v.ContactRequest, rated, now); err != nil {
		return TokenInfo{}, err
	}
	return TokenInfo{
		ContactRequestID: v.ContactRequest.ID,
		ServiceID:        v.ContactRequest.ServiceID,
		ServiceTitle:     v.ServiceTitle,
		SellerID:         v.SellerID,
		ClientName:       v.ContactRequest.ClientName,
		ExpiresAt:        *v.ContactRequest.RatingTokenExpiresAt,
	}, nil
}

// checkRedeemable applies the token rules in order: expiry first, then
// status, then prior rating.  The request must carry the token.
func checkRedeemable(c model.ContactRequest, rated bool, now time.Time) error {
	if c.RatingTokenExpiresAt == nil {
		return repository.ErrTokenInvalid
	}
	if !now.UTC().Before(*c.RatingTokenExpiresAt) {
		return repository.ErrTokenExpired
	}
	if c.Status != model.StatusCompleted {
		return repository.ErrTokenInvalid
	}
	if rated {
		return repository.ErrTokenInvalid
	}
	return nil
}
