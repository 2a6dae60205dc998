package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/service-marketplace/internal/database"
	"github.com/iliyamo/service-marketplace/internal/metrics"
	"github.com/iliyamo/service-marketplace/internal/model"
	"github.com/iliyamo/service-marketplace/internal/queue"
	"github.com/iliyamo/service-marketplace/internal/repository"
	"github.com/iliyamo/service-marketplace/internal/validation"
)

// RatingInput is a client's rating submission.  Review text is limited
// to 2000 characters.
type RatingInput struct {
	Token      string  `json:"token"`
	Score      int     `json:"score" validate:"min=1,max=5"`
	ReviewText *string `json:"review_text" validate:"omitempty,max=2000"`
}

// RatingService is the append-only ledger of verified ratings and the
// owner of the seller aggregates derived from it.
type RatingService struct {
	db       *sql.DB
	contacts *repository.ContactRequestRepo
	ratings  *repository.RatingRepo
	users    *repository.UserRepo
	tokens   *TokenManager
	validate *validation.Validator
	notifier Notifier
	log      *zap.Logger
	now      func() time.Time
}

func NewRatingService(
	db *sql.DB,
	contacts *repository.ContactRequestRepo,
	ratings *repository.RatingRepo,
	users *repository.UserRepo,
	tokens *TokenManager,
	validate *validation.Validator,
	notifier Notifier,
	log *zap.Logger,
) *RatingService {
	return &RatingService{
		db:       db,
		contacts: contacts,
		ratings:  ratings,
		users:    users,
		tokens:   tokens,
		validate: validate,
		notifier: orNop(notifier),
		log:      log.Named("rating"),
		now:      utcNow,
	}
}

// CreateFromToken redeems a rating token.  In one transaction it consumes
// the token, stores a verified rating, clears the token and recomputes the
// seller's aggregate.  Input is validated before the token is touched.
func (s *RatingService) CreateFromToken(ctx context.Context, in RatingInput) (model.Rating, error) {
	in.Token = strings.TrimSpace(in.Token)
	if in.ReviewText != nil {
		r := strings.TrimSpace(*in.ReviewText)
		if r == "" {
			in.ReviewText = nil
		} else {
			in.ReviewText = &r
		}
	}
	if err := s.validate.Struct(in); err != nil {
		return model.Rating{}, err
	}
	if in.Token == "" {
		metrics.RatingTokenRedemptions.WithLabelValues("invalid").Inc()
		return model.Rating{}, repository.ErrTokenInvalid
	}

	var rating model.Rating
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		// Seller row first, then the request; moderation locks in the same order.
		sellerID, err := s.contacts.SellerForTokenTx(ctx, tx, in.Token)
		if errors.Is(err, sql.ErrNoRows) {
			return repository.ErrTokenInvalid
		}
		if err != nil {
			return fmt.Errorf("resolve rating token: %w", err)
		}
		if _, err := s.users.LockSellerTx(ctx, tx, sellerID); err != nil {
			if errors.Is(err, repository.ErrSellerNotFound) {
				return repository.ErrTokenInvalid
			}
			return err
		}
		red, err := s.tokens.Consume(ctx, tx, in.Token, s.now())
		if err != nil {
			return err
		}
		rating = model.Rating{
			ContactRequestID: red.Request.ID,
			ServiceID:        red.Request.ServiceID,
			SellerID:         red.SellerID,
			Score:            in.Score,
			ReviewText:       in.ReviewText,
			IsVerified:       true,
		}
		if err := s.ratings.CreateTx(ctx, tx, &rating); err != nil {
			if repository.IsDuplicate(err) {
				return repository.ErrTokenInvalid
			}
			return err
		}
		if err := s.contacts.ClearTokenTx(ctx, tx, red.Request.ID); err != nil {
			return err
		}
		_, err = s.RecomputeSellerStats(ctx, tx, red.SellerID)
		return err
	})
	switch {
	case err == nil:
		metrics.RatingTokenRedemptions.WithLabelValues("ok").Inc()
	case errors.Is(err, repository.ErrTokenExpired):
		metrics.RatingTokenRedemptions.WithLabelValues("expired").Inc()
		return model.Rating{}, err
	case errors.Is(err, repository.ErrTokenInvalid):
		metrics.RatingTokenRedemptions.WithLabelValues("invalid").Inc()
		return model.Rating{}, err
	default:
		return model.Rating{}, err
	}

	ev := queue.NewEvent(queue.KindRatingCreated)
	ev.SellerID = rating.SellerID
	ev.ServiceID = rating.ServiceID
	ev.ContactRequestID = rating.ContactRequestID
	ev.Score = rating.Score
	ev.Title = "New rating"
	s.notifier.Enqueue(ev)
	return rating, nil
}

// RecomputeSellerStats rebuilds the seller's aggregate from every stored
// rating.  The seller row is locked first so concurrent recomputes for the
// same seller serialize; callers that already hold the lock pay nothing.
// The aggregate is a locking read so it sees ratings committed by the
// previous holder.
func (s *RatingService) RecomputeSellerStats(ctx context.Context, tx *sql.Tx, sellerID uint64) (model.SellerStats, error) {
	if _, err := s.users.LockSellerTx(ctx, tx, sellerID); err != nil {
		return model.SellerStats{}, err
	}
	st, err := s.ratings.AggregateForSellerTx(ctx, tx, sellerID)
	if err != nil {
		return model.SellerStats{}, err
	}
	if err := s.users.UpdateStatsTx(ctx, tx, st); err != nil {
		return model.SellerStats{}, err
	}
	return st, nil
}

// RatingList is one page of ratings.
type RatingList struct {
	Items    []model.Rating `json:"items"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

// ByService lists a service's ratings, newest first.
func (s *RatingService) ByService(ctx context.Context, serviceID uint64, page repository.Page) (RatingList, error) {
	page = page.Normalize()
	items, total, err := s.ratings.ListByService(ctx, serviceID, page)
	if err != nil {
		return RatingList{}, err
	}
	return RatingList{Items: items, Total: total, Page: page.Number, PageSize: page.Size}, nil
}

// BySeller lists a seller's ratings across all services, newest first.
func (s *RatingService) BySeller(ctx context.Context, sellerID uint64, page repository.Page) (RatingList, error) {
	page = page.Normalize()
	items, total, err := s.ratings.ListBySeller(ctx, sellerID, page)
	if err != nil {
		return RatingList{}, err
	}
	return RatingList{Items: items, Total: total, Page: page.Number, PageSize: page.Size}, nil
}

// SellerStats reads the stored aggregate of a seller.
func (s *RatingService) SellerStats(ctx context.Context, sellerID uint64) (model.SellerStats, error) {
	return s.users.Stats(ctx, sellerID)
}

// InspectToken is TokenManager.Inspect at the current time.
func (s *RatingService) InspectToken(ctx context.Context, token string) (TokenInfo, error) {
	return s.tokens.Inspect(ctx, strings.TrimSpace(token), s.now())
}
