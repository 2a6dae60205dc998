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
	"github.com/iliyamo/service-marketplace/internal/lifecycle"
	"github.com/iliyamo/service-marketplace/internal/metrics"
	"github.com/iliyamo/service-marketplace/internal/model"
	"github.com/iliyamo/service-marketplace/internal/queue"
	"github.com/iliyamo/service-marketplace/internal/repository"
	"github.com/iliyamo/service-marketplace/internal/validation"
)

// ContactService owns contact request creation, seller status changes and
// the moderation sweeps over contact requests.
type ContactService struct {
	db       *sql.DB
	contacts *repository.ContactRequestRepo
	services *repository.ServiceRepo
	ratings  *repository.RatingRepo
	tokens   *TokenManager
	validate *validation.Validator
	notifier Notifier
	log      *zap.Logger
	now      func() time.Time
}

func NewContactService(
	db *sql.DB,
	contacts *repository.ContactRequestRepo,
	services *repository.ServiceRepo,
	ratings *repository.RatingRepo,
	tokens *TokenManager,
	validate *validation.Validator,
	notifier Notifier,
	log *zap.Logger,
) *ContactService {
	return &ContactService{
		db:       db,
		contacts: contacts,
		services: services,
		ratings:  ratings,
		tokens:   tokens,
		validate: validate,
		notifier: orNop(notifier),
		log:      log.Named("contact"),
		now:      utcNow,
	}
}

func normalizeClientInfo(in model.ClientInfo) model.ClientInfo {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.TaskDescription = strings.TrimSpace(in.TaskDescription)
	if in.Phone != nil {
		p := strings.TrimSpace(*in.Phone)
		if p == "" {
			in.Phone = nil
		} else {
			in.Phone = &p
		}
	}
	return in
}

// Create records a new inquiry against a contactable service.  The service
// must be active and its seller active and not suspended; otherwise the
// service is reported as not found.
func (s *ContactService) Create(ctx context.Context, serviceID uint64, info model.ClientInfo) (model.ContactRequest, error) {
	info = normalizeClientInfo(info)
	if err := s.validate.Struct(info); err != nil {
		return model.ContactRequest{}, err
	}

	var (
		created model.ContactRequest
		svc     model.Service
	)
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		svc, err = s.services.ShareContactableTx(ctx, tx, serviceID)
		if err != nil {
			return err
		}
		created, err = s.contacts.CreateTx(ctx, tx, serviceID, info)
		return err
	})
	if err != nil {
		return model.ContactRequest{}, err
	}

	metrics.ContactRequestsCreated.Inc()
	ev := queue.NewEvent(queue.KindContactCreated)
	ev.SellerID = svc.SellerID
	ev.ServiceID = svc.ID
	ev.ContactRequestID = created.ID
	ev.Title = "New contact request"
	ev.Message = fmt.Sprintf("%s sent a request for %q.", created.ClientName, svc.Title)
	s.notifier.Enqueue(ev)
	return created, nil
}

// Transitioned is the result of a seller status change.  IssuedToken is
// set only when this transition attached a new rating token; it is meant
// for delivery to the client, never for the seller.
type Transitioned struct {
	Request     model.ContactRequest
	Plan        lifecycle.Plan
	IssuedToken string
}

// Transition moves a contact request owned by sellerID to target.
func (s *ContactService) Transition(ctx context.Context, contactID, sellerID uint64, target model.Status) (Transitioned, error) {
	var out Transitioned
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		c, owner, err := s.contacts.LockWithSellerTx(ctx, tx, contactID)
		if err != nil {
			return err
		}
		if owner != sellerID {
			return repository.ErrForbidden
		}
		rated, err := s.ratings.ExistsForContactTx(ctx, tx, c.ID)
		if err != nil {
			return err
		}
		plan, err := lifecycle.PlanTransition(lifecycle.State{
			Status:    c.Status,
			HasToken:  c.HasToken(),
			HasRating: rated,
		}, target)
		if err != nil {
			return lifecycleError(err)
		}

		token, expires := c.RatingToken, c.RatingTokenExpiresAt
		switch {
		case plan.IssueToken:
			raw, exp, err := s.tokens.Issue(s.now())
			if err != nil {
				return err
			}
			token, expires = &raw, &exp
			out.IssuedToken = raw
		case plan.ClearToken:
			token, expires = nil, nil
		}
		if err := s.contacts.UpdateStatusTx(ctx, tx, c.ID, plan.To, token, expires); err != nil {
			return err
		}

		c.Status = plan.To
		c.RatingToken, c.RatingTokenExpiresAt = token, expires
		c.UpdatedAt = s.now().Truncate(time.Second)
		out.Request, out.Plan = c, plan
		return nil
	})
	if err != nil {
		return Transitioned{}, err
	}

	metrics.StatusTransitions.WithLabelValues(string(target)).Inc()
	if out.IssuedToken != "" {
		metrics.RatingTokensIssued.Inc()
		ev := queue.NewEvent(queue.KindContactCompleted)
		ev.SellerID = sellerID
		ev.ServiceID = out.Request.ServiceID
		ev.ContactRequestID = out.Request.ID
		ev.ClientEmail = out.Request.ClientEmail
		ev.RatingToken = out.IssuedToken
		ev.RatingTokenExpires = out.Request.RatingTokenExpiresAt.Format(time.RFC3339)
		ev.Title = "Rate your experience"
		s.notifier.Enqueue(ev)
	}
	return out, nil
}

func lifecycleError(err error) error {
	switch {
	case errors.Is(err, lifecycle.ErrInvalidTarget):
		return repository.NewValidationError("status", err.Error())
	case errors.Is(err, lifecycle.ErrCascadeLocked):
		return fmt.Errorf("%w: %v", repository.ErrConflict, err)
	}
	return err
}

// CascadeServiceDeleted moves the service's open contact requests to
// SERVICE_DELETED inside the caller's transaction.  Re-running it moves
// nothing.
func (s *ContactService) CascadeServiceDeleted(ctx context.Context, tx *sql.Tx, serviceID uint64) (int64, error) {
	target := model.StatusServiceDeleted
	return s.contacts.SweepByServiceTx(ctx, tx, serviceID, target, lifecycle.SweepExcludes(target))
}

// CascadeSellerInactive moves the open contact requests of every service
// of the seller to SELLER_INACTIVE inside the caller's transaction.
func (s *ContactService) CascadeSellerInactive(ctx context.Context, tx *sql.Tx, sellerID uint64) (int64, error) {
	target := model.StatusSellerInactive
	return s.contacts.SweepBySellerTx(ctx, tx, sellerID, target, lifecycle.SweepExcludes(target))
}

// ContactList is one page of a seller's contact requests.
type ContactList struct {
	Items    []model.ContactRequest `json:"items"`
	Total    int64                  `json:"total"`
	Page     int                    `json:"page"`
	PageSize int                    `json:"page_size"`
}

// List returns a page of the seller's contact requests.
func (s *ContactService) List(ctx context.Context, f repository.ContactRequestFilter) (ContactList, error) {
	if f.SellerID == 0 {
		return ContactList{}, repository.NewValidationError("seller_id", "required")
	}
	for _, st := range f.Statuses {
		if !st.Valid() {
			return ContactList{}, repository.NewValidationError("status", fmt.Sprintf("unknown status %q", st))
		}
	}
	if f.CreatedFrom != nil && f.CreatedTo != nil && f.CreatedTo.Before(*f.CreatedFrom) {
		return ContactList{}, repository.NewValidationError("created_to", "must not be before created_from")
	}
	f.Page = f.Page.Normalize()
	items, total, err := s.contacts.List(ctx, f)
	if err != nil {
		return ContactList{}, err
	}
	return ContactList{Items: items, Total: total, Page: f.Page.Number, PageSize: f.Page.Size}, nil
}

// Get returns one contact request if sellerID owns it.
func (s *ContactService) Get(ctx context.Context, contactID, sellerID uint64) (model.ContactRequest, error) {
	c, owner, err := s.contacts.GetWithSeller(ctx, contactID)
	if err != nil {
		return model.ContactRequest{}, err
	}
	if owner != sellerID {
		return model.ContactRequest{}, repository.ErrForbidden
	}
	return c, nil
}
