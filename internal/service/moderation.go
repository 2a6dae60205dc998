package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/iliyamo/service-marketplace/internal/database"
	"github.com/iliyamo/service-marketplace/internal/metrics"
	"github.com/iliyamo/service-marketplace/internal/model"
	"github.com/iliyamo/service-marketplace/internal/queue"
	"github.com/iliyamo/service-marketplace/internal/repository"
)

// DefaultMinJustification is the shortest justification accepted for a
// moderation action, in characters after trimming.
const DefaultMinJustification = 10

// Cascader moves contact requests when a service or seller leaves the
// marketplace.  *ContactService implements it.
type Cascader interface {
	CascadeServiceDeleted(ctx context.Context, tx *sql.Tx, serviceID uint64) (int64, error)
	CascadeSellerInactive(ctx context.Context, tx *sql.Tx, sellerID uint64) (int64, error)
}

// ModerationInput is an admin decision about one service or seller.
// TargetID is a service id for service actions and a seller id for seller
// actions.  Notes stay internal and are never shown to the seller.
type ModerationInput struct {
	AdminID       uint64
	TargetID      uint64
	Justification string
	Notes         *string
}

// ModerationResult describes a committed moderation action.
type ModerationResult struct {
	Action       model.ModerationAction `json:"action"`
	Notification *model.Notification    `json:"notification,omitempty"`
	Swept        int64                  `json:"contact_requests_swept"`
}

// outcome is what an action handler reports back to the shared pipeline.
type outcome struct {
	serviceID   *uint64
	sellerID    uint64
	sellerEmail string
	title       string
	message     string
	notify      bool
	swept       int64
	sweptTo     model.Status
}

type actionHandler func(ctx context.Context, tx *sql.Tx, in ModerationInput) (outcome, error)

// ModerationService applies admin actions.  Each action locks its target,
// changes state, cascades to contact requests, appends one audit record
// and one seller notification, all in one transaction.
type ModerationService struct {
	db               *sql.DB
	services         *repository.ServiceRepo
	users            *repository.UserRepo
	sessions         *repository.SessionRepo
	contacts         *repository.ContactRequestRepo
	reports          *repository.ContentReportRepo
	actions          *repository.ModerationActionRepo
	notifications    *repository.NotificationRepo
	cascade          Cascader
	notifier         Notifier
	log              *zap.Logger
	minJustification int
}

// ModerationDeps groups the repositories the engine writes to.
type ModerationDeps struct {
	Services      *repository.ServiceRepo
	Users         *repository.UserRepo
	Sessions      *repository.SessionRepo
	Contacts      *repository.ContactRequestRepo
	Reports       *repository.ContentReportRepo
	Actions       *repository.ModerationActionRepo
	Notifications *repository.NotificationRepo
}

func NewModerationService(db *sql.DB, deps ModerationDeps, cascade Cascader, notifier Notifier, log *zap.Logger, minJustification int) *ModerationService {
	if minJustification <= 0 {
		minJustification = DefaultMinJustification
	}
	return &ModerationService{
		db:               db,
		services:         deps.Services,
		users:            deps.Users,
		sessions:         deps.Sessions,
		contacts:         deps.Contacts,
		reports:          deps.Reports,
		actions:          deps.Actions,
		notifications:    deps.Notifications,
		cascade:          cascade,
		notifier:         orNop(notifier),
		log:              log.Named("moderation"),
		minJustification: minJustification,
	}
}

func (s *ModerationService) handler(action model.ModerationActionType) (actionHandler, bool) {
	switch action {
	case model.ActionApproveService:
		return s.approveService, true
	case model.ActionDeleteService:
		return s.deleteService, true
	case model.ActionSuspendSeller:
		return s.suspendSeller, true
	case model.ActionReinstateSeller:
		return s.reinstateSeller, true
	case model.ActionDeleteSeller:
		return s.deleteSeller, true
	}
	return nil, false
}

func (s *ModerationService) validateInput(in *ModerationInput) error {
	var errs []repository.FieldError
	in.Justification = strings.TrimSpace(in.Justification)
	if in.AdminID == 0 {
		errs = append(errs, repository.FieldError{Field: "admin_id", Message: "required"})
	}
	if in.TargetID == 0 {
		errs = append(errs, repository.FieldError{Field: "target_id", Message: "required"})
	}
	if utf8.RuneCountInString(in.Justification) < s.minJustification {
		errs = append(errs, repository.FieldError{
			Field:   "justification",
			Message: fmt.Sprintf("must be at least %d characters", s.minJustification),
		})
	}
	if in.Notes != nil {
		n := strings.TrimSpace(*in.Notes)
		if n == "" {
			in.Notes = nil
		} else {
			in.Notes = &n
		}
	}
	if len(errs) > 0 {
		return &repository.ValidationError{Errors: errs}
	}
	return nil
}

// Apply runs one moderation action.
func (s *ModerationService) Apply(ctx context.Context, action model.ModerationActionType, in ModerationInput) (ModerationResult, error) {
	h, ok := s.handler(action)
	if !ok {
		return ModerationResult{}, repository.NewValidationError("action", fmt.Sprintf("unknown moderation action %q", action))
	}
	if err := s.validateInput(&in); err != nil {
		return ModerationResult{}, err
	}

	var (
		res ModerationResult
		out outcome
	)
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		out, err = h(ctx, tx, in)
		if err != nil {
			return err
		}
		sellerID := out.sellerID
		res.Action = model.ModerationAction{
			AdminID:       in.AdminID,
			ServiceID:     out.serviceID,
			SellerID:      &sellerID,
			Action:        action,
			Justification: in.Justification,
			InternalNotes: in.Notes,
		}
		if err := s.actions.CreateTx(ctx, tx, &res.Action); err != nil {
			return err
		}
		res.Swept = out.swept
		if !out.notify {
			return nil
		}
		actionID := res.Action.ID
		n := &model.Notification{
			SellerID:           out.sellerID,
			ModerationActionID: &actionID,
			Kind:               queue.ModerationKind(string(action)),
			Title:              out.title,
			Message:            out.message,
		}
		if err := s.notifications.CreateTx(ctx, tx, n); err != nil {
			return err
		}
		res.Notification = n
		return nil
	})
	if err != nil {
		return ModerationResult{}, err
	}

	metrics.ModerationActions.WithLabelValues(string(action)).Inc()
	if out.swept > 0 {
		metrics.CascadedContactRequests.WithLabelValues(string(out.sweptTo)).Add(float64(out.swept))
	}
	s.log.Info("moderation action applied",
		zap.String("action", string(action)),
		zap.Uint64("admin_id", in.AdminID),
		zap.Uint64("target_id", in.TargetID),
		zap.Uint64("moderation_action_id", res.Action.ID),
		zap.Int64("contact_requests_swept", out.swept))

	ev := queue.NewEvent(queue.ModerationKind(string(action)))
	ev.SellerID = out.sellerID
	ev.SellerEmail = out.sellerEmail
	if out.serviceID != nil {
		ev.ServiceID = *out.serviceID
	}
	ev.ModerationActionID = res.Action.ID
	if res.Notification != nil {
		ev.NotificationID = res.Notification.ID
	}
	ev.Title = out.title
	ev.Message = out.message
	s.notifier.Enqueue(ev)
	return res, nil
}

func (s *ModerationService) ApproveService(ctx context.Context, in ModerationInput) (ModerationResult, error) {
	return s.Apply(ctx, model.ActionApproveService, in)
}

func (s *ModerationService) DeleteService(ctx context.Context, in ModerationInput) (ModerationResult, error) {
	return s.Apply(ctx, model.ActionDeleteService, in)
}

func (s *ModerationService) SuspendSeller(ctx context.Context, in ModerationInput) (ModerationResult, error) {
	return s.Apply(ctx, model.ActionSuspendSeller, in)
}

func (s *ModerationService) ReinstateSeller(ctx context.Context, in ModerationInput) (ModerationResult, error) {
	return s.Apply(ctx, model.ActionReinstateSeller, in)
}

func (s *ModerationService) DeleteSeller(ctx context.Context, in ModerationInput) (ModerationResult, error) {
	return s.Apply(ctx, model.ActionDeleteSeller, in)
}

func (s *ModerationService) approveService(ctx context.Context, tx *sql.Tx, in ModerationInput) (outcome, error) {
	svc, err := s.services.LockTx(ctx, tx, in.TargetID)
	if err != nil {
		return outcome{}, err
	}
	if err := s.services.SetActiveTx(ctx, tx, svc.ID, true); err != nil {
		return outcome{}, err
	}
	if _, err := s.reports.ResolveOpenForServiceTx(ctx, tx, svc.ID); err != nil {
		return outcome{}, err
	}
	return outcome{
		serviceID: &svc.ID,
		sellerID:  svc.SellerID,
		title:     "Service approved",
		message:   fmt.Sprintf("Your service %q was approved. Reason: %s", svc.Title, in.Justification),
		notify:    true,
	}, nil
}

func (s *ModerationService) deleteService(ctx context.Context, tx *sql.Tx, in ModerationInput) (outcome, error) {
	svc, err := s.services.LockTx(ctx, tx, in.TargetID)
	if err != nil {
		return outcome{}, err
	}
	if err := s.services.SetActiveTx(ctx, tx, svc.ID, false); err != nil {
		return outcome{}, err
	}
	if _, err := s.reports.ResolveOpenForServiceTx(ctx, tx, svc.ID); err != nil {
		return outcome{}, err
	}
	swept, err := s.cascade.CascadeServiceDeleted(ctx, tx, svc.ID)
	if err != nil {
		return outcome{}, err
	}
	return outcome{
		serviceID: &svc.ID,
		sellerID:  svc.SellerID,
		title:     "Service removed",
		message:   fmt.Sprintf("Your service %q was removed by moderation. Reason: %s", svc.Title, in.Justification),
		notify:    true,
		swept:     swept,
		sweptTo:   model.StatusServiceDeleted,
	}, nil
}

func (s *ModerationService) suspendSeller(ctx context.Context, tx *sql.Tx, in ModerationInput) (outcome, error) {
	seller, err := s.users.LockSellerTx(ctx, tx, in.TargetID)
	if err != nil {
		return outcome{}, err
	}
	if seller.IsSuspended {
		return outcome{}, fmt.Errorf("%w: seller %d is already suspended", repository.ErrConflict, seller.ID)
	}
	if err := s.users.SetSuspendedTx(ctx, tx, seller.ID, true); err != nil {
		return outcome{}, err
	}
	if _, err := s.services.DeactivateBySellerTx(ctx, tx, seller.ID); err != nil {
		return outcome{}, err
	}
	swept, err := s.cascade.CascadeSellerInactive(ctx, tx, seller.ID)
	if err != nil {
		return outcome{}, err
	}
	if _, err := s.sessions.RevokeAllForUserTx(ctx, tx, seller.ID); err != nil {
		return outcome{}, err
	}
	return outcome{
		sellerID:    seller.ID,
		sellerEmail: seller.Email,
		title:       "Account suspended",
		message:     "Your seller account was suspended and your services were hidden. Reason: " + in.Justification,
		notify:      true,
		swept:       swept,
		sweptTo:     model.StatusSellerInactive,
	}, nil
}

func (s *ModerationService) reinstateSeller(ctx context.Context, tx *sql.Tx, in ModerationInput) (outcome, error) {
	seller, err := s.users.LockSellerTx(ctx, tx, in.TargetID)
	if err != nil {
		return outcome{}, err
	}
	if !seller.IsSuspended {
		return outcome{}, fmt.Errorf("%w: seller %d is not suspended", repository.ErrConflict, seller.ID)
	}
	if err := s.users.SetSuspendedTx(ctx, tx, seller.ID, false); err != nil {
		return outcome{}, err
	}
	return outcome{
		sellerID:    seller.ID,
		sellerEmail: seller.Email,
		title:       "Account reinstated",
		message:     "Your seller account was reinstated. Services stay hidden until approved. Reason: " + in.Justification,
		notify:      true,
	}, nil
}

// deleteSeller erases a seller.  The audit record survives because it
// holds plain ids; no notification row is written since its recipient is
// gone, but the outbound event still carries the email snapshot.
func (s *ModerationService) deleteSeller(ctx context.Context, tx *sql.Tx, in ModerationInput) (outcome, error) {
	seller, err := s.users.LockSellerTx(ctx, tx, in.TargetID)
	if err != nil {
		return outcome{}, err
	}
	if _, err := s.contacts.DeleteBySellerTx(ctx, tx, seller.ID); err != nil {
		return outcome{}, err
	}
	if _, err := s.reports.DeleteBySellerTx(ctx, tx, seller.ID); err != nil {
		return outcome{}, err
	}
	if _, err := s.sessions.DeleteAllForUserTx(ctx, tx, seller.ID); err != nil {
		return outcome{}, err
	}
	if err := s.users.DeleteTx(ctx, tx, seller.ID); err != nil {
		return outcome{}, err
	}
	return outcome{
		sellerID:    seller.ID,
		sellerEmail: seller.Email,
		title:       "Account deleted",
		message:     "Your seller account and all its data were deleted. Reason: " + in.Justification,
	}, nil
}

// History lists moderation records, newest first.
func (s *ModerationService) History(ctx context.Context, f repository.ModerationHistoryFilter) ([]model.ModerationAction, int64, error) {
	if f.Action != "" {
		if _, ok := s.handler(f.Action); !ok {
			return nil, 0, repository.NewValidationError("action", fmt.Sprintf("unknown moderation action %q", f.Action))
		}
	}
	return s.actions.List(ctx, f)
}

// ListNotifications returns a seller's notifications, newest first.
func (s *ModerationService) ListNotifications(ctx context.Context, sellerID uint64, unreadOnly bool, page repository.Page) ([]model.Notification, int64, error) {
	return s.notifications.ListForSeller(ctx, sellerID, unreadOnly, page)
}

// MarkNotificationRead flags one of the seller's notifications as read.
func (s *ModerationService) MarkNotificationRead(ctx context.Context, sellerID, notificationID uint64) error {
	return s.notifications.MarkRead(ctx, sellerID, notificationID)
}

