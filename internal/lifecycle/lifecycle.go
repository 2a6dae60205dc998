// Package lifecycle decides which contact request status changes are legal
// and what must happen to the rating token when they occur.  It performs
// no I/O; callers load the current state under a row lock, ask for a Plan
// and persist it in the same transaction.
package lifecycle

import (
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/service-marketplace/internal/model"
)

// TokenTTL is how long an issued rating token stays redeemable.
const TokenTTL = 30 * 24 * time.Hour

var (
	// ErrInvalidTarget is returned when a seller asks for a status that
	// only moderation may set, or for an unknown status.
	ErrInvalidTarget = errors.New("invalid target status")
	// ErrCascadeLocked is returned when the request was moved into a
	// cascade state and no longer accepts seller transitions.
	ErrCascadeLocked = errors.New("contact request is closed by moderation")
)

// SellerTargets are the statuses a seller may request.
var SellerTargets = []model.Status{
	model.StatusNew,
	model.StatusSeen,
	model.StatusInProcess,
	model.StatusCompleted,
	model.StatusNoInterest,
}

// State is the part of a contact request the machine needs.
type State struct {
	Status    model.Status
	HasToken  bool
	HasRating bool
}

// Plan is the outcome of a legal transition.
type Plan struct {
	From       model.Status
	To         model.Status
	IssueToken bool
	ClearToken bool
}

// IsSellerTarget reports whether s is in SellerTargets.
func IsSellerTarget(s model.Status) bool {
	for _, t := range SellerTargets {
		if s == t {
			return true
		}
	}
	return false
}

// PlanTransition validates a seller-initiated move from current to target.
// Moves between seller statuses are unrestricted, including backwards and
// to the same status.  A token is issued on entering COMPLETED only when
// none is attached and the request was never rated; leaving COMPLETED
// drops the token.
func PlanTransition(current State, target model.Status) (Plan, error) {
	if !IsSellerTarget(target) {
		return Plan{}, fmt.Errorf("%w: %q", ErrInvalidTarget, target)
	}
	if current.Status.IsCascadeTerminal() {
		return Plan{}, fmt.Errorf("%w: status %s", ErrCascadeLocked, current.Status)
	}
	p := Plan{From: current.Status, To: target}
	if target == model.StatusCompleted {
		p.IssueToken = !current.HasToken && !current.HasRating
	} else {
		p.ClearToken = current.HasToken
	}
	return p, nil
}

// SweepExcludes returns the statuses a cascade into target leaves alone.
// COMPLETED work keeps its history and rows already in target are not
// rewritten, which makes repeated sweeps no-ops.
func SweepExcludes(target model.Status) []model.Status {
	return []model.Status{model.StatusCompleted, target}
}

// SweepEligible returns the complement of SweepExcludes(target).
func SweepEligible(target model.Status) []model.Status {
	excluded := SweepExcludes(target)
	out := make([]model.Status, 0, len(model.AllStatuses))
	for _, s := range model.AllStatuses {
		skip := false
		for _, e := range excluded {
			if s == e {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, s)
		}
	}
	return out
}

// TokenExpiry returns the expiry for a token issued at now.
func TokenExpiry(now time.Time) time.Time {
	return now.UTC().Add(TokenTTL)
}
