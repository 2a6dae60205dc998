// Package service implements the marketplace core: the contact request
// store, the rating token manager, the rating ledger and the moderation
// engine.  Every mutating operation runs in a single MySQL transaction and
// hands its outbound notification to a Notifier only after commit.
package service

import (
	"time"

	"github.com/iliyamo/service-marketplace/internal/queue"
)

// Notifier accepts post-commit events.  Enqueue must not block; a false
// return means the event was dropped.
type Notifier interface {
	Enqueue(ev queue.NotificationEvent) bool
}

type nopNotifier struct{}

func (nopNotifier) Enqueue(queue.NotificationEvent) bool { return true }

func orNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}

func utcNow() time.Time { return time.Now().UTC() }
