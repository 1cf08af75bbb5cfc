package services

import (
	"sort"

	"github.com/perkpoint/loyalty-backend/internal/errs"
	"github.com/perkpoint/loyalty-backend/internal/models"
)

var (
	ErrSubscriptionsNotFound = errs.NotFound("company has no subscriptions")
	ErrNoActiveSubscriptions = errs.NotFound("company has no active subscriptions")
)

// statusPriority orders subscription statuses for current-subscription
// resolution. This is an explicit table, not enum declaration order;
// unknown statuses sink to the bottom.
var statusPriority = map[models.SubscriptionStatus]int{
	models.StatusActive:            0,
	models.StatusTrialing:          1,
	models.StatusPastDue:           2,
	models.StatusCanceled:          3,
	models.StatusExpired:           4,
	models.StatusIncomplete:        5,
	models.StatusIncompleteExpired: 6,
	models.StatusUnpaid:            7,
}

const unknownStatusPriority = 99

func priorityOf(status models.SubscriptionStatus) int {
	if p, ok := statusPriority[status]; ok {
		return p
	}
	return unknownStatusPriority
}

// SelectCurrentSubscription picks the single subscription a company is
// considered to be on: best status priority first, then the most
// recent start date among equals. Soft-deleted rows are ignored.
// Pure function, no I/O.
func SelectCurrentSubscription(subs []*models.Subscription) (*models.Subscription, error) {
	if len(subs) == 0 {
		return nil, ErrSubscriptionsNotFound
	}

	live := make([]*models.Subscription, 0, len(subs))
	for _, s := range subs {
		if s.DeletedAt.Valid {
			continue
		}
		live = append(live, s)
	}
	if len(live) == 0 {
		return nil, ErrNoActiveSubscriptions
	}

	sort.SliceStable(live, func(i, j int) bool {
		pi, pj := priorityOf(live[i].Status), priorityOf(live[j].Status)
		if pi != pj {
			return pi < pj
		}
		return live[i].StartDate.After(live[j].StartDate)
	})
	return live[0], nil
}
