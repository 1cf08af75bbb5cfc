package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/perkpoint/loyalty-backend/internal/models"
)

func sub(status models.SubscriptionStatus, start string) *models.Subscription {
	t, _ := time.Parse("2006-01-02", start)
	return &models.Subscription{Status: status, StartDate: t}
}

func deletedSub(status models.SubscriptionStatus, start string) *models.Subscription {
	s := sub(status, start)
	s.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	return s
}

func TestSelectCurrentStatusPriorityBeatsRecency(t *testing.T) {
	subs := []*models.Subscription{
		sub(models.StatusExpired, "2023-01-01"),
		sub(models.StatusActive, "2022-01-01"),
		sub(models.StatusActive, "2024-01-01"),
	}

	current, err := SelectCurrentSubscription(subs)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, current.Status)
	assert.Equal(t, "2024-01-01", current.StartDate.Format("2006-01-02"))
}

func TestSelectCurrentFullPriorityOrder(t *testing.T) {
	ordered := []models.SubscriptionStatus{
		models.StatusActive,
		models.StatusTrialing,
		models.StatusPastDue,
		models.StatusCanceled,
		models.StatusExpired,
		models.StatusIncomplete,
		models.StatusIncompleteExpired,
		models.StatusUnpaid,
	}

	// Whatever higher-priority statuses are removed, the next one wins.
	for i := 0; i < len(ordered); i++ {
		var subs []*models.Subscription
		for _, st := range ordered[i:] {
			subs = append(subs, sub(st, "2024-01-01"))
		}
		current, err := SelectCurrentSubscription(subs)
		require.NoError(t, err)
		assert.Equal(t, ordered[i], current.Status)
	}
}

func TestSelectCurrentUnknownStatusSinks(t *testing.T) {
	subs := []*models.Subscription{
		sub(models.SubscriptionStatus("mystery"), "2024-06-01"),
		sub(models.StatusUnpaid, "2020-01-01"),
	}

	current, err := SelectCurrentSubscription(subs)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnpaid, current.Status)
}

func TestSelectCurrentTieBreakNewestStart(t *testing.T) {
	subs := []*models.Subscription{
		sub(models.StatusTrialing, "2023-05-01"),
		sub(models.StatusTrialing, "2023-09-01"),
		sub(models.StatusTrialing, "2023-07-01"),
	}

	current, err := SelectCurrentSubscription(subs)
	require.NoError(t, err)
	assert.Equal(t, "2023-09-01", current.StartDate.Format("2006-01-02"))
}

func TestSelectCurrentEmptyInput(t *testing.T) {
	_, err := SelectCurrentSubscription(nil)
	assert.ErrorIs(t, err, ErrSubscriptionsNotFound)
}

func TestSelectCurrentAllSoftDeleted(t *testing.T) {
	subs := []*models.Subscription{
		deletedSub(models.StatusActive, "2024-01-01"),
		deletedSub(models.StatusTrialing, "2023-01-01"),
	}

	_, err := SelectCurrentSubscription(subs)
	assert.ErrorIs(t, err, ErrNoActiveSubscriptions)
}

func TestSelectCurrentSkipsSoftDeleted(t *testing.T) {
	subs := []*models.Subscription{
		deletedSub(models.StatusActive, "2024-01-01"),
		sub(models.StatusPastDue, "2022-01-01"),
	}

	current, err := SelectCurrentSubscription(subs)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPastDue, current.Status)
}
