package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perkpoint/loyalty-backend/internal/errs"
	"github.com/perkpoint/loyalty-backend/internal/models"
	"github.com/perkpoint/loyalty-backend/internal/storage"
)

type cashbackFixture struct {
	store    *storage.MemoryStore
	notifier *captureNotifier
	svc      *CashbackService
	company  *models.Company
	customer *models.CustomerRole
	account  *models.Account
}

func newCashbackFixture(t *testing.T) *cashbackFixture {
	t.Helper()
	store := storage.NewMemoryStore()
	notifier := &captureNotifier{}
	otp := NewOTPService(store, notifier, "test-pepper")
	f := &cashbackFixture{
		store:    store,
		notifier: notifier,
		svc:      NewCashbackService(store, otp),
	}

	owner, err := store.CreateAccount(&models.AccountRegistration{Phone: "+20000000001"})
	require.NoError(t, err)
	f.company, err = store.CreateCompany(&models.Company{Name: "Beanhouse", OwnerID: owner.ID, IsActive: true})
	require.NoError(t, err)

	f.account, err = store.CreateAccount(&models.AccountRegistration{Phone: "+20000000002"})
	require.NoError(t, err)
	f.customer, err = store.CreateCustomerRole(&models.CustomerRole{
		AccountID: f.account.ID,
		CompanyID: f.company.ID,
		IsActive:  true,
	})
	require.NoError(t, err)

	_, err = store.UpsertCashbackSetting(&models.CashbackSetting{
		CompanyID:     f.company.ID,
		Percent:       10,
		MinPurchase:   100,
		MaxSpendShare: 0.5,
		IsActive:      true,
	})
	require.NoError(t, err)
	return f
}

func TestEarnAccruesPercent(t *testing.T) {
	f := newCashbackFixture(t)

	txn, err := f.svc.Earn(f.company.ID, 0, 0, f.customer.ID, 500)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionEarn, txn.Type)
	assert.InDelta(t, 50, txn.CashbackAmount, 1e-9)
	assert.InDelta(t, 50, txn.BalanceAfter, 1e-9)
}

func TestEarnBelowMinimumAccruesNothing(t *testing.T) {
	f := newCashbackFixture(t)

	txn, err := f.svc.Earn(f.company.ID, 0, 0, f.customer.ID, 50)
	require.NoError(t, err)
	assert.Zero(t, txn.CashbackAmount)
	assert.Zero(t, txn.BalanceAfter)
}

func TestEarnRejectsNonPositiveAmount(t *testing.T) {
	f := newCashbackFixture(t)

	_, err := f.svc.Earn(f.company.ID, 0, 0, f.customer.ID, 0)
	assert.Equal(t, errs.KindBadRequest, errs.KindOf(err))
}

func TestSpendFlow(t *testing.T) {
	f := newCashbackFixture(t)

	_, err := f.svc.Earn(f.company.ID, 0, 0, f.customer.ID, 1000) // balance 100
	require.NoError(t, err)
	customer, err := f.store.GetCustomerRole(f.account.ID, f.company.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.RequestSpend(customer, 200, 80, models.ChannelSMS))
	code := f.notifier.last()

	txn, err := f.svc.ConfirmSpend(customer, 0, 0, 200, 80, code)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionSpend, txn.Type)
	assert.InDelta(t, -80, txn.CashbackAmount, 1e-9)
	assert.InDelta(t, 20, txn.BalanceAfter, 1e-9)
}

func TestSpendRejectsWrongCode(t *testing.T) {
	f := newCashbackFixture(t)

	_, err := f.svc.Earn(f.company.ID, 0, 0, f.customer.ID, 1000)
	require.NoError(t, err)
	customer, err := f.store.GetCustomerRole(f.account.ID, f.company.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.RequestSpend(customer, 200, 50, models.ChannelSMS))
	code := f.notifier.last()
	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	_, err = f.svc.ConfirmSpend(customer, 0, 0, 200, 50, wrong)
	assert.ErrorIs(t, err, ErrOTPInvalid)

	// Balance untouched.
	customer, err = f.store.GetCustomerRole(f.account.ID, f.company.ID)
	require.NoError(t, err)
	assert.InDelta(t, 100, customer.CashbackBalance, 1e-9)
}

func TestSpendExceedingBalance(t *testing.T) {
	f := newCashbackFixture(t)

	err := f.svc.RequestSpend(f.customer, 1000, 10, models.ChannelSMS)
	assert.Equal(t, errs.KindConflict, errs.KindOf(err))
}

func TestSpendExceedingShareCap(t *testing.T) {
	f := newCashbackFixture(t)

	_, err := f.svc.Earn(f.company.ID, 0, 0, f.customer.ID, 1000) // balance 100
	require.NoError(t, err)
	customer, err := f.store.GetCustomerRole(f.account.ID, f.company.ID)
	require.NoError(t, err)

	// 80 > 50% of a 100 purchase.
	err = f.svc.RequestSpend(customer, 100, 80, models.ChannelSMS)
	assert.Equal(t, errs.KindBadRequest, errs.KindOf(err))
}
