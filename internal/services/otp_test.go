package services

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perkpoint/loyalty-backend/internal/models"
	"github.com/perkpoint/loyalty-backend/internal/storage"
)

// captureNotifier records delivered codes so tests can submit them.
type captureNotifier struct {
	mu    sync.Mutex
	codes []string
	fail  bool
}

func (n *captureNotifier) SendOTP(channel models.OTPChannel, phone, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.codes = append(n.codes, code)
	if n.fail {
		return fmt.Errorf("provider unreachable")
	}
	return nil
}

func (n *captureNotifier) last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.codes[len(n.codes)-1]
}

func newOTPFixture(t *testing.T) (*OTPService, *captureNotifier, *models.Account) {
	t.Helper()
	store := storage.NewMemoryStore()
	notifier := &captureNotifier{}
	svc := NewOTPService(store, notifier, "test-pepper")

	account, err := store.CreateAccount(&models.AccountRegistration{Phone: "+79990001122"})
	require.NoError(t, err)
	return svc, notifier, account
}

func TestOTPRequestAndVerify(t *testing.T) {
	svc, notifier, account := newOTPFixture(t)

	otp, err := svc.Request(account.ID, models.PurposeBackofficeLogin, models.ChannelSMS)
	require.NoError(t, err)
	assert.False(t, otp.IsUsed)
	assert.NotEmpty(t, otp.CodeHash)

	code := notifier.last()
	require.Len(t, code, 6)

	require.NoError(t, svc.Verify(account.ID, models.PurposeBackofficeLogin, code))

	// A consumed code cannot be replayed.
	err = svc.Verify(account.ID, models.PurposeBackofficeLogin, code)
	assert.ErrorIs(t, err, ErrOTPNotFound)
}

func TestOTPReissueInvalidatesPredecessor(t *testing.T) {
	svc, notifier, account := newOTPFixture(t)

	_, err := svc.Request(account.ID, models.PurposeBackofficeLogin, models.ChannelSMS)
	require.NoError(t, err)
	first := notifier.last()

	_, err = svc.Request(account.ID, models.PurposeBackofficeLogin, models.ChannelSMS)
	require.NoError(t, err)
	second := notifier.last()

	if first == second {
		t.Skip("collision between generated codes")
	}

	// The first code was invalidated by the reissue: it is gone, not
	// merely wrong.
	err = svc.Verify(account.ID, models.PurposeBackofficeLogin, first)
	assert.ErrorIs(t, err, ErrOTPNotFound)

	require.NoError(t, svc.Verify(account.ID, models.PurposeBackofficeLogin, second))
}

func TestOTPPurposesDoNotCrossValidate(t *testing.T) {
	svc, notifier, account := newOTPFixture(t)

	_, err := svc.Request(account.ID, models.PurposeCashbackSpend, models.ChannelSMS)
	require.NoError(t, err)
	code := notifier.last()

	// Same code submitted under a different purpose: no active code there.
	err = svc.Verify(account.ID, models.PurposeBackofficeLogin, code)
	assert.ErrorIs(t, err, ErrOTPNotFound)

	require.NoError(t, svc.Verify(account.ID, models.PurposeCashbackSpend, code))
}

func TestOTPWrongCodeIncrementsAttempts(t *testing.T) {
	svc, notifier, account := newOTPFixture(t)

	_, err := svc.Request(account.ID, models.PurposeEmployeeLogin, models.ChannelSMS)
	require.NoError(t, err)
	code := notifier.last()

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	err = svc.Verify(account.ID, models.PurposeEmployeeLogin, wrong)
	assert.ErrorIs(t, err, ErrOTPInvalid)

	// A miss does not consume the code.
	require.NoError(t, svc.Verify(account.ID, models.PurposeEmployeeLogin, code))
}

func TestOTPMaxAttemptsInvalidatesCode(t *testing.T) {
	svc, notifier, account := newOTPFixture(t)

	_, err := svc.Request(account.ID, models.PurposeEmployeeLogin, models.ChannelSMS)
	require.NoError(t, err)
	code := notifier.last()

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	for i := 0; i < otpMaxAttempts-1; i++ {
		err = svc.Verify(account.ID, models.PurposeEmployeeLogin, wrong)
		assert.ErrorIs(t, err, ErrOTPInvalid)
	}
	err = svc.Verify(account.ID, models.PurposeEmployeeLogin, wrong)
	assert.ErrorIs(t, err, ErrOTPTooManyAttempts)

	// Even the correct code is dead now.
	err = svc.Verify(account.ID, models.PurposeEmployeeLogin, code)
	assert.ErrorIs(t, err, ErrOTPNotFound)
}

func TestOTPExpiry(t *testing.T) {
	svc, notifier, account := newOTPFixture(t)

	base := time.Now()
	svc.now = func() time.Time { return base }

	_, err := svc.Request(account.ID, models.PurposeBackofficeLogin, models.ChannelSMS)
	require.NoError(t, err)
	code := notifier.last()

	svc.now = func() time.Time { return base.Add(otpTTL + time.Minute) }

	// Expiry is its own error, never a generic mismatch.
	err = svc.Verify(account.ID, models.PurposeBackofficeLogin, code)
	assert.ErrorIs(t, err, ErrOTPExpired)

	// The expiry detection consumed the code: resubmission finds nothing.
	err = svc.Verify(account.ID, models.PurposeBackofficeLogin, code)
	assert.ErrorIs(t, err, ErrOTPNotFound)
}

func TestOTPConcurrentVerifyExactlyOneWins(t *testing.T) {
	svc, notifier, account := newOTPFixture(t)

	_, err := svc.Request(account.ID, models.PurposeCashbackSpend, models.ChannelSMS)
	require.NoError(t, err)
	code := notifier.last()

	const verifiers = 8
	results := make(chan error, verifiers)
	var start sync.WaitGroup
	start.Add(1)
	for i := 0; i < verifiers; i++ {
		go func() {
			start.Wait()
			results <- svc.Verify(account.ID, models.PurposeCashbackSpend, code)
		}()
	}
	start.Done()

	wins := 0
	for i := 0; i < verifiers; i++ {
		err := <-results
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, ErrOTPNotFound)
		}
	}
	assert.Equal(t, 1, wins, "exactly one concurrent verification may succeed")
}

func TestOTPDeliveryFailureDoesNotRollBackIssuance(t *testing.T) {
	svc, notifier, account := newOTPFixture(t)
	notifier.fail = true

	_, err := svc.Request(account.ID, models.PurposeBackofficeLogin, models.ChannelSMS)
	require.True(t, errors.Is(err, ErrOTPDelivery))

	// The code was persisted despite the failed send.
	code := notifier.last()
	require.NoError(t, svc.Verify(account.ID, models.PurposeBackofficeLogin, code))
}

func TestOTPUnknownAccount(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewOTPService(store, &captureNotifier{}, "test-pepper")

	_, err := svc.Request(42, models.PurposeBackofficeLogin, models.ChannelSMS)
	assert.Error(t, err)
}

func TestOTPDeactivatedAccount(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewOTPService(store, &captureNotifier{}, "test-pepper")

	account, err := store.CreateAccount(&models.AccountRegistration{Phone: "+79990001123"})
	require.NoError(t, err)
	account.IsActive = false
	require.NoError(t, store.UpdateAccount(account))

	_, err = svc.Request(account.ID, models.PurposeBackofficeLogin, models.ChannelSMS)
	assert.Error(t, err)
}
