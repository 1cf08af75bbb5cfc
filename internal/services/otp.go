package services

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"github.com/perkpoint/loyalty-backend/internal/errs"
	"github.com/perkpoint/loyalty-backend/internal/models"
	"github.com/perkpoint/loyalty-backend/internal/storage"
	"github.com/perkpoint/loyalty-backend/internal/utils"
)

const (
	otpLength      = 6
	otpTTL         = 5 * time.Minute
	otpMaxAttempts = 5
)

// OTP verification failures, one per taxonomy entry. A consumed or
// never-issued code and a concurrent-loser both surface as
// ErrOTPNotFound: an active code no longer exists.
var (
	ErrOTPNotFound        = errs.Unauthorized("no active verification code")
	ErrOTPExpired         = errs.Unauthorized("verification code expired")
	ErrOTPInvalid         = errs.Unauthorized("invalid verification code")
	ErrOTPTooManyAttempts = errs.Unauthorized("too many verification attempts")
	ErrOTPDelivery        = errs.Unavailable("failed to deliver verification code")
)

// OTPService issues and verifies one-time codes. Codes are stored
// hashed; the plaintext exists only in the delivery message.
type OTPService struct {
	store    storage.Store
	notifier Notifier
	pepper   string
	now      func() time.Time
}

// NewOTPService creates a new OTP service. The pepper is process-wide
// configuration mixed into every code hash.
func NewOTPService(store storage.Store, notifier Notifier, pepper string) *OTPService {
	return &OTPService{
		store:    store,
		notifier: notifier,
		pepper:   pepper,
		now:      time.Now,
	}
}

// hashCode binds the hash to the account and purpose so a code issued
// for one flow can never validate in another.
func (s *OTPService) hashCode(accountID uint, purpose models.OTPPurpose, code string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d|%s|%s|%s", accountID, purpose, code, s.pepper)))
	return hex.EncodeToString(sum[:])
}

// Request issues a fresh code for (account, purpose): all unused
// predecessors are invalidated and the new hashed code is persisted in
// the same transaction, then the plaintext is handed to the notifier.
// Delivery failure does not roll back issuance; the caller gets
// ErrOTPDelivery and may retry delivery without reissuing.
func (s *OTPService) Request(accountID uint, purpose models.OTPPurpose, channel models.OTPChannel) (*models.OTPCode, error) {
	account, err := s.store.GetAccount(accountID)
	if err != nil {
		return nil, err
	}
	if !account.IsActive {
		return nil, errs.Forbidden("account is deactivated")
	}

	code, err := utils.GenerateSecureCode(otpLength)
	if err != nil {
		return nil, fmt.Errorf("generate otp: %w", err)
	}

	otp := &models.OTPCode{
		AccountID: account.ID,
		CodeHash:  s.hashCode(account.ID, purpose, code),
		Purpose:   purpose,
		Channel:   channel,
		ExpiresAt: s.now().Add(otpTTL),
	}
	otp, err = s.store.ReplaceOTP(otp)
	if err != nil {
		return nil, fmt.Errorf("persist otp: %w", err)
	}

	if err := s.notifier.SendOTP(channel, account.Phone, code); err != nil {
		log.Printf("OTP delivery failed for account %d via %s: %v", account.ID, channel, err)
		return otp, ErrOTPDelivery
	}
	return otp, nil
}

// Verify checks a submitted code against the newest active one.
//
// Policy for expired codes: the first verification attempt that finds
// the code expired marks it used, so an expired code cannot be
// resubmitted; expired codes nobody submits stay unused until the next
// Request invalidates them or the maintenance sweep retires them.
func (s *OTPService) Verify(accountID uint, purpose models.OTPPurpose, submitted string) error {
	otp, err := s.store.GetLatestUnusedOTP(accountID, purpose)
	if err != nil {
		if errs.KindOf(err) == errs.KindNotFound {
			return ErrOTPNotFound
		}
		return err
	}

	if s.now().After(otp.ExpiresAt) {
		if _, err := s.store.MarkOTPUsed(otp.ID); err != nil {
			return err
		}
		return ErrOTPExpired
	}

	if otp.Attempts >= otpMaxAttempts {
		// Should have been consumed on the attempt that hit the limit;
		// treat a leftover as gone.
		if _, err := s.store.MarkOTPUsed(otp.ID); err != nil {
			return err
		}
		return ErrOTPNotFound
	}

	expected := []byte(otp.CodeHash)
	submittedHash := s.hashCode(accountID, purpose, submitted)
	if subtle.ConstantTimeCompare(expected, []byte(submittedHash)) != 1 {
		// A previously issued code that was invalidated by a reissue is
		// "already used", not a mismatch: no active code carries it.
		if used, err := s.store.HasUsedOTPWithHash(accountID, purpose, submittedHash); err != nil {
			return err
		} else if used {
			return ErrOTPNotFound
		}
		attempts, err := s.store.IncrementOTPAttempts(otp.ID)
		if err != nil {
			return err
		}
		if attempts >= otpMaxAttempts {
			if _, err := s.store.MarkOTPUsed(otp.ID); err != nil {
				return err
			}
			return ErrOTPTooManyAttempts
		}
		return ErrOTPInvalid
	}

	// Compare-and-set: exactly one concurrent verifier wins the flip,
	// everyone else sees the code as already consumed.
	won, err := s.store.MarkOTPUsed(otp.ID)
	if err != nil {
		return err
	}
	if !won {
		return ErrOTPNotFound
	}
	return nil
}
