package services

import (
	"fmt"

	"github.com/perkpoint/loyalty-backend/internal/errs"
	"github.com/perkpoint/loyalty-backend/internal/models"
	"github.com/perkpoint/loyalty-backend/internal/storage"
)

// AuthService orchestrates the OTP login flows: request a code for a
// phone, verify it, resolve the role and mint an access token.
type AuthService struct {
	store  storage.Store
	otp    *OTPService
	tokens *TokenService
	access *AccessService
}

// NewAuthService creates a new auth service
func NewAuthService(store storage.Store, otp *OTPService, tokens *TokenService, access *AccessService) *AuthService {
	return &AuthService{store: store, otp: otp, tokens: tokens, access: access}
}

// purposeFor maps a requested role to the OTP purpose of its flow.
func purposeFor(kind models.RoleKind) (models.OTPPurpose, error) {
	switch kind {
	case models.RoleOwner:
		return models.PurposeBackofficeLogin, nil
	case models.RoleEmployee:
		return models.PurposeEmployeeLogin, nil
	case models.RoleCustomer:
		return models.PurposeCustomerOnboard, nil
	default:
		return "", errs.BadRequest("unknown role")
	}
}

// RequestLogin issues a login code for the account behind the phone
// number. The delivery-failed condition passes through so the caller
// can distinguish it from issuance failure.
func (s *AuthService) RequestLogin(phone string, kind models.RoleKind, channel models.OTPChannel) error {
	purpose, err := purposeFor(kind)
	if err != nil {
		return err
	}
	account, err := s.store.GetAccountByPhone(phone)
	if err != nil {
		return err
	}
	_, err = s.otp.Request(account.ID, purpose, channel)
	return err
}

// VerifyLogin checks the code and, when the account actually holds the
// requested role, mints an access token scoped to it. companyID is
// required for employee and customer logins and ignored for owners.
func (s *AuthService) VerifyLogin(phone string, kind models.RoleKind, companyID uint, code string) (string, *models.Account, error) {
	purpose, err := purposeFor(kind)
	if err != nil {
		return "", nil, err
	}
	account, err := s.store.GetAccountByPhone(phone)
	if err != nil {
		return "", nil, err
	}
	if err := s.otp.Verify(account.ID, purpose, code); err != nil {
		return "", nil, err
	}

	if kind != models.RoleOwner {
		if companyID == 0 {
			return "", nil, errs.BadRequest("company_id is required")
		}
		if err := s.access.Require(kind, account.ID, companyID); err != nil {
			return "", nil, err
		}
	} else if _, err := s.store.GetUserRoleByAccount(account.ID); err != nil {
		if errs.KindOf(err) == errs.KindNotFound {
			return "", nil, errs.Forbidden("account has no backoffice access")
		}
		return "", nil, err
	}

	// Owner tokens carry no company context: ownership is re-checked
	// against the path on every call, and an unverified company id must
	// not end up inside a signed claim.
	tokenCompany := companyID
	if kind == models.RoleOwner {
		tokenCompany = 0
	}
	token, err := s.tokens.Issue(fmt.Sprint(account.ID), ScopesFor(kind), tokenCompany, account.ID)
	if err != nil {
		return "", nil, err
	}
	return token, account, nil
}

// Register creates an account together with its backoffice UserRole.
// The new owner then signs in through the regular OTP login flow.
func (s *AuthService) Register(reg *models.AccountRegistration) (*models.Account, error) {
	account, err := s.store.CreateAccount(reg)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.CreateUserRole(&models.UserRole{AccountID: account.ID}); err != nil {
		return nil, err
	}
	return account, nil
}

// OnboardCustomer finds or creates the account behind a phone number
// or Telegram id and attaches a CustomerRole for the company. Called
// by the customer bot gateway through the internal API.
func (s *AuthService) OnboardCustomer(phone string, telegramID int64, companyID uint) (*models.CustomerRole, error) {
	if _, err := s.store.GetCompany(companyID); err != nil {
		return nil, err
	}

	var account *models.Account
	var err error
	switch {
	case telegramID != 0:
		account, err = s.store.GetAccountByTelegramID(telegramID)
		if err != nil && errs.KindOf(err) == errs.KindNotFound && phone != "" {
			account, err = s.store.GetAccountByPhone(phone)
		}
	case phone != "":
		account, err = s.store.GetAccountByPhone(phone)
	default:
		return nil, errs.BadRequest("phone or telegram_id is required")
	}

	if err != nil {
		if errs.KindOf(err) != errs.KindNotFound || phone == "" {
			return nil, err
		}
		account, err = s.store.CreateAccount(&models.AccountRegistration{Phone: phone})
		if err != nil {
			return nil, err
		}
	}
	if telegramID != 0 && account.TelegramID == 0 {
		account.TelegramID = telegramID
		if err := s.store.UpdateAccount(account); err != nil {
			return nil, err
		}
	}

	role, err := s.store.GetCustomerRole(account.ID, companyID)
	if err == nil {
		return role, nil
	}
	if errs.KindOf(err) != errs.KindNotFound {
		return nil, err
	}
	return s.store.CreateCustomerRole(&models.CustomerRole{
		AccountID: account.ID,
		CompanyID: companyID,
		IsActive:  true,
	})
}
