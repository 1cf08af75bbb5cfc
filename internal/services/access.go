package services

import (
	"github.com/perkpoint/loyalty-backend/internal/errs"
	"github.com/perkpoint/loyalty-backend/internal/models"
	"github.com/perkpoint/loyalty-backend/internal/storage"
)

// AccessService resolves the relationship between an authenticated
// account and a company. An account can be owner, employee and
// customer of the same company at once; each code path asks for the
// one role it requires rather than a global precedence.
type AccessService struct {
	store storage.Store
}

// NewAccessService creates a new access service
func NewAccessService(store storage.Store) *AccessService {
	return &AccessService{store: store}
}

// RequireOwner succeeds only if the account holds a UserRole and owns
// the company.
func (s *AccessService) RequireOwner(accountID, companyID uint) (*models.Company, error) {
	if _, err := s.store.GetUserRoleByAccount(accountID); err != nil {
		if errs.KindOf(err) == errs.KindNotFound {
			return nil, errs.Forbidden("not a company owner")
		}
		return nil, err
	}
	company, err := s.store.GetCompany(companyID)
	if err != nil {
		return nil, err
	}
	if company.OwnerID != accountID {
		return nil, errs.Forbidden("not the owner of this company")
	}
	return company, nil
}

// RequireEmployee succeeds only if the account has an active
// EmployeeRole in the company; the returned role carries outlet scope.
func (s *AccessService) RequireEmployee(accountID, companyID uint) (*models.EmployeeRole, error) {
	role, err := s.store.GetEmployeeRole(accountID, companyID)
	if err != nil {
		if errs.KindOf(err) == errs.KindNotFound {
			return nil, errs.Forbidden("not an employee of this company")
		}
		return nil, err
	}
	if !role.IsActive {
		return nil, errs.Forbidden("employee access is deactivated")
	}
	return role, nil
}

// RequireCustomer succeeds only if the account has an active
// CustomerRole in the company.
func (s *AccessService) RequireCustomer(accountID, companyID uint) (*models.CustomerRole, error) {
	role, err := s.store.GetCustomerRole(accountID, companyID)
	if err != nil {
		if errs.KindOf(err) == errs.KindNotFound {
			return nil, errs.Forbidden("not a customer of this company")
		}
		return nil, err
	}
	if !role.IsActive {
		return nil, errs.Forbidden("customer access is deactivated")
	}
	return role, nil
}

// Require dispatches to the resolver matching the role an endpoint
// declared.
func (s *AccessService) Require(kind models.RoleKind, accountID, companyID uint) error {
	switch kind {
	case models.RoleOwner:
		_, err := s.RequireOwner(accountID, companyID)
		return err
	case models.RoleEmployee:
		_, err := s.RequireEmployee(accountID, companyID)
		return err
	case models.RoleCustomer:
		_, err := s.RequireCustomer(accountID, companyID)
		return err
	default:
		return errs.Forbidden("unknown role requirement")
	}
}

// ScopesFor maps a resolved role to the scopes encoded in its token.
func ScopesFor(kind models.RoleKind) []string {
	switch kind {
	case models.RoleOwner:
		return []string{"owner"}
	case models.RoleEmployee:
		return []string{"employee"}
	case models.RoleCustomer:
		return []string{"customer"}
	}
	return nil
}
