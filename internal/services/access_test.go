package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perkpoint/loyalty-backend/internal/errs"
	"github.com/perkpoint/loyalty-backend/internal/models"
	"github.com/perkpoint/loyalty-backend/internal/storage"
)

type accessFixture struct {
	store    *storage.MemoryStore
	access   *AccessService
	owner    *models.Account
	employee *models.Account
	customer *models.Account
	outsider *models.Account
	company  *models.Company
}

func newAccessFixture(t *testing.T) *accessFixture {
	t.Helper()
	store := storage.NewMemoryStore()
	f := &accessFixture{store: store, access: NewAccessService(store)}

	var err error
	f.owner, err = store.CreateAccount(&models.AccountRegistration{Phone: "+10000000001"})
	require.NoError(t, err)
	f.employee, err = store.CreateAccount(&models.AccountRegistration{Phone: "+10000000002"})
	require.NoError(t, err)
	f.customer, err = store.CreateAccount(&models.AccountRegistration{Phone: "+10000000003"})
	require.NoError(t, err)
	f.outsider, err = store.CreateAccount(&models.AccountRegistration{Phone: "+10000000004"})
	require.NoError(t, err)

	_, err = store.CreateUserRole(&models.UserRole{AccountID: f.owner.ID})
	require.NoError(t, err)
	f.company, err = store.CreateCompany(&models.Company{Name: "Beanhouse", OwnerID: f.owner.ID, IsActive: true})
	require.NoError(t, err)

	_, err = store.CreateEmployeeRole(&models.EmployeeRole{AccountID: f.employee.ID, CompanyID: f.company.ID, IsActive: true})
	require.NoError(t, err)
	_, err = store.CreateCustomerRole(&models.CustomerRole{AccountID: f.customer.ID, CompanyID: f.company.ID, IsActive: true})
	require.NoError(t, err)
	return f
}

func TestRequireOwner(t *testing.T) {
	f := newAccessFixture(t)

	company, err := f.access.RequireOwner(f.owner.ID, f.company.ID)
	require.NoError(t, err)
	assert.Equal(t, f.company.ID, company.ID)

	// An employee is not the owner, even with access to the company.
	_, err = f.access.RequireOwner(f.employee.ID, f.company.ID)
	assert.Equal(t, errs.KindForbidden, errs.KindOf(err))

	_, err = f.access.RequireOwner(f.outsider.ID, f.company.ID)
	assert.Equal(t, errs.KindForbidden, errs.KindOf(err))
}

func TestRequireOwnerOfAnotherCompany(t *testing.T) {
	f := newAccessFixture(t)

	other, err := f.store.CreateAccount(&models.AccountRegistration{Phone: "+10000000005"})
	require.NoError(t, err)
	_, err = f.store.CreateUserRole(&models.UserRole{AccountID: other.ID})
	require.NoError(t, err)

	// Has a UserRole, but this company is not theirs.
	_, err = f.access.RequireOwner(other.ID, f.company.ID)
	assert.Equal(t, errs.KindForbidden, errs.KindOf(err))
}

func TestRequireEmployee(t *testing.T) {
	f := newAccessFixture(t)

	role, err := f.access.RequireEmployee(f.employee.ID, f.company.ID)
	require.NoError(t, err)
	assert.Equal(t, f.employee.ID, role.AccountID)

	_, err = f.access.RequireEmployee(f.customer.ID, f.company.ID)
	assert.Equal(t, errs.KindForbidden, errs.KindOf(err))
}

func TestRequireEmployeeDeactivated(t *testing.T) {
	f := newAccessFixture(t)

	role, err := f.store.GetEmployeeRole(f.employee.ID, f.company.ID)
	require.NoError(t, err)
	role.IsActive = false
	require.NoError(t, f.store.UpdateEmployeeRole(role))

	_, err = f.access.RequireEmployee(f.employee.ID, f.company.ID)
	assert.Equal(t, errs.KindForbidden, errs.KindOf(err))
}

func TestRequireCustomer(t *testing.T) {
	f := newAccessFixture(t)

	role, err := f.access.RequireCustomer(f.customer.ID, f.company.ID)
	require.NoError(t, err)
	assert.Equal(t, f.customer.ID, role.AccountID)

	_, err = f.access.RequireCustomer(f.employee.ID, f.company.ID)
	assert.Equal(t, errs.KindForbidden, errs.KindOf(err))
}

// An owner testing the customer flow holds both roles; each resolver
// answers only for its own role.
func TestCoexistingRoles(t *testing.T) {
	f := newAccessFixture(t)

	_, err := f.store.CreateCustomerRole(&models.CustomerRole{AccountID: f.owner.ID, CompanyID: f.company.ID, IsActive: true})
	require.NoError(t, err)

	_, err = f.access.RequireOwner(f.owner.ID, f.company.ID)
	assert.NoError(t, err)
	_, err = f.access.RequireCustomer(f.owner.ID, f.company.ID)
	assert.NoError(t, err)
	_, err = f.access.RequireEmployee(f.owner.ID, f.company.ID)
	assert.Equal(t, errs.KindForbidden, errs.KindOf(err))
}

func TestRequireDispatch(t *testing.T) {
	f := newAccessFixture(t)

	assert.NoError(t, f.access.Require(models.RoleOwner, f.owner.ID, f.company.ID))
	assert.NoError(t, f.access.Require(models.RoleEmployee, f.employee.ID, f.company.ID))
	assert.NoError(t, f.access.Require(models.RoleCustomer, f.customer.ID, f.company.ID))
	assert.Error(t, f.access.Require(models.RoleKind("bogus"), f.owner.ID, f.company.ID))
}
