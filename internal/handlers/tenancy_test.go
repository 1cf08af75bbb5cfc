package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perkpoint/loyalty-backend/internal/errs"
	"github.com/perkpoint/loyalty-backend/internal/models"
	"github.com/perkpoint/loyalty-backend/internal/routes"
	"github.com/perkpoint/loyalty-backend/internal/services"
	"github.com/perkpoint/loyalty-backend/internal/storage"
)

// tenancyFixture wires a full app over the memory store with two
// companies owned by different accounts, so tests can drive requests
// across the tenant boundary.
type tenancyFixture struct {
	app    *fiber.App
	store  *storage.MemoryStore
	tokens *services.TokenService

	attacker        *models.Account
	attackerCompany *models.Company

	victimCompany  *models.Company
	victimOutlet   *models.Outlet
	victimPromo    *models.Promotion
	victimEmployee *models.EmployeeRole
}

func newTenancyFixture(t *testing.T) *tenancyFixture {
	t.Helper()
	store := storage.NewMemoryStore()
	tokens := services.NewTokenService("test-secret")
	access := services.NewAccessService(store)
	otp := services.NewOTPService(store, services.LogNotifier{}, "test-pepper")
	auth := services.NewAuthService(store, otp, tokens, access)
	cashback := services.NewCashbackService(store, otp)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				return c.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
			}
			return c.Status(errs.KindOf(err).HTTPStatus()).JSON(fiber.Map{"error": errs.Message(err)})
		},
	})
	routes.SetupRoutes(app, routes.Deps{
		Store:    store,
		Tokens:   tokens,
		Auth:     auth,
		Access:   access,
		Cashback: cashback,
	})

	f := &tenancyFixture{app: app, store: store, tokens: tokens}

	var err error
	f.attacker, err = store.CreateAccount(&models.AccountRegistration{Phone: "+50000000001"})
	require.NoError(t, err)
	_, err = store.CreateUserRole(&models.UserRole{AccountID: f.attacker.ID})
	require.NoError(t, err)
	f.attackerCompany, err = store.CreateCompany(&models.Company{Name: "Attacker Co", OwnerID: f.attacker.ID, IsActive: true})
	require.NoError(t, err)

	victimOwner, err := store.CreateAccount(&models.AccountRegistration{Phone: "+50000000002"})
	require.NoError(t, err)
	_, err = store.CreateUserRole(&models.UserRole{AccountID: victimOwner.ID})
	require.NoError(t, err)
	f.victimCompany, err = store.CreateCompany(&models.Company{Name: "Victim Co", OwnerID: victimOwner.ID, IsActive: true})
	require.NoError(t, err)

	f.victimOutlet, err = store.CreateOutlet(&models.Outlet{CompanyID: f.victimCompany.ID, Name: "Victim Outlet", IsActive: true})
	require.NoError(t, err)
	f.victimPromo, err = store.CreatePromotion(&models.Promotion{CompanyID: f.victimCompany.ID, Title: "Victim Promo", IsActive: true})
	require.NoError(t, err)

	staff, err := store.CreateAccount(&models.AccountRegistration{Phone: "+50000000003"})
	require.NoError(t, err)
	f.victimEmployee, err = store.CreateEmployeeRole(&models.EmployeeRole{AccountID: staff.ID, CompanyID: f.victimCompany.ID, IsActive: true})
	require.NoError(t, err)
	return f
}

func (f *tenancyFixture) ownerToken(t *testing.T, account *models.Account) string {
	t.Helper()
	token, err := f.tokens.Issue(fmt.Sprint(account.ID), []string{"owner"}, 0, account.ID)
	require.NoError(t, err)
	return token
}

func (f *tenancyFixture) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestOutletDeleteScopedToCompany(t *testing.T) {
	f := newTenancyFixture(t)
	token := f.ownerToken(t, f.attacker)

	// Own company in the path, someone else's outlet id.
	path := fmt.Sprintf("/api/companies/%d/outlets/%d", f.attackerCompany.ID, f.victimOutlet.ID)
	resp := f.do(t, fiber.MethodDelete, path, token, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	_, err := f.store.GetOutlet(f.victimOutlet.ID)
	assert.NoError(t, err, "victim outlet must survive")
}

func TestOutletUpdateScopedToCompany(t *testing.T) {
	f := newTenancyFixture(t)
	token := f.ownerToken(t, f.attacker)

	path := fmt.Sprintf("/api/companies/%d/outlets/%d", f.attackerCompany.ID, f.victimOutlet.ID)
	resp := f.do(t, fiber.MethodPut, path, token, fiber.Map{"name": "hijacked"})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	outlet, err := f.store.GetOutlet(f.victimOutlet.ID)
	require.NoError(t, err)
	assert.Equal(t, "Victim Outlet", outlet.Name)
}

func TestOutletDeleteByOwner(t *testing.T) {
	f := newTenancyFixture(t)
	token := f.ownerToken(t, f.attacker)

	outlet, err := f.store.CreateOutlet(&models.Outlet{CompanyID: f.attackerCompany.ID, Name: "Own Outlet", IsActive: true})
	require.NoError(t, err)

	path := fmt.Sprintf("/api/companies/%d/outlets/%d", f.attackerCompany.ID, outlet.ID)
	resp := f.do(t, fiber.MethodDelete, path, token, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	_, err = f.store.GetOutlet(outlet.ID)
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
}

func TestPromotionUpdateScopedToCompany(t *testing.T) {
	f := newTenancyFixture(t)
	token := f.ownerToken(t, f.attacker)

	path := fmt.Sprintf("/api/companies/%d/promotions/%d", f.attackerCompany.ID, f.victimPromo.ID)
	resp := f.do(t, fiber.MethodPut, path, token, fiber.Map{"title": "hijacked"})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	promo, err := f.store.GetPromotion(f.victimPromo.ID)
	require.NoError(t, err)
	assert.Equal(t, "Victim Promo", promo.Title)
}

func TestPromotionDeleteScopedToCompany(t *testing.T) {
	f := newTenancyFixture(t)
	token := f.ownerToken(t, f.attacker)

	path := fmt.Sprintf("/api/companies/%d/promotions/%d", f.attackerCompany.ID, f.victimPromo.ID)
	resp := f.do(t, fiber.MethodDelete, path, token, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	_, err := f.store.GetPromotion(f.victimPromo.ID)
	assert.NoError(t, err, "victim promotion must survive")
}

func TestEmployeeRemoveScopedToCompany(t *testing.T) {
	f := newTenancyFixture(t)
	token := f.ownerToken(t, f.attacker)

	path := fmt.Sprintf("/api/companies/%d/employees/%d", f.attackerCompany.ID, f.victimEmployee.ID)
	resp := f.do(t, fiber.MethodDelete, path, token, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	_, err := f.store.GetEmployeeRoleByID(f.victimEmployee.ID)
	assert.NoError(t, err, "victim employee role must survive")
}
