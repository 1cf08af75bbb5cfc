package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/perkpoint/loyalty-backend/internal/errs"
	"github.com/perkpoint/loyalty-backend/internal/middleware"
	"github.com/perkpoint/loyalty-backend/internal/models"
	"github.com/perkpoint/loyalty-backend/internal/services"
	"github.com/perkpoint/loyalty-backend/internal/storage"
)

// EmployeeHandler manages a company's staff roster
type EmployeeHandler struct {
	store  storage.Store
	access *services.AccessService
}

// NewEmployeeHandler creates a new employee handler
func NewEmployeeHandler(store storage.Store, access *services.AccessService) *EmployeeHandler {
	return &EmployeeHandler{store: store, access: access}
}

type employeeRequest struct {
	Phone     string `json:"phone"`
	Position  string `json:"position"`
	OutletIDs []uint `json:"outlet_ids"`
}

// Add attaches the account behind a phone number to the company as an
// employee, scoped to the given outlets
func (h *EmployeeHandler) Add(c *fiber.Ctx) error {
	companyID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if _, err := h.access.RequireOwner(middleware.AccountID(c), companyID); err != nil {
		return err
	}

	var req employeeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Phone == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Phone is required",
		})
	}

	account, err := h.store.GetAccountByPhone(req.Phone)
	if err != nil {
		return err
	}

	var outlets []models.Outlet
	for _, outletID := range req.OutletIDs {
		outlet, err := h.store.GetOutlet(outletID)
		if err != nil {
			return err
		}
		if outlet.CompanyID != companyID {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Outlet does not belong to this company",
			})
		}
		outlets = append(outlets, *outlet)
	}

	role, err := h.store.CreateEmployeeRole(&models.EmployeeRole{
		AccountID: account.ID,
		CompanyID: companyID,
		Position:  req.Position,
		IsActive:  true,
		Outlets:   outlets,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(role)
}

// List returns the company's employees
func (h *EmployeeHandler) List(c *fiber.Ctx) error {
	companyID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if _, err := h.access.RequireOwner(middleware.AccountID(c), companyID); err != nil {
		return err
	}
	roles, err := h.store.GetEmployeesByCompany(companyID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"employees": roles,
		"count":     len(roles),
	})
}

// Remove detaches an employee from the company
func (h *EmployeeHandler) Remove(c *fiber.Ctx) error {
	companyID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	roleID, err := paramID(c, "employeeId")
	if err != nil {
		return err
	}
	if _, err := h.access.RequireOwner(middleware.AccountID(c), companyID); err != nil {
		return err
	}
	role, err := h.store.GetEmployeeRoleByID(roleID)
	if err != nil {
		return err
	}
	if role.CompanyID != companyID {
		return errs.Forbidden("employee does not belong to this company")
	}
	if err := h.store.DeleteEmployeeRole(roleID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Employee removed",
	})
}
