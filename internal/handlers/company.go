package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/perkpoint/loyalty-backend/internal/middleware"
	"github.com/perkpoint/loyalty-backend/internal/models"
	"github.com/perkpoint/loyalty-backend/internal/services"
	"github.com/perkpoint/loyalty-backend/internal/storage"
)

// CompanyHandler handles company CRUD and the dashboard view
type CompanyHandler struct {
	store  storage.Store
	access *services.AccessService
}

// NewCompanyHandler creates a new company handler
func NewCompanyHandler(store storage.Store, access *services.AccessService) *CompanyHandler {
	return &CompanyHandler{store: store, access: access}
}

func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	return uint(id), nil
}

// Create registers a company; the caller becomes its owner
func (h *CompanyHandler) Create(c *fiber.Ctx) error {
	var req models.CompanyCreate
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Name is required",
		})
	}

	company, err := h.store.CreateCompany(&models.Company{
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     middleware.AccountID(c),
		IsActive:    true,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Company created successfully",
		"company": company,
	})
}

// Get returns one company
func (h *CompanyHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	company, err := h.store.GetCompany(id)
	if err != nil {
		return err
	}
	return c.JSON(company)
}

// ListMine returns the companies owned by the caller
func (h *CompanyHandler) ListMine(c *fiber.Ctx) error {
	companies, err := h.store.GetCompaniesByOwner(middleware.AccountID(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"companies": companies,
		"count":     len(companies),
	})
}

// Update modifies a company the caller owns
func (h *CompanyHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	company, err := h.access.RequireOwner(middleware.AccountID(c), id)
	if err != nil {
		return err
	}

	var req models.CompanyCreate
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Name != "" {
		company.Name = req.Name
	}
	if req.Description != "" {
		company.Description = req.Description
	}
	if err := h.store.UpdateCompany(company); err != nil {
		return err
	}
	return c.JSON(company)
}

// Delete soft-deletes a company the caller owns
func (h *CompanyHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if _, err := h.access.RequireOwner(middleware.AccountID(c), id); err != nil {
		return err
	}
	if err := h.store.DeleteCompany(id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Company deleted",
	})
}

// Dashboard returns the company with its current subscription and
// headline counts
func (h *CompanyHandler) Dashboard(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	company, err := h.access.RequireOwner(middleware.AccountID(c), id)
	if err != nil {
		return err
	}

	subs, err := h.store.GetSubscriptionHistory(id)
	if err != nil {
		return err
	}
	current, err := services.SelectCurrentSubscription(subs)
	if err != nil {
		current = nil // a company without billing still gets a dashboard
	}

	outlets, _ := h.store.CountOutlets(id)
	customers, _ := h.store.CountCustomers(id)
	transactions, _ := h.store.CountTransactions(id)

	return c.JSON(fiber.Map{
		"company":      company,
		"subscription": current,
		"stats": fiber.Map{
			"outlets":      outlets,
			"customers":    customers,
			"transactions": transactions,
		},
	})
}
