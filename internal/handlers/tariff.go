package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/perkpoint/loyalty-backend/internal/errs"
	"github.com/perkpoint/loyalty-backend/internal/middleware"
	"github.com/perkpoint/loyalty-backend/internal/models"
	"github.com/perkpoint/loyalty-backend/internal/storage"
)

// TariffHandler manages the platform's tariff plan catalogue. Reads
// are open to any authenticated owner; writes need admin access level.
type TariffHandler struct {
	store storage.Store
}

// NewTariffHandler creates a new tariff handler
func NewTariffHandler(store storage.Store) *TariffHandler {
	return &TariffHandler{store: store}
}

func (h *TariffHandler) requireAdmin(c *fiber.Ctx) error {
	role, err := h.store.GetUserRoleByAccount(middleware.AccountID(c))
	if err != nil {
		if errs.KindOf(err) == errs.KindNotFound {
			return errs.Forbidden("admin access required")
		}
		return err
	}
	if role.AccessLevel != "admin" {
		return errs.Forbidden("admin access required")
	}
	return nil
}

// Create adds a tariff plan; duplicate names are a conflict
func (h *TariffHandler) Create(c *fiber.Ctx) error {
	if err := h.requireAdmin(c); err != nil {
		return err
	}
	var plan models.TariffPlan
	if err := c.BodyParser(&plan); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if plan.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Name is required",
		})
	}
	plan.IsActive = true

	created, err := h.store.CreateTariffPlan(&plan)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// List returns the active tariff plans
func (h *TariffHandler) List(c *fiber.Ctx) error {
	plans, err := h.store.GetActiveTariffPlans()
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"plans": plans,
		"count": len(plans),
	})
}

// Get returns one tariff plan
func (h *TariffHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	plan, err := h.store.GetTariffPlan(id)
	if err != nil {
		return err
	}
	return c.JSON(plan)
}

// Update modifies a tariff plan
func (h *TariffHandler) Update(c *fiber.Ctx) error {
	if err := h.requireAdmin(c); err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	plan, err := h.store.GetTariffPlan(id)
	if err != nil {
		return err
	}

	var req models.TariffPlan
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Name != "" {
		plan.Name = req.Name
	}
	if req.Description != "" {
		plan.Description = req.Description
	}
	if req.PriceMonthly > 0 {
		plan.PriceMonthly = req.PriceMonthly
	}
	if req.MaxOutlets > 0 {
		plan.MaxOutlets = req.MaxOutlets
	}
	if req.MaxEmployees > 0 {
		plan.MaxEmployees = req.MaxEmployees
	}
	if err := h.store.UpdateTariffPlan(plan); err != nil {
		return err
	}
	return c.JSON(plan)
}

// Delete retires a tariff plan
func (h *TariffHandler) Delete(c *fiber.Ctx) error {
	if err := h.requireAdmin(c); err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.store.DeleteTariffPlan(id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Tariff plan deleted",
	})
}
