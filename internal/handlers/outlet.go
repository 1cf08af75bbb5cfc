package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/perkpoint/loyalty-backend/internal/errs"
	"github.com/perkpoint/loyalty-backend/internal/middleware"
	"github.com/perkpoint/loyalty-backend/internal/models"
	"github.com/perkpoint/loyalty-backend/internal/services"
	"github.com/perkpoint/loyalty-backend/internal/storage"
)

// OutletHandler handles outlet CRUD under a company
type OutletHandler struct {
	store  storage.Store
	access *services.AccessService
}

// NewOutletHandler creates a new outlet handler
func NewOutletHandler(store storage.Store, access *services.AccessService) *OutletHandler {
	return &OutletHandler{store: store, access: access}
}

type outletRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Create adds an outlet to a company the caller owns
func (h *OutletHandler) Create(c *fiber.Ctx) error {
	companyID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if _, err := h.access.RequireOwner(middleware.AccountID(c), companyID); err != nil {
		return err
	}

	var req outletRequest
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

	outlet, err := h.store.CreateOutlet(&models.Outlet{
		CompanyID: companyID,
		Name:      req.Name,
		Address:   req.Address,
		IsActive:  true,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(outlet)
}

// List returns the outlets of a company
func (h *OutletHandler) List(c *fiber.Ctx) error {
	companyID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	outlets, err := h.store.GetOutletsByCompany(companyID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"outlets": outlets,
		"count":   len(outlets),
	})
}

// Update modifies an outlet of a company the caller owns
func (h *OutletHandler) Update(c *fiber.Ctx) error {
	companyID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	outletID, err := paramID(c, "outletId")
	if err != nil {
		return err
	}
	if _, err := h.access.RequireOwner(middleware.AccountID(c), companyID); err != nil {
		return err
	}

	outlet, err := h.store.GetOutlet(outletID)
	if err != nil {
		return err
	}
	if outlet.CompanyID != companyID {
		return errs.Forbidden("outlet does not belong to this company")
	}
	var req outletRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Name != "" {
		outlet.Name = req.Name
	}
	if req.Address != "" {
		outlet.Address = req.Address
	}
	if err := h.store.UpdateOutlet(outlet); err != nil {
		return err
	}
	return c.JSON(outlet)
}

// Delete removes an outlet of a company the caller owns
func (h *OutletHandler) Delete(c *fiber.Ctx) error {
	companyID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	outletID, err := paramID(c, "outletId")
	if err != nil {
		return err
	}
	if _, err := h.access.RequireOwner(middleware.AccountID(c), companyID); err != nil {
		return err
	}
	outlet, err := h.store.GetOutlet(outletID)
	if err != nil {
		return err
	}
	if outlet.CompanyID != companyID {
		return errs.Forbidden("outlet does not belong to this company")
	}
	if err := h.store.DeleteOutlet(outletID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Outlet deleted",
	})
}
