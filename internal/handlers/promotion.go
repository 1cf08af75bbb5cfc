package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/perkpoint/loyalty-backend/internal/errs"
	"github.com/perkpoint/loyalty-backend/internal/middleware"
	"github.com/perkpoint/loyalty-backend/internal/models"
	"github.com/perkpoint/loyalty-backend/internal/services"
	"github.com/perkpoint/loyalty-backend/internal/storage"
)

// PromotionHandler manages a company's promotions
type PromotionHandler struct {
	store  storage.Store
	access *services.AccessService
}

// NewPromotionHandler creates a new promotion handler
func NewPromotionHandler(store storage.Store, access *services.AccessService) *PromotionHandler {
	return &PromotionHandler{store: store, access: access}
}

type promotionRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
}

// Create adds a promotion to a company the caller owns
func (h *PromotionHandler) Create(c *fiber.Ctx) error {
	companyID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if _, err := h.access.RequireOwner(middleware.AccountID(c), companyID); err != nil {
		return err
	}

	var req promotionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Title is required",
		})
	}
	if !req.EndsAt.After(req.StartsAt) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "ends_at must be after starts_at",
		})
	}

	promo, err := h.store.CreatePromotion(&models.Promotion{
		CompanyID:   companyID,
		Title:       req.Title,
		Description: req.Description,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		IsActive:    true,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(promo)
}

// List returns the company's promotions
func (h *PromotionHandler) List(c *fiber.Ctx) error {
	companyID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	promos, err := h.store.GetPromotionsByCompany(companyID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"promotions": promos,
		"count":      len(promos),
	})
}

// Update modifies a promotion
func (h *PromotionHandler) Update(c *fiber.Ctx) error {
	companyID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	promoID, err := paramID(c, "promoId")
	if err != nil {
		return err
	}
	if _, err := h.access.RequireOwner(middleware.AccountID(c), companyID); err != nil {
		return err
	}

	promo, err := h.store.GetPromotion(promoID)
	if err != nil {
		return err
	}
	if promo.CompanyID != companyID {
		return errs.Forbidden("promotion does not belong to this company")
	}
	var req promotionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Title != "" {
		promo.Title = req.Title
	}
	if req.Description != "" {
		promo.Description = req.Description
	}
	if !req.StartsAt.IsZero() {
		promo.StartsAt = req.StartsAt
	}
	if !req.EndsAt.IsZero() {
		promo.EndsAt = req.EndsAt
	}
	if err := h.store.UpdatePromotion(promo); err != nil {
		return err
	}
	return c.JSON(promo)
}

// Delete removes a promotion
func (h *PromotionHandler) Delete(c *fiber.Ctx) error {
	companyID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	promoID, err := paramID(c, "promoId")
	if err != nil {
		return err
	}
	if _, err := h.access.RequireOwner(middleware.AccountID(c), companyID); err != nil {
		return err
	}
	promo, err := h.store.GetPromotion(promoID)
	if err != nil {
		return err
	}
	if promo.CompanyID != companyID {
		return errs.Forbidden("promotion does not belong to this company")
	}
	if err := h.store.DeletePromotion(promoID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Promotion deleted",
	})
}
