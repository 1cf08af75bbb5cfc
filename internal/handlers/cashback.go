package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/perkpoint/loyalty-backend/internal/middleware"
	"github.com/perkpoint/loyalty-backend/internal/models"
	"github.com/perkpoint/loyalty-backend/internal/services"
	"github.com/perkpoint/loyalty-backend/internal/storage"
)

// CashbackHandler exposes the company's cashback configuration
type CashbackHandler struct {
	store  storage.Store
	access *services.AccessService
}

// NewCashbackHandler creates a new cashback handler
func NewCashbackHandler(store storage.Store, access *services.AccessService) *CashbackHandler {
	return &CashbackHandler{store: store, access: access}
}

type cashbackSettingRequest struct {
	Percent       float64 `json:"percent"`
	MinPurchase   float64 `json:"min_purchase"`
	MaxSpendShare float64 `json:"max_spend_share"`
	IsActive      *bool   `json:"is_active"`
}

// Upsert creates or updates the company's cashback setting
func (h *CashbackHandler) Upsert(c *fiber.Ctx) error {
	companyID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if _, err := h.access.RequireOwner(middleware.AccountID(c), companyID); err != nil {
		return err
	}

	var req cashbackSettingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Percent < 0 || req.Percent > 100 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "percent must be between 0 and 100",
		})
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	setting, err := h.store.UpsertCashbackSetting(&models.CashbackSetting{
		CompanyID:     companyID,
		Percent:       req.Percent,
		MinPurchase:   req.MinPurchase,
		MaxSpendShare: req.MaxSpendShare,
		IsActive:      active,
	})
	if err != nil {
		return err
	}
	return c.JSON(setting)
}

// Get returns the company's cashback setting
func (h *CashbackHandler) Get(c *fiber.Ctx) error {
	companyID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if _, err := h.access.RequireOwner(middleware.AccountID(c), companyID); err != nil {
		return err
	}
	setting, err := h.store.GetCashbackSetting(companyID)
	if err != nil {
		return err
	}
	return c.JSON(setting)
}
