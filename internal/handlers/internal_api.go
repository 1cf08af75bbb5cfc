package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/perkpoint/loyalty-backend/internal/services"
	"github.com/perkpoint/loyalty-backend/internal/storage"
)

// InternalHandler serves the bot gateways over the API-key-gated
// internal boundary.
type InternalHandler struct {
	store storage.Store
	auth  *services.AuthService
}

// NewInternalHandler creates a new internal handler
func NewInternalHandler(store storage.Store, auth *services.AuthService) *InternalHandler {
	return &InternalHandler{store: store, auth: auth}
}

type onboardRequest struct {
	Phone      string `json:"phone"`
	TelegramID int64  `json:"telegram_id"`
	CompanyID  uint   `json:"company_id"`
}

// OnboardCustomer returns or creates the CustomerRole for a phone
// number or Telegram id in a company
func (h *InternalHandler) OnboardCustomer(c *fiber.Ctx) error {
	var req onboardRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.CompanyID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "company_id is required",
		})
	}

	role, err := h.auth.OnboardCustomer(req.Phone, req.TelegramID, req.CompanyID)
	if err != nil {
		return err
	}
	return c.JSON(role)
}

// FindByTelegramID resolves a Telegram id to an account
func (h *InternalHandler) FindByTelegramID(c *fiber.Ctx) error {
	tid, err := strconv.ParseInt(c.Params("tid"), 10, 64)
	if err != nil || tid == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid telegram id",
		})
	}
	account, err := h.store.GetAccountByTelegramID(tid)
	if err != nil {
		return err
	}
	return c.JSON(account)
}
