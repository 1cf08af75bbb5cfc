package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/perkpoint/loyalty-backend/internal/middleware"
	"github.com/perkpoint/loyalty-backend/internal/storage"
)

// AccountHandler exposes the caller's own account
type AccountHandler struct {
	store storage.Store
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(store storage.Store) *AccountHandler {
	return &AccountHandler{store: store}
}

// Me returns the authenticated account
func (h *AccountHandler) Me(c *fiber.Ctx) error {
	account, err := h.store.GetAccount(middleware.AccountID(c))
	if err != nil {
		return err
	}
	return c.JSON(account)
}

// Update modifies the caller's profile fields
func (h *AccountHandler) Update(c *fiber.Ctx) error {
	account, err := h.store.GetAccount(middleware.AccountID(c))
	if err != nil {
		return err
	}

	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Name != "" {
		account.Name = req.Name
	}
	if req.Email != "" {
		account.Email = req.Email
	}
	if err := h.store.UpdateAccount(account); err != nil {
		return err
	}
	return c.JSON(account)
}

// Delete soft-deletes the caller's account
func (h *AccountHandler) Delete(c *fiber.Ctx) error {
	if err := h.store.DeleteAccount(middleware.AccountID(c)); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Account deleted",
	})
}
