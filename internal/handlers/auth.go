package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/perkpoint/loyalty-backend/internal/models"
	"github.com/perkpoint/loyalty-backend/internal/services"
	"github.com/perkpoint/loyalty-backend/internal/utils"
)

// AuthHandler handles registration and the OTP login flows
type AuthHandler struct {
	auth *services.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Register creates an owner account
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var reg models.AccountRegistration
	if err := c.BodyParser(&reg); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if reg.Phone == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Phone is required",
		})
	}

	account, err := h.auth.Register(&reg)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Account registered successfully",
		"account": account,
	})
}

type otpRequest struct {
	Phone     string          `json:"phone"`
	Role      models.RoleKind `json:"role"`
	CompanyID uint            `json:"company_id"`
	Channel   string          `json:"channel"`
	Code      string          `json:"code"`
}

// RequestOTP issues a login code for the requested role
func (h *AuthHandler) RequestOTP(c *fiber.Ctx) error {
	var req otpRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Phone == "" || req.Role == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Phone and role are required",
		})
	}

	channel := models.OTPChannel(req.Channel)
	if channel == "" {
		channel = models.ChannelSMS
	}

	err := h.auth.RequestLogin(req.Phone, req.Role, channel)
	if errors.Is(err, services.ErrOTPDelivery) {
		// Code is issued; only delivery failed. Surface it as its own
		// condition so the client can offer a retry.
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error":  "verification code could not be delivered",
			"issued": true,
		})
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Verification code sent",
	})
}

// VerifyOTP checks the code and returns an access token
func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req otpRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Phone == "" || req.Role == "" || req.Code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Phone, role and code are required",
		})
	}
	if !utils.DigitsOnly(req.Code) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Code must be numeric",
		})
	}

	token, account, err := h.auth.VerifyLogin(req.Phone, req.Role, req.CompanyID, req.Code)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"token":   token,
		"account": account,
	})
}
