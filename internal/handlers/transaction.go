package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/perkpoint/loyalty-backend/internal/errs"
	"github.com/perkpoint/loyalty-backend/internal/middleware"
	"github.com/perkpoint/loyalty-backend/internal/models"
	"github.com/perkpoint/loyalty-backend/internal/services"
	"github.com/perkpoint/loyalty-backend/internal/storage"
)

// TransactionHandler records cashback movements at the counter. Earn
// and spend are employee operations; the balance view is the
// customer's own.
type TransactionHandler struct {
	store    storage.Store
	access   *services.AccessService
	cashback *services.CashbackService
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(store storage.Store, access *services.AccessService, cashback *services.CashbackService) *TransactionHandler {
	return &TransactionHandler{store: store, access: access, cashback: cashback}
}

type transactionRequest struct {
	CustomerPhone  string  `json:"customer_phone"`
	OutletID       uint    `json:"outlet_id"`
	PurchaseAmount float64 `json:"purchase_amount"`
	SpendAmount    float64 `json:"spend_amount"`
	Channel        string  `json:"channel"`
	Code           string  `json:"code"`
}

// resolveCounter loads the calling employee and the customer the
// request names, and checks outlet scope.
func (h *TransactionHandler) resolveCounter(c *fiber.Ctx, companyID uint, req *transactionRequest) (*models.EmployeeRole, *models.CustomerRole, error) {
	employee, err := h.access.RequireEmployee(middleware.AccountID(c), companyID)
	if err != nil {
		return nil, nil, err
	}
	if req.OutletID != 0 && len(employee.Outlets) > 0 {
		scoped := false
		for _, o := range employee.Outlets {
			if o.ID == req.OutletID {
				scoped = true
				break
			}
		}
		if !scoped {
			return nil, nil, errs.Forbidden("outlet outside employee scope")
		}
	}

	account, err := h.store.GetAccountByPhone(req.CustomerPhone)
	if err != nil {
		return nil, nil, err
	}
	customer, err := h.store.GetCustomerRole(account.ID, companyID)
	if err != nil {
		return nil, nil, err
	}
	return employee, customer, nil
}

// Earn records a purchase and accrues cashback
func (h *TransactionHandler) Earn(c *fiber.Ctx) error {
	companyID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req transactionRequest
	if err := c.BodyParser(&req); err != nil || req.CustomerPhone == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "customer_phone is required",
		})
	}

	employee, customer, err := h.resolveCounter(c, companyID, &req)
	if err != nil {
		return err
	}
	txn, err := h.cashback.Earn(companyID, req.OutletID, employee.ID, customer.ID, req.PurchaseAmount)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(txn)
}

// RequestSpend sends the customer a confirmation code for a redemption
func (h *TransactionHandler) RequestSpend(c *fiber.Ctx) error {
	companyID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req transactionRequest
	if err := c.BodyParser(&req); err != nil || req.CustomerPhone == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "customer_phone is required",
		})
	}

	_, customer, err := h.resolveCounter(c, companyID, &req)
	if err != nil {
		return err
	}
	channel := models.OTPChannel(req.Channel)
	if channel == "" {
		channel = models.ChannelSMS
	}
	if err := h.cashback.RequestSpend(customer, req.PurchaseAmount, req.SpendAmount, channel); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Confirmation code sent to customer",
	})
}

// ConfirmSpend completes a redemption with the customer's code
func (h *TransactionHandler) ConfirmSpend(c *fiber.Ctx) error {
	companyID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req transactionRequest
	if err := c.BodyParser(&req); err != nil || req.CustomerPhone == "" || req.Code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "customer_phone and code are required",
		})
	}

	employee, customer, err := h.resolveCounter(c, companyID, &req)
	if err != nil {
		return err
	}
	txn, err := h.cashback.ConfirmSpend(customer, req.OutletID, employee.ID, req.PurchaseAmount, req.SpendAmount, req.Code)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(txn)
}

// ListCompany returns a company's transaction feed for its owner
func (h *TransactionHandler) ListCompany(c *fiber.Ctx) error {
	companyID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if _, err := h.access.RequireOwner(middleware.AccountID(c), companyID); err != nil {
		return err
	}
	txns, err := h.store.GetTransactionsByCompany(companyID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"transactions": txns,
		"count":        len(txns),
	})
}

// MyBalance returns the calling customer's balance and history in a
// company
func (h *TransactionHandler) MyBalance(c *fiber.Ctx) error {
	companyID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	customer, err := h.access.RequireCustomer(middleware.AccountID(c), companyID)
	if err != nil {
		return err
	}
	txns, err := h.store.GetTransactionsByCustomer(customer.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"balance":      customer.CashbackBalance,
		"transactions": txns,
	})
}
