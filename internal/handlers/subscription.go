package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/perkpoint/loyalty-backend/internal/middleware"
	"github.com/perkpoint/loyalty-backend/internal/models"
	"github.com/perkpoint/loyalty-backend/internal/services"
	"github.com/perkpoint/loyalty-backend/internal/storage"
)

// SubscriptionHandler manages a company's enrollment in tariff plans
type SubscriptionHandler struct {
	store  storage.Store
	access *services.AccessService
}

// NewSubscriptionHandler creates a new subscription handler
func NewSubscriptionHandler(store storage.Store, access *services.AccessService) *SubscriptionHandler {
	return &SubscriptionHandler{store: store, access: access}
}

type subscribeRequest struct {
	TariffPlanID uint `json:"tariff_plan_id"`
}

// Subscribe enrolls a company into a tariff plan, starting in trial
// when the plan grants trial days
func (h *SubscriptionHandler) Subscribe(c *fiber.Ctx) error {
	companyID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if _, err := h.access.RequireOwner(middleware.AccountID(c), companyID); err != nil {
		return err
	}

	var req subscribeRequest
	if err := c.BodyParser(&req); err != nil || req.TariffPlanID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "tariff_plan_id is required",
		})
	}
	plan, err := h.store.GetTariffPlan(req.TariffPlanID)
	if err != nil {
		return err
	}

	now := time.Now()
	sub := &models.Subscription{
		CompanyID:    companyID,
		TariffPlanID: plan.ID,
		StartDate:    now,
		Status:       models.StatusActive,
	}
	if plan.TrialDays > 0 {
		sub.Status = models.StatusTrialing
		end := now.AddDate(0, 0, plan.TrialDays)
		sub.EndDate = &end
	}

	created, err := h.store.CreateSubscription(sub)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// History returns the company's full subscription history
func (h *SubscriptionHandler) History(c *fiber.Ctx) error {
	companyID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if _, err := h.access.RequireOwner(middleware.AccountID(c), companyID); err != nil {
		return err
	}
	subs, err := h.store.GetSubscriptionHistory(companyID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"subscriptions": subs,
		"count":         len(subs),
	})
}

// Current resolves and returns the company's current subscription
func (h *SubscriptionHandler) Current(c *fiber.Ctx) error {
	companyID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if _, err := h.access.RequireOwner(middleware.AccountID(c), companyID); err != nil {
		return err
	}
	subs, err := h.store.GetSubscriptionHistory(companyID)
	if err != nil {
		return err
	}
	current, err := services.SelectCurrentSubscription(subs)
	if err != nil {
		return err
	}
	return c.JSON(current)
}
