package models

import (
	"time"

	"gorm.io/gorm"
)

// TariffPlan is a billing product companies subscribe to. Plan names
// are unique platform-wide; creating a duplicate is a conflict.
type TariffPlan struct {
	gorm.Model

	Name         string  `json:"name" gorm:"uniqueIndex;not null"`
	Description  string  `json:"description"`
	PriceMonthly float64 `json:"price_monthly"`
	MaxOutlets   int     `json:"max_outlets" gorm:"default:1"`
	MaxEmployees int     `json:"max_employees" gorm:"default:3"`
	TrialDays    int     `json:"trial_days" gorm:"default:14"`
	IsActive     bool    `json:"is_active" gorm:"default:true"`
}

// SubscriptionStatus is the lifecycle state of a subscription,
// mutated by billing events.
type SubscriptionStatus string

const (
	StatusTrialing          SubscriptionStatus = "trialing"
	StatusActive            SubscriptionStatus = "active"
	StatusPastDue           SubscriptionStatus = "past_due"
	StatusCanceled          SubscriptionStatus = "canceled"
	StatusExpired           SubscriptionStatus = "expired"
	StatusIncomplete        SubscriptionStatus = "incomplete"
	StatusIncompleteExpired SubscriptionStatus = "incomplete_expired"
	StatusUnpaid            SubscriptionStatus = "unpaid"
)

// Subscription enrolls a company into a tariff plan over a time range.
// A company accumulates subscription history; exactly one row is
// "current", resolved by services.SelectCurrentSubscription.
type Subscription struct {
	gorm.Model

	CompanyID    uint               `json:"company_id" gorm:"not null;index"`
	TariffPlanID uint               `json:"tariff_plan_id" gorm:"not null;index"`
	Status       SubscriptionStatus `json:"status" gorm:"not null;default:'trialing'"`
	StartDate    time.Time          `json:"start_date" gorm:"not null"`
	EndDate      *time.Time         `json:"end_date"`

	TariffPlan *TariffPlan `json:"tariff_plan,omitempty" gorm:"foreignKey:TariffPlanID"`
}
