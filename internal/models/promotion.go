package models

import (
	"time"

	"gorm.io/gorm"
)

// Promotion is a company announcement shown to customers between the
// start and end dates.
type Promotion struct {
	gorm.Model

	CompanyID   uint      `json:"company_id" gorm:"not null;index"`
	Title       string    `json:"title" gorm:"not null"`
	Description string    `json:"description"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	IsActive    bool      `json:"is_active" gorm:"default:true"`
}

// Live reports whether the promotion is inside its display window.
func (p *Promotion) Live(now time.Time) bool {
	return p.IsActive && !now.Before(p.StartsAt) && now.Before(p.EndsAt)
}

// CashbackSetting configures how purchases accrue cashback for one
// company. One row per company, upserted from the backoffice.
type CashbackSetting struct {
	gorm.Model

	CompanyID     uint    `json:"company_id" gorm:"uniqueIndex;not null"`
	Percent       float64 `json:"percent" gorm:"default:5"`
	MinPurchase   float64 `json:"min_purchase" gorm:"default:0"`
	MaxSpendShare float64 `json:"max_spend_share" gorm:"default:0.5"` // fraction of a purchase payable from balance
	IsActive      bool    `json:"is_active" gorm:"default:true"`
}
