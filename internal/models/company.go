package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Company is a tenant: a business running a loyalty program.
type Company struct {
	gorm.Model

	CompanyID   string `json:"company_id" gorm:"uniqueIndex"` // public identifier
	Name        string `json:"name" gorm:"not null"`
	Description string `json:"description"`
	OwnerID     uint   `json:"owner_id" gorm:"not null;index"` // Account.ID of the owner
	IsActive    bool   `json:"is_active" gorm:"default:true"`

	Outlets       []Outlet       `json:"outlets,omitempty" gorm:"foreignKey:CompanyID;references:ID"`
	Subscriptions []Subscription `json:"subscriptions,omitempty" gorm:"foreignKey:CompanyID;references:ID"`
}

// BeforeCreate generates the public company identifier.
func (c *Company) BeforeCreate(tx *gorm.DB) error {
	if c.CompanyID == "" {
		c.CompanyID = fmt.Sprintf("CP%d%03d", time.Now().Unix(), time.Now().Nanosecond()%1000)
	}
	return nil
}

// Outlet is a physical point of sale belonging to a company.
type Outlet struct {
	gorm.Model

	CompanyID uint   `json:"company_id" gorm:"not null;index"`
	Name      string `json:"name" gorm:"not null"`
	Address   string `json:"address"`
	IsActive  bool   `json:"is_active" gorm:"default:true"`
}

// CompanyCreate is the payload for creating a company.
type CompanyCreate struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}
