package models

import (
	"gorm.io/gorm"
)

// RoleKind names the relationship an account holds towards a company.
type RoleKind string

const (
	RoleOwner    RoleKind = "owner"
	RoleEmployee RoleKind = "employee"
	RoleCustomer RoleKind = "customer"
)

// UserRole is the backoffice/owner identity of an account. At most one
// per account; the companies it controls are the ones whose OwnerID
// points back at the account.
type UserRole struct {
	gorm.Model
	AccountID   uint   `json:"account_id" gorm:"uniqueIndex;not null"`
	AccessLevel string `json:"access_level" gorm:"default:'owner'"` // "owner" or "admin"
}

// EmployeeRole links an account to a company it works for, scoped to
// one or more outlets. At most one per (account, company).
type EmployeeRole struct {
	gorm.Model
	AccountID uint     `json:"account_id" gorm:"not null;uniqueIndex:ux_employee_account_company"`
	CompanyID uint     `json:"company_id" gorm:"not null;uniqueIndex:ux_employee_account_company"`
	Position  string   `json:"position"`
	IsActive  bool     `json:"is_active" gorm:"default:true"`
	Outlets   []Outlet `json:"outlets,omitempty" gorm:"many2many:employee_outlets"`
}

// CustomerRole links an account to a company it shops at and carries
// the cashback balance. At most one per (account, company).
type CustomerRole struct {
	gorm.Model
	AccountID       uint    `json:"account_id" gorm:"not null;uniqueIndex:ux_customer_account_company"`
	CompanyID       uint    `json:"company_id" gorm:"not null;uniqueIndex:ux_customer_account_company"`
	CashbackBalance float64 `json:"cashback_balance" gorm:"default:0"`
	IsActive        bool    `json:"is_active" gorm:"default:true"`
}
