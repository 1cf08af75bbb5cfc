package models

import (
	"gorm.io/gorm"
)

// TransactionType distinguishes accrual from redemption.
type TransactionType string

const (
	TransactionEarn  TransactionType = "earn"
	TransactionSpend TransactionType = "spend"
)

// Transaction records one cashback movement on a customer's balance.
// Earn rows accrue a share of the purchase; spend rows redeem balance
// against a purchase and require OTP confirmation.
type Transaction struct {
	gorm.Model

	Reference      string          `json:"reference" gorm:"uniqueIndex;not null"`
	CompanyID      uint            `json:"company_id" gorm:"not null;index"`
	OutletID       uint            `json:"outlet_id" gorm:"index"`
	CustomerRoleID uint            `json:"customer_role_id" gorm:"not null;index"`
	EmployeeRoleID uint            `json:"employee_role_id" gorm:"index"` // who rang it up
	Type           TransactionType `json:"type" gorm:"not null"`
	PurchaseAmount float64         `json:"purchase_amount"`
	CashbackAmount float64         `json:"cashback_amount"` // signed: positive earn, negative spend
	BalanceAfter   float64         `json:"balance_after"`
}
