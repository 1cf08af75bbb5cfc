package models

import (
	"strings"

	"gorm.io/gorm"
)

// Account is the identity anchor of the platform. One account can own
// companies (via UserRole), work in them (EmployeeRole) and shop in
// them (CustomerRole) at the same time.
type Account struct {
	// gorm.Model gives us ID, CreatedAt, UpdatedAt, DeletedAt (soft delete)
	gorm.Model

	Phone    string `json:"phone" gorm:"uniqueIndex;not null"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active" gorm:"default:true"`

	TelegramID int64 `json:"telegram_id,omitempty" gorm:"index"`
}

// BeforeCreate normalizes the phone number before the row is written.
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	a.Phone = NormalizePhone(a.Phone)
	return nil
}

// NormalizePhone strips spaces and guarantees a leading "+".
func NormalizePhone(phone string) string {
	phone = strings.ReplaceAll(phone, " ", "")
	if phone != "" && !strings.HasPrefix(phone, "+") {
		phone = "+" + phone
	}
	return phone
}

// AccountRegistration is the payload for new account registration.
type AccountRegistration struct {
	Phone string `json:"phone" validate:"required"`
	Email string `json:"email"`
	Name  string `json:"name"`
}
