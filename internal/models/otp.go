package models

import (
	"time"

	"gorm.io/gorm"
)

// OTPPurpose scopes a code to one flow so codes never cross-validate.
type OTPPurpose string

const (
	PurposeBackofficeLogin OTPPurpose = "backoffice_login"
	PurposeCustomerOnboard OTPPurpose = "customer_onboarding"
	PurposeEmployeeLogin   OTPPurpose = "employee_login"
	PurposeCashbackSpend   OTPPurpose = "cashback_spend"
	PurposeAccountRegister OTPPurpose = "account_registration"
)

// OTPChannel is how the plaintext code reaches the user.
type OTPChannel string

const (
	ChannelSMS      OTPChannel = "sms"
	ChannelTelegram OTPChannel = "telegram"
)

// OTPCode is an ephemeral credential. Only the hash of the code is
// stored; rows are never deleted by the verify path, they are marked
// used and kept for audit.
type OTPCode struct {
	gorm.Model
	AccountID uint       `json:"account_id" gorm:"not null;index:idx_otp_account_purpose"`
	CodeHash  string     `json:"-" gorm:"not null"`
	Purpose   OTPPurpose `json:"purpose" gorm:"not null;index:idx_otp_account_purpose"`
	Channel   OTPChannel `json:"channel" gorm:"not null"`
	ExpiresAt time.Time  `json:"expires_at" gorm:"not null"`
	UsedAt    *time.Time `json:"used_at"`
	IsUsed    bool       `json:"is_used" gorm:"default:false"`
	Attempts  int        `json:"attempts" gorm:"default:0"`
	Metadata  string     `json:"metadata,omitempty"` // free-form JSON
}

// Active reports whether the code can still be submitted.
func (o *OTPCode) Active(now time.Time) bool {
	return !o.IsUsed && now.Before(o.ExpiresAt)
}
