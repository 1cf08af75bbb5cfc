package storage

import (
	"time"

	"github.com/perkpoint/loyalty-backend/internal/models"
)

// Store defines the interface for storage operations
type Store interface {
	// Account operations
	CreateAccount(reg *models.AccountRegistration) (*models.Account, error)
	GetAccount(id uint) (*models.Account, error)
	GetAccountByPhone(phone string) (*models.Account, error)
	GetAccountByTelegramID(telegramID int64) (*models.Account, error)
	UpdateAccount(account *models.Account) error
	DeleteAccount(id uint) error

	// OTP operations
	// ReplaceOTP marks every unused code for (account, purpose) as used
	// and inserts the new code, atomically.
	ReplaceOTP(otp *models.OTPCode) (*models.OTPCode, error)
	// GetLatestUnusedOTP returns the newest unused code for (account,
	// purpose) regardless of expiry; expiry is the caller's problem.
	GetLatestUnusedOTP(accountID uint, purpose models.OTPPurpose) (*models.OTPCode, error)
	// MarkOTPUsed flips unused->used only if the code is still unused;
	// reports whether this call won the flip.
	MarkOTPUsed(id uint) (bool, error)
	IncrementOTPAttempts(id uint) (int, error)
	// HasUsedOTPWithHash reports whether a consumed code with this hash
	// exists for (account, purpose); distinguishes a stale invalidated
	// code from a plain wrong one.
	HasUsedOTPWithHash(accountID uint, purpose models.OTPPurpose, hash string) (bool, error)
	// DeleteExpiredOTPs soft-deletes codes that expired before the
	// cutoff; the rows stay in the table for audit.
	DeleteExpiredOTPs(olderThan time.Time) error

	// Company operations
	CreateCompany(company *models.Company) (*models.Company, error)
	GetCompany(id uint) (*models.Company, error)
	GetCompanyByPublicID(companyID string) (*models.Company, error)
	GetCompaniesByOwner(accountID uint) ([]*models.Company, error)
	UpdateCompany(company *models.Company) error
	DeleteCompany(id uint) error

	// Outlet operations
	CreateOutlet(outlet *models.Outlet) (*models.Outlet, error)
	GetOutlet(id uint) (*models.Outlet, error)
	GetOutletsByCompany(companyID uint) ([]*models.Outlet, error)
	UpdateOutlet(outlet *models.Outlet) error
	DeleteOutlet(id uint) error

	// Role operations
	CreateUserRole(role *models.UserRole) (*models.UserRole, error)
	GetUserRoleByAccount(accountID uint) (*models.UserRole, error)
	CreateEmployeeRole(role *models.EmployeeRole) (*models.EmployeeRole, error)
	GetEmployeeRole(accountID, companyID uint) (*models.EmployeeRole, error)
	GetEmployeeRoleByID(id uint) (*models.EmployeeRole, error)
	GetEmployeesByCompany(companyID uint) ([]*models.EmployeeRole, error)
	UpdateEmployeeRole(role *models.EmployeeRole) error
	DeleteEmployeeRole(id uint) error
	CreateCustomerRole(role *models.CustomerRole) (*models.CustomerRole, error)
	GetCustomerRole(accountID, companyID uint) (*models.CustomerRole, error)
	GetCustomersByCompany(companyID uint) ([]*models.CustomerRole, error)

	// Tariff plan operations
	CreateTariffPlan(plan *models.TariffPlan) (*models.TariffPlan, error)
	GetTariffPlan(id uint) (*models.TariffPlan, error)
	GetActiveTariffPlans() ([]*models.TariffPlan, error)
	UpdateTariffPlan(plan *models.TariffPlan) error
	DeleteTariffPlan(id uint) error

	// Subscription operations
	CreateSubscription(sub *models.Subscription) (*models.Subscription, error)
	// GetSubscriptionHistory includes soft-deleted rows; current-
	// subscription resolution filters them itself.
	GetSubscriptionHistory(companyID uint) ([]*models.Subscription, error)
	UpdateSubscription(sub *models.Subscription) error
	// MarkExpiredSubscriptions flips active/trialing rows whose period
	// ended before now to expired; returns how many were flipped.
	MarkExpiredSubscriptions(now time.Time) (int64, error)

	// Promotion operations
	CreatePromotion(promo *models.Promotion) (*models.Promotion, error)
	GetPromotion(id uint) (*models.Promotion, error)
	GetPromotionsByCompany(companyID uint) ([]*models.Promotion, error)
	UpdatePromotion(promo *models.Promotion) error
	DeletePromotion(id uint) error

	// Cashback settings
	UpsertCashbackSetting(setting *models.CashbackSetting) (*models.CashbackSetting, error)
	GetCashbackSetting(companyID uint) (*models.CashbackSetting, error)

	// Transactions
	// RecordTransaction applies the cashback delta to the customer's
	// balance and inserts the row in one transaction; fails if the
	// balance would go negative.
	RecordTransaction(txn *models.Transaction) (*models.Transaction, error)
	GetTransactionsByCustomer(customerRoleID uint) ([]*models.Transaction, error)
	GetTransactionsByCompany(companyID uint) ([]*models.Transaction, error)

	// Dashboard counts
	CountOutlets(companyID uint) (int64, error)
	CountCustomers(companyID uint) (int64, error)
	CountTransactions(companyID uint) (int64, error)
}
