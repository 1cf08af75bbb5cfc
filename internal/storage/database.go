package storage

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/perkpoint/loyalty-backend/internal/errs"
	"github.com/perkpoint/loyalty-backend/internal/models"
)

// DatabaseStore is the PostgreSQL-backed Store implementation
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a store backed by the given GORM connection
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

func translate(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.NotFound(what + " not found")
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errs.Conflict(what + " already exists")
	}
	return err
}

// Account operations

func (s *DatabaseStore) CreateAccount(reg *models.AccountRegistration) (*models.Account, error) {
	account := &models.Account{
		Phone:    reg.Phone,
		Email:    reg.Email,
		Name:     reg.Name,
		IsActive: true,
	}
	if err := s.db.Create(account).Error; err != nil {
		return nil, translate(err, "account")
	}
	return account, nil
}

func (s *DatabaseStore) GetAccount(id uint) (*models.Account, error) {
	var account models.Account
	if err := s.db.First(&account, id).Error; err != nil {
		return nil, translate(err, "account")
	}
	return &account, nil
}

func (s *DatabaseStore) GetAccountByPhone(phone string) (*models.Account, error) {
	var account models.Account
	if err := s.db.Where("phone = ?", models.NormalizePhone(phone)).First(&account).Error; err != nil {
		return nil, translate(err, "account")
	}
	return &account, nil
}

func (s *DatabaseStore) GetAccountByTelegramID(telegramID int64) (*models.Account, error) {
	var account models.Account
	if err := s.db.Where("telegram_id = ?", telegramID).First(&account).Error; err != nil {
		return nil, translate(err, "account")
	}
	return &account, nil
}

func (s *DatabaseStore) UpdateAccount(account *models.Account) error {
	return s.db.Save(account).Error
}

func (s *DatabaseStore) DeleteAccount(id uint) error {
	return s.db.Delete(&models.Account{}, id).Error
}

// OTP operations

func (s *DatabaseStore) ReplaceOTP(otp *models.OTPCode) (*models.OTPCode, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		// Invalidate every unused predecessor for this account+purpose,
		// expired ones included.
		if err := tx.Model(&models.OTPCode{}).
			Where("account_id = ? AND purpose = ? AND is_used = ?", otp.AccountID, otp.Purpose, false).
			Updates(map[string]interface{}{"is_used": true, "used_at": now}).Error; err != nil {
			return err
		}
		return tx.Create(otp).Error
	})
	if err != nil {
		return nil, err
	}
	return otp, nil
}

func (s *DatabaseStore) GetLatestUnusedOTP(accountID uint, purpose models.OTPPurpose) (*models.OTPCode, error) {
	var otp models.OTPCode
	err := s.db.Where("account_id = ? AND purpose = ? AND is_used = ?", accountID, purpose, false).
		Order("created_at DESC").
		First(&otp).Error
	if err != nil {
		return nil, translate(err, "otp code")
	}
	return &otp, nil
}

func (s *DatabaseStore) MarkOTPUsed(id uint) (bool, error) {
	now := time.Now()
	// Conditional update: only one concurrent caller can win the flip.
	res := s.db.Model(&models.OTPCode{}).
		Where("id = ? AND is_used = ?", id, false).
		Updates(map[string]interface{}{"is_used": true, "used_at": now})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *DatabaseStore) IncrementOTPAttempts(id uint) (int, error) {
	if err := s.db.Model(&models.OTPCode{}).
		Where("id = ?", id).
		UpdateColumn("attempts", gorm.Expr("attempts + ?", 1)).Error; err != nil {
		return 0, err
	}
	var otp models.OTPCode
	if err := s.db.Select("attempts").First(&otp, id).Error; err != nil {
		return 0, translate(err, "otp code")
	}
	return otp.Attempts, nil
}

func (s *DatabaseStore) HasUsedOTPWithHash(accountID uint, purpose models.OTPPurpose, hash string) (bool, error) {
	var n int64
	err := s.db.Model(&models.OTPCode{}).
		Where("account_id = ? AND purpose = ? AND code_hash = ? AND is_used = ?", accountID, purpose, hash, true).
		Count(&n).Error
	return n > 0, err
}

func (s *DatabaseStore) DeleteExpiredOTPs(olderThan time.Time) error {
	// Soft delete: rows drop out of every query but stay for audit.
	return s.db.Where("expires_at < ?", olderThan).
		Delete(&models.OTPCode{}).Error
}

// Company operations

func (s *DatabaseStore) CreateCompany(company *models.Company) (*models.Company, error) {
	if err := s.db.Create(company).Error; err != nil {
		return nil, translate(err, "company")
	}
	return company, nil
}

func (s *DatabaseStore) GetCompany(id uint) (*models.Company, error) {
	var company models.Company
	if err := s.db.First(&company, id).Error; err != nil {
		return nil, translate(err, "company")
	}
	return &company, nil
}

func (s *DatabaseStore) GetCompanyByPublicID(companyID string) (*models.Company, error) {
	var company models.Company
	if err := s.db.Where("company_id = ?", companyID).First(&company).Error; err != nil {
		return nil, translate(err, "company")
	}
	return &company, nil
}

func (s *DatabaseStore) GetCompaniesByOwner(accountID uint) ([]*models.Company, error) {
	var companies []*models.Company
	if err := s.db.Where("owner_id = ?", accountID).Find(&companies).Error; err != nil {
		return nil, err
	}
	return companies, nil
}

func (s *DatabaseStore) UpdateCompany(company *models.Company) error {
	return s.db.Save(company).Error
}

func (s *DatabaseStore) DeleteCompany(id uint) error {
	return s.db.Delete(&models.Company{}, id).Error
}

// Outlet operations

func (s *DatabaseStore) CreateOutlet(outlet *models.Outlet) (*models.Outlet, error) {
	if err := s.db.Create(outlet).Error; err != nil {
		return nil, translate(err, "outlet")
	}
	return outlet, nil
}

func (s *DatabaseStore) GetOutlet(id uint) (*models.Outlet, error) {
	var outlet models.Outlet
	if err := s.db.First(&outlet, id).Error; err != nil {
		return nil, translate(err, "outlet")
	}
	return &outlet, nil
}

func (s *DatabaseStore) GetOutletsByCompany(companyID uint) ([]*models.Outlet, error) {
	var outlets []*models.Outlet
	if err := s.db.Where("company_id = ?", companyID).Find(&outlets).Error; err != nil {
		return nil, err
	}
	return outlets, nil
}

func (s *DatabaseStore) UpdateOutlet(outlet *models.Outlet) error {
	return s.db.Save(outlet).Error
}

func (s *DatabaseStore) DeleteOutlet(id uint) error {
	return s.db.Delete(&models.Outlet{}, id).Error
}

// Role operations

func (s *DatabaseStore) CreateUserRole(role *models.UserRole) (*models.UserRole, error) {
	if err := s.db.Create(role).Error; err != nil {
		return nil, translate(err, "user role")
	}
	return role, nil
}

func (s *DatabaseStore) GetUserRoleByAccount(accountID uint) (*models.UserRole, error) {
	var role models.UserRole
	if err := s.db.Where("account_id = ?", accountID).First(&role).Error; err != nil {
		return nil, translate(err, "user role")
	}
	return &role, nil
}

func (s *DatabaseStore) CreateEmployeeRole(role *models.EmployeeRole) (*models.EmployeeRole, error) {
	if err := s.db.Create(role).Error; err != nil {
		return nil, translate(err, "employee role")
	}
	return role, nil
}

func (s *DatabaseStore) GetEmployeeRole(accountID, companyID uint) (*models.EmployeeRole, error) {
	var role models.EmployeeRole
	err := s.db.Preload("Outlets").
		Where("account_id = ? AND company_id = ?", accountID, companyID).
		First(&role).Error
	if err != nil {
		return nil, translate(err, "employee role")
	}
	return &role, nil
}

func (s *DatabaseStore) GetEmployeeRoleByID(id uint) (*models.EmployeeRole, error) {
	var role models.EmployeeRole
	if err := s.db.First(&role, id).Error; err != nil {
		return nil, translate(err, "employee role")
	}
	return &role, nil
}

func (s *DatabaseStore) GetEmployeesByCompany(companyID uint) ([]*models.EmployeeRole, error) {
	var roles []*models.EmployeeRole
	if err := s.db.Preload("Outlets").Where("company_id = ?", companyID).Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

func (s *DatabaseStore) UpdateEmployeeRole(role *models.EmployeeRole) error {
	return s.db.Save(role).Error
}

func (s *DatabaseStore) DeleteEmployeeRole(id uint) error {
	return s.db.Delete(&models.EmployeeRole{}, id).Error
}

func (s *DatabaseStore) CreateCustomerRole(role *models.CustomerRole) (*models.CustomerRole, error) {
	if err := s.db.Create(role).Error; err != nil {
		return nil, translate(err, "customer role")
	}
	return role, nil
}

func (s *DatabaseStore) GetCustomerRole(accountID, companyID uint) (*models.CustomerRole, error) {
	var role models.CustomerRole
	err := s.db.Where("account_id = ? AND company_id = ?", accountID, companyID).First(&role).Error
	if err != nil {
		return nil, translate(err, "customer role")
	}
	return &role, nil
}

func (s *DatabaseStore) GetCustomersByCompany(companyID uint) ([]*models.CustomerRole, error) {
	var roles []*models.CustomerRole
	if err := s.db.Where("company_id = ?", companyID).Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

// Tariff plan operations

func (s *DatabaseStore) CreateTariffPlan(plan *models.TariffPlan) (*models.TariffPlan, error) {
	if err := s.db.Create(plan).Error; err != nil {
		return nil, translate(err, "tariff plan")
	}
	return plan, nil
}

func (s *DatabaseStore) GetTariffPlan(id uint) (*models.TariffPlan, error) {
	var plan models.TariffPlan
	if err := s.db.First(&plan, id).Error; err != nil {
		return nil, translate(err, "tariff plan")
	}
	return &plan, nil
}

func (s *DatabaseStore) GetActiveTariffPlans() ([]*models.TariffPlan, error) {
	var plans []*models.TariffPlan
	if err := s.db.Where("is_active = ?", true).Order("price_monthly ASC").Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}

func (s *DatabaseStore) UpdateTariffPlan(plan *models.TariffPlan) error {
	return s.db.Save(plan).Error
}

func (s *DatabaseStore) DeleteTariffPlan(id uint) error {
	return s.db.Delete(&models.TariffPlan{}, id).Error
}

// Subscription operations

func (s *DatabaseStore) CreateSubscription(sub *models.Subscription) (*models.Subscription, error) {
	if err := s.db.Create(sub).Error; err != nil {
		return nil, translate(err, "subscription")
	}
	return sub, nil
}

func (s *DatabaseStore) GetSubscriptionHistory(companyID uint) ([]*models.Subscription, error) {
	var subs []*models.Subscription
	// Unscoped: soft-deleted rows are part of history, the resolver
	// filters them out.
	err := s.db.Unscoped().Preload("TariffPlan").
		Where("company_id = ?", companyID).
		Order("start_date DESC").
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

func (s *DatabaseStore) UpdateSubscription(sub *models.Subscription) error {
	return s.db.Save(sub).Error
}

func (s *DatabaseStore) MarkExpiredSubscriptions(now time.Time) (int64, error) {
	res := s.db.Model(&models.Subscription{}).
		Where("status IN ? AND end_date IS NOT NULL AND end_date < ?",
			[]models.SubscriptionStatus{models.StatusActive, models.StatusTrialing}, now).
		Update("status", models.StatusExpired)
	return res.RowsAffected, res.Error
}

// Promotion operations

func (s *DatabaseStore) CreatePromotion(promo *models.Promotion) (*models.Promotion, error) {
	if err := s.db.Create(promo).Error; err != nil {
		return nil, translate(err, "promotion")
	}
	return promo, nil
}

func (s *DatabaseStore) GetPromotion(id uint) (*models.Promotion, error) {
	var promo models.Promotion
	if err := s.db.First(&promo, id).Error; err != nil {
		return nil, translate(err, "promotion")
	}
	return &promo, nil
}

func (s *DatabaseStore) GetPromotionsByCompany(companyID uint) ([]*models.Promotion, error) {
	var promos []*models.Promotion
	if err := s.db.Where("company_id = ?", companyID).Order("starts_at DESC").Find(&promos).Error; err != nil {
		return nil, err
	}
	return promos, nil
}

func (s *DatabaseStore) UpdatePromotion(promo *models.Promotion) error {
	return s.db.Save(promo).Error
}

func (s *DatabaseStore) DeletePromotion(id uint) error {
	return s.db.Delete(&models.Promotion{}, id).Error
}

// Cashback settings

func (s *DatabaseStore) UpsertCashbackSetting(setting *models.CashbackSetting) (*models.CashbackSetting, error) {
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "company_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"percent", "min_purchase", "max_spend_share", "is_active", "updated_at"}),
	}).Create(setting).Error
	if err != nil {
		return nil, err
	}
	return s.GetCashbackSetting(setting.CompanyID)
}

func (s *DatabaseStore) GetCashbackSetting(companyID uint) (*models.CashbackSetting, error) {
	var setting models.CashbackSetting
	if err := s.db.Where("company_id = ?", companyID).First(&setting).Error; err != nil {
		return nil, translate(err, "cashback setting")
	}
	return &setting, nil
}

// Transactions

func (s *DatabaseStore) RecordTransaction(txn *models.Transaction) (*models.Transaction, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var role models.CustomerRole
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&role, txn.CustomerRoleID).Error; err != nil {
			return translate(err, "customer role")
		}
		newBalance := role.CashbackBalance + txn.CashbackAmount
		if newBalance < 0 {
			return errs.Conflict("insufficient cashback balance")
		}
		if err := tx.Model(&role).Update("cashback_balance", newBalance).Error; err != nil {
			return err
		}
		txn.BalanceAfter = newBalance
		return tx.Create(txn).Error
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *DatabaseStore) GetTransactionsByCustomer(customerRoleID uint) ([]*models.Transaction, error) {
	var txns []*models.Transaction
	err := s.db.Where("customer_role_id = ?", customerRoleID).
		Order("created_at DESC").
		Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}

func (s *DatabaseStore) GetTransactionsByCompany(companyID uint) ([]*models.Transaction, error) {
	var txns []*models.Transaction
	err := s.db.Where("company_id = ?", companyID).
		Order("created_at DESC").
		Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}

// Dashboard counts

func (s *DatabaseStore) CountOutlets(companyID uint) (int64, error) {
	var n int64
	err := s.db.Model(&models.Outlet{}).Where("company_id = ?", companyID).Count(&n).Error
	return n, err
}

func (s *DatabaseStore) CountCustomers(companyID uint) (int64, error) {
	var n int64
	err := s.db.Model(&models.CustomerRole{}).Where("company_id = ?", companyID).Count(&n).Error
	return n, err
}

func (s *DatabaseStore) CountTransactions(companyID uint) (int64, error) {
	var n int64
	err := s.db.Model(&models.Transaction{}).Where("company_id = ?", companyID).Count(&n).Error
	return n, err
}
