package storage

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/perkpoint/loyalty-backend/internal/errs"
	"github.com/perkpoint/loyalty-backend/internal/models"
)

// MemoryStore holds all data in memory. Used by the test suite and,
// with USE_MEMORY_STORE=true, for local runs without Postgres.
type MemoryStore struct {
	mu sync.Mutex

	accounts      map[uint]*models.Account
	otps          map[uint]*models.OTPCode
	companies     map[uint]*models.Company
	outlets       map[uint]*models.Outlet
	userRoles     map[uint]*models.UserRole
	employeeRoles map[uint]*models.EmployeeRole
	customerRoles map[uint]*models.CustomerRole
	tariffPlans   map[uint]*models.TariffPlan
	subscriptions map[uint]*models.Subscription
	promotions    map[uint]*models.Promotion
	cashback      map[uint]*models.CashbackSetting // keyed by company id
	transactions  map[uint]*models.Transaction

	nextID uint
}

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts:      make(map[uint]*models.Account),
		otps:          make(map[uint]*models.OTPCode),
		companies:     make(map[uint]*models.Company),
		outlets:       make(map[uint]*models.Outlet),
		userRoles:     make(map[uint]*models.UserRole),
		employeeRoles: make(map[uint]*models.EmployeeRole),
		customerRoles: make(map[uint]*models.CustomerRole),
		tariffPlans:   make(map[uint]*models.TariffPlan),
		subscriptions: make(map[uint]*models.Subscription),
		promotions:    make(map[uint]*models.Promotion),
		cashback:      make(map[uint]*models.CashbackSetting),
		transactions:  make(map[uint]*models.Transaction),
	}
}

func (m *MemoryStore) newID() uint {
	m.nextID++
	return m.nextID
}

func stamp(model *gorm.Model, id uint) {
	model.ID = id
	model.CreatedAt = time.Now()
	model.UpdatedAt = time.Now()
}

// Account operations

func (m *MemoryStore) CreateAccount(reg *models.AccountRegistration) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	phone := models.NormalizePhone(reg.Phone)
	for _, a := range m.accounts {
		if a.Phone == phone && !a.DeletedAt.Valid {
			return nil, errs.Conflict("account already exists")
		}
	}
	account := &models.Account{
		Phone:    phone,
		Email:    reg.Email,
		Name:     reg.Name,
		IsActive: true,
	}
	stamp(&account.Model, m.newID())
	m.accounts[account.ID] = account
	return account, nil
}

func (m *MemoryStore) GetAccount(id uint) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	account, exists := m.accounts[id]
	if !exists || account.DeletedAt.Valid {
		return nil, errs.NotFound("account not found")
	}
	return account, nil
}

func (m *MemoryStore) GetAccountByPhone(phone string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	phone = models.NormalizePhone(phone)
	for _, a := range m.accounts {
		if a.Phone == phone && !a.DeletedAt.Valid {
			return a, nil
		}
	}
	return nil, errs.NotFound("account not found")
}

func (m *MemoryStore) GetAccountByTelegramID(telegramID int64) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.accounts {
		if a.TelegramID == telegramID && !a.DeletedAt.Valid {
			return a, nil
		}
	}
	return nil, errs.NotFound("account not found")
}

func (m *MemoryStore) UpdateAccount(account *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.accounts[account.ID]; !exists {
		return errs.NotFound("account not found")
	}
	account.UpdatedAt = time.Now()
	m.accounts[account.ID] = account
	return nil
}

func (m *MemoryStore) DeleteAccount(id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	account, exists := m.accounts[id]
	if !exists {
		return errs.NotFound("account not found")
	}
	account.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	return nil
}

// OTP operations

func (m *MemoryStore) ReplaceOTP(otp *models.OTPCode) (*models.OTPCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for _, o := range m.otps {
		if o.AccountID == otp.AccountID && o.Purpose == otp.Purpose && !o.IsUsed && !o.DeletedAt.Valid {
			o.IsUsed = true
			o.UsedAt = &now
		}
	}
	stamp(&otp.Model, m.newID())
	m.otps[otp.ID] = otp
	return otp, nil
}

func (m *MemoryStore) GetLatestUnusedOTP(accountID uint, purpose models.OTPPurpose) (*models.OTPCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var latest *models.OTPCode
	for _, o := range m.otps {
		if o.AccountID != accountID || o.Purpose != purpose || o.IsUsed || o.DeletedAt.Valid {
			continue
		}
		if latest == nil || o.CreatedAt.After(latest.CreatedAt) ||
			(o.CreatedAt.Equal(latest.CreatedAt) && o.ID > latest.ID) {
			latest = o
		}
	}
	if latest == nil {
		return nil, errs.NotFound("otp code not found")
	}
	copied := *latest
	return &copied, nil
}

func (m *MemoryStore) MarkOTPUsed(id uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	otp, exists := m.otps[id]
	if !exists {
		return false, errs.NotFound("otp code not found")
	}
	if otp.IsUsed {
		return false, nil
	}
	now := time.Now()
	otp.IsUsed = true
	otp.UsedAt = &now
	return true, nil
}

func (m *MemoryStore) IncrementOTPAttempts(id uint) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	otp, exists := m.otps[id]
	if !exists {
		return 0, errs.NotFound("otp code not found")
	}
	otp.Attempts++
	return otp.Attempts, nil
}

func (m *MemoryStore) HasUsedOTPWithHash(accountID uint, purpose models.OTPPurpose, hash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, o := range m.otps {
		if o.AccountID == accountID && o.Purpose == purpose && o.CodeHash == hash && o.IsUsed && !o.DeletedAt.Valid {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) DeleteExpiredOTPs(olderThan time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, o := range m.otps {
		if o.ExpiresAt.Before(olderThan) && !o.DeletedAt.Valid {
			o.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
		}
	}
	return nil
}

// Company operations

func (m *MemoryStore) CreateCompany(company *models.Company) (*models.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stamp(&company.Model, m.newID())
	if company.CompanyID == "" {
		company.CompanyID = fmt.Sprintf("CP%05d", company.ID)
	}
	m.companies[company.ID] = company
	return company, nil
}

func (m *MemoryStore) GetCompany(id uint) (*models.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	company, exists := m.companies[id]
	if !exists || company.DeletedAt.Valid {
		return nil, errs.NotFound("company not found")
	}
	return company, nil
}

func (m *MemoryStore) GetCompanyByPublicID(companyID string) (*models.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.companies {
		if c.CompanyID == companyID && !c.DeletedAt.Valid {
			return c, nil
		}
	}
	return nil, errs.NotFound("company not found")
}

func (m *MemoryStore) GetCompaniesByOwner(accountID uint) ([]*models.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var companies []*models.Company
	for _, c := range m.companies {
		if c.OwnerID == accountID && !c.DeletedAt.Valid {
			companies = append(companies, c)
		}
	}
	sort.Slice(companies, func(i, j int) bool { return companies[i].ID < companies[j].ID })
	return companies, nil
}

func (m *MemoryStore) UpdateCompany(company *models.Company) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.companies[company.ID]; !exists {
		return errs.NotFound("company not found")
	}
	company.UpdatedAt = time.Now()
	m.companies[company.ID] = company
	return nil
}

func (m *MemoryStore) DeleteCompany(id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	company, exists := m.companies[id]
	if !exists {
		return errs.NotFound("company not found")
	}
	company.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	return nil
}

// Outlet operations

func (m *MemoryStore) CreateOutlet(outlet *models.Outlet) (*models.Outlet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stamp(&outlet.Model, m.newID())
	m.outlets[outlet.ID] = outlet
	return outlet, nil
}

func (m *MemoryStore) GetOutlet(id uint) (*models.Outlet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	outlet, exists := m.outlets[id]
	if !exists || outlet.DeletedAt.Valid {
		return nil, errs.NotFound("outlet not found")
	}
	return outlet, nil
}

func (m *MemoryStore) GetOutletsByCompany(companyID uint) ([]*models.Outlet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var outlets []*models.Outlet
	for _, o := range m.outlets {
		if o.CompanyID == companyID && !o.DeletedAt.Valid {
			outlets = append(outlets, o)
		}
	}
	sort.Slice(outlets, func(i, j int) bool { return outlets[i].ID < outlets[j].ID })
	return outlets, nil
}

func (m *MemoryStore) UpdateOutlet(outlet *models.Outlet) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.outlets[outlet.ID]; !exists {
		return errs.NotFound("outlet not found")
	}
	outlet.UpdatedAt = time.Now()
	m.outlets[outlet.ID] = outlet
	return nil
}

func (m *MemoryStore) DeleteOutlet(id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	outlet, exists := m.outlets[id]
	if !exists {
		return errs.NotFound("outlet not found")
	}
	outlet.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	return nil
}

// Role operations

func (m *MemoryStore) CreateUserRole(role *models.UserRole) (*models.UserRole, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.userRoles {
		if r.AccountID == role.AccountID {
			return nil, errs.Conflict("user role already exists")
		}
	}
	stamp(&role.Model, m.newID())
	m.userRoles[role.ID] = role
	return role, nil
}

func (m *MemoryStore) GetUserRoleByAccount(accountID uint) (*models.UserRole, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.userRoles {
		if r.AccountID == accountID && !r.DeletedAt.Valid {
			return r, nil
		}
	}
	return nil, errs.NotFound("user role not found")
}

func (m *MemoryStore) CreateEmployeeRole(role *models.EmployeeRole) (*models.EmployeeRole, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.employeeRoles {
		if r.AccountID == role.AccountID && r.CompanyID == role.CompanyID && !r.DeletedAt.Valid {
			return nil, errs.Conflict("employee role already exists")
		}
	}
	stamp(&role.Model, m.newID())
	m.employeeRoles[role.ID] = role
	return role, nil
}

func (m *MemoryStore) GetEmployeeRole(accountID, companyID uint) (*models.EmployeeRole, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.employeeRoles {
		if r.AccountID == accountID && r.CompanyID == companyID && !r.DeletedAt.Valid {
			return r, nil
		}
	}
	return nil, errs.NotFound("employee role not found")
}

func (m *MemoryStore) GetEmployeeRoleByID(id uint) (*models.EmployeeRole, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	role, exists := m.employeeRoles[id]
	if !exists || role.DeletedAt.Valid {
		return nil, errs.NotFound("employee role not found")
	}
	return role, nil
}

func (m *MemoryStore) GetEmployeesByCompany(companyID uint) ([]*models.EmployeeRole, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var roles []*models.EmployeeRole
	for _, r := range m.employeeRoles {
		if r.CompanyID == companyID && !r.DeletedAt.Valid {
			roles = append(roles, r)
		}
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].ID < roles[j].ID })
	return roles, nil
}

func (m *MemoryStore) UpdateEmployeeRole(role *models.EmployeeRole) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.employeeRoles[role.ID]; !exists {
		return errs.NotFound("employee role not found")
	}
	role.UpdatedAt = time.Now()
	m.employeeRoles[role.ID] = role
	return nil
}

func (m *MemoryStore) DeleteEmployeeRole(id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	role, exists := m.employeeRoles[id]
	if !exists {
		return errs.NotFound("employee role not found")
	}
	role.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	return nil
}

func (m *MemoryStore) CreateCustomerRole(role *models.CustomerRole) (*models.CustomerRole, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.customerRoles {
		if r.AccountID == role.AccountID && r.CompanyID == role.CompanyID && !r.DeletedAt.Valid {
			return nil, errs.Conflict("customer role already exists")
		}
	}
	stamp(&role.Model, m.newID())
	m.customerRoles[role.ID] = role
	return role, nil
}

func (m *MemoryStore) GetCustomerRole(accountID, companyID uint) (*models.CustomerRole, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.customerRoles {
		if r.AccountID == accountID && r.CompanyID == companyID && !r.DeletedAt.Valid {
			return r, nil
		}
	}
	return nil, errs.NotFound("customer role not found")
}

func (m *MemoryStore) GetCustomersByCompany(companyID uint) ([]*models.CustomerRole, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var roles []*models.CustomerRole
	for _, r := range m.customerRoles {
		if r.CompanyID == companyID && !r.DeletedAt.Valid {
			roles = append(roles, r)
		}
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].ID < roles[j].ID })
	return roles, nil
}

// Tariff plan operations

func (m *MemoryStore) CreateTariffPlan(plan *models.TariffPlan) (*models.TariffPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.tariffPlans {
		if p.Name == plan.Name && !p.DeletedAt.Valid {
			return nil, errs.Conflict("tariff plan already exists")
		}
	}
	stamp(&plan.Model, m.newID())
	m.tariffPlans[plan.ID] = plan
	return plan, nil
}

func (m *MemoryStore) GetTariffPlan(id uint) (*models.TariffPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	plan, exists := m.tariffPlans[id]
	if !exists || plan.DeletedAt.Valid {
		return nil, errs.NotFound("tariff plan not found")
	}
	return plan, nil
}

func (m *MemoryStore) GetActiveTariffPlans() ([]*models.TariffPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var plans []*models.TariffPlan
	for _, p := range m.tariffPlans {
		if p.IsActive && !p.DeletedAt.Valid {
			plans = append(plans, p)
		}
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].PriceMonthly < plans[j].PriceMonthly })
	return plans, nil
}

func (m *MemoryStore) UpdateTariffPlan(plan *models.TariffPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.tariffPlans[plan.ID]; !exists {
		return errs.NotFound("tariff plan not found")
	}
	plan.UpdatedAt = time.Now()
	m.tariffPlans[plan.ID] = plan
	return nil
}

func (m *MemoryStore) DeleteTariffPlan(id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	plan, exists := m.tariffPlans[id]
	if !exists {
		return errs.NotFound("tariff plan not found")
	}
	plan.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	return nil
}

// Subscription operations

func (m *MemoryStore) CreateSubscription(sub *models.Subscription) (*models.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stamp(&sub.Model, m.newID())
	m.subscriptions[sub.ID] = sub
	return sub, nil
}

func (m *MemoryStore) GetSubscriptionHistory(companyID uint) ([]*models.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var subs []*models.Subscription
	for _, s := range m.subscriptions {
		if s.CompanyID == companyID {
			subs = append(subs, s)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].StartDate.After(subs[j].StartDate) })
	return subs, nil
}

func (m *MemoryStore) UpdateSubscription(sub *models.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.subscriptions[sub.ID]; !exists {
		return errs.NotFound("subscription not found")
	}
	sub.UpdatedAt = time.Now()
	m.subscriptions[sub.ID] = sub
	return nil
}

func (m *MemoryStore) MarkExpiredSubscriptions(now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var flipped int64
	for _, s := range m.subscriptions {
		if s.DeletedAt.Valid || s.EndDate == nil {
			continue
		}
		if (s.Status == models.StatusActive || s.Status == models.StatusTrialing) && s.EndDate.Before(now) {
			s.Status = models.StatusExpired
			flipped++
		}
	}
	return flipped, nil
}

// Promotion operations

func (m *MemoryStore) CreatePromotion(promo *models.Promotion) (*models.Promotion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stamp(&promo.Model, m.newID())
	m.promotions[promo.ID] = promo
	return promo, nil
}

func (m *MemoryStore) GetPromotion(id uint) (*models.Promotion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	promo, exists := m.promotions[id]
	if !exists || promo.DeletedAt.Valid {
		return nil, errs.NotFound("promotion not found")
	}
	return promo, nil
}

func (m *MemoryStore) GetPromotionsByCompany(companyID uint) ([]*models.Promotion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var promos []*models.Promotion
	for _, p := range m.promotions {
		if p.CompanyID == companyID && !p.DeletedAt.Valid {
			promos = append(promos, p)
		}
	}
	sort.Slice(promos, func(i, j int) bool { return promos[i].StartsAt.After(promos[j].StartsAt) })
	return promos, nil
}

func (m *MemoryStore) UpdatePromotion(promo *models.Promotion) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.promotions[promo.ID]; !exists {
		return errs.NotFound("promotion not found")
	}
	promo.UpdatedAt = time.Now()
	m.promotions[promo.ID] = promo
	return nil
}

func (m *MemoryStore) DeletePromotion(id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	promo, exists := m.promotions[id]
	if !exists {
		return errs.NotFound("promotion not found")
	}
	promo.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	return nil
}

// Cashback settings

func (m *MemoryStore) UpsertCashbackSetting(setting *models.CashbackSetting) (*models.CashbackSetting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.cashback[setting.CompanyID]; ok {
		existing.Percent = setting.Percent
		existing.MinPurchase = setting.MinPurchase
		existing.MaxSpendShare = setting.MaxSpendShare
		existing.IsActive = setting.IsActive
		existing.UpdatedAt = time.Now()
		return existing, nil
	}
	stamp(&setting.Model, m.newID())
	m.cashback[setting.CompanyID] = setting
	return setting, nil
}

func (m *MemoryStore) GetCashbackSetting(companyID uint) (*models.CashbackSetting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	setting, exists := m.cashback[companyID]
	if !exists {
		return nil, errs.NotFound("cashback setting not found")
	}
	return setting, nil
}

// Transactions

func (m *MemoryStore) RecordTransaction(txn *models.Transaction) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	role, exists := m.customerRoles[txn.CustomerRoleID]
	if !exists || role.DeletedAt.Valid {
		return nil, errs.NotFound("customer role not found")
	}
	newBalance := role.CashbackBalance + txn.CashbackAmount
	if newBalance < 0 {
		return nil, errs.Conflict("insufficient cashback balance")
	}
	role.CashbackBalance = newBalance
	txn.BalanceAfter = newBalance
	stamp(&txn.Model, m.newID())
	m.transactions[txn.ID] = txn
	return txn, nil
}

func (m *MemoryStore) GetTransactionsByCustomer(customerRoleID uint) ([]*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var txns []*models.Transaction
	for _, t := range m.transactions {
		if t.CustomerRoleID == customerRoleID {
			txns = append(txns, t)
		}
	}
	sort.Slice(txns, func(i, j int) bool { return txns[i].ID > txns[j].ID })
	return txns, nil
}

func (m *MemoryStore) GetTransactionsByCompany(companyID uint) ([]*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var txns []*models.Transaction
	for _, t := range m.transactions {
		if t.CompanyID == companyID {
			txns = append(txns, t)
		}
	}
	sort.Slice(txns, func(i, j int) bool { return txns[i].ID > txns[j].ID })
	return txns, nil
}

// Dashboard counts

func (m *MemoryStore) CountOutlets(companyID uint) (int64, error) {
	outlets, _ := m.GetOutletsByCompany(companyID)
	return int64(len(outlets)), nil
}

func (m *MemoryStore) CountCustomers(companyID uint) (int64, error) {
	roles, _ := m.GetCustomersByCompany(companyID)
	return int64(len(roles)), nil
}

func (m *MemoryStore) CountTransactions(companyID uint) (int64, error) {
	txns, _ := m.GetTransactionsByCompany(companyID)
	return int64(len(txns)), nil
}
