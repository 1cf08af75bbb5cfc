package services

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/perkpoint/loyalty-backend/internal/errs"
	"github.com/perkpoint/loyalty-backend/internal/models"
	"github.com/perkpoint/loyalty-backend/internal/storage"
)

// CashbackService applies a company's cashback configuration to
// purchases: accrual on earn, OTP-confirmed redemption on spend.
type CashbackService struct {
	store storage.Store
	otp   *OTPService
}

// NewCashbackService creates a new cashback service
func NewCashbackService(store storage.Store, otp *OTPService) *CashbackService {
	return &CashbackService{store: store, otp: otp}
}

// Earn records a purchase rung up by an employee and accrues cashback
// to the customer's balance per the company setting. Purchases under
// the minimum accrue nothing but are still recorded.
func (s *CashbackService) Earn(companyID, outletID, employeeRoleID, customerRoleID uint, purchaseAmount float64) (*models.Transaction, error) {
	if purchaseAmount <= 0 {
		return nil, errs.BadRequest("purchase amount must be positive")
	}

	setting, err := s.store.GetCashbackSetting(companyID)
	if err != nil {
		return nil, err
	}

	cashback := 0.0
	if setting.IsActive && purchaseAmount >= setting.MinPurchase {
		cashback = purchaseAmount * setting.Percent / 100
	}

	txn := &models.Transaction{
		Reference:      newReference("earn"),
		CompanyID:      companyID,
		OutletID:       outletID,
		CustomerRoleID: customerRoleID,
		EmployeeRoleID: employeeRoleID,
		Type:           models.TransactionEarn,
		PurchaseAmount: purchaseAmount,
		CashbackAmount: cashback,
	}
	return s.store.RecordTransaction(txn)
}

// RequestSpend starts a redemption: validates the amount against the
// balance and the per-purchase cap, then sends the customer a
// confirmation code.
func (s *CashbackService) RequestSpend(customerRole *models.CustomerRole, purchaseAmount, spendAmount float64, channel models.OTPChannel) error {
	if err := s.validateSpend(customerRole, purchaseAmount, spendAmount); err != nil {
		return err
	}
	_, err := s.otp.Request(customerRole.AccountID, models.PurposeCashbackSpend, channel)
	return err
}

// ConfirmSpend completes a redemption once the customer's code checks
// out. The balance mutation and the transaction row are written
// atomically by the store.
func (s *CashbackService) ConfirmSpend(customerRole *models.CustomerRole, outletID, employeeRoleID uint, purchaseAmount, spendAmount float64, code string) (*models.Transaction, error) {
	if err := s.validateSpend(customerRole, purchaseAmount, spendAmount); err != nil {
		return nil, err
	}
	if err := s.otp.Verify(customerRole.AccountID, models.PurposeCashbackSpend, code); err != nil {
		return nil, err
	}

	txn := &models.Transaction{
		Reference:      newReference("spend"),
		CompanyID:      customerRole.CompanyID,
		OutletID:       outletID,
		CustomerRoleID: customerRole.ID,
		EmployeeRoleID: employeeRoleID,
		Type:           models.TransactionSpend,
		PurchaseAmount: purchaseAmount,
		CashbackAmount: -spendAmount,
	}
	return s.store.RecordTransaction(txn)
}

func (s *CashbackService) validateSpend(customerRole *models.CustomerRole, purchaseAmount, spendAmount float64) error {
	if spendAmount <= 0 || purchaseAmount <= 0 {
		return errs.BadRequest("amounts must be positive")
	}
	if spendAmount > customerRole.CashbackBalance {
		return errs.Conflict("insufficient cashback balance")
	}
	setting, err := s.store.GetCashbackSetting(customerRole.CompanyID)
	if err != nil {
		return err
	}
	if setting.MaxSpendShare > 0 && spendAmount > purchaseAmount*setting.MaxSpendShare {
		return errs.BadRequest(fmt.Sprintf("at most %.0f%% of a purchase can be paid with cashback", setting.MaxSpendShare*100))
	}
	return nil
}

func newReference(kind string) string {
	return fmt.Sprintf("TX-%s-%s", kind, uuid.NewString()[:8])
}
