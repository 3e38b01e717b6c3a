package businessflow

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/amirphl/marketplace-settlement/app/dto"
	"github.com/amirphl/marketplace-settlement/models"
	"github.com/amirphl/marketplace-settlement/repository"
	"github.com/amirphl/marketplace-settlement/utils"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AdminFlow handles moderation and reporting
type AdminFlow interface {
	SetSuspension(ctx context.Context, admin *models.Account, accountID uint, req *dto.SetSuspensionRequest, metadata *ClientMetadata) (*dto.AccountDTO, error)
	SetVerification(ctx context.Context, admin *models.Account, accountID uint, req *dto.SetVerificationRequest, metadata *ClientMetadata) (*dto.AccountDTO, error)
	ExportPayments(ctx context.Context, req *dto.ExportPaymentsRequest) (*dto.ExportFile, error)
}

// AdminFlowImpl implements the admin business flow
type AdminFlowImpl struct {
	accountRepo repository.AccountRepository
	paymentRepo repository.PaymentRepository
	auditRepo   repository.AuditLogRepository
}

// NewAdminFlow creates a new admin flow instance
func NewAdminFlow(accountRepo repository.AccountRepository, paymentRepo repository.PaymentRepository, auditRepo repository.AuditLogRepository) AdminFlow {
	return &AdminFlowImpl{accountRepo: accountRepo, paymentRepo: paymentRepo, auditRepo: auditRepo}
}

// targetAccount loads a non-admin account to moderate
func (af *AdminFlowImpl) targetAccount(ctx context.Context, accountID uint) (*models.Account, error) {
	account, err := af.accountRepo.ByID(ctx, accountID)
	if err != nil {
		return nil, internalError("ACCOUNT_LOOKUP_FAILED", err)
	}
	if account == nil {
		return nil, NewBusinessError(KindNotFound, "ACCOUNT_NOT_FOUND", "account not found", ErrAccountNotFound)
	}
	if account.IsAdmin() {
		return nil, NewBusinessError(KindForbidden, "ADMIN_IMMUTABLE", "admin accounts cannot be changed here", ErrAdminImmutable)
	}
	return account, nil
}

func updateFailure(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NewBusinessError(KindNotFound, "ACCOUNT_NOT_FOUND", "account not found", ErrAccountNotFound)
	}
	return internalError("ACCOUNT_UPDATE_FAILED", err)
}

// SetSuspension suspends an account with a reason, or reinstates it.
// Suspension takes effect on the account's next request.
func (af *AdminFlowImpl) SetSuspension(ctx context.Context, admin *models.Account, accountID uint, req *dto.SetSuspensionRequest, metadata *ClientMetadata) (*dto.AccountDTO, error) {
	suspended := utils.IsTrue(req.Suspended)
	reason := strings.TrimSpace(req.Reason)
	if suspended && reason == "" {
		return nil, NewBusinessError(KindInvalidRequest, "SUSPENSION_REASON_REQUIRED", "a reason is required to suspend an account", ErrSuspensionReasonEmpty)
	}

	account, err := af.targetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	var reasonPtr *string
	if suspended {
		reasonPtr = &reason
	}
	if err := af.accountRepo.UpdateSuspension(ctx, account.ID, suspended, reasonPtr); err != nil {
		return nil, updateFailure(err)
	}
	account.IsSuspended = suspended
	account.SuspensionReason = reasonPtr

	action := models.AuditActionAccountUnsuspended
	description := fmt.Sprintf("Account %d reinstated by admin %d", account.ID, admin.ID)
	if suspended {
		action = models.AuditActionAccountSuspended
		description = fmt.Sprintf("Account %d suspended by admin %d: %s", account.ID, admin.ID, reason)
	}
	_ = createAuditLog(ctx, af.auditRepo, &account.ID, action, description, true, nil, metadata,
		map[string]any{"admin_id": admin.ID})

	out := ToAccountDTO(account)
	return &out, nil
}

// SetVerification marks an account verified or unverified
func (af *AdminFlowImpl) SetVerification(ctx context.Context, admin *models.Account, accountID uint, req *dto.SetVerificationRequest, metadata *ClientMetadata) (*dto.AccountDTO, error) {
	account, err := af.targetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	verified := utils.IsTrue(req.Verified)
	if err := af.accountRepo.UpdateVerification(ctx, account.ID, verified); err != nil {
		return nil, updateFailure(err)
	}
	account.IsVerified = verified

	action := models.AuditActionAccountUnverified
	if verified {
		action = models.AuditActionAccountVerified
	}
	_ = createAuditLog(ctx, af.auditRepo, &account.ID, action,
		fmt.Sprintf("Account %d verification set to %t by admin %d", account.ID, verified, admin.ID), true, nil, metadata,
		map[string]any{"admin_id": admin.ID})

	out := ToAccountDTO(account)
	return &out, nil
}

func parseExportFilter(req *dto.ExportPaymentsRequest) (models.PaymentFilter, error) {
	var filter models.PaymentFilter
	if req.Status != "" {
		status := models.PaymentStatus(req.Status)
		filter.Status = &status
	}
	if req.StartDate != "" {
		start, err := time.Parse(time.DateOnly, req.StartDate)
		if err != nil {
			return filter, NewBusinessError(KindInvalidRequest, "INVALID_START_DATE", "start_date must be YYYY-MM-DD", err)
		}
		filter.CreatedAfter = &start
	}
	if req.EndDate != "" {
		end, err := time.Parse(time.DateOnly, req.EndDate)
		if err != nil {
			return filter, NewBusinessError(KindInvalidRequest, "INVALID_END_DATE", "end_date must be YYYY-MM-DD", err)
		}
		// inclusive of the whole end day
		end = end.Add(24*time.Hour - time.Nanosecond)
		filter.CreatedBefore = &end
	}
	if filter.CreatedAfter != nil && filter.CreatedBefore != nil && filter.CreatedAfter.After(*filter.CreatedBefore) {
		return filter, NewBusinessError(KindInvalidRequest, "INVALID_DATE_RANGE", "start date cannot be after end date", ErrStartDateAfterEndDate)
	}
	return filter, nil
}

// ExportPayments renders the filtered payments as an xlsx workbook with a totals row
func (af *AdminFlowImpl) ExportPayments(ctx context.Context, req *dto.ExportPaymentsRequest) (*dto.ExportFile, error) {
	filter, err := parseExportFilter(req)
	if err != nil {
		return nil, err
	}

	payments, err := af.paymentRepo.ListByFilter(ctx, filter, 0, 0)
	if err != nil {
		return nil, internalError("PAYMENT_LIST_FAILED", err)
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	sheet := "payments"
	if err := xl.SetSheetName(xl.GetSheetName(0), sheet); err != nil {
		return nil, internalError("EXCEL_WRITE_ERROR", err)
	}

	header := []string{"uuid", "transaction_id", "ad_uuid", "ad_title", "seller_id", "buyer_id", "buyer_email", "total_amount", "admin_fee", "seller_amount", "currency", "status", "failure_reason", "created_at"}
	_ = xl.SetSheetRow(sheet, "A1", &header)

	var total, fees, sellers decimal.Decimal
	for i, p := range payments {
		adUUID, adTitle, sellerID := "", "", ""
		if p.Ad != nil {
			adUUID = p.Ad.UUID.String()
			adTitle = p.Ad.Title
			sellerID = strconv.FormatUint(uint64(p.Ad.SellerID), 10)
		}
		buyerEmail := ""
		if p.Buyer != nil {
			buyerEmail = p.Buyer.Email
		}
		record := []any{
			p.UUID.String(),
			p.TransactionID,
			adUUID,
			adTitle,
			sellerID,
			p.BuyerID,
			buyerEmail,
			formatAmount(p.TotalAmount),
			formatAmount(p.AdminFee),
			formatAmount(p.SellerAmount),
			p.Currency,
			string(p.Status),
			utils.DerefString(p.FailureReason),
			utils.FormatRFC3339(&p.CreatedAt),
		}
		cellRef, _ := excelize.CoordinatesToCellName(1, i+2)
		_ = xl.SetSheetRow(sheet, cellRef, &record)

		if p.IsCompleted() {
			total = total.Add(p.TotalAmount)
			fees = fees.Add(p.AdminFee)
			sellers = sellers.Add(p.SellerAmount)
		}
	}

	totals := []any{"completed total", "", "", "", "", "", "", formatAmount(total), formatAmount(fees), formatAmount(sellers)}
	cellRef, _ := excelize.CoordinatesToCellName(1, len(payments)+2)
	_ = xl.SetSheetRow(sheet, cellRef, &totals)

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return nil, internalError("EXCEL_WRITE_ERROR", err)
	}

	return &dto.ExportFile{
		Filename:    fmt.Sprintf("payments_%s.xlsx", utils.UTCNow().Format("20060102_150405")),
		ContentType: xlsxContentType,
		Content:     buf.Bytes(),
	}, nil
}
