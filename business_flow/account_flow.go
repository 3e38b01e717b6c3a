package businessflow

import (
	"context"

	"github.com/amirphl/marketplace-settlement/app/dto"
	"github.com/amirphl/marketplace-settlement/models"
	"github.com/amirphl/marketplace-settlement/repository"
	"github.com/amirphl/marketplace-settlement/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// AccountFlow serves the buyer and seller views of an account
type AccountFlow interface {
	GetMe(ctx context.Context, account *models.Account) (*dto.AccountDTO, error)
	ListPurchases(ctx context.Context, buyerID uint, page dto.PaginationRequest) (*dto.PaymentListResponse, error)
	ListEarnings(ctx context.Context, sellerID uint, page dto.PaginationRequest) (*dto.EarningsResponse, error)
	GetPayment(ctx context.Context, viewer *models.Account, paymentID string) (*dto.PaymentDetailResponse, error)
	GetSellerStats(ctx context.Context, sellerID uint) (*dto.SellerStatsResponse, error)
}

// AccountFlowImpl implements the account business flow
type AccountFlowImpl struct {
	adRepo      repository.AdRepository
	paymentRepo repository.PaymentRepository
	currency    string
}

// NewAccountFlow creates a new account flow instance
func NewAccountFlow(adRepo repository.AdRepository, paymentRepo repository.PaymentRepository, currency string) AccountFlow {
	if currency == "" {
		currency = utils.DefaultCurrency
	}
	return &AccountFlowImpl{adRepo: adRepo, paymentRepo: paymentRepo, currency: currency}
}

func (af *AccountFlowImpl) GetMe(_ context.Context, account *models.Account) (*dto.AccountDTO, error) {
	out := ToAccountDTO(account)
	return &out, nil
}

func (af *AccountFlowImpl) listPayments(ctx context.Context, filter models.PaymentFilter, page dto.PaginationRequest, withSellerAmount bool) ([]dto.PaymentSummaryDTO, dto.PaginationInfo, error) {
	page.Normalize()

	total, err := af.paymentRepo.CountByFilter(ctx, filter)
	if err != nil {
		return nil, dto.PaginationInfo{}, internalError("PAYMENT_COUNT_FAILED", err)
	}
	payments, err := af.paymentRepo.ListByFilter(ctx, filter, page.PageSize, page.Offset())
	if err != nil {
		return nil, dto.PaginationInfo{}, internalError("PAYMENT_LIST_FAILED", err)
	}

	items := make([]dto.PaymentSummaryDTO, 0, len(payments))
	for _, p := range payments {
		items = append(items, ToPaymentSummaryDTO(p, withSellerAmount))
	}
	return items, dto.NewPaginationInfo(page, total), nil
}

// ListPurchases lists every payment the buyer made, failed ones included
func (af *AccountFlowImpl) ListPurchases(ctx context.Context, buyerID uint, page dto.PaginationRequest) (*dto.PaymentListResponse, error) {
	items, info, err := af.listPayments(ctx, models.PaymentFilter{BuyerID: &buyerID}, page, false)
	if err != nil {
		return nil, err
	}
	return &dto.PaymentListResponse{Items: items, Pagination: info}, nil
}

// ListEarnings lists completed sales of the seller's ads with the lifetime income
func (af *AccountFlowImpl) ListEarnings(ctx context.Context, sellerID uint, page dto.PaginationRequest) (*dto.EarningsResponse, error) {
	status := models.PaymentStatusCompleted
	items, info, err := af.listPayments(ctx, models.PaymentFilter{SellerID: &sellerID, Status: &status}, page, true)
	if err != nil {
		return nil, err
	}

	income, err := af.paymentRepo.SumSellerAmount(ctx, sellerID)
	if err != nil {
		return nil, internalError("INCOME_SUM_FAILED", err)
	}

	return &dto.EarningsResponse{Items: items, Pagination: info, TotalIncome: formatAmount(income)}, nil
}

// GetPayment shows a payment to its buyer or to the seller of its ad. Sellers and admins see the split.
func (af *AccountFlowImpl) GetPayment(ctx context.Context, viewer *models.Account, paymentID string) (*dto.PaymentDetailResponse, error) {
	id, err := uuid.Parse(paymentID)
	if err != nil {
		return nil, NewBusinessError(KindInvalidRequest, "INVALID_PAYMENT_ID", "invalid payment id", ErrInvalidPaymentID)
	}

	payment, err := af.paymentRepo.ByUUID(ctx, id)
	if err != nil {
		return nil, internalError("PAYMENT_LOOKUP_FAILED", err)
	}
	notFound := NewBusinessError(KindNotFound, "PAYMENT_NOT_FOUND", "payment not found", ErrPaymentNotFound)
	if payment == nil {
		return nil, notFound
	}

	switch {
	case viewer.IsAdmin():
		return &dto.PaymentDetailResponse{ViewerRole: string(models.AccountRoleAdmin), Payment: ToPaymentDetailDTO(payment, true)}, nil
	case payment.Ad != nil && payment.Ad.SellerID == viewer.ID:
		return &dto.PaymentDetailResponse{ViewerRole: string(models.AccountRoleSeller), Payment: ToPaymentDetailDTO(payment, true)}, nil
	case payment.BuyerID == viewer.ID:
		return &dto.PaymentDetailResponse{ViewerRole: string(models.AccountRoleBuyer), Payment: ToPaymentDetailDTO(payment, false)}, nil
	default:
		// Strangers learn nothing about the payment's existence
		return nil, notFound
	}
}

// GetSellerStats summarizes the seller's listings and income
func (af *AccountFlowImpl) GetSellerStats(ctx context.Context, sellerID uint) (*dto.SellerStatsResponse, error) {
	var (
		total, sold int64
		income      decimal.Decimal
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = af.adRepo.CountBySeller(gctx, sellerID, nil)
		return err
	})
	g.Go(func() error {
		var err error
		sold, err = af.adRepo.CountBySeller(gctx, sellerID, utils.ToPtr(true))
		return err
	})
	g.Go(func() error {
		var err error
		income, err = af.paymentRepo.SumSellerAmount(gctx, sellerID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, internalError("SELLER_STATS_FAILED", err)
	}

	return &dto.SellerStatsResponse{
		TotalAds:    total,
		SoldAds:     sold,
		ActiveAds:   total - sold,
		TotalIncome: formatAmount(income),
		Currency:    af.currency,
	}, nil
}
