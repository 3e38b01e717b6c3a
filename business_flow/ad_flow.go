package businessflow

import (
	"context"
	"fmt"

	"github.com/amirphl/marketplace-settlement/app/dto"
	"github.com/amirphl/marketplace-settlement/models"
	"github.com/amirphl/marketplace-settlement/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// maxPrice is the first amount that no longer fits numeric(12,2)
var maxPrice = decimal.New(1, 10)

// AdFlow handles the ads a seller lists
type AdFlow interface {
	CreateAd(ctx context.Context, seller *models.Account, req *dto.CreateAdRequest, metadata *ClientMetadata) (*dto.AdDTO, error)
	UpdateAdPrice(ctx context.Context, seller *models.Account, adID string, req *dto.UpdateAdPriceRequest, metadata *ClientMetadata) (*dto.AdDTO, error)
	ListSellerAds(ctx context.Context, sellerID uint, page dto.PaginationRequest) (*dto.AdListResponse, error)
	GetAd(ctx context.Context, adID string) (*dto.AdDTO, error)
}

// AdFlowImpl implements the ad business flow
type AdFlowImpl struct {
	adRepo    repository.AdRepository
	auditRepo repository.AuditLogRepository
}

// NewAdFlow creates a new ad flow instance
func NewAdFlow(adRepo repository.AdRepository, auditRepo repository.AuditLogRepository) AdFlow {
	return &AdFlowImpl{adRepo: adRepo, auditRepo: auditRepo}
}

// validatePrice accepts positive amounts with at most two decimals
func validatePrice(price decimal.Decimal) error {
	if !price.IsPositive() || !price.Equal(price.Round(2)) || price.GreaterThanOrEqual(maxPrice) {
		return NewBusinessError(KindInvalidRequest, "INVALID_PRICE", ErrInvalidPrice.Error(), ErrInvalidPrice)
	}
	return nil
}

func (af *AdFlowImpl) CreateAd(ctx context.Context, seller *models.Account, req *dto.CreateAdRequest, metadata *ClientMetadata) (*dto.AdDTO, error) {
	if err := validatePrice(*req.Price); err != nil {
		return nil, err
	}
	if req.ReleasePrice != nil {
		if err := validatePrice(*req.ReleasePrice); err != nil {
			return nil, err
		}
	}

	ad := &models.Ad{
		SellerID:     seller.ID,
		Title:        req.Title,
		Description:  req.Description,
		Images:       req.Images,
		Price:        req.Price,
		ReleasePrice: req.ReleasePrice,
	}
	if err := af.adRepo.Save(ctx, ad); err != nil {
		return nil, internalError("AD_CREATE_FAILED", err)
	}

	_ = createAuditLog(ctx, af.auditRepo, &seller.ID, models.AuditActionAdCreated,
		fmt.Sprintf("Ad %s listed at %s", ad.UUID, formatAmount(*ad.Price)), true, nil, metadata, nil)

	out := ToAdDTO(ad)
	return &out, nil
}

// loadAd resolves a public ad id
func (af *AdFlowImpl) loadAd(ctx context.Context, adID string) (*models.Ad, error) {
	id, err := uuid.Parse(adID)
	if err != nil {
		return nil, NewBusinessError(KindInvalidRequest, "INVALID_AD_ID", "invalid ad id", ErrInvalidAdID)
	}
	ad, err := af.adRepo.ByUUID(ctx, id)
	if err != nil {
		return nil, internalError("AD_LOOKUP_FAILED", err)
	}
	if ad == nil {
		return nil, NewBusinessError(KindNotFound, "AD_NOT_FOUND", "ad not found", ErrAdNotFound)
	}
	return ad, nil
}

// UpdateAdPrice reprices an unsold ad. Intents already created keep their frozen amount.
func (af *AdFlowImpl) UpdateAdPrice(ctx context.Context, seller *models.Account, adID string, req *dto.UpdateAdPriceRequest, metadata *ClientMetadata) (*dto.AdDTO, error) {
	if err := validatePrice(*req.Price); err != nil {
		return nil, err
	}

	ad, err := af.loadAd(ctx, adID)
	if err != nil {
		return nil, err
	}
	if !seller.IsAdmin() && ad.SellerID != seller.ID {
		return nil, NewBusinessError(KindForbidden, "AD_NOT_OWNED", "ad belongs to another seller", ErrAdNotOwned)
	}
	if ad.IsSold {
		return nil, NewBusinessError(KindInvalidState, "AD_ALREADY_SOLD", "ad already sold", ErrAdAlreadySold)
	}

	if err := af.adRepo.UpdatePrice(ctx, ad.ID, *req.Price); err != nil {
		return nil, internalError("AD_UPDATE_FAILED", err)
	}
	old := ad.Price
	ad.Price = req.Price

	_ = createAuditLog(ctx, af.auditRepo, &seller.ID, models.AuditActionAdPriceUpdated,
		fmt.Sprintf("Ad %s repriced", ad.UUID), true, nil, metadata,
		map[string]any{"old_price": formatAmountPtr(old), "new_price": formatAmount(*req.Price)})

	out := ToAdDTO(ad)
	return &out, nil
}

func (af *AdFlowImpl) ListSellerAds(ctx context.Context, sellerID uint, page dto.PaginationRequest) (*dto.AdListResponse, error) {
	page.Normalize()

	total, err := af.adRepo.CountBySeller(ctx, sellerID, nil)
	if err != nil {
		return nil, internalError("AD_COUNT_FAILED", err)
	}
	ads, err := af.adRepo.ListBySeller(ctx, sellerID, page.PageSize, page.Offset())
	if err != nil {
		return nil, internalError("AD_LIST_FAILED", err)
	}

	items := make([]dto.AdDTO, 0, len(ads))
	for _, ad := range ads {
		items = append(items, ToAdDTO(ad))
	}
	return &dto.AdListResponse{Items: items, Pagination: dto.NewPaginationInfo(page, total)}, nil
}

func (af *AdFlowImpl) GetAd(ctx context.Context, adID string) (*dto.AdDTO, error) {
	ad, err := af.loadAd(ctx, adID)
	if err != nil {
		return nil, err
	}
	out := ToAdDTO(ad)
	return &out, nil
}
