package businessflow

import (
	"context"
	"encoding/json"

	"github.com/amirphl/marketplace-settlement/app/dto"
	"github.com/amirphl/marketplace-settlement/models"
	"github.com/amirphl/marketplace-settlement/repository"
	"github.com/amirphl/marketplace-settlement/utils"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ClientMetadata holds client-related information for audit logging
type ClientMetadata struct {
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	RequestID  string            `json:"request_id,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Additional: make(map[string]string),
	}
}

// AddAdditional adds additional custom information to the metadata
func (cm *ClientMetadata) AddAdditional(key, value string) {
	if cm.Additional == nil {
		cm.Additional = make(map[string]string)
	}
	cm.Additional[key] = value
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// createAuditLog stores one audit row. Callers ignore its error; auditing never fails a request.
func createAuditLog(ctx context.Context, auditRepo repository.AuditLogRepository, accountID *uint, action, description string, success bool, errorMsg *string, metadata *ClientMetadata, extra map[string]any) error {
	ipAddress := "127.0.0.1"
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
		AccountID:    accountID,
		Action:       action,
		Description:  &description,
		Success:      utils.ToPtr(success),
		IPAddress:    &ipAddress,
		UserAgent:    &userAgent,
		ErrorMessage: errorMsg,
	}

	if len(extra) > 0 {
		if raw, err := json.Marshal(extra); err == nil {
			audit.Metadata = datatypes.JSON(raw)
		}
	}

	if requestID, ok := ctx.Value(utils.RequestIDKey).(string); ok && requestID != "" {
		audit.RequestID = &requestID
	} else if metadata != nil && metadata.RequestID != "" {
		audit.RequestID = utils.ToPtr(metadata.RequestID)
	}

	return auditRepo.Save(ctx, audit)
}

// formatAmount renders a two-decimal amount
func formatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func formatAmountPtr(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	return utils.ToPtr(formatAmount(*d))
}

// ToAccountDTO converts an account model to its public view
func ToAccountDTO(account *models.Account) dto.AccountDTO {
	out := dto.AccountDTO{
		ID:               account.ID,
		UUID:             account.UUID.String(),
		Email:            account.Email,
		Name:             account.Name,
		Role:             string(account.Role),
		IsVerified:       account.IsVerified,
		IsSuspended:      account.IsSuspended,
		SuspensionReason: account.SuspensionReason,
		CreatedAt:        utils.FormatRFC3339(&account.CreatedAt),
		LastLoginAt:      utils.FormatRFC3339(account.LastLoginAt),
	}
	if account.SellerProfile != nil {
		profile := ToSellerProfileDTO(account.SellerProfile)
		out.SellerProfile = &profile
	}
	return out
}

// ToSellerProfileDTO converts a seller profile to its public view
func ToSellerProfileDTO(profile *models.SellerProfile) dto.SellerProfileDTO {
	out := dto.SellerProfileDTO{
		ID:                 profile.ID,
		CompanyName:        profile.CompanyName,
		CompanyWebsite:     profile.CompanyWebsite,
		Address:            profile.Address,
		City:               profile.City,
		State:              profile.State,
		Zip:                profile.Zip,
		Country:            profile.Country,
		ProcessorAccountID: profile.ProcessorAccountID,
		PaymentReady:       profile.IsPaymentReady(),
	}
	if profile.SellerBank != nil {
		out.Bank = &dto.SellerBankDTO{
			BankName: profile.SellerBank.BankName,
			Last4:    profile.SellerBank.Last4,
			Country:  profile.SellerBank.Country,
			Currency: profile.SellerBank.Currency,
		}
	}
	return out
}

// ToAdDTO converts an ad model to its public view
func ToAdDTO(ad *models.Ad) dto.AdDTO {
	return dto.AdDTO{
		UUID:         ad.UUID.String(),
		SellerID:     ad.SellerID,
		Title:        ad.Title,
		Description:  ad.Description,
		Images:       []string(ad.Images),
		Price:        formatAmountPtr(ad.Price),
		ReleasePrice: formatAmountPtr(ad.ReleasePrice),
		IsSold:       ad.IsSold,
		SoldAt:       utils.FormatRFC3339(ad.SoldAt),
		CreatedAt:    utils.FormatRFC3339(&ad.CreatedAt),
	}
}

// ToPaymentSummaryDTO converts a payment to a list row; withSellerAmount adds the seller's share
func ToPaymentSummaryDTO(p *models.Payment, withSellerAmount bool) dto.PaymentSummaryDTO {
	out := dto.PaymentSummaryDTO{
		UUID:          p.UUID.String(),
		TransactionID: p.TransactionID,
		TotalAmount:   formatAmount(p.TotalAmount),
		Currency:      p.Currency,
		Status:        string(p.Status),
		CreatedAt:     utils.FormatRFC3339(&p.CreatedAt),
	}
	if p.Ad != nil {
		out.AdUUID = p.Ad.UUID.String()
		out.AdTitle = p.Ad.Title
	}
	if withSellerAmount {
		out.SellerAmount = utils.ToPtr(formatAmount(p.SellerAmount))
	}
	return out
}

// ToPaymentDetailDTO converts a payment for viewer. Sellers additionally see the split and the buyer.
func ToPaymentDetailDTO(p *models.Payment, asSeller bool) dto.PaymentDetailDTO {
	out := dto.PaymentDetailDTO{
		UUID:          p.UUID.String(),
		TransactionID: p.TransactionID,
		TotalAmount:   formatAmount(p.TotalAmount),
		Currency:      p.Currency,
		Status:        string(p.Status),
		FailureReason: p.FailureReason,
		CreatedAt:     utils.FormatRFC3339(&p.CreatedAt),
	}
	if p.Ad != nil {
		ad := ToAdDTO(p.Ad)
		out.Ad = &ad
	}
	if asSeller {
		out.SellerAmount = utils.ToPtr(formatAmount(p.SellerAmount))
		out.AdminFee = utils.ToPtr(formatAmount(p.AdminFee))
		if p.Buyer != nil {
			out.Buyer = &dto.AccountSummaryDTO{ID: p.Buyer.ID, Name: p.Buyer.Name, Email: p.Buyer.Email}
		}
	}
	return out
}
