package businessflow

import (
	"context"

	"github.com/amirphl/marketplace-settlement/models"
	"github.com/amirphl/marketplace-settlement/repository"
)

// AccountCheck is one predicate of the eligibility chain
type AccountCheck func(account *models.Account) error

// CheckNotSuspended rejects suspended accounts, carrying the reason when one was recorded
func CheckNotSuspended(account *models.Account) error {
	if !account.IsSuspended {
		return nil
	}
	if account.SuspensionReason != nil && *account.SuspensionReason != "" {
		return NewBusinessErrorf(KindForbidden, "ACCOUNT_SUSPENDED", ErrAccountSuspended, "account is suspended: %s", *account.SuspensionReason)
	}
	return NewBusinessError(KindForbidden, "ACCOUNT_SUSPENDED", "account is suspended", ErrAccountSuspended)
}

// CheckVerified rejects accounts that have not been verified
func CheckVerified(account *models.Account) error {
	if account.IsVerified {
		return nil
	}
	return NewBusinessError(KindForbidden, "ACCOUNT_NOT_VERIFIED", "account is not verified", ErrAccountNotVerified)
}

// RequireRole builds a check that accepts only role
func RequireRole(role models.AccountRole) AccountCheck {
	return func(account *models.Account) error {
		if account.Role == role {
			return nil
		}
		return NewBusinessErrorf(KindForbidden, "ROLE_NOT_ALLOWED", ErrRoleNotAllowed, "this operation requires role %s", role)
	}
}

// CheckSellerBankReady requires a seller profile with a payout account and a linked bank record
func CheckSellerBankReady(account *models.Account) error {
	profile := account.SellerProfile
	if profile == nil {
		return NewBusinessError(KindForbidden, "SELLER_PROFILE_MISSING", "seller profile not found", ErrSellerProfileMissing)
	}
	if !profile.IsPaymentReady() {
		return NewBusinessError(KindForbidden, "SELLER_PROFILE_INCOMPLETE", "seller profile onboarding is incomplete", ErrSellerProfileIncomplete)
	}
	return nil
}

// GuardRequirement describes what a protected operation demands of the caller
type GuardRequirement struct {
	Role              *models.AccountRole
	RequireSellerBank bool
	// AllowUnverified skips the verification check for read-only views of the caller's own data
	AllowUnverified bool
}

// IdentityRequirement admits any account that is not suspended
func IdentityRequirement() GuardRequirement {
	return GuardRequirement{AllowUnverified: true}
}

// RoleRequirement is a requirement on role only
func RoleRequirement(role models.AccountRole) GuardRequirement {
	return GuardRequirement{Role: &role}
}

// SellerBankRequirement is the requirement of routes that move money to a seller
func SellerBankRequirement() GuardRequirement {
	role := models.AccountRoleSeller
	return GuardRequirement{Role: &role, RequireSellerBank: true}
}

// Checks returns the ordered chain for r
func (r GuardRequirement) Checks() []AccountCheck {
	checks := []AccountCheck{CheckNotSuspended}
	if !r.AllowUnverified {
		checks = append(checks, CheckVerified)
	}
	if r.Role != nil {
		checks = append(checks, RequireRole(*r.Role))
	}
	if r.RequireSellerBank {
		checks = append(checks, CheckSellerBankReady)
	}
	return checks
}

// EvaluateChecks runs checks in order and stops at the first failure.
// Admins are exempt from every check.
func EvaluateChecks(account *models.Account, checks ...AccountCheck) error {
	if account == nil {
		return NewBusinessError(KindUnauthorized, "UNAUTHENTICATED", "authentication required", ErrUnauthenticated)
	}
	if account.IsAdmin() {
		return nil
	}
	for _, check := range checks {
		if err := check(account); err != nil {
			return err
		}
	}
	return nil
}

// EligibilityGuard authorizes a caller against fresh account state
type EligibilityGuard interface {
	Authorize(ctx context.Context, accountID uint, req GuardRequirement) (*models.Account, error)
}

// EligibilityGuardImpl re-reads the account on every call and never trusts token claims
type EligibilityGuardImpl struct {
	accountRepo repository.AccountRepository
}

// NewEligibilityGuard creates a new eligibility guard
func NewEligibilityGuard(accountRepo repository.AccountRepository) EligibilityGuard {
	return &EligibilityGuardImpl{accountRepo: accountRepo}
}

// Authorize loads the account with its seller profile and evaluates the chain for req.
// The returned account replaces any token-carried identity for the rest of the request.
func (g *EligibilityGuardImpl) Authorize(ctx context.Context, accountID uint, req GuardRequirement) (*models.Account, error) {
	account, err := g.accountRepo.ByIDWithProfile(ctx, accountID)
	if err != nil {
		return nil, internalError("ACCOUNT_LOOKUP_FAILED", err)
	}
	if err := EvaluateChecks(account, req.Checks()...); err != nil {
		return nil, err
	}
	return account, nil
}
