// Package businessflow contains the core business logic and use cases of the marketplace
package businessflow

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a failure for the transport layer
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindNotFound
	KindUnauthorized
	KindForbidden
	KindInvalidRequest
	KindInvalidState
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindUnauthorized:
		return "Unauthorized"
	case KindForbidden:
		return "Forbidden"
	case KindInvalidRequest:
		return "InvalidRequest"
	case KindInvalidState:
		return "InvalidState"
	default:
		return "Internal"
	}
}

// HTTPStatus is the response status for errors of this kind
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindInvalidRequest:
		return http.StatusBadRequest
	case KindInvalidState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Business flow error constants
var (
	// Account-related errors
	ErrAccountNotFound       = errors.New("account not found")
	ErrIncorrectPassword     = errors.New("incorrect email or password")
	ErrEmailAlreadyExists    = errors.New("email already exists")
	ErrInvalidRole           = errors.New("role must be BUYER or SELLER")
	ErrSuspensionReasonEmpty = errors.New("a reason is required to suspend an account")
	ErrAdminImmutable        = errors.New("admin accounts cannot be changed here")

	// Eligibility errors
	ErrUnauthenticated         = errors.New("authentication required")
	ErrAccountSuspended        = errors.New("account is suspended")
	ErrAccountNotVerified      = errors.New("account is not verified")
	ErrRoleNotAllowed          = errors.New("account role is not allowed for this operation")
	ErrSellerProfileMissing    = errors.New("seller profile not found")
	ErrSellerProfileIncomplete = errors.New("seller profile onboarding is incomplete")

	// Seller profile errors
	ErrSellerProfileExists     = errors.New("seller profile already exists")
	ErrProcessorAccountMissing = errors.New("seller has no payout account")

	// Ad errors
	ErrAdNotFound     = errors.New("ad not found")
	ErrAdAlreadySold  = errors.New("ad already sold")
	ErrAdNotOwned     = errors.New("ad belongs to another seller")
	ErrInvalidPrice   = errors.New("price must be a positive amount with at most two decimals")
	ErrPriceNotSet    = errors.New("price not set for this ad")
	ErrInvalidAdID    = errors.New("invalid ad id")
	ErrSelfPurchase   = errors.New("sellers cannot buy their own ads")
	ErrSellerNotReady = errors.New("seller not onboarded")

	// Payment errors
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrInvalidPaymentID     = errors.New("invalid payment id")
	ErrProcessorRejected    = errors.New("payment rejected by processor")
	ErrProcessorUnavailable = errors.New("payment processor unavailable")
	ErrMissingSignature     = errors.New("missing webhook signature")
	ErrInvalidWebhook       = errors.New("invalid webhook payload or signature")
	ErrInvalidFeePercent    = errors.New("fee percent must be between 0 and 100")

	// Filter errors
	ErrStartDateAfterEndDate = errors.New("start date cannot be after end date")
)

// kindBySentinel resolves bare sentinels that reach the transport layer unwrapped
var kindBySentinel = []struct {
	err  error
	kind ErrorKind
}{
	{ErrAccountNotFound, KindNotFound},
	{ErrAdNotFound, KindNotFound},
	{ErrPaymentNotFound, KindNotFound},
	{ErrUnauthenticated, KindUnauthorized},
	{ErrIncorrectPassword, KindUnauthorized},
	{ErrAccountSuspended, KindForbidden},
	{ErrAccountNotVerified, KindForbidden},
	{ErrRoleNotAllowed, KindForbidden},
	{ErrSellerProfileMissing, KindForbidden},
	{ErrSellerProfileIncomplete, KindForbidden},
	{ErrAdNotOwned, KindForbidden},
	{ErrAdminImmutable, KindForbidden},
	{ErrInvalidPrice, KindInvalidRequest},
	{ErrInvalidAdID, KindInvalidRequest},
	{ErrInvalidPaymentID, KindInvalidRequest},
	{ErrSelfPurchase, KindInvalidRequest},
	{ErrProcessorRejected, KindInvalidRequest},
	{ErrMissingSignature, KindInvalidRequest},
	{ErrInvalidWebhook, KindInvalidRequest},
	{ErrInvalidRole, KindInvalidRequest},
	{ErrSuspensionReasonEmpty, KindInvalidRequest},
	{ErrStartDateAfterEndDate, KindInvalidRequest},
	{ErrAdAlreadySold, KindInvalidState},
	{ErrSellerNotReady, KindInvalidState},
	{ErrPriceNotSet, KindInvalidState},
	{ErrSellerProfileExists, KindInvalidState},
	{ErrEmailAlreadyExists, KindInvalidState},
	{ErrProcessorAccountMissing, KindInvalidState},
}

type BusinessError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(kind ErrorKind, code, message string, err error) *BusinessError {
	return &BusinessError{
		Kind:    kind,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(kind ErrorKind, code string, err error, message string, args ...any) *BusinessError {
	return &BusinessError{
		Kind:    kind,
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

// internalError wraps an infrastructure failure; its detail is for logs only
func internalError(code string, err error) *BusinessError {
	return NewBusinessError(KindInternal, code, "internal error", err)
}

// KindOf resolves the kind of err. Unknown errors are Internal.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindInternal
	}
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Kind
	}
	for _, s := range kindBySentinel {
		if errors.Is(err, s.err) {
			return s.kind
		}
	}
	return KindInternal
}
