package utils

import (
	"time"
)

type contextKey string

// Request-scoped context keys
const (
	RequestIDKey contextKey = "request_id"
	EndpointKey  contextKey = "endpoint"
	IPAddressKey contextKey = "ip_address"
	UserAgentKey contextKey = "user_agent"
)

// Token and request time constants
const (
	// AccessTokenTTL is the default time-to-live for access tokens (24 hours)
	AccessTokenTTL = 24 * time.Hour

	// RefreshTokenTTL is the default time-to-live for refresh tokens (7 days)
	RefreshTokenTTL = 7 * 24 * time.Hour

	// DefaultRequestTimeout bounds every handler call into a business flow
	DefaultRequestTimeout = 30 * time.Second
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// Payment constants
const (
	// MinorUnitsPerMajor converts a two-decimal currency amount to its minor unit
	MinorUnitsPerMajor = 100

	DefaultCurrency = "usd"

	// DefaultFeePercent is the platform cut when PAYMENT_FEE_PERCENT is unset
	DefaultFeePercent = "10"
)
