// Package services provides external service integrations and technical concerns like payments, notifications and tokens
package services

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/amirphl/marketplace-settlement/models"
	"github.com/amirphl/marketplace-settlement/utils"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Token service error constants
var (
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenRevoked = errors.New("token has been revoked")
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenService handles JWT token generation and validation
type TokenService interface {
	GenerateTokens(accountID uint, role models.AccountRole) (accessToken, refreshToken string, err error)
	ValidateToken(ctx context.Context, token string) (*TokenClaims, error)
	RefreshToken(ctx context.Context, refreshToken string) (newAccessToken, newRefreshToken string, err error)
	RevokeToken(ctx context.Context, token string) error
	IsTokenRevoked(ctx context.Context, tokenID string) bool
}

// TokenClaims represents the claims in a JWT token.
// Role is informational; authorization always re-reads the account.
type TokenClaims struct {
	AccountID uint               `json:"account_id"`
	Role      models.AccountRole `json:"role"`
	IssuedAt  time.Time          `json:"issued_at"`
	ExpiresAt time.Time          `json:"expires_at"`
	TokenType string             `json:"token_type"` // "access" or "refresh"
	TokenID   string             `json:"jti"`
}

// RevocationStore remembers revoked token ids until the token would have expired anyway
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// RedisRevocationStore keeps revoked token ids in redis with a TTL
type RedisRevocationStore struct {
	client *redis.Client
	prefix string
}

func NewRedisRevocationStore(client *redis.Client) *RedisRevocationStore {
	return &RedisRevocationStore{client: client, prefix: "revoked_jti:"}
}

func (s *RedisRevocationStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, s.prefix+tokenID, "1", ttl).Err()
}

func (s *RedisRevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.prefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MemoryRevocationStore is used when redis is disabled
type MemoryRevocationStore struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
}

func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{revoked: make(map[string]time.Time)}
}

func (s *MemoryRevocationStore) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := utils.UTCNow()
	for id, until := range s.revoked {
		if now.After(until) {
			delete(s.revoked, id)
		}
	}
	s.revoked[tokenID] = now.Add(ttl)
	return nil
}

func (s *MemoryRevocationStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	until, ok := s.revoked[tokenID]
	return ok && utils.UTCNow().Before(until), nil
}

// TokenServiceImpl implements TokenService
type TokenServiceImpl struct {
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
	signingMethod   jwt.SigningMethod
	privateKey      *rsa.PrivateKey
	publicKey       *rsa.PublicKey
	secretKey       []byte
	useRSAKeys      bool
	issuer          string
	audience        string
	revocations     RevocationStore
}

// NewTokenService creates a new token service. A nil store falls back to in-memory revocation.
func NewTokenService(accessTokenTTL, refreshTokenTTL time.Duration, issuer, audience string, useRSAKeys bool, privateKeyPEM, publicKeyPEM, secretKey string, store RevocationStore) (TokenService, error) {
	s := &TokenServiceImpl{
		accessTokenTTL:  accessTokenTTL,
		refreshTokenTTL: refreshTokenTTL,
		useRSAKeys:      useRSAKeys,
		issuer:          issuer,
		audience:        audience,
		revocations:     store,
	}

	if useRSAKeys {
		privateKey, publicKey, err := parseRSAKeys(privateKeyPEM, publicKeyPEM)
		if err != nil {
			return nil, fmt.Errorf("failed to parse RSA keys: %w", err)
		}
		s.privateKey, s.publicKey = privateKey, publicKey
		s.signingMethod = jwt.SigningMethodRS256
	} else {
		if secretKey == "" {
			return nil, fmt.Errorf("secret key is required when not using RSA keys")
		}
		s.secretKey = []byte(secretKey)
		s.signingMethod = jwt.SigningMethodHS256
	}

	if s.revocations == nil {
		s.revocations = NewMemoryRevocationStore()
	}

	return s, nil
}

// parseRSAKeys parses RSA private and public keys from PEM format
func parseRSAKeys(privateKeyPEM, publicKeyPEM string) (*rsa.PrivateKey, *rsa.PublicKey, error) {
	if privateKeyPEM == "" || publicKeyPEM == "" {
		return nil, nil, fmt.Errorf("both private and public keys are required")
	}

	privateKeyBlock, _ := pem.Decode([]byte(privateKeyPEM))
	if privateKeyBlock == nil {
		return nil, nil, fmt.Errorf("failed to decode private key")
	}

	privateKey, err := x509.ParsePKCS1PrivateKey(privateKeyBlock.Bytes)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	publicKeyBlock, _ := pem.Decode([]byte(publicKeyPEM))
	if publicKeyBlock == nil {
		return nil, nil, fmt.Errorf("failed to decode public key")
	}

	publicKey, err := x509.ParsePKIXPublicKey(publicKeyBlock.Bytes)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse public key: %w", err)
	}

	rsaPublicKey, ok := publicKey.(*rsa.PublicKey)
	if !ok {
		return nil, nil, fmt.Errorf("public key is not RSA")
	}

	return privateKey, rsaPublicKey, nil
}

// GenerateTokens generates access and refresh tokens for an account
func (s *TokenServiceImpl) GenerateTokens(accountID uint, role models.AccountRole) (accessToken, refreshToken string, err error) {
	now := utils.UTCNow()

	accessToken, err = s.generateToken(s.claims(accountID, role, TokenTypeAccess, now, s.accessTokenTTL))
	if err != nil {
		return "", "", err
	}

	refreshToken, err = s.generateToken(s.claims(accountID, role, TokenTypeRefresh, now, s.refreshTokenTTL))
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

func (s *TokenServiceImpl) claims(accountID uint, role models.AccountRole, tokenType string, now time.Time, ttl time.Duration) jwt.MapClaims {
	return jwt.MapClaims{
		"account_id": accountID,
		"role":       string(role),
		"token_type": tokenType,
		"jti":        uuid.NewString(),
		"iat":        now.Unix(),
		"exp":        now.Add(ttl).Unix(),
		"iss":        s.issuer,
		"aud":        s.audience,
	}
}

// ValidateToken validates a JWT token and returns claims
func (s *TokenServiceImpl) ValidateToken(ctx context.Context, token string) (*TokenClaims, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}

	if s.IsTokenRevoked(ctx, claims.TokenID) {
		return nil, ErrTokenRevoked
	}

	return claims, nil
}

// parse verifies the signature and expiry of token without consulting the revocation store
func (s *TokenServiceImpl) parse(token string) (*TokenClaims, error) {
	parsedToken, err := jwt.Parse(token, func(token *jwt.Token) (any, error) {
		if s.useRSAKeys {
			if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.publicKey, nil
		}
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	if !parsedToken.Valid {
		return nil, ErrTokenInvalid
	}

	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrTokenInvalid
	}

	accountID, ok := claims["account_id"].(float64)
	if !ok {
		return nil, ErrTokenInvalid
	}

	role, _ := claims["role"].(string)

	tokenType, ok := claims["token_type"].(string)
	if !ok {
		return nil, ErrTokenInvalid
	}

	tokenID, ok := claims["jti"].(string)
	if !ok {
		return nil, ErrTokenInvalid
	}

	issuedAt, ok := claims["iat"].(float64)
	if !ok {
		return nil, ErrTokenInvalid
	}

	expiresAt, ok := claims["exp"].(float64)
	if !ok {
		return nil, ErrTokenInvalid
	}

	if utils.UTCNow().After(time.Unix(int64(expiresAt), 0)) {
		return nil, ErrTokenExpired
	}

	return &TokenClaims{
		AccountID: uint(accountID),
		Role:      models.AccountRole(role),
		TokenType: tokenType,
		TokenID:   tokenID,
		IssuedAt:  time.Unix(int64(issuedAt), 0),
		ExpiresAt: time.Unix(int64(expiresAt), 0),
	}, nil
}

// RefreshToken generates new tokens using a refresh token and revokes the old one
func (s *TokenServiceImpl) RefreshToken(ctx context.Context, refreshToken string) (newAccessToken, newRefreshToken string, err error) {
	claims, err := s.ValidateToken(ctx, refreshToken)
	if err != nil {
		return "", "", fmt.Errorf("invalid refresh token: %w", err)
	}

	if claims.TokenType != TokenTypeRefresh {
		return "", "", fmt.Errorf("token is not a refresh token: %w", ErrTokenInvalid)
	}

	if err := s.revocations.Revoke(ctx, claims.TokenID, time.Until(claims.ExpiresAt)); err != nil {
		return "", "", fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	return s.GenerateTokens(claims.AccountID, claims.Role)
}

// RevokeToken stores the token id in the revocation list until the token expires
func (s *TokenServiceImpl) RevokeToken(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return fmt.Errorf("invalid token: %w", err)
	}

	return s.revocations.Revoke(ctx, claims.TokenID, time.Until(claims.ExpiresAt))
}

// IsTokenRevoked checks the revocation list. A failing store counts as revoked.
func (s *TokenServiceImpl) IsTokenRevoked(ctx context.Context, tokenID string) bool {
	revoked, err := s.revocations.IsRevoked(ctx, tokenID)
	if err != nil {
		return true
	}
	return revoked
}

// generateToken creates a signed JWT token
func (s *TokenServiceImpl) generateToken(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(s.signingMethod, claims)

	if s.useRSAKeys {
		return token.SignedString(s.privateKey)
	}
	return token.SignedString(s.secretKey)
}
