package testing

import (
	"fmt"
	"math/rand"

	"github.com/amirphl/marketplace-settlement/models"
	"github.com/amirphl/marketplace-settlement/utils"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// TestPassword is the plain password of every fixture account
const TestPassword = "TestPass123!"

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestAccount creates a verified, active account with the given role
func (tf *TestFixtures) CreateTestAccount(role models.AccountRole) (*models.Account, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &models.Account{
		Email:        fmt.Sprintf("user.%09d@example.com", rand.Intn(900000000)+100000000),
		PasswordHash: string(hashedPassword),
		Name:         "John Doe",
		Role:         role,
		IsVerified:   true,
	}
	if err := tf.DB.DB.Create(account).Error; err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return account, nil
}

// CreateReadySeller creates a seller whose payout routing is fully configured
func (tf *TestFixtures) CreateReadySeller() (*models.Account, error) {
	seller, err := tf.CreateTestAccount(models.AccountRoleSeller)
	if err != nil {
		return nil, err
	}

	profile := &models.SellerProfile{
		AccountID:          seller.ID,
		CompanyName:        "Shazan Tech Ltd",
		CompanyWebsite:     "https://shazantech.example.com",
		Address:            "123 Business Avenue",
		City:               "Dhaka",
		State:              "Dhaka Division",
		Zip:                "1212",
		Country:            "US",
		ProcessorAccountID: utils.ToPtr(fmt.Sprintf("acct_%d", seller.ID)),
	}
	if err := tf.DB.DB.Create(profile).Error; err != nil {
		return nil, fmt.Errorf("failed to create seller profile: %w", err)
	}

	bank := &models.SellerBank{
		SellerProfileID:   profile.ID,
		ExternalAccountID: fmt.Sprintf("ba_%d", seller.ID),
		BankName:          "STRIPE TEST BANK",
		Last4:             "6789",
		Country:           "US",
		Currency:          "usd",
	}
	if err := tf.DB.DB.Create(bank).Error; err != nil {
		return nil, fmt.Errorf("failed to create seller bank: %w", err)
	}

	profile.SellerBank = bank
	seller.SellerProfile = profile
	return seller, nil
}

// CreateTestAd creates an unsold ad for the seller
func (tf *TestFixtures) CreateTestAd(sellerID uint, price string) (*models.Ad, error) {
	p := decimal.RequireFromString(price)
	ad := &models.Ad{
		SellerID:    sellerID,
		Title:       "MacBook Pro M2",
		Description: "Brand new condition with 16GB RAM",
		Images:      []string{"https://img.example.com/1.jpg"},
		Price:       &p,
	}
	if err := tf.DB.DB.Create(ad).Error; err != nil {
		return nil, fmt.Errorf("failed to create ad: %w", err)
	}
	return ad, nil
}
