package dto

import "github.com/shopspring/decimal"

// CreateAdRequest lists a new ad
type CreateAdRequest struct {
	Title        string           `json:"title" validate:"required,min=3,max=255" example:"MacBook Pro M2"`
	Description  string           `json:"description" validate:"max=5000" example:"Brand new condition with 16GB RAM"`
	Images       []string         `json:"images" validate:"max=10,dive,url" example:"https://img.example.com/1.jpg"`
	Price        *decimal.Decimal `json:"price" validate:"required" swaggertype:"string" example:"1200.50"`
	ReleasePrice *decimal.Decimal `json:"release_price,omitempty" swaggertype:"string" example:"1500.00"`
}

// UpdateAdPriceRequest changes the asking price of an unsold ad
type UpdateAdPriceRequest struct {
	Price *decimal.Decimal `json:"price" validate:"required" swaggertype:"string" example:"999.99"`
}

// AdDTO is the public view of an ad
type AdDTO struct {
	UUID         string   `json:"uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	SellerID     uint     `json:"seller_id" example:"12"`
	Title        string   `json:"title" example:"MacBook Pro M2"`
	Description  string   `json:"description,omitempty"`
	Images       []string `json:"images,omitempty"`
	Price        *string  `json:"price,omitempty" example:"1200.50"`
	ReleasePrice *string  `json:"release_price,omitempty" example:"1500.00"`
	IsSold       bool     `json:"is_sold" example:"false"`
	SoldAt       string   `json:"sold_at,omitempty"`
	CreatedAt    string   `json:"created_at" example:"2024-01-15T10:30:00Z"`
}

// AdListResponse is a page of ads
type AdListResponse struct {
	Items      []AdDTO        `json:"items"`
	Pagination PaginationInfo `json:"pagination"`
}
