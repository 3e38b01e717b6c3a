package dto

// SetSuspensionRequest suspends or reinstates an account
type SetSuspensionRequest struct {
	Suspended *bool  `json:"suspended" validate:"required" example:"true"`
	Reason    string `json:"reason" validate:"max=1000" example:"chargeback fraud"`
}

// SetVerificationRequest marks an account verified or unverified
type SetVerificationRequest struct {
	Verified *bool `json:"verified" validate:"required" example:"true"`
}

// ExportPaymentsRequest filters the payments spreadsheet
type ExportPaymentsRequest struct {
	Status    string `query:"status" validate:"omitempty,oneof=PENDING COMPLETED FAILED" example:"COMPLETED"`
	StartDate string `query:"start_date" validate:"omitempty,datetime=2006-01-02" example:"2024-01-01"`
	EndDate   string `query:"end_date" validate:"omitempty,datetime=2006-01-02" example:"2024-12-31"`
}

// ExportFile is a generated download
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}
