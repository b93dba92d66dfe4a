package models

import "github.com/shopspring/decimal"

// VerificationVerdict is the outcome of one verification attempt. It is never persisted.
type VerificationVerdict struct {
	ExtractedOrderCode *string
	ExtractedAmount    *decimal.Decimal
	OrderMatched       bool
	AmountMatched      bool
	Verified           bool
	Message            string
}

type ExtractedData struct {
	OrderNumber *string          `json:"orderNumber"`
	Price       *decimal.Decimal `json:"price"`
}

type ExpectedData struct {
	OrderNumber string          `json:"orderNumber"`
	Price       decimal.Decimal `json:"price"`
}

type VerificationResponse struct {
	Success       bool          `json:"success"`
	Verified      bool          `json:"verified"`
	Message       string        `json:"message"`
	ExtractedData ExtractedData `json:"extractedData"`
	Expected      *ExpectedData `json:"expected,omitempty"`
}
