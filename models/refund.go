package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type RefundStatus string

const (
	RefundPending  RefundStatus = "pending"
	RefundApproved RefundStatus = "approved"
	RefundRejected RefundStatus = "rejected"
)

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationFailed   VerificationStatus = "failed"
)

type RefundRequest struct {
	ID                  string             `json:"id"`
	OrderCode           string             `json:"orderId"`
	RefundAmount        decimal.Decimal    `json:"refundAmount"`
	Reason              string             `json:"reason"`
	ScreenshotURL       string             `json:"screenshot,omitempty"`
	ProductName         string             `json:"productName"`
	OriginalOrderDate   string             `json:"originalOrderDate"`
	CustomerName        string             `json:"customerName"`
	MediatorName        string             `json:"mediatorName"`
	UserID              string             `json:"userId"`
	UserName            string             `json:"userName"`
	UserEmail           string             `json:"userEmail"`
	Status              RefundStatus       `json:"status"`
	VerificationStatus  VerificationStatus `json:"verificationStatus"`
	ExtractedOrderCode  *string            `json:"extractedOrderId"`
	ExtractedAmount     *decimal.Decimal   `json:"extractedPrice"`
	VerificationMessage string             `json:"verificationMessage,omitempty"`
	SubmittedAt         time.Time          `json:"submittedAt"`
}

// RefundSubmission is the client payload for creating a refund request.
// Verified must be true: it is the evidence that verification ran and passed.
type RefundSubmission struct {
	OrderCode           string           `json:"orderId"`
	RefundAmount        decimal.Decimal  `json:"refundAmount"`
	Reason              string           `json:"reason"`
	ScreenshotURL       string           `json:"screenshot"`
	ProductName         string           `json:"productName"`
	OriginalOrderDate   string           `json:"originalOrderDate"`
	CustomerName        string           `json:"customerName"`
	MediatorName        string           `json:"mediatorName"`
	ExtractedOrderCode  *string          `json:"extractedOrderId"`
	ExtractedAmount     *decimal.Decimal `json:"extractedPrice"`
	VerificationMessage string           `json:"verificationMessage"`
	Verified            bool             `json:"verified"`
}

// RefundUpdate edits free-text fields of a pending refund. Nil fields are left as is.
type RefundUpdate struct {
	Reason       *string `json:"reason"`
	CustomerName *string `json:"customerName"`
	MediatorName *string `json:"mediatorName"`
}

func (u RefundUpdate) Empty() bool {
	return u.Reason == nil && u.CustomerName == nil && u.MediatorName == nil
}

type RefundResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Refund  *RefundRequest `json:"refund,omitempty"`
}

type RefundsResponse struct {
	Success bool             `json:"success"`
	Refunds []*RefundRequest `json:"refunds"`
}

func (s RefundStatus) String() string {
	return string(s)
}
