// Package matcher compares extracted receipt fields against what the user claims.
package matcher

import (
	"strings"

	"github.com/jayjaytrn/refund-desk/models"
	"github.com/shopspring/decimal"
)

const (
	MessageVerified      = "Screenshot verified successfully"
	MessageOrderMismatch = "Verification failed: Order Number mismatch"
	MessagePriceMismatch = "Verification failed: Price mismatch"
	MessageBothMismatch  = "Verification failed: Order Number mismatch, Price mismatch"
)

// Tolerance is the strict upper bound on |extracted - claimed| for the amounts to match.
var Tolerance = decimal.NewFromInt(1)

func Match(extractedCode *string, extractedAmount *decimal.Decimal, claimedCode string, claimedAmount decimal.Decimal) models.VerificationVerdict {
	orderMatched := OrderMatches(extractedCode, claimedCode)
	amountMatched := AmountMatches(extractedAmount, claimedAmount)

	v := models.VerificationVerdict{
		ExtractedOrderCode: extractedCode,
		ExtractedAmount:    extractedAmount,
		OrderMatched:       orderMatched,
		AmountMatched:      amountMatched,
		Verified:           orderMatched && amountMatched,
	}

	switch {
	case v.Verified:
		v.Message = MessageVerified
	case !orderMatched && !amountMatched:
		v.Message = MessageBothMismatch
	case !orderMatched:
		v.Message = MessageOrderMismatch
	default:
		v.Message = MessagePriceMismatch
	}

	return v
}

func OrderMatches(extracted *string, claimed string) bool {
	if extracted == nil {
		return false
	}
	return strings.EqualFold(*extracted, strings.TrimSpace(claimed))
}

func AmountMatches(extracted *decimal.Decimal, claimed decimal.Decimal) bool {
	if extracted == nil {
		return false
	}
	return extracted.Sub(claimed).Abs().LessThan(Tolerance)
}
