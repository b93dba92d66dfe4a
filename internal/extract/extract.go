// Package extract pulls the order code and the amount out of raw receipt OCR text.
package extract

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// an optional order label followed by a run of at least six letters, digits or dashes
	orderCodePattern = regexp.MustCompile(`(?i)(?:order\s*(?:number|no\.?|#)?[:;#\s]*|#\s*)?([A-Z0-9-]{6,})`)
	// a currency or price label followed by a number with optional thousands separators and decimals
	amountPattern = regexp.MustCompile(`(?i)(?:₹|rs\.?|inr|price|amount|total)[\s:]*([0-9,]+\.?[0-9]*)`)
)

// Fields is what was found in one OCR text.
type Fields struct {
	OrderCode *string
	Amount    *decimal.Decimal
}

// Extract runs both rules. The order code is the first candidate equal to
// claimedCode, or the last candidate when none is.
func Extract(text, claimedCode string) Fields {
	return Fields{
		OrderCode: FindOrderCode(text, claimedCode),
		Amount:    LastAmount(text),
	}
}

// OrderCodeCandidates returns every order code candidate, upper-cased, in order of appearance.
func OrderCodeCandidates(text string) []string {
	var candidates []string
	for _, m := range orderCodePattern.FindAllStringSubmatch(text, -1) {
		candidates = append(candidates, strings.ToUpper(m[1]))
	}
	return candidates
}

// FindOrderCode stops at the first candidate matching claimedCode case-insensitively.
func FindOrderCode(text, claimedCode string) *string {
	claimed := strings.ToUpper(strings.TrimSpace(claimedCode))

	var found *string
	for _, m := range orderCodePattern.FindAllStringSubmatch(text, -1) {
		code := strings.ToUpper(m[1])
		found = &code
		if code == claimed {
			break
		}
	}
	return found
}

// AmountTokens returns the raw numeric part of every amount match in document order.
func AmountTokens(text string) []string {
	var tokens []string
	for _, m := range amountPattern.FindAllStringSubmatch(text, -1) {
		tokens = append(tokens, m[1])
	}
	return tokens
}

// LastAmount parses the last labelled amount in the text; receipts put the grand total last.
// Returns nil when there is no match or the last token does not parse.
func LastAmount(text string) *decimal.Decimal {
	tokens := AmountTokens(text)
	if len(tokens) == 0 {
		return nil
	}
	amount, ok := ParseAmount(tokens[len(tokens)-1])
	if !ok {
		return nil
	}
	return &amount
}

// ParseAmount strips thousands separators and parses what is left. A trailing
// separator is ignored, so "1200." and "1,200," both read as 1200.
func ParseAmount(token string) (decimal.Decimal, bool) {
	cleaned := strings.ReplaceAll(token, ",", "")
	cleaned = strings.TrimSuffix(cleaned, ".")
	if cleaned == "" {
		return decimal.Zero, false
	}
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	return amount, true
}
