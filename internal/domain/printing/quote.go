package printing

import (
	"github.com/printpay/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Quote is the price of printing a document at a given per-page rate.
// Immutable once created.
type Quote struct {
	PageCount  int
	UnitPrice  decimal.Decimal
	TotalPrice decimal.Decimal
}

// NewQuote prices a page count against a per-page rate. The total is
// rounded to currency precision (2 decimal places, half away from zero).
func NewQuote(pageCount int, unitPrice decimal.Decimal) (Quote, error) {
	if pageCount < 0 {
		return Quote{}, shared.NewDomainError("INVALID_INPUT", "Page count cannot be negative")
	}
	if !unitPrice.IsPositive() {
		return Quote{}, shared.NewDomainError("INVALID_INPUT", "Price per page must be positive")
	}

	total := unitPrice.Mul(decimal.NewFromInt(int64(pageCount))).Round(2)

	return Quote{
		PageCount:  pageCount,
		UnitPrice:  unitPrice,
		TotalPrice: total,
	}, nil
}
