// Package pricing keeps buy and sell quotes consistent when an admin edits
// only one side of the pair.
package pricing

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Places used when rounding quotes.
const (
	CompanyPlaces  int32 = 2
	CurrencyPlaces int32 = 4
)

// SpreadFactor is the sell/buy ratio applied by default (2% spread).
var SpreadFactor = decimal.RequireFromString("0.98")

var (
	ErrNoQuote      = errors.New("either buy or sell quote must be provided")
	ErrInvalidQuote = errors.New("quote must be a positive number")
)

// SellFromBuy returns buy × 0.98 rounded to places.
func SellFromBuy(buy decimal.Decimal, places int32) decimal.Decimal {
	return buy.Mul(SpreadFactor).Round(places)
}

// BuyFromSell returns sell / 0.98 rounded to places.
func BuyFromSell(sell decimal.Decimal, places int32) decimal.Decimal {
	return sell.Div(SpreadFactor).Round(places)
}

// Pair completes a buy/sell pair from whichever sides were supplied.
// Both sides are used verbatim (rounded) when both are given; no
// cross-validation is done.
func Pair(buy, sell *decimal.Decimal, places int32) (decimal.Decimal, decimal.Decimal, error) {
	switch {
	case buy == nil && sell == nil:
		return decimal.Zero, decimal.Zero, ErrNoQuote
	case buy != nil && sell == nil:
		if !buy.IsPositive() {
			return decimal.Zero, decimal.Zero, ErrInvalidQuote
		}
		return buy.Round(places), SellFromBuy(*buy, places), nil
	case buy == nil && sell != nil:
		if !sell.IsPositive() {
			return decimal.Zero, decimal.Zero, ErrInvalidQuote
		}
		return BuyFromSell(*sell, places), sell.Round(places), nil
	default:
		if !buy.IsPositive() || !sell.IsPositive() {
			return decimal.Zero, decimal.Zero, ErrInvalidQuote
		}
		return buy.Round(places), sell.Round(places), nil
	}
}
