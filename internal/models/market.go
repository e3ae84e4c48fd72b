package models

import "github.com/shopspring/decimal"

// Company is a listed stock teams can trade.
type Company struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Symbol      string          `json:"symbol"`
	Price       decimal.Decimal `json:"price"`     // buy price
	SellPrice   decimal.Decimal `json:"sellPrice"` // sell price
	Dividend    decimal.Decimal `json:"dividend"`  // percentage, e.g. 2.1
	Description string          `json:"description"`
	LogoURL     *string         `json:"logoUrl"`
}

// Currency is a foreign currency quoted against the base currency.
type Currency struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Code     string          `json:"code"`
	Rate     decimal.Decimal `json:"rate"`     // buy rate
	SellRate decimal.Decimal `json:"sellRate"` // sell rate
	LogoURL  *string         `json:"logoUrl"`
}

// CompanyPatch carries the optional fields of a company update.
// Nil fields are left untouched.
type CompanyPatch struct {
	Name        *string
	Symbol      *string
	Price       *decimal.Decimal
	SellPrice   *decimal.Decimal
	Dividend    *decimal.Decimal
	Description *string
	LogoURL     *string
}

// Apply returns c with the non-nil fields of p applied.
func (p CompanyPatch) Apply(c Company) Company {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Symbol != nil {
		c.Symbol = *p.Symbol
	}
	if p.Price != nil {
		c.Price = *p.Price
	}
	if p.SellPrice != nil {
		c.SellPrice = *p.SellPrice
	}
	if p.Dividend != nil {
		c.Dividend = *p.Dividend
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.LogoURL != nil {
		logo := *p.LogoURL
		c.LogoURL = &logo
	}
	return c
}

// CurrencyPatch carries the optional fields of a currency update.
type CurrencyPatch struct {
	Name     *string
	Code     *string
	Rate     *decimal.Decimal
	SellRate *decimal.Decimal
	LogoURL  *string
}

// Apply returns c with the non-nil fields of p applied.
func (p CurrencyPatch) Apply(c Currency) Currency {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Code != nil {
		c.Code = *p.Code
	}
	if p.Rate != nil {
		c.Rate = *p.Rate
	}
	if p.SellRate != nil {
		c.SellRate = *p.SellRate
	}
	if p.LogoURL != nil {
		logo := *p.LogoURL
		c.LogoURL = &logo
	}
	return c
}
