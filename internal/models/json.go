package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Decimal places used on the wire. Money and share prices go out as
// "98300.00"; currency rates keep four places like the quotes they came
// from.
const (
	moneyPlaces int32 = 2
	ratePlaces  int32 = 4
)

func money(d decimal.Decimal) string { return d.StringFixed(moneyPlaces) }

func (t Team) MarshalJSON() ([]byte, error) {
	type plain Team
	return json.Marshal(struct {
		plain
		CashBalance string `json:"cashBalance"`
	}{plain(t), money(t.CashBalance)})
}

func (c Company) MarshalJSON() ([]byte, error) {
	type plain Company
	return json.Marshal(struct {
		plain
		Price     string `json:"price"`
		SellPrice string `json:"sellPrice"`
		Dividend  string `json:"dividend"`
	}{plain(c), money(c.Price), money(c.SellPrice), money(c.Dividend)})
}

func (c Currency) MarshalJSON() ([]byte, error) {
	type plain Currency
	return json.Marshal(struct {
		plain
		Rate     string `json:"rate"`
		SellRate string `json:"sellRate"`
	}{plain(c), c.Rate.StringFixed(ratePlaces), c.SellRate.StringFixed(ratePlaces)})
}

func (r TeamCurrency) MarshalJSON() ([]byte, error) {
	type plain TeamCurrency
	return json.Marshal(struct {
		plain
		Amount string `json:"amount"`
	}{plain(r), money(r.Amount)})
}

func (s TeamStartup) MarshalJSON() ([]byte, error) {
	type plain TeamStartup
	return json.Marshal(struct {
		plain
		Value string `json:"value"`
	}{plain(s), money(s.Value)})
}

func (h StockHolding) MarshalJSON() ([]byte, error) {
	type plain StockHolding
	return json.Marshal(struct {
		plain
		Value string `json:"value"`
	}{plain(h), money(h.Value)})
}

func (h CurrencyHolding) MarshalJSON() ([]byte, error) {
	type plain CurrencyHolding
	return json.Marshal(struct {
		plain
		Amount string `json:"amount"`
		Value  string `json:"value"`
	}{plain(h), money(h.Amount), money(h.Value)})
}

func (p TeamPortfolio) MarshalJSON() ([]byte, error) {
	type plain TeamPortfolio
	return json.Marshal(struct {
		plain
		CashBalance         string `json:"cashBalance"`
		TotalStockValue     string `json:"totalStockValue"`
		TotalCurrencyValue  string `json:"totalCurrencyValue"`
		StartupValue        string `json:"startupValue"`
		TotalPortfolioValue string `json:"totalPortfolioValue"`
	}{
		plain(p),
		money(p.CashBalance),
		money(p.TotalStockValue),
		money(p.TotalCurrencyValue),
		money(p.StartupValue),
		money(p.TotalPortfolioValue),
	})
}
