package models

import "github.com/shopspring/decimal"

// StockHolding is the aggregate of a team's ledger rows for one company.
type StockHolding struct {
	ID        int64           `json:"id"` // first ledger row of the aggregate
	TeamID    int64           `json:"teamId"`
	CompanyID int64           `json:"companyId"`
	Shares    int64           `json:"shares"`
	Company   Company         `json:"company"`
	Value     decimal.Decimal `json:"value"`
	Orphaned  bool            `json:"orphaned,omitempty"`
}

// CurrencyHolding is the aggregate of a team's ledger rows for one currency.
type CurrencyHolding struct {
	ID         int64           `json:"id"`
	TeamID     int64           `json:"teamId"`
	CurrencyID int64           `json:"currencyId"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   Currency        `json:"currency"`
	Value      decimal.Decimal `json:"value"`
	Orphaned   bool            `json:"orphaned,omitempty"`
}

// TeamPortfolio is a valuation snapshot of one team.
type TeamPortfolio struct {
	Team                Team              `json:"team"`
	Stocks              []StockHolding    `json:"stocks"`
	Currencies          []CurrencyHolding `json:"currencies"`
	Startup             *TeamStartup      `json:"startup"`
	CashBalance         decimal.Decimal   `json:"cashBalance"`
	TotalStockValue     decimal.Decimal   `json:"totalStockValue"`
	TotalCurrencyValue  decimal.Decimal   `json:"totalCurrencyValue"`
	StartupValue        decimal.Decimal   `json:"startupValue"`
	TotalPortfolioValue decimal.Decimal   `json:"totalPortfolioValue"`
}

// Holding returns the team's share count for companyID, or zero.
func (p *TeamPortfolio) Holding(companyID int64) int64 {
	for _, s := range p.Stocks {
		if s.CompanyID == companyID {
			return s.Shares
		}
	}
	return 0
}

// CurrencyAmount returns the team's amount of currencyID, or zero.
func (p *TeamPortfolio) CurrencyAmount(currencyID int64) decimal.Decimal {
	for _, c := range p.Currencies {
		if c.CurrencyID == currencyID {
			return c.Amount
		}
	}
	return decimal.Zero
}
