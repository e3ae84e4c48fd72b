package models

import "github.com/shopspring/decimal"

// Trade actions accepted by the team trading endpoints.
const (
	ActionBuy  = "buy"
	ActionSell = "sell"
)

// StockTradeRequest - what a team sends to buy or sell shares
type StockTradeRequest struct {
	CompanyID int64  `json:"companyId" binding:"required,min=1"`
	Shares    int64  `json:"shares" binding:"required"`
	Action    string `json:"action" binding:"required,oneof=buy sell"`
}

// CurrencyTradeRequest - what a team sends to buy or sell currency
type CurrencyTradeRequest struct {
	CurrencyID int64           `json:"currencyId" binding:"required,min=1"`
	Amount     decimal.Decimal `json:"amount"`
	Action     string          `json:"action" binding:"required,oneof=buy sell"`
}

// QuickTradeRequest is the dashboard's combined trade call, which returns
// the refreshed portfolio.
type QuickTradeRequest struct {
	CompanyID int64  `json:"companyId" binding:"required,min=1"`
	Shares    int64  `json:"shares" binding:"required,min=1"`
	Type      string `json:"type" binding:"required,oneof=buy sell"`
}

// AssignStockRequest - admin assign/unassign of shares
type AssignStockRequest struct {
	TeamID    int64 `json:"teamId" binding:"required,min=1"`
	CompanyID int64 `json:"companyId" binding:"required,min=1"`
	Shares    int64 `json:"shares" binding:"required,min=1"`
}

// AssignCurrencyRequest - admin assign/unassign of currency
type AssignCurrencyRequest struct {
	TeamID     int64           `json:"teamId" binding:"required,min=1"`
	CurrencyID int64           `json:"currencyId" binding:"required,min=1"`
	Amount     decimal.Decimal `json:"amount"`
}

// AdjustCashRequest - admin cash correction
type AdjustCashRequest struct {
	TeamID int64           `json:"teamId" binding:"required,min=1"`
	Amount decimal.Decimal `json:"amount"`
	Type   string          `json:"type" binding:"required,oneof=add subtract"`
}

// TransactionSummary describes a settled trade for display. Price and
// Total are fixed to two decimals.
type TransactionSummary struct {
	Type        string `json:"type"`
	CompanyName string `json:"companyName"`
	Shares      int64  `json:"shares"`
	Price       string `json:"price"`
	Total       string `json:"total"`
}

// DividendResult reports a dividend distribution.
type DividendResult struct {
	Success          bool   `json:"success"`
	TotalDistributed int64  `json:"totalDistributed"`
	AffectedTeams    int    `json:"affectedTeams"`
	DividendRate     string `json:"dividendRate"`
}
