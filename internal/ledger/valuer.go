// Package ledger derives team holdings and portfolio value from the
// append-only ledger rows.
package ledger

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/atharvakonge/cash-or-crash/internal/models"
	"github.com/atharvakonge/cash-or-crash/internal/storage"
)

const valuePlaces int32 = 2

// Placeholder names for holdings whose instrument was deleted.
const (
	DeletedCompanyName  = "Deleted company"
	DeletedCurrencyName = "Deleted currency"
	DeletedSymbol       = "N/A"
)

// Valuer computes portfolio snapshots.
type Valuer struct {
	store storage.Storage
}

func NewValuer(store storage.Storage) *Valuer {
	return &Valuer{store: store}
}

// StockHoldings sums the team's stock rows per company. Only positive
// aggregates are returned, ordered by company id. Company and Value are
// left for the caller to fill.
func StockHoldings(rows []models.TeamStock) []models.StockHolding {
	byCompany := make(map[int64]*models.StockHolding)
	for _, row := range rows {
		h, ok := byCompany[row.CompanyID]
		if !ok {
			h = &models.StockHolding{ID: row.ID, TeamID: row.TeamID, CompanyID: row.CompanyID}
			byCompany[row.CompanyID] = h
		}
		h.Shares += row.Shares
	}

	out := make([]models.StockHolding, 0, len(byCompany))
	for _, h := range byCompany {
		if h.Shares > 0 {
			out = append(out, *h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompanyID < out[j].CompanyID })
	return out
}

// CurrencyHoldings is StockHoldings for currency rows.
func CurrencyHoldings(rows []models.TeamCurrency) []models.CurrencyHolding {
	byCurrency := make(map[int64]*models.CurrencyHolding)
	for _, row := range rows {
		h, ok := byCurrency[row.CurrencyID]
		if !ok {
			h = &models.CurrencyHolding{ID: row.ID, TeamID: row.TeamID, CurrencyID: row.CurrencyID, Amount: decimal.Zero}
			byCurrency[row.CurrencyID] = h
		}
		h.Amount = h.Amount.Add(row.Amount)
	}

	out := make([]models.CurrencyHolding, 0, len(byCurrency))
	for _, h := range byCurrency {
		if h.Amount.IsPositive() {
			out = append(out, *h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CurrencyID < out[j].CurrencyID })
	return out
}

// Portfolio builds the valuation snapshot for teamID. Holdings of deleted
// instruments are kept with a placeholder and contribute nothing.
func (v *Valuer) Portfolio(ctx context.Context, teamID int64) (*models.TeamPortfolio, error) {
	team, err := v.store.GetTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("load team %d: %w", teamID, err)
	}

	stockRows, err := v.store.ListTeamStocks(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("list stock rows: %w", err)
	}
	currencyRows, err := v.store.ListTeamCurrencies(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("list currency rows: %w", err)
	}
	startup, err := v.store.GetTeamStartup(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("load startup: %w", err)
	}

	companies, err := v.store.ListCompanies(ctx)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	companyByID := make(map[int64]models.Company, len(companies))
	for _, c := range companies {
		companyByID[c.ID] = c
	}

	currencies, err := v.store.ListCurrencies(ctx)
	if err != nil {
		return nil, fmt.Errorf("list currencies: %w", err)
	}
	currencyByID := make(map[int64]models.Currency, len(currencies))
	for _, c := range currencies {
		currencyByID[c.ID] = c
	}

	p := &models.TeamPortfolio{
		Team:        team,
		Startup:     startup,
		CashBalance: team.CashBalance,
	}

	stockTotal := decimal.Zero
	p.Stocks = StockHoldings(stockRows)
	for i := range p.Stocks {
		h := &p.Stocks[i]
		c, ok := companyByID[h.CompanyID]
		if !ok {
			h.Company = models.Company{ID: h.CompanyID, Name: DeletedCompanyName, Symbol: DeletedSymbol}
			h.Orphaned = true
			h.Value = decimal.Zero
			continue
		}
		h.Company = c
		h.Value = c.SellPrice.Mul(decimal.NewFromInt(h.Shares)).Round(valuePlaces)
		stockTotal = stockTotal.Add(h.Value)
	}

	currencyTotal := decimal.Zero
	p.Currencies = CurrencyHoldings(currencyRows)
	for i := range p.Currencies {
		h := &p.Currencies[i]
		c, ok := currencyByID[h.CurrencyID]
		if !ok {
			h.Currency = models.Currency{ID: h.CurrencyID, Name: DeletedCurrencyName, Code: DeletedSymbol}
			h.Orphaned = true
			h.Value = decimal.Zero
			continue
		}
		h.Currency = c
		h.Value = c.SellRate.Mul(h.Amount).Round(valuePlaces)
		currencyTotal = currencyTotal.Add(h.Value)
	}

	startupValue := decimal.Zero
	if startup != nil {
		startupValue = startup.Value
	}

	p.TotalStockValue = stockTotal.Round(valuePlaces)
	p.TotalCurrencyValue = currencyTotal.Round(valuePlaces)
	p.StartupValue = startupValue.Round(valuePlaces)
	p.TotalPortfolioValue = team.CashBalance.
		Add(p.TotalStockValue).
		Add(p.TotalCurrencyValue).
		Add(p.StartupValue).
		Round(valuePlaces)
	return p, nil
}
