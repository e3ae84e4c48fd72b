package trading

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/atharvakonge/cash-or-crash/internal/logger"
	"github.com/atharvakonge/cash-or-crash/internal/models"
)

// BuyStock debits shares × buy price and appends a positive row.
func (tp *TradeProcessor) BuyStock(ctx context.Context, teamID, companyID, shares int64) (Result, error) {
	return tp.Submit(ctx, Order{Kind: KindBuyStock, TeamID: teamID, InstrumentID: companyID, Shares: shares})
}

// SellStock credits shares × sell price and appends a negative row.
func (tp *TradeProcessor) SellStock(ctx context.Context, teamID, companyID, shares int64) (Result, error) {
	return tp.Submit(ctx, Order{Kind: KindSellStock, TeamID: teamID, InstrumentID: companyID, Shares: shares})
}

func (tp *TradeProcessor) BuyCurrency(ctx context.Context, teamID, currencyID int64, amount decimal.Decimal) (Result, error) {
	return tp.Submit(ctx, Order{Kind: KindBuyCurrency, TeamID: teamID, InstrumentID: currencyID, Amount: amount})
}

func (tp *TradeProcessor) SellCurrency(ctx context.Context, teamID, currencyID int64, amount decimal.Decimal) (Result, error) {
	return tp.Submit(ctx, Order{Kind: KindSellCurrency, TeamID: teamID, InstrumentID: currencyID, Amount: amount})
}

// AssignStock is BuyStock without the balance check.
func (tp *TradeProcessor) AssignStock(ctx context.Context, teamID, companyID, shares int64) (Result, error) {
	return tp.Submit(ctx, Order{Kind: KindAssignStock, TeamID: teamID, InstrumentID: companyID, Shares: shares})
}

func (tp *TradeProcessor) UnassignStock(ctx context.Context, teamID, companyID, shares int64) (Result, error) {
	return tp.Submit(ctx, Order{Kind: KindUnassignStock, TeamID: teamID, InstrumentID: companyID, Shares: shares})
}

func (tp *TradeProcessor) AssignCurrency(ctx context.Context, teamID, currencyID int64, amount decimal.Decimal) (Result, error) {
	return tp.Submit(ctx, Order{Kind: KindAssignCurrency, TeamID: teamID, InstrumentID: currencyID, Amount: amount})
}

func (tp *TradeProcessor) UnassignCurrency(ctx context.Context, teamID, currencyID int64, amount decimal.Decimal) (Result, error) {
	return tp.Submit(ctx, Order{Kind: KindUnassignCurrency, TeamID: teamID, InstrumentID: currencyID, Amount: amount})
}

// AdjustCash adds or subtracts amount from the team's cash. Subtracting
// below zero fails with ErrInsufficientFunds.
func (tp *TradeProcessor) AdjustCash(ctx context.Context, teamID int64, amount decimal.Decimal, subtract bool) (Result, error) {
	if !amount.IsPositive() {
		return Result{}, ErrInvalidQuantity
	}
	if subtract {
		amount = amount.Neg()
	}
	return tp.Submit(ctx, Order{Kind: KindAdjustCash, TeamID: teamID, Amount: amount})
}

// SetCash overwrites the team's cash balance (admin correction).
func (tp *TradeProcessor) SetCash(ctx context.Context, teamID int64, balance decimal.Decimal) (models.Team, error) {
	return tp.UpdateTeam(ctx, teamID, models.TeamPatch{CashBalance: &balance})
}

// UpdateTeam applies p to the team as a single write. Name, access code
// and cash either all change or none do.
func (tp *TradeProcessor) UpdateTeam(ctx context.Context, teamID int64, p models.TeamPatch) (models.Team, error) {
	if p.CashBalance != nil && p.CashBalance.IsNegative() {
		return models.Team{}, ErrInvalidQuantity
	}
	res, err := tp.Submit(ctx, Order{Kind: KindUpdateTeam, TeamID: teamID, Patch: p})
	return res.Team, err
}

// DistributeDividend grants every holder of companyID floor(n × dividend/100)
// extra shares.
func (tp *TradeProcessor) DistributeDividend(ctx context.Context, companyID int64) (models.DividendResult, error) {
	company, err := tp.store.GetCompany(ctx, companyID)
	if err != nil {
		return models.DividendResult{}, fmt.Errorf("load company %d: %w", companyID, err)
	}
	rate := company.Dividend.Div(decimal.NewFromInt(100))
	if !rate.IsPositive() {
		return models.DividendResult{}, ErrNoDividend
	}

	teams, err := tp.store.ListTeams(ctx)
	if err != nil {
		return models.DividendResult{}, fmt.Errorf("list teams: %w", err)
	}

	result := models.DividendResult{Success: true, DividendRate: company.Dividend.StringFixed(1)}
	for _, team := range teams {
		res, err := tp.Submit(ctx, Order{Kind: KindDividend, TeamID: team.ID, InstrumentID: companyID, Rate: rate})
		if err != nil {
			return result, fmt.Errorf("dividend for team %d: %w", team.ID, err)
		}
		if res.Shares > 0 {
			result.TotalDistributed += res.Shares
			result.AffectedTeams++
		}
	}

	logger.L().Info("dividend distributed",
		zap.String("symbol", company.Symbol),
		zap.String("rate", result.DividendRate),
		zap.Int64("total_shares", result.TotalDistributed),
		zap.Int("teams", result.AffectedTeams),
	)
	return result, nil
}

// SellStartup credits the startup's value to its team and removes it.
func (tp *TradeProcessor) SellStartup(ctx context.Context, startupID int64) (models.TeamStartup, models.Team, error) {
	st, err := tp.store.GetStartup(ctx, startupID)
	if err != nil {
		return models.TeamStartup{}, models.Team{}, fmt.Errorf("load startup %d: %w", startupID, err)
	}

	unlock, err := tp.locks.LockTeam(ctx, st.TeamID)
	if err != nil {
		return models.TeamStartup{}, models.Team{}, err
	}
	defer unlock()

	sold, team, err := tp.store.SellStartup(ctx, startupID)
	if err != nil {
		return models.TeamStartup{}, models.Team{}, err
	}
	logger.WithTeam(team.ID).Info("startup sold",
		zap.String("startup", sold.Name),
		zap.String("value", sold.Value.String()),
		zap.String("balance", team.CashBalance.String()),
	)
	return sold, team, nil
}
