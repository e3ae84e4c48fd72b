// Package storage persists companies, currencies, teams, their ledger rows
// and settings. Two implementations exist: an in-memory store and a
// PostgreSQL store; both apply settlements atomically.
package storage

import (
	"context"
	"errors"

	"github.com/atharvakonge/cash-or-crash/internal/models"
	"github.com/shopspring/decimal"
)

// Common errors
var (
	ErrNotFound             = errors.New("not found")
	ErrConflict             = errors.New("already exists")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInsufficientHoldings = errors.New("insufficient holdings")
)

// Settlement is one balance-affecting mutation: a cash delta for a team and
// at most one ledger row to append. Storage applies it as a single unit.
type Settlement struct {
	TeamID    int64
	CashDelta decimal.Decimal

	// AllowNegativeCash skips the balance-sufficiency check (admin assign).
	AllowNegativeCash bool

	Stock    *models.TeamStock
	Currency *models.TeamCurrency

	// RequireHolding rejects a negative row that would take the team's
	// aggregate holding below zero.
	RequireHolding bool
}

// Storage is the persistence port used by the trading and HTTP layers.
type Storage interface {
	ListCompanies(ctx context.Context) ([]models.Company, error)
	GetCompany(ctx context.Context, id int64) (models.Company, error)
	CreateCompany(ctx context.Context, c models.Company) (models.Company, error)
	UpdateCompany(ctx context.Context, id int64, p models.CompanyPatch) (models.Company, error)
	DeleteCompany(ctx context.Context, id int64) error

	ListCurrencies(ctx context.Context) ([]models.Currency, error)
	GetCurrency(ctx context.Context, id int64) (models.Currency, error)
	CreateCurrency(ctx context.Context, c models.Currency) (models.Currency, error)
	UpdateCurrency(ctx context.Context, id int64, p models.CurrencyPatch) (models.Currency, error)
	DeleteCurrency(ctx context.Context, id int64) error

	ListTeams(ctx context.Context) ([]models.Team, error)
	GetTeam(ctx context.Context, id int64) (models.Team, error)
	FindTeamByAccessCode(ctx context.Context, code string) (models.Team, error)
	CreateTeam(ctx context.Context, t models.Team) (models.Team, error)
	UpdateTeam(ctx context.Context, id int64, p models.TeamPatch) (models.Team, error)
	DeleteTeam(ctx context.Context, id int64) error

	ListTeamStocks(ctx context.Context, teamID int64) ([]models.TeamStock, error)
	GetTeamStock(ctx context.Context, id int64) (models.TeamStock, error)
	CreateTeamStock(ctx context.Context, row models.TeamStock) (models.TeamStock, error)
	UpdateTeamStock(ctx context.Context, row models.TeamStock) (models.TeamStock, error)
	DeleteTeamStock(ctx context.Context, id int64) error

	ListTeamCurrencies(ctx context.Context, teamID int64) ([]models.TeamCurrency, error)
	GetTeamCurrency(ctx context.Context, id int64) (models.TeamCurrency, error)
	CreateTeamCurrency(ctx context.Context, row models.TeamCurrency) (models.TeamCurrency, error)
	UpdateTeamCurrency(ctx context.Context, row models.TeamCurrency) (models.TeamCurrency, error)
	DeleteTeamCurrency(ctx context.Context, id int64) error

	// GetTeamStartup returns nil when the team has no startup.
	GetTeamStartup(ctx context.Context, teamID int64) (*models.TeamStartup, error)
	GetStartup(ctx context.Context, id int64) (models.TeamStartup, error)
	CreateStartup(ctx context.Context, s models.TeamStartup) (models.TeamStartup, error)
	UpdateStartup(ctx context.Context, id int64, p models.StartupPatch) (models.TeamStartup, error)
	DeleteStartup(ctx context.Context, id int64) error

	// Settle applies s atomically and returns the updated team. The ledger
	// row in s is replaced with the stored row, id included.
	Settle(ctx context.Context, s Settlement) (models.Team, error)
	// SellStartup credits the startup's value to its team and removes it.
	SellStartup(ctx context.Context, id int64) (models.TeamStartup, models.Team, error)

	GetSetting(ctx context.Context, key string) (string, bool, error)
	SetSetting(ctx context.Context, key, value string) error

	Close() error
}

// cashPlaces is the precision cash balances are kept at.
const cashPlaces int32 = 2

// checkSettlement validates s against the team's current balance and
// holding. holding is the aggregate for the instrument of the row in s.
func checkSettlement(s Settlement, balance decimal.Decimal, stockHolding int64, currencyHolding decimal.Decimal) error {
	if !s.AllowNegativeCash && s.CashDelta.IsNegative() && balance.Add(s.CashDelta).IsNegative() {
		return ErrInsufficientFunds
	}
	if !s.RequireHolding {
		return nil
	}
	if s.Stock != nil && stockHolding+s.Stock.Shares < 0 {
		return ErrInsufficientHoldings
	}
	if s.Currency != nil && currencyHolding.Add(s.Currency.Amount).IsNegative() {
		return ErrInsufficientHoldings
	}
	return nil
}
