package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/atharvakonge/cash-or-crash/internal/models"
)

// ===== PostgreSQL adapter =====

// PostgresStore keeps everything in PostgreSQL through database/sql and
// lib/pq. The schema is created by MigrateUp.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open connection pool.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// mapError turns driver errors into storage sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505": // unique_violation
			return ErrConflict
		case "23503": // foreign_key_violation
			return ErrNotFound
		}
	}
	return err
}

func (s *PostgresStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

type scanner interface {
	Scan(dest ...any) error
}

/* ---- Companies ---- */

const companyCols = "id, name, symbol, price, sell_price, dividend, description, logo_url"

func scanCompany(row scanner) (models.Company, error) {
	var c models.Company
	err := row.Scan(&c.ID, &c.Name, &c.Symbol, &c.Price, &c.SellPrice, &c.Dividend, &c.Description, &c.LogoURL)
	return c, err
}

func (s *PostgresStore) ListCompanies(ctx context.Context) ([]models.Company, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+companyCols+" FROM companies ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Company{}
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetCompany(ctx context.Context, id int64) (models.Company, error) {
	c, err := scanCompany(s.db.QueryRowContext(ctx, "SELECT "+companyCols+" FROM companies WHERE id = $1", id))
	return c, mapError(err)
}

func (s *PostgresStore) CreateCompany(ctx context.Context, c models.Company) (models.Company, error) {
	created, err := scanCompany(s.db.QueryRowContext(ctx,
		`INSERT INTO companies (name, symbol, price, sell_price, dividend, description, logo_url)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING `+companyCols,
		c.Name, c.Symbol, c.Price, c.SellPrice, c.Dividend, c.Description, c.LogoURL))
	return created, mapError(err)
}

func (s *PostgresStore) UpdateCompany(ctx context.Context, id int64, p models.CompanyPatch) (models.Company, error) {
	var updated models.Company
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		existing, err := scanCompany(tx.QueryRowContext(ctx, "SELECT "+companyCols+" FROM companies WHERE id = $1 FOR UPDATE", id))
		if err != nil {
			return err
		}
		c := p.Apply(existing)
		updated, err = scanCompany(tx.QueryRowContext(ctx,
			`UPDATE companies SET name = $1, symbol = $2, price = $3, sell_price = $4, dividend = $5,
			 description = $6, logo_url = $7 WHERE id = $8 RETURNING `+companyCols,
			c.Name, c.Symbol, c.Price, c.SellPrice, c.Dividend, c.Description, c.LogoURL, id))
		return err
	})
	return updated, mapError(err)
}

func (s *PostgresStore) DeleteCompany(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "companies", id)
}

func (s *PostgresStore) deleteByID(ctx context.Context, table string, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = $1", id)
	if err != nil {
		return mapError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

/* ---- Currencies ---- */

const currencyCols = "id, name, code, rate, sell_rate, logo_url"

func scanCurrency(row scanner) (models.Currency, error) {
	var c models.Currency
	err := row.Scan(&c.ID, &c.Name, &c.Code, &c.Rate, &c.SellRate, &c.LogoURL)
	return c, err
}

func (s *PostgresStore) ListCurrencies(ctx context.Context) ([]models.Currency, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+currencyCols+" FROM currencies ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Currency{}
	for rows.Next() {
		c, err := scanCurrency(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetCurrency(ctx context.Context, id int64) (models.Currency, error) {
	c, err := scanCurrency(s.db.QueryRowContext(ctx, "SELECT "+currencyCols+" FROM currencies WHERE id = $1", id))
	return c, mapError(err)
}

func (s *PostgresStore) CreateCurrency(ctx context.Context, c models.Currency) (models.Currency, error) {
	created, err := scanCurrency(s.db.QueryRowContext(ctx,
		`INSERT INTO currencies (name, code, rate, sell_rate, logo_url)
		 VALUES ($1, $2, $3, $4, $5) RETURNING `+currencyCols,
		c.Name, c.Code, c.Rate, c.SellRate, c.LogoURL))
	return created, mapError(err)
}

func (s *PostgresStore) UpdateCurrency(ctx context.Context, id int64, p models.CurrencyPatch) (models.Currency, error) {
	var updated models.Currency
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		existing, err := scanCurrency(tx.QueryRowContext(ctx, "SELECT "+currencyCols+" FROM currencies WHERE id = $1 FOR UPDATE", id))
		if err != nil {
			return err
		}
		c := p.Apply(existing)
		updated, err = scanCurrency(tx.QueryRowContext(ctx,
			`UPDATE currencies SET name = $1, code = $2, rate = $3, sell_rate = $4, logo_url = $5
			 WHERE id = $6 RETURNING `+currencyCols,
			c.Name, c.Code, c.Rate, c.SellRate, c.LogoURL, id))
		return err
	})
	return updated, mapError(err)
}

func (s *PostgresStore) DeleteCurrency(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "currencies", id)
}

/* ---- Teams ---- */

const teamCols = "id, name, cash_balance, access_code, profile_pic_url"

func scanTeam(row scanner) (models.Team, error) {
	var t models.Team
	err := row.Scan(&t.ID, &t.Name, &t.CashBalance, &t.AccessCode, &t.ProfilePicURL)
	return t, err
}

func (s *PostgresStore) ListTeams(ctx context.Context) ([]models.Team, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+teamCols+" FROM teams ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Team{}
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetTeam(ctx context.Context, id int64) (models.Team, error) {
	t, err := scanTeam(s.db.QueryRowContext(ctx, "SELECT "+teamCols+" FROM teams WHERE id = $1", id))
	return t, mapError(err)
}

func (s *PostgresStore) FindTeamByAccessCode(ctx context.Context, code string) (models.Team, error) {
	t, err := scanTeam(s.db.QueryRowContext(ctx, "SELECT "+teamCols+" FROM teams WHERE access_code = $1", code))
	return t, mapError(err)
}

func (s *PostgresStore) CreateTeam(ctx context.Context, t models.Team) (models.Team, error) {
	created, err := scanTeam(s.db.QueryRowContext(ctx,
		`INSERT INTO teams (name, cash_balance, access_code, profile_pic_url)
		 VALUES ($1, $2, $3, $4) RETURNING `+teamCols,
		t.Name, t.CashBalance.Round(cashPlaces), t.AccessCode, t.ProfilePicURL))
	return created, mapError(err)
}

func (s *PostgresStore) UpdateTeam(ctx context.Context, id int64, p models.TeamPatch) (models.Team, error) {
	var updated models.Team
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		existing, err := scanTeam(tx.QueryRowContext(ctx, "SELECT "+teamCols+" FROM teams WHERE id = $1 FOR UPDATE", id))
		if err != nil {
			return err
		}
		t := p.Apply(existing)
		updated, err = scanTeam(tx.QueryRowContext(ctx,
			`UPDATE teams SET name = $1, cash_balance = $2, access_code = $3, profile_pic_url = $4
			 WHERE id = $5 RETURNING `+teamCols,
			t.Name, t.CashBalance.Round(cashPlaces), t.AccessCode, t.ProfilePicURL, id))
		return err
	})
	return updated, mapError(err)
}

func (s *PostgresStore) DeleteTeam(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "teams", id)
}

/* ---- Ledger rows ---- */

func scanTeamStock(row scanner) (models.TeamStock, error) {
	var r models.TeamStock
	err := row.Scan(&r.ID, &r.TeamID, &r.CompanyID, &r.Shares)
	return r, err
}

func (s *PostgresStore) ListTeamStocks(ctx context.Context, teamID int64) ([]models.TeamStock, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, team_id, company_id, shares FROM team_stocks WHERE team_id = $1 ORDER BY id", teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.TeamStock
	for rows.Next() {
		r, err := scanTeamStock(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetTeamStock(ctx context.Context, id int64) (models.TeamStock, error) {
	r, err := scanTeamStock(s.db.QueryRowContext(ctx,
		"SELECT id, team_id, company_id, shares FROM team_stocks WHERE id = $1", id))
	return r, mapError(err)
}

func insertTeamStock(ctx context.Context, q queryer, row models.TeamStock) (models.TeamStock, error) {
	r, err := scanTeamStock(q.QueryRowContext(ctx,
		`INSERT INTO team_stocks (team_id, company_id, shares) VALUES ($1, $2, $3)
		 RETURNING id, team_id, company_id, shares`,
		row.TeamID, row.CompanyID, row.Shares))
	return r, mapError(err)
}

func (s *PostgresStore) CreateTeamStock(ctx context.Context, row models.TeamStock) (models.TeamStock, error) {
	return insertTeamStock(ctx, s.db, row)
}

func (s *PostgresStore) UpdateTeamStock(ctx context.Context, row models.TeamStock) (models.TeamStock, error) {
	r, err := scanTeamStock(s.db.QueryRowContext(ctx,
		`UPDATE team_stocks SET team_id = $1, company_id = $2, shares = $3 WHERE id = $4
		 RETURNING id, team_id, company_id, shares`,
		row.TeamID, row.CompanyID, row.Shares, row.ID))
	return r, mapError(err)
}

func (s *PostgresStore) DeleteTeamStock(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "team_stocks", id)
}

func scanTeamCurrency(row scanner) (models.TeamCurrency, error) {
	var r models.TeamCurrency
	err := row.Scan(&r.ID, &r.TeamID, &r.CurrencyID, &r.Amount)
	return r, err
}

func (s *PostgresStore) ListTeamCurrencies(ctx context.Context, teamID int64) ([]models.TeamCurrency, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, team_id, currency_id, amount FROM team_currencies WHERE team_id = $1 ORDER BY id", teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.TeamCurrency
	for rows.Next() {
		r, err := scanTeamCurrency(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetTeamCurrency(ctx context.Context, id int64) (models.TeamCurrency, error) {
	r, err := scanTeamCurrency(s.db.QueryRowContext(ctx,
		"SELECT id, team_id, currency_id, amount FROM team_currencies WHERE id = $1", id))
	return r, mapError(err)
}

func insertTeamCurrency(ctx context.Context, q queryer, row models.TeamCurrency) (models.TeamCurrency, error) {
	r, err := scanTeamCurrency(q.QueryRowContext(ctx,
		`INSERT INTO team_currencies (team_id, currency_id, amount) VALUES ($1, $2, $3)
		 RETURNING id, team_id, currency_id, amount`,
		row.TeamID, row.CurrencyID, row.Amount.Round(cashPlaces)))
	return r, mapError(err)
}

func (s *PostgresStore) CreateTeamCurrency(ctx context.Context, row models.TeamCurrency) (models.TeamCurrency, error) {
	return insertTeamCurrency(ctx, s.db, row)
}

func (s *PostgresStore) UpdateTeamCurrency(ctx context.Context, row models.TeamCurrency) (models.TeamCurrency, error) {
	r, err := scanTeamCurrency(s.db.QueryRowContext(ctx,
		`UPDATE team_currencies SET team_id = $1, currency_id = $2, amount = $3 WHERE id = $4
		 RETURNING id, team_id, currency_id, amount`,
		row.TeamID, row.CurrencyID, row.Amount.Round(cashPlaces), row.ID))
	return r, mapError(err)
}

func (s *PostgresStore) DeleteTeamCurrency(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "team_currencies", id)
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

/* ---- Startups ---- */

const startupCols = "id, team_id, name, description, value, industry, risk_level"

func scanStartup(row scanner) (models.TeamStartup, error) {
	var st models.TeamStartup
	err := row.Scan(&st.ID, &st.TeamID, &st.Name, &st.Description, &st.Value, &st.Industry, &st.RiskLevel)
	return st, err
}

func (s *PostgresStore) GetTeamStartup(ctx context.Context, teamID int64) (*models.TeamStartup, error) {
	st, err := scanStartup(s.db.QueryRowContext(ctx,
		"SELECT "+startupCols+" FROM team_startups WHERE team_id = $1 ORDER BY id LIMIT 1", teamID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *PostgresStore) GetStartup(ctx context.Context, id int64) (models.TeamStartup, error) {
	st, err := scanStartup(s.db.QueryRowContext(ctx, "SELECT "+startupCols+" FROM team_startups WHERE id = $1", id))
	return st, mapError(err)
}

func (s *PostgresStore) CreateStartup(ctx context.Context, st models.TeamStartup) (models.TeamStartup, error) {
	var created models.TeamStartup
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		// Lock the team row so two concurrent creates cannot both pass the check.
		var teamID int64
		if err := tx.QueryRowContext(ctx, "SELECT id FROM teams WHERE id = $1 FOR UPDATE", st.TeamID).Scan(&teamID); err != nil {
			return err
		}
		var exists bool
		if err := tx.QueryRowContext(ctx,
			"SELECT EXISTS (SELECT 1 FROM team_startups WHERE team_id = $1)", st.TeamID).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return ErrConflict
		}
		var err error
		created, err = scanStartup(tx.QueryRowContext(ctx,
			`INSERT INTO team_startups (team_id, name, description, value, industry, risk_level)
			 VALUES ($1, $2, $3, $4, $5, $6) RETURNING `+startupCols,
			st.TeamID, st.Name, st.Description, st.Value, st.Industry, st.RiskLevel))
		return err
	})
	return created, mapError(err)
}

func (s *PostgresStore) UpdateStartup(ctx context.Context, id int64, p models.StartupPatch) (models.TeamStartup, error) {
	var updated models.TeamStartup
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		existing, err := scanStartup(tx.QueryRowContext(ctx, "SELECT "+startupCols+" FROM team_startups WHERE id = $1 FOR UPDATE", id))
		if err != nil {
			return err
		}
		st := p.Apply(existing)
		updated, err = scanStartup(tx.QueryRowContext(ctx,
			`UPDATE team_startups SET name = $1, description = $2, value = $3, industry = $4, risk_level = $5
			 WHERE id = $6 RETURNING `+startupCols,
			st.Name, st.Description, st.Value, st.Industry, st.RiskLevel, id))
		return err
	})
	return updated, mapError(err)
}

func (s *PostgresStore) DeleteStartup(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "team_startups", id)
}

/* ---- Settlement ---- */

// Settle locks the team row, checks s against the current balance and
// holding, then writes the balance and the ledger row in one transaction.
func (s *PostgresStore) Settle(ctx context.Context, st Settlement) (models.Team, error) {
	var (
		team     models.Team
		stock    models.TeamStock
		currency models.TeamCurrency
	)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var balance decimal.Decimal
		if err := tx.QueryRowContext(ctx,
			"SELECT cash_balance FROM teams WHERE id = $1 FOR UPDATE", st.TeamID).Scan(&balance); err != nil {
			return err
		}

		var stockHolding int64
		currencyHolding := decimal.Zero
		if st.Stock != nil {
			if err := tx.QueryRowContext(ctx,
				"SELECT COALESCE(SUM(shares), 0) FROM team_stocks WHERE team_id = $1 AND company_id = $2",
				st.TeamID, st.Stock.CompanyID).Scan(&stockHolding); err != nil {
				return err
			}
		}
		if st.Currency != nil {
			if err := tx.QueryRowContext(ctx,
				"SELECT COALESCE(SUM(amount), 0) FROM team_currencies WHERE team_id = $1 AND currency_id = $2",
				st.TeamID, st.Currency.CurrencyID).Scan(&currencyHolding); err != nil {
				return err
			}
		}
		if err := checkSettlement(st, balance, stockHolding, currencyHolding); err != nil {
			return err
		}

		var err error
		team, err = scanTeam(tx.QueryRowContext(ctx,
			"UPDATE teams SET cash_balance = $1 WHERE id = $2 RETURNING "+teamCols,
			balance.Add(st.CashDelta).Round(cashPlaces), st.TeamID))
		if err != nil {
			return err
		}

		if st.Stock != nil {
			row := *st.Stock
			row.TeamID = st.TeamID
			if stock, err = insertTeamStock(ctx, tx, row); err != nil {
				return err
			}
		}
		if st.Currency != nil {
			row := *st.Currency
			row.TeamID = st.TeamID
			if currency, err = insertTeamCurrency(ctx, tx, row); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.Team{}, mapError(err)
	}
	if st.Stock != nil {
		*st.Stock = stock
	}
	if st.Currency != nil {
		*st.Currency = currency
	}
	return team, nil
}

func (s *PostgresStore) SellStartup(ctx context.Context, id int64) (models.TeamStartup, models.Team, error) {
	var (
		st   models.TeamStartup
		team models.Team
	)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		st, err = scanStartup(tx.QueryRowContext(ctx, "SELECT "+startupCols+" FROM team_startups WHERE id = $1 FOR UPDATE", id))
		if err != nil {
			return err
		}
		var balance decimal.Decimal
		if err := tx.QueryRowContext(ctx,
			"SELECT cash_balance FROM teams WHERE id = $1 FOR UPDATE", st.TeamID).Scan(&balance); err != nil {
			return err
		}
		team, err = scanTeam(tx.QueryRowContext(ctx,
			"UPDATE teams SET cash_balance = $1 WHERE id = $2 RETURNING "+teamCols,
			balance.Add(st.Value).Round(cashPlaces), st.TeamID))
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, "DELETE FROM team_startups WHERE id = $1", id)
		return err
	})
	if err != nil {
		return models.TeamStartup{}, models.Team{}, mapError(err)
	}
	return st, team, nil
}

/* ---- Settings ---- */

func (s *PostgresStore) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = $1", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *PostgresStore) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`, key, value)
	return err
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
