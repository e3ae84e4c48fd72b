package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/atharvakonge/cash-or-crash/internal/models"
	"github.com/shopspring/decimal"
)

// ===== In-memory adapter =====

// MemoryStore keeps everything in maps guarded by one RWMutex. Data is lost
// on restart.
type MemoryStore struct {
	mu sync.RWMutex

	companies      map[int64]models.Company
	currencies     map[int64]models.Currency
	teams          map[int64]models.Team
	teamStocks     map[int64]models.TeamStock
	teamCurrencies map[int64]models.TeamCurrency
	startups       map[int64]models.TeamStartup
	settings       map[string]string

	nextCompany, nextCurrency, nextTeam   int64
	nextStock, nextTeamCurrency, nextStup int64
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		companies:      make(map[int64]models.Company),
		currencies:     make(map[int64]models.Currency),
		teams:          make(map[int64]models.Team),
		teamStocks:     make(map[int64]models.TeamStock),
		teamCurrencies: make(map[int64]models.TeamCurrency),
		startups:       make(map[int64]models.TeamStartup),
		settings:       make(map[string]string),
	}
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

/* ---- Companies ---- */

func (s *MemoryStore) ListCompanies(ctx context.Context) ([]models.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Company, 0, len(s.companies))
	for _, id := range sortedKeys(s.companies) {
		out = append(out, s.companies[id])
	}
	return out, nil
}

func (s *MemoryStore) GetCompany(ctx context.Context, id int64) (models.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.companies[id]
	if !ok {
		return models.Company{}, ErrNotFound
	}
	return c, nil
}

func (s *MemoryStore) symbolTaken(symbol string, except int64) bool {
	for id, c := range s.companies {
		if id != except && c.Symbol == symbol {
			return true
		}
	}
	return false
}

func (s *MemoryStore) CreateCompany(ctx context.Context, c models.Company) (models.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.symbolTaken(c.Symbol, 0) {
		return models.Company{}, ErrConflict
	}
	s.nextCompany++
	c.ID = s.nextCompany
	s.companies[c.ID] = c
	return c, nil
}

func (s *MemoryStore) UpdateCompany(ctx context.Context, id int64, p models.CompanyPatch) (models.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.companies[id]
	if !ok {
		return models.Company{}, ErrNotFound
	}
	updated := p.Apply(existing)
	if s.symbolTaken(updated.Symbol, id) {
		return models.Company{}, ErrConflict
	}
	s.companies[id] = updated
	return updated, nil
}

func (s *MemoryStore) DeleteCompany(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.companies[id]; !ok {
		return ErrNotFound
	}
	delete(s.companies, id)
	return nil
}

/* ---- Currencies ---- */

func (s *MemoryStore) ListCurrencies(ctx context.Context) ([]models.Currency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Currency, 0, len(s.currencies))
	for _, id := range sortedKeys(s.currencies) {
		out = append(out, s.currencies[id])
	}
	return out, nil
}

func (s *MemoryStore) GetCurrency(ctx context.Context, id int64) (models.Currency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.currencies[id]
	if !ok {
		return models.Currency{}, ErrNotFound
	}
	return c, nil
}

func (s *MemoryStore) codeTaken(code string, except int64) bool {
	for id, c := range s.currencies {
		if id != except && c.Code == code {
			return true
		}
	}
	return false
}

func (s *MemoryStore) CreateCurrency(ctx context.Context, c models.Currency) (models.Currency, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.codeTaken(c.Code, 0) {
		return models.Currency{}, ErrConflict
	}
	s.nextCurrency++
	c.ID = s.nextCurrency
	s.currencies[c.ID] = c
	return c, nil
}

func (s *MemoryStore) UpdateCurrency(ctx context.Context, id int64, p models.CurrencyPatch) (models.Currency, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.currencies[id]
	if !ok {
		return models.Currency{}, ErrNotFound
	}
	updated := p.Apply(existing)
	if s.codeTaken(updated.Code, id) {
		return models.Currency{}, ErrConflict
	}
	s.currencies[id] = updated
	return updated, nil
}

func (s *MemoryStore) DeleteCurrency(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.currencies[id]; !ok {
		return ErrNotFound
	}
	delete(s.currencies, id)
	return nil
}

/* ---- Teams ---- */

func (s *MemoryStore) ListTeams(ctx context.Context) ([]models.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Team, 0, len(s.teams))
	for _, id := range sortedKeys(s.teams) {
		out = append(out, s.teams[id])
	}
	return out, nil
}

func (s *MemoryStore) GetTeam(ctx context.Context, id int64) (models.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.teams[id]
	if !ok {
		return models.Team{}, ErrNotFound
	}
	return t, nil
}

func (s *MemoryStore) FindTeamByAccessCode(ctx context.Context, code string) (models.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range sortedKeys(s.teams) {
		if s.teams[id].AccessCode == code {
			return s.teams[id], nil
		}
	}
	return models.Team{}, ErrNotFound
}

func (s *MemoryStore) teamClash(t models.Team, except int64) bool {
	for id, other := range s.teams {
		if id == except {
			continue
		}
		if other.Name == t.Name || other.AccessCode == t.AccessCode {
			return true
		}
	}
	return false
}

func (s *MemoryStore) CreateTeam(ctx context.Context, t models.Team) (models.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.teamClash(t, 0) {
		return models.Team{}, ErrConflict
	}
	s.nextTeam++
	t.ID = s.nextTeam
	t.CashBalance = t.CashBalance.Round(cashPlaces)
	s.teams[t.ID] = t
	return t, nil
}

func (s *MemoryStore) UpdateTeam(ctx context.Context, id int64, p models.TeamPatch) (models.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.teams[id]
	if !ok {
		return models.Team{}, ErrNotFound
	}
	updated := p.Apply(existing)
	updated.CashBalance = updated.CashBalance.Round(cashPlaces)
	if s.teamClash(updated, id) {
		return models.Team{}, ErrConflict
	}
	s.teams[id] = updated
	return updated, nil
}

func (s *MemoryStore) DeleteTeam(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.teams[id]; !ok {
		return ErrNotFound
	}
	delete(s.teams, id)
	for rid, row := range s.teamStocks {
		if row.TeamID == id {
			delete(s.teamStocks, rid)
		}
	}
	for rid, row := range s.teamCurrencies {
		if row.TeamID == id {
			delete(s.teamCurrencies, rid)
		}
	}
	for sid, st := range s.startups {
		if st.TeamID == id {
			delete(s.startups, sid)
		}
	}
	return nil
}

/* ---- Ledger rows ---- */

func (s *MemoryStore) ListTeamStocks(ctx context.Context, teamID int64) ([]models.TeamStock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.TeamStock
	for _, id := range sortedKeys(s.teamStocks) {
		if row := s.teamStocks[id]; row.TeamID == teamID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *MemoryStore) GetTeamStock(ctx context.Context, id int64) (models.TeamStock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.teamStocks[id]
	if !ok {
		return models.TeamStock{}, ErrNotFound
	}
	return row, nil
}

func (s *MemoryStore) CreateTeamStock(ctx context.Context, row models.TeamStock) (models.TeamStock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.teams[row.TeamID]; !ok {
		return models.TeamStock{}, ErrNotFound
	}
	return s.appendStock(row), nil
}

func (s *MemoryStore) appendStock(row models.TeamStock) models.TeamStock {
	s.nextStock++
	row.ID = s.nextStock
	s.teamStocks[row.ID] = row
	return row
}

func (s *MemoryStore) UpdateTeamStock(ctx context.Context, row models.TeamStock) (models.TeamStock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.teamStocks[row.ID]; !ok {
		return models.TeamStock{}, ErrNotFound
	}
	s.teamStocks[row.ID] = row
	return row, nil
}

func (s *MemoryStore) DeleteTeamStock(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.teamStocks[id]; !ok {
		return ErrNotFound
	}
	delete(s.teamStocks, id)
	return nil
}

func (s *MemoryStore) ListTeamCurrencies(ctx context.Context, teamID int64) ([]models.TeamCurrency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.TeamCurrency
	for _, id := range sortedKeys(s.teamCurrencies) {
		if row := s.teamCurrencies[id]; row.TeamID == teamID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *MemoryStore) GetTeamCurrency(ctx context.Context, id int64) (models.TeamCurrency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.teamCurrencies[id]
	if !ok {
		return models.TeamCurrency{}, ErrNotFound
	}
	return row, nil
}

func (s *MemoryStore) CreateTeamCurrency(ctx context.Context, row models.TeamCurrency) (models.TeamCurrency, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.teams[row.TeamID]; !ok {
		return models.TeamCurrency{}, ErrNotFound
	}
	return s.appendCurrency(row), nil
}

func (s *MemoryStore) appendCurrency(row models.TeamCurrency) models.TeamCurrency {
	s.nextTeamCurrency++
	row.ID = s.nextTeamCurrency
	row.Amount = row.Amount.Round(cashPlaces)
	s.teamCurrencies[row.ID] = row
	return row
}

func (s *MemoryStore) UpdateTeamCurrency(ctx context.Context, row models.TeamCurrency) (models.TeamCurrency, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.teamCurrencies[row.ID]; !ok {
		return models.TeamCurrency{}, ErrNotFound
	}
	row.Amount = row.Amount.Round(cashPlaces)
	s.teamCurrencies[row.ID] = row
	return row, nil
}

func (s *MemoryStore) DeleteTeamCurrency(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.teamCurrencies[id]; !ok {
		return ErrNotFound
	}
	delete(s.teamCurrencies, id)
	return nil
}

/* ---- Startups ---- */

func (s *MemoryStore) GetTeamStartup(ctx context.Context, teamID int64) (*models.TeamStartup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range sortedKeys(s.startups) {
		if st := s.startups[id]; st.TeamID == teamID {
			return &st, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) GetStartup(ctx context.Context, id int64) (models.TeamStartup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.startups[id]
	if !ok {
		return models.TeamStartup{}, ErrNotFound
	}
	return st, nil
}

func (s *MemoryStore) CreateStartup(ctx context.Context, st models.TeamStartup) (models.TeamStartup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.teams[st.TeamID]; !ok {
		return models.TeamStartup{}, ErrNotFound
	}
	for _, other := range s.startups {
		if other.TeamID == st.TeamID {
			return models.TeamStartup{}, ErrConflict
		}
	}
	s.nextStup++
	st.ID = s.nextStup
	s.startups[st.ID] = st
	return st, nil
}

func (s *MemoryStore) UpdateStartup(ctx context.Context, id int64, p models.StartupPatch) (models.TeamStartup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.startups[id]
	if !ok {
		return models.TeamStartup{}, ErrNotFound
	}
	updated := p.Apply(existing)
	s.startups[id] = updated
	return updated, nil
}

func (s *MemoryStore) DeleteStartup(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.startups[id]; !ok {
		return ErrNotFound
	}
	delete(s.startups, id)
	return nil
}

/* ---- Settlement ---- */

func (s *MemoryStore) stockHolding(teamID, companyID int64) int64 {
	var total int64
	for _, row := range s.teamStocks {
		if row.TeamID == teamID && row.CompanyID == companyID {
			total += row.Shares
		}
	}
	return total
}

func (s *MemoryStore) currencyHolding(teamID, currencyID int64) decimal.Decimal {
	total := decimal.Zero
	for _, row := range s.teamCurrencies {
		if row.TeamID == teamID && row.CurrencyID == currencyID {
			total = total.Add(row.Amount)
		}
	}
	return total
}

func (s *MemoryStore) Settle(ctx context.Context, st Settlement) (models.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	team, ok := s.teams[st.TeamID]
	if !ok {
		return models.Team{}, ErrNotFound
	}

	var stockHolding int64
	currencyHolding := decimal.Zero
	if st.Stock != nil {
		stockHolding = s.stockHolding(st.TeamID, st.Stock.CompanyID)
	}
	if st.Currency != nil {
		currencyHolding = s.currencyHolding(st.TeamID, st.Currency.CurrencyID)
	}
	if err := checkSettlement(st, team.CashBalance, stockHolding, currencyHolding); err != nil {
		return models.Team{}, err
	}

	team.CashBalance = team.CashBalance.Add(st.CashDelta).Round(cashPlaces)
	s.teams[team.ID] = team

	if st.Stock != nil {
		row := *st.Stock
		row.TeamID = st.TeamID
		*st.Stock = s.appendStock(row)
	}
	if st.Currency != nil {
		row := *st.Currency
		row.TeamID = st.TeamID
		*st.Currency = s.appendCurrency(row)
	}
	return team, nil
}

func (s *MemoryStore) SellStartup(ctx context.Context, id int64) (models.TeamStartup, models.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.startups[id]
	if !ok {
		return models.TeamStartup{}, models.Team{}, ErrNotFound
	}
	team, ok := s.teams[st.TeamID]
	if !ok {
		return models.TeamStartup{}, models.Team{}, ErrNotFound
	}
	team.CashBalance = team.CashBalance.Add(st.Value).Round(cashPlaces)
	s.teams[team.ID] = team
	delete(s.startups, id)
	return st, team, nil
}

/* ---- Settings ---- */

func (s *MemoryStore) GetSetting(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.settings[key]
	return v, ok, nil
}

func (s *MemoryStore) SetSetting(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = value
	return nil
}

func (s *MemoryStore) Close() error { return nil }
