package trading

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/atharvakonge/cash-or-crash/internal/ledger"
	"github.com/atharvakonge/cash-or-crash/internal/locker"
	"github.com/atharvakonge/cash-or-crash/internal/models"
	"github.com/atharvakonge/cash-or-crash/internal/storage"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fixture struct {
	store   *storage.MemoryStore
	tp      *TradeProcessor
	team    models.Team
	apple   models.Company
	dollar  models.Currency
	valuer  *ledger.Valuer
	ctx     context.Context
}

func newFixture(t *testing.T, workers int, cash string) *fixture {
	t.Helper()
	ctx := context.Background()
	s := storage.NewMemoryStore()

	team, err := s.CreateTeam(ctx, models.Team{Name: "Alpha", CashBalance: d(cash), AccessCode: "alpha"})
	if err != nil {
		t.Fatalf("Failed to create team: %v", err)
	}
	apple, _ := s.CreateCompany(ctx, models.Company{Name: "Apple Inc.", Symbol: "AAPL", Price: d("170"), SellPrice: d("162"), Dividend: d("10")})
	dollar, _ := s.CreateCurrency(ctx, models.Currency{Name: "Dollar", Code: "USD", Rate: d("34.20"), SellRate: d("32.80")})

	tp := NewTradeProcessor(workers, s, locker.NewTeamLocks())
	tp.Start()
	t.Cleanup(tp.Stop)

	return &fixture{store: s, tp: tp, team: team, apple: apple, dollar: dollar, valuer: ledger.NewValuer(s), ctx: ctx}
}

func (f *fixture) holding(t *testing.T) int64 {
	t.Helper()
	p, err := f.valuer.Portfolio(f.ctx, f.team.ID)
	if err != nil {
		t.Fatalf("Portfolio: %v", err)
	}
	return p.Holding(f.apple.ID)
}

func (f *fixture) balance(t *testing.T) decimal.Decimal {
	t.Helper()
	team, err := f.store.GetTeam(f.ctx, f.team.ID)
	if err != nil {
		t.Fatalf("GetTeam: %v", err)
	}
	return team.CashBalance
}

func TestBuyThenSell_WorkedExample(t *testing.T) {
	f := newFixture(t, 1, "100000")

	res, err := f.tp.BuyStock(f.ctx, f.team.ID, f.apple.ID, 10)
	if err != nil {
		t.Fatalf("Expected buy to succeed, got %v", err)
	}
	if !res.Total.Equal(d("1700")) {
		t.Errorf("Expected total 1700, got %s", res.Total)
	}
	if !f.balance(t).Equal(d("98300")) {
		t.Errorf("Expected balance 98300, got %s", f.balance(t))
	}
	if h := f.holding(t); h != 10 {
		t.Errorf("Expected holding 10, got %d", h)
	}

	res, err = f.tp.SellStock(f.ctx, f.team.ID, f.apple.ID, 10)
	if err != nil {
		t.Fatalf("Expected sell to succeed, got %v", err)
	}
	if !res.Price.Equal(d("162")) {
		t.Errorf("Expected sell price 162, got %s", res.Price)
	}
	if !f.balance(t).Equal(d("100920")) {
		t.Errorf("Expected balance 100920, got %s", f.balance(t))
	}
	if h := f.holding(t); h != 0 {
		t.Errorf("Expected holding 0, got %d", h)
	}
}

func TestBuyStock_InsufficientFunds(t *testing.T) {
	f := newFixture(t, 1, "100")

	_, err := f.tp.BuyStock(f.ctx, f.team.ID, f.apple.ID, 1)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("Expected ErrInsufficientFunds, got %v", err)
	}
	if !f.balance(t).Equal(d("100")) {
		t.Errorf("Expected balance unchanged at 100, got %s", f.balance(t))
	}
	if h := f.holding(t); h != 0 {
		t.Errorf("Expected no holding, got %d", h)
	}
}

func TestSellStock_InsufficientShares(t *testing.T) {
	f := newFixture(t, 1, "1000")

	if _, err := f.tp.BuyStock(f.ctx, f.team.ID, f.apple.ID, 2); err != nil {
		t.Fatalf("Buy: %v", err)
	}
	_, err := f.tp.SellStock(f.ctx, f.team.ID, f.apple.ID, 3)
	if !errors.Is(err, ErrInsufficientHoldings) {
		t.Fatalf("Expected ErrInsufficientHoldings, got %v", err)
	}
	if h := f.holding(t); h != 2 {
		t.Errorf("Expected holding to stay 2, got %d", h)
	}
}

func TestTrade_InvalidInput(t *testing.T) {
	f := newFixture(t, 1, "1000")

	if _, err := f.tp.BuyStock(f.ctx, f.team.ID, f.apple.ID, 0); !errors.Is(err, ErrInvalidQuantity) {
		t.Errorf("Expected ErrInvalidQuantity for 0 shares, got %v", err)
	}
	if _, err := f.tp.BuyCurrency(f.ctx, f.team.ID, f.dollar.ID, d("0.001")); !errors.Is(err, ErrInvalidQuantity) {
		t.Errorf("Expected ErrInvalidQuantity for an amount rounding to 0, got %v", err)
	}
	if _, err := f.tp.BuyStock(f.ctx, f.team.ID, 999, 1); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown company, got %v", err)
	}
	if _, err := f.tp.BuyStock(f.ctx, 999, f.apple.ID, 1); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown team, got %v", err)
	}
}

func TestAssignStock_AllowsNegativeBalance(t *testing.T) {
	f := newFixture(t, 1, "100")

	res, err := f.tp.AssignStock(f.ctx, f.team.ID, f.apple.ID, 1)
	if err != nil {
		t.Fatalf("Expected assign to succeed, got %v", err)
	}
	if !res.Team.CashBalance.Equal(d("-70")) {
		t.Errorf("Expected balance -70, got %s", res.Team.CashBalance)
	}
	if res.StockRow == nil || res.StockRow.ID == 0 || res.StockRow.TeamID != f.team.ID || res.StockRow.Shares != 1 {
		t.Errorf("Expected the stored ledger row, got %+v", res.StockRow)
	}

	if _, err := f.tp.UnassignStock(f.ctx, f.team.ID, f.apple.ID, 2); !errors.Is(err, ErrInsufficientHoldings) {
		t.Errorf("Expected unassign beyond holding to fail, got %v", err)
	}
	res, err = f.tp.UnassignStock(f.ctx, f.team.ID, f.apple.ID, 1)
	if err != nil {
		t.Fatalf("Expected unassign to succeed, got %v", err)
	}
	if !res.Team.CashBalance.Equal(d("92")) {
		t.Errorf("Expected balance 92, got %s", res.Team.CashBalance)
	}
}

func TestCurrencyTrades(t *testing.T) {
	f := newFixture(t, 1, "1000")

	res, err := f.tp.BuyCurrency(f.ctx, f.team.ID, f.dollar.ID, d("10.5"))
	if err != nil {
		t.Fatalf("Expected currency buy to succeed, got %v", err)
	}
	if !res.Team.CashBalance.Equal(d("640.9")) {
		t.Errorf("Expected balance 640.90, got %s", res.Team.CashBalance)
	}

	if _, err := f.tp.SellCurrency(f.ctx, f.team.ID, f.dollar.ID, d("11")); !errors.Is(err, ErrInsufficientHoldings) {
		t.Errorf("Expected ErrInsufficientHoldings, got %v", err)
	}

	res, err = f.tp.SellCurrency(f.ctx, f.team.ID, f.dollar.ID, d("10.5"))
	if err != nil {
		t.Fatalf("Expected currency sell to succeed, got %v", err)
	}
	if !res.Team.CashBalance.Equal(d("985.3")) {
		t.Errorf("Expected balance 985.30, got %s", res.Team.CashBalance)
	}

	if _, err := f.tp.AssignCurrency(f.ctx, f.team.ID, f.dollar.ID, d("100")); err != nil {
		t.Fatalf("Expected assign currency to succeed, got %v", err)
	}
	if _, err := f.tp.UnassignCurrency(f.ctx, f.team.ID, f.dollar.ID, d("100")); err != nil {
		t.Fatalf("Expected unassign currency to succeed, got %v", err)
	}
}

func TestDistributeDividend(t *testing.T) {
	f := newFixture(t, 2, "100000")
	other, _ := f.store.CreateTeam(f.ctx, models.Team{Name: "Beta", CashBalance: d("1000"), AccessCode: "beta"})
	idle, _ := f.store.CreateTeam(f.ctx, models.Team{Name: "Gamma", CashBalance: d("1000"), AccessCode: "gamma"})

	f.store.CreateTeamStock(f.ctx, models.TeamStock{TeamID: f.team.ID, CompanyID: f.apple.ID, Shares: 25})
	f.store.CreateTeamStock(f.ctx, models.TeamStock{TeamID: other.ID, CompanyID: f.apple.ID, Shares: 9})

	res, err := f.tp.DistributeDividend(f.ctx, f.apple.ID)
	if err != nil {
		t.Fatalf("Expected dividend to succeed, got %v", err)
	}
	// 10%: floor(25*0.1)=2, floor(9*0.1)=0
	if res.TotalDistributed != 2 || res.AffectedTeams != 1 {
		t.Errorf("Expected 2 shares to 1 team, got %d to %d", res.TotalDistributed, res.AffectedTeams)
	}
	if res.DividendRate != "10.0" {
		t.Errorf("Expected rate 10.0, got %s", res.DividendRate)
	}
	if h := f.holding(t); h != 27 {
		t.Errorf("Expected holding 27, got %d", h)
	}
	rows, _ := f.store.ListTeamStocks(f.ctx, idle.ID)
	if len(rows) != 0 {
		t.Errorf("Expected team without shares to get nothing, got %d rows", len(rows))
	}
	if !f.balance(t).Equal(d("100000")) {
		t.Errorf("Expected dividend to leave cash alone, got %s", f.balance(t))
	}
}

func TestDistributeDividend_NoDividend(t *testing.T) {
	f := newFixture(t, 1, "1000")
	zero, _ := f.store.CreateCompany(f.ctx, models.Company{Name: "Tesla", Symbol: "TSLA", Price: d("240"), SellPrice: d("230")})

	if _, err := f.tp.DistributeDividend(f.ctx, zero.ID); !errors.Is(err, ErrNoDividend) {
		t.Errorf("Expected ErrNoDividend, got %v", err)
	}
	if _, err := f.tp.DistributeDividend(f.ctx, 999); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestAdjustCash(t *testing.T) {
	f := newFixture(t, 1, "1000")

	res, err := f.tp.AdjustCash(f.ctx, f.team.ID, d("250.50"), false)
	if err != nil {
		t.Fatalf("Expected add to succeed, got %v", err)
	}
	if !res.Team.CashBalance.Equal(d("1250.5")) {
		t.Errorf("Expected 1250.50, got %s", res.Team.CashBalance)
	}
	if _, err := f.tp.AdjustCash(f.ctx, f.team.ID, d("5000"), true); !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("Expected subtracting below zero to fail, got %v", err)
	}
	if _, err := f.tp.AdjustCash(f.ctx, f.team.ID, d("-1"), false); !errors.Is(err, ErrInvalidQuantity) {
		t.Errorf("Expected ErrInvalidQuantity, got %v", err)
	}
}

func TestSetCash(t *testing.T) {
	f := newFixture(t, 1, "1000")

	if _, err := f.tp.BuyStock(f.ctx, f.team.ID, f.apple.ID, 2); err != nil {
		t.Fatalf("Expected buy to succeed, got %v", err)
	}
	team, err := f.tp.SetCash(f.ctx, f.team.ID, d("5000.456"))
	if err != nil {
		t.Fatalf("Expected SetCash to succeed, got %v", err)
	}
	if !team.CashBalance.Equal(d("5000.46")) {
		t.Errorf("Expected 5000.46, got %s", team.CashBalance)
	}
	if h := f.holding(t); h != 2 {
		t.Errorf("Expected holding to be untouched, got %d", h)
	}
	if _, err := f.tp.SetCash(f.ctx, f.team.ID, d("-1")); !errors.Is(err, ErrInvalidQuantity) {
		t.Errorf("Expected ErrInvalidQuantity, got %v", err)
	}
}

func TestUpdateTeam_AllOrNothing(t *testing.T) {
	f := newFixture(t, 1, "1000")
	other, err := f.store.CreateTeam(f.ctx, models.Team{Name: "Rival", AccessCode: "rival", CashBalance: d("10")})
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}

	name, cash := other.Name, d("1")
	if _, err := f.tp.UpdateTeam(f.ctx, f.team.ID, models.TeamPatch{Name: &name, CashBalance: &cash}); err == nil {
		t.Fatal("Expected a name clash to fail")
	}
	team, _ := f.store.GetTeam(f.ctx, f.team.ID)
	if !team.CashBalance.Equal(d("1000")) {
		t.Errorf("Expected cash untouched after a failed edit, got %s", team.CashBalance)
	}

	name = "Renamed"
	team, err = f.tp.UpdateTeam(f.ctx, f.team.ID, models.TeamPatch{Name: &name, CashBalance: &cash})
	if err != nil {
		t.Fatalf("Expected UpdateTeam to succeed, got %v", err)
	}
	if team.Name != "Renamed" || !team.CashBalance.Equal(d("1")) {
		t.Errorf("Expected Renamed with 1, got %s with %s", team.Name, team.CashBalance)
	}
}

func TestSellStartup(t *testing.T) {
	f := newFixture(t, 1, "1000")
	st, err := f.store.CreateStartup(f.ctx, models.TeamStartup{TeamID: f.team.ID, Name: "Kite", Value: d("7500")})
	if err != nil {
		t.Fatalf("CreateStartup: %v", err)
	}

	sold, team, err := f.tp.SellStartup(f.ctx, st.ID)
	if err != nil {
		t.Fatalf("Expected sale to succeed, got %v", err)
	}
	if !sold.Value.Equal(d("7500")) || !team.CashBalance.Equal(d("8500")) {
		t.Errorf("Expected value 7500 and balance 8500, got %s and %s", sold.Value, team.CashBalance)
	}
	if _, _, err := f.tp.SellStartup(f.ctx, st.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second sale, got %v", err)
	}
}

func TestConcurrentBuying_SameTeam(t *testing.T) {
	f := newFixture(t, 5, "10000")

	numTrades := 10
	errs := make(chan error, numTrades)
	for i := 0; i < numTrades; i++ {
		go func() {
			_, err := f.tp.BuyStock(f.ctx, f.team.ID, f.apple.ID, 1)
			errs <- err
		}()
	}

	successCount := 0
	for i := 0; i < numTrades; i++ {
		if err := <-errs; err == nil {
			successCount++
		}
	}
	if successCount != numTrades {
		t.Errorf("Expected %d successful trades, got %d", numTrades, successCount)
	}

	expected := d("10000").Sub(d("170").Mul(decimal.NewFromInt(int64(numTrades))))
	if !f.balance(t).Equal(expected) {
		t.Errorf("Race condition detected! Expected balance %s, got %s", expected, f.balance(t))
	}
	if h := f.holding(t); h != int64(numTrades) {
		t.Errorf("Race condition detected! Expected holding %d, got %d", numTrades, h)
	}
}

func TestConcurrentBuying_DifferentTeams(t *testing.T) {
	f := newFixture(t, 5, "1")

	teamIDs := make([]int64, 5)
	for i := range teamIDs {
		team, err := f.store.CreateTeam(f.ctx, models.Team{
			Name: fmt.Sprintf("team%d", i), CashBalance: d("10000"), AccessCode: fmt.Sprintf("code%d", i),
		})
		if err != nil {
			t.Fatalf("CreateTeam: %v", err)
		}
		teamIDs[i] = team.ID
	}

	totalTrades := 50
	errs := make(chan error, totalTrades)
	for _, teamID := range teamIDs {
		for i := 0; i < 10; i++ {
			go func(id int64) {
				_, err := f.tp.BuyStock(f.ctx, id, f.apple.ID, 1)
				errs <- err
			}(teamID)
		}
	}

	for i := 0; i < totalTrades; i++ {
		if err := <-errs; err != nil {
			t.Errorf("Unexpected trade error: %v", err)
		}
	}

	for _, id := range teamIDs {
		team, _ := f.store.GetTeam(f.ctx, id)
		if !team.CashBalance.Equal(d("8300")) {
			t.Errorf("Team %d: Expected balance 8300, got %s", id, team.CashBalance)
		}
	}
}

func TestSubmit_AfterStop(t *testing.T) {
	s := storage.NewMemoryStore()
	tp := NewTradeProcessor(1, s, locker.NewTeamLocks())
	tp.Start()
	tp.Stop()
	tp.Stop()

	if _, err := tp.BuyStock(context.Background(), 1, 1, 1); !errors.Is(err, ErrStopped) {
		t.Errorf("Expected ErrStopped, got %v", err)
	}
}

func TestSubmit_CanceledContext(t *testing.T) {
	f := newFixture(t, 1, "1000")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.tp.BuyStock(ctx, f.team.ID, f.apple.ID, 1); err == nil {
		t.Error("Expected canceled context to fail the trade")
	}
	if !f.balance(t).Equal(d("1000")) {
		t.Errorf("Expected balance unchanged, got %s", f.balance(t))
	}
}

func BenchmarkTradeProcessing(b *testing.B) {
	ctx := context.Background()
	s := storage.NewMemoryStore()
	team, _ := s.CreateTeam(ctx, models.Team{Name: "bench", CashBalance: d("1000000000"), AccessCode: "bench"})
	c, _ := s.CreateCompany(ctx, models.Company{Name: "Bench", Symbol: "BNCH", Price: d("1"), SellPrice: d("1")})

	tp := NewTradeProcessor(5, s, locker.NewTeamLocks())
	tp.Start()
	defer tp.Stop()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tp.BuyStock(ctx, team.ID, c.ID, 1)
	}
}
