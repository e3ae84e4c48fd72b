package handlers

import (
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/atharvakonge/cash-or-crash/internal/models"
)

type portfolioView struct {
	CashBalance decimal.Decimal `json:"cashBalance"`
	Stocks      []struct {
		CompanyID int64 `json:"companyId"`
		Shares    int64 `json:"shares"`
	} `json:"stocks"`
	Currencies []struct {
		CurrencyID int64           `json:"currencyId"`
		Amount     decimal.Decimal `json:"amount"`
	} `json:"currencies"`
}

func (s *testServer) portfolio(teamID int64) portfolioView {
	s.t.Helper()
	w := s.do(http.MethodGet, fmt.Sprintf("/api/teams/%d/portfolio", teamID), nil, s.admin())
	if w.Code != http.StatusOK {
		s.t.Fatalf("Expected portfolio, got %d: %s", w.Code, w.Body.String())
	}
	var p portfolioView
	decode(s.t, w, &p)
	return p
}

func TestTradeStock_WorkedExample(t *testing.T) {
	s := newTestServer(t)
	path := fmt.Sprintf("/api/teams/%d/stocks/trade", s.alpha.ID)
	cookie := s.team(s.alpha.ID)

	w := s.do(http.MethodPost, path, gin.H{"companyId": s.apple.ID, "shares": 10, "action": "buy"}, cookie)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		Success bool   `json:"success"`
		Action  string `json:"action"`
		Shares  int64  `json:"shares"`
	}
	decode(t, w, &body)
	if !body.Success || body.Action != "buy" || body.Shares != 10 {
		t.Errorf("Unexpected response %+v", body)
	}

	p := s.portfolio(s.alpha.ID)
	if !p.CashBalance.Equal(d("98300")) {
		t.Errorf("Expected balance 98300, got %s", p.CashBalance)
	}
	if len(p.Stocks) != 1 || p.Stocks[0].Shares != 10 {
		t.Errorf("Expected 10 shares, got %+v", p.Stocks)
	}

	w = s.do(http.MethodPost, path, gin.H{"companyId": s.apple.ID, "shares": 10, "action": "sell"}, cookie)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	p = s.portfolio(s.alpha.ID)
	if !p.CashBalance.Equal(d("100920")) {
		t.Errorf("Expected balance 100920, got %s", p.CashBalance)
	}
	if len(p.Stocks) != 0 {
		t.Errorf("Expected a zero holding to be hidden, got %+v", p.Stocks)
	}
}

func TestTradeStock_NegativeSharesAreNormalized(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/teams/1/stocks/trade",
		gin.H{"companyId": s.apple.ID, "shares": -2, "action": "buy"}, s.team(s.alpha.ID))
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		Shares int64 `json:"shares"`
	}
	decode(t, w, &body)
	if body.Shares != 2 {
		t.Errorf("Expected 2 shares, got %d", body.Shares)
	}
}

func TestTradeStock_Rejections(t *testing.T) {
	s := newTestServer(t)
	beta := s.team(s.beta.ID)

	tests := []struct {
		name    string
		path    string
		body    gin.H
		cookie  bool
		want    int
		message string
	}{
		{"insufficient funds", "/api/teams/2/stocks/trade", gin.H{"companyId": 1, "shares": 10, "action": "buy"}, true, http.StatusBadRequest, "Yetersiz bakiye"},
		{"insufficient shares", "/api/teams/2/stocks/trade", gin.H{"companyId": 1, "shares": 1, "action": "sell"}, true, http.StatusBadRequest, "Yetersiz hisse"},
		{"unknown company", "/api/teams/2/stocks/trade", gin.H{"companyId": 99, "shares": 1, "action": "buy"}, true, http.StatusNotFound, "Team or company not found"},
		{"insufficient currency", "/api/teams/2/currencies/trade", gin.H{"currencyId": 1, "amount": "5", "action": "sell"}, true, http.StatusBadRequest, "Yetersiz döviz"},
		{"zero amount", "/api/teams/2/currencies/trade", gin.H{"currencyId": 1, "amount": 0, "action": "buy"}, true, http.StatusBadRequest, "Quantity must be positive"},
		{"other team", "/api/teams/1/stocks/trade", gin.H{"companyId": 1, "shares": 1, "action": "buy"}, true, http.StatusUnauthorized, "Authentication required"},
		{"anonymous", "/api/teams/2/stocks/trade", gin.H{"companyId": 1, "shares": 1, "action": "buy"}, false, http.StatusUnauthorized, "Authentication required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cookie := beta
			if !tt.cookie {
				cookie = nil
			}
			w := s.do(http.MethodPost, tt.path, tt.body, cookie)
			if w.Code != tt.want {
				t.Fatalf("Expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
			if msg := message(t, w); msg != tt.message {
				t.Errorf("Expected %q, got %q", tt.message, msg)
			}
		})
	}

	team, _ := s.store.GetTeam(s.ctx, s.beta.ID)
	if !team.CashBalance.Equal(d("1000")) {
		t.Errorf("Expected rejected trades to leave the balance alone, got %s", team.CashBalance)
	}
}

func TestTradeStock_ValidationErrors(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/teams/1/stocks/trade",
		gin.H{"companyId": s.apple.ID, "shares": 1, "action": "hold"}, s.team(s.alpha.ID))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}
	var body struct {
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	}
	decode(t, w, &body)
	if body.Message != "Invalid request" || body.Fields["Action"] != "oneof" {
		t.Errorf("Unexpected validation response %+v", body)
	}
}

func TestTradeCurrency(t *testing.T) {
	s := newTestServer(t)
	cookie := s.team(s.beta.ID)

	w := s.do(http.MethodPost, "/api/teams/2/currencies/trade",
		gin.H{"currencyId": s.dollar.ID, "amount": "10.5", "action": "buy"}, cookie)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		Amount float64 `json:"amount"`
	}
	decode(t, w, &body)
	if body.Amount != 10.5 {
		t.Errorf("Expected amount 10.5, got %v", body.Amount)
	}

	// 1000 - 10.5 × 34.20
	p := s.portfolio(s.beta.ID)
	if !p.CashBalance.Equal(d("640.9")) {
		t.Errorf("Expected 640.90, got %s", p.CashBalance)
	}
	if len(p.Currencies) != 1 || !p.Currencies[0].Amount.Equal(d("10.5")) {
		t.Errorf("Expected 10.5 USD, got %+v", p.Currencies)
	}
}

func TestQuickTrade(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/teams/1/trade",
		gin.H{"companyId": s.apple.ID, "shares": 10, "type": "buy"}, s.team(s.alpha.ID))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		Success     bool                      `json:"success"`
		Portfolio   portfolioView             `json:"portfolio"`
		Transaction models.TransactionSummary `json:"transaction"`
	}
	decode(t, w, &body)
	if !body.Success {
		t.Error("Expected success")
	}
	want := models.TransactionSummary{Type: "buy", CompanyName: "Apple Inc.", Shares: 10, Price: "170.00", Total: "1700.00"}
	if body.Transaction != want {
		t.Errorf("Expected %+v, got %+v", want, body.Transaction)
	}
	if !body.Portfolio.CashBalance.Equal(d("98300")) {
		t.Errorf("Expected refreshed balance 98300, got %s", body.Portfolio.CashBalance)
	}

	w = s.do(http.MethodPost, "/api/teams/1/trade",
		gin.H{"companyId": s.apple.ID, "shares": -1, "type": "buy"}, s.team(s.alpha.ID))
	if w.Code != http.StatusBadRequest || message(t, w) != "Geçersiz işlem verileri" {
		t.Errorf("Expected invalid trade data, got %d %s", w.Code, w.Body.String())
	}

	w = s.do(http.MethodPost, "/api/teams/1/trade",
		gin.H{"companyId": s.apple.ID, "shares": 11, "type": "sell"}, s.team(s.alpha.ID))
	if w.Code != http.StatusBadRequest || message(t, w) != "Yetersiz hisse senedi" {
		t.Errorf("Expected insufficient shares, got %d %s", w.Code, w.Body.String())
	}
}

// Concurrent buys over HTTP must not lose balance updates.
func TestTradeStock_ConcurrentRequests(t *testing.T) {
	s := newTestServer(t)
	// Beta has 1000: exactly five buys of one share at 170 fit.
	cookie := s.team(s.beta.ID)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := s.do(http.MethodPost, "/api/teams/2/stocks/trade",
				gin.H{"companyId": s.apple.ID, "shares": 1, "action": "buy"}, cookie)
			if w.Code == http.StatusCreated {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if created != 5 {
		t.Errorf("Expected 5 successful buys, got %d", created)
	}
	p := s.portfolio(s.beta.ID)
	if !p.CashBalance.Equal(d("150")) {
		t.Errorf("Expected balance 150, got %s", p.CashBalance)
	}
	if len(p.Stocks) != 1 || p.Stocks[0].Shares != 5 {
		t.Errorf("Expected 5 shares, got %+v", p.Stocks)
	}
}
