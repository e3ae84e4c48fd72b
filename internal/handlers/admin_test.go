package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/atharvakonge/cash-or-crash/internal/export"
	"github.com/atharvakonge/cash-or-crash/internal/models"
)

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

func TestAssignStock_ReturnsLedgerRow(t *testing.T) {
	s := newTestServer(t)

	// Beta cannot afford 10 × 170, the assignment goes through anyway.
	w := s.do(http.MethodPost, "/api/admin/assign-stock",
		gin.H{"teamId": s.beta.ID, "companyId": s.apple.ID, "shares": 10}, s.admin())
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var row models.TeamStock
	decode(t, w, &row)
	if row.ID == 0 || row.TeamID != s.beta.ID || row.Shares != 10 {
		t.Errorf("Unexpected ledger row %+v", row)
	}

	team, _ := s.store.GetTeam(s.ctx, s.beta.ID)
	if !team.CashBalance.Equal(d("-700")) {
		t.Errorf("Expected balance -700, got %s", team.CashBalance)
	}

	w = s.do(http.MethodPost, "/api/admin/unassign-stock",
		gin.H{"teamId": s.beta.ID, "companyId": s.apple.ID, "shares": 11}, s.admin())
	if w.Code != http.StatusBadRequest || message(t, w) != "Yetersiz hisse" {
		t.Errorf("Expected insufficient shares, got %d %s", w.Code, w.Body.String())
	}
	w = s.do(http.MethodPost, "/api/admin/unassign-stock",
		gin.H{"teamId": s.beta.ID, "companyId": s.apple.ID, "shares": 10}, s.admin())
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAssignCurrency(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/admin/assign-currency",
		gin.H{"teamId": s.alpha.ID, "currencyId": s.dollar.ID, "amount": "100"}, s.admin())
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var row models.TeamCurrency
	decode(t, w, &row)
	if row.ID == 0 || !row.Amount.Equal(d("100")) {
		t.Errorf("Unexpected ledger row %+v", row)
	}

	w = s.do(http.MethodPost, "/api/admin/unassign-currency",
		gin.H{"teamId": s.alpha.ID, "currencyId": s.dollar.ID, "amount": "150"}, s.admin())
	if w.Code != http.StatusBadRequest || message(t, w) != "Yetersiz döviz" {
		t.Errorf("Expected insufficient currency, got %d %s", w.Code, w.Body.String())
	}
}

func TestAdjustCash(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		body gin.H
		want string
	}{
		{gin.H{"teamId": 2, "amount": "250.50", "type": "add"}, "1250.5"},
		{gin.H{"teamId": 2, "amount": "250.5", "type": "subtract"}, "1000"},
	}
	for _, tt := range tests {
		w := s.do(http.MethodPost, "/api/admin/adjust-cash", tt.body, s.admin())
		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}
		var body struct {
			Team models.Team `json:"team"`
		}
		decode(t, w, &body)
		if !body.Team.CashBalance.Equal(d(tt.want)) {
			t.Errorf("Expected %s, got %s", tt.want, body.Team.CashBalance)
		}
	}

	w := s.do(http.MethodPost, "/api/admin/adjust-cash", gin.H{"teamId": 2, "amount": "2000", "type": "subtract"}, s.admin())
	if w.Code != http.StatusBadRequest || message(t, w) != "Yetersiz bakiye" {
		t.Errorf("Expected insufficient balance, got %d %s", w.Code, w.Body.String())
	}
	w = s.do(http.MethodPost, "/api/admin/adjust-cash", gin.H{"teamId": 2, "amount": "5", "type": "double"}, s.admin())
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for an unknown type, got %d", w.Code)
	}
}

func TestDistributeDividend(t *testing.T) {
	s := newTestServer(t)

	// 25 shares at 10% grant floor(2.5) = 2 shares.
	s.do(http.MethodPost, "/api/admin/assign-stock",
		gin.H{"teamId": s.alpha.ID, "companyId": s.apple.ID, "shares": 25}, s.admin())

	w := s.do(http.MethodPost, "/api/admin/distribute-dividend/1", nil, s.admin())
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var result models.DividendResult
	decode(t, w, &result)
	if !result.Success || result.TotalDistributed != 2 || result.AffectedTeams != 1 || result.DividendRate != "10.0" {
		t.Errorf("Unexpected dividend result %+v", result)
	}
	if p := s.portfolio(s.alpha.ID); len(p.Stocks) != 1 || p.Stocks[0].Shares != 27 {
		t.Errorf("Expected 27 shares, got %+v", p.Stocks)
	}

	s.do(http.MethodPut, "/api/companies/1", gin.H{"dividend": "0"}, s.admin())
	w = s.do(http.MethodPost, "/api/admin/distribute-dividend/1", nil, s.admin())
	if w.Code != http.StatusBadRequest || message(t, w) != "Company has no dividend" {
		t.Errorf("Expected no dividend error, got %d %s", w.Code, w.Body.String())
	}
	if w := s.do(http.MethodPost, "/api/admin/distribute-dividend/99", nil, s.admin()); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

func TestUpdateTeamPassword(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name    string
		body    gin.H
		want    int
		message string
	}{
		{"missing", gin.H{"teamId": 2}, http.StatusBadRequest, "Team ID and new access code are required"},
		{"too short", gin.H{"teamId": 2, "newAccessCode": "abc"}, http.StatusBadRequest, "Access code must be at least 4 characters long"},
		{"taken", gin.H{"teamId": 2, "newAccessCode": "alpha"}, http.StatusBadRequest, "Bu erişim kodu zaten kullanılıyor"},
		{"unknown team", gin.H{"teamId": 99, "newAccessCode": "fresh1"}, http.StatusNotFound, "Team not found"},
		{"ok", gin.H{"teamId": 2, "newAccessCode": "beta-new"}, http.StatusOK, "Team access code updated successfully"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodPut, "/api/admin/update-team-password", tt.body, s.admin())
			if w.Code != tt.want {
				t.Fatalf("Expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
			if msg := message(t, w); msg != tt.message {
				t.Errorf("Expected %q, got %q", tt.message, msg)
			}
		})
	}

	if w := s.do(http.MethodPost, "/api/auth/team", gin.H{"accessCode": "beta-new"}, nil); w.Code != http.StatusOK {
		t.Errorf("Expected login with the new code, got %d", w.Code)
	}
}

func TestUpdateAdminPassword(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPut, "/api/admin/update-admin-password", gin.H{"newPassword": "short"}, s.admin())
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for a short password, got %d", w.Code)
	}
	w = s.do(http.MethodPut, "/api/admin/update-admin-password", gin.H{"newPassword": strings.Repeat("x", 80)}, s.admin())
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for a password bcrypt cannot hash, got %d", w.Code)
	}
	if w := s.do(http.MethodPost, "/api/auth/admin", gin.H{"password": "admin123"}, nil); w.Code != http.StatusOK {
		t.Fatalf("Expected a rejected update to keep the old password, got %d", w.Code)
	}
	w = s.do(http.MethodPut, "/api/admin/update-admin-password", gin.H{"newPassword": "s3cret-pass"}, s.admin())
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	if w := s.do(http.MethodPost, "/api/auth/admin", gin.H{"password": "admin123"}, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected the old password to stop working, got %d", w.Code)
	}
	if w := s.do(http.MethodPost, "/api/auth/admin", gin.H{"password": "s3cret-pass"}, nil); w.Code != http.StatusOK {
		t.Errorf("Expected the new password to work, got %d", w.Code)
	}
}

func TestUpdateTeamName(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPut, "/api/admin/update-team-name", gin.H{"teamId": 2, "newName": "  Gamma  "}, s.admin())
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		Team models.Team `json:"team"`
	}
	decode(t, w, &body)
	if body.Team.Name != "Gamma" {
		t.Errorf("Expected Gamma, got %q", body.Team.Name)
	}

	w = s.do(http.MethodPut, "/api/admin/update-team-name", gin.H{"teamId": 2, "newName": "Alpha"}, s.admin())
	if w.Code != http.StatusBadRequest || message(t, w) != "Team name already exists" {
		t.Errorf("Expected duplicate name error, got %d %s", w.Code, w.Body.String())
	}
}

func TestStartupLifecycle(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/team-startups", gin.H{
		"teamId": s.beta.ID, "name": "Rocket", "value": "5000", "industry": "Space", "riskLevel": "high",
	}, s.admin())
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var st models.TeamStartup
	decode(t, w, &st)

	w = s.do(http.MethodPost, "/api/team-startups", gin.H{
		"teamId": s.beta.ID, "name": "Second", "industry": "Food", "riskLevel": "low",
	}, s.admin())
	if w.Code != http.StatusBadRequest || message(t, w) != "Team already has a startup" {
		t.Errorf("Expected one startup per team, got %d %s", w.Code, w.Body.String())
	}

	if p := s.portfolio(s.beta.ID); !p.CashBalance.Equal(d("1000")) {
		t.Errorf("Expected cash unchanged by the startup, got %s", p.CashBalance)
	}

	w = s.do(http.MethodDelete, "/api/team-startups/"+itoa(st.ID), nil, s.admin())
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var sold struct {
		Success        bool    `json:"success"`
		SoldValue      float64 `json:"soldValue"`
		NewCashBalance float64 `json:"newCashBalance"`
	}
	decode(t, w, &sold)
	if !sold.Success || sold.SoldValue != 5000 || sold.NewCashBalance != 6000 {
		t.Errorf("Unexpected sale %+v", sold)
	}

	if w := s.do(http.MethodDelete, "/api/team-startups/"+itoa(st.ID), nil, s.admin()); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for a sold startup, got %d", w.Code)
	}
}

func TestLedgerRows(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/team-stocks", gin.H{"teamId": 2, "companyId": 1, "shares": 4}, s.admin())
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var row models.TeamStock
	decode(t, w, &row)

	w = s.do(http.MethodPut, "/api/team-stocks/"+itoa(row.ID), gin.H{"shares": 6}, s.admin())
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	p := s.portfolio(s.beta.ID)
	if len(p.Stocks) != 1 || p.Stocks[0].Shares != 6 {
		t.Errorf("Expected 6 shares, got %+v", p.Stocks)
	}
	if !p.CashBalance.Equal(d("1000")) {
		t.Errorf("Expected ledger corrections to leave cash alone, got %s", p.CashBalance)
	}

	if w := s.do(http.MethodDelete, "/api/team-stocks/"+itoa(row.ID), nil, s.admin()); w.Code != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", w.Code)
	}
	if w := s.do(http.MethodPut, "/api/team-stocks/"+itoa(row.ID), gin.H{"shares": 1}, s.admin()); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", w.Code)
	}
}

func TestExportPortfolios(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/admin/export/portfolios", nil, s.admin())
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != export.ContentType {
		t.Errorf("Expected %s, got %s", export.ContentType, ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "portfolios-") || !strings.HasSuffix(cd, `.xlsx"`) {
		t.Errorf("Unexpected Content-Disposition %q", cd)
	}
	// xlsx files are zip archives.
	if !strings.HasPrefix(w.Body.String(), "PK") {
		t.Error("Expected a zip payload")
	}
}
