package models

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestMarshal_FixedDecimals(t *testing.T) {
	startup := TeamStartup{ID: 1, TeamID: 1, Name: "Kite", Value: d("7500")}
	tests := []struct {
		name string
		v    interface{}
		want []string
	}{
		{"team", Team{ID: 1, Name: "Alpha", CashBalance: d("98300")},
			[]string{`"cashBalance":"98300.00"`, `"name":"Alpha"`}},
		{"company", Company{ID: 1, Symbol: "AAPL", Price: d("170"), SellPrice: d("166.6"), Dividend: d("2.1")},
			[]string{`"price":"170.00"`, `"sellPrice":"166.60"`, `"dividend":"2.10"`, `"symbol":"AAPL"`}},
		{"currency", Currency{ID: 1, Code: "USD", Rate: d("34.2"), SellRate: d("33.516")},
			[]string{`"rate":"34.2000"`, `"sellRate":"33.5160"`}},
		{"ledger row", TeamCurrency{ID: 3, CurrencyID: 1, Amount: d("-10.5")},
			[]string{`"amount":"-10.50"`, `"id":3`}},
		{"portfolio", TeamPortfolio{
			Team:                Team{ID: 1, CashBalance: d("1000")},
			Startup:             &startup,
			CashBalance:         d("1000"),
			TotalStockValue:     d("340"),
			StartupValue:        d("7500"),
			TotalPortfolioValue: d("8840"),
			Currencies:          []CurrencyHolding{{CurrencyID: 1, Amount: d("1"), Value: d("32.8")}},
		}, []string{`"totalPortfolioValue":"8840.00"`, `"totalCurrencyValue":"0.00"`, `"value":"7500.00"`, `"value":"32.80"`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := json.Marshal(tt.v)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(string(raw), want) {
					t.Errorf("Expected %s in %s", want, raw)
				}
			}
		})
	}
}

func TestMarshal_RedactedTeamOmitsAccessCode(t *testing.T) {
	raw, err := json.Marshal(Team{ID: 1, Name: "Alpha", AccessCode: "alpha", CashBalance: d("1")}.Redacted())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if strings.Contains(string(raw), "accessCode") {
		t.Errorf("Expected no accessCode, got %s", raw)
	}
}

func TestMarshal_DecodesBack(t *testing.T) {
	raw, _ := json.Marshal(Company{ID: 1, Price: d("170.5"), SellPrice: d("167.09")})
	var c Company
	if err := json.Unmarshal(raw, &c); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !c.Price.Equal(d("170.5")) || !c.SellPrice.Equal(d("167.09")) {
		t.Errorf("Expected 170.5/167.09, got %s/%s", c.Price, c.SellPrice)
	}
}
