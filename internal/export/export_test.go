package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/atharvakonge/cash-or-crash/internal/models"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestWrite_Workbook(t *testing.T) {
	portfolios := []*models.TeamPortfolio{
		{
			Team:                models.Team{ID: 1, Name: "1. Takım"},
			CashBalance:         d("98300"),
			TotalStockValue:     d("1620"),
			TotalCurrencyValue:  d("0"),
			StartupValue:        d("500"),
			TotalPortfolioValue: d("100420"),
			Stocks: []models.StockHolding{
				{CompanyID: 1, Shares: 10, Company: models.Company{Symbol: "AAPL", Name: "Apple Inc."}, Value: d("1620")},
			},
			Startup: &models.TeamStartup{Name: "Kite", Value: d("500")},
		},
		{
			Team:                models.Team{ID: 2, Name: "2. Takım"},
			CashBalance:         d("100000"),
			TotalPortfolioValue: d("100000"),
		},
	}

	var buf bytes.Buffer
	if err := Write(&buf, portfolios); err != nil {
		t.Fatalf("Write: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SummarySheet)
	if err != nil {
		t.Fatalf("GetRows summary: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Expected header + 2 team rows, got %d", len(rows))
	}
	if rows[1][0] != "1. Takım" || rows[1][5] != "100420" {
		t.Errorf("Unexpected first summary row: %v", rows[1])
	}

	holdings, err := f.GetRows(HoldingsSheet)
	if err != nil {
		t.Fatalf("GetRows holdings: %v", err)
	}
	if len(holdings) != 3 {
		t.Fatalf("Expected header + stock + startup rows, got %d", len(holdings))
	}
	if holdings[1][2] != "AAPL" || holdings[1][4] != "10" {
		t.Errorf("Unexpected stock row: %v", holdings[1])
	}
	if holdings[2][1] != "startup" {
		t.Errorf("Expected startup row, got %v", holdings[2])
	}
}

func TestFormatMoney(t *testing.T) {
	got := FormatMoney(d("1234.5"))
	if !strings.Contains(got, "₺") {
		t.Errorf("Expected lira sign in %q", got)
	}
	if !strings.Contains(got, "234") {
		t.Errorf("Expected amount digits in %q", got)
	}
}
