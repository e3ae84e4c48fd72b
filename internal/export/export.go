// Package export renders team portfolios as an Excel workbook.
package export

import (
	"fmt"
	"io"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/atharvakonge/cash-or-crash/internal/models"
)

// BaseCurrency is the currency cash balances and values are held in.
const BaseCurrency = "TRY"

const (
	SummarySheet  = "Portfolios"
	HoldingsSheet = "Holdings"
	ContentType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var (
	summaryHeadings  = []interface{}{"Team", "Cash", "Stock value", "Currency value", "Startup value", "Total", "Total (display)"}
	holdingsHeadings = []interface{}{"Team", "Type", "Symbol", "Name", "Quantity", "Value"}
)

// FormatMoney renders amount in the base currency, e.g. "₺1.234,50".
func FormatMoney(amount decimal.Decimal) string {
	cur := money.GetCurrency(BaseCurrency)
	minor := amount.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, BaseCurrency).Display()
}

func num(d decimal.Decimal) float64 { return d.Round(2).InexactFloat64() }

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

// Workbook builds a workbook with a summary row per team and one row per
// holding.
func Workbook(portfolios []*models.TeamPortfolio) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(HoldingsSheet); err != nil {
		return nil, err
	}

	if err := setRow(f, SummarySheet, 1, summaryHeadings); err != nil {
		return nil, err
	}
	if err := setRow(f, HoldingsSheet, 1, holdingsHeadings); err != nil {
		return nil, err
	}

	holdingRow := 2
	for i, p := range portfolios {
		summary := []interface{}{
			p.Team.Name,
			num(p.CashBalance),
			num(p.TotalStockValue),
			num(p.TotalCurrencyValue),
			num(p.StartupValue),
			num(p.TotalPortfolioValue),
			FormatMoney(p.TotalPortfolioValue),
		}
		if err := setRow(f, SummarySheet, i+2, summary); err != nil {
			return nil, fmt.Errorf("summary row for %s: %w", p.Team.Name, err)
		}

		for _, s := range p.Stocks {
			row := []interface{}{p.Team.Name, "stock", s.Company.Symbol, s.Company.Name, s.Shares, num(s.Value)}
			if err := setRow(f, HoldingsSheet, holdingRow, row); err != nil {
				return nil, err
			}
			holdingRow++
		}
		for _, c := range p.Currencies {
			row := []interface{}{p.Team.Name, "currency", c.Currency.Code, c.Currency.Name, num(c.Amount), num(c.Value)}
			if err := setRow(f, HoldingsSheet, holdingRow, row); err != nil {
				return nil, err
			}
			holdingRow++
		}
		if p.Startup != nil {
			row := []interface{}{p.Team.Name, "startup", "", p.Startup.Name, 1, num(p.Startup.Value)}
			if err := setRow(f, HoldingsSheet, holdingRow, row); err != nil {
				return nil, err
			}
			holdingRow++
		}
	}

	f.SetActiveSheet(0)
	return f, nil
}

// Write renders the workbook for portfolios into w.
func Write(w io.Writer, portfolios []*models.TeamPortfolio) error {
	f, err := Workbook(portfolios)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}
