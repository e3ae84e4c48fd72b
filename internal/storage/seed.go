package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/atharvakonge/cash-or-crash/internal/models"
	"github.com/shopspring/decimal"
)

const unsplash = "https://images.unsplash.com/photo-%s?ixlib=rb-4.0.3&auto=format&fit=crop&w=64&h=64"

func logo(photo string) *string {
	u := fmt.Sprintf(unsplash, photo)
	return &u
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// SeedCompanies is the starting market.
var SeedCompanies = []models.Company{
	{Name: "Apple Inc.", Symbol: "AAPL", Price: dec("170.00"), SellPrice: dec("162.00"), Dividend: dec("2.1"),
		Description: "Technology company specializing in consumer electronics and software", LogoURL: logo("1611532736597-de2d4265fba3")},
	{Name: "Microsoft Corp.", Symbol: "MSFT", Price: dec("340.00"), SellPrice: dec("325.00"), Dividend: dec("1.8"),
		Description: "Technology corporation developing software and cloud services", LogoURL: logo("1486406146926-c627a92ad1ab")},
	{Name: "Tesla Inc.", Symbol: "TSLA", Price: dec("240.00"), SellPrice: dec("230.00"), Dividend: dec("0"),
		Description: "Electric vehicle and clean energy company", LogoURL: logo("1560958089-b8a1929cea89")},
	{Name: "Amazon Inc.", Symbol: "AMZN", Price: dec("3420.50"), SellPrice: dec("3280.00"), Dividend: dec("1.2"),
		Description: "E-commerce and cloud computing leader with global reach", LogoURL: logo("1586880244386-8b3e34c8382c")},
	{Name: "Alphabet Inc.", Symbol: "GOOGL", Price: dec("2750.25"), SellPrice: dec("2640.00"), Dividend: dec("0"),
		Description: "Search engine and advertising technology company", LogoURL: logo("1497366216548-37526070297c")},
	{Name: "Netflix Inc.", Symbol: "NFLX", Price: dec("485.75"), SellPrice: dec("465.00"), Dividend: dec("0"),
		Description: "Global streaming entertainment platform and content creator", LogoURL: logo("1574375927938-d5a98e8ffe85")},
	{Name: "Nike Inc.", Symbol: "NKE", Price: dec("128.40"), SellPrice: dec("123.00"), Dividend: dec("1.1"),
		Description: "Global athletic footwear and apparel brand", LogoURL: logo("1542291026-7eec264c27ff")},
	{Name: "Coca-Cola Co.", Symbol: "KO", Price: dec("58.90"), SellPrice: dec("56.50"), Dividend: dec("3.2"),
		Description: "Global beverage corporation and brand", LogoURL: logo("1561758033-d89a9ad46330")},
}

// SeedCurrencies are quoted in Turkish lira.
var SeedCurrencies = []models.Currency{
	{Name: "ABD Doları", Code: "USD", Rate: dec("34.20"), SellRate: dec("32.80"), LogoURL: logo("1579621970563-ebec7560ff3e")},
	{Name: "Euro", Code: "EUR", Rate: dec("37.40"), SellRate: dec("35.60"), LogoURL: logo("1526304640581-d334cdbbf45e")},
	{Name: "İngiliz Sterlini", Code: "GBP", Rate: dec("42.80"), SellRate: dec("40.20"), LogoURL: logo("1513475382585-d06e58bcb0e0")},
	{Name: "Japon Yeni", Code: "JPY", Rate: dec("0.24"), SellRate: dec("0.22"), LogoURL: logo("1540959733332-eab4deabeeaf")},
	{Name: "Kanada Doları", Code: "CAD", Rate: dec("25.40"), SellRate: dec("23.80"), LogoURL: logo("1578662996442-48f60103fc96")},
}

var seedAccessCodes = []string{
	"123456", "2345678", "8982972", "00998988", "18298139",
	"kursoyvseyupb", "biznizzyineasik", "borsacoktu11", "krizegirdik777", "borsissarabeni",
	"krizpygergin", "kriziscoming", "girisimciolucaz", "paraparanoya", "sansdonermi0",
	"altinavcisi5", "borsabebesi9", "bitcoinlover4", "krizyonetimi0", "enflasyon%200",
	"riskbudur111", "cashmicrashmi", "kursoylapiyasa", "biznizzisbuldu", "elonmuskolcaz",
	"parababası55", "kursoyyksde1", "burjuvapanelle", "biznizzpozitif6", "borsisssayısalcı",
}

// SeedTeams returns the classroom teams: 30 numbered teams and two reserves.
func SeedTeams() []models.Team {
	start := dec("100000.00")
	teams := make([]models.Team, 0, len(seedAccessCodes)+2)
	for i, code := range seedAccessCodes {
		teams = append(teams, models.Team{Name: fmt.Sprintf("%d. Takım", i+1), CashBalance: start, AccessCode: code})
	}
	teams = append(teams,
		models.Team{Name: "Yedek Takım 1", CashBalance: start, AccessCode: "yedek1"},
		models.Team{Name: "Yedek Takım 2", CashBalance: start, AccessCode: "yedek2"},
	)
	return teams
}

// Seed inserts the starting market and teams. Rows that already exist
// (same symbol, code or team name) are skipped, so Seed can be rerun.
func Seed(ctx context.Context, s Storage) error {
	for _, c := range SeedCompanies {
		if _, err := s.CreateCompany(ctx, c); err != nil && !errors.Is(err, ErrConflict) {
			return fmt.Errorf("seed company %s: %w", c.Symbol, err)
		}
	}
	for _, c := range SeedCurrencies {
		if _, err := s.CreateCurrency(ctx, c); err != nil && !errors.Is(err, ErrConflict) {
			return fmt.Errorf("seed currency %s: %w", c.Code, err)
		}
	}
	for _, t := range SeedTeams() {
		if _, err := s.CreateTeam(ctx, t); err != nil && !errors.Is(err, ErrConflict) {
			return fmt.Errorf("seed team %s: %w", t.Name, err)
		}
	}
	return nil
}
