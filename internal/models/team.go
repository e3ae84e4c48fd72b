package models

import "github.com/shopspring/decimal"

// DefaultCashBalance is given to teams created without an explicit balance.
var DefaultCashBalance = decimal.NewFromInt(50000)

// Team is a trading team. AccessCode is the team's login credential.
type Team struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	CashBalance   decimal.Decimal `json:"cashBalance"`
	AccessCode    string          `json:"accessCode,omitempty"`
	ProfilePicURL *string         `json:"profilePicUrl"`
}

// Redacted returns a copy of t without its access code.
func (t Team) Redacted() Team {
	t.AccessCode = ""
	return t
}

// TeamPatch carries the optional fields of a team update.
type TeamPatch struct {
	Name          *string
	CashBalance   *decimal.Decimal
	AccessCode    *string
	ProfilePicURL *string
}

// Apply returns t with the non-nil fields of p applied.
func (p TeamPatch) Apply(t Team) Team {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.CashBalance != nil {
		t.CashBalance = *p.CashBalance
	}
	if p.AccessCode != nil {
		t.AccessCode = *p.AccessCode
	}
	if p.ProfilePicURL != nil {
		pic := *p.ProfilePicURL
		t.ProfilePicURL = &pic
	}
	return t
}

// TeamStock is one append-only ledger row: a signed share delta for a
// team and company.
type TeamStock struct {
	ID        int64 `json:"id"`
	TeamID    int64 `json:"teamId"`
	CompanyID int64 `json:"companyId"`
	Shares    int64 `json:"shares"`
}

// TeamCurrency is one append-only ledger row: a signed amount delta for a
// team and currency.
type TeamCurrency struct {
	ID         int64           `json:"id"`
	TeamID     int64           `json:"teamId"`
	CurrencyID int64           `json:"currencyId"`
	Amount     decimal.Decimal `json:"amount"`
}

// TeamStartup is a team's startup investment.
type TeamStartup struct {
	ID          int64           `json:"id"`
	TeamID      int64           `json:"teamId"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Value       decimal.Decimal `json:"value"`
	Industry    string          `json:"industry"`
	RiskLevel   string          `json:"riskLevel"`
}

// StartupPatch carries the optional fields of a startup update.
type StartupPatch struct {
	Name        *string
	Description *string
	Value       *decimal.Decimal
	Industry    *string
	RiskLevel   *string
}

// Apply returns s with the non-nil fields of p applied.
func (p StartupPatch) Apply(s TeamStartup) TeamStartup {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Description != nil {
		s.Description = *p.Description
	}
	if p.Value != nil {
		s.Value = *p.Value
	}
	if p.Industry != nil {
		s.Industry = *p.Industry
	}
	if p.RiskLevel != nil {
		s.RiskLevel = *p.RiskLevel
	}
	return s
}

// Setting is a persisted key/value pair.
type Setting struct {
	ID    int64  `json:"id"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

// SettingAdminPassword is the settings key holding the admin password.
const SettingAdminPassword = "admin_password"
