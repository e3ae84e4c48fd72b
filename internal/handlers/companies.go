package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/atharvakonge/cash-or-crash/internal/models"
	"github.com/atharvakonge/cash-or-crash/internal/pricing"
	"github.com/atharvakonge/cash-or-crash/internal/storage"
)

type companyInput struct {
	Name   string `binding:"required"`
	Symbol string `binding:"required"`
}

// quotePair reads a buy/sell pair from f for a bulk price update and
// completes the missing side. The messages match what the admin price
// screens display.
func quotePair(f fields, buyKey, sellKey string, places int32) (decimal.Decimal, decimal.Decimal, error) {
	buy, buyErr := f.quote(buyKey)
	sell, sellErr := f.quote(sellKey)
	buyGiven := buy != nil || buyErr != nil
	sellGiven := sell != nil || sellErr != nil

	var invalid string
	switch {
	case !buyGiven && !sellGiven:
		return decimal.Zero, decimal.Zero, badRequest(fmt.Sprintf("Either %s or %s must be provided", buyKey, sellKey))
	case buyGiven && sellGiven:
		invalid = fmt.Sprintf("Invalid %s values", buyKey)
	case buyGiven:
		invalid = fmt.Sprintf("Invalid %s value", buyKey)
	default:
		invalid = fmt.Sprintf("Invalid %s value", sellKey)
	}
	if buyErr != nil || sellErr != nil {
		return decimal.Zero, decimal.Zero, badRequest(invalid)
	}

	b, s, err := pricing.Pair(buy, sell, places)
	if err != nil {
		return decimal.Zero, decimal.Zero, badRequest(invalid)
	}
	return b, s, nil
}

// ListCompanies handles GET /api/companies
func (h *Handler) ListCompanies(c *gin.Context) {
	companies, err := h.store.ListCompanies(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to get companies")
		return
	}
	c.JSON(http.StatusOK, companies)
}

// GetCompany handles GET /api/companies/:id
func (h *Handler) GetCompany(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err, "")
		return
	}
	company, err := h.store.GetCompany(c.Request.Context(), id)
	if err != nil {
		respondError(c, orNotFound(err, "Company not found"), "Failed to get company")
		return
	}
	c.JSON(http.StatusOK, company)
}

// CreateCompany handles POST /api/companies (multipart with optional logo)
func (h *Handler) CreateCompany(c *gin.Context) {
	f, err := readFields(c)
	if err != nil {
		respondError(c, err, "")
		return
	}
	in := companyInput{Name: strings.TrimSpace(f["name"]), Symbol: strings.TrimSpace(f["symbol"])}
	if err := validate(&in); err != nil {
		respondError(c, err, "")
		return
	}

	buy, sell, err := quotePair(f, "price", "sellPrice", pricing.CompanyPlaces)
	if err != nil {
		respondError(c, badRequest("Invalid company data"), "")
		return
	}
	dividend, err := f.decimal("dividend")
	if err != nil || (dividend != nil && dividend.IsNegative()) {
		respondError(c, badRequest("Invalid company data"), "")
		return
	}

	company := models.Company{
		Name:      in.Name,
		Symbol:    in.Symbol,
		Price:     buy,
		SellPrice: sell,
		Dividend:  decimal.Zero,
	}
	if dividend != nil {
		company.Dividend = dividend.Round(2)
	}
	if d := f.str("description"); d != nil {
		company.Description = *d
	}
	if logo := f.nonEmpty("logoUrl"); logo != nil {
		company.LogoURL = logo
	}
	logo, err := h.savedUpload(c, "logo")
	if err != nil {
		respondError(c, err, "Invalid company data")
		return
	}
	if logo != nil {
		company.LogoURL = logo
	}

	company, err = h.store.CreateCompany(c.Request.Context(), company)
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			err = badRequest("Symbol already exists")
		}
		respondError(c, err, "Invalid company data")
		return
	}
	h.hub.PublishCompany(company)
	c.JSON(http.StatusCreated, company)
}

// UpdateCompany handles PUT /api/companies/:id. A new buy price resets the
// sell price to the default spread.
func (h *Handler) UpdateCompany(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err, "")
		return
	}
	f, err := readFields(c)
	if err != nil {
		respondError(c, err, "")
		return
	}

	patch := models.CompanyPatch{
		Name:        f.nonEmpty("name"),
		Symbol:      f.nonEmpty("symbol"),
		Description: f.str("description"),
		LogoURL:     f.nonEmpty("logoUrl"),
	}
	price, err := f.quote("price")
	if err != nil || (price != nil && !price.IsPositive()) {
		respondError(c, badRequest("Invalid price value"), "")
		return
	}
	sellPrice, err := f.quote("sellPrice")
	if err != nil || (sellPrice != nil && !sellPrice.IsPositive()) {
		respondError(c, badRequest("Invalid sellPrice value"), "")
		return
	}
	if price != nil {
		buy := price.Round(pricing.CompanyPlaces)
		sell := pricing.SellFromBuy(*price, pricing.CompanyPlaces)
		patch.Price, patch.SellPrice = &buy, &sell
	} else if sellPrice != nil {
		sell := sellPrice.Round(pricing.CompanyPlaces)
		patch.SellPrice = &sell
	}
	dividend, err := f.decimal("dividend")
	if err != nil || (dividend != nil && dividend.IsNegative()) {
		respondError(c, badRequest("Invalid dividend value"), "")
		return
	}
	if dividend != nil {
		d := dividend.Round(2)
		patch.Dividend = &d
	}

	logo, err := h.savedUpload(c, "logo")
	if err != nil {
		respondError(c, err, "Failed to update company")
		return
	}
	if logo != nil {
		patch.LogoURL = logo
	}

	company, err := h.store.UpdateCompany(c.Request.Context(), id, patch)
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			err = badRequest("Symbol already exists")
		}
		respondError(c, orNotFound(err, "Company not found"), "Failed to update company")
		return
	}
	h.hub.PublishCompany(company)
	c.JSON(http.StatusOK, company)
}

// PatchCompanyPrice handles PATCH /api/companies/:id (bulk price update)
func (h *Handler) PatchCompanyPrice(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err, "")
		return
	}
	f, err := readFields(c)
	if err != nil {
		respondError(c, err, "")
		return
	}
	buy, sell, err := quotePair(f, "price", "sellPrice", pricing.CompanyPlaces)
	if err != nil {
		respondError(c, err, "")
		return
	}

	company, err := h.store.UpdateCompany(c.Request.Context(), id, models.CompanyPatch{Price: &buy, SellPrice: &sell})
	if err != nil {
		respondError(c, orNotFound(err, "Company not found"), "Failed to update company price")
		return
	}
	h.hub.PublishCompany(company)
	c.JSON(http.StatusOK, company)
}

type logoRequest struct {
	LogoURL string `json:"logoUrl"`
}

// SetCompanyLogo handles PUT /api/companies/:id/logo
func (h *Handler) SetCompanyLogo(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err, "")
		return
	}
	var req logoRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.LogoURL == "" {
		respondError(c, badRequest("logoUrl is required"), "")
		return
	}

	company, err := h.store.UpdateCompany(c.Request.Context(), id, models.CompanyPatch{LogoURL: &req.LogoURL})
	if err != nil {
		respondError(c, orNotFound(err, "Company not found"), "Internal server error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"company": company, "logoPath": req.LogoURL})
}

// DeleteCompany handles DELETE /api/companies/:id. Ledger rows of the
// company stay and show up as orphaned holdings.
func (h *Handler) DeleteCompany(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err, "")
		return
	}
	if err := h.store.DeleteCompany(c.Request.Context(), id); err != nil {
		respondError(c, orNotFound(err, "Company not found"), "Failed to delete company")
		return
	}
	c.Status(http.StatusNoContent)
}
