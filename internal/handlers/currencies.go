package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/atharvakonge/cash-or-crash/internal/models"
	"github.com/atharvakonge/cash-or-crash/internal/pricing"
	"github.com/atharvakonge/cash-or-crash/internal/storage"
)

type currencyInput struct {
	Name string `binding:"required"`
	Code string `binding:"required"`
}

// ListCurrencies handles GET /api/currencies
func (h *Handler) ListCurrencies(c *gin.Context) {
	currencies, err := h.store.ListCurrencies(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to get currencies")
		return
	}
	c.JSON(http.StatusOK, currencies)
}

// GetCurrency handles GET /api/currencies/:id
func (h *Handler) GetCurrency(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err, "")
		return
	}
	currency, err := h.store.GetCurrency(c.Request.Context(), id)
	if err != nil {
		respondError(c, orNotFound(err, "Currency not found"), "Failed to get currency")
		return
	}
	c.JSON(http.StatusOK, currency)
}

// CreateCurrency handles POST /api/currencies (multipart with optional logo)
func (h *Handler) CreateCurrency(c *gin.Context) {
	f, err := readFields(c)
	if err != nil {
		respondError(c, err, "")
		return
	}
	in := currencyInput{Name: strings.TrimSpace(f["name"]), Code: strings.ToUpper(strings.TrimSpace(f["code"]))}
	if err := validate(&in); err != nil {
		respondError(c, err, "")
		return
	}
	rate, sellRate, err := quotePair(f, "rate", "sellRate", pricing.CurrencyPlaces)
	if err != nil {
		respondError(c, badRequest("Invalid currency data"), "")
		return
	}

	currency := models.Currency{Name: in.Name, Code: in.Code, Rate: rate, SellRate: sellRate}
	if logo := f.nonEmpty("logoUrl"); logo != nil {
		currency.LogoURL = logo
	}
	logo, err := h.savedUpload(c, "logo")
	if err != nil {
		respondError(c, err, "Invalid currency data")
		return
	}
	if logo != nil {
		currency.LogoURL = logo
	}

	currency, err = h.store.CreateCurrency(c.Request.Context(), currency)
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			err = badRequest("Currency code already exists")
		}
		respondError(c, err, "Invalid currency data")
		return
	}
	h.hub.PublishCurrency(currency)
	c.JSON(http.StatusCreated, currency)
}

// UpdateCurrency handles PUT /api/currencies/:id. A new buy rate resets the
// sell rate to the default spread.
func (h *Handler) UpdateCurrency(c *gin.Context) {
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

	patch := models.CurrencyPatch{
		Name:    f.nonEmpty("name"),
		LogoURL: f.nonEmpty("logoUrl"),
	}
	if code := f.nonEmpty("code"); code != nil {
		upper := strings.ToUpper(*code)
		patch.Code = &upper
	}
	rate, err := f.quote("rate")
	if err != nil || (rate != nil && !rate.IsPositive()) {
		respondError(c, badRequest("Invalid rate value"), "")
		return
	}
	sellRate, err := f.quote("sellRate")
	if err != nil || (sellRate != nil && !sellRate.IsPositive()) {
		respondError(c, badRequest("Invalid sellRate value"), "")
		return
	}
	if rate != nil {
		buy := rate.Round(pricing.CurrencyPlaces)
		sell := pricing.SellFromBuy(*rate, pricing.CurrencyPlaces)
		patch.Rate, patch.SellRate = &buy, &sell
	} else if sellRate != nil {
		sell := sellRate.Round(pricing.CurrencyPlaces)
		patch.SellRate = &sell
	}

	logo, err := h.savedUpload(c, "logo")
	if err != nil {
		respondError(c, err, "Failed to update currency")
		return
	}
	if logo != nil {
		patch.LogoURL = logo
	}

	currency, err := h.store.UpdateCurrency(c.Request.Context(), id, patch)
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			err = badRequest("Currency code already exists")
		}
		respondError(c, orNotFound(err, "Currency not found"), "Failed to update currency")
		return
	}
	h.hub.PublishCurrency(currency)
	c.JSON(http.StatusOK, currency)
}

// PatchCurrencyRate handles PATCH /api/currencies/:id (bulk rate update)
func (h *Handler) PatchCurrencyRate(c *gin.Context) {
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
	rate, sellRate, err := quotePair(f, "rate", "sellRate", pricing.CurrencyPlaces)
	if err != nil {
		respondError(c, err, "")
		return
	}

	currency, err := h.store.UpdateCurrency(c.Request.Context(), id, models.CurrencyPatch{Rate: &rate, SellRate: &sellRate})
	if err != nil {
		respondError(c, orNotFound(err, "Currency not found"), "Failed to update currency rate")
		return
	}
	h.hub.PublishCurrency(currency)
	c.JSON(http.StatusOK, currency)
}

// DeleteCurrency handles DELETE /api/currencies/:id
func (h *Handler) DeleteCurrency(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err, "")
		return
	}
	if err := h.store.DeleteCurrency(c.Request.Context(), id); err != nil {
		respondError(c, orNotFound(err, "Currency not found"), "Failed to delete currency")
		return
	}
	c.Status(http.StatusNoContent)
}
