package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/atharvakonge/cash-or-crash/internal/models"
)

// Raw ledger rows let the admin correct holdings without touching cash.

type teamStockRequest struct {
	TeamID    int64 `json:"teamId" binding:"required,min=1"`
	CompanyID int64 `json:"companyId" binding:"required,min=1"`
	Shares    int64 `json:"shares" binding:"required"`
}

type teamStockPatch struct {
	TeamID    *int64 `json:"teamId" binding:"omitempty,min=1"`
	CompanyID *int64 `json:"companyId" binding:"omitempty,min=1"`
	Shares    *int64 `json:"shares"`
}

type teamCurrencyRequest struct {
	TeamID     int64           `json:"teamId" binding:"required,min=1"`
	CurrencyID int64           `json:"currencyId" binding:"required,min=1"`
	Amount     decimal.Decimal `json:"amount"`
}

type teamCurrencyPatch struct {
	TeamID     *int64           `json:"teamId" binding:"omitempty,min=1"`
	CurrencyID *int64           `json:"currencyId" binding:"omitempty,min=1"`
	Amount     *decimal.Decimal `json:"amount"`
}

// CreateTeamStock handles POST /api/team-stocks
func (h *Handler) CreateTeamStock(c *gin.Context) {
	var req teamStockRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err, "")
		return
	}
	row, err := h.store.CreateTeamStock(c.Request.Context(), models.TeamStock{
		TeamID: req.TeamID, CompanyID: req.CompanyID, Shares: req.Shares,
	})
	if err != nil {
		respondError(c, orNotFound(err, "Team not found"), "Invalid team stock data")
		return
	}
	c.JSON(http.StatusCreated, row)
}

// UpdateTeamStock handles PUT /api/team-stocks/:id
func (h *Handler) UpdateTeamStock(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err, "")
		return
	}
	var req teamStockPatch
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err, "")
		return
	}

	ctx := c.Request.Context()
	row, err := h.store.GetTeamStock(ctx, id)
	if err != nil {
		respondError(c, orNotFound(err, "Team stock not found"), "Failed to update team stock")
		return
	}
	if req.TeamID != nil {
		row.TeamID = *req.TeamID
	}
	if req.CompanyID != nil {
		row.CompanyID = *req.CompanyID
	}
	if req.Shares != nil {
		row.Shares = *req.Shares
	}
	if row, err = h.store.UpdateTeamStock(ctx, row); err != nil {
		respondError(c, orNotFound(err, "Team stock not found"), "Failed to update team stock")
		return
	}
	c.JSON(http.StatusOK, row)
}

// DeleteTeamStock handles DELETE /api/team-stocks/:id
func (h *Handler) DeleteTeamStock(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err, "")
		return
	}
	if err := h.store.DeleteTeamStock(c.Request.Context(), id); err != nil {
		respondError(c, orNotFound(err, "Team stock not found"), "Failed to delete team stock")
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateTeamCurrency handles POST /api/team-currencies
func (h *Handler) CreateTeamCurrency(c *gin.Context) {
	var req teamCurrencyRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err, "")
		return
	}
	if req.Amount.IsZero() {
		respondError(c, badRequest("Invalid team currency data"), "")
		return
	}
	row, err := h.store.CreateTeamCurrency(c.Request.Context(), models.TeamCurrency{
		TeamID: req.TeamID, CurrencyID: req.CurrencyID, Amount: req.Amount.Round(2),
	})
	if err != nil {
		respondError(c, orNotFound(err, "Team not found"), "Invalid team currency data")
		return
	}
	c.JSON(http.StatusCreated, row)
}

// UpdateTeamCurrency handles PUT /api/team-currencies/:id
func (h *Handler) UpdateTeamCurrency(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err, "")
		return
	}
	var req teamCurrencyPatch
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err, "")
		return
	}

	ctx := c.Request.Context()
	row, err := h.store.GetTeamCurrency(ctx, id)
	if err != nil {
		respondError(c, orNotFound(err, "Team currency not found"), "Failed to update team currency")
		return
	}
	if req.TeamID != nil {
		row.TeamID = *req.TeamID
	}
	if req.CurrencyID != nil {
		row.CurrencyID = *req.CurrencyID
	}
	if req.Amount != nil {
		row.Amount = req.Amount.Round(2)
	}
	if row, err = h.store.UpdateTeamCurrency(ctx, row); err != nil {
		respondError(c, orNotFound(err, "Team currency not found"), "Failed to update team currency")
		return
	}
	c.JSON(http.StatusOK, row)
}

// DeleteTeamCurrency handles DELETE /api/team-currencies/:id
func (h *Handler) DeleteTeamCurrency(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err, "")
		return
	}
	if err := h.store.DeleteTeamCurrency(c.Request.Context(), id); err != nil {
		respondError(c, orNotFound(err, "Team currency not found"), "Failed to delete team currency")
		return
	}
	c.Status(http.StatusNoContent)
}
