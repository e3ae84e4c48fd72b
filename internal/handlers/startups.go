package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/atharvakonge/cash-or-crash/internal/models"
	"github.com/atharvakonge/cash-or-crash/internal/storage"
)

type startupRequest struct {
	TeamID      int64           `json:"teamId" binding:"required,min=1"`
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Value       decimal.Decimal `json:"value"`
	Industry    string          `json:"industry" binding:"required"`
	RiskLevel   string          `json:"riskLevel" binding:"required"`
}

type startupPatch struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Value       *decimal.Decimal `json:"value"`
	Industry    *string          `json:"industry"`
	RiskLevel   *string          `json:"riskLevel"`
}

// CreateStartup handles POST /api/team-startups
func (h *Handler) CreateStartup(c *gin.Context) {
	var req startupRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err, "")
		return
	}
	if req.Value.IsNegative() {
		respondError(c, badRequest("Invalid team startup data"), "")
		return
	}

	st, err := h.store.CreateStartup(c.Request.Context(), models.TeamStartup{
		TeamID:      req.TeamID,
		Name:        req.Name,
		Description: req.Description,
		Value:       req.Value.Round(2),
		Industry:    req.Industry,
		RiskLevel:   req.RiskLevel,
	})
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			err = badRequest("Team already has a startup")
		}
		respondError(c, orNotFound(err, "Team not found"), "Invalid team startup data")
		return
	}
	c.JSON(http.StatusCreated, st)
}

// UpdateStartup handles PUT /api/team-startups/:id
func (h *Handler) UpdateStartup(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err, "")
		return
	}
	var req startupPatch
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err, "")
		return
	}
	if req.Value != nil {
		if req.Value.IsNegative() {
			respondError(c, badRequest("Invalid startup value"), "")
			return
		}
		v := req.Value.Round(2)
		req.Value = &v
	}

	st, err := h.store.UpdateStartup(c.Request.Context(), id, models.StartupPatch{
		Name:        req.Name,
		Description: req.Description,
		Value:       req.Value,
		Industry:    req.Industry,
		RiskLevel:   req.RiskLevel,
	})
	if err != nil {
		respondError(c, orNotFound(err, "Startup not found"), "Failed to update team startup")
		return
	}
	c.JSON(http.StatusOK, st)
}

// SellStartup handles DELETE /api/team-startups/:id: the startup's value is
// paid out to its team and the startup is removed.
func (h *Handler) SellStartup(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err, "")
		return
	}
	sold, team, err := h.trades.SellStartup(c.Request.Context(), id)
	if err != nil {
		respondError(c, orNotFound(err, "Startup not found"), "Failed to sell startup")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"soldValue":      sold.Value.InexactFloat64(),
		"newCashBalance": team.CashBalance.InexactFloat64(),
	})
}
