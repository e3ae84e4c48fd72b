package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/atharvakonge/cash-or-crash/internal/export"
	"github.com/atharvakonge/cash-or-crash/internal/logger"
	"github.com/atharvakonge/cash-or-crash/internal/models"
)

// AssignStock handles POST /api/admin/assign-stock. The team pays the buy
// price even when that takes its balance below zero.
func (h *Handler) AssignStock(c *gin.Context) {
	var req models.AssignStockRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err, "")
		return
	}
	res, err := h.trades.AssignStock(c.Request.Context(), req.TeamID, req.CompanyID, req.Shares)
	if err != nil {
		respondError(c, orNotFound(err, "Team or company not found"), "Failed to assign stock")
		return
	}
	c.JSON(http.StatusCreated, res.StockRow)
}

// UnassignStock handles POST /api/admin/unassign-stock
func (h *Handler) UnassignStock(c *gin.Context) {
	var req models.AssignStockRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err, "")
		return
	}
	_, err := h.trades.UnassignStock(c.Request.Context(), req.TeamID, req.CompanyID, req.Shares)
	if err != nil {
		err = tradeError(err, "Yetersiz bakiye", "Yetersiz hisse")
		respondError(c, orNotFound(err, "Team or company not found"), "Failed to unassign stock")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// AssignCurrency handles POST /api/admin/assign-currency
func (h *Handler) AssignCurrency(c *gin.Context) {
	var req models.AssignCurrencyRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err, "")
		return
	}
	res, err := h.trades.AssignCurrency(c.Request.Context(), req.TeamID, req.CurrencyID, req.Amount)
	if err != nil {
		respondError(c, orNotFound(err, "Team or currency not found"), "Failed to assign currency")
		return
	}
	c.JSON(http.StatusCreated, res.CurrencyRow)
}

// UnassignCurrency handles POST /api/admin/unassign-currency
func (h *Handler) UnassignCurrency(c *gin.Context) {
	var req models.AssignCurrencyRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err, "")
		return
	}
	_, err := h.trades.UnassignCurrency(c.Request.Context(), req.TeamID, req.CurrencyID, req.Amount)
	if err != nil {
		err = tradeError(err, "Yetersiz bakiye", "Yetersiz döviz")
		respondError(c, orNotFound(err, "Team or currency not found"), "Failed to unassign currency")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// AdjustCash handles POST /api/admin/adjust-cash
func (h *Handler) AdjustCash(c *gin.Context) {
	var req models.AdjustCashRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err, "")
		return
	}
	res, err := h.trades.AdjustCash(c.Request.Context(), req.TeamID, req.Amount, req.Type == "subtract")
	if err != nil {
		respondError(c, orNotFound(err, "Team not found"), "Failed to adjust cash")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "team": res.Team})
}

// DistributeDividend handles POST /api/admin/distribute-dividend/:companyId
func (h *Handler) DistributeDividend(c *gin.Context) {
	companyID, err := idParam(c, "companyId")
	if err != nil {
		respondError(c, err, "")
		return
	}
	ctx := c.Request.Context()

	result, err := h.trades.DistributeDividend(ctx, companyID)
	if err != nil {
		respondError(c, orNotFound(err, "Company not found"), "Dividend distribution failed")
		return
	}
	if company, err := h.store.GetCompany(ctx, companyID); err == nil {
		h.hub.PublishDividend(company, result)
	}
	c.JSON(http.StatusOK, result)
}

type updateTeamPasswordRequest struct {
	TeamID        int64  `json:"teamId"`
	NewAccessCode string `json:"newAccessCode"`
}

// UpdateTeamPassword handles PUT /api/admin/update-team-password
func (h *Handler) UpdateTeamPassword(c *gin.Context) {
	var req updateTeamPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.TeamID < 1 || req.NewAccessCode == "" {
		respondError(c, badRequest("Team ID and new access code are required"), "")
		return
	}
	team, err := h.auth.UpdateTeamAccessCode(c.Request.Context(), req.TeamID, req.NewAccessCode)
	if err != nil {
		respondError(c, orNotFound(err, "Team not found"), "Failed to update team access code")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Team access code updated successfully",
		"team":    team,
	})
}

type updateAdminPasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

// UpdateAdminPassword handles PUT /api/admin/update-admin-password
func (h *Handler) UpdateAdminPassword(c *gin.Context) {
	var req updateAdminPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.NewPassword == "" {
		respondError(c, badRequest("New password is required"), "")
		return
	}
	if err := h.auth.UpdateAdminPassword(c.Request.Context(), req.NewPassword); err != nil {
		respondError(c, err, "Failed to update admin password")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Admin password updated successfully"})
}

type updateTeamNameRequest struct {
	TeamID  int64  `json:"teamId"`
	NewName string `json:"newName"`
}

// UpdateTeamName handles PUT /api/admin/update-team-name
func (h *Handler) UpdateTeamName(c *gin.Context) {
	var req updateTeamNameRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.TeamID < 1 || req.NewName == "" {
		respondError(c, badRequest("Team ID and new name are required"), "")
		return
	}
	team, err := h.auth.UpdateTeamName(c.Request.Context(), req.TeamID, req.NewName)
	if err != nil {
		respondError(c, orNotFound(err, "Team not found"), "Failed to update team name")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Team name updated successfully",
		"team":    team,
	})
}

// ExportPortfolios handles GET /api/admin/export/portfolios
func (h *Handler) ExportPortfolios(c *gin.Context) {
	ctx := c.Request.Context()
	teams, err := h.store.ListTeams(ctx)
	if err != nil {
		respondError(c, err, "Failed to export portfolios")
		return
	}
	portfolios := make([]*models.TeamPortfolio, 0, len(teams))
	for _, team := range teams {
		p, err := h.valuer.Portfolio(ctx, team.ID)
		if err != nil {
			respondError(c, err, "Failed to export portfolios")
			return
		}
		portfolios = append(portfolios, p)
	}

	filename := fmt.Sprintf("portfolios-%s.xlsx", time.Now().Format("20060102-1504"))
	c.Header("Content-Type", export.ContentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)
	if err := export.Write(c.Writer, portfolios); err != nil {
		logger.L().Error("portfolio export failed", zap.Error(err))
	}
}
