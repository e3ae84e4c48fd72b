package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atharvakonge/cash-or-crash/internal/models"
	"github.com/atharvakonge/cash-or-crash/internal/trading"
)

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

// TradeStock handles POST /api/teams/:id/stocks/trade
func (h *Handler) TradeStock(c *gin.Context) {
	teamID, err := idParam(c, "id")
	if err != nil {
		respondError(c, err, "")
		return
	}
	var req models.StockTradeRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err, "")
		return
	}

	ctx := c.Request.Context()
	shares := abs(req.Shares)
	if req.Action == models.ActionBuy {
		_, err = h.trades.BuyStock(ctx, teamID, req.CompanyID, shares)
	} else {
		_, err = h.trades.SellStock(ctx, teamID, req.CompanyID, shares)
	}
	if err != nil {
		err = tradeError(err, "Yetersiz bakiye", "Yetersiz hisse")
		respondError(c, orNotFound(err, "Team or company not found"), "İşlem başarısız")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "action": req.Action, "shares": shares})
}

// TradeCurrency handles POST /api/teams/:id/currencies/trade
func (h *Handler) TradeCurrency(c *gin.Context) {
	teamID, err := idParam(c, "id")
	if err != nil {
		respondError(c, err, "")
		return
	}
	var req models.CurrencyTradeRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err, "")
		return
	}

	ctx := c.Request.Context()
	amount := req.Amount.Abs().Round(2)
	if req.Action == models.ActionBuy {
		_, err = h.trades.BuyCurrency(ctx, teamID, req.CurrencyID, amount)
	} else {
		_, err = h.trades.SellCurrency(ctx, teamID, req.CurrencyID, amount)
	}
	if err != nil {
		err = tradeError(err, "Yetersiz bakiye", "Yetersiz döviz")
		respondError(c, orNotFound(err, "Team or currency not found"), "İşlem başarısız")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "action": req.Action, "amount": amount.InexactFloat64()})
}

// QuickTrade handles POST /api/teams/:id/trade and answers with the
// refreshed portfolio.
func (h *Handler) QuickTrade(c *gin.Context) {
	teamID, err := idParam(c, "id")
	if err != nil {
		respondError(c, err, "")
		return
	}
	var req models.QuickTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, badRequest("Geçersiz işlem verileri"), "")
		return
	}

	ctx := c.Request.Context()
	var res trading.Result
	if req.Type == models.ActionBuy {
		res, err = h.trades.BuyStock(ctx, teamID, req.CompanyID, req.Shares)
	} else {
		res, err = h.trades.SellStock(ctx, teamID, req.CompanyID, req.Shares)
	}
	if err != nil {
		err = tradeError(err, "Yetersiz nakit bakiye", "Yetersiz hisse senedi")
		respondError(c, orNotFound(err, "Takım veya şirket bulunamadı"), "İşlem gerçekleştirilemedi")
		return
	}

	portfolio, err := h.valuer.Portfolio(ctx, teamID)
	if err != nil {
		respondError(c, err, "İşlem gerçekleştirilemedi")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"portfolio": portfolio,
		"transaction": models.TransactionSummary{
			Type:        req.Type,
			CompanyName: res.Company.Name,
			Shares:      res.Shares,
			Price:       res.Price.StringFixed(2),
			Total:       res.Total.StringFixed(2),
		},
	})
}
