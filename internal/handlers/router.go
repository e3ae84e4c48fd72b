package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/atharvakonge/cash-or-crash/internal/uploads"
)

// RouterOptions configure the HTTP surface around the handlers.
type RouterOptions struct {
	Production     bool
	AllowedOrigins []string
	UploadDir      string
	// PublicDir holds the built SPA; empty disables static serving.
	PublicDir string
	// AuthLimiter throttles /api/auth when set.
	AuthLimiter *RateLimiter
}

// NewRouter wires every route of the game.
func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(CORS(opts.Production, opts.AllowedOrigins))
	router.Use(h.LoadSession())
	router.Use(RequestLogger())

	admin := RequireAdmin()
	team := RequireTeamAccess("id")

	api := router.Group("/api")
	{
		authGroup := api.Group("/auth")
		if opts.AuthLimiter != nil {
			authGroup.Use(opts.AuthLimiter.Middleware)
		}
		authGroup.POST("/team", h.TeamLogin)
		authGroup.POST("/admin", h.AdminLogin)
		authGroup.POST("/logout", h.Logout)
		authGroup.GET("/me", h.Me)

		// Market
		api.GET("/companies", h.ListCompanies)
		api.GET("/companies/:id", h.GetCompany)
		api.POST("/companies", admin, h.CreateCompany)
		api.PUT("/companies/:id", admin, h.UpdateCompany)
		api.PATCH("/companies/:id", admin, h.PatchCompanyPrice)
		api.PUT("/companies/:id/logo", admin, h.SetCompanyLogo)
		api.DELETE("/companies/:id", admin, h.DeleteCompany)

		api.GET("/currencies", h.ListCurrencies)
		api.GET("/currencies/:id", h.GetCurrency)
		api.POST("/currencies", admin, h.CreateCurrency)
		api.PUT("/currencies/:id", admin, h.UpdateCurrency)
		api.PATCH("/currencies/:id", admin, h.PatchCurrencyRate)
		api.DELETE("/currencies/:id", admin, h.DeleteCurrency)

		// Teams and trading
		api.GET("/teams", h.ListTeams)
		api.POST("/teams", admin, h.CreateTeam)
		api.GET("/teams/:id", h.GetTeam)
		api.PUT("/teams/:id", team, h.UpdateTeam)
		api.PATCH("/teams/:id", admin, h.PatchTeam)
		api.DELETE("/teams/:id", admin, h.DeleteTeam)
		api.GET("/teams/:id/portfolio", team, h.GetPortfolio)
		api.POST("/teams/:id/stocks/trade", team, h.TradeStock)
		api.POST("/teams/:id/currencies/trade", team, h.TradeCurrency)
		api.POST("/teams/:id/trade", team, h.QuickTrade)

		// Ledger corrections and startups
		api.POST("/team-stocks", admin, h.CreateTeamStock)
		api.PUT("/team-stocks/:id", admin, h.UpdateTeamStock)
		api.DELETE("/team-stocks/:id", admin, h.DeleteTeamStock)
		api.POST("/team-currencies", admin, h.CreateTeamCurrency)
		api.PUT("/team-currencies/:id", admin, h.UpdateTeamCurrency)
		api.DELETE("/team-currencies/:id", admin, h.DeleteTeamCurrency)
		api.POST("/team-startups", admin, h.CreateStartup)
		api.PUT("/team-startups/:id", admin, h.UpdateStartup)
		api.DELETE("/team-startups/:id", admin, h.SellStartup)

		adminGroup := api.Group("/admin", admin)
		adminGroup.POST("/assign-stock", h.AssignStock)
		adminGroup.POST("/unassign-stock", h.UnassignStock)
		adminGroup.POST("/assign-currency", h.AssignCurrency)
		adminGroup.POST("/unassign-currency", h.UnassignCurrency)
		adminGroup.POST("/adjust-cash", h.AdjustCash)
		adminGroup.POST("/distribute-dividend/:companyId", h.DistributeDividend)
		adminGroup.PUT("/update-team-password", h.UpdateTeamPassword)
		adminGroup.PUT("/update-admin-password", h.UpdateAdminPassword)
		adminGroup.PUT("/update-team-name", h.UpdateTeamName)
		adminGroup.GET("/export/portfolios", h.ExportPortfolios)
	}

	// WebSocket endpoint
	router.GET("/ws/market", h.MarketFeed)

	// Health check
	router.GET("/health", h.Health)

	if opts.UploadDir != "" {
		router.Static(uploads.URLPrefix, opts.UploadDir)
	}

	// Serve frontend
	router.NoRoute(spa(opts.PublicDir))

	return router
}

// spa serves files from dir and falls back to index.html so client-side
// routes survive a reload. Unknown /api paths stay JSON 404s.
func spa(dir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if dir == "" || strings.HasPrefix(path, "/api/") || c.Request.Method != http.MethodGet {
			c.JSON(http.StatusNotFound, gin.H{"message": "Not found"})
			return
		}
		file := filepath.Join(dir, filepath.Clean("/"+path))
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			c.File(file)
			return
		}
		c.File(filepath.Join(dir, "index.html"))
	}
}
