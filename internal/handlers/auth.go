package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atharvakonge/cash-or-crash/internal/session"
)

type teamLoginRequest struct {
	AccessCode string `json:"accessCode"`
}

// adminLoginRequest accepts "code" as well, which older SPA builds send.
type adminLoginRequest struct {
	Password string `json:"password"`
	Code     string `json:"code"`
}

// TeamLogin handles POST /api/auth/team
func (h *Handler) TeamLogin(c *gin.Context) {
	var req teamLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, badRequest("Invalid request"), "")
		return
	}

	team, err := h.auth.LoginTeam(c.Request.Context(), req.AccessCode)
	if err != nil {
		respondError(c, err, "Kimlik doğrulama hatası")
		return
	}
	if err := h.sessions.Write(c, session.Session{TeamID: team.ID}); err != nil {
		respondError(c, err, "Kimlik doğrulama hatası")
		return
	}
	c.JSON(http.StatusOK, gin.H{"team": team})
}

// AdminLogin handles POST /api/auth/admin
func (h *Handler) AdminLogin(c *gin.Context) {
	var req adminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, badRequest("Invalid request"), "")
		return
	}
	password := req.Password
	if password == "" {
		password = req.Code
	}

	if err := h.auth.CheckAdmin(c.Request.Context(), password); err != nil {
		respondError(c, err, "Kimlik doğrulama hatası")
		return
	}
	// Admin login keeps a team already signed in on this browser.
	s := currentSession(c)
	s.IsAdmin = true
	if err := h.sessions.Write(c, s); err != nil {
		respondError(c, err, "Kimlik doğrulama hatası")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Logout handles POST /api/auth/logout
func (h *Handler) Logout(c *gin.Context) {
	h.sessions.Clear(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Me handles GET /api/auth/me
func (h *Handler) Me(c *gin.Context) {
	s := currentSession(c)
	resp := gin.H{"isAdmin": s.IsAdmin}
	if s.HasTeam() {
		resp["teamId"] = s.TeamID
	}
	c.JSON(http.StatusOK, resp)
}
