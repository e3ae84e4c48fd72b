package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/atharvakonge/cash-or-crash/internal/models"
	"github.com/atharvakonge/cash-or-crash/internal/storage"
)

type teamInput struct {
	Name       string `binding:"required,min=2"`
	AccessCode string `binding:"required,min=4"`
}

func teamConflict(err error) error {
	if errors.Is(err, storage.ErrConflict) {
		return badRequest("Team name or access code already in use")
	}
	return err
}

// ListTeams handles GET /api/teams. Access codes are only shown to the admin.
func (h *Handler) ListTeams(c *gin.Context) {
	teams, err := h.store.ListTeams(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to get teams")
		return
	}
	if !currentSession(c).IsAdmin {
		for i := range teams {
			teams[i] = teams[i].Redacted()
		}
	}
	c.JSON(http.StatusOK, teams)
}

// GetTeam handles GET /api/teams/:id
func (h *Handler) GetTeam(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err, "")
		return
	}
	team, err := h.store.GetTeam(c.Request.Context(), id)
	if err != nil {
		respondError(c, orNotFound(err, "Team not found"), "Failed to get team")
		return
	}
	if !currentSession(c).IsAdmin {
		team = team.Redacted()
	}
	c.JSON(http.StatusOK, team)
}

// CreateTeam handles POST /api/teams
func (h *Handler) CreateTeam(c *gin.Context) {
	f, err := readFields(c)
	if err != nil {
		respondError(c, err, "")
		return
	}
	in := teamInput{Name: strings.TrimSpace(f["name"]), AccessCode: strings.TrimSpace(f["accessCode"])}
	if err := validate(&in); err != nil {
		respondError(c, err, "")
		return
	}
	cash, err := f.decimal("cashBalance")
	if err != nil || (cash != nil && cash.IsNegative()) {
		respondError(c, badRequest("Invalid team data"), "")
		return
	}

	team := models.Team{Name: in.Name, AccessCode: in.AccessCode, CashBalance: models.DefaultCashBalance}
	if cash != nil {
		team.CashBalance = cash.Round(2)
	}
	if pic := f.nonEmpty("profilePicUrl"); pic != nil {
		team.ProfilePicURL = pic
	}

	team, err = h.store.CreateTeam(c.Request.Context(), team)
	if err != nil {
		respondError(c, teamConflict(err), "Invalid team data")
		return
	}
	c.JSON(http.StatusCreated, team)
}

// UpdateTeam handles PUT /api/teams/:id (multipart with optional
// profilePic). A team may only change its own picture; the admin may also
// rename it, change its code and set its cash.
func (h *Handler) UpdateTeam(c *gin.Context) {
	h.updateTeam(c, "profilePic")
}

// PatchTeam handles PATCH /api/teams/:id
func (h *Handler) PatchTeam(c *gin.Context) {
	h.updateTeam(c, "")
}

func (h *Handler) updateTeam(c *gin.Context, fileField string) {
	ctx := c.Request.Context()
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

	var patch models.TeamPatch
	if pic := f.nonEmpty("profilePicUrl"); pic != nil {
		patch.ProfilePicURL = pic
	}
	if fileField != "" {
		pic, err := h.savedUpload(c, fileField)
		if err != nil {
			respondError(c, err, "Takım güncelleme hatası")
			return
		}
		if pic != nil {
			patch.ProfilePicURL = pic
		}
	}

	isAdmin := currentSession(c).IsAdmin
	cash, err := f.decimal("cashBalance")
	if err != nil || (cash != nil && cash.IsNegative()) {
		respondError(c, badRequest("Invalid cash balance"), "")
		return
	}
	if isAdmin {
		patch.Name = f.nonEmpty("name")
		patch.AccessCode = f.nonEmpty("accessCode")
	} else if cash != nil || f.nonEmpty("name") != nil || f.nonEmpty("accessCode") != nil {
		respondError(c, unauthorized("Admin authentication required"), "")
		return
	}

	var team models.Team
	if cash != nil {
		// Cash edits go through the trade queue so they cannot race a trade.
		patch.CashBalance = cash
		team, err = h.trades.UpdateTeam(ctx, id, patch)
	} else {
		team, err = h.store.UpdateTeam(ctx, id, patch)
	}
	if err != nil {
		respondError(c, orNotFound(teamConflict(err), "Team not found"), "Takım güncelleme hatası")
		return
	}
	if !isAdmin {
		team = team.Redacted()
	}
	c.JSON(http.StatusOK, team)
}

// DeleteTeam handles DELETE /api/teams/:id. The team's ledger rows and
// startup go with it.
func (h *Handler) DeleteTeam(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err, "")
		return
	}
	if err := h.store.DeleteTeam(c.Request.Context(), id); err != nil {
		respondError(c, orNotFound(err, "Team not found"), "Takım silme hatası")
		return
	}
	c.Status(http.StatusNoContent)
}

// GetPortfolio handles GET /api/teams/:id/portfolio
func (h *Handler) GetPortfolio(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err, "")
		return
	}
	portfolio, err := h.valuer.Portfolio(c.Request.Context(), id)
	if err != nil {
		respondError(c, orNotFound(err, "Team not found"), "Failed to get team portfolio")
		return
	}
	c.JSON(http.StatusOK, portfolio)
}
