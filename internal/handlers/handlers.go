// Package handlers exposes the game over HTTP with gin.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/atharvakonge/cash-or-crash/internal/auth"
	"github.com/atharvakonge/cash-or-crash/internal/ledger"
	"github.com/atharvakonge/cash-or-crash/internal/locker"
	"github.com/atharvakonge/cash-or-crash/internal/logger"
	"github.com/atharvakonge/cash-or-crash/internal/market"
	"github.com/atharvakonge/cash-or-crash/internal/session"
	"github.com/atharvakonge/cash-or-crash/internal/storage"
	"github.com/atharvakonge/cash-or-crash/internal/trading"
	"github.com/atharvakonge/cash-or-crash/internal/uploads"
)

// Handler carries the services every route needs.
type Handler struct {
	store    storage.Storage
	trades   *trading.TradeProcessor
	valuer   *ledger.Valuer
	auth     *auth.Service
	sessions *session.Manager
	uploads  *uploads.Store
	hub      *market.Hub
}

// Deps are the collaborators passed to New.
type Deps struct {
	Store    storage.Storage
	Trades   *trading.TradeProcessor
	Auth     *auth.Service
	Sessions *session.Manager
	Uploads  *uploads.Store
	Hub      *market.Hub
}

func New(d Deps) *Handler {
	return &Handler{
		store:    d.Store,
		trades:   d.Trades,
		valuer:   ledger.NewValuer(d.Store),
		auth:     d.Auth,
		sessions: d.Sessions,
		uploads:  d.Uploads,
		hub:      d.Hub,
	}
}

// apiError is an error with a status and a client-facing message.
type apiError struct {
	status  int
	message string
}

func (e *apiError) Error() string { return e.message }

func badRequest(msg string) error   { return &apiError{status: http.StatusBadRequest, message: msg} }
func notFound(msg string) error     { return &apiError{status: http.StatusNotFound, message: msg} }
func unauthorized(msg string) error { return &apiError{status: http.StatusUnauthorized, message: msg} }

// orNotFound turns storage.ErrNotFound into a 404 carrying msg.
func orNotFound(err error, msg string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return notFound(msg)
	}
	return err
}

// tradeError names the shortfall the way the trading desk expects.
func tradeError(err error, noFunds, noHoldings string) error {
	switch {
	case errors.Is(err, trading.ErrInsufficientFunds):
		return badRequest(noFunds)
	case errors.Is(err, trading.ErrInsufficientHoldings):
		return badRequest(noHoldings)
	}
	return err
}

// validationFields renders validator errors as field -> failed tag.
func validationFields(err error) map[string]string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return nil
	}
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[fe.Field()] = fe.Tag()
	}
	return fields
}

// respondError writes err as {"message": ...}. Errors that are not part of
// the API contract are logged and answered with fallback.
func respondError(c *gin.Context, err error, fallback string) {
	var ae *apiError
	if errors.As(err, &ae) {
		c.JSON(ae.status, gin.H{"message": ae.message})
		return
	}
	if fields := validationFields(err); fields != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request", "fields": fields})
		return
	}

	switch {
	case errors.Is(err, auth.ErrInvalidAccessCode), errors.Is(err, auth.ErrInvalidPassword):
		c.JSON(http.StatusUnauthorized, gin.H{"message": err.Error()})
	case errors.Is(err, auth.ErrAccessCodeTaken), errors.Is(err, auth.ErrAccessCodeShort),
		errors.Is(err, auth.ErrPasswordShort), errors.Is(err, auth.ErrPasswordLong),
		errors.Is(err, auth.ErrTeamNameShort), errors.Is(err, auth.ErrTeamNameTaken):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.Is(err, uploads.ErrTooLarge), errors.Is(err, uploads.ErrUnsupported):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.Is(err, trading.ErrInsufficientFunds):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Yetersiz bakiye"})
	case errors.Is(err, trading.ErrInsufficientHoldings):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Yetersiz hisse"})
	case errors.Is(err, trading.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Quantity must be positive"})
	case errors.Is(err, trading.ErrNoDividend):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Company has no dividend"})
	case errors.Is(err, storage.ErrConflict):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Already exists"})
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Not found"})
	case errors.Is(err, trading.ErrStopped), errors.Is(err, locker.ErrNotObtained),
		errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Server busy, try again"})
	default:
		logger.WithRequest(c.Request.Method, c.Request.URL.Path).Error("request failed",
			zap.Error(err), zap.Int64("team_id", currentSession(c).TeamID))
		c.JSON(http.StatusInternalServerError, gin.H{"message": fallback})
	}
}

// idParam parses the named path parameter as a positive id.
func idParam(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		return 0, badRequest("Invalid id")
	}
	return id, nil
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
