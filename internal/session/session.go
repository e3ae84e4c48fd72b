// Package session stores who is logged in inside a signed cookie.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
)

// CookieName is the name of the session cookie.
const CookieName = "cc_session"

var ErrInvalid = errors.New("invalid session")

// Session is the logged-in identity. A zero Session means anonymous.
type Session struct {
	TeamID  int64
	IsAdmin bool
}

// HasTeam reports whether a team is logged in.
func (s Session) HasTeam() bool { return s.TeamID > 0 }

// CanAccessTeam reports whether s may act for teamID.
func (s Session) CanAccessTeam(teamID int64) bool {
	return s.IsAdmin || (s.HasTeam() && s.TeamID == teamID)
}

type claims struct {
	TeamID  int64 `json:"teamId,omitempty"`
	IsAdmin bool  `json:"isAdmin,omitempty"`
	jwt.StandardClaims
}

// Manager signs and verifies session cookies.
type Manager struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

func NewManager(secret string, ttl time.Duration, secure bool) *Manager {
	return &Manager{secret: []byte(secret), ttl: ttl, secure: secure, now: time.Now}
}

// Issue returns a signed token for s.
func (m *Manager) Issue(s Session) (string, error) {
	now := m.now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims{
		TeamID:  s.TeamID,
		IsAdmin: s.IsAdmin,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(m.ttl).Unix(),
			IssuedAt:  now.Unix(),
		},
	})
	return t.SignedString(m.secret)
}

// Parse verifies token and returns its session.
func (m *Manager) Parse(token string) (Session, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Session{}, ErrInvalid
	}
	return Session{TeamID: c.TeamID, IsAdmin: c.IsAdmin}, nil
}

// Read returns the request's session, or a zero Session when the cookie is
// missing, expired or forged.
func (m *Manager) Read(c *gin.Context) Session {
	raw, err := c.Cookie(CookieName)
	if err != nil || raw == "" {
		return Session{}
	}
	s, err := m.Parse(raw)
	if err != nil {
		return Session{}
	}
	return s
}

// Write stores s in the response cookie.
func (m *Manager) Write(c *gin.Context, s Session) error {
	token, err := m.Issue(s)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, token, int(m.ttl.Seconds()), "/", "", m.secure, true)
	return nil
}

// Clear expires the cookie.
func (m *Manager) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, "", -1, "/", "", m.secure, true)
}
