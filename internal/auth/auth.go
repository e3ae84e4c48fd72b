// Package auth checks team access codes and the admin password, and owns
// the credential updates an admin can make.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/atharvakonge/cash-or-crash/internal/logger"
	"github.com/atharvakonge/cash-or-crash/internal/models"
	"github.com/atharvakonge/cash-or-crash/internal/storage"
)

const (
	MinAccessCodeLength = 4
	MinPasswordLength   = 6
	MinTeamNameLength   = 2

	// MaxPasswordBytes is the longest input bcrypt accepts.
	MaxPasswordBytes = 72
)

var (
	ErrInvalidAccessCode = errors.New("Geçersiz erişim kodu")
	ErrInvalidPassword   = errors.New("Geçersiz admin şifresi")
	ErrAccessCodeTaken   = errors.New("Bu erişim kodu zaten kullanılıyor")
	ErrAccessCodeShort   = fmt.Errorf("Access code must be at least %d characters long", MinAccessCodeLength)
	ErrPasswordShort     = fmt.Errorf("Password must be at least %d characters long", MinPasswordLength)
	ErrPasswordLong      = fmt.Errorf("Password must be at most %d bytes long", MaxPasswordBytes)
	ErrTeamNameShort     = fmt.Errorf("Team name must be at least %d characters long", MinTeamNameLength)
	ErrTeamNameTaken     = errors.New("Team name already exists")
)

// Service authenticates teams and the admin.
type Service struct {
	store storage.Storage

	mu            sync.RWMutex
	adminPassword string // used when no password is persisted
}

func NewService(store storage.Storage, defaultAdminPassword string) *Service {
	return &Service{store: store, adminPassword: defaultAdminPassword}
}

// LoginTeam returns the team owning accessCode.
func (s *Service) LoginTeam(ctx context.Context, accessCode string) (models.Team, error) {
	if accessCode == "" {
		return models.Team{}, ErrInvalidAccessCode
	}
	team, err := s.store.FindTeamByAccessCode(ctx, accessCode)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Team{}, ErrInvalidAccessCode
	}
	if err != nil {
		return models.Team{}, fmt.Errorf("find team: %w", err)
	}
	return team, nil
}

func isBcryptHash(v string) bool {
	return strings.HasPrefix(v, "$2a$") || strings.HasPrefix(v, "$2b$") || strings.HasPrefix(v, "$2y$")
}

func equalStrings(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// CheckAdmin returns ErrInvalidPassword unless password is the admin's.
// The persisted setting wins over the configured default.
func (s *Service) CheckAdmin(ctx context.Context, password string) error {
	if password == "" {
		return ErrInvalidPassword
	}

	stored, ok, err := s.store.GetSetting(ctx, models.SettingAdminPassword)
	if err != nil {
		logger.L().Warn("admin password lookup failed, using in-memory password", zap.Error(err))
		ok = false
	}

	if ok {
		if isBcryptHash(stored) {
			if bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) != nil {
				return ErrInvalidPassword
			}
			return nil
		}
		// Plaintext value from an older deployment.
		if !equalStrings(stored, password) {
			return ErrInvalidPassword
		}
		return nil
	}

	s.mu.RLock()
	current := s.adminPassword
	s.mu.RUnlock()
	if !equalStrings(current, password) {
		return ErrInvalidPassword
	}
	return nil
}

// UpdateAdminPassword replaces the admin password. A failure to persist it
// is logged and the new password still applies to this process.
func (s *Service) UpdateAdminPassword(ctx context.Context, password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ErrPasswordShort
	}
	if len(password) > MaxPasswordBytes {
		return ErrPasswordLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	s.adminPassword = password
	s.mu.Unlock()
	if err := s.store.SetSetting(ctx, models.SettingAdminPassword, string(hash)); err != nil {
		logger.L().Warn("admin password saved to memory only; it will be lost on restart", zap.Error(err))
	}
	return nil
}

// UpdateTeamAccessCode sets a new login code for teamID.
func (s *Service) UpdateTeamAccessCode(ctx context.Context, teamID int64, code string) (models.Team, error) {
	if utf8.RuneCountInString(code) < MinAccessCodeLength {
		return models.Team{}, ErrAccessCodeShort
	}

	owner, err := s.store.FindTeamByAccessCode(ctx, code)
	switch {
	case err == nil && owner.ID != teamID:
		return models.Team{}, ErrAccessCodeTaken
	case err != nil && !errors.Is(err, storage.ErrNotFound):
		return models.Team{}, fmt.Errorf("find team: %w", err)
	}

	team, err := s.store.UpdateTeam(ctx, teamID, models.TeamPatch{AccessCode: &code})
	if errors.Is(err, storage.ErrConflict) {
		return models.Team{}, ErrAccessCodeTaken
	}
	return team, err
}

// UpdateTeamName renames teamID. The name is trimmed first.
func (s *Service) UpdateTeamName(ctx context.Context, teamID int64, name string) (models.Team, error) {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) < MinTeamNameLength {
		return models.Team{}, ErrTeamNameShort
	}

	team, err := s.store.UpdateTeam(ctx, teamID, models.TeamPatch{Name: &name})
	if errors.Is(err, storage.ErrConflict) {
		return models.Team{}, ErrTeamNameTaken
	}
	return team, err
}
