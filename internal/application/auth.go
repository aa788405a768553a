package application

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/SAMZalaf/bmomtm/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const MinPasswordLength = 6

// AuthService guards the console with one admin password. Sessions are opaque
// tokens; only their SHA-256 hash is stored.
type AuthService struct {
	settings domain.SettingsStore
	sessions domain.SessionStore
	ttl      time.Duration
	log      *zap.Logger
}

func NewAuthService(settings domain.SettingsStore, sessions domain.SessionStore, ttl time.Duration, log *zap.Logger) *AuthService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{settings: settings, sessions: sessions, ttl: ttl, log: log}
}

// Bootstrap stores the initial password hash unless one is already set.
func (a *AuthService) Bootstrap(ctx context.Context, password string) error {
	_, ok, err := a.settings.GetSetting(ctx, domain.ScopeDashboard, PasswordHashSetting)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	if len(password) < MinPasswordLength {
		return fmt.Errorf("bootstrap admin password must be at least %d characters", MinPasswordLength)
	}
	if err := a.storePassword(ctx, password); err != nil {
		return err
	}
	a.log.Info("admin password initialised")
	return nil
}

// Login checks the password and opens a session, returning its token.
func (a *AuthService) Login(ctx context.Context, password string) (string, error) {
	if err := a.checkPassword(ctx, password); err != nil {
		return "", err
	}
	return a.openSession(ctx)
}

func (a *AuthService) Authenticate(ctx context.Context, token string) error {
	ok, err := a.Verify(ctx, token)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrUnauthorized
	}
	return nil
}

func (a *AuthService) Verify(ctx context.Context, token string) (bool, error) {
	if strings.TrimSpace(token) == "" {
		return false, nil
	}
	return a.sessions.Exists(ctx, hashToken(token))
}

func (a *AuthService) Logout(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	return a.sessions.Delete(ctx, hashToken(token))
}

// ChangePassword replaces the password, revokes every session and returns a
// fresh token for the caller.
func (a *AuthService) ChangePassword(ctx context.Context, current, next string) (string, error) {
	if len(next) < MinPasswordLength {
		return "", domain.Invalid("newPassword", fmt.Sprintf("must be at least %d characters", MinPasswordLength))
	}
	if err := a.checkPassword(ctx, current); err != nil {
		return "", err
	}
	if err := a.storePassword(ctx, next); err != nil {
		return "", err
	}
	if err := a.sessions.DeleteAll(ctx); err != nil {
		return "", err
	}
	a.log.Info("admin password changed")
	return a.openSession(ctx)
}

func (a *AuthService) checkPassword(ctx context.Context, password string) error {
	hash, ok, err := a.settings.GetSetting(ctx, domain.ScopeDashboard, PasswordHashSetting)
	if err != nil {
		return err
	}
	if !ok || bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return fmt.Errorf("%w: invalid password", domain.ErrUnauthorized)
	}
	return nil
}

func (a *AuthService) storePassword(ctx context.Context, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return a.settings.PutSettings(ctx, domain.ScopeDashboard, map[string]string{PasswordHashSetting: string(hash)})
}

func (a *AuthService) openSession(ctx context.Context) (string, error) {
	plain, hash, err := newTokenPair()
	if err != nil {
		return "", err
	}
	if err := a.sessions.Save(ctx, hash, a.ttl); err != nil {
		return "", err
	}
	return plain, nil
}

func newTokenPair() (string, string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", err
	}
	plain := base64.RawURLEncoding.EncodeToString(raw)
	return plain, hashToken(plain), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", sum[:])
}
