package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"lumiere/internal/event"
	"lumiere/internal/model"
)

const (
	DefaultTokenTTL   = time.Hour
	AccessTokenHeader = "X-Access-Token"
)

var bearerPattern = regexp.MustCompile(`(?i)^Bearer\s+(.+)$`)

type UserStore interface {
	FindByID(ctx context.Context, id string) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, u model.User) error
}

// TokenStore persists token hashes, at most one per user.
type TokenStore interface {
	Upsert(ctx context.Context, userID string, tokenHash string, expiresAt time.Time) error
	Exists(ctx context.Context, tokenHash string) (bool, error)
	Delete(ctx context.Context, tokenHash string) error
}

type AuthConfig struct {
	TokenTTL   time.Duration
	BcryptCost int
	Debug      bool
	Now        func() time.Time
}

type AuthService struct {
	users      UserStore
	tokens     TokenStore
	codec      TokenCodec
	bus        event.Bus
	ttl        time.Duration
	bcryptCost int
	debug      bool
	now        func() time.Time
	dummyHash  []byte
}

func NewAuthService(users UserStore, tokens TokenStore, codec TokenCodec, bus event.Bus, cfg AuthConfig) (*AuthService, error) {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = DefaultTokenTTL
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if codec == nil {
		codec = NewOpaqueCodec()
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("prepare dummy password hash: %w", err)
	}

	return &AuthService{
		users:      users,
		tokens:     tokens,
		codec:      codec,
		bus:        bus,
		ttl:        cfg.TokenTTL,
		bcryptCost: cfg.BcryptCost,
		debug:      cfg.Debug,
		now:        cfg.Now,
		dummyHash:  dummy,
	}, nil
}

// IssueToken mints a token for userID and makes it the user's only stored
// session. A store failure is logged in debug mode and otherwise ignored.
func (s *AuthService) IssueToken(ctx context.Context, userID string, extra map[string]any) (string, error) {
	now := s.now()
	claims := model.Claims{
		UserID:    userID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
		Extra:     extra,
	}

	token, err := s.codec.Encode(claims)
	if err != nil {
		return "", err
	}

	if err := s.tokens.Upsert(ctx, userID, HashToken(token), claims.ExpiresAt.Truncate(time.Second)); err != nil {
		if s.debug {
			slog.Debug("token storage failed", "user_id", userID, "error", err)
		}
	} else {
		s.publish(event.TypeSessionIssued, userID, nil)
	}

	return token, nil
}

// ValidateToken returns the claims of a live token. Every failure collapses
// to model.ErrInvalidToken.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*model.Claims, error) {
	if token == "" {
		return nil, model.ErrInvalidToken
	}

	claims, err := s.codec.Decode(token)
	if err != nil {
		return nil, model.ErrInvalidToken
	}

	if !claims.ExpiresAt.After(s.now()) {
		if err := s.tokens.Delete(ctx, HashToken(token)); err != nil && s.debug {
			slog.Debug("expired token eviction failed", "user_id", claims.UserID, "error", err)
		}
		return nil, model.ErrInvalidToken
	}

	ok, err := s.tokens.Exists(ctx, HashToken(token))
	if err != nil {
		if s.debug {
			slog.Debug("token lookup failed", "user_id", claims.UserID, "error", err)
		}
		return nil, model.ErrInvalidToken
	}
	if !ok {
		return nil, model.ErrInvalidToken
	}

	return claims, nil
}

// RevokeToken deletes the stored hash of token. Revoking an unknown token
// succeeds.
func (s *AuthService) RevokeToken(ctx context.Context, token string) error {
	if err := s.tokens.Delete(ctx, HashToken(token)); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// Logout revokes token and records the session end for userID.
func (s *AuthService) Logout(ctx context.Context, userID string, token string) error {
	if err := s.RevokeToken(ctx, token); err != nil {
		return err
	}
	s.publish(event.TypeSessionRevoked, userID, nil)
	return nil
}

func (s *AuthService) AuthenticateRequest(ctx context.Context, header http.Header) (*model.Claims, error) {
	token := ExtractToken(header)
	if token == "" {
		return nil, model.ErrUnauthenticated
	}
	return s.ValidateToken(ctx, token)
}

func (s *AuthService) Register(ctx context.Context, email string, password string) (model.AuthResult, error) {
	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return model.AuthResult{}, err
	}
	if exists {
		return model.AuthResult{}, model.ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return model.AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	user := model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return model.AuthResult{}, err
	}

	s.publish(event.TypeUserRegistered, user.ID, map[string]any{"email": email})

	return s.authResult(ctx, user)
}

func (s *AuthService) Login(ctx context.Context, email string, password string) (model.AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, model.ErrUserNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return model.AuthResult{}, model.ErrInvalidCredentials
	}
	if err != nil {
		return model.AuthResult{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return model.AuthResult{}, model.ErrInvalidCredentials
	}

	return s.authResult(ctx, user)
}

// CurrentUser describes the caller from their token claims.
func (s *AuthService) CurrentUser(claims *model.Claims) model.CurrentUser {
	current := model.CurrentUser{UserID: claims.UserID}
	if email := claims.Email(); email != "" {
		current.Email = &email
	}
	return current
}

func (s *AuthService) authResult(ctx context.Context, user model.User) (model.AuthResult, error) {
	token, err := s.IssueToken(ctx, user.ID, map[string]any{"email": user.Email})
	if err != nil {
		return model.AuthResult{}, err
	}

	return model.AuthResult{
		Token:     token,
		UserID:    user.ID,
		ExpiresIn: int64(s.ttl / time.Second),
	}, nil
}

func (s *AuthService) publish(typ event.Type, actorID string, payload map[string]any) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(event.Event{Type: typ, ActorID: actorID, Resource: "user:" + actorID, Payload: payload})
}

// ExtractToken reads a bearer token from Authorization, falling back to
// X-Access-Token.
func ExtractToken(header http.Header) string {
	if m := bearerPattern.FindStringSubmatch(strings.TrimSpace(header.Get("Authorization"))); m != nil {
		if token := strings.TrimSpace(m[1]); token != "" {
			return token
		}
	}
	return strings.TrimSpace(header.Get(AccessTokenHeader))
}

// HashToken is the hex SHA-256 of the encoded token, the only form persisted.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
