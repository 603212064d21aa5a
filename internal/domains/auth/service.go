package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"cardvault-backend/internal/domains/auth/model"
	"cardvault-backend/internal/shared/apperr"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// TokenIssuer mints and verifies the signed access token. Satisfied
// by pkg/jwt.Manager; kept as an interface so the service doesn't
// depend on the RSA key material directly.
type TokenIssuer interface {
	GenerateAccessToken(username string, roles []string) (string, error)
}

// Session is what a successful login or refresh hands back to the
// caller: a fresh access token plus the opaque refresh token bearer
// value the client must present to renew it.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Principal    *model.Principal
}

type Service struct {
	principals    PrincipalRepository
	refreshTokens RefreshTokenRepository
	issuer        TokenIssuer
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewService(principals PrincipalRepository, refreshTokens RefreshTokenRepository, issuer TokenIssuer, accessTTL, refreshTTL time.Duration) *Service {
	return &Service{
		principals:    principals,
		refreshTokens: refreshTokens,
		issuer:        issuer,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// Login verifies the supplied credentials and issues a new session.
// Invalid username and invalid password map to the same error so a
// caller can't use the response to enumerate valid usernames.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	principal, err := s.principals.FindByUsername(ctx, username)
	if err != nil {
		if err == ErrPrincipalNotFound {
			return nil, apperr.Authentication("invalid username or password")
		}
		return nil, apperr.Internal("look up principal", err)
	}

	if !principal.Enabled {
		return nil, apperr.Authentication("account disabled")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(principal.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.Authentication("invalid username or password")
	}

	return s.issueSession(ctx, principal)
}

// Refresh rotates a valid refresh token for a new session: the
// presented token is revoked and a new one issued, so a leaked token
// can only be replayed once before detection.
func (s *Service) Refresh(ctx context.Context, rawToken string) (*Session, error) {
	hash := hashToken(rawToken)

	stored, err := s.refreshTokens.FindByHash(ctx, hash)
	if err != nil {
		if err == ErrRefreshTokenNotFound {
			return nil, apperr.Authentication("invalid refresh token")
		}
		return nil, apperr.Internal("look up refresh token", err)
	}

	if !stored.IsValid(time.Now()) {
		return nil, apperr.Authentication("refresh token expired or revoked")
	}

	principals, err := s.principals.List(ctx)
	if err != nil {
		return nil, apperr.Internal("list principals", err)
	}
	var principal *model.Principal
	for _, p := range principals {
		if p.ID == stored.PrincipalID {
			principal = p
			break
		}
	}
	if principal == nil || !principal.Enabled {
		return nil, apperr.Authentication("account no longer available")
	}

	if err := s.refreshTokens.Revoke(ctx, hash); err != nil {
		return nil, apperr.Internal("revoke used refresh token", err)
	}
	if err := s.refreshTokens.Touch(ctx, hash); err != nil {
		return nil, apperr.Internal("touch refresh token", err)
	}

	return s.issueSession(ctx, principal)
}

// Logout revokes a single refresh token. Revoking a token that is
// already gone or expired is not an error: the caller's intent
// (this session should no longer be usable) is already satisfied.
func (s *Service) Logout(ctx context.Context, rawToken string) error {
	hash := hashToken(rawToken)
	if err := s.refreshTokens.Revoke(ctx, hash); err != nil {
		return apperr.Internal("revoke refresh token", err)
	}
	return nil
}

// ListPrincipals returns every seeded identity, sanitized for the
// admin user-listing endpoint.
func (s *Service) ListPrincipals(ctx context.Context) ([]*model.Principal, error) {
	principals, err := s.principals.List(ctx)
	if err != nil {
		return nil, apperr.Internal("list principals", err)
	}
	return principals, nil
}

// CleanupExpiredTokens deletes refresh tokens that are revoked or
// past expiry, run periodically by the worker binary.
func (s *Service) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	n, err := s.refreshTokens.DeleteExpiredOrRevoked(ctx)
	if err != nil {
		return 0, apperr.Internal("cleanup expired refresh tokens", err)
	}
	return n, nil
}

func (s *Service) issueSession(ctx context.Context, principal *model.Principal) (*Session, error) {
	accessToken, err := s.issuer.GenerateAccessToken(principal.Username, []string{string(principal.Role)})
	if err != nil {
		return nil, apperr.Internal("generate access token", err)
	}

	rawRefresh := uuid.New().String()
	now := time.Now()
	refreshRecord := &model.RefreshToken{
		TokenHash:   hashToken(rawRefresh),
		PrincipalID: principal.ID,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.refreshTTL),
	}
	if err := s.refreshTokens.Create(ctx, refreshRecord); err != nil {
		return nil, apperr.Internal("persist refresh token", err)
	}

	return &Session{
		AccessToken:  accessToken,
		RefreshToken: rawRefresh,
		ExpiresAt:    now.Add(s.accessTTL),
		Principal:    principal,
	}, nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
