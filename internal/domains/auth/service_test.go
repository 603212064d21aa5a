package auth

import (
	"context"
	"testing"
	"time"

	"cardvault-backend/internal/domains/auth/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakePrincipalRepository struct {
	byUsername map[string]*model.Principal
	byID       map[int64]*model.Principal
}

func (r *fakePrincipalRepository) FindByUsername(ctx context.Context, username string) (*model.Principal, error) {
	p, ok := r.byUsername[username]
	if !ok {
		return nil, ErrPrincipalNotFound
	}
	return p, nil
}

func (r *fakePrincipalRepository) List(ctx context.Context) ([]*model.Principal, error) {
	var out []*model.Principal
	for _, p := range r.byID {
		out = append(out, p)
	}
	return out, nil
}

type fakeRefreshTokenRepository struct {
	byHash map[string]*model.RefreshToken
}

func newFakeRefreshTokenRepository() *fakeRefreshTokenRepository {
	return &fakeRefreshTokenRepository{byHash: make(map[string]*model.RefreshToken)}
}

func (r *fakeRefreshTokenRepository) Create(ctx context.Context, t *model.RefreshToken) error {
	r.byHash[t.TokenHash] = t
	return nil
}

func (r *fakeRefreshTokenRepository) FindByHash(ctx context.Context, hash string) (*model.RefreshToken, error) {
	t, ok := r.byHash[hash]
	if !ok {
		return nil, ErrRefreshTokenNotFound
	}
	return t, nil
}

func (r *fakeRefreshTokenRepository) Revoke(ctx context.Context, hash string) error {
	t, ok := r.byHash[hash]
	if !ok {
		return nil
	}
	t.Revoked = true
	return nil
}

func (r *fakeRefreshTokenRepository) RevokeAllForPrincipal(ctx context.Context, principalID int64) error {
	for _, t := range r.byHash {
		if t.PrincipalID == principalID {
			t.Revoked = true
		}
	}
	return nil
}

func (r *fakeRefreshTokenRepository) DeleteExpiredOrRevoked(ctx context.Context) (int64, error) {
	var n int64
	now := time.Now()
	for h, t := range r.byHash {
		if t.Revoked || !now.Before(t.ExpiresAt) {
			delete(r.byHash, h)
			n++
		}
	}
	return n, nil
}

func (r *fakeRefreshTokenRepository) Touch(ctx context.Context, hash string) error {
	if t, ok := r.byHash[hash]; ok {
		now := time.Now()
		t.LastUsedAt = &now
	}
	return nil
}

type fakeIssuer struct{}

func (fakeIssuer) GenerateAccessToken(username string, roles []string) (string, error) {
	return "access-for-" + username, nil
}

func newTestServiceWithPrincipal(t *testing.T, username, password string) (*Service, *fakePrincipalRepository, *fakeRefreshTokenRepository) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	principal := &model.Principal{ID: 1, Username: username, PasswordHash: string(hash), Role: model.RoleUser, Enabled: true}
	principals := &fakePrincipalRepository{
		byUsername: map[string]*model.Principal{username: principal},
		byID:       map[int64]*model.Principal{1: principal},
	}
	tokens := newFakeRefreshTokenRepository()
	svc := NewService(principals, tokens, fakeIssuer{}, time.Minute, time.Hour)
	return svc, principals, tokens
}

func TestLoginSucceedsWithCorrectCredentials(t *testing.T) {
	svc, _, tokens := newTestServiceWithPrincipal(t, "duelist", "s3cret")

	session, err := svc.Login(context.Background(), "duelist", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "access-for-duelist", session.AccessToken)
	assert.NotEmpty(t, session.RefreshToken)
	assert.Len(t, tokens.byHash, 1)
}

func TestLoginRejectsWrongPasswordWithoutRevealingWhich(t *testing.T) {
	svc, _, _ := newTestServiceWithPrincipal(t, "duelist", "s3cret")

	_, err1 := svc.Login(context.Background(), "duelist", "wrong")
	_, err2 := svc.Login(context.Background(), "nosuchuser", "wrong")
	require.Error(t, err1)
	require.Error(t, err2)
	assert.Equal(t, err1.Error(), err2.Error())
}

func TestRefreshRotatesTokenAndRevokesThePrevious(t *testing.T) {
	svc, _, tokens := newTestServiceWithPrincipal(t, "duelist", "s3cret")
	session, err := svc.Login(context.Background(), "duelist", "s3cret")
	require.NoError(t, err)

	oldHash := hashToken(session.RefreshToken)
	next, err := svc.Refresh(context.Background(), session.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, session.RefreshToken, next.RefreshToken)
	assert.True(t, tokens.byHash[oldHash].Revoked)

	_, err = svc.Refresh(context.Background(), session.RefreshToken)
	assert.Error(t, err, "a revoked refresh token must not be usable again")
}

func TestLogoutIsIdempotent(t *testing.T) {
	svc, _, _ := newTestServiceWithPrincipal(t, "duelist", "s3cret")
	session, err := svc.Login(context.Background(), "duelist", "s3cret")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), session.RefreshToken))
	require.NoError(t, svc.Logout(context.Background(), session.RefreshToken))

	_, err = svc.Refresh(context.Background(), session.RefreshToken)
	assert.Error(t, err)
}

func TestCleanupExpiredTokensRemovesRevokedAndExpired(t *testing.T) {
	svc, _, tokens := newTestServiceWithPrincipal(t, "duelist", "s3cret")
	now := time.Now()
	tokens.byHash["revoked"] = &model.RefreshToken{TokenHash: "revoked", PrincipalID: 1, Revoked: true, ExpiresAt: now.Add(time.Hour)}
	tokens.byHash["expired"] = &model.RefreshToken{TokenHash: "expired", PrincipalID: 1, ExpiresAt: now.Add(-time.Minute)}
	tokens.byHash["active"] = &model.RefreshToken{TokenHash: "active", PrincipalID: 1, ExpiresAt: now.Add(time.Hour)}

	n, err := svc.CleanupExpiredTokens(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Len(t, tokens.byHash, 1)
	_, stillThere := tokens.byHash["active"]
	assert.True(t, stillThere)
}
