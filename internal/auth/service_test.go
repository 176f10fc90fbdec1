// AngelaMos | 2026
// service_test.go

package auth

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/useSafe/File-Allocation-System-2.0/internal/core"
)

type memSessions struct {
	mu     sync.Mutex
	tokens map[string]*RefreshToken
}

func newMemSessions() *memSessions {
	return &memSessions{tokens: map[string]*RefreshToken{}}
}

func (m *memSessions) Create(_ context.Context, t *RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.CreatedAt = time.Now()
	cp := *t
	m.tokens[t.ID] = &cp
	return nil
}

func (m *memSessions) FindByHash(_ context.Context, hash string) (*RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens {
		if t.TokenHash == hash {
			cp := *t
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("find session: %w", core.ErrNotFound)
}

func (m *memSessions) FindByID(_ context.Context, id string) (*RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[id]
	if !ok {
		return nil, fmt.Errorf("find session: %w", core.ErrNotFound)
	}
	cp := *t
	return &cp, nil
}

func (m *memSessions) MarkAsUsed(_ context.Context, id, replacedBy string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[id]
	if !ok || t.IsUsed {
		return fmt.Errorf("rotate session: %w", core.ErrNotFound)
	}
	now := time.Now()
	t.IsUsed, t.UsedAt, t.ReplacedByID = true, &now, &replacedBy
	return nil
}

func (m *memSessions) RevokeByID(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[id]
	if !ok || t.RevokedAt != nil {
		return fmt.Errorf("revoke session: %w", core.ErrNotFound)
	}
	now := time.Now()
	t.RevokedAt = &now
	return nil
}

func (m *memSessions) RevokeByFamilyID(_ context.Context, family string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for _, t := range m.tokens {
		if t.FamilyID == family && t.RevokedAt == nil {
			t.RevokedAt = &now
		}
	}
	return nil
}

func (m *memSessions) RevokeAllForUser(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	var n int64
	for _, t := range m.tokens {
		if t.UserID == userID && t.IsValid() {
			t.RevokedAt = &now
			n++
		}
	}
	return n, nil
}

func (m *memSessions) ListActiveByUser(_ context.Context, userID string) ([]RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []RefreshToken{}
	for _, t := range m.tokens {
		if t.UserID == userID && t.IsValid() {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *memSessions) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, t := range m.tokens {
		if t.ExpiresAt.Before(cutoff) {
			delete(m.tokens, id)
			n++
		}
	}
	return n, nil
}

func (m *memSessions) familyRevoked(family string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens {
		if t.FamilyID == family && t.RevokedAt == nil {
			return false
		}
	}
	return true
}

type fakeUsers struct {
	mu       sync.Mutex
	byID     map[string]*UserInfo
	versions map[string]int
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) IncrementTokenVersion(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return fmt.Errorf("increment token version: %w", core.ErrNotFound)
	}
	u.TokenVersion++
	return nil
}

func (f *fakeUsers) UpdatePassword(context.Context, string, string) error { return nil }

func (f *fakeUsers) ValidatePassword(string) error { return nil }

func (f *fakeUsers) setStatus(id, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[id].Status = status
}

const (
	clerkID  = "0b6c1f4e-8a55-4c1f-9c3e-2f1d7a9e4b10"
	password = "Abc12345!"
)

func newTestAuth(t *testing.T, status string) (*Service, *memSessions, *fakeUsers) {
	t.Helper()

	hash, err := core.HashPassword(password)
	require.NoError(t, err)

	users := &fakeUsers{byID: map[string]*UserInfo{
		clerkID: {
			ID:           clerkID,
			Email:        "clerk@records.local",
			Name:         "Clerk",
			PasswordHash: hash,
			Role:         "user",
			Status:       status,
		},
	}}
	sessions := newMemSessions()

	return NewService(sessions, newManager(t, jwtConfig()), users, nil), sessions, users
}

func login(svc *Service, pw string) (*AuthResponse, error) {
	return svc.Login(context.Background(),
		LoginRequest{Email: "clerk@records.local", Password: pw}, "test-agent", "10.0.0.1")
}

func TestLogin(t *testing.T) {
	svc, sessions, _ := newTestAuth(t, "active")

	resp, err := login(svc, password)
	require.NoError(t, err)
	assert.Equal(t, clerkID, resp.User.ID)
	assert.NotEmpty(t, resp.Tokens.AccessToken)
	assert.Len(t, sessions.tokens, 1)

	_, err = login(svc, "Wrong1234!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(),
		LoginRequest{Email: "ghost@records.local", Password: password}, "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Len(t, sessions.tokens, 1)
}

func TestLogin_InactiveAccountRejected(t *testing.T) {
	svc, sessions, _ := newTestAuth(t, "inactive")

	_, err := login(svc, password)

	assert.ErrorIs(t, err, ErrAccountInactive)
	assert.Empty(t, sessions.tokens)
}

func TestRefresh_RotatesSession(t *testing.T) {
	svc, sessions, _ := newTestAuth(t, "active")

	first, err := login(svc, password)
	require.NoError(t, err)

	second, err := svc.Refresh(context.Background(), first.Tokens.RefreshToken, "", "")
	require.NoError(t, err)
	assert.NotEqual(t, first.Tokens.RefreshToken, second.Tokens.RefreshToken)

	active, err := sessions.ListActiveByUser(context.Background(), clerkID)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	_, err = svc.Refresh(context.Background(), first.Tokens.RefreshToken, "", "")
	assert.ErrorIs(t, err, ErrTokenReuse)

	active, err = sessions.ListActiveByUser(context.Background(), clerkID)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestRefresh_DeactivatedUserLosesSession(t *testing.T) {
	svc, sessions, users := newTestAuth(t, "active")

	resp, err := login(svc, password)
	require.NoError(t, err)

	users.setStatus(clerkID, "inactive")

	_, err = svc.Refresh(context.Background(), resp.Tokens.RefreshToken, "", "")
	assert.ErrorIs(t, err, core.ErrTokenRevoked)

	stored, err := sessions.FindByHash(context.Background(), core.HashToken(resp.Tokens.RefreshToken))
	require.NoError(t, err)
	assert.True(t, sessions.familyRevoked(stored.FamilyID))
}

func TestRefresh_UnknownToken(t *testing.T) {
	svc, _, _ := newTestAuth(t, "active")

	_, err := svc.Refresh(context.Background(), "never-issued", "", "")
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestRevokeUserSessions(t *testing.T) {
	svc, _, users := newTestAuth(t, "active")

	for range 2 {
		_, err := login(svc, password)
		require.NoError(t, err)
	}

	n, err := svc.RevokeUserSessions(context.Background(), clerkID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.Equal(t, 1, users.byID[clerkID].TokenVersion)

	sessions, err := svc.GetActiveSessions(context.Background(), clerkID)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	_, err = svc.RevokeUserSessions(context.Background(), "00000000-0000-4000-8000-000000000000")
	assert.ErrorIs(t, err, core.ErrNotFound)
}
