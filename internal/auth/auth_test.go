package auth

import (
	"huddle-backend/internal/meeting"
	"huddle-backend/internal/models"
	"huddle-backend/internal/repository"
	"testing"

	"github.com/markbates/goth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() (*AuthService, *repository.MemoryStore) {
	store := repository.NewMemoryStore()
	return NewAuthService(store, testAuthConfig()), store
}

func TestAuthService_Register(t *testing.T) {
	tcases := []struct {
		name string
		req  RegisterRequest
		kind meeting.Kind
		err  bool
	}{
		{name: "valid", req: RegisterRequest{Email: "Alice@Example.com", Password: "secret1", Name: "Alice"}},
		{name: "short name", req: RegisterRequest{Email: "a@example.com", Password: "secret1", Name: "A"}, err: true, kind: meeting.KindValidation},
		{name: "bad email", req: RegisterRequest{Email: "not-an-email", Password: "secret1", Name: "Alice"}, err: true, kind: meeting.KindValidation},
		{name: "short password", req: RegisterRequest{Email: "a@example.com", Password: "12345", Name: "Alice"}, err: true, kind: meeting.KindValidation},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			svc, store := newTestService()

			resp, err := svc.Register(tc.req)
			if tc.err {
				require.Error(t, err)
				assert.Equal(t, tc.kind, meeting.KindOf(err))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "alice@example.com", resp.User.Email)
			assert.Equal(t, ProviderLocal, resp.User.Provider)
			assert.NotEqual(t, tc.req.Password, resp.User.Password)
			assert.True(t, resp.User.HasAccess(models.AccessUser))

			stored, _ := store.GetUserByID(resp.User.ID)
			require.NotNil(t, stored)
			assert.Equal(t, resp.Tokens.RefreshToken, stored.RefreshToken)
		})
	}
}

func TestAuthService_RegisterDuplicate(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Register(RegisterRequest{Email: "a@example.com", Password: "secret1", Name: "Alice"})
	require.NoError(t, err)

	_, err = svc.Register(RegisterRequest{Email: "A@example.com", Password: "secret2", Name: "Alice Again"})
	assert.Equal(t, meeting.KindConflict, meeting.KindOf(err))
}

func TestAuthService_Login(t *testing.T) {
	svc, store := newTestService()
	_, err := svc.Register(RegisterRequest{Email: "a@example.com", Password: "secret1", Name: "Alice"})
	require.NoError(t, err)

	resp, err := svc.Login(LoginRequest{Email: "a@example.com", Password: "secret1"})
	require.NoError(t, err)
	claims, err := ValidateToken(resp.Tokens.AccessToken, TokenTypeAccess, testAuthConfig())
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)

	_, err = svc.Login(LoginRequest{Email: "a@example.com", Password: "wrong"})
	assert.Equal(t, meeting.KindUnauthorized, meeting.KindOf(err))

	_, err = svc.Login(LoginRequest{Email: "nobody@example.com", Password: "secret1"})
	assert.Equal(t, meeting.KindUnauthorized, meeting.KindOf(err))

	_, err = svc.Login(LoginRequest{Email: "a@example.com"})
	assert.Equal(t, meeting.KindValidation, meeting.KindOf(err))

	inactive, _ := store.GetUserByEmail("a@example.com")
	inactive.IsActive = false
	store.AddUser(*inactive)
	_, err = svc.Login(LoginRequest{Email: "a@example.com", Password: "secret1"})
	assert.Equal(t, meeting.KindForbidden, meeting.KindOf(err))
}

func TestAuthService_RefreshAndLogout(t *testing.T) {
	svc, _ := newTestService()
	resp, err := svc.Register(RegisterRequest{Email: "a@example.com", Password: "secret1", Name: "Alice"})
	require.NoError(t, err)

	_, err = svc.Refresh(resp.Tokens.AccessToken)
	assert.Equal(t, meeting.KindUnauthorized, meeting.KindOf(err))

	pair, err := svc.Refresh(resp.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, resp.Tokens.RefreshToken, pair.RefreshToken)

	// rotated tokens cannot be replayed
	_, err = svc.Refresh(resp.Tokens.RefreshToken)
	assert.Equal(t, meeting.KindUnauthorized, meeting.KindOf(err))

	assert.Equal(t, meeting.KindValidation, meeting.KindOf(svc.Logout("someone-else", pair.RefreshToken)))
	require.NoError(t, svc.Logout(resp.User.ID, pair.RefreshToken))

	_, err = svc.Refresh(pair.RefreshToken)
	assert.Equal(t, meeting.KindUnauthorized, meeting.KindOf(err))
}

func TestAuthService_SocialLogin(t *testing.T) {
	svc, store := newTestService()

	user, token, err := svc.SocialLogin(goth.User{
		UserID:   "gh-42",
		Email:    "Dev@Example.com",
		NickName: "dev",
		Provider: "github",
	})
	require.NoError(t, err)
	assert.Equal(t, "dev", user.Name)
	assert.Equal(t, "dev@example.com", user.Email)

	claims, err := ValidateToken(token, TokenTypeAccess, testAuthConfig())
	require.NoError(t, err)
	assert.Equal(t, "gh-42", claims.UserID)
	assert.Equal(t, "github", claims.Provider)

	stored, _ := store.GetUserByID("gh-42")
	require.NotNil(t, stored)
}

func TestAuthService_GetUserByID(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.GetUserByID("missing")
	assert.Equal(t, meeting.KindNotFound, meeting.KindOf(err))
}
