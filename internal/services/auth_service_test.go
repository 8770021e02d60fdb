package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelmart/backend/internal/dto"
	"github.com/modelmart/backend/internal/services"
	"github.com/modelmart/backend/internal/testutil"
)

func newAuthService(t *testing.T) *services.AuthService {
	t.Helper()
	return services.NewAuthService(testutil.NewDB(t), testutil.NewConfig())
}

func TestRegister(t *testing.T) {
	svc := newAuthService(t)

	resp, err := svc.Register(&dto.RegisterRequest{
		Email:       "u1@x.com",
		Password:    "password123",
		DisplayName: "U One",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "u1@x.com", resp.User.Email)
	assert.Equal(t, "U One", resp.User.DisplayName)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.Register(&dto.RegisterRequest{Email: "u1@x.com", Password: "password123"})
	require.NoError(t, err)

	_, err = svc.Register(&dto.RegisterRequest{Email: "u1@x.com", Password: "password456"})
	assert.ErrorIs(t, err, services.ErrEmailTaken)
}

func TestRegister_WeakPassword(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.Register(&dto.RegisterRequest{Email: "u1@x.com", Password: "short"})
	assert.Error(t, err)
}

func TestLogin(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.Register(&dto.RegisterRequest{Email: "u1@x.com", Password: "password123"})
	require.NoError(t, err)

	resp, err := svc.Login(&dto.LoginRequest{Email: "u1@x.com", Password: "password123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)

	_, err = svc.Login(&dto.LoginRequest{Email: "u1@x.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	_, err = svc.Login(&dto.LoginRequest{Email: "nobody@x.com", Password: "password123"})
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
}

func TestRefresh_RotatesToken(t *testing.T) {
	svc := newAuthService(t)

	reg, err := svc.Register(&dto.RegisterRequest{Email: "u1@x.com", Password: "password123"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(&dto.RefreshRequest{RefreshToken: reg.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, reg.RefreshToken, refreshed.RefreshToken)

	// The old token was revoked by the rotation.
	_, err = svc.Refresh(&dto.RefreshRequest{RefreshToken: reg.RefreshToken})
	assert.ErrorIs(t, err, services.ErrInvalidToken)

	// The new one still works.
	_, err = svc.Refresh(&dto.RefreshRequest{RefreshToken: refreshed.RefreshToken})
	require.NoError(t, err)
}

func TestRefresh_GarbageToken(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.Refresh(&dto.RefreshRequest{RefreshToken: "not-a-token"})
	assert.ErrorIs(t, err, services.ErrInvalidToken)
}

func TestLogout_RevokesRefreshToken(t *testing.T) {
	svc := newAuthService(t)

	reg, err := svc.Register(&dto.RegisterRequest{Email: "u1@x.com", Password: "password123"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(&dto.LogoutRequest{RefreshToken: reg.RefreshToken}))

	_, err = svc.Refresh(&dto.RefreshRequest{RefreshToken: reg.RefreshToken})
	assert.ErrorIs(t, err, services.ErrInvalidToken)
}

func TestUpdateProfile_NotifiesSubscribers(t *testing.T) {
	svc := newAuthService(t)

	reg, err := svc.Register(&dto.RegisterRequest{Email: "u1@x.com", Password: "password123", DisplayName: "Before"})
	require.NoError(t, err)

	ch := svc.Subscribe()
	defer svc.Unsubscribe(ch)

	updated, err := svc.UpdateProfile(reg.User.ID, &dto.UpdateProfileRequest{DisplayName: "After"})
	require.NoError(t, err)
	assert.Equal(t, "After", updated.DisplayName)

	select {
	case user := <-ch:
		assert.Equal(t, reg.User.ID, user.ID)
		assert.Equal(t, "After", user.DisplayName)
	default:
		t.Fatal("profile change was not published")
	}
}

func TestUnsubscribe_ClosesChannel(t *testing.T) {
	svc := newAuthService(t)

	ch := svc.Subscribe()
	svc.Unsubscribe(ch)
	svc.Unsubscribe(ch)

	_, open := <-ch
	assert.False(t, open)
}
