package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surrlabs/surr/internal/model"
	"github.com/surrlabs/surr/internal/service"
	"github.com/surrlabs/surr/internal/testutil"
)

// stubAuthService scripts every operation the handler delegates to.
type stubAuthService struct {
	loginPair    service.TokenPair
	loginErr     error
	refreshPair  service.TokenPair
	refreshErr   error
	logoutErr    error
	registerUser model.User
	registerErr  error

	gotUsername     string
	gotPassword     string
	gotRefreshToken string
	gotAccessToken  string
}

func (s *stubAuthService) Login(_ context.Context, username, password string) (service.TokenPair, error) {
	s.gotUsername, s.gotPassword = username, password
	return s.loginPair, s.loginErr
}

func (s *stubAuthService) Refresh(_ context.Context, refreshToken string) (service.TokenPair, error) {
	s.gotRefreshToken = refreshToken
	return s.refreshPair, s.refreshErr
}

func (s *stubAuthService) Logout(_ context.Context, accessToken, refreshToken string) error {
	s.gotAccessToken, s.gotRefreshToken = accessToken, refreshToken
	return s.logoutErr
}

func (s *stubAuthService) Register(_ context.Context, username, password string) (model.User, error) {
	s.gotUsername, s.gotPassword = username, password
	return s.registerUser, s.registerErr
}

func newTestAuthHandler(svc AuthService) *Auth {
	return NewAuth(svc, 24*time.Hour, testutil.MakeNoopLogger())
}

func refreshCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == RefreshCookieName {
			return cookie
		}
	}
	return nil
}

func TestAuth_Login(t *testing.T) {
	t.Parallel()

	t.Run("valid credentials", func(t *testing.T) {
		t.Parallel()

		svc := &stubAuthService{loginPair: service.TokenPair{AccessToken: "access-jwt", RefreshToken: "refresh-jwt"}}
		h := newTestAuthHandler(svc)

		form := url.Values{"username": {"alice"}, "password": {"s3cretpass"}}
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()

		h.Login(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"access_token":"access-jwt","token_type":"bearer"}`, rec.Body.String())
		assert.Equal(t, "alice", svc.gotUsername)
		assert.Equal(t, "s3cretpass", svc.gotPassword)

		cookie := refreshCookie(t, rec)
		require.NotNil(t, cookie)
		assert.Equal(t, "refresh-jwt", cookie.Value)
		assert.True(t, cookie.HttpOnly)
		assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
		assert.Equal(t, int((24 * time.Hour).Seconds()), cookie.MaxAge)
	})

	t.Run("bad credentials", func(t *testing.T) {
		t.Parallel()

		svc := &stubAuthService{loginErr: model.ErrUnauthorized}
		h := newTestAuthHandler(svc)

		form := url.Values{"username": {"alice"}, "password": {"wrong"}}
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()

		h.Login(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"message":"invalid credentials"}`, rec.Body.String())
		assert.Nil(t, refreshCookie(t, rec))
	})

	t.Run("backend failure", func(t *testing.T) {
		t.Parallel()

		svc := &stubAuthService{loginErr: assert.AnError}
		h := newTestAuthHandler(svc)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader("username=a&password=b"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()

		h.Login(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestAuth_Refresh(t *testing.T) {
	t.Parallel()

	t.Run("rotates the pair", func(t *testing.T) {
		t.Parallel()

		svc := &stubAuthService{refreshPair: service.TokenPair{AccessToken: "new-access", RefreshToken: "new-refresh"}}
		h := newTestAuthHandler(svc)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
		req.AddCookie(&http.Cookie{Name: RefreshCookieName, Value: "old-refresh"})
		rec := httptest.NewRecorder()

		h.Refresh(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"access_token":"new-access","token_type":"bearer"}`, rec.Body.String())
		assert.Equal(t, "old-refresh", svc.gotRefreshToken)

		cookie := refreshCookie(t, rec)
		require.NotNil(t, cookie)
		assert.Equal(t, "new-refresh", cookie.Value)
	})

	t.Run("missing cookie", func(t *testing.T) {
		t.Parallel()

		svc := &stubAuthService{refreshErr: model.ErrUnauthorized}
		h := newTestAuthHandler(svc)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
		rec := httptest.NewRecorder()

		h.Refresh(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Empty(t, svc.gotRefreshToken)
	})
}

func TestAuth_Logout(t *testing.T) {
	t.Parallel()

	t.Run("clears the cookie", func(t *testing.T) {
		t.Parallel()

		svc := &stubAuthService{}
		h := newTestAuthHandler(svc)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
		req.Header.Set("Authorization", "Bearer access-jwt")
		req.AddCookie(&http.Cookie{Name: RefreshCookieName, Value: "refresh-jwt"})
		rec := httptest.NewRecorder()

		h.Logout(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"message":"successfully logged out"}`, rec.Body.String())
		assert.Equal(t, "access-jwt", svc.gotAccessToken)
		assert.Equal(t, "refresh-jwt", svc.gotRefreshToken)

		cookie := refreshCookie(t, rec)
		require.NotNil(t, cookie)
		assert.Empty(t, cookie.Value)
		assert.Negative(t, cookie.MaxAge)
	})

	t.Run("missing bearer token", func(t *testing.T) {
		t.Parallel()

		svc := &stubAuthService{}
		h := newTestAuthHandler(svc)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
		rec := httptest.NewRecorder()

		h.Logout(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Empty(t, svc.gotAccessToken)
	})

	t.Run("garbage access token", func(t *testing.T) {
		t.Parallel()

		svc := &stubAuthService{logoutErr: model.ErrInvalidToken}
		h := newTestAuthHandler(svc)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		rec := httptest.NewRecorder()

		h.Logout(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAuth_Signup(t *testing.T) {
	t.Parallel()

	t.Run("creates the account", func(t *testing.T) {
		t.Parallel()

		id := uuid.New()
		svc := &stubAuthService{registerUser: model.User{ID: id, Username: "bob"}}
		h := newTestAuthHandler(svc)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", strings.NewReader(`{"username":"bob","password":"longenough"}`))
		rec := httptest.NewRecorder()

		h.Signup(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.JSONEq(t, `{"id":"`+id.String()+`","username":"bob"}`, rec.Body.String())
		assert.Equal(t, "bob", svc.gotUsername)
		assert.Equal(t, "longenough", svc.gotPassword)
	})

	t.Run("duplicate username", func(t *testing.T) {
		t.Parallel()

		svc := &stubAuthService{registerErr: model.ErrUsernameTaken}
		h := newTestAuthHandler(svc)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", strings.NewReader(`{"username":"bob","password":"longenough"}`))
		rec := httptest.NewRecorder()

		h.Signup(rec, req)

		require.Equal(t, http.StatusConflict, rec.Code)
		assert.JSONEq(t, `{"message":"username already taken"}`, rec.Body.String())
	})

	t.Run("invalid password", func(t *testing.T) {
		t.Parallel()

		svc := &stubAuthService{registerErr: model.ErrInvalidPassword}
		h := newTestAuthHandler(svc)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", strings.NewReader(`{"username":"bob","password":"short"}`))
		rec := httptest.NewRecorder()

		h.Signup(rec, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		t.Parallel()

		svc := &stubAuthService{}
		h := newTestAuthHandler(svc)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", strings.NewReader(`{not json`))
		rec := httptest.NewRecorder()

		h.Signup(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, svc.gotUsername)
	})
}
