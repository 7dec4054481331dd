package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/surrlabs/surr/internal/api/http/middleware"
	"github.com/surrlabs/surr/internal/logger"
	"github.com/surrlabs/surr/internal/model"
	"github.com/surrlabs/surr/internal/service"
)

// RefreshCookieName is the cookie carrying the refresh token.
const RefreshCookieName = "refresh_token"

// AuthService defines login, signup, refresh and logout operations.
type AuthService interface {
	Login(ctx context.Context, username, password string) (service.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (service.TokenPair, error)
	Logout(ctx context.Context, accessToken, refreshToken string) error
	Register(ctx context.Context, username, password string) (model.User, error)
}

// Auth handles HTTP endpoints for authentication.
type Auth struct {
	service         AuthService
	refreshTokenTTL time.Duration
	logger          *logger.Logger
}

// NewAuth creates a new Auth handler. refreshTokenTTL bounds the refresh
// cookie max-age.
func NewAuth(service AuthService, refreshTokenTTL time.Duration, logger *logger.Logger) *Auth {
	return &Auth{
		service:         service,
		refreshTokenTTL: refreshTokenTTL,
		logger:          logger,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type signupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"username"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Login authenticates form credentials and returns an access token in the
// body plus a refresh token cookie.
func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "malformed form body"})
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	pair, err := h.service.Login(r.Context(), username, password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.setRefreshCookie(w, pair.RefreshToken)
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: pair.AccessToken, TokenType: "bearer"})
}

// Refresh rotates the refresh token presented in the cookie and returns a
// new pair.
func (h *Auth) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshToken := refreshTokenFromCookie(r)

	pair, err := h.service.Refresh(r.Context(), refreshToken)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.setRefreshCookie(w, pair.RefreshToken)
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: pair.AccessToken, TokenType: "bearer"})
}

// Logout revokes the bearer access token and the refresh cookie, then
// clears the cookie. Already-expired tokens log out fine.
func (h *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	accessToken := bearerToken(r)
	if accessToken == "" {
		h.writeError(w, r, model.ErrUnauthorized)
		return
	}

	if err := h.service.Logout(r.Context(), accessToken, refreshTokenFromCookie(r)); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.clearRefreshCookie(w)
	writeJSON(w, http.StatusOK, messageResponse{Message: "successfully logged out"})
}

// Signup creates an account.
func (h *Auth) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "malformed json body"})
		return
	}

	user, err := h.service.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, userResponse{ID: user.ID.String(), Username: user.Username})
}

// Me returns the authenticated subject. The subject is injected by the
// authentication middleware.
func (h *Auth) Me(w http.ResponseWriter, r *http.Request) {
	subject, ok := middleware.SubjectFromContext(r.Context())
	if !ok {
		h.writeError(w, r, model.ErrUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{Username: subject})
}

func (h *Auth) setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.refreshTokenTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Auth) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func refreshTokenFromCookie(r *http.Request) string {
	cookie, err := r.Cookie(RefreshCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}
