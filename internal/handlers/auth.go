package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/profiledesk/apiserver/internal/auth"
	"github.com/profiledesk/apiserver/internal/services"
	"github.com/profiledesk/apiserver/types"
)

// CookieOptions controls the session cookie issued on register and login.
type CookieOptions struct {
	TTL    time.Duration
	Secure bool
}

// AuthHandler provides session endpoints.
type AuthHandler struct {
	authService *services.AuthService
	resolver    SessionResolver
	cookies     CookieOptions
	logger      *slog.Logger
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(authService *services.AuthService, resolver SessionResolver, cookies CookieOptions, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		resolver:    resolver,
		cookies:     cookies,
		logger:      loggerOrDefault(logger),
	}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, authService *services.AuthService, resolver SessionResolver, cookies CookieOptions, logger *slog.Logger) {
	handler := NewAuthHandler(authService, resolver, cookies, logger)

	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
	r.Post("/logout", handler.Logout)
	r.Get("/me", handler.Me)
}

// Register creates an account and starts a session for it.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := h.authService.Register(r.Context(), services.RegisterInput{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	auth.SetSessionCookie(w, session.Token, h.cookies.TTL, h.cookies.Secure)
	writeJSON(w, http.StatusCreated, UserResponse{
		Message: "User registered successfully",
		User:    session.Account.Profile(),
	})
}

// Login verifies credentials and starts a session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := h.authService.Login(r.Context(), req.identifier(), req.Password)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	auth.SetSessionCookie(w, session.Token, h.cookies.TTL, h.cookies.Secure)
	writeJSON(w, http.StatusOK, UserResponse{
		Message: "Login successful",
		User:    session.Account.Profile(),
	})
}

// Logout clears the session cookie. Tokens are not revoked.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w, h.cookies.Secure)
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Logged out successfully"})
}

// Me reports whether the caller holds a valid session. It always answers
// 200 so clients can probe silently.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	subject, ok := h.resolver.Resolve(r)
	if !ok {
		writeJSON(w, http.StatusOK, MeResponse{Authenticated: false})
		return
	}

	account, err := h.authService.Current(r.Context(), subject)
	if err != nil {
		h.logger.DebugContext(r.Context(), "session check failed", "subject", subject, "error", err)
		writeJSON(w, http.StatusOK, MeResponse{Authenticated: false})
		return
	}

	profile := account.Profile()
	writeJSON(w, http.StatusOK, MeResponse{Authenticated: true, User: &profile})
}

type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// LoginRequest accepts the identifier under its own name or as an email
// or username field.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Email      string `json:"email"`
	Username   string `json:"username"`
	Password   string `json:"password"`
}

func (req LoginRequest) identifier() string {
	for _, candidate := range []string{req.Identifier, req.Email, req.Username} {
		if strings.TrimSpace(candidate) != "" {
			return candidate
		}
	}
	return ""
}

type UserResponse struct {
	Message string        `json:"message,omitempty"`
	User    types.Profile `json:"user"`
}

type MeResponse struct {
	Authenticated bool           `json:"authenticated"`
	User          *types.Profile `json:"user,omitempty"`
}
