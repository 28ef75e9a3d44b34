package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"

	"github.com/inkwell-cms/inkwell/pkg/inkwell"
	"github.com/inkwell-cms/inkwell/pkg/inkwell/auth"
)

const tokenCookie = "jwt"

// AuthHandler handles login, logout, and session verification endpoints
type AuthHandler struct {
	auth          *auth.Service
	secureCookies bool
}

func NewAuthHandler(authService *auth.Service, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		auth:          authService,
		secureCookies: secureCookies,
	}
}

// Routes returns the router for auth endpoints
func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.Get("/verify", h.Verify)
	return r
}

// LoginRequest represents the login credentials submission
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse represents a successful login
type LoginResponse struct {
	Success bool          `json:"success"`
	User    *inkwell.User `json:"user"`
}

// VerifyResponse reports whether the request carries a valid session
type VerifyResponse struct {
	Authenticated bool          `json:"authenticated"`
	User          *inkwell.User `json:"user,omitempty"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]interface{}{"error": "Invalid JSON payload"})
		return
	}
	if req.Username == "" || req.Password == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]interface{}{"error": "Username and password are required"})
		return
	}

	user, err := h.auth.Authenticate(req.Username, req.Password)
	if err != nil {
		slog.Warn("login rejected", "username", req.Username)
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, map[string]interface{}{"error": "Invalid credentials"})
		return
	}

	token, expires, err := h.auth.IssueToken(user)
	if err != nil {
		slog.Error("failed to issue token", "error", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]interface{}{"error": "Internal server error"})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})

	slog.Info("editor logged in", "username", user.Username)
	render.JSON(w, r, LoginResponse{Success: true, User: user})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	tokenString := jwtauth.TokenFromCookie(r)
	if tokenString == "" {
		unauthorized(w, r)
		return
	}
	if _, err := h.auth.VerifyToken(tokenString); err != nil {
		unauthorized(w, r)
		return
	}

	// Stateless tokens cannot be revoked; clearing the cookie ends the
	// browser session.
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
	render.JSON(w, r, map[string]interface{}{"success": true})
}

func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	tokenString := jwtauth.TokenFromCookie(r)
	if tokenString == "" {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, VerifyResponse{Authenticated: false})
		return
	}

	user, err := h.auth.VerifyToken(tokenString)
	if err != nil {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, VerifyResponse{Authenticated: false})
		return
	}
	render.JSON(w, r, VerifyResponse{Authenticated: true, User: user})
}
