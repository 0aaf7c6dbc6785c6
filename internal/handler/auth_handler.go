package handler

import (
	"errors"
	"time"

	"go-pos-backoffice/internal/middleware"
	"go-pos-backoffice/internal/service"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService  service.AuthService
	view         *View
	secureCookie bool
}

func NewAuthHandler(authService service.AuthService, view *View, secureCookie bool) *AuthHandler {
	return &AuthHandler{authService: authService, view: view, secureCookie: secureCookie}
}

// LoginRequest represents the login form
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
	Next     string `form:"next" json:"next"`
}

// LoginPage renders the sign-in form
// GET /accounts/login/
func (h *AuthHandler) LoginPage(c *fiber.Ctx) error {
	return h.view.Render(c, "auth/login", "", fiber.Map{
		"Title": "Sign in",
		"Next":  safeNext(c.Query("next")),
	})
}

// Login handles user authentication
// POST /accounts/login/
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return h.view.Redirect(c, middleware.LoginPath, "danger", "Invalid form submission")
	}
	if req.Email == "" || req.Password == "" {
		return h.view.Redirect(c, middleware.LoginPath, "danger", "Email and password are required")
	}

	response, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		msg := "Invalid email or password"
		if errors.Is(err, service.ErrUserInactive) {
			msg = "This account is inactive"
		}
		return h.view.Redirect(c, middleware.LoginPath, "danger", msg)
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    response.Token,
		Path:     "/",
		Expires:  response.ExpiresAt,
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Redirect(safeNext(req.Next), fiber.StatusFound)
}

// Logout ends the session everywhere for this user
// GET /accounts/logout/
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if user := middleware.CurrentUser(c); user != nil {
		if err := h.authService.Logout(user.ID); err != nil {
			return err
		}
	}
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return h.view.Redirect(c, middleware.LoginPath, "success", "You have been signed out")
}
