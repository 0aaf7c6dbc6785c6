package middleware

import (
	"net/url"
	"strings"

	"go-pos-backoffice/internal/model"
	"go-pos-backoffice/internal/service"

	"github.com/gofiber/fiber/v2"
)

const (
	SessionCookie = "pos_session"
	LoginPath     = "/accounts/login/"
)

// RequireAuth resolves the session cookie to a user and stores it in the context.
// Requests without a valid session are redirected to the login page.
func RequireAuth(authService service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := authService.Authenticate(c.Cookies(SessionCookie))
		if err != nil {
			c.ClearCookie(SessionCookie)
			if strings.EqualFold(c.Get("X-Requested-With"), "XMLHttpRequest") {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication required"})
			}
			return c.Redirect(LoginPath+"?next="+url.QueryEscape(c.OriginalURL()), fiber.StatusFound)
		}

		c.Locals("user", user)
		c.Locals("user_id", user.ID.String())
		c.Locals("user_email", user.Email)
		c.Locals("user_name", user.FullName)
		c.Locals("user_privileges", user.GetPrivilegeCodes())
		return c.Next()
	}
}

// CurrentUser returns the user set by RequireAuth, or nil.
func CurrentUser(c *fiber.Ctx) *model.User {
	user, _ := c.Locals("user").(*model.User)
	return user
}

// RequirePrivilege checks if the authenticated user has the required privilege
func RequirePrivilege(requiredPrivilege string) fiber.Handler {
	return RequireAnyPrivilege(requiredPrivilege)
}

// RequireAnyPrivilege checks if the user has at least one of the specified privileges
func RequireAnyPrivilege(requiredPrivileges ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		privileges, ok := c.Locals("user_privileges").([]string)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "No privileges found")
		}

		for _, userPriv := range privileges {
			for _, reqPriv := range requiredPrivileges {
				if userPriv == reqPriv {
					return c.Next()
				}
			}
		}

		return fiber.NewError(fiber.StatusForbidden,
			"Forbidden: requires one of "+strings.Join(requiredPrivileges, ", ")+" privileges")
	}
}
