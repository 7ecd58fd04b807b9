package middleware

import (
	"bizmart-backend/internal/interfaces/view"
	"bizmart-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const userLocal = "user"

// LoginPath is where browsers are sent when a protected page needs a session.
const LoginPath = "/login"

// RequireAuth lets the request through only with a logged-in user. JSON
// clients get 401; browsers are redirected to the login page.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		v := GetViewer(c)
		if v == nil {
			if view.WantsJSON(c) {
				return response.Unauthorized(c, "Unauthorized")
			}
			return c.Redirect(LoginPath, fiber.StatusSeeOther)
		}
		c.Locals("auth", v)
		return c.Next()
	}
}

// GetUser returns the raw session user from Locals (nil if not logged in).
func GetUser(c *fiber.Ctx) interface{} {
	return c.Locals(userLocal)
}
