package auth

import (
	"errors"

	authsvc "bizmart-backend/internal/application/auth"
	"bizmart-backend/internal/domain"
	"bizmart-backend/internal/interfaces/view"
	"bizmart-backend/internal/middleware"
	"bizmart-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// HomePath is where browsers land after logging in or out.
const HomePath = "/businesses"

// Handlers holds dependencies for auth endpoints.
type Handlers struct {
	Service *authsvc.Service
	View    view.Renderer
}

// LoginPage GET /login renders the login and register forms.
func (h *Handlers) LoginPage(c *fiber.Ctx) error {
	if middleware.GetViewer(c) != nil {
		return c.Redirect(HomePath, fiber.StatusSeeOther)
	}
	return h.View.Render(c, "Login", fiber.Map{})
}

// Register POST /auth/register creates an account and logs it in.
func (h *Handlers) Register(c *fiber.Ctx) error {
	var req authsvc.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, authsvc.ErrEmailPasswordRequired)
	}
	u, err := h.Service.Register(c.UserContext(), req)
	if err != nil {
		return h.fail(c, err)
	}
	log.Info().Uint("user_id", u.ID).Msg("user registered")
	return h.startSession(c, u, "Registration successful", fiber.StatusCreated)
}

// Login POST /auth/login authenticates and starts a new session.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req authsvc.LoginInput
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, authsvc.ErrEmailPasswordRequired)
	}
	u, err := h.Service.Login(c.UserContext(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return h.startSession(c, u, "Login successful", fiber.StatusOK)
}

// Me GET /auth/me returns the current session user.
func (h *Handlers) Me(c *fiber.Ctx) error {
	v := middleware.GetViewer(c)
	if v == nil {
		return response.Error(c, authsvc.ErrNotAuthenticated.Error(), fiber.StatusUnauthorized, nil)
	}
	return response.Success(c, "Authenticated", fiber.Map{"user": v}, nil)
}

// Logout DELETE /auth/logout destroys the session.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	middleware.DestroySession(c)
	if !view.WantsJSON(c) {
		return c.Redirect(HomePath, fiber.StatusSeeOther)
	}
	return response.Success(c, "Logged out successfully", nil, nil)
}

func (h *Handlers) startSession(c *fiber.Ctx, u *domain.User, message string, code int) error {
	v := domain.ViewerFromUser(u)
	middleware.RegenerateSessionID(c)
	middleware.SetSessionViewer(c, v)
	if !view.WantsJSON(c) {
		return c.Redirect(HomePath, fiber.StatusSeeOther)
	}
	if code == fiber.StatusCreated {
		return response.SuccessCreated(c, message, fiber.Map{"user": v}, nil)
	}
	return response.Success(c, message, fiber.Map{"user": v}, nil)
}

func (h *Handlers) fail(c *fiber.Ctx, err error) error {
	code := statusFor(err)
	if code == fiber.StatusInternalServerError {
		return err
	}
	if !view.WantsJSON(c) {
		middleware.SetFlash(c, "", map[string]string{"email": err.Error()})
		return c.Redirect(middleware.LoginPath, fiber.StatusSeeOther)
	}
	return response.Error(c, err.Error(), code, nil)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, authsvc.ErrEmailPasswordRequired),
		errors.Is(err, authsvc.ErrNameRequired),
		errors.Is(err, authsvc.ErrInvalidEmailFormat),
		errors.Is(err, authsvc.ErrWeakPassword):
		return fiber.StatusBadRequest
	case errors.Is(err, authsvc.ErrEmailTaken):
		return fiber.StatusConflict
	case errors.Is(err, authsvc.ErrInvalidEmail), errors.Is(err, authsvc.ErrIncorrectPassword):
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}
