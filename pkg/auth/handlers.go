package auth

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/yomishelf/yomishelf/pkg/models"
)

const (
	// CookieName is the name of the session cookie.
	CookieName = "yomishelf_session"
	// CookieMaxAge is how long the cookie is valid.
	CookieMaxAge = 7 * 24 * time.Hour
)

type handler struct {
	authService *Service
}

func buildMeResponse(user *models.User) MeResponse {
	return MeResponse{
		ID:       user.ID,
		Username: user.Username,
	}
}

func (h *handler) sessionCookie(c echo.Context, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Request().TLS != nil || c.Request().Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
	}
}

// setup creates the first user. It is only available while no users exist.
func (h *handler) setup(c echo.Context) error {
	ctx := c.Request().Context()

	params := SetupPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	count, err := h.authService.CountUsers(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if count > 0 {
		return errors.WithStack(echo.NewHTTPError(http.StatusForbidden, "Setup already completed"))
	}

	user, err := h.authService.CreateUser(ctx, params.Username, params.Password)
	if err != nil {
		return errors.WithStack(err)
	}

	token, err := h.authService.GenerateToken(user)
	if err != nil {
		return errors.WithStack(err)
	}
	c.SetCookie(h.sessionCookie(c, token, int(CookieMaxAge.Seconds())))

	return c.JSON(http.StatusCreated, buildMeResponse(user))
}

func (h *handler) login(c echo.Context) error {
	ctx := c.Request().Context()

	params := LoginPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.authService.Authenticate(ctx, params.Username, params.Password)
	if err != nil {
		return err
	}

	token, err := h.authService.GenerateToken(user)
	if err != nil {
		return errors.WithStack(err)
	}
	c.SetCookie(h.sessionCookie(c, token, int(CookieMaxAge.Seconds())))

	return c.JSON(http.StatusOK, buildMeResponse(user))
}

func (h *handler) logout(c echo.Context) error {
	// Clear cookie by setting MaxAge to -1
	c.SetCookie(h.sessionCookie(c, "", -1))

	return c.JSON(http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// me returns the current authenticated user's info.
func (h *handler) me(c echo.Context) error {
	ctx := c.Request().Context()

	cookie, err := c.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Not authenticated"})
	}

	claims, err := h.authService.ValidateToken(cookie.Value)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid or expired token"})
	}

	user, err := h.authService.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "User not found"})
	}

	return c.JSON(http.StatusOK, buildMeResponse(user))
}

// status returns whether the app needs initial setup.
func (h *handler) status(c echo.Context) error {
	ctx := c.Request().Context()

	count, err := h.authService.CountUsers(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return c.JSON(http.StatusOK, StatusResponse{
		NeedsSetup: count == 0,
	})
}
