package middlewares

import (
	"net/http"
	"strings"

	"github.com/gabrielantonyxaviour/jedi-vault/internal/server/session"
	"github.com/labstack/echo/v4"
)

// CurrentSessionContextKey is the key to retrieve the current_session from echo.Context.
const CurrentSessionContextKey = "current_session"

// Session returns a session auth middleware.
// It stores current_session into echo.Context.
func Session(m session.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authorization := c.Request().Header.Get(echo.HeaderAuthorization)
			token := token(authorization)

			if token == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error": echo.Map{
						"tag":     "invalid-auth",
						"message": "Invalid login credentials.",
					},
				})
			}

			current, err := m.Validate(token)
			if err != nil {
				return err
			}

			c.Set(CurrentSessionContextKey, current)
			return next(c)
		}
	}
}

func token(authorization string) string {
	if !strings.HasPrefix(authorization, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(authorization, "Bearer ")
}
