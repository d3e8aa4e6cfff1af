package server

import (
	"net/http"

	"github.com/gabrielantonyxaviour/jedi-vault/internal/database"
	"github.com/gabrielantonyxaviour/jedi-vault/internal/model"
	"github.com/gabrielantonyxaviour/jedi-vault/internal/nverror"
	"github.com/gabrielantonyxaviour/jedi-vault/internal/server/session"
	"github.com/labstack/echo/v4"
	sargon2 "github.com/mdouchement/simple-argon2"
	"github.com/pkg/errors"
)

// auth contains all authentication handlers.
type auth struct {
	db       database.Client
	sessions session.Manager
}

type signInParams struct {
	APIKey string `json:"api_key"`
}

type refreshParams struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

///// SignIn
////
//

// SignIn authenticates an operator with its API key and opens a session.
func (h *auth) SignIn(c echo.Context) error {
	var params signInParams
	if err := c.Bind(&params); err != nil {
		return c.JSON(http.StatusBadRequest, nverror.New("Could not get credentials."))
	}

	if params.APIKey == "" {
		return c.JSON(http.StatusUnauthorized, nverror.New("No API key provided."))
	}

	account, err := h.db.FindAccountByLabel(model.DefaultAccountLabel)
	if err != nil {
		if h.db.IsNotFound(err) {
			return c.JSON(http.StatusUnauthorized, nverror.New("Invalid API key."))
		}
		return errors.Wrap(err, "could not get access to database")
	}

	if err := sargon2.CompareHashAndPasswordString(account.APIKeyHash, params.APIKey); err != nil {
		if err == sargon2.ErrMismatchedHashAndPassword {
			return c.JSON(http.StatusUnauthorized, nverror.New("Invalid API key."))
		}
		return errors.Wrap(err, "could not verify API key")
	}

	current := h.sessions.Generate(account, c.Request().UserAgent())
	if err := h.db.Save(current); err != nil {
		return errors.Wrap(err, "could not persist session")
	}

	return c.JSON(http.StatusOK, renderSession(current))
}

///// Refresh
////
//

// Refresh obtains a new pair of access token and refresh token.
func (h *auth) Refresh(c echo.Context) error {
	var params refreshParams
	if err := c.Bind(&params); err != nil {
		return c.JSON(http.StatusBadRequest, nverror.NewWithTagCode(
			http.StatusBadRequest,
			"invalid-parameters",
			"Invalid request body.",
		))
	}

	if params.AccessToken == "" || params.RefreshToken == "" {
		return c.JSON(http.StatusBadRequest, nverror.NewWithTagCode(
			http.StatusBadRequest,
			"invalid-parameters",
			"Please provide all required parameters.",
		))
	}

	current, err := h.db.FindSessionByTokens(params.AccessToken, params.RefreshToken)
	if err != nil {
		if h.db.IsNotFound(err) {
			return c.JSON(http.StatusBadRequest, nverror.NewWithTagCode(
				http.StatusBadRequest,
				"invalid-parameters",
				"The provided parameters are not valid.",
			))
		}
		return errors.Wrap(err, "could not get access to database")
	}

	if err := h.sessions.Regenerate(current); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, renderSession(current))
}

func renderSession(s *model.Session) echo.Map {
	return echo.Map{
		"session": echo.Map{
			"access_token":  s.AccessToken,
			"refresh_token": s.RefreshToken,
			"expire_at":     s.ExpireAt,
		},
	}
}
