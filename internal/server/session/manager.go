package session

import (
	"net/http"
	"time"

	"github.com/gabrielantonyxaviour/jedi-vault/internal/database"
	"github.com/gabrielantonyxaviour/jedi-vault/internal/model"
	"github.com/gabrielantonyxaviour/jedi-vault/internal/nverror"
	"github.com/pkg/errors"
)

// TokenLength is the length of the generated access and refresh tokens.
const TokenLength = 24

type (
	// A Manager manages sessions.
	Manager interface {
		// Generate creates a new session for the given account.
		Generate(account *model.Account, userAgent string) *model.Session
		// Validate validates an access token and returns its session.
		Validate(token string) (*model.Session, error)
		// AccessTokenExpireAt returns the expiration date of the access token.
		AccessTokenExpireAt(session *model.Session) time.Time
		// Regenerate regenerates the session's tokens.
		Regenerate(session *model.Session) error
	}

	manager struct {
		db                         database.Client
		accessTokenExpirationTime  time.Duration
		refreshTokenExpirationTime time.Duration
	}
)

// NewManager returns a new manager.
func NewManager(db database.Client, accessTokenExpirationTime, refreshTokenExpirationTime time.Duration) Manager {
	return &manager{
		db:                         db,
		accessTokenExpirationTime:  accessTokenExpirationTime,
		refreshTokenExpirationTime: refreshTokenExpirationTime,
	}
}

func (m *manager) Generate(account *model.Account, userAgent string) *model.Session {
	return &model.Session{
		ExpireAt:     time.Now().Add(m.refreshTokenExpirationTime).UTC(),
		AccountID:    account.ID,
		UserAgent:    userAgent,
		AccessToken:  SecureToken(TokenLength),
		RefreshToken: SecureToken(TokenLength),
	}
}

func (m *manager) Validate(token string) (*model.Session, error) {
	session, err := m.db.FindSessionByAccessToken(token)
	if err != nil {
		if m.db.IsNotFound(err) {
			return nil, nverror.NewWithTagCode(
				http.StatusUnauthorized,
				"invalid-auth",
				"Invalid login credentials.",
			)
		}
		return nil, errors.Wrap(err, "could not get access to database")
	}

	if m.isAccessTokenExpired(session) {
		return nil, nverror.NewWithTagCode(http.StatusUnauthorized, "expired-access-token", "The provided access token has expired.")
	}

	return session, nil
}

func (m *manager) AccessTokenExpireAt(session *model.Session) time.Time {
	return session.ExpireAt.Add(-m.refreshTokenExpirationTime).Add(m.accessTokenExpirationTime)
}

func (m *manager) Regenerate(session *model.Session) error {
	if m.isSessionExpired(session) {
		return nverror.NewWithTagCode(
			http.StatusBadRequest,
			"expired-refresh-token",
			"The refresh token has expired.",
		)
	}

	session.AccessToken = SecureToken(TokenLength)
	session.RefreshToken = SecureToken(TokenLength)
	session.ExpireAt = time.Now().Add(m.refreshTokenExpirationTime).UTC()

	return errors.Wrap(m.db.Save(session), "could not save session after refreshing session")
}

func (m *manager) isAccessTokenExpired(session *model.Session) bool {
	return m.AccessTokenExpireAt(session).Before(time.Now())
}

func (m *manager) isSessionExpired(session *model.Session) bool {
	return session.ExpireAt.Before(time.Now())
}
