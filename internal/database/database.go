package database

import (
	"github.com/gabrielantonyxaviour/jedi-vault/internal/model"
)

type (
	// A Client can interacts with the database.
	Client interface {
		// Save inserts or updates the entry in database with the given model.
		Save(m model.Model) error
		// Delete deletes the entry in database with the given model.
		Delete(m model.Model) error
		// Close the database.
		Close() error
		// IsNotFound returns true if err is a not found error.
		IsNotFound(err error) bool
		// IsAlreadyExists returns true if err is an already exists error.
		IsAlreadyExists(err error) bool

		AccountInteraction
		SessionInteraction
		ShareRowInteraction
	}

	// An AccountInteraction defines all the methods used to interact with an account record.
	AccountInteraction interface {
		// FindAccount returns the account for the given id (UUID).
		FindAccount(id string) (*model.Account, error)
		// FindAccountByLabel returns the account for the given label.
		FindAccountByLabel(label string) (*model.Account, error)
	}

	// A SessionInteraction defines all the methods used to interact with a session record.
	SessionInteraction interface {
		// FindSession returns the session for the given id (UUID).
		FindSession(id string) (*model.Session, error)
		// FindSessionByAccessToken returns the session for the given access token.
		FindSessionByAccessToken(token string) (*model.Session, error)
		// FindSessionByTokens returns the session for the given access and refresh token.
		FindSessionByTokens(access, refresh string) (*model.Session, error)
	}

	// A ShareRowInteraction defines all the methods used to interact with share rows.
	ShareRowInteraction interface {
		// FindShareRow returns the share row of the given collection and record.
		FindShareRow(schemaID, recordID string) (*model.ShareRow, error)
		// FindShareRows returns every share row of the given collection.
		FindShareRows(schemaID string) ([]*model.ShareRow, error)
		// FindShareRowsByRecordIDs returns the collection's share rows restricted
		// to the given record ids.
		FindShareRowsByRecordIDs(schemaID string, ids []string) ([]*model.ShareRow, error)
	}
)
