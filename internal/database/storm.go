package database

import (
	"time"

	"github.com/asdine/storm/v3"
	"github.com/asdine/storm/v3/codec/msgpack"
	"github.com/asdine/storm/v3/q"
	"github.com/gabrielantonyxaviour/jedi-vault/internal/model"
	"github.com/gofrs/uuid"
	"github.com/pkg/errors"
)

type strm struct {
	db *storm.DB
}

// StormCodec is the format used to store data in the database.
var StormCodec = storm.Codec(msgpack.Codec)

// StormInit initializes Storm database.
func StormInit(database string) error {
	db, err := storm.Open(database, StormCodec)
	if err != nil {
		return errors.Wrap(err, "could not get database connection")
	}
	defer db.Close()

	if err := db.Init(&model.Account{}); err != nil {
		return errors.Wrap(err, "could not init account index")
	}

	if err := db.Init(&model.Session{}); err != nil {
		return errors.Wrap(err, "could not init session index")
	}

	err = db.Init(&model.ShareRow{})
	return errors.Wrap(err, "could not init share row index")
}

// StormOpen returns a new Storm database connection.
func StormOpen(database string) (Client, error) {
	db, err := storm.Open(database, StormCodec)
	if err != nil {
		return nil, errors.Wrap(err, "could not get database connection")
	}

	return &strm{
		db: db,
	}, nil
}

// Save inserts or updates the entry in database with the given model.
func (c *strm) Save(m model.Model) error {
	t := time.Now().UTC()
	m.SetUpdatedAt(t)

	if m.GetID() == "" {
		m.SetID(uuid.Must(uuid.NewV4()).String())
		m.SetCreatedAt(t)
	}

	return errors.Wrap(c.db.Save(m), "could not save the model")
}

// Delete deletes the entry in database with the given model.
func (c *strm) Delete(m model.Model) error {
	return errors.Wrap(c.db.DeleteStruct(m), "could not delete the model")
}

// Close the database.
func (c *strm) Close() error {
	return c.db.Close()
}

// IsNotFound returns true if err is a not found error.
func (c *strm) IsNotFound(err error) bool {
	return errors.Cause(err) == storm.ErrNotFound
}

// IsAlreadyExists returns true if err is an already exists error.
func (c *strm) IsAlreadyExists(err error) bool {
	return errors.Cause(err) == storm.ErrAlreadyExists
}

// FindAccount returns the account for the given id (UUID).
func (c *strm) FindAccount(id string) (*model.Account, error) {
	var account model.Account
	if err := c.db.One("ID", id, &account); err != nil {
		return nil, errors.Wrap(err, "find account by id")
	}
	return &account, nil
}

// FindAccountByLabel returns the account for the given label.
func (c *strm) FindAccountByLabel(label string) (*model.Account, error) {
	var account model.Account
	if err := c.db.One("Label", label, &account); err != nil {
		return nil, errors.Wrap(err, "find account by label")
	}
	return &account, nil
}

// FindSession returns the session for the given id (UUID).
func (c *strm) FindSession(id string) (*model.Session, error) {
	var session model.Session
	if err := c.db.One("ID", id, &session); err != nil {
		return nil, errors.Wrap(err, "find session by id")
	}
	return &session, nil
}

// FindSessionByAccessToken returns the session for the given access token.
func (c *strm) FindSessionByAccessToken(token string) (*model.Session, error) {
	var session model.Session
	if err := c.db.One("AccessToken", token, &session); err != nil {
		return nil, errors.Wrap(err, "find session by access token")
	}
	return &session, nil
}

// FindSessionByTokens returns the session for the given access and refresh token.
func (c *strm) FindSessionByTokens(access, refresh string) (*model.Session, error) {
	var session model.Session
	err := c.db.Select(q.Eq("AccessToken", access), q.Eq("RefreshToken", refresh)).First(&session)
	if err != nil {
		return nil, errors.Wrap(err, "find session by tokens")
	}
	return &session, nil
}

// FindShareRow returns the share row of the given collection and record.
func (c *strm) FindShareRow(schemaID, recordID string) (*model.ShareRow, error) {
	var row model.ShareRow
	if err := c.db.One("Key", model.ShareRowKey(schemaID, recordID), &row); err != nil {
		return nil, errors.Wrap(err, "find share row")
	}
	return &row, nil
}

// FindShareRows returns every share row of the given collection.
func (c *strm) FindShareRows(schemaID string) ([]*model.ShareRow, error) {
	rows := make([]*model.ShareRow, 0)
	err := c.db.Select(q.Eq("SchemaID", schemaID)).OrderBy("RecordID").Find(&rows)
	if err != nil && !c.IsNotFound(err) {
		return nil, errors.Wrap(err, "could not find share rows")
	}
	return rows, nil
}

// FindShareRowsByRecordIDs returns the collection's share rows restricted to
// the given record ids.
func (c *strm) FindShareRowsByRecordIDs(schemaID string, ids []string) ([]*model.ShareRow, error) {
	if len(ids) == 0 {
		return c.FindShareRows(schemaID)
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, model.ShareRowKey(schemaID, id))
	}

	rows := make([]*model.ShareRow, 0)
	err := c.db.Select(q.In("Key", keys)).OrderBy("RecordID").Find(&rows)
	if err != nil && !c.IsNotFound(err) {
		return nil, errors.Wrap(err, "could not find share rows by record ids")
	}
	return rows, nil
}
