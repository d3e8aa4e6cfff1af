package server

import (
	"encoding/json"
	"net/http"

	"github.com/gabrielantonyxaviour/jedi-vault/internal/database"
	"github.com/gabrielantonyxaviour/jedi-vault/internal/model"
	"github.com/gabrielantonyxaviour/jedi-vault/internal/nverror"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// collection contains all share storage handlers.
type collection struct {
	db database.Client
}

type (
	wireRecord struct {
		ID     string            `json:"_id"`
		Fields map[string]string `json:"fields"`
	}

	writeParams struct {
		Records []wireRecord `json:"records"`
	}

	readParams struct {
		IDs []string `json:"ids"`
	}
)

///// Write
////
//

// Write stores this node's share of each record. Writes are idempotent,
// keyed by (schema, record id).
func (h *collection) Write(c echo.Context) error {
	schemaID := c.Param("schema_id")

	var params writeParams
	if err := c.Bind(&params); err != nil {
		return c.JSON(http.StatusBadRequest, nverror.New("Could not get records."))
	}

	saved := make([]string, 0, len(params.Records))
	for _, record := range params.Records {
		if record.ID == "" {
			return c.JSON(http.StatusUnprocessableEntity, nverror.NewWithTagCode(
				http.StatusUnprocessableEntity,
				"invalid-record",
				"Record without _id.",
			))
		}

		content, err := json.Marshal(record.Fields)
		if err != nil {
			return errors.Wrap(err, "could not serialize record fields")
		}

		row, err := h.db.FindShareRow(schemaID, record.ID)
		if err != nil {
			if !h.db.IsNotFound(err) {
				return errors.Wrap(err, "could not get access to database")
			}
			row = &model.ShareRow{
				Key:      model.ShareRowKey(schemaID, record.ID),
				SchemaID: schemaID,
				RecordID: record.ID,
			}
		}
		row.Content = string(content)

		if err := h.db.Save(row); err != nil {
			return errors.Wrap(err, "could not persist share row")
		}
		saved = append(saved, record.ID)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"saved": saved,
	})
}

///// Read
////
//

// Read returns this node's shares for the requested records, or the whole
// collection when no ids are given. An empty collection is an empty list.
func (h *collection) Read(c echo.Context) error {
	schemaID := c.Param("schema_id")

	var params readParams
	if err := c.Bind(&params); err != nil {
		return c.JSON(http.StatusBadRequest, nverror.New("Could not get read params."))
	}

	rows, err := h.db.FindShareRowsByRecordIDs(schemaID, params.IDs)
	if err != nil {
		return errors.Wrap(err, "could not get access to database")
	}

	records := make([]wireRecord, 0, len(rows))
	for _, row := range rows {
		record := wireRecord{ID: row.RecordID, Fields: map[string]string{}}
		if err := json.Unmarshal([]byte(row.Content), &record.Fields); err != nil {
			return errors.Wrapf(err, "could not parse share row %s", row.Key)
		}
		records = append(records, record)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"records": records,
	})
}
