package database_test

import (
	"testing"

	"github.com/gabrielantonyxaviour/jedi-vault/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSelect(t *testing.T) {
	sq, err := database.ParseSelect("SELECT * FROM shares WHERE SchemaID = 'sch-logs' AND RecordID != 'x1' ORDER BY CreatedAt DESC LIMIT 2,5;")
	require.NoError(t, err)

	assert.Equal(t, "shares", sq.Tablename)
	assert.False(t, sq.Count)
	assert.Equal(t, 2, sq.Skip)
	assert.Equal(t, 5, sq.Limit)
	assert.Equal(t, []string{"CreatedAt"}, sq.OrderBy)
	assert.True(t, sq.Reversed)
	assert.NotNil(t, sq.Matcher)
}

func TestParseSelect_Count(t *testing.T) {
	sq, err := database.ParseSelect("SELECT count(*) FROM sessions WHERE AccountID IN ('a1', 'a2');")
	require.NoError(t, err)

	assert.True(t, sq.Count)
	assert.Equal(t, "sessions", sq.Tablename)
}

func TestParseSelect_Matcher(t *testing.T) {
	sq, err := database.ParseSelect("SELECT * FROM shares WHERE SchemaID = 'sch-compliance';")
	require.NoError(t, err)

	matches, err := sq.Matcher.Match(struct{ SchemaID string }{SchemaID: "sch-compliance"})
	require.NoError(t, err)
	assert.True(t, matches)

	matches, err = sq.Matcher.Match(struct{ SchemaID string }{SchemaID: "sch-logs"})
	require.NoError(t, err)
	assert.False(t, matches)
}

func TestParseSelect_Errors(t *testing.T) {
	_, err := database.ParseSelect("DELETE FROM shares;")
	assert.EqualError(t, err, "not a select statement")

	_, err = database.ParseSelect("not sql at all")
	assert.Error(t, err)
}

func TestParseSelect_UnsupportedExpressions(t *testing.T) {
	// Parsable statements outside the supported subset return errors, they
	// never panic.
	tests := []struct {
		name string
		sql  string
	}{
		{"join", "SELECT * FROM shares JOIN sessions;"},
		{"order by ordinal", "SELECT * FROM shares ORDER BY 1;"},
		{"literal comparison", "SELECT * FROM shares WHERE 1 = 1;"},
		{"tuple of columns", "SELECT * FROM shares WHERE SchemaID IN (RecordID);"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := database.ParseSelect(test.sql)
			assert.Error(t, err)
		})
	}
}
