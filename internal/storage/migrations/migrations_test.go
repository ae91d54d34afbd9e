package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedFiles(t *testing.T) {
	pg, err := sqlFiles(PostgresFS, "postgres")
	require.NoError(t, err)
	assert.Equal(t, []string{"001_charts.sql"}, pg)

	ch, err := sqlFiles(ClickhouseFS, "clickhouse")
	require.NoError(t, err)
	assert.Equal(t, []string{"001_transit_positions.sql"}, ch)

	data, err := fs.ReadFile(PostgresFS, "postgres/001_charts.sql")
	require.NoError(t, err)
	assert.Contains(t, string(data), "CREATE TABLE IF NOT EXISTS charts")
}

func TestEmbeddedClickhouseSplitsCleanly(t *testing.T) {
	data, err := fs.ReadFile(ClickhouseFS, "clickhouse/001_transit_positions.sql")
	require.NoError(t, err)
	require.NoError(t, validateNoSemicolonInStrings(string(data)))

	stmts := splitStatements(string(data))
	require.Len(t, stmts, 1)
	assert.True(t, strings.HasPrefix(stmts[0], "CREATE TABLE IF NOT EXISTS transit_positions"))
	assert.NotContains(t, stmts[0], ";")
}

func TestSplitStatements(t *testing.T) {
	input := `
-- header comment
CREATE TABLE a (x Int8);

  -- indented comment
CREATE TABLE b (y String);
`
	assert.Equal(t, []string{"CREATE TABLE a (x Int8)", "CREATE TABLE b (y String)"}, splitStatements(input))
	assert.Empty(t, splitStatements("-- only a comment\n\n"))
}

func TestValidateNoSemicolonInStrings(t *testing.T) {
	assert.NoError(t, validateNoSemicolonInStrings("SELECT 'a''b'; SELECT 1;"))
	assert.Error(t, validateNoSemicolonInStrings("SELECT 'a;b'"))
}

func TestDatabaseFromDSN(t *testing.T) {
	db, err := databaseFromDSN("clickhouse://default:@localhost:9000/kundali")
	require.NoError(t, err)
	assert.Equal(t, "kundali", db)

	_, err = databaseFromDSN("clickhouse://localhost:9000")
	assert.Error(t, err)
}
