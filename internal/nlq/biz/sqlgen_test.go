package biz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/sentinel-nlq/internal/pkg/schema"
)

func mapping(table string, cols ...string) *schema.Mapping {
	scored := make([]schema.ScoredColumn, len(cols))
	for i, c := range cols {
		scored[i] = schema.ScoredColumn{Name: c, Score: float64(100 - i)}
	}
	return &schema.Mapping{
		PrimaryTable:     table,
		CandidateTables:  []string{table},
		CandidateColumns: map[string][]schema.ScoredColumn{table: scored},
	}
}

func TestGenerateSQL_NoPrimaryTable(t *testing.T) {
	assert.Nil(t, GenerateSQL("anything", &schema.Mapping{}, nil))
	assert.Nil(t, GenerateSQL("anything", nil, nil))
}

func TestGenerateSQL_Count(t *testing.T) {
	for _, q := range []string{"count staff", "How many people work here"} {
		stmt := GenerateSQL(q, mapping("staff", "name"), nil)
		require.NotNil(t, stmt)
		assert.Equal(t, "SELECT COUNT(*) AS count FROM staff", stmt.SQL)
		assert.Empty(t, stmt.Params)
	}
}

func TestGenerateSQL_Average(t *testing.T) {
	stmt := GenerateSQL("average salary by department", mapping("employees", "department", "annual_salary"), nil)
	require.NotNil(t, stmt)
	assert.Equal(t, "SELECT AVG(annual_salary) AS average_annual_salary FROM employees", stmt.SQL)

	// no numeric column: falls through to a plain select
	stmt = GenerateSQL("avg tenure", mapping("employees", "tenure"), nil)
	require.NotNil(t, stmt)
	assert.Equal(t, "SELECT tenure FROM employees LIMIT 100", stmt.SQL)
}

func TestGenerateSQL_Filters(t *testing.T) {
	stmt := GenerateSQL("list staff from department Sales with role manager", mapping("staff", "division", "title"), nil)
	require.NotNil(t, stmt)
	assert.Equal(t, "SELECT division, title FROM staff WHERE LOWER(division) LIKE ? AND LOWER(title) LIKE ? LIMIT 100", stmt.SQL)
	assert.Equal(t, []any{"%sales%", "%manager%"}, stmt.Params)
}

func TestGenerateSQL_ColumnNamedInQueryIsNotFiltered(t *testing.T) {
	stmt := GenerateSQL("show department engineering", mapping("employees", "department", "full_name"), nil)
	require.NotNil(t, stmt)
	assert.Equal(t, "SELECT department, full_name FROM employees LIMIT 100", stmt.SQL)
	assert.Empty(t, stmt.Params)
}

func TestGenerateSQL_KeywordAtEnd(t *testing.T) {
	stmt := GenerateSQL("list people by role", mapping("staff", "position"), nil)
	require.NotNil(t, stmt)
	assert.Equal(t, "SELECT position FROM staff LIMIT 100", stmt.SQL)
}

func TestGenerateSQL_SelectList(t *testing.T) {
	stmt := GenerateSQL("show staff", mapping("staff", "a", "b", "c", "d", "e"), nil)
	require.NotNil(t, stmt)
	assert.Equal(t, "SELECT a, b, c, d FROM staff LIMIT 100", stmt.SQL)

	stmt = GenerateSQL("show staff", mapping("staff"), nil)
	require.NotNil(t, stmt)
	assert.Equal(t, "SELECT * FROM staff LIMIT 100", stmt.SQL)
}

func TestGenerateSQL_InjectionStaysInParams(t *testing.T) {
	stmt := GenerateSQL("list department x';drop", mapping("staff", "dept"), nil)
	require.NotNil(t, stmt)
	// "dept" appears inside "department", so the column is skipped
	assert.NotContains(t, stmt.SQL, "drop")

	stmt = GenerateSQL("list department x';drop", mapping("staff", "division"), nil)
	require.NotNil(t, stmt)
	assert.NotContains(t, stmt.SQL, "drop")
	assert.Equal(t, []any{"%x';drop%"}, stmt.Params)
}

func TestOptimizeSQL(t *testing.T) {
	assert.Equal(t, "SELECT COUNT(*) AS count FROM t LIMIT 100", OptimizeSQL("  SELECT COUNT(*) AS count FROM t "))
	assert.Equal(t, "select * from t limit 5", OptimizeSQL("select * from t limit 5"))
	assert.Equal(t, "SELECT a FROM t LIMIT 100", OptimizeSQL("SELECT a FROM t LIMIT 100"))
	assert.Equal(t, "SELECT time_limit FROM t LIMIT 100", OptimizeSQL("SELECT time_limit FROM t"))
}

func TestGenerateSQL_QuotesUnsafeIdentifiers(t *testing.T) {
	quote := DialectQuoter(openSQLite(t, "quote.db"))
	require.NotNil(t, quote)
	assert.Equal(t, "full_name", quote("full_name"))
	assert.Equal(t, "`order`", quote("order"))
	assert.Equal(t, "`unit price`", quote("unit price"))

	stmt := GenerateSQL("how many orders", mapping("order", "unit price"), quote)
	require.NotNil(t, stmt)
	assert.Equal(t, "SELECT COUNT(*) AS count FROM `order`", stmt.SQL)

	stmt = GenerateSQL("average price of order", mapping("order", "unit price"), quote)
	require.NotNil(t, stmt)
	assert.Equal(t, "SELECT `unit price` FROM `order` LIMIT 100", stmt.SQL)

	stmt = GenerateSQL("list order from department Sales", mapping("order", "unit price", "division"), quote)
	require.NotNil(t, stmt)
	assert.Equal(t, "SELECT `unit price`, division FROM `order` WHERE LOWER(division) LIKE ? LIMIT 100", stmt.SQL)
	assert.Equal(t, []any{"%sales%"}, stmt.Params)
}
