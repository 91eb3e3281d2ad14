package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() *Schema {
	cols := func(names ...string) []Column {
		out := make([]Column, 0, len(names))
		for _, n := range names {
			out = append(out, Column{Name: n, Type: "TEXT", Nullable: true})
		}
		return out
	}
	s := &Schema{
		Tables: map[string]*Table{
			"employees": {Columns: cols("id", "name", "department", "annual_salary", "role")},
			"projects":  {Columns: cols("id", "title", "budget")},
		},
		tableOrder: []string{"employees", "projects"},
	}
	vocab := map[string]struct{}{}
	for name, table := range s.Tables {
		addWords(vocab, name)
		for _, c := range table.Columns {
			addWords(vocab, c.Name)
		}
	}
	s.Vocabulary = sortedKeys(vocab)
	return s
}

func columnNames(cols []ScoredColumn) []string {
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		out = append(out, c.Name)
	}
	return out
}

func TestMapQuery_AverageSalary(t *testing.T) {
	m := MapQuery("Average salary by department", testSchema())

	assert.Equal(t, "employees", m.PrimaryTable)
	assert.Equal(t, []string{"employees", "projects"}, m.CandidateTables)
	cols := m.CandidateColumns["employees"]
	require.NotEmpty(t, cols)
	assert.Equal(t, "annual_salary", cols[0].Name)
	assert.Contains(t, columnNames(cols), "department")
}

func TestMapQuery_TableNameMatch(t *testing.T) {
	m := MapQuery("How many employees do we have", testSchema())
	assert.Equal(t, "employees", m.PrimaryTable)
	assert.Equal(t, []string{"employees"}, m.CandidateTables)
	assert.Equal(t, "How many employees do we have", m.Query)
}

func TestMapQuery_ColumnsRankedByScore(t *testing.T) {
	m := MapQuery("Sum project budget", testSchema())
	assert.Equal(t, "projects", m.PrimaryTable)
	cols := m.CandidateColumns["projects"]
	require.Len(t, cols, 1)
	assert.Equal(t, ScoredColumn{Name: "budget", Score: 100}, cols[0])

	for _, list := range m.CandidateColumns {
		for i := 1; i < len(list); i++ {
			assert.GreaterOrEqual(t, list[i-1].Score, list[i].Score)
		}
	}
}

func TestMapQuery_NoMatch(t *testing.T) {
	m := MapQuery("42 777", testSchema())
	assert.False(t, m.HasPrimary())
	assert.Empty(t, m.CandidateTables)
	assert.Empty(t, m.CandidateColumns)
}

func TestCorrect(t *testing.T) {
	vocab := []string{"annual", "salary"}
	assert.Equal(t, "salary", correct("salaries", vocab))
	assert.Equal(t, "weather", correct("weather", vocab))
	assert.Equal(t, "weather", correct("weather", nil))
}

func TestIsAlpha(t *testing.T) {
	assert.True(t, isAlpha("employees"))
	assert.False(t, isAlpha("q3"))
	assert.False(t, isAlpha("annual_salary"))
	assert.False(t, isAlpha(""))
}
