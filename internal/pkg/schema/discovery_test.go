package schema

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func openCompanyDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "company.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)

	stmts := []string{
		`CREATE TABLE departments (id INTEGER PRIMARY KEY, name TEXT NOT NULL)`,
		`CREATE TABLE employees (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			department_id INTEGER REFERENCES departments(id),
			annual_salary REAL,
			role TEXT
		)`,
		`INSERT INTO departments (id, name) VALUES (1, 'Engineering'), (2, 'Sales')`,
		`INSERT INTO employees (name, department_id, annual_salary, role) VALUES
			('Ada', 1, 120000, 'Engineer'),
			('Grace', 1, 130000, 'Manager'),
			('Linus', 2, 90000, 'Account Executive')`,
	}
	for _, stmt := range stmts {
		require.NoError(t, db.Exec(stmt).Error)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestDiscover(t *testing.T) {
	db := openCompanyDB(t)

	s, err := Discover(context.Background(), db)
	require.NoError(t, err)

	assert.Equal(t, []string{"departments", "employees"}, s.TableNames())

	emp := s.Tables["employees"]
	require.NotNil(t, emp)
	names := make([]string, 0, len(emp.Columns))
	for _, c := range emp.Columns {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"id", "name", "department_id", "annual_salary", "role"}, names)
	assert.Len(t, emp.SampleRows, 3)
	assert.Equal(t, "Ada", emp.SampleRows[0]["name"])

	require.Len(t, s.Relationships, 1)
	assert.Equal(t, Relationship{
		SourceTable:        "employees",
		TargetTable:        "departments",
		ConstrainedColumns: []string{"department_id"},
		ReferredColumns:    []string{"id"},
	}, s.Relationships[0])

	assert.Equal(t, []string{"annual", "department", "departments", "employees", "id", "name", "role", "salary"}, s.Vocabulary)
}

func TestDiscover_ThenMap(t *testing.T) {
	s, err := Discover(context.Background(), openCompanyDB(t))
	require.NoError(t, err)

	m := MapQuery("How many employees do we have", s)
	assert.Equal(t, "employees", m.PrimaryTable)

	// the table name "departments" outranks column-only matches
	m = MapQuery("Average salary by department", s)
	assert.Equal(t, "departments", m.PrimaryTable)
	assert.Equal(t, "annual_salary", m.CandidateColumns["employees"][0].Name)
}

func TestDiscover_EmptyDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)

	s, err := Discover(context.Background(), db)
	require.NoError(t, err)
	assert.Empty(t, s.Tables)
	assert.Empty(t, s.Relationships)
	assert.Empty(t, s.Vocabulary)
}
