package schema

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/kart-io/logger"
	"gorm.io/gorm"
)

// SampleRowLimit is the number of rows fetched per table during discovery.
const SampleRowLimit = 5

var identSplit = regexp.MustCompile(`[_\s]+`)

// Discover reflects tables, columns, foreign keys and sample rows from db.
// A failure to read sample rows from one table is logged and skipped.
func Discover(ctx context.Context, db *gorm.DB) (*Schema, error) {
	db = db.WithContext(ctx)
	migrator := db.Migrator()

	names, err := migrator.GetTables()
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	names = userTables(names)

	s := &Schema{
		Tables:        make(map[string]*Table, len(names)),
		Relationships: []Relationship{},
		tableOrder:    names,
	}
	vocab := make(map[string]struct{})

	for _, name := range names {
		cols, err := migrator.ColumnTypes(name)
		if err != nil {
			return nil, fmt.Errorf("reflect columns of %s: %w", name, err)
		}
		table := &Table{Columns: make([]Column, 0, len(cols)), SampleRows: []map[string]any{}}
		for _, c := range cols {
			nullable, ok := c.Nullable()
			if !ok {
				nullable = true
			}
			table.Columns = append(table.Columns, Column{
				Name:     c.Name(),
				Type:     c.DatabaseTypeName(),
				Nullable: nullable,
			})
			addWords(vocab, c.Name())
		}
		addWords(vocab, name)
		s.Tables[name] = table
	}

	for _, name := range names {
		rels, err := foreignKeys(db, name)
		if err != nil {
			return nil, fmt.Errorf("reflect foreign keys of %s: %w", name, err)
		}
		s.Relationships = append(s.Relationships, rels...)
	}

	for _, name := range names {
		rows, err := sampleRows(db, name)
		if err != nil {
			logger.Warnw("Skipping sample rows", "table", name, "error", err)
			continue
		}
		s.Tables[name].SampleRows = rows
	}

	s.Vocabulary = sortedKeys(vocab)
	logger.Infow("Schema discovered", "tables", len(s.Tables), "relationships", len(s.Relationships))
	return s, nil
}

// userTables drops sqlite bookkeeping tables and sorts the rest.
func userTables(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if strings.HasPrefix(n, "sqlite_") {
			continue
		}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func sampleRows(db *gorm.DB, table string) ([]map[string]any, error) {
	var rows []map[string]any
	if err := db.Table(table).Limit(SampleRowLimit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return NormalizeRows(rows), nil
}

// NormalizeRows converts driver byte slices to strings so rows encode as text.
func NormalizeRows(rows []map[string]any) []map[string]any {
	if rows == nil {
		return []map[string]any{}
	}
	for _, row := range rows {
		for k, v := range row {
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}
	}
	return rows
}

func addWords(vocab map[string]struct{}, ident string) {
	for _, w := range identSplit.Split(ident, -1) {
		if w != "" {
			vocab[strings.ToLower(w)] = struct{}{}
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
