package biz

import (
	"fmt"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"github.com/kart-io/sentinel-nlq/internal/pkg/schema"
)

const (
	maxSelectColumns = 4
	rowLimit         = 100
)

var (
	numericHints    = []string{"salary", "pay", "compensation", "rate", "amount"}
	departmentNames = map[string]bool{"department": true, "dept": true, "division": true}
	roleNames       = map[string]bool{"role": true, "position": true, "title": true}
)

var plainIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// 需要加引号的常见保留字
var reservedWords = map[string]bool{
	"all": true, "and": true, "as": true, "asc": true, "between": true, "by": true,
	"case": true, "check": true, "column": true, "constraint": true, "create": true,
	"default": true, "delete": true, "desc": true, "distinct": true, "drop": true,
	"else": true, "end": true, "from": true, "group": true, "having": true, "in": true,
	"index": true, "insert": true, "into": true, "is": true, "join": true, "key": true,
	"like": true, "limit": true, "not": true, "null": true, "offset": true, "on": true,
	"or": true, "order": true, "primary": true, "references": true, "select": true,
	"table": true, "then": true, "to": true, "union": true, "unique": true,
	"update": true, "user": true, "values": true, "when": true, "where": true,
}

// Quoter renders an identifier for the target dialect.
type Quoter func(name string) string

// DialectQuoter quotes identifiers with db's dialect when they are reserved
// words or not plain identifiers. Plain names are emitted unchanged.
func DialectQuoter(db *gorm.DB) Quoter {
	if db == nil || db.Statement == nil {
		return nil
	}
	return func(name string) string {
		if plainIdent.MatchString(name) && !reservedWords[strings.ToLower(name)] {
			return name
		}
		return db.Statement.Quote(name)
	}
}

func (q Quoter) ident(name string) string {
	if q == nil {
		return name
	}
	return q(name)
}

// Statement is generated SQL with positional bind parameters.
// Only identifiers from schema reflection are interpolated into SQL.
type Statement struct {
	SQL    string
	Params []any
}

// GenerateSQL builds a statement for the mapping's primary table, or nil
// when nothing matched. A nil quote emits identifiers as reflected.
func GenerateSQL(query string, m *schema.Mapping, quote Quoter) *Statement {
	if m == nil || !m.HasPrimary() {
		return nil
	}
	table := quote.ident(m.PrimaryTable)
	q := strings.ToLower(query)
	columns := m.CandidateColumns[table]

	if strings.Contains(q, "count") || strings.Contains(q, "how many") {
		return &Statement{SQL: "SELECT COUNT(*) AS count FROM " + table}
	}

	if strings.Contains(q, "average") || strings.Contains(q, "avg") {
		if col := numericColumn(columns); col != "" {
			return &Statement{SQL: fmt.Sprintf("SELECT AVG(%s) AS %s FROM %s",
				quote.ident(col), quote.ident("average_"+col), table)}
		}
	}

	selected := make([]string, 0, maxSelectColumns)
	for i := 0; i < len(columns) && i < maxSelectColumns; i++ {
		selected = append(selected, quote.ident(columns[i].Name))
	}
	list := "*"
	if len(selected) > 0 {
		list = strings.Join(selected, ", ")
	}

	sql := fmt.Sprintf("SELECT %s FROM %s", list, table)
	where, params := whereClause(q, columns, quote)
	if where != "" {
		sql += " WHERE " + where
	}
	sql += fmt.Sprintf(" LIMIT %d", rowLimit)
	return &Statement{SQL: sql, Params: params}
}

var trailingLimit = regexp.MustCompile(`(?i)\bLIMIT\s+\d+\s*$`)

// OptimizeSQL trims the statement and caps it at rowLimit rows when it does
// not already end in a LIMIT clause.
func OptimizeSQL(sql string) string {
	sql = strings.TrimSpace(sql)
	if !trailingLimit.MatchString(sql) {
		sql += fmt.Sprintf(" LIMIT %d", rowLimit)
	}
	return sql
}

func numericColumn(columns []schema.ScoredColumn) string {
	for _, c := range columns {
		name := strings.ToLower(c.Name)
		for _, hint := range numericHints {
			if strings.Contains(name, hint) {
				return c.Name
			}
		}
	}
	return ""
}

// whereClause 仅对名为 department/role 一类的列生成 LIKE 过滤。
// 列名已出现在查询中时跳过该列。
func whereClause(q string, columns []schema.ScoredColumn, quote Quoter) (string, []any) {
	var (
		filters []string
		params  []any
	)
	for _, c := range columns {
		name := strings.ToLower(c.Name)
		if strings.Contains(q, name) {
			continue
		}

		var value string
		switch {
		case departmentNames[name]:
			value = valueAfter(q, "department")
		case roleNames[name]:
			value = valueAfter(q, "role")
		default:
			continue
		}
		if value == "" {
			continue
		}
		filters = append(filters, fmt.Sprintf("LOWER(%s) LIKE ?", quote.ident(c.Name)))
		params = append(params, "%"+strings.ToLower(value)+"%")
	}
	return strings.Join(filters, " AND "), params
}

// valueAfter returns the first whitespace-delimited word after keyword.
// Multi-word values are not captured.
func valueAfter(q, keyword string) string {
	_, rest, ok := strings.Cut(q, keyword)
	if !ok {
		return ""
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
