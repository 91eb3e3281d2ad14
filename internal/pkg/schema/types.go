// Package schema 负责数据库结构发现以及自然语言到表/列的模糊映射。
package schema

// Column describes one reflected column.
type Column struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

// Table holds the columns of a table and up to SampleRowLimit sample rows.
type Table struct {
	Columns    []Column         `json:"columns"`
	SampleRows []map[string]any `json:"sample_rows"`
}

// Relationship is a foreign key from SourceTable to TargetTable.
type Relationship struct {
	SourceTable        string   `json:"source_table"`
	TargetTable        string   `json:"target_table"`
	ConstrainedColumns []string `json:"constrained_columns"`
	ReferredColumns    []string `json:"referred_columns"`
}

// Schema is the reflected structure of one database connection.
// It is replaced wholesale on reconnect and never mutated afterwards.
type Schema struct {
	Tables        map[string]*Table `json:"tables"`
	Relationships []Relationship    `json:"relationships"`
	Vocabulary    []string          `json:"vocabulary"`

	// tableOrder keeps reflection order for deterministic scoring.
	tableOrder []string
}

// TableNames returns table names in reflection order.
func (s *Schema) TableNames() []string {
	if len(s.tableOrder) == len(s.Tables) {
		return s.tableOrder
	}
	return sortedKeys(s.Tables)
}

// ScoredColumn is a candidate column with its accumulated similarity.
type ScoredColumn struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// Mapping is the per-query result of matching tokens against a Schema.
type Mapping struct {
	Query            string                    `json:"query"`
	PrimaryTable     string                    `json:"primary_table,omitempty"`
	CandidateTables  []string                  `json:"candidate_tables"`
	CandidateColumns map[string][]ScoredColumn `json:"candidate_columns"`
}

// HasPrimary reports whether any table matched.
func (m *Mapping) HasPrimary() bool {
	return m.PrimaryTable != ""
}
