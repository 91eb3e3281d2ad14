package schema

import (
	"fmt"

	"gorm.io/gorm"
)

// 各方言的外键查询，统一输出列名以便扫描到 fkRow。
const (
	sqliteFKQuery = `SELECT CAST(id AS TEXT) AS constraint_name, "from" AS column_name, "table" AS target_table, "to" AS referred_column
FROM pragma_foreign_key_list(?) ORDER BY id, seq`

	// 引用列按 position_in_unique_constraint 对齐，复合外键逐列配对
	postgresFKQuery = `SELECT kcu.constraint_name AS constraint_name, kcu.column_name AS column_name,
       ref.table_name AS target_table, ref.column_name AS referred_column
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON kcu.constraint_name = tc.constraint_name AND kcu.constraint_schema = tc.constraint_schema
JOIN information_schema.referential_constraints rc
  ON rc.constraint_name = tc.constraint_name AND rc.constraint_schema = tc.constraint_schema
JOIN information_schema.key_column_usage ref
  ON ref.constraint_name = rc.unique_constraint_name
 AND ref.constraint_schema = rc.unique_constraint_schema
 AND ref.ordinal_position = kcu.position_in_unique_constraint
WHERE tc.constraint_type = 'FOREIGN KEY' AND tc.table_schema = current_schema() AND tc.table_name = ?
ORDER BY kcu.constraint_name, kcu.ordinal_position`

	mysqlFKQuery = `SELECT CONSTRAINT_NAME AS constraint_name, COLUMN_NAME AS column_name,
       REFERENCED_TABLE_NAME AS target_table, REFERENCED_COLUMN_NAME AS referred_column
FROM information_schema.KEY_COLUMN_USAGE
WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ? AND REFERENCED_TABLE_NAME IS NOT NULL
ORDER BY CONSTRAINT_NAME, ORDINAL_POSITION`
)

type fkRow struct {
	ConstraintName string `gorm:"column:constraint_name"`
	ColumnName     string `gorm:"column:column_name"`
	TargetTable    string `gorm:"column:target_table"`
	ReferredColumn string `gorm:"column:referred_column"`
}

func foreignKeyQuery(dialect string) (string, error) {
	switch dialect {
	case "sqlite":
		return sqliteFKQuery, nil
	case "postgres":
		return postgresFKQuery, nil
	case "mysql":
		return mysqlFKQuery, nil
	default:
		return "", fmt.Errorf("foreign key reflection not supported for dialect %q", dialect)
	}
}

// foreignKeys groups multi-column constraints into one Relationship each.
func foreignKeys(db *gorm.DB, table string) ([]Relationship, error) {
	q, err := foreignKeyQuery(db.Dialector.Name())
	if err != nil {
		return nil, err
	}

	var rows []fkRow
	if err := db.Raw(q, table).Scan(&rows).Error; err != nil {
		return nil, err
	}

	var out []Relationship
	index := make(map[string]int)
	for _, r := range rows {
		i, ok := index[r.ConstraintName]
		if !ok {
			out = append(out, Relationship{
				SourceTable:        table,
				TargetTable:        r.TargetTable,
				ConstrainedColumns: []string{},
				ReferredColumns:    []string{},
			})
			i = len(out) - 1
			index[r.ConstraintName] = i
		}
		out[i].ConstrainedColumns = append(out[i].ConstrainedColumns, r.ColumnName)
		out[i].ReferredColumns = append(out[i].ReferredColumns, r.ReferredColumn)
	}
	return out, nil
}
