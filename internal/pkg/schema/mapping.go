package schema

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

const (
	// CorrectionThreshold 词表纠错阈值
	CorrectionThreshold = 80.0
	// MatchThreshold 表/列命中阈值
	MatchThreshold = 60.0
)

var wordPattern = regexp.MustCompile(`\w+`)

// scoreboard accumulates scores while remembering first-insertion order,
// so equal scores rank in the order they were first seen.
type scoreboard struct {
	order  []string
	scores map[string]float64
}

func newScoreboard() *scoreboard {
	return &scoreboard{scores: make(map[string]float64)}
}

func (b *scoreboard) add(name string, score float64) {
	if _, ok := b.scores[name]; !ok {
		b.order = append(b.order, name)
	}
	b.scores[name] += score
}

func (b *scoreboard) total() float64 {
	var sum float64
	for _, name := range b.order {
		sum += b.scores[name]
	}
	return sum
}

func (b *scoreboard) ranked() []ScoredColumn {
	out := make([]ScoredColumn, 0, len(b.order))
	for _, name := range b.order {
		out = append(out, ScoredColumn{Name: name, Score: b.scores[name]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// MapQuery fuzzy-maps the tokens of query onto the tables and columns of s.
//
// Each alphabetic token is first corrected to the closest vocabulary entry
// when that entry scores above CorrectionThreshold, then compared against every
// table and column name; similarities above MatchThreshold accumulate. When no
// table name matched, tables are ranked by the sum of their column scores.
func MapQuery(query string, s *Schema) *Mapping {
	tokens := wordPattern.FindAllString(strings.ToLower(query), -1)
	tables := newScoreboard()
	columns := make(map[string]*scoreboard)
	var columnTables []string

	names := s.TableNames()
	for _, token := range tokens {
		if !isAlpha(token) {
			continue
		}
		token = correct(token, s.Vocabulary)

		for _, table := range names {
			if sim := PartialRatio(token, strings.ToLower(table)); sim > MatchThreshold {
				tables.add(table, sim)
			}
			for _, col := range s.Tables[table].Columns {
				sim := PartialRatio(token, strings.ToLower(col.Name))
				if sim <= MatchThreshold {
					continue
				}
				board, ok := columns[table]
				if !ok {
					board = newScoreboard()
					columns[table] = board
					columnTables = append(columnTables, table)
				}
				board.add(col.Name, sim)
			}
		}
	}

	ranked := tables.ranked()
	if len(ranked) == 0 && len(columns) > 0 {
		fallback := newScoreboard()
		for _, table := range columnTables {
			fallback.add(table, columns[table].total())
		}
		ranked = fallback.ranked()
	}

	m := &Mapping{
		Query:            query,
		CandidateTables:  make([]string, 0, len(ranked)),
		CandidateColumns: make(map[string][]ScoredColumn, len(columns)),
	}
	for _, t := range ranked {
		m.CandidateTables = append(m.CandidateTables, t.Name)
	}
	if len(m.CandidateTables) > 0 {
		m.PrimaryTable = m.CandidateTables[0]
	}
	for table, board := range columns {
		m.CandidateColumns[table] = board.ranked()
	}
	return m
}

// correct returns the first vocabulary entry with the best similarity to token
// if it clears CorrectionThreshold, token otherwise.
func correct(token string, vocabulary []string) string {
	best, bestScore := "", -1.0
	for _, word := range vocabulary {
		if score := PartialRatio(token, word); score > bestScore {
			best, bestScore = word, score
			if score == 100 {
				break
			}
		}
	}
	if bestScore > CorrectionThreshold {
		return best
	}
	return token
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
