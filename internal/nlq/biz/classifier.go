package biz

import "strings"

var (
	documentKeywords = []string{"document", "resume", "policy", "review"}
	sqlKeywords      = []string{"count", "average", "list", "show", "sum", "salary", "department"}
)

// Classify routes a query by substring keyword hits. Queries that hit
// neither keyword set fall back to SQL.
func Classify(query string) QueryType {
	q := strings.ToLower(query)
	docHit := containsAny(q, documentKeywords)
	sqlHit := containsAny(q, sqlKeywords)

	switch {
	case docHit && sqlHit:
		return QueryTypeHybrid
	case docHit:
		return QueryTypeDocument
	default:
		return QueryTypeSQL
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
