// Package chunker 将抽取出的文本切分为适合向量化检索的段落块。
//
// 切分策略按内容形态选择：表格(csv)按行分批，简历按大写标题分段，
// 合同按 "Clause" 段落分段，其余文本按词数贪心打包。
package chunker

import (
	"strings"
	"unicode"
)

// Strategy is the chunking strategy chosen for a document.
type Strategy int

const (
	Generic Strategy = iota
	Tabular
	Resume
	Contract
)

func (s Strategy) String() string {
	switch s {
	case Tabular:
		return "tabular"
	case Resume:
		return "resume"
	case Contract:
		return "contract"
	default:
		return "generic"
	}
}

const (
	DefaultTargetWords = 180
	DefaultCSVRows     = 50

	// headingMaxWords 简历标题最多词数
	headingMaxWords = 6
	// sampleParagraphs 形态判断时检查的段落数
	sampleParagraphs = 3
)

var (
	resumeKeywords   = []string{"experience", "education", "skills", "summary"}
	contractKeywords = []string{"agreement", "clause", "party", "terms"}
)

// Chunker splits document text. The zero value is not usable; use New.
type Chunker struct {
	targetWords int
	csvRows     int
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithTargetWords sets the word budget of a generic chunk.
func WithTargetWords(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.targetWords = n
		}
	}
}

// WithCSVRows sets the number of data rows per tabular chunk.
func WithCSVRows(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.csvRows = n
		}
	}
}

// New creates a Chunker.
func New(opts ...Option) *Chunker {
	c := &Chunker{targetWords: DefaultTargetWords, csvRows: DefaultCSVRows}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify picks the strategy for already-split paragraphs of a document.
func Classify(docType string, paragraphs []string) Strategy {
	if docType == "csv" {
		return Tabular
	}
	n := min(len(paragraphs), sampleParagraphs)
	sample := strings.ToLower(strings.Join(paragraphs[:n], " "))
	switch {
	case containsAny(sample, resumeKeywords):
		return Resume
	case containsAny(sample, contractKeywords):
		return Contract
	default:
		return Generic
	}
}

// Chunk splits content into ordered chunks. Empty content yields no chunks.
func (c *Chunker) Chunk(content, docType string) []string {
	content = strings.TrimSpace(normalizeNewlines(content))
	if content == "" {
		return nil
	}
	if docType == "csv" {
		return c.chunkTable(content)
	}

	paragraphs := splitParagraphs(content)
	switch Classify(docType, paragraphs) {
	case Resume:
		return chunkResume(paragraphs)
	case Contract:
		return chunkContract(paragraphs)
	default:
		return c.chunkGeneric(paragraphs)
	}
}

// chunkTable keeps the header line at the top of every batch.
func (c *Chunker) chunkTable(content string) []string {
	lines := strings.Split(content, "\n")
	header, rows := lines[0], lines[1:]

	var chunks []string
	for start := 0; start < len(rows); start += c.csvRows {
		end := min(start+c.csvRows, len(rows))
		batch := append([]string{header}, rows[start:end]...)
		chunks = append(chunks, strings.Join(batch, "\n"))
	}
	return chunks
}

// chunkResume starts a new chunk at every paragraph whose first line is an
// upper-case heading of at most headingMaxWords words.
func chunkResume(paragraphs []string) []string {
	var chunks, current []string
	for _, p := range paragraphs {
		lines := nonEmptyLines(p)
		heading := ""
		if len(lines) > 0 {
			heading = lines[0]
		}
		if isUpper(heading) && len(strings.Fields(heading)) <= headingMaxWords && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, "\n"))
			current = nil
		}
		current = append(current, strings.Join(lines, "\n"))
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, "\n"))
	}
	return chunks
}

// chunkContract starts a new chunk at every paragraph beginning with "clause".
func chunkContract(paragraphs []string) []string {
	var chunks, current []string
	for _, p := range paragraphs {
		if strings.HasPrefix(strings.ToLower(p), "clause") && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, "\n"))
			current = nil
		}
		current = append(current, p)
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, "\n"))
	}
	return chunks
}

// chunkGeneric packs whole paragraphs greedily up to targetWords.
// A paragraph longer than the budget becomes a chunk on its own.
func (c *Chunker) chunkGeneric(paragraphs []string) []string {
	var chunks, current []string
	words := 0
	for _, p := range paragraphs {
		n := len(strings.Fields(p))
		if words+n > c.targetWords && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, "\n"))
			current, words = nil, 0
		}
		current = append(current, p)
		words += n
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, "\n"))
	}
	return chunks
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

func splitParagraphs(content string) []string {
	var out []string
	for _, p := range strings.Split(content, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func nonEmptyLines(p string) []string {
	var out []string
	for _, line := range strings.Split(p, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// isUpper reports whether s has at least one cased letter and no lower-case
// or title-case letters.
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		switch {
		case unicode.IsLower(r), unicode.IsTitle(r):
			return false
		case unicode.IsUpper(r):
			cased = true
		}
	}
	return cased
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// WordCount counts whitespace-separated words.
func WordCount(s string) int {
	return len(strings.Fields(s))
}
