package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunk_Empty(t *testing.T) {
	c := New()
	assert.Empty(t, c.Chunk("", "txt"))
	assert.Empty(t, c.Chunk("  \n\n \t", "txt"))
}

func TestChunk_Resume(t *testing.T) {
	text := "SUMMARY\nExperienced Python developer.\n\nEXPERIENCE\nWorked at Company A.\n\nSKILLS\nPython, SQL"

	chunks := New().Chunk(text, "txt")
	require.Len(t, chunks, 3)
	assert.True(t, strings.HasPrefix(chunks[0], "SUMMARY"))
	assert.Equal(t, "EXPERIENCE\nWorked at Company A.", chunks[1])
	assert.Equal(t, "SKILLS\nPython, SQL", chunks[2])
}

func TestChunk_ResumeLeadingParagraphKept(t *testing.T) {
	text := "Jane Doe, jane@example.com\n\nSUMMARY\nBackend engineer with ten years of experience.\n\nEducation details follow here."

	chunks := New().Chunk(text, "txt")
	require.Len(t, chunks, 2)
	assert.Equal(t, "Jane Doe, jane@example.com", chunks[0])
	assert.Equal(t, "SUMMARY\nBackend engineer with ten years of experience.\nEducation details follow here.", chunks[1])
}

func TestChunk_Contract(t *testing.T) {
	text := "Agreement between parties.\n\nClause 1: Payment terms.\n\nClause 2: Confidentiality."

	chunks := New().Chunk(text, "txt")
	require.Len(t, chunks, 3)
	joined := strings.Join(chunks, "\n")
	assert.Contains(t, joined, "Clause 1: Payment terms.")
	assert.Contains(t, joined, "Clause 2: Confidentiality.")
	assert.Equal(t, "Agreement between parties.", chunks[0])
}

func TestChunk_GenericPacksByWords(t *testing.T) {
	para := func(n int) string { return strings.TrimSpace(strings.Repeat("word ", n)) }
	text := strings.Join([]string{para(100), para(70), para(20), para(300), para(5)}, "\n\n")

	chunks := New().Chunk(text, "txt")
	require.Len(t, chunks, 4)
	assert.Equal(t, 170, WordCount(chunks[0]))
	assert.Equal(t, 20, WordCount(chunks[1]))
	assert.Equal(t, 300, WordCount(chunks[2]), "an oversized paragraph is never split")
	assert.Equal(t, 5, WordCount(chunks[3]))
}

func TestChunk_GenericTargetOption(t *testing.T) {
	text := "one two three\n\nfour five\n\nsix"
	chunks := New(WithTargetWords(4)).Chunk(text, "txt")
	assert.Equal(t, []string{"one two three", "four five\nsix"}, chunks)
}

func TestChunk_CSV(t *testing.T) {
	var b strings.Builder
	b.WriteString("id,name\n")
	for i := 1; i <= 120; i++ {
		fmt.Fprintf(&b, "%d,name-%d\n", i, i)
	}

	chunks := New().Chunk(b.String(), "csv")
	require.Len(t, chunks, 3)
	for _, ch := range chunks {
		assert.True(t, strings.HasPrefix(ch, "id,name\n"))
	}
	assert.Len(t, strings.Split(chunks[0], "\n"), 51)
	assert.Len(t, strings.Split(chunks[2], "\n"), 21)
	assert.True(t, strings.HasSuffix(chunks[2], "120,name-120"))

	assert.Len(t, New(WithCSVRows(100)).Chunk(b.String(), "csv"), 2)
	assert.Empty(t, New().Chunk("id,name", "csv"), "header only has no data rows")
}

func TestClassify(t *testing.T) {
	assert.Equal(t, Tabular, Classify("csv", nil))
	assert.Equal(t, Resume, Classify("pdf", []string{"Work Experience"}))
	assert.Equal(t, Contract, Classify("docx", []string{"This Agreement is made"}))
	assert.Equal(t, Generic, Classify("txt", []string{"Remote work guidance"}))
	assert.Equal(t, Generic, Classify("txt", []string{"a", "b", "c", "summary"}), "only the first three paragraphs are sampled")
	assert.Equal(t, "resume", Resume.String())
}

func TestIsUpper(t *testing.T) {
	assert.True(t, isUpper("WORK EXPERIENCE"))
	assert.True(t, isUpper("SKILLS & TOOLS 2024"))
	assert.False(t, isUpper("Skills"))
	assert.False(t, isUpper("2024 - 2025"))
	assert.False(t, isUpper(""))
}
