package extract

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestKindOf(t *testing.T) {
	k, err := KindOf("/tmp/Policy.PDF")
	require.NoError(t, err)
	assert.Equal(t, PDF, k)

	k, err = KindOf("notes.md")
	require.NoError(t, err)
	assert.Equal(t, TXT, k)

	_, err = KindOf("slides.pptx")
	assert.ErrorIs(t, err, ErrUnsupportedType)
	assert.EqualError(t, err, "Unsupported file type: .pptx")
}

func TestFile_Text(t *testing.T) {
	path := writeFile(t, "remote.txt", []byte("Remote work policy\xff allows two days."))

	text, kind, err := File(path)
	require.NoError(t, err)
	assert.Equal(t, TXT, kind)
	assert.Equal(t, "Remote work policy allows two days.", text)
}

func TestFile_CSV(t *testing.T) {
	path := writeFile(t, "staff.csv", []byte("name,title\r\n\"Doe, Jane\",Engineer\r\nBob,\"Sales\"\r\n"))

	text, kind, err := File(path)
	require.NoError(t, err)
	assert.Equal(t, CSV, kind)
	assert.Equal(t, "name,title\n\"Doe, Jane\",Engineer\nBob,Sales\n", text)
}

func TestFile_DOCX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>SUMMARY</w:t></w:r></w:p>
    <w:p><w:r><w:t>Experienced </w:t></w:r><w:r><w:t>Go developer.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Skills</w:t><w:tab/><w:t>Go, SQL</w:t></w:r></w:p>
  </w:body>
</w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	text, kind, err := File(path)
	require.NoError(t, err)
	assert.Equal(t, DOCX, kind)
	assert.Equal(t, "SUMMARY\nExperienced Go developer.\nSkills\tGo, SQL", text)
}

func TestFile_DOCXMissingDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, zip.NewWriter(f).Close())
	require.NoError(t, f.Close())

	_, _, err = File(path)
	assert.ErrorContains(t, err, "missing word/document.xml")
}

func TestFile_Errors(t *testing.T) {
	_, _, err := File(filepath.Join(t.TempDir(), "absent.txt"))
	assert.ErrorContains(t, err, "file not found")

	_, _, err = File(writeFile(t, "broken.pdf", []byte("not a pdf")))
	assert.ErrorContains(t, err, "failed to open PDF")

	_, _, err = File(writeFile(t, "archive.zip", []byte("PK")))
	assert.ErrorIs(t, err, ErrUnsupportedType)
}
