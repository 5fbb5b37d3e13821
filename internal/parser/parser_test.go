package parser

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestExtractText(t *testing.T) {
	path := writeFile(t, t.TempDir(), "notes.txt", "Market segmentation basics.\n")

	content, err := Extract(path)
	require.NoError(t, err)
	assert.Equal(t, "Market segmentation basics.\n", content)
}

func TestExtractMissingFile(t *testing.T) {
	_, err := Extract(filepath.Join(t.TempDir(), "absent.txt"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExtractUnsupportedFormat(t *testing.T) {
	path := writeFile(t, t.TempDir(), "data.xyz", "whatever")

	_, err := Extract(path)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExtractDirectoryPath(t *testing.T) {
	_, err := Extract(t.TempDir())
	assert.ErrorIs(t, err, ErrIsDirectory)
}

func TestExtractBlankText(t *testing.T) {
	path := writeFile(t, t.TempDir(), "blank.txt", "   \n\t\n")

	_, err := Extract(path)
	assert.ErrorIs(t, err, ErrEmptyExtraction)
}

func TestExtractMarkdown(t *testing.T) {
	md := "# Pricing\n\nFirst paragraph with **bold** text.\n\n```\ncost plus\n```\n"
	path := writeFile(t, t.TempDir(), "pricing.md", md)

	content, err := Extract(path)
	require.NoError(t, err)
	assert.Contains(t, content, "Pricing")
	assert.Contains(t, content, "First paragraph with bold text.")
	assert.Contains(t, content, "cost plus")
	assert.NotContains(t, content, "#")
	assert.NotContains(t, content, "**")
	assert.NotContains(t, content, "```")
}

func TestExtractDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.txt", "second document")
	writeFile(t, dir, "a.txt", "first document")
	writeFile(t, dir, "skip.xyz", "unsupported")
	writeFile(t, dir, "blank.txt", "  \n")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))

	content, err := ExtractDir(dir)
	require.NoError(t, err)
	assert.Equal(t, "first document\n\nsecond document", content)
}

func TestExtractDirNoDocuments(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "skip.xyz", "unsupported")

	_, err := ExtractDir(dir)
	assert.ErrorIs(t, err, ErrEmptyExtraction)
}

func TestExtractDirMissing(t *testing.T) {
	_, err := ExtractDir(filepath.Join(t.TempDir(), "absent"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func writeZip(t *testing.T, path string, entries []struct{ name, body string }) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for _, entry := range entries {
		w, err := zw.Create(entry.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(entry.body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func TestExtractPPTX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck.pptx")
	writeZip(t, path, []struct{ name, body string }{
		{"docProps/app.xml", "<Properties/>"},
		{"ppt/slides/slide1.xml", "<p:sld><a:p><a:r><a:t>Slide one</a:t><a:t> intro</a:t></a:r></a:p><a:p><a:r><a:t>Detail line</a:t></a:r></a:p></p:sld>"},
		{"ppt/slides/slide2.xml", "<p:sld><a:p><a:r><a:t>Slide two</a:t></a:r></a:p></p:sld>"},
	})

	content, err := Extract(path)
	require.NoError(t, err)
	assert.Equal(t, "Slide one intro\nDetail line\nSlide two", content)
}

func TestExtractPPTXNoSlides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.pptx")
	writeZip(t, path, []struct{ name, body string }{
		{"docProps/app.xml", "<Properties/>"},
	})

	_, err := Extract(path)
	assert.ErrorIs(t, err, ErrEmptyExtraction)
}

func TestExtractTagText(t *testing.T) {
	tests := []struct {
		name string
		xml  string
		want string
	}{
		{"single run", "<w:t>Hello</w:t>", "Hello"},
		{"runs join without separator", `<w:t xml:space="preserve">A </w:t><w:t>B</w:t>`, "A B"},
		{"longer tag names rejected", "<w:tbl><w:t>X</w:t></w:tbl>", "X"},
		{"self-closing run skipped", "<w:t/><w:t>Y</w:t>", "Y"},
		{"entities decoded", "<w:t>a &amp; b &lt;c&gt; &quot;d&quot; &apos;e&apos;</w:t>", `a & b <c> "d" 'e'`},
		{"unclosed run dropped", "<w:t>abc", ""},
		{"no runs", "<w:p><w:r></w:r></w:p>", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractTagText(tt.xml, "w:t"))
		})
	}
}
