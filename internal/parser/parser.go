package parser

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/rs/zerolog/log"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
)

// extraction failure taxonomy
var (
	ErrNotFound          = errors.New("file not found")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrIsDirectory       = errors.New("path is a directory")
	ErrEmptyExtraction   = errors.New("no text extracted")
)

// Extract converts a single document into normalized plain text,
// dispatching on the file extension. The text is never blank: an empty
// extraction is an error, not an empty success.
func Extract(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return "", fmt.Errorf("failed to stat %s: %v", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrIsDirectory, path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	var content string
	switch ext {
	case ".pdf":
		content, err = extractPDF(path)
	case ".docx":
		content, err = extractDOCX(path)
	case ".pptx":
		content, err = extractPPTX(path)
	case ".md":
		content, err = extractMarkdown(path)
	case ".txt":
		content, err = extractText(path)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("%w: %s", ErrEmptyExtraction, path)
	}
	return content, nil
}

// ExtractDir extracts every recognized file directly under dir, in
// lexicographic filename order so rebuilds stay reproducible. Files that
// fail extraction are logged and skipped; only zero successes is an
// error. Successful texts are joined with a blank line.
func ExtractDir(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, dir)
		}
		return "", fmt.Errorf("failed to read directory %s: %v", dir, err)
	}

	var parts []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		content, err := Extract(path)
		if err != nil {
			log.Warn().Err(err).Str("file", entry.Name()).Msg("Skipping file")
			continue
		}
		log.Info().Str("file", entry.Name()).Int("chars", len(content)).Msg("Extracted document")
		parts = append(parts, content)
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("%w: no valid documents in %s", ErrEmptyExtraction, dir)
	}
	return strings.Join(parts, "\n\n"), nil
}

// extractPDF concatenates page text with newlines, skipping blank pages.
func extractPDF(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %v", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return "", err
	}
	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %v", err)
	}

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			log.Warn().Err(err).Int("page", i).Str("file", filepath.Base(path)).Msg("Skipping page")
			continue
		}
		if strings.TrimSpace(pageText) == "" {
			continue
		}
		pages = append(pages, pageText)
	}
	return strings.Join(pages, "\n"), nil
}

// extractDOCX pulls paragraph text out of word/document.xml, skipping
// blank paragraphs.
func extractDOCX(path string) (string, error) {
	r, err := docx.ReadDocxFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read docx: %v", err)
	}
	defer r.Close()

	content := r.Editable().GetContent()
	var paragraphs []string
	for _, block := range strings.Split(content, "</w:p>") {
		p := strings.TrimSpace(extractTagText(block, "w:t"))
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return strings.Join(paragraphs, "\n"), nil
}

func extractPPTX(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("failed to read pptx: %v", err)
	}
	defer zr.Close()

	var slides []string
	for _, file := range zr.File {
		if !strings.HasPrefix(file.Name, "ppt/slides/slide") {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		var lines []string
		for _, block := range strings.Split(string(data), "</a:p>") {
			line := strings.TrimSpace(extractTagText(block, "a:t"))
			if line != "" {
				lines = append(lines, line)
			}
		}
		if len(lines) > 0 {
			slides = append(slides, strings.Join(lines, "\n"))
		}
	}
	return strings.Join(slides, "\n"), nil
}

func extractMarkdown(path string) (string, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read markdown: %v", err)
	}

	root := goldmark.New().Parser().Parse(gmtext.NewReader(source))
	var buf strings.Builder
	err = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Text:
			buf.Write(node.Segment.Value(source))
			if node.SoftLineBreak() || node.HardLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.String:
			buf.Write(node.Value)
		case *ast.Paragraph, *ast.Heading, *ast.TextBlock:
			if buf.Len() > 0 {
				buf.WriteByte('\n')
			}
		case *ast.FencedCodeBlock:
			if buf.Len() > 0 {
				buf.WriteByte('\n')
			}
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				buf.Write(seg.Value(source))
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to parse markdown: %v", err)
	}
	return buf.String(), nil
}

func extractText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read text file: %v", err)
	}
	return string(data), nil
}

var xmlEntities = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&apos;", "'",
)

// extractTagText concatenates the character data of every <tag>..</tag>
// pair in the fragment. Word and PowerPoint XML keep run text in
// <w:t>/<a:t> elements; attributes on the open tag are tolerated and
// runs are joined without separators since Word splits words across
// runs arbitrarily.
func extractTagText(xmlContent, tag string) string {
	open := "<" + tag
	end := "</" + tag + ">"
	var text strings.Builder
	rest := xmlContent
	for {
		start := strings.Index(rest, open)
		if start < 0 {
			break
		}
		rest = rest[start+len(open):]
		gt := strings.Index(rest, ">")
		if gt < 0 {
			break
		}
		head := rest[:gt]
		rest = rest[gt+1:]
		// longer tag names share the prefix (<w:tbl>, <w:tab/>)
		if head != "" && head[0] != ' ' && head[0] != '/' {
			continue
		}
		// self-closing runs carry no text
		if strings.HasSuffix(head, "/") {
			continue
		}
		stop := strings.Index(rest, end)
		if stop < 0 {
			break
		}
		text.WriteString(rest[:stop])
		rest = rest[stop+len(end):]
	}
	return xmlEntities.Replace(text.String())
}
