package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"lecture-rag-backend/models"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/tmc/langchaingo/textsplitter"
)

// SupportedExtensions lists the file types the ingestion pipeline accepts.
var SupportedExtensions = []string{".pdf", ".docx", ".txt"}

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrEmptyDocument   = errors.New("no text could be extracted from document")
)

// DocumentProcessor loads a file, extracts its text and splits it into
// overlapping chunks ready for embedding. Splitting uses a recursive
// character splitter with separators that also break on Japanese
// punctuation, matching the lecture material mix.
type DocumentProcessor struct {
	splitter textsplitter.RecursiveCharacter
}

func NewDocumentProcessor(chunkSize, chunkOverlap int) *DocumentProcessor {
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(chunkOverlap),
		textsplitter.WithSeparators([]string{"\n\n", "\n", "。", "、", " ", ""}),
	)
	return &DocumentProcessor{splitter: splitter}
}

// IsSupported reports whether the file extension is handled.
func IsSupported(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, supported := range SupportedExtensions {
		if ext == supported {
			return true
		}
	}
	return false
}

// section is an extracted span of source text, paged where the format has
// pages (PDF) and unpaged otherwise.
type section struct {
	text string
	page int
}

// Process extracts text from the file and returns its chunks with
// deterministic IDs. The chunk index runs across the whole file, so a
// re-upload of the same file produces the same IDs and upserts in place.
func (p *DocumentProcessor) Process(filePath string) ([]models.DocumentChunk, error) {
	ext := strings.ToLower(filepath.Ext(filePath))

	var sections []section
	var err error
	switch ext {
	case ".pdf":
		sections, err = extractPDF(filePath)
	case ".docx":
		sections, err = extractDOCX(filePath)
	case ".txt":
		sections, err = extractText(filePath)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, ext)
	}
	if err != nil {
		return nil, err
	}

	source := filepath.Base(filePath)
	safeSource := safeIDComponent(source)

	var chunks []models.DocumentChunk
	index := 0
	for _, sec := range sections {
		if strings.TrimSpace(sec.text) == "" {
			continue
		}
		parts, err := p.splitter.SplitText(sec.text)
		if err != nil {
			return nil, fmt.Errorf("failed to split text: %w", err)
		}
		for _, part := range parts {
			if strings.TrimSpace(part) == "" {
				continue
			}
			id := fmt.Sprintf("doc_%s_c%d", safeSource, index)
			if sec.page > 0 {
				id = fmt.Sprintf("doc_%s_p%d_c%d", safeSource, sec.page, index)
			}
			chunks = append(chunks, models.DocumentChunk{
				ID:         id,
				Text:       part,
				Source:     source,
				ChunkIndex: index,
				Page:       sec.page,
			})
			index++
		}
	}

	if len(chunks) == 0 {
		return nil, ErrEmptyDocument
	}
	return chunks, nil
}

func extractPDF(filePath string) ([]section, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to read pdf: %w", err)
	}

	var sections []section
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page should not sink the whole file.
			continue
		}
		sections = append(sections, section{text: pageText, page: i})
	}
	return sections, nil
}

var docxTagRe = regexp.MustCompile(`<[^>]+>`)

func extractDOCX(filePath string) ([]section, error) {
	r, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read docx: %w", err)
	}
	defer r.Close()

	content := r.Editable().GetContent()

	// GetContent returns the raw document XML; paragraph ends become line
	// breaks and the remaining tags are stripped.
	content = strings.ReplaceAll(content, "</w:p>", "\n")
	content = docxTagRe.ReplaceAllString(content, "")

	return []section{{text: content}}, nil
}

func extractText(filePath string) ([]section, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return []section{{text: string(data)}}, nil
}

// safeIDComponent keeps only characters that are safe in a chunk ID.
func safeIDComponent(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
