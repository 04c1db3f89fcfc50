package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"cvtailor/internal/models"
)

// TextExtractorService turns an uploaded document (PDF or plain text) into
// the UTF-8 text the pipeline consumes.
type TextExtractorService interface {
	ExtractDocumentText(doc *models.Document) (string, error)
	ExtractPDFText(filePath string) (string, error)
}

type textExtractorService struct{}

func NewTextExtractorService() TextExtractorService {
	return &textExtractorService{}
}

// ExtractDocumentText implements TextExtractorService.
func (t *textExtractorService) ExtractDocumentText(doc *models.Document) (string, error) {
	if _, err := os.Stat(doc.FilePath); os.IsNotExist(err) {
		return "", fmt.Errorf("file does not exist: %s", doc.FilePath)
	}

	switch strings.ToLower(filepath.Ext(doc.FilePath)) {
	case ".pdf":
		text, err := t.ExtractPDFText(doc.FilePath)
		if err != nil {
			return "", err
		}
		return CleanText(text), nil
	case ".txt":
		raw, err := os.ReadFile(doc.FilePath)
		if err != nil {
			return "", fmt.Errorf("failed to read text file: %w", err)
		}
		text := CleanText(string(raw))
		if text == "" {
			return "", fmt.Errorf("no text content found in file")
		}
		return text, nil
	default:
		return "", fmt.Errorf("unsupported document format: %s", filepath.Ext(doc.FilePath))
	}
}

// ExtractPDFText implements TextExtractorService.
func (t *textExtractorService) ExtractPDFText(filePath string) (string, error) {
	f, r, err := pdf.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var textBuilder strings.Builder
	totalPage := r.NumPage()

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// Log error but continue with other pages
			continue
		}

		textBuilder.WriteString(text)
		textBuilder.WriteString("\n\n")
	}

	text := textBuilder.String()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no text content found in PDF")
	}

	return text, nil
}

// CleanText normalizes whitespace in extracted document text.
func CleanText(text string) string {
	text = strings.TrimSpace(text)

	lines := strings.Split(text, "\n")
	var cleanedLines []string

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleanedLines = append(cleanedLines, line)
		}
	}

	return strings.Join(cleanedLines, "\n")
}
