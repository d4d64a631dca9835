// Package extract converts uploaded resume documents into plain text.
// PDF parsing uses github.com/ledongthuc/pdf and DOCX parsing uses
// github.com/nguyenthenguyen/docx.
package extract

import (
	"bytes"
	"encoding/xml"
	"io"
	"net/url"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	"kareerbot/internal/errors"
)

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// SupportedMimeType reports whether Text can handle the given content type.
// Parameters such as "; charset=..." are ignored.
func SupportedMimeType(mimeType string) bool {
	switch normalizeMimeType(mimeType) {
	case MimePDF, MimeDOCX:
		return true
	}
	return false
}

// Text extracts plain text from an in-memory document. The MIME type decides
// the parser; unsupported types fail before any parsing happens.
func Text(data []byte, mimeType string) (string, error) {
	normalized := normalizeMimeType(mimeType)
	switch normalized {
	case MimePDF:
		return extractPDF(data)
	case MimeDOCX:
		return extractDOCX(data)
	default:
		return "", errors.NewValidationError(errors.ErrCodeUnsupportedFormat,
			"Unsupported file type. Please upload a PDF or DOCX file.", nil).
			WithContext("mime_type", normalized)
	}
}

func normalizeMimeType(mimeType string) string {
	return strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
}

// extractPDF walks every page and concatenates its text runs. Runs within a
// page are joined with spaces, pages with newlines. Runs that arrive
// URI-encoded are percent-decoded first.
func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", errors.NewExtractionError(errors.ErrCodeExtractionFailed,
			"Failed to parse PDF document", err)
	}

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		var runs []string
		for _, text := range page.Content().Text {
			runs = append(runs, decodeRun(text.S))
		}
		if len(runs) > 0 {
			pages = append(pages, strings.Join(runs, " "))
		}
	}

	text := strings.TrimSpace(strings.Join(pages, "\n"))
	if text == "" {
		return "", errors.NewExtractionError(errors.ErrCodeEmptyDocument,
			"No text could be extracted from the PDF", nil)
	}
	return text, nil
}

// decodeRun percent-decodes a text run, falling back to the raw run when the
// escaping is invalid.
func decodeRun(run string) string {
	if !strings.Contains(run, "%") {
		return run
	}
	decoded, err := url.PathUnescape(run)
	if err != nil {
		return run
	}
	return decoded
}

func extractDOCX(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", errors.NewExtractionError(errors.ErrCodeExtractionFailed,
			"Failed to parse DOCX document", err)
	}
	defer doc.Close()

	// GetContent returns the raw word/document.xml markup, so strip the
	// tags down to paragraph text.
	text := stripDocxXML(doc.Editable().GetContent())
	if text == "" {
		return "", errors.NewExtractionError(errors.ErrCodeEmptyDocument,
			"No text could be extracted from the DOCX", nil)
	}
	return text, nil
}

func stripDocxXML(raw string) string {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return strings.TrimSpace(raw)
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.WriteString(string(t))
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" {
				if buf.Len() > 0 {
					buf.WriteString("\n")
				}
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
