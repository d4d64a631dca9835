package extract

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"kareerbot/internal/errors"
)

// buildDocx assembles a minimal DOCX archive with one paragraph per entry.
func buildDocx(t *testing.T, paragraphs []string) []byte {
	t.Helper()

	var body strings.Builder
	for _, p := range paragraphs {
		body.WriteString("<w:p><w:r><w:t>" + p + "</w:t></w:r></w:p>")
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	doc, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("failed to create document.xml: %v", err)
	}
	if _, err := doc.Write([]byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
		`<w:body>` + body.String() + `</w:body></w:document>`)); err != nil {
		t.Fatalf("failed to write document.xml: %v", err)
	}

	rels, err := zw.Create("word/_rels/document.xml.rels")
	if err != nil {
		t.Fatalf("failed to create document.xml.rels: %v", err)
	}
	if _, err := rels.Write([]byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`)); err != nil {
		t.Fatalf("failed to write document.xml.rels: %v", err)
	}

	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close docx archive: %v", err)
	}
	return buf.Bytes()
}

func TestTextDOCX(t *testing.T) {
	data := buildDocx(t, []string{"Jane Doe", "Senior Engineer at Example Corp"})

	got, err := Text(data, MimeDOCX)
	if err != nil {
		t.Fatalf("unexpected error extracting docx: %v", err)
	}
	if !strings.Contains(got, "Jane Doe") || !strings.Contains(got, "Senior Engineer at Example Corp") {
		t.Errorf("extracted text missing paragraph content: %q", got)
	}
	if strings.Contains(got, "<") {
		t.Error("extracted text should not contain markup")
	}
}

func TestTextEmptyDOCX(t *testing.T) {
	data := buildDocx(t, nil)

	_, err := Text(data, MimeDOCX)
	if err == nil {
		t.Fatal("expected error for docx with no text")
	}
	appErr, ok := err.(*errors.AppError)
	if !ok {
		t.Fatalf("expected *errors.AppError, got %T", err)
	}
	if appErr.Code != errors.ErrCodeEmptyDocument {
		t.Errorf("expected code %s, got %s", errors.ErrCodeEmptyDocument, appErr.Code)
	}
}

func TestTextUnsupportedMimeType(t *testing.T) {
	tests := []struct {
		name     string
		mimeType string
	}{
		{"plain text", "text/plain"},
		{"png image", "image/png"},
		{"legacy word", "application/msword"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Text([]byte("irrelevant"), tt.mimeType)
			if err == nil {
				t.Fatal("expected error for unsupported mime type")
			}
			appErr, ok := err.(*errors.AppError)
			if !ok {
				t.Fatalf("expected *errors.AppError, got %T", err)
			}
			if appErr.Code != errors.ErrCodeUnsupportedFormat {
				t.Errorf("expected code %s, got %s", errors.ErrCodeUnsupportedFormat, appErr.Code)
			}
		})
	}
}

func TestTextMimeTypeParameters(t *testing.T) {
	// Parameters after the media type must not change the dispatch.
	_, err := Text([]byte("not a pdf"), "application/pdf; charset=binary")
	appErr, ok := err.(*errors.AppError)
	if !ok {
		t.Fatalf("expected *errors.AppError, got %T", err)
	}
	if appErr.Code == errors.ErrCodeUnsupportedFormat {
		t.Error("pdf with parameters should reach the PDF parser, not be rejected as unsupported")
	}
}

func TestTextMalformedPDF(t *testing.T) {
	_, err := Text([]byte("definitely not a pdf"), MimePDF)
	if err == nil {
		t.Fatal("expected parse error for malformed pdf")
	}
	appErr, ok := err.(*errors.AppError)
	if !ok {
		t.Fatalf("expected *errors.AppError, got %T", err)
	}
	if appErr.Type != errors.ErrorTypeExtraction {
		t.Errorf("expected extraction error type, got %s", appErr.Type)
	}
	if appErr.Cause == nil {
		t.Error("parse failure should carry the underlying parser error")
	}
}

func TestTextMalformedDOCX(t *testing.T) {
	_, err := Text([]byte("not a zip archive"), MimeDOCX)
	if err == nil {
		t.Fatal("expected parse error for malformed docx")
	}
	appErr, ok := err.(*errors.AppError)
	if !ok {
		t.Fatalf("expected *errors.AppError, got %T", err)
	}
	if appErr.Code != errors.ErrCodeExtractionFailed {
		t.Errorf("expected code %s, got %s", errors.ErrCodeExtractionFailed, appErr.Code)
	}
}

func TestSupportedMimeType(t *testing.T) {
	if !SupportedMimeType("application/pdf") {
		t.Error("pdf should be supported")
	}
	if !SupportedMimeType("APPLICATION/PDF") {
		t.Error("mime type matching should be case insensitive")
	}
	if !SupportedMimeType(MimeDOCX) {
		t.Error("docx should be supported")
	}
	if SupportedMimeType("application/zip") {
		t.Error("plain zip should not be supported")
	}
}

func TestDecodeRun(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain run", "Software Engineer", "Software Engineer"},
		{"encoded run", "Led%20a%20team%20of%205", "Led a team of 5"},
		{"invalid escape kept raw", "100% coverage", "100% coverage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := decodeRun(tt.in); got != tt.want {
				t.Errorf("decodeRun(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestStripDocxXML(t *testing.T) {
	raw := `<w:document><w:body>` +
		`<w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Senior Engineer</w:t></w:r></w:p>` +
		`</w:body></w:document>`

	got := stripDocxXML(raw)
	want := "Jane Doe\nSenior Engineer"
	if got != want {
		t.Errorf("stripDocxXML = %q, want %q", got, want)
	}
	if strings.Contains(got, "<") {
		t.Error("stripped text should not contain markup")
	}
}
