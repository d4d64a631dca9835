package server

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"kareerbot/internal/extract"
	"kareerbot/internal/observability"
	"kareerbot/internal/types"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// createUploadHandler wraps the upload-resume handler with observability.
// The uploaded document is spooled to a temporary file which is removed on
// every exit path, including extraction and provider failures.
func (s *Server) createUploadHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("kareerbot.api")
		ctx, span := tracer.Start(ctx, "api.upload")
		defer span.End()

		metrics := om.GetMetrics()

		if s.Upload.MaxFileSize > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, s.Upload.MaxFileSize)
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid upload", "multipart field 'file' is required", http.StatusBadRequest)
			return
		}
		defer func() {
			if err := file.Close(); err != nil {
				s.Logger.Warn("Failed to close uploaded file", "error", err)
			}
		}()

		mimeType := header.Header.Get("Content-Type")
		span.SetAttributes(
			attribute.String("upload.mime_type", mimeType),
			attribute.Int64("upload.size", header.Size),
			attribute.String("operation", "upload"),
		)

		// Reject unsupported formats before any spooling or extraction work.
		if !extract.SupportedMimeType(mimeType) {
			err := fmt.Errorf("unsupported upload mime type: %s", mimeType)
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			metrics.RecordUploadMetric(ctx, false, om, attribute.String("reason", "unsupported_format"))
			writeErrorResponse(w, "Unsupported file type", "Please upload a PDF or DOCX file.", http.StatusBadRequest)
			return
		}

		tempPath, err := s.spoolUpload(file)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "io"))
			s.Logger.LogError(err, "Failed to spool uploaded file")
			metrics.RecordUploadMetric(ctx, false, om, attribute.String("reason", "spool_failed"))
			writeErrorResponse(w, "Upload failed", "Could not store uploaded file", http.StatusInternalServerError)
			return
		}
		// The temp file must not outlive the request, success or failure.
		defer func() {
			if err := os.Remove(tempPath); err != nil && !os.IsNotExist(err) {
				s.Logger.Warn("Failed to remove temporary upload", "path", tempPath, "error", err)
			}
		}()

		data, err := os.ReadFile(tempPath)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "io"))
			s.Logger.LogError(err, "Failed to read spooled upload", "path", tempPath)
			metrics.RecordUploadMetric(ctx, false, om, attribute.String("reason", "read_failed"))
			writeErrorResponse(w, "Upload failed", "Could not read uploaded file", http.StatusInternalServerError)
			return
		}

		resumeText, err := extract.Text(data, mimeType)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "extraction"))
			s.Logger.LogError(err, "Document text extraction failed", "mime_type", mimeType)
			metrics.RecordUploadMetric(ctx, false, om, attribute.String("reason", "extraction_failed"))

			status, message, ok := clientFacingStatus(err)
			if !ok {
				message = "Failed to extract text from the uploaded document."
			}
			writeErrorResponse(w, "Extraction failed", message, status)
			return
		}

		metrics.RecordUploadMetric(ctx, true, om, attribute.Int("extracted_chars", len(resumeText)))
		span.SetAttributes(attribute.Int("upload.extracted_chars", len(resumeText)))

		s.reviewAndRespond(ctx, w, om, span, types.ReviewResumeInput{ResumeText: resumeText})
	}
}

// spoolUpload writes the uploaded stream to a uniquely named temporary file
// and returns its path. The caller owns deletion.
func (s *Server) spoolUpload(file io.Reader) (string, error) {
	dir := s.Upload.TempDir
	if dir == "" {
		dir = os.TempDir()
	}

	tempPath := filepath.Join(dir, uuid.NewString())
	out, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := io.Copy(out, file); err != nil {
		_ = out.Close()
		_ = os.Remove(tempPath)
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := out.Close(); err != nil {
		_ = os.Remove(tempPath)
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	return tempPath, nil
}
