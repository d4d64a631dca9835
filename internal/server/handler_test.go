package server

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strings"
	"testing"

	"kareerbot/internal/ai"
	"kareerbot/internal/config"
	kareerbotErrors "kareerbot/internal/errors"
	"kareerbot/internal/observability"
	"kareerbot/internal/types"
)

// fakeProvider implements ai.AIProvider with canned replies. It counts calls
// so tests can assert that invalid requests never reach the provider.
type fakeProvider struct {
	calls int

	reviewOutput types.ReviewResumeOutput
	reviewErr    error

	chatOutput types.ChatOutput
	chatErr    error

	planOutput types.PlanOutput
	planErr    error

	queryOutput types.AgentQueryOutput
	queryErr    error
}

func (f *fakeProvider) ReviewResume(ctx context.Context, input types.ReviewResumeInput) (types.ReviewResumeOutput, *ai.TokenUsage, error) {
	f.calls++
	return f.reviewOutput, nil, f.reviewErr
}

func (f *fakeProvider) Chat(ctx context.Context, input types.ChatInput) (types.ChatOutput, *ai.TokenUsage, error) {
	f.calls++
	return f.chatOutput, nil, f.chatErr
}

func (f *fakeProvider) GeneratePlan(ctx context.Context, input types.PlanInput) (types.PlanOutput, *ai.TokenUsage, error) {
	f.calls++
	return f.planOutput, nil, f.planErr
}

func (f *fakeProvider) AgentQuery(ctx context.Context, input types.AgentQueryInput) (types.AgentQueryOutput, *ai.TokenUsage, error) {
	f.calls++
	return f.queryOutput, nil, f.queryErr
}

func (f *fakeProvider) GetModelInfo(ctx context.Context) *ai.ModelInfo {
	return &ai.ModelInfo{Name: "fake-model", Available: true}
}

func (f *fakeProvider) Close() error { return nil }

func newTestServer(t *testing.T, provider *fakeProvider) (*Server, *observability.ObservabilityManager) {
	t.Helper()

	logger, err := kareerbotErrors.New("error")
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	cfg := &config.Config{}
	s := &Server{
		Host:           "localhost",
		Port:           "0",
		Version:        "test",
		AppConfig:      cfg,
		MaxRequestSize: 1024 * 1024,
		Upload: config.UploadConfig{
			MaxFileSize: 1024 * 1024,
			TempDir:     t.TempDir(),
		},
		Logger: logger,
		newAIService: func(cfg *config.OperationAIConfig, operationType string, logger *kareerbotErrors.Logger) (*ai.Service, error) {
			return &ai.Service{Provider: provider}, nil
		},
	}

	om, err := observability.NewObservabilityManager(observability.ObservabilityConfig{Enabled: false}, cfg)
	if err != nil {
		t.Fatalf("failed to create observability manager: %v", err)
	}

	return s, om
}

func threeAndThree() types.ReviewResumeOutput {
	return types.ReviewResumeOutput{
		Feedback: types.Feedback{
			Strengths:    []string{"clear impact statements", "strong technical depth", "good progression"},
			Improvements: []string{"quantify outcomes", "tighten the summary", "add relevant keywords"},
		},
	}
}

func postJSON(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestReviewHandler(t *testing.T) {
	provider := &fakeProvider{reviewOutput: threeAndThree()}
	s, om := newTestServer(t, provider)
	handler := s.createReviewHandler(om)

	rec := postJSON(t, handler, `{"resumeText": "Jane Doe. Senior engineer with ten years of experience."}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp types.ReviewResumeOutput
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Feedback.Strengths) != types.FeedbackArity {
		t.Errorf("expected %d strengths, got %d", types.FeedbackArity, len(resp.Feedback.Strengths))
	}
	if len(resp.Feedback.Improvements) != types.FeedbackArity {
		t.Errorf("expected %d improvements, got %d", types.FeedbackArity, len(resp.Feedback.Improvements))
	}
	if provider.calls != 1 {
		t.Errorf("expected 1 provider call, got %d", provider.calls)
	}
}

func TestReviewHandlerMissingResumeText(t *testing.T) {
	provider := &fakeProvider{reviewOutput: threeAndThree()}
	s, om := newTestServer(t, provider)
	handler := s.createReviewHandler(om)

	tests := []struct {
		name string
		body string
	}{
		{"empty object", `{}`},
		{"blank text", `{"resumeText": "   "}`},
		{"wrong type", `{"resumeText": 42}`},
		{"not json", `resumeText=hello`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, handler, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
		})
	}

	if provider.calls != 0 {
		t.Errorf("invalid requests must not reach the provider, got %d calls", provider.calls)
	}
}

func TestReviewHandlerProviderFailure(t *testing.T) {
	rawReply := `{"strengths": ["only one"], "improvements": []}`
	provider := &fakeProvider{
		reviewErr: kareerbotErrors.NewAIError(kareerbotErrors.ErrCodeMalformedReply,
			"AI reply did not contain the expected feedback shape", nil).
			WithContext("raw_reply", rawReply),
	}
	s, om := newTestServer(t, provider)
	handler := s.createReviewHandler(om)

	rec := postJSON(t, handler, `{"resumeText": "Jane Doe, engineer."}`)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if resp.Error != "Failed to get feedback from AI." {
		t.Errorf("expected generic provider-failure message, got %q", resp.Error)
	}
	if strings.Contains(rec.Body.String(), "only one") {
		t.Error("raw model reply must never be echoed to the client")
	}
}

func TestChatHandler(t *testing.T) {
	provider := &fakeProvider{chatOutput: types.ChatOutput{Reply: "Consider highlighting your platform work."}}
	s, om := newTestServer(t, provider)
	handler := s.createChatHandler(om)

	body := `{"message": "How do I pivot to infra?", "history": [{"sender": "user", "text": "hi"}, {"sender": "bot", "text": "hello"}]}`
	rec := postJSON(t, handler, body)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp types.ChatOutput
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Reply == "" {
		t.Error("expected a non-empty reply")
	}

	rec = postJSON(t, handler, `{"message": ""}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty message, got %d", rec.Code)
	}
}

func TestPlanHandler(t *testing.T) {
	provider := &fakeProvider{planOutput: types.PlanOutput{
		Plan: types.Plan{
			Goal: "become a staff engineer",
			Plan: []types.PlanStep{
				{Step: 1, Description: "Lead a cross-team project"},
				{Step: 2, Description: "Mentor two engineers"},
			},
		},
	}}
	s, om := newTestServer(t, provider)
	handler := s.createPlanHandler(om)

	rec := postJSON(t, handler, `{"goal": "become a staff engineer"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp types.PlanOutput
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Plan.Goal != "become a staff engineer" {
		t.Errorf("unexpected goal: %q", resp.Plan.Goal)
	}
	if len(resp.Plan.Plan) != 2 {
		t.Errorf("expected 2 steps, got %d", len(resp.Plan.Plan))
	}

	rec = postJSON(t, handler, `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing goal, got %d", rec.Code)
	}
}

func TestQueryHandler(t *testing.T) {
	provider := &fakeProvider{queryOutput: types.AgentQueryOutput{Reply: "Focus on distributed systems."}}
	s, om := newTestServer(t, provider)
	handler := s.createQueryHandler(om)

	rec := postJSON(t, handler, `{"query": "What should I learn next?", "persona": "blunt career coach"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp types.AgentQueryOutput
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Reply == "" {
		t.Error("expected a non-empty reply")
	}

	rec = postJSON(t, handler, `{"query": "  "}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for blank query, got %d", rec.Code)
	}
}

// buildUpload assembles a multipart body with a single "file" part.
func buildUpload(t *testing.T, fieldName, fileName, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="`+fieldName+`"; filename="`+fileName+`"`)
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("failed to create multipart part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("failed to write multipart part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	return &buf, writer.FormDataContentType()
}

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

func assertTempDirEmpty(t *testing.T, dir string) {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read temp dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("temp dir should be empty after the request, found %d entries", len(entries))
	}
}

func TestUploadHandlerDOCX(t *testing.T) {
	provider := &fakeProvider{reviewOutput: threeAndThree()}
	s, om := newTestServer(t, provider)
	handler := s.createUploadHandler(om)

	docxData := buildDocx(t, []string{"Jane Doe", "Senior Engineer at Example Corp"})
	body, contentType := buildUpload(t, "file", "resume.docx",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document", docxData)

	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp types.ReviewResumeOutput
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Feedback.Strengths) != types.FeedbackArity {
		t.Errorf("expected %d strengths, got %d", types.FeedbackArity, len(resp.Feedback.Strengths))
	}
	if provider.calls != 1 {
		t.Errorf("expected 1 provider call, got %d", provider.calls)
	}

	assertTempDirEmpty(t, s.Upload.TempDir)
}

func TestUploadHandlerUnsupportedType(t *testing.T) {
	provider := &fakeProvider{reviewOutput: threeAndThree()}
	s, om := newTestServer(t, provider)
	handler := s.createUploadHandler(om)

	body, contentType := buildUpload(t, "file", "resume.txt", "text/plain", []byte("plain text resume"))

	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if provider.calls != 0 {
		t.Errorf("unsupported uploads must not reach the provider, got %d calls", provider.calls)
	}

	assertTempDirEmpty(t, s.Upload.TempDir)
}

func TestUploadHandlerCorruptPDF(t *testing.T) {
	provider := &fakeProvider{reviewOutput: threeAndThree()}
	s, om := newTestServer(t, provider)
	handler := s.createUploadHandler(om)

	body, contentType := buildUpload(t, "file", "resume.pdf", "application/pdf", []byte("definitely not a pdf"))

	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", rec.Code, rec.Body.String())
	}
	if provider.calls != 0 {
		t.Errorf("failed extraction must not reach the provider, got %d calls", provider.calls)
	}
	if strings.Contains(rec.Body.String(), "definitely not a pdf") {
		t.Error("uploaded bytes must never be echoed to the client")
	}

	// Temp file must be gone even though extraction failed.
	assertTempDirEmpty(t, s.Upload.TempDir)
}

func TestUploadHandlerMissingFileField(t *testing.T) {
	provider := &fakeProvider{reviewOutput: threeAndThree()}
	s, om := newTestServer(t, provider)
	handler := s.createUploadHandler(om)

	body, contentType := buildUpload(t, "wrongfield", "resume.pdf", "application/pdf", []byte("%PDF-1.4"))

	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if provider.calls != 0 {
		t.Errorf("expected no provider calls, got %d", provider.calls)
	}

	assertTempDirEmpty(t, s.Upload.TempDir)
}

func TestAuthMiddleware(t *testing.T) {
	provider := &fakeProvider{reviewOutput: threeAndThree()}
	s, om := newTestServer(t, provider)
	s.APIKeys = map[string]bool{"valid-key-12345678": true}

	handler := s.authMiddleware(s.createReviewHandler(om))

	body := `{"resumeText": "Jane Doe, engineer."}`

	// Missing key
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without key, got %d", rec.Code)
	}

	// Invalid key
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", "wrong")
	rec = httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with invalid key, got %d", rec.Code)
	}

	// Valid key via header
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", "valid-key-12345678")
	rec = httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 with valid key, got %d: %s", rec.Code, rec.Body.String())
	}

	// Valid key via bearer token
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer valid-key-12345678")
	rec = httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 with bearer token, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"remote addr", "192.0.2.10:1234", nil, "192.0.2.10"},
		{"x-forwarded-for", "192.0.2.10:1234", map[string]string{"X-Forwarded-For": "198.51.100.7, 192.0.2.1"}, "198.51.100.7"},
		{"x-real-ip", "192.0.2.10:1234", map[string]string{"X-Real-IP": "203.0.113.5"}, "203.0.113.5"},
		{"invalid xff ignored", "192.0.2.10:1234", map[string]string{"X-Forwarded-For": "not-an-ip"}, "192.0.2.10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := getClientIP(req); got != tt.want {
				t.Errorf("getClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
