package handlers_test

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"jan-server/services/quadchart-api/internal/config"
	"jan-server/services/quadchart-api/internal/domain/artifact"
	"jan-server/services/quadchart-api/internal/domain/generation"
	"jan-server/services/quadchart-api/internal/domain/quadchart"
	"jan-server/services/quadchart-api/internal/domain/template"
	"jan-server/services/quadchart-api/internal/infrastructure/auth"
	chartrepo "jan-server/services/quadchart-api/internal/infrastructure/repository/quadchart"
	"jan-server/services/quadchart-api/internal/infrastructure/storage"
	"jan-server/services/quadchart-api/internal/interfaces/httpserver/handlers"
	v1 "jan-server/services/quadchart-api/internal/interfaces/httpserver/routes/v1"
	"jan-server/services/quadchart-api/internal/utils/platformerrors"
)

type testEnv struct {
	router    *gin.Engine
	cfg       *config.Config
	templates *MockTemplateService
	generator *MockGenerationService
	charts    quadchart.Service
	artifacts artifact.Service
}

func setupTestRouter(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		MaxTemplateBytes: 4096,
		UploadTempDir:    t.TempDir(),
		OutputDir:        t.TempDir(),
	}
	store, err := storage.NewLocalArtifactStore(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to create artifact store: %v", err)
	}

	env := &testEnv{
		cfg:       cfg,
		templates: &MockTemplateService{},
		generator: &MockGenerationService{},
		charts:    quadchart.NewService(chartrepo.NewInMemoryRepository(), zerolog.Nop()),
		artifacts: artifact.NewService(store, zerolog.Nop()),
	}
	provider := handlers.NewProvider(cfg, env.templates, env.charts, env.generator, env.artifacts, zerolog.Nop())

	env.router = gin.New()
	v1.NewRoutes(provider).Register(env.router, func(c *gin.Context) {
		if subject := c.GetHeader(testSubjectHeader); subject != "" {
			c.Set(auth.ContextKeySubject, subject)
		}
		c.Next()
	})
	return env
}

// testSubjectHeader stands in for a verified token subject.
const testSubjectHeader = "X-Test-Subject"

func jsonRequest(method, target, body, subject string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if subject != "" {
		req.Header.Set(testSubjectHeader, subject)
	}
	return req
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) writeArtifact(t *testing.T, body string) string {
	t.Helper()
	name, path, err := e.artifacts.Allocate("qc1")
	if err != nil {
		t.Fatalf("Failed to allocate artifact: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("Failed to write artifact: %v", err)
	}
	return name
}

func errorType(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body platformerrors.HTTPErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse error response: %v", err)
	}
	if body.Error == nil {
		t.Fatalf("Expected error body, got %s", w.Body.String())
	}
	return body.Error.Type
}

func zipBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("ppt/presentation.xml")
	if err != nil {
		t.Fatalf("Failed to create zip entry: %v", err)
	}
	if _, err := f.Write([]byte("<p:presentation/>")); err != nil {
		t.Fatalf("Failed to write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to close zip: %v", err)
	}
	return buf.Bytes()
}

func uploadRequest(t *testing.T, fields map[string]string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for key, value := range fields {
		if err := mw.WriteField(key, value); err != nil {
			t.Fatalf("Failed to write field: %v", err)
		}
	}
	if content != nil {
		part, err := mw.CreateFormFile("template", "Standard Quad.pptx")
		if err != nil {
			t.Fatalf("Failed to create form file: %v", err)
		}
		if _, err := part.Write(content); err != nil {
			t.Fatalf("Failed to write form file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("Failed to close multipart writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/v1/templates/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestTemplateHandler_Upload(t *testing.T) {
	env := setupTestRouter(t)

	var stagedPath string
	var gotInfo template.RegisterInfo
	env.templates.RegisterFunc = func(ctx context.Context, info template.RegisterInfo, uploadedPath string) (*template.RegisterResult, error) {
		stagedPath = uploadedPath
		gotInfo = info
		if _, err := os.Stat(uploadedPath); err != nil {
			t.Errorf("Expected staged upload to exist, got %v", err)
		}
		return &template.RegisterResult{
			Template:        &template.Template{ID: "tpl_1", Name: info.Name, Placeholders: []string{"[Opportunity Name]"}},
			Degraded:        true,
			IgnoredMappings: []string{"[Customer]"},
			Warning:         platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeAnalysisFailed, "analyzer exited", nil, "test-001"),
		}, nil
	}

	w := env.do(uploadRequest(t, map[string]string{
		"client":   "Space Force",
		"mappings": `{"[Customer]":{"field":"client_name","type":"text"}}`,
	}, zipBytes(t)))

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	if gotInfo.Name != "Standard Quad" {
		t.Errorf("Expected name from file name, got %q", gotInfo.Name)
	}
	if gotInfo.Client != "Space Force" {
		t.Errorf("Expected client 'Space Force', got %q", gotInfo.Client)
	}
	if gotInfo.Mappings["[Customer]"].Field != "client_name" {
		t.Errorf("Expected parsed mappings, got %v", gotInfo.Mappings)
	}
	if _, err := os.Stat(stagedPath); !os.IsNotExist(err) {
		t.Errorf("Expected staged upload to be cleaned up, got %v", err)
	}

	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response["degraded"] != true {
		t.Errorf("Expected degraded response, got %v", response["degraded"])
	}
	warning, _ := response["warning"].(string)
	if !strings.Contains(warning, "default placeholders") || !strings.Contains(warning, "[Customer]") {
		t.Errorf("Expected analysis and mapping warnings, got %q", warning)
	}
	if ignored, _ := response["ignoredMappings"].([]interface{}); len(ignored) != 1 || ignored[0] != "[Customer]" {
		t.Errorf("Expected ignoredMappings [[Customer]], got %v", response["ignoredMappings"])
	}
}

func TestTemplateHandler_UploadRejections(t *testing.T) {
	tests := []struct {
		name       string
		content    []byte
		mappings   string
		wantStatus int
	}{
		{name: "missing file", content: nil, wantStatus: http.StatusBadRequest},
		{name: "not a presentation", content: []byte("just some text, definitely not a zip"), wantStatus: http.StatusBadRequest},
		{name: "bad mappings", content: []byte("PK"), mappings: "{not json", wantStatus: http.StatusBadRequest},
		{name: "too large", content: bytes.Repeat([]byte("x"), 8192), wantStatus: http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestRouter(t)
			env.templates.RegisterFunc = func(ctx context.Context, info template.RegisterInfo, uploadedPath string) (*template.RegisterResult, error) {
				t.Error("Register must not be called for a rejected upload")
				return nil, nil
			}

			fields := map[string]string{}
			if tt.mappings != "" {
				fields["mappings"] = tt.mappings
			}
			w := env.do(uploadRequest(t, fields, tt.content))
			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}

			entries, _ := os.ReadDir(env.cfg.UploadTempDir)
			if len(entries) != 0 {
				t.Errorf("Expected no staged files, found %d", len(entries))
			}
		})
	}
}

func TestTemplateHandler_DeleteModes(t *testing.T) {
	env := setupTestRouter(t)

	var deactivated, purged string
	env.templates.DeactivateFunc = func(ctx context.Context, id string) error {
		deactivated = id
		return nil
	}
	env.templates.PurgeFunc = func(ctx context.Context, id string) error {
		purged = id
		return nil
	}

	w := env.do(httptest.NewRequest(http.MethodDelete, "/v1/templates/tpl_a", nil))
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Code)
	}
	w = env.do(httptest.NewRequest(http.MethodDelete, "/v1/templates/tpl_b?permanent=true", nil))
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Code)
	}

	if deactivated != "tpl_a" {
		t.Errorf("Expected tpl_a deactivated, got %q", deactivated)
	}
	if purged != "tpl_b" {
		t.Errorf("Expected tpl_b purged, got %q", purged)
	}
}

func TestTemplateHandler_GetNotFound(t *testing.T) {
	env := setupTestRouter(t)
	env.templates.GetFunc = func(ctx context.Context, id string) (*template.Template, error) {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound, "template not found", nil, "test-404")
	}

	w := env.do(httptest.NewRequest(http.MethodGet, "/v1/templates/tpl_missing", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestTemplateHandler_ListFilters(t *testing.T) {
	env := setupTestRouter(t)

	var got template.Filter
	env.templates.ListFunc = func(ctx context.Context, filter template.Filter) ([]*template.Template, error) {
		got = filter
		return []*template.Template{{ID: "tpl_1"}}, nil
	}

	w := env.do(httptest.NewRequest(http.MethodGet, "/v1/templates?activeOnly=true&parentId=tpl_0&client=Navy", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !got.ActiveOnly || got.ParentID == nil || *got.ParentID != "tpl_0" || got.Client != "Navy" {
		t.Errorf("Unexpected filter: %+v", got)
	}

	w = env.do(httptest.NewRequest(http.MethodGet, "/v1/templates?activeOnly=maybe", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestQuadChartHandler_GenerateMapsErrors(t *testing.T) {
	tests := []struct {
		name       string
		errType    platformerrors.ErrorType
		wantStatus int
	}{
		{name: "not found", errType: platformerrors.ErrorTypeNotFound, wantStatus: http.StatusNotFound},
		{name: "render failed", errType: platformerrors.ErrorTypeRenderFailed, wantStatus: http.StatusBadGateway},
		{name: "spawn failed", errType: platformerrors.ErrorTypeSpawnFailed, wantStatus: http.StatusBadGateway},
		{name: "timeout", errType: platformerrors.ErrorTypeRenderTimeout, wantStatus: http.StatusGatewayTimeout},
		{name: "validation", errType: platformerrors.ErrorTypeValidation, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestRouter(t)
			env.generator.GenerateQuadChartFunc = func(ctx context.Context, chartID, templateID string) (*generation.Result, error) {
				return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, tt.errType, "generation failed", nil, "test-gen")
			}

			w := env.do(httptest.NewRequest(http.MethodPost, "/v1/quad-charts/qc_1/generate-pptx", nil))
			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if errorType(t, w) == "" {
				t.Error("Expected error type in response")
			}
		})
	}
}

func TestQuadChartHandler_Generate(t *testing.T) {
	env := setupTestRouter(t)

	var gotChart, gotTemplate string
	env.generator.GenerateQuadChartFunc = func(ctx context.Context, chartID, templateID string) (*generation.Result, error) {
		gotChart, gotTemplate = chartID, templateID
		return &generation.Result{
			FileName:      "quad_chart_qc1_x.pptx",
			DownloadURL:   "http://localhost:8190/v1/quad-charts/download/quad_chart_qc1_x.pptx",
			TemplateID:    templateID,
			OwnerID:       chartID,
			Substitutions: 3,
			GeneratedAt:   time.Now(),
		}, nil
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/quad-charts/qc_1/generate-pptx", strings.NewReader(`{"templateId":"tpl_std"}`))
	req.Header.Set("Content-Type", "application/json")
	w := env.do(req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if gotChart != "qc_1" || gotTemplate != "tpl_std" {
		t.Errorf("Unexpected generation args %q %q", gotChart, gotTemplate)
	}

	var response struct {
		Success bool `json:"success"`
		Data    struct {
			DownloadURL  string `json:"downloadUrl"`
			Replacements int    `json:"replacements"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if !response.Success || response.Data.Replacements != 3 {
		t.Errorf("Unexpected response %+v", response)
	}
	if !strings.HasSuffix(response.Data.DownloadURL, "/v1/quad-charts/download/quad_chart_qc1_x.pptx") {
		t.Errorf("Unexpected download url %q", response.Data.DownloadURL)
	}
}

func TestQuadChartHandler_Batch(t *testing.T) {
	env := setupTestRouter(t)
	env.generator.GenerateBatchFunc = func(ctx context.Context, chartIDs []string, templateID string) []generation.BatchItem {
		return []generation.BatchItem{
			{ChartID: chartIDs[0], Success: true, Result: &generation.Result{FileName: "a.pptx"}},
			{ChartID: chartIDs[1], Error: "quad chart not found"},
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/quad-charts/batch/generate", strings.NewReader(`{"chartIds":["qc_1","qc_2"],"templateId":"tpl_std"}`))
	req.Header.Set("Content-Type", "application/json")
	w := env.do(req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response["succeeded"] != float64(1) || response["failed"] != float64(1) {
		t.Errorf("Unexpected counts: %v", response)
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/quad-charts/batch/generate", strings.NewReader(`{"chartIds":[]}`))
	req.Header.Set("Content-Type", "application/json")
	if w := env.do(req); w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for empty batch, got %d", w.Code)
	}
}

func TestQuadChartHandler_CRUD(t *testing.T) {
	env := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/quad-charts", strings.NewReader(`{"opportunityName":"Acme Radar","contractValue":2500000}`))
	req.Header.Set("Content-Type", "application/json")
	w := env.do(req)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var created struct {
		Data quadchart.QuadChart `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if created.Data.ID == "" || created.Data.Status != quadchart.StatusDraft {
		t.Errorf("Unexpected created chart %+v", created.Data)
	}

	w = env.do(httptest.NewRequest(http.MethodGet, "/v1/quad-charts?search=radar", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	var list map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if list["total"] != float64(1) {
		t.Errorf("Expected one chart, got %v", list["total"])
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/quad-charts", strings.NewReader(`{"companyName":"Acme"}`))
	req.Header.Set("Content-Type", "application/json")
	if w := env.do(req); w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 without opportunity name, got %d", w.Code)
	}

	if w := env.do(httptest.NewRequest(http.MethodDelete, "/v1/quad-charts/"+created.Data.ID, nil)); w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Code)
	}
	if w := env.do(httptest.NewRequest(http.MethodGet, "/v1/quad-charts/"+created.Data.ID, nil)); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 after delete, got %d", w.Code)
	}
}

func TestQuadChartHandler_PreviewPassesTemplate(t *testing.T) {
	env := setupTestRouter(t)
	env.generator.PreviewQuadChartFunc = func(ctx context.Context, chartID, templateID string) (*generation.Preview, error) {
		return &generation.Preview{
			TemplateID:    templateID,
			OwnerID:       chartID,
			Substitutions: map[string]string{"[Opportunity Name]": "Acme"},
			Unresolved:    []string{"[Risks]"},
		}, nil
	}

	w := env.do(httptest.NewRequest(http.MethodGet, "/v1/quad-charts/qc_1/preview?templateId=tpl_std", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"templateId":"tpl_std"`) || !strings.Contains(w.Body.String(), `"[Risks]"`) {
		t.Errorf("Unexpected preview body %s", w.Body.String())
	}
}

func TestArtifactHandler_DownloadOnce(t *testing.T) {
	env := setupTestRouter(t)
	name := env.writeArtifact(t, "pptx-bytes")

	w := env.do(httptest.NewRequest(http.MethodGet, "/v1/quad-charts/download/"+name, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if w.Body.String() != "pptx-bytes" {
		t.Errorf("Unexpected body %q", w.Body.String())
	}
	if got := w.Header().Get("Content-Disposition"); !strings.Contains(got, name) {
		t.Errorf("Expected attachment header with %s, got %q", name, got)
	}
	if got := w.Header().Get("Content-Type"); got != "application/vnd.openxmlformats-officedocument.presentationml.presentation" {
		t.Errorf("Unexpected content type %q", got)
	}

	w = env.do(httptest.NewRequest(http.MethodGet, "/v1/quad-charts/download/"+name, nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 on second download, got %d", w.Code)
	}
}

func TestArtifactHandler_RejectsForeignNames(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do(httptest.NewRequest(http.MethodGet, "/v1/quad-charts/download/secrets.pptx", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
	if got := errorType(t, w); got == "" {
		t.Error("Expected error type")
	}
	if strings.Contains(w.Header().Get("Content-Type"), "presentation") {
		t.Error("Error responses must not carry the document content type")
	}
}

func TestQuadChartHandler_DownloadGeneratesAndStreams(t *testing.T) {
	env := setupTestRouter(t)
	name := env.writeArtifact(t, "generated")
	env.generator.GenerateQuadChartFunc = func(ctx context.Context, chartID, templateID string) (*generation.Result, error) {
		return &generation.Result{FileName: name, OwnerID: chartID}, nil
	}

	w := env.do(httptest.NewRequest(http.MethodGet, "/v1/quad-charts/qc_1/download", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if w.Body.String() != "generated" {
		t.Errorf("Unexpected body %q", w.Body.String())
	}

	items, err := env.artifacts.List(context.Background())
	if err != nil {
		t.Fatalf("Failed to list artifacts: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("Expected artifact to be deleted after download, found %d", len(items))
	}
}

func TestArtifactHandler_ListAndDelete(t *testing.T) {
	env := setupTestRouter(t)
	name := env.writeArtifact(t, "one")

	w := env.do(httptest.NewRequest(http.MethodGet, "/v1/artifacts", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), name) {
		t.Errorf("Expected %s in list, got %s", name, w.Body.String())
	}

	if w := env.do(httptest.NewRequest(http.MethodDelete, "/v1/artifacts/"+name, nil)); w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Code)
	}
	if w := env.do(httptest.NewRequest(http.MethodDelete, "/v1/artifacts/"+name, nil)); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for deleted artifact, got %d", w.Code)
	}
}

func TestSchemaHandler(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do(httptest.NewRequest(http.MethodGet, "/v1/schemas/quad-chart", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var schema map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &schema); err != nil {
		t.Fatalf("Failed to parse schema: %v", err)
	}
	properties, ok := schema["properties"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected properties in schema, got %v", schema)
	}
	if _, ok := properties["opportunityName"]; !ok {
		t.Error("Expected opportunityName property")
	}

	w = env.do(httptest.NewRequest(http.MethodGet, "/v1/schemas/unknown", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}
