package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"jan-server/services/quadchart-api/internal/domain/generation"
	"jan-server/services/quadchart-api/internal/domain/quadchart"
	"jan-server/services/quadchart-api/internal/domain/template"
	"jan-server/services/quadchart-api/internal/utils/platformerrors"
)

func decodeChart(t *testing.T, w *httptest.ResponseRecorder) quadchart.QuadChart {
	t.Helper()
	var body struct {
		Data quadchart.QuadChart `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	return body.Data
}

func TestQuadChartHandler_ReviewWorkflow(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do(jsonRequest(http.MethodPost, "/v1/quad-charts", `{"opportunityName":"Acme Radar","status":"approved"}`, "author-1"))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 when creating an approved chart, got %d", w.Code)
	}

	w = env.do(jsonRequest(http.MethodPost, "/v1/quad-charts", `{"opportunityName":"Acme Radar","contractValue":"$2M"}`, "author-1"))
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	created := decodeChart(t, w)
	if created.CreatedBy != "author-1" {
		t.Errorf("Expected createdBy author-1, got %q", created.CreatedBy)
	}
	base := "/v1/quad-charts/" + created.ID

	w = env.do(jsonRequest(http.MethodPut, base, `{"opportunityName":"Acme Radar","status":"approved"}`, "author-1"))
	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409 when updating into approved, got %d", w.Code)
	}

	w = env.do(jsonRequest(http.MethodPost, base+"/approve", "", "reviewer-1"))
	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409 approving a draft, got %d", w.Code)
	}

	w = env.do(jsonRequest(http.MethodPost, base+"/submit", "", "author-1"))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200 on submit, got %d: %s", w.Code, w.Body.String())
	}
	if submitted := decodeChart(t, w); submitted.Status != quadchart.StatusSubmitted || submitted.SubmittedAt == nil {
		t.Errorf("Unexpected submitted chart %+v", submitted)
	}

	w = env.do(jsonRequest(http.MethodPost, base+"/reject", `{}`, "reviewer-1"))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 rejecting without a reason, got %d", w.Code)
	}
	if got := errorType(t, w); got != "validation_error" {
		t.Errorf("Expected validation error, got %s", got)
	}

	w = env.do(jsonRequest(http.MethodPost, base+"/approve", `{"notes":"Ready for the board"}`, "reviewer-1"))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200 on approve, got %d: %s", w.Code, w.Body.String())
	}
	if approved := decodeChart(t, w); approved.ApprovedBy != "reviewer-1" || approved.Status != quadchart.StatusApproved {
		t.Errorf("Unexpected approved chart %+v", approved)
	}

	w = env.do(jsonRequest(http.MethodPost, base+"/comment", `{"comment":"Nice work"}`, "reviewer-1"))
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201 on comment, got %d: %s", w.Code, w.Body.String())
	}
	var comment struct {
		Data quadchart.Event `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &comment); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if comment.Data.Quadrant != quadchart.GeneralQuadrant || comment.Data.Actor != "reviewer-1" {
		t.Errorf("Unexpected comment %+v", comment.Data)
	}

	w = env.do(jsonRequest(http.MethodPost, base+"/comment", `{"comment":""}`, "reviewer-1"))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for an empty comment, got %d", w.Code)
	}

	w = env.do(jsonRequest(http.MethodGet, base+"/history", "", ""))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200 on history, got %d", w.Code)
	}
	var history struct {
		Data  []quadchart.Event `json:"data"`
		Total int64             `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &history); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	wantActions := []quadchart.EventAction{
		quadchart.ActionCommented, quadchart.ActionApproved, quadchart.ActionSubmitted, quadchart.ActionCreated,
	}
	if len(history.Data) != len(wantActions) || history.Total != int64(len(wantActions)) {
		t.Fatalf("Expected %d history entries, got %d", len(wantActions), len(history.Data))
	}
	for i, action := range wantActions {
		if history.Data[i].Action != action {
			t.Errorf("History entry %d: expected %s, got %s", i, action, history.Data[i].Action)
		}
	}

	if w := env.do(jsonRequest(http.MethodGet, "/v1/quad-charts/qc_missing/history", "", "")); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for unknown chart history, got %d", w.Code)
	}
}

func TestQuadChartHandler_Statistics(t *testing.T) {
	env := setupTestRouter(t)
	for _, body := range []string{
		`{"opportunityName":"One","companyName":"Acme","contractValue":"$1.5M"}`,
		`{"opportunityName":"Two","companyName":"Acme","contractValue":"500K"}`,
	} {
		if w := env.do(jsonRequest(http.MethodPost, "/v1/quad-charts", body, "")); w.Code != http.StatusCreated {
			t.Fatalf("Expected status 201, got %d", w.Code)
		}
	}

	w := env.do(jsonRequest(http.MethodGet, "/v1/quad-charts/statistics", "", ""))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		Data quadchart.Statistics `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if body.Data.Total != 2 || body.Data.ByStatus[quadchart.StatusDraft] != 2 {
		t.Errorf("Unexpected totals %+v", body.Data)
	}
	if body.Data.ContractValue.Total != "$2.0M" || body.Data.ContractValue.Count != 2 {
		t.Errorf("Unexpected contract value stats %+v", body.Data.ContractValue)
	}
	if len(body.Data.TopCompanies) != 1 || body.Data.TopCompanies[0].Count != 2 {
		t.Errorf("Unexpected top companies %+v", body.Data.TopCompanies)
	}
}

func TestQuadChartHandler_GenerateSample(t *testing.T) {
	env := setupTestRouter(t)
	var gotTemplate, gotActor string
	env.generator.GenerateSampleFunc = func(ctx context.Context, templateID string) (*generation.SampleResult, error) {
		gotTemplate = templateID
		gotActor = quadchart.ActorFromContext(ctx)
		if templateID == "" {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
				"templateId is required", nil, "test-sample-001")
		}
		return &generation.SampleResult{
			Chart:  &quadchart.QuadChart{ID: "qc_sample", OpportunityName: "Sample Quad Chart"},
			Result: &generation.Result{FileName: "quad_chart_qc_sample.pptx", OwnerID: "qc_sample"},
		}, nil
	}

	w := env.do(jsonRequest(http.MethodPost, "/v1/quad-charts/generate-sample", `{"templateId":"tpl_std"}`, "user-1"))
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	if gotTemplate != "tpl_std" || gotActor != "user-1" {
		t.Errorf("Expected tpl_std from user-1, got %q from %q", gotTemplate, gotActor)
	}
	if !strings.Contains(w.Body.String(), `"chart":{`) || !strings.Contains(w.Body.String(), `"pptx":{`) {
		t.Errorf("Unexpected sample body %s", w.Body.String())
	}

	w = env.do(jsonRequest(http.MethodPost, "/v1/quad-charts/generate-sample", "", ""))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 without a template, got %d", w.Code)
	}
}

func TestTemplateHandler_HistoryKeepsLineageOrder(t *testing.T) {
	env := setupTestRouter(t)
	env.templates.HistoryFunc = func(ctx context.Context, id string) ([]*template.Template, error) {
		return []*template.Template{{ID: "tpl_root"}, {ID: id}, {ID: "tpl_clone"}}, nil
	}

	w := env.do(httptest.NewRequest(http.MethodGet, "/v1/templates/tpl_mid/history", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	body := w.Body.String()
	root, mid, clone := strings.Index(body, "tpl_root"), strings.Index(body, "tpl_mid"), strings.Index(body, "tpl_clone")
	if root < 0 || !(root < mid && mid < clone) {
		t.Errorf("Expected ancestors, template, then clones; got %s", body)
	}
}
