package handlers_test

import (
	"context"

	"jan-server/services/quadchart-api/internal/domain/generation"
	"jan-server/services/quadchart-api/internal/domain/template"
)

// MockTemplateService is a mock implementation of template.Service for testing.
type MockTemplateService struct {
	ListFunc       func(ctx context.Context, filter template.Filter) ([]*template.Template, error)
	GetFunc        func(ctx context.Context, id string) (*template.Template, error)
	RegisterFunc   func(ctx context.Context, info template.RegisterInfo, uploadedPath string) (*template.RegisterResult, error)
	UpdateFunc     func(ctx context.Context, id string, patch template.Patch) (*template.Template, error)
	DeactivateFunc func(ctx context.Context, id string) error
	PurgeFunc      func(ctx context.Context, id string) error
	CloneFunc      func(ctx context.Context, id string, info template.CloneInfo) (*template.Template, error)
	HistoryFunc    func(ctx context.Context, id string) ([]*template.Template, error)
}

func (m *MockTemplateService) List(ctx context.Context, filter template.Filter) ([]*template.Template, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	return nil, nil
}

func (m *MockTemplateService) Get(ctx context.Context, id string) (*template.Template, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockTemplateService) Register(ctx context.Context, info template.RegisterInfo, uploadedPath string) (*template.RegisterResult, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, info, uploadedPath)
	}
	return nil, nil
}

func (m *MockTemplateService) Update(ctx context.Context, id string, patch template.Patch) (*template.Template, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, patch)
	}
	return nil, nil
}

func (m *MockTemplateService) Deactivate(ctx context.Context, id string) error {
	if m.DeactivateFunc != nil {
		return m.DeactivateFunc(ctx, id)
	}
	return nil
}

func (m *MockTemplateService) Purge(ctx context.Context, id string) error {
	if m.PurgeFunc != nil {
		return m.PurgeFunc(ctx, id)
	}
	return nil
}

func (m *MockTemplateService) Clone(ctx context.Context, id string, info template.CloneInfo) (*template.Template, error) {
	if m.CloneFunc != nil {
		return m.CloneFunc(ctx, id, info)
	}
	return nil, nil
}

func (m *MockTemplateService) History(ctx context.Context, id string) ([]*template.Template, error) {
	if m.HistoryFunc != nil {
		return m.HistoryFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockTemplateService) FilePath(tpl *template.Template) string {
	return "/templates/" + tpl.FileName
}

// MockGenerationService is a mock implementation of generation.Service for testing.
type MockGenerationService struct {
	ProcessTemplateFunc   func(ctx context.Context, templateID string, data map[string]any) (*generation.Result, error)
	GenerateQuadChartFunc func(ctx context.Context, chartID, templateID string) (*generation.Result, error)
	PreviewQuadChartFunc  func(ctx context.Context, chartID, templateID string) (*generation.Preview, error)
	GenerateBatchFunc     func(ctx context.Context, chartIDs []string, templateID string) []generation.BatchItem
	GenerateSampleFunc    func(ctx context.Context, templateID string) (*generation.SampleResult, error)
}

func (m *MockGenerationService) ProcessTemplate(ctx context.Context, templateID string, data map[string]any) (*generation.Result, error) {
	if m.ProcessTemplateFunc != nil {
		return m.ProcessTemplateFunc(ctx, templateID, data)
	}
	return nil, nil
}

func (m *MockGenerationService) GenerateQuadChart(ctx context.Context, chartID, templateID string) (*generation.Result, error) {
	if m.GenerateQuadChartFunc != nil {
		return m.GenerateQuadChartFunc(ctx, chartID, templateID)
	}
	return nil, nil
}

func (m *MockGenerationService) PreviewQuadChart(ctx context.Context, chartID, templateID string) (*generation.Preview, error) {
	if m.PreviewQuadChartFunc != nil {
		return m.PreviewQuadChartFunc(ctx, chartID, templateID)
	}
	return nil, nil
}

func (m *MockGenerationService) GenerateBatch(ctx context.Context, chartIDs []string, templateID string) []generation.BatchItem {
	if m.GenerateBatchFunc != nil {
		return m.GenerateBatchFunc(ctx, chartIDs, templateID)
	}
	return nil
}

func (m *MockGenerationService) GenerateSample(ctx context.Context, templateID string) (*generation.SampleResult, error) {
	if m.GenerateSampleFunc != nil {
		return m.GenerateSampleFunc(ctx, templateID)
	}
	return nil, nil
}
