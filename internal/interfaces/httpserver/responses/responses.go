package responses

import (
	"strings"

	"jan-server/services/quadchart-api/internal/domain/artifact"
	"jan-server/services/quadchart-api/internal/domain/generation"
	"jan-server/services/quadchart-api/internal/domain/quadchart"
	"jan-server/services/quadchart-api/internal/domain/template"
)

// DataResponse wraps a single resource.
type DataResponse[T any] struct {
	Data T `json:"data"`
}

// ListResponse wraps a collection.
type ListResponse[T any] struct {
	Data  []T   `json:"data"`
	Total int64 `json:"total"`
}

func NewList[T any](items []T, total int64) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Data: items, Total: total}
}

// TemplateUploadResponse reports a registered template. Warning is set for degraded
// registrations and for caller mappings that were left out.
type TemplateUploadResponse struct {
	Data            *template.Template `json:"data"`
	Degraded        bool               `json:"degraded"`
	IgnoredMappings []string           `json:"ignoredMappings,omitempty"`
	Warning         string             `json:"warning,omitempty"`
}

func BuildTemplateUploadResponse(result *template.RegisterResult) *TemplateUploadResponse {
	resp := &TemplateUploadResponse{
		Data:            result.Template,
		Degraded:        result.Degraded,
		IgnoredMappings: result.IgnoredMappings,
	}
	var notes []string
	if result.Degraded {
		notes = append(notes, "template analysis failed; default placeholders were used")
	}
	if len(result.IgnoredMappings) > 0 {
		notes = append(notes, "mappings ignored for "+strings.Join(result.IgnoredMappings, ", "))
	}
	resp.Warning = strings.Join(notes, "; ")
	return resp
}

// GenerationResponse describes a generated document.
type GenerationResponse struct {
	Success bool               `json:"success"`
	Data    *generation.Result `json:"data"`
}

func BuildGenerationResponse(result *generation.Result) *GenerationResponse {
	return &GenerationResponse{Success: true, Data: result}
}

// BatchGenerationResponse summarizes a batch run.
type BatchGenerationResponse struct {
	Data      []generation.BatchItem `json:"data"`
	Succeeded int                    `json:"succeeded"`
	Failed    int                    `json:"failed"`
}

func BuildBatchGenerationResponse(items []generation.BatchItem) *BatchGenerationResponse {
	resp := &BatchGenerationResponse{Data: items}
	for _, item := range items {
		if item.Success {
			resp.Succeeded++
		} else {
			resp.Failed++
		}
	}
	return resp
}

type (
	TemplateResponse   = DataResponse[*template.Template]
	QuadChartResponse  = DataResponse[*quadchart.QuadChart]
	PreviewResponse    = DataResponse[*generation.Preview]
	ArtifactList       = ListResponse[artifact.Info]
	EventResponse      = DataResponse[*quadchart.Event]
	EventList          = ListResponse[*quadchart.Event]
	StatisticsResponse = DataResponse[*quadchart.Statistics]
	SampleResponse     = DataResponse[*generation.SampleResult]
)
