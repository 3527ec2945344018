package generation

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"jan-server/services/quadchart-api/internal/domain/quadchart"
	"jan-server/services/quadchart-api/internal/domain/template"
	"jan-server/services/quadchart-api/internal/utils/platformerrors"
)

const downloadPath = "/v1/quad-charts/download/"

// Service turns records into rendered documents.
type Service interface {
	// ProcessTemplate renders a template from a flat field map using the template's field mappings.
	ProcessTemplate(ctx context.Context, templateID string, data map[string]any) (*Result, error)
	// GenerateQuadChart renders a stored chart record. An empty templateID falls back to the chart's template.
	GenerateQuadChart(ctx context.Context, chartID, templateID string) (*Result, error)
	// PreviewQuadChart returns the substitutions GenerateQuadChart would send to the renderer.
	PreviewQuadChart(ctx context.Context, chartID, templateID string) (*Preview, error)
	// GenerateBatch renders several charts one after another. Failures are reported per item.
	GenerateBatch(ctx context.Context, chartIDs []string, templateID string) []BatchItem
	// GenerateSample stores a demonstration chart filed against templateID and renders it.
	GenerateSample(ctx context.Context, templateID string) (*SampleResult, error)
}

// BatchItem is the outcome of one chart in a batch.
type BatchItem struct {
	ChartID string  `json:"chartId"`
	Success bool    `json:"success"`
	Result  *Result `json:"result,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// Options configures the generation service.
type Options struct {
	PublicBaseURL string
}

type service struct {
	templates template.Service
	charts    quadchart.Service
	renderer  Renderer
	artifacts ArtifactStore
	opts      Options
	now       func() time.Time
	log       zerolog.Logger
}

// NewService wires generation around the registry, the chart store and the renderer.
func NewService(templates template.Service, charts quadchart.Service, renderer Renderer, artifacts ArtifactStore, opts Options, log zerolog.Logger) Service {
	return &service{
		templates: templates,
		charts:    charts,
		renderer:  renderer,
		artifacts: artifacts,
		opts:      opts,
		now:       func() time.Time { return time.Now().UTC() },
		log:       log.With().Str("component", "generation-service").Logger(),
	}
}

func (s *service) ProcessTemplate(ctx context.Context, templateID string, data map[string]any) (*Result, error) {
	tpl, err := s.usableTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	values := Restrict(template.ApplyMappings(tpl.Mappings, data), tpl.Placeholders)
	return s.render(ctx, tpl, tpl.ID, values)
}

func (s *service) GenerateQuadChart(ctx context.Context, chartID, templateID string) (*Result, error) {
	chart, tpl, err := s.load(ctx, chartID, templateID)
	if err != nil {
		return nil, err
	}
	return s.render(ctx, tpl, chart.ID, chartSubstitutions(chart, tpl))
}

func (s *service) PreviewQuadChart(ctx context.Context, chartID, templateID string) (*Preview, error) {
	chart, tpl, err := s.load(ctx, chartID, templateID)
	if err != nil {
		return nil, err
	}
	values := chartSubstitutions(chart, tpl)

	unresolved := make([]string, 0)
	for _, token := range tpl.Placeholders {
		if values[token] == "" {
			unresolved = append(unresolved, token)
		}
	}
	return &Preview{
		TemplateID:    tpl.ID,
		OwnerID:       chart.ID,
		Substitutions: values,
		Unresolved:    unresolved,
	}, nil
}

func (s *service) GenerateBatch(ctx context.Context, chartIDs []string, templateID string) []BatchItem {
	items := make([]BatchItem, 0, len(chartIDs))
	for _, id := range chartIDs {
		if err := ctx.Err(); err != nil {
			items = append(items, BatchItem{ChartID: id, Error: err.Error()})
			continue
		}
		result, err := s.GenerateQuadChart(ctx, id, templateID)
		if err != nil {
			items = append(items, BatchItem{ChartID: id, Error: userMessage(err)})
			continue
		}
		items = append(items, BatchItem{ChartID: id, Success: true, Result: result})
	}
	return items
}

func (s *service) load(ctx context.Context, chartID, templateID string) (*quadchart.QuadChart, *template.Template, error) {
	chart, err := s.charts.Get(ctx, chartID)
	if err != nil {
		return nil, nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load quad chart")
	}
	if strings.TrimSpace(templateID) == "" {
		templateID = chart.TemplateID
	}
	if strings.TrimSpace(templateID) == "" {
		return nil, nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"no template selected for quad chart", nil, "generation-template-missing-001")
	}
	tpl, err := s.usableTemplate(ctx, templateID)
	if err != nil {
		return nil, nil, err
	}
	return chart, tpl, nil
}

func (s *service) usableTemplate(ctx context.Context, templateID string) (*template.Template, error) {
	tpl, err := s.templates.Get(ctx, templateID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load template")
	}
	if !tpl.Active {
		return nil, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"template is inactive", nil, "generation-template-inactive-001", map[string]any{"template_id": tpl.ID})
	}
	return tpl, nil
}

func (s *service) render(ctx context.Context, tpl *template.Template, owner string, values map[string]string) (*Result, error) {
	name, dest, err := s.artifacts.Allocate(owner)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to allocate output file")
	}

	started := time.Now()
	path, err := s.renderer.Render(ctx, s.templates.FilePath(tpl), values, dest)
	if err != nil {
		s.artifacts.Discard(name)
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "document generation failed")
	}

	s.log.Info().
		Str("template_id", tpl.ID).
		Str("owner_id", owner).
		Str("file", name).
		Int("replacements", len(values)).
		Dur("duration", time.Since(started)).
		Msg("document generated")

	return &Result{
		FileName:      name,
		Path:          path,
		DownloadURL:   s.opts.PublicBaseURL + downloadPath + name,
		TemplateID:    tpl.ID,
		OwnerID:       owner,
		Substitutions: len(values),
		Values:        values,
		GeneratedAt:   s.now(),
	}, nil
}

// Restrict keeps only the tokens the template declares.
func Restrict(values map[string]string, placeholders []string) map[string]string {
	out := make(map[string]string, len(placeholders))
	for _, token := range placeholders {
		if v, ok := values[token]; ok {
			out[token] = v
		}
	}
	return out
}

// chartSubstitutions combines the chart dictionary with the template's own field
// mappings. Dictionary values win; mappings only fill tokens the dictionary left empty.
func chartSubstitutions(chart *quadchart.QuadChart, tpl *template.Template) map[string]string {
	values := quadchart.BuildDictionary(chart)
	for token, v := range template.ApplyMappings(tpl.Mappings, chartFields(chart)) {
		if values[token] == "" {
			values[token] = v
		}
	}
	return Restrict(values, tpl.Placeholders)
}

// chartFields exposes a chart under the snake_case field names used by template mappings.
func chartFields(chart *quadchart.QuadChart) map[string]any {
	fields := make(map[string]any, 24+len(chart.AdditionalData))
	for key, value := range chart.AdditionalData {
		fields[key] = value
		fields[snakeCase(key)] = value
	}

	set := func(value string, keys ...string) {
		if value == "" {
			return
		}
		for _, key := range keys {
			fields[key] = value
		}
	}
	set(chart.OpportunityName, "opportunity_name", "opportunity", "title")
	set(chart.CompanyName, "company_name", "company")
	set(chart.ClientName, "client_name", "client")
	set(chart.SubmissionDate, "submission_date", "date")
	set(string(chart.ContractValue), "contract_value")
	set(chart.RFPDate, "rfp_date")
	set(chart.AwardDate, "award_date")
	set(chart.TechnicalPOC, "technical_poc")
	set(chart.Email, "email")
	set(string(chart.Phone), "phone")
	set(chart.Status.DisplayName(), "status")
	set(quadchart.FormatQuadrant(chart.TechnicalData), "technical_approach")
	set(quadchart.FormatQuadrant(chart.ManagementData), "management_approach")
	set(quadchart.FormatQuadrant(chart.PastPerformanceData), "past_performance")
	set(quadchart.FormatQuadrant(chart.CostScheduleData), "cost_schedule")
	return fields
}

func snakeCase(key string) string {
	var b strings.Builder
	for i, r := range key {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func userMessage(err error) string {
	if pe := platformerrors.GetPlatformError(err); pe != nil {
		return pe.Message
	}
	return err.Error()
}

// SortedTokens returns the keys of a substitution map in a stable order.
func SortedTokens(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
