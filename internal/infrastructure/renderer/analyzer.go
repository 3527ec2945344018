package renderer

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog"

	"jan-server/services/quadchart-api/internal/domain/template"
	"jan-server/services/quadchart-api/internal/utils/platformerrors"
)

type analysisPayload struct {
	SlideCount int            `json:"slide_count"`
	Slides     []slidePayload `json:"slides"`
	Error      string         `json:"error"`
}

type slidePayload struct {
	SlideNumber  int            `json:"slide_number"`
	Shapes       []shapePayload `json:"shapes"`
	Placeholders []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"placeholders"`
}

type shapePayload struct {
	Name      string `json:"name"`
	TextFrame *struct {
		Text string `json:"text"`
	} `json:"text_frame"`
	Table *struct {
		Cells []struct {
			Text string `json:"text"`
		} `json:"cells"`
	} `json:"table"`
	Shapes []shapePayload `json:"shapes"`
}

// Analyzer describes template slides by running the analysis script:
// interpreter script <template>.
type Analyzer struct {
	proc *process
}

func NewAnalyzer(opts Options, log zerolog.Logger) *Analyzer {
	return &Analyzer{proc: &process{
		operation:   "analyze",
		opts:        opts,
		failureType: platformerrors.ErrorTypeAnalysisFailed,
		timeoutType: platformerrors.ErrorTypeAnalysisFailed,
		log:         log.With().Str("component", "pptx-analyzer").Logger(),
	}}
}

func (a *Analyzer) Analyze(ctx context.Context, templatePath string) (*template.Analysis, error) {
	out, err := a.proc.run(ctx, templatePath, templatePath)
	if err != nil {
		return nil, err
	}

	var payload analysisPayload
	raw := lastJSONLine(out.stdout)
	if raw == nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeAnalysisFailed,
			"analyzer produced no JSON output", nil, "analyze-empty-001")
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeAnalysisFailed,
			"analyzer output is not valid JSON", err, "analyze-decode-001")
	}
	if payload.Error != "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeAnalysisFailed,
			payload.Error, nil, "analyze-reported-001")
	}
	return toAnalysis(&payload), nil
}

func toAnalysis(payload *analysisPayload) *template.Analysis {
	analysis := &template.Analysis{
		SlideCount: payload.SlideCount,
		Slides:     make([]template.Slide, 0, len(payload.Slides)),
	}
	if analysis.SlideCount == 0 {
		analysis.SlideCount = len(payload.Slides)
	}

	for i, s := range payload.Slides {
		index := s.SlideNumber
		if index == 0 {
			index = i + 1
		}
		analysis.Slides = append(analysis.Slides, template.Slide{Index: index, Shapes: toShapes(s.Shapes)})

		if analysis.Title != "" {
			continue
		}
		for _, p := range s.Placeholders {
			if strings.Contains(strings.ToUpper(p.Type), "TITLE") && strings.TrimSpace(p.Text) != "" {
				analysis.Title = strings.TrimSpace(p.Text)
				break
			}
		}
	}
	return analysis
}

func toShapes(in []shapePayload) []template.Shape {
	if len(in) == 0 {
		return nil
	}
	out := make([]template.Shape, 0, len(in))
	for _, p := range in {
		shape := template.Shape{Name: p.Name, Shapes: toShapes(p.Shapes)}
		if p.TextFrame != nil {
			shape.Text = p.TextFrame.Text
		}
		if p.Table != nil {
			for _, cell := range p.Table.Cells {
				shape.Cells = append(shape.Cells, cell.Text)
			}
		}
		out = append(out, shape)
	}
	return out
}
