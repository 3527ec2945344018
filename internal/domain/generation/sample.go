package generation

import (
	"context"
	"strings"

	"jan-server/services/quadchart-api/internal/domain/quadchart"
	"jan-server/services/quadchart-api/internal/utils/platformerrors"
)

func (s *service) GenerateSample(ctx context.Context, templateID string) (*SampleResult, error) {
	templateID = strings.TrimSpace(templateID)
	if templateID == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"templateId is required for a sample quad chart", nil, "generation-sample-template-001")
	}
	if _, err := s.usableTemplate(ctx, templateID); err != nil {
		return nil, err
	}

	chart, err := s.charts.Create(ctx, sampleChart(templateID))
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to store sample quad chart")
	}
	result, err := s.GenerateQuadChart(ctx, chart.ID, templateID)
	if err != nil {
		return nil, err
	}
	return &SampleResult{Chart: chart, Result: result}, nil
}

func sampleChart(templateID string) *quadchart.QuadChart {
	return &quadchart.QuadChart{
		OpportunityName: "Sample Quad Chart",
		ClientName:      "Department of Defense",
		TemplateID:      templateID,
		TechnicalData: &quadchart.QuadrantContent{
			KeyPoints: []string{
				"Leverage cutting-edge AI/ML technologies",
				"Implement secure cloud infrastructure",
				"Deploy microservices architecture",
				"Ensure 99.9% uptime SLA",
				"Integrate with existing DoD systems",
			},
		},
		ManagementData: &quadchart.QuadrantContent{
			KeyPoints: []string{
				"Experienced PM with 15+ years DoD experience",
				"Agile/Scrum methodology",
				"Weekly stakeholder updates",
				"Risk management framework",
				"Quality assurance protocols",
			},
		},
		PastPerformanceData: &quadchart.QuadrantContent{
			Projects: []quadchart.Project{
				{Name: "Navy SPAWAR", Description: "$50M contract (2021-2023)"},
				{Name: "Army CECOM", Description: "$35M project (2020-2022)"},
				{Name: "Air Force modernization", Description: "$28M (2019-2021)"},
			},
			KeyPoints: []string{"CMMI Level 3 certified", "ISO 9001:2015 certified"},
		},
		CostScheduleData: &quadchart.QuadrantContent{
			Content: "Total cost: $12.5M. Period of performance: 36 months.",
			Milestones: []quadchart.Milestone{
				{Date: "Month 6", Description: "Phase 1 complete ($3M)"},
				{Date: "Month 18", Description: "Phase 2 complete ($5M)"},
				{Date: "Month 36", Description: "Phase 3 complete ($4.5M)"},
			},
		},
		ContractValue: "$12.5M",
	}
}
