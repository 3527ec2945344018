package handlers

import (
	"github.com/rs/zerolog"

	"jan-server/services/quadchart-api/internal/config"
	"jan-server/services/quadchart-api/internal/domain/artifact"
	"jan-server/services/quadchart-api/internal/domain/generation"
	"jan-server/services/quadchart-api/internal/domain/quadchart"
	"jan-server/services/quadchart-api/internal/domain/template"
)

// Provider wires HTTP handlers.
type Provider struct {
	Template  *TemplateHandler
	QuadChart *QuadChartHandler
	Artifact  *ArtifactHandler
	Schema    *SchemaHandler
}

func NewProvider(
	cfg *config.Config,
	templates template.Service,
	charts quadchart.Service,
	generator generation.Service,
	artifacts artifact.Service,
	log zerolog.Logger,
) *Provider {
	return &Provider{
		Template:  NewTemplateHandler(cfg, templates, generator, log),
		QuadChart: NewQuadChartHandler(charts, generator, artifacts, log),
		Artifact:  NewArtifactHandler(artifacts, log),
		Schema:    NewSchemaHandler(log),
	}
}
