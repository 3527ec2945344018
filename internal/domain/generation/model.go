package generation

import (
	"context"
	"time"

	"jan-server/services/quadchart-api/internal/domain/quadchart"
)

// Renderer fills a template with substitutions and writes the result to destPath.
// It returns the path of the produced document.
type Renderer interface {
	Render(ctx context.Context, templatePath string, substitutions map[string]string, destPath string) (string, error)
}

// ArtifactStore allocates destinations for generated documents.
type ArtifactStore interface {
	// Allocate reserves a fresh artifact filename for owner and returns it with its absolute path.
	Allocate(owner string) (name string, path string, err error)
	// Discard removes a partially written artifact.
	Discard(name string)
}

// Result describes one generated document.
type Result struct {
	FileName      string            `json:"fileName"`
	Path          string            `json:"-"`
	DownloadURL   string            `json:"downloadUrl"`
	TemplateID    string            `json:"templateId"`
	OwnerID       string            `json:"ownerId"`
	Substitutions int               `json:"replacements"`
	Values        map[string]string `json:"-"`
	GeneratedAt   time.Time         `json:"generatedAt"`
}

// Preview is the substitution map a generation would use, without rendering.
type Preview struct {
	TemplateID    string            `json:"templateId"`
	OwnerID       string            `json:"ownerId"`
	Substitutions map[string]string `json:"substitutions"`
	Unresolved    []string          `json:"unresolved"`
}

// SampleResult is the demonstration chart together with its rendered document.
type SampleResult struct {
	Chart  *quadchart.QuadChart `json:"chart"`
	Result *Result              `json:"pptx"`
}
