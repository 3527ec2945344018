package template

import (
	"context"
	"time"
)

// FieldType is the declared display type of a mapped field.
type FieldType string

const (
	FieldTypeText      FieldType = "text"
	FieldTypeMultiline FieldType = "multiline"
	FieldTypeDate      FieldType = "date"
	FieldTypeNumber    FieldType = "number"
)

// Valid reports whether t is one of the supported field types.
func (t FieldType) Valid() bool {
	switch t {
	case FieldTypeText, FieldTypeMultiline, FieldTypeDate, FieldTypeNumber:
		return true
	}
	return false
}

// FieldMapping binds a placeholder token to a record field.
type FieldMapping struct {
	Field string    `json:"field"`
	Type  FieldType `json:"type"`
}

// Template is the persisted metadata of a registered presentation template.
type Template struct {
	ID           string                  `json:"id"`
	Name         string                  `json:"name"`
	Description  string                  `json:"description"`
	FileName     string                  `json:"fileName"`
	Client       string                  `json:"client"`
	Category     string                  `json:"category"`
	Placeholders []string                `json:"placeholders"`
	Mappings     map[string]FieldMapping `json:"mappings"`
	SlideCount   int                     `json:"slideCount"`
	Version      int                     `json:"version"`
	ParentID     *string                 `json:"parentId,omitempty"`
	Active       bool                    `json:"active"`
	CreatedBy    string                  `json:"createdBy,omitempty"`
	CreatedAt    time.Time               `json:"createdAt"`
	UpdatedAt    time.Time               `json:"updatedAt"`
}

// HasPlaceholder reports whether token was discovered in the template.
func (t *Template) HasPlaceholder(token string) bool {
	for _, p := range t.Placeholders {
		if p == token {
			return true
		}
	}
	return false
}

// Copy returns a deep copy of the template.
func (t *Template) Copy() *Template {
	out := *t
	out.Placeholders = append([]string(nil), t.Placeholders...)
	out.Mappings = copyMappings(t.Mappings)
	if t.ParentID != nil {
		parent := *t.ParentID
		out.ParentID = &parent
	}
	return &out
}

// RegisterInfo carries the caller supplied attributes of a new upload.
type RegisterInfo struct {
	Name        string
	Description string
	Client      string
	Category    string
	CreatedBy   string
	Mappings    map[string]FieldMapping
}

// RegisterResult is returned by Register. Degraded is set when the analyzer failed
// and a best-effort record was stored instead. Caller mappings that do not fit the
// analyzed placeholders are left out and listed in IgnoredMappings. Warning joins the
// analysis error and the mapping rejections.
type RegisterResult struct {
	Template        *Template
	Degraded        bool
	IgnoredMappings []string
	Warning         error
}

// Patch is a partial metadata update. ID, FileName and CreatedAt are accepted
// for wire compatibility but never applied.
type Patch struct {
	ID          *string                 `json:"id,omitempty"`
	FileName    *string                 `json:"fileName,omitempty"`
	CreatedAt   *time.Time              `json:"createdAt,omitempty"`
	Name        *string                 `json:"name,omitempty"`
	Description *string                 `json:"description,omitempty"`
	Client      *string                 `json:"client,omitempty"`
	Category    *string                 `json:"category,omitempty"`
	Active      *bool                   `json:"active,omitempty"`
	Mappings    map[string]FieldMapping `json:"mappings,omitempty"`
}

// CloneInfo overrides attributes of the copy. Empty fields inherit from the source.
type CloneInfo struct {
	Name          string
	Description   string
	Client        string
	Category      string
	CreatedBy     string
	ResetMappings bool
}

// Filter narrows List results.
type Filter struct {
	ActiveOnly bool
	ParentID   *string
	Client     string
	Category   string
}

// Analysis is the slide structure reported by the template analyzer.
type Analysis struct {
	SlideCount int
	Title      string
	Slides     []Slide
}

// Slide holds the text-bearing shapes of one slide.
type Slide struct {
	Index  int
	Shapes []Shape
}

// Shape is a text frame, a table, or a group of nested shapes.
type Shape struct {
	Name   string
	Text   string
	Cells  []string
	Shapes []Shape
}

// Analyzer inspects a template file out of process.
type Analyzer interface {
	Analyze(ctx context.Context, templatePath string) (*Analysis, error)
}

// FileStore keeps template files in managed storage.
type FileStore interface {
	// Import moves an uploaded file into storage under name and returns its path.
	Import(ctx context.Context, srcPath, name string) (string, error)
	// Copy duplicates a stored file.
	Copy(ctx context.Context, srcName, dstName string) (string, error)
	// Remove deletes a stored file. Missing files are not an error.
	Remove(ctx context.Context, name string) error
	// Path resolves the absolute location of a stored file.
	Path(name string) string
}
