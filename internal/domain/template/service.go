package template

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"jan-server/services/quadchart-api/internal/utils/idgen"
	"jan-server/services/quadchart-api/internal/utils/platformerrors"
)

const (
	defaultName      = "Unnamed Template"
	defaultClient    = "Generic"
	defaultCategory  = "Quad Chart"
	defaultExtension = ".pptx"
)

// Service manages the template registry.
type Service interface {
	List(ctx context.Context, filter Filter) ([]*Template, error)
	Get(ctx context.Context, id string) (*Template, error)
	Register(ctx context.Context, info RegisterInfo, uploadedPath string) (*RegisterResult, error)
	Update(ctx context.Context, id string, patch Patch) (*Template, error)
	Deactivate(ctx context.Context, id string) error
	Purge(ctx context.Context, id string) error
	Clone(ctx context.Context, id string, info CloneInfo) (*Template, error)
	History(ctx context.Context, id string) ([]*Template, error)
	FilePath(tpl *Template) string
}

type registry struct {
	repo     Repository
	files    FileStore
	analyzer Analyzer
	now      func() time.Time
	log      zerolog.Logger
}

// NewService wires the registry around its repository, file store and analyzer.
func NewService(repo Repository, files FileStore, analyzer Analyzer, log zerolog.Logger) Service {
	return &registry{
		repo:     repo,
		files:    files,
		analyzer: analyzer,
		now:      func() time.Time { return time.Now().UTC() },
		log:      log.With().Str("component", "template-registry").Logger(),
	}
}

func (s *registry) List(ctx context.Context, filter Filter) ([]*Template, error) {
	templates, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list templates")
	}
	return templates, nil
}

func (s *registry) Get(ctx context.Context, id string) (*Template, error) {
	tpl, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load template")
	}
	return tpl, nil
}

func (s *registry) Register(ctx context.Context, info RegisterInfo, uploadedPath string) (*RegisterResult, error) {
	if strings.TrimSpace(uploadedPath) == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"uploaded file path is required", nil, "template-register-path-001")
	}

	id := idgen.New(idgen.TemplatePrefix)
	fileName := storedFileName(id, uploadedPath)

	storedPath, err := s.files.Import(ctx, uploadedPath, fileName)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to move template into storage")
	}

	now := s.now()
	tpl := &Template{
		ID:          id,
		Name:        firstNonEmpty(info.Name, defaultName),
		Description: strings.TrimSpace(info.Description),
		FileName:    fileName,
		Client:      firstNonEmpty(info.Client, defaultClient),
		Category:    firstNonEmpty(info.Category, defaultCategory),
		Version:     1,
		Active:      true,
		CreatedBy:   info.CreatedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	result := &RegisterResult{Template: tpl}

	analysis, analyzeErr := s.analyzer.Analyze(ctx, storedPath)
	if analyzeErr != nil {
		result.Degraded = true
		result.Warning = platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeAnalysisFailed,
			"template analysis failed; registered with default placeholders", analyzeErr, "template-register-analysis-001",
			map[string]any{"template_id": id})
		s.log.Warn().Err(analyzeErr).Str("template_id", id).Msg("template analysis failed, storing basic record")

		tpl.Placeholders = DefaultPlaceholders()
		tpl.SlideCount = DegradedSlideCount
	} else {
		tpl.Placeholders = ExtractPlaceholders(analysis)
		tpl.SlideCount = analysis.SlideCount
		if tpl.Description == "" && analysis.Title != "" {
			tpl.Description = analysis.Title
		}
	}

	tpl.Mappings = DefaultMappings(tpl.Placeholders)
	var rejected []error
	for _, token := range sortedMappingTokens(info.Mappings) {
		mapping := info.Mappings[token]
		if mapping.Type == "" {
			mapping.Type = FieldTypeText
		}
		if err := validateMapping(ctx, tpl, token, mapping); err != nil {
			result.IgnoredMappings = append(result.IgnoredMappings, token)
			rejected = append(rejected, err)
			continue
		}
		tpl.Mappings[token] = mapping
	}
	if len(rejected) > 0 {
		result.Warning = errors.Join(append([]error{result.Warning}, rejected...)...)
		s.log.Warn().
			Str("template_id", id).
			Strs("tokens", result.IgnoredMappings).
			Msg("ignored mappings that do not fit the analyzed placeholders")
	}

	if err := s.repo.Create(ctx, tpl); err != nil {
		s.log.Error().Err(err).Str("template_id", id).Str("path", storedPath).Msg("template stored but metadata was not persisted")
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to persist template metadata")
	}

	s.log.Info().
		Str("template_id", id).
		Int("placeholders", len(tpl.Placeholders)).
		Bool("degraded", result.Degraded).
		Msg("template registered")
	return result, nil
}

func (s *registry) Update(ctx context.Context, id string, patch Patch) (*Template, error) {
	tpl, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load template")
	}

	if patch.ID != nil || patch.FileName != nil || patch.CreatedAt != nil {
		s.log.Debug().Str("template_id", id).Msg("ignoring protected template fields in update")
	}

	if patch.Name != nil {
		tpl.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		tpl.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Client != nil {
		tpl.Client = strings.TrimSpace(*patch.Client)
	}
	if patch.Category != nil {
		tpl.Category = strings.TrimSpace(*patch.Category)
	}
	if patch.Active != nil {
		tpl.Active = *patch.Active
	}
	if patch.Mappings != nil {
		if err := validateMappings(ctx, tpl, patch.Mappings); err != nil {
			return nil, err
		}
		tpl.Mappings = copyMappings(patch.Mappings)
	}
	tpl.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, tpl); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to update template")
	}
	return tpl, nil
}

func (s *registry) Deactivate(ctx context.Context, id string) error {
	tpl, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load template")
	}
	if !tpl.Active {
		return nil
	}
	tpl.Active = false
	tpl.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, tpl); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to deactivate template")
	}
	return nil
}

func (s *registry) Purge(ctx context.Context, id string) error {
	tpl, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load template")
	}
	if err := s.files.Remove(ctx, tpl.FileName); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to delete template file")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to delete template metadata")
	}
	s.log.Info().Str("template_id", id).Msg("template purged")
	return nil
}

func (s *registry) Clone(ctx context.Context, id string, info CloneInfo) (*Template, error) {
	source, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load source template")
	}

	newID := idgen.New(idgen.TemplatePrefix)
	fileName := storedFileName(newID, source.FileName)
	if _, err := s.files.Copy(ctx, source.FileName, fileName); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to copy template file")
	}

	now := s.now()
	parentID := source.ID
	copied := source.Copy()
	copied.ID = newID
	copied.FileName = fileName
	copied.Name = firstNonEmpty(info.Name, source.Name+" (Copy)")
	copied.Description = firstNonEmpty(info.Description, source.Description)
	copied.Client = firstNonEmpty(info.Client, source.Client)
	copied.Category = firstNonEmpty(info.Category, source.Category)
	copied.CreatedBy = firstNonEmpty(info.CreatedBy, source.CreatedBy)
	copied.Version = source.Version + 1
	copied.ParentID = &parentID
	copied.Active = true
	copied.CreatedAt = now
	copied.UpdatedAt = now
	if info.ResetMappings {
		copied.Mappings = DefaultMappings(copied.Placeholders)
	}

	if err := s.repo.Create(ctx, copied); err != nil {
		if rmErr := s.files.Remove(ctx, fileName); rmErr != nil {
			s.log.Warn().Err(rmErr).Str("file", fileName).Msg("failed to remove orphaned clone file")
		}
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to persist cloned template")
	}
	return copied, nil
}

// History returns ancestors oldest first, then the template itself, then its direct children.
func (s *registry) History(ctx context.Context, id string) ([]*Template, error) {
	target, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load template")
	}

	var ancestors []*Template
	visited := map[string]struct{}{target.ID: {}}
	for parentID := target.ParentID; parentID != nil; {
		if _, seen := visited[*parentID]; seen {
			break
		}
		visited[*parentID] = struct{}{}

		parent, err := s.repo.FindByID(ctx, *parentID)
		if err != nil {
			if platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
				break
			}
			return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load template ancestor")
		}
		ancestors = append([]*Template{parent}, ancestors...)
		parentID = parent.ParentID
	}

	children, err := s.repo.List(ctx, Filter{ParentID: &target.ID})
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list template children")
	}

	history := make([]*Template, 0, len(ancestors)+1+len(children))
	history = append(history, ancestors...)
	history = append(history, target)
	history = append(history, children...)
	return history, nil
}

func (s *registry) FilePath(tpl *Template) string {
	return s.files.Path(tpl.FileName)
}

func validateMappings(ctx context.Context, tpl *Template, mappings map[string]FieldMapping) error {
	for _, token := range sortedMappingTokens(mappings) {
		if err := validateMapping(ctx, tpl, token, mappings[token]); err != nil {
			return err
		}
	}
	return nil
}

func validateMapping(ctx context.Context, tpl *Template, token string, mapping FieldMapping) error {
	if !tpl.HasPlaceholder(token) {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			fmt.Sprintf("placeholder %s is not declared by template %s", token, tpl.ID), nil, "template-mapping-token-001")
	}
	if strings.TrimSpace(mapping.Field) == "" {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			fmt.Sprintf("mapping for %s has no field", token), nil, "template-mapping-field-001")
	}
	if !mapping.Type.Valid() {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			fmt.Sprintf("mapping for %s has unsupported type %q", token, mapping.Type), nil, "template-mapping-type-001")
	}
	return nil
}

func sortedMappingTokens(mappings map[string]FieldMapping) []string {
	tokens := make([]string, 0, len(mappings))
	for token := range mappings {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	return tokens
}

func storedFileName(id, original string) string {
	ext := strings.ToLower(filepath.Ext(original))
	if ext == "" {
		ext = defaultExtension
	}
	return "template_" + id + ext
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
