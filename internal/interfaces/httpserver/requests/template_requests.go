package requests

import (
	"encoding/json"
	"fmt"
	"strings"

	"jan-server/services/quadchart-api/internal/domain/template"
)

// UploadTemplateForm is the non-file part of a multipart template upload.
type UploadTemplateForm struct {
	Name        string `form:"name"`
	Description string `form:"description"`
	Client      string `form:"client"`
	Category    string `form:"category"`
	// Mappings is an optional JSON object of placeholder token to {field, type}.
	Mappings string `form:"mappings"`
}

// ToRegisterInfo converts the form into registry input.
func (f *UploadTemplateForm) ToRegisterInfo(createdBy string) (template.RegisterInfo, error) {
	info := template.RegisterInfo{
		Name:        f.Name,
		Description: f.Description,
		Client:      f.Client,
		Category:    f.Category,
		CreatedBy:   createdBy,
	}
	if strings.TrimSpace(f.Mappings) == "" {
		return info, nil
	}
	if err := json.Unmarshal([]byte(f.Mappings), &info.Mappings); err != nil {
		return info, fmt.Errorf("mappings must be a JSON object: %w", err)
	}
	return info, nil
}

// CloneTemplateRequest represents a clone request.
type CloneTemplateRequest struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	Client        string `json:"client"`
	Category      string `json:"category"`
	ResetMappings bool   `json:"resetMappings"`
}

func (r *CloneTemplateRequest) ToDomain(createdBy string) template.CloneInfo {
	return template.CloneInfo{
		Name:          r.Name,
		Description:   r.Description,
		Client:        r.Client,
		Category:      r.Category,
		CreatedBy:     createdBy,
		ResetMappings: r.ResetMappings,
	}
}

// ProcessTemplateRequest carries a flat field map rendered through the template mappings.
type ProcessTemplateRequest struct {
	Data map[string]any `json:"data" binding:"required"`
}
