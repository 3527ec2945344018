package handlers

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"jan-server/services/quadchart-api/internal/config"
	"jan-server/services/quadchart-api/internal/domain/generation"
	"jan-server/services/quadchart-api/internal/domain/template"
	"jan-server/services/quadchart-api/internal/infrastructure/auth"
	"jan-server/services/quadchart-api/internal/infrastructure/metrics"
	"jan-server/services/quadchart-api/internal/interfaces/httpserver/requests"
	"jan-server/services/quadchart-api/internal/interfaces/httpserver/responses"
	"jan-server/services/quadchart-api/internal/utils/platformerrors"
)

const (
	templateFormField = "template"
	pptxMime          = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	// multipart framing allowance on top of the file limit
	multipartOverhead = 1 << 20
)

// TemplateHandler exposes the template registry.
type TemplateHandler struct {
	cfg       *config.Config
	templates template.Service
	generator generation.Service
	log       zerolog.Logger
}

func NewTemplateHandler(cfg *config.Config, templates template.Service, generator generation.Service, log zerolog.Logger) *TemplateHandler {
	return &TemplateHandler{
		cfg:       cfg,
		templates: templates,
		generator: generator,
		log:       log.With().Str("component", "template-handler").Logger(),
	}
}

// List godoc
// @Summary      List templates
// @Tags         templates
// @Produce      json
// @Param        activeOnly  query     bool    false  "Only active templates"
// @Param        parentId    query     string  false  "Only clones of this template"
// @Param        client      query     string  false  "Client filter"
// @Param        category    query     string  false  "Category filter"
// @Success      200         {object}  responses.ListResponse[template.Template]
// @Failure      500         {object}  platformerrors.HTTPErrorResponse
// @Security     BearerAuth
// @Router       /v1/templates [get]
func (h *TemplateHandler) List(c *gin.Context) {
	filter := template.Filter{
		Client:   c.Query("client"),
		Category: c.Query("category"),
	}
	if raw := c.Query("activeOnly"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			platformerrors.WriteValidationError(c, "activeOnly must be a boolean")
			return
		}
		filter.ActiveOnly = active
	}
	if parent, ok := c.GetQuery("parentId"); ok {
		filter.ParentID = &parent
	}

	items, err := h.templates.List(c.Request.Context(), filter)
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, responses.NewList(items, int64(len(items))))
}

// Get godoc
// @Summary      Get a template
// @Tags         templates
// @Produce      json
// @Param        id   path      string  true  "Template ID"
// @Success      200  {object}  responses.TemplateResponse
// @Failure      404  {object}  platformerrors.HTTPErrorResponse
// @Security     BearerAuth
// @Router       /v1/templates/{id} [get]
func (h *TemplateHandler) Get(c *gin.Context) {
	tpl, err := h.templates.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, responses.TemplateResponse{Data: tpl})
}

// Upload godoc
// @Summary      Upload a template
// @Description  Registers a .pptx template. Placeholders are detected by the analyzer; when analysis fails the template is stored with default placeholders and the response is marked degraded.
// @Tags         templates
// @Accept       multipart/form-data
// @Produce      json
// @Param        template     formData  file    true   "PowerPoint template"
// @Param        name         formData  string  false  "Display name"
// @Param        description  formData  string  false  "Description"
// @Param        client       formData  string  false  "Client"
// @Param        category     formData  string  false  "Category"
// @Param        mappings     formData  string  false  "JSON object of placeholder field mappings"
// @Success      201          {object}  responses.TemplateUploadResponse
// @Failure      400          {object}  platformerrors.HTTPErrorResponse
// @Failure      413          {object}  platformerrors.HTTPErrorResponse
// @Security     BearerAuth
// @Router       /v1/templates/upload [post]
func (h *TemplateHandler) Upload(c *gin.Context) {
	ctx := c.Request.Context()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.MaxTemplateBytes+multipartOverhead)

	header, err := c.FormFile(templateFormField)
	if err != nil {
		metrics.RecordTemplateUpload("rejected")
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || c.Request.ContentLength > h.cfg.MaxTemplateBytes+multipartOverhead {
			h.writeTooLarge(c)
			return
		}
		platformerrors.WriteValidationError(c, "template file is required in form field \"template\"")
		return
	}
	if header.Size > h.cfg.MaxTemplateBytes {
		metrics.RecordTemplateUpload("rejected")
		h.writeTooLarge(c)
		return
	}

	var form requests.UploadTemplateForm
	if err := c.ShouldBind(&form); err != nil {
		metrics.RecordTemplateUpload("rejected")
		platformerrors.WriteValidationError(c, err.Error())
		return
	}
	info, err := form.ToRegisterInfo(auth.Subject(c))
	if err != nil {
		metrics.RecordTemplateUpload("rejected")
		platformerrors.WriteValidationError(c, err.Error())
		return
	}
	if strings.TrimSpace(info.Name) == "" {
		info.Name = strings.TrimSuffix(header.Filename, ".pptx")
	}

	tmpPath, err := h.stage(ctx, header)
	if err != nil {
		metrics.RecordTemplateUpload("rejected")
		platformerrors.WriteError(c, err, h.log)
		return
	}
	defer func() {
		// Register moves the file; anything left behind is a failed upload.
		if rmErr := os.Remove(tmpPath); rmErr != nil && !os.IsNotExist(rmErr) {
			h.log.Warn().Err(rmErr).Str("path", tmpPath).Msg("failed to remove staged upload")
		}
	}()

	result, err := h.templates.Register(ctx, info, tmpPath)
	if err != nil {
		metrics.RecordTemplateUpload("failed")
		platformerrors.WriteError(c, err, h.log)
		return
	}

	status := "ok"
	if result.Degraded {
		status = "degraded"
		h.log.Warn().Err(result.Warning).Str("template_id", result.Template.ID).Msg("template registered without analysis")
	}
	if len(result.IgnoredMappings) > 0 {
		h.log.Warn().Strs("tokens", result.IgnoredMappings).Str("template_id", result.Template.ID).Msg("upload mappings ignored")
	}
	metrics.RecordTemplateUpload(status)
	c.JSON(http.StatusCreated, responses.BuildTemplateUploadResponse(result))
}

// stage copies the uploaded part into the upload directory after checking its content type.
func (h *TemplateHandler) stage(ctx context.Context, header *multipart.FileHeader) (string, error) {
	src, err := header.Open()
	if err != nil {
		return "", platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeValidation,
			"failed to read uploaded template", err, "template-upload-read-001")
	}
	defer src.Close()

	detected, err := mimetype.DetectReader(src)
	if err != nil {
		return "", platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeValidation,
			"failed to inspect uploaded template", err, "template-upload-read-002")
	}
	if !detected.Is(pptxMime) && !detected.Is("application/zip") {
		return "", platformerrors.NewErrorWithContext(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeValidation,
			"only .pptx templates are accepted", nil, "template-upload-type-001",
			map[string]any{"detected_mime": detected.String()})
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeInternal,
			"failed to rewind uploaded template", err, "template-upload-read-003")
	}

	if err := os.MkdirAll(h.cfg.UploadTempDir, 0o755); err != nil {
		return "", platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeInternal,
			"failed to prepare upload directory", err, "template-upload-stage-001")
	}
	dst, err := os.CreateTemp(h.cfg.UploadTempDir, "upload-*.pptx")
	if err != nil {
		return "", platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeInternal,
			"failed to stage uploaded template", err, "template-upload-stage-002")
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeInternal,
			"failed to stage uploaded template", err, "template-upload-stage-003")
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeInternal,
			"failed to stage uploaded template", err, "template-upload-stage-004")
	}
	return dst.Name(), nil
}

func (h *TemplateHandler) writeTooLarge(c *gin.Context) {
	err := platformerrors.NewErrorWithContext(c.Request.Context(), platformerrors.LayerHandler, platformerrors.ErrorTypeTooLarge,
		"template exceeds the upload size limit", nil, "template-upload-size-001",
		map[string]any{"limit_bytes": h.cfg.MaxTemplateBytes})
	platformerrors.WriteHTTPError(c, err, h.log)
}

// Update godoc
// @Summary      Update template metadata
// @Description  Partial update. id, fileName and createdAt are ignored.
// @Tags         templates
// @Accept       json
// @Produce      json
// @Param        id       path      string          true  "Template ID"
// @Param        request  body      template.Patch  true  "Fields to change"
// @Success      200      {object}  responses.TemplateResponse
// @Failure      400      {object}  platformerrors.HTTPErrorResponse
// @Failure      404      {object}  platformerrors.HTTPErrorResponse
// @Security     BearerAuth
// @Router       /v1/templates/{id} [put]
func (h *TemplateHandler) Update(c *gin.Context) {
	var patch template.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		platformerrors.WriteValidationError(c, err.Error())
		return
	}
	tpl, err := h.templates.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, responses.TemplateResponse{Data: tpl})
}

// Delete godoc
// @Summary      Delete a template
// @Description  Deactivates the template. With permanent=true the record and its file are removed.
// @Tags         templates
// @Param        id         path   string  true   "Template ID"
// @Param        permanent  query  bool    false  "Remove record and file"
// @Success      204
// @Failure      404  {object}  platformerrors.HTTPErrorResponse
// @Security     BearerAuth
// @Router       /v1/templates/{id} [delete]
func (h *TemplateHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	permanent, _ := strconv.ParseBool(c.DefaultQuery("permanent", "false"))
	var err error
	if permanent {
		err = h.templates.Purge(ctx, id)
	} else {
		err = h.templates.Deactivate(ctx, id)
	}
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}
	c.Status(http.StatusNoContent)
}

// Clone godoc
// @Summary      Clone a template
// @Tags         templates
// @Accept       json
// @Produce      json
// @Param        id       path      string                         true   "Source template ID"
// @Param        request  body      requests.CloneTemplateRequest  false  "Overrides for the copy"
// @Success      201      {object}  responses.TemplateResponse
// @Failure      404      {object}  platformerrors.HTTPErrorResponse
// @Security     BearerAuth
// @Router       /v1/templates/{id}/clone [post]
func (h *TemplateHandler) Clone(c *gin.Context) {
	var req requests.CloneTemplateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			platformerrors.WriteValidationError(c, err.Error())
			return
		}
	}
	tpl, err := h.templates.Clone(c.Request.Context(), c.Param("id"), req.ToDomain(auth.Subject(c)))
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}
	c.JSON(http.StatusCreated, responses.TemplateResponse{Data: tpl})
}

// History godoc
// @Summary      Template version history
// @Description  Ancestors oldest first, then the template itself, then its direct clones.
// @Tags         templates
// @Produce      json
// @Param        id   path      string  true  "Template ID"
// @Success      200  {object}  responses.ListResponse[template.Template]
// @Failure      404  {object}  platformerrors.HTTPErrorResponse
// @Security     BearerAuth
// @Router       /v1/templates/{id}/history [get]
func (h *TemplateHandler) History(c *gin.Context) {
	chain, err := h.templates.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, responses.NewList(chain, int64(len(chain))))
}

// Process godoc
// @Summary      Render a template from field data
// @Description  Values are resolved through the template's field mappings.
// @Tags         templates
// @Accept       json
// @Produce      json
// @Param        id       path      string                           true  "Template ID"
// @Param        request  body      requests.ProcessTemplateRequest  true  "Field data"
// @Success      200      {object}  responses.GenerationResponse
// @Failure      400      {object}  platformerrors.HTTPErrorResponse
// @Failure      404      {object}  platformerrors.HTTPErrorResponse
// @Failure      502      {object}  platformerrors.HTTPErrorResponse
// @Failure      504      {object}  platformerrors.HTTPErrorResponse
// @Security     BearerAuth
// @Router       /v1/templates/{id}/process [post]
func (h *TemplateHandler) Process(c *gin.Context) {
	var req requests.ProcessTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		platformerrors.WriteValidationError(c, err.Error())
		return
	}
	result, err := h.generator.ProcessTemplate(c.Request.Context(), c.Param("id"), req.Data)
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, responses.BuildGenerationResponse(result))
}
