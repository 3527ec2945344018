package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"jan-server/services/quadchart-api/internal/domain/artifact"
	"jan-server/services/quadchart-api/internal/domain/generation"
	"jan-server/services/quadchart-api/internal/domain/quadchart"
	"jan-server/services/quadchart-api/internal/infrastructure/auth"
	"jan-server/services/quadchart-api/internal/interfaces/httpserver/requests"
	"jan-server/services/quadchart-api/internal/interfaces/httpserver/responses"
	"jan-server/services/quadchart-api/internal/utils/platformerrors"
)

// QuadChartHandler exposes chart records and document generation.
type QuadChartHandler struct {
	charts    quadchart.Service
	generator generation.Service
	artifacts artifact.Service
	log       zerolog.Logger
}

func NewQuadChartHandler(charts quadchart.Service, generator generation.Service, artifacts artifact.Service, log zerolog.Logger) *QuadChartHandler {
	return &QuadChartHandler{
		charts:    charts,
		generator: generator,
		artifacts: artifacts,
		log:       log.With().Str("component", "quadchart-handler").Logger(),
	}
}

// List godoc
// @Summary      List quad charts
// @Tags         quad-charts
// @Produce      json
// @Param        status  query     string  false  "Status filter"
// @Param        search  query     string  false  "Name search"
// @Param        limit   query     int     false  "Page size"
// @Param        offset  query     int     false  "Page offset"
// @Success      200     {object}  responses.ListResponse[quadchart.QuadChart]
// @Failure      400     {object}  platformerrors.HTTPErrorResponse
// @Security     BearerAuth
// @Router       /v1/quad-charts [get]
func (h *QuadChartHandler) List(c *gin.Context) {
	var query requests.ListQuadChartsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		platformerrors.WriteValidationError(c, err.Error())
		return
	}
	charts, total, err := h.charts.List(c.Request.Context(), quadchart.Filter{
		Status: quadchart.Status(query.Status),
		Search: query.Search,
		Limit:  query.Limit,
		Offset: query.Offset,
	})
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, responses.NewList(charts, total))
}

// Create godoc
// @Summary      Create a quad chart
// @Tags         quad-charts
// @Accept       json
// @Produce      json
// @Param        request  body      quadchart.QuadChart  true  "Chart record"
// @Success      201      {object}  responses.QuadChartResponse
// @Failure      400      {object}  platformerrors.HTTPErrorResponse
// @Security     BearerAuth
// @Router       /v1/quad-charts [post]
func (h *QuadChartHandler) Create(c *gin.Context) {
	var chart quadchart.QuadChart
	if err := c.ShouldBindJSON(&chart); err != nil {
		platformerrors.WriteValidationError(c, err.Error())
		return
	}
	created, err := h.charts.Create(actorContext(c), &chart)
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}
	c.JSON(http.StatusCreated, responses.QuadChartResponse{Data: created})
}

// Get godoc
// @Summary      Get a quad chart
// @Tags         quad-charts
// @Produce      json
// @Param        id   path      string  true  "Chart ID"
// @Success      200  {object}  responses.QuadChartResponse
// @Failure      404  {object}  platformerrors.HTTPErrorResponse
// @Security     BearerAuth
// @Router       /v1/quad-charts/{id} [get]
func (h *QuadChartHandler) Get(c *gin.Context) {
	chart, err := h.charts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, responses.QuadChartResponse{Data: chart})
}

// Update godoc
// @Summary      Update a quad chart
// @Description  Only draft and in-review charts can be edited, and only moved between those two statuses.
// @Tags         quad-charts
// @Accept       json
// @Produce      json
// @Param        id       path      string               true  "Chart ID"
// @Param        request  body      quadchart.QuadChart  true  "Chart record"
// @Success      200      {object}  responses.QuadChartResponse
// @Failure      400      {object}  platformerrors.HTTPErrorResponse
// @Failure      404      {object}  platformerrors.HTTPErrorResponse
// @Failure      409      {object}  platformerrors.HTTPErrorResponse
// @Security     BearerAuth
// @Router       /v1/quad-charts/{id} [put]
func (h *QuadChartHandler) Update(c *gin.Context) {
	var chart quadchart.QuadChart
	if err := c.ShouldBindJSON(&chart); err != nil {
		platformerrors.WriteValidationError(c, err.Error())
		return
	}
	updated, err := h.charts.Update(actorContext(c), c.Param("id"), &chart)
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, responses.QuadChartResponse{Data: updated})
}

// Delete godoc
// @Summary      Delete a quad chart
// @Tags         quad-charts
// @Param        id  path  string  true  "Chart ID"
// @Success      204
// @Failure      404  {object}  platformerrors.HTTPErrorResponse
// @Security     BearerAuth
// @Router       /v1/quad-charts/{id} [delete]
func (h *QuadChartHandler) Delete(c *gin.Context) {
	if err := h.charts.Delete(c.Request.Context(), c.Param("id")); err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}
	c.Status(http.StatusNoContent)
}

// Generate godoc
// @Summary      Generate a PowerPoint document
// @Description  Renders the chart into a template. Without templateId the chart's own template is used.
// @Tags         quad-charts
// @Accept       json
// @Produce      json
// @Param        id       path      string                    true   "Chart ID"
// @Param        request  body      requests.GenerateRequest  false  "Template selection"
// @Success      200      {object}  responses.GenerationResponse
// @Failure      400      {object}  platformerrors.HTTPErrorResponse
// @Failure      404      {object}  platformerrors.HTTPErrorResponse
// @Failure      502      {object}  platformerrors.HTTPErrorResponse
// @Failure      504      {object}  platformerrors.HTTPErrorResponse
// @Security     BearerAuth
// @Router       /v1/quad-charts/{id}/generate-pptx [post]
func (h *QuadChartHandler) Generate(c *gin.Context) {
	req, ok := h.bindGenerate(c)
	if !ok {
		return
	}
	result, err := h.generator.GenerateQuadChart(c.Request.Context(), c.Param("id"), req.TemplateID)
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, responses.BuildGenerationResponse(result))
}

// Preview godoc
// @Summary      Preview substitutions
// @Description  Returns the placeholder values a generation would use, and the placeholders left empty.
// @Tags         quad-charts
// @Produce      json
// @Param        id          path      string  true   "Chart ID"
// @Param        templateId  query     string  false  "Template ID"
// @Success      200         {object}  responses.PreviewResponse
// @Failure      404         {object}  platformerrors.HTTPErrorResponse
// @Security     BearerAuth
// @Router       /v1/quad-charts/{id}/preview [get]
func (h *QuadChartHandler) Preview(c *gin.Context) {
	preview, err := h.generator.PreviewQuadChart(c.Request.Context(), c.Param("id"), c.Query("templateId"))
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, responses.PreviewResponse{Data: preview})
}

// GenerateBatch godoc
// @Summary      Generate documents for several charts
// @Tags         quad-charts
// @Accept       json
// @Produce      json
// @Param        request  body      requests.BatchGenerateRequest  true  "Charts to render"
// @Success      200      {object}  responses.BatchGenerationResponse
// @Failure      400      {object}  platformerrors.HTTPErrorResponse
// @Security     BearerAuth
// @Router       /v1/quad-charts/batch/generate [post]
func (h *QuadChartHandler) GenerateBatch(c *gin.Context) {
	var req requests.BatchGenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		platformerrors.WriteValidationError(c, err.Error())
		return
	}
	items := h.generator.GenerateBatch(c.Request.Context(), req.ChartIDs, req.TemplateID)
	c.JSON(http.StatusOK, responses.BuildBatchGenerationResponse(items))
}

// Download godoc
// @Summary      Generate and download in one step
// @Description  Renders the chart and streams the document. The file is deleted once delivered.
// @Tags         quad-charts
// @Produce      application/vnd.openxmlformats-officedocument.presentationml.presentation
// @Param        id          path   string  true   "Chart ID"
// @Param        templateId  query  string  false  "Template ID"
// @Success      200  "binary data"
// @Failure      404  {object}  platformerrors.HTTPErrorResponse
// @Failure      502  {object}  platformerrors.HTTPErrorResponse
// @Security     BearerAuth
// @Router       /v1/quad-charts/{id}/download [get]
func (h *QuadChartHandler) Download(c *gin.Context) {
	result, err := h.generator.GenerateQuadChart(c.Request.Context(), c.Param("id"), c.Query("templateId"))
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}
	serveArtifact(c, h.artifacts, result.FileName, h.log)
}

// Submit godoc
// @Summary      Submit a draft for review
// @Tags         quad-charts
// @Produce      json
// @Param        id   path      string  true  "Chart ID"
// @Success      200  {object}  responses.QuadChartResponse
// @Failure      404  {object}  platformerrors.HTTPErrorResponse
// @Failure      409  {object}  platformerrors.HTTPErrorResponse
// @Security     BearerAuth
// @Router       /v1/quad-charts/{id}/submit [post]
func (h *QuadChartHandler) Submit(c *gin.Context) {
	chart, err := h.charts.Submit(actorContext(c), c.Param("id"))
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, responses.QuadChartResponse{Data: chart})
}

// Approve godoc
// @Summary      Approve a submitted chart
// @Tags         quad-charts
// @Accept       json
// @Produce      json
// @Param        id       path      string                  true   "Chart ID"
// @Param        request  body      requests.ReviewRequest  false  "Reviewer notes"
// @Success      200      {object}  responses.QuadChartResponse
// @Failure      404      {object}  platformerrors.HTTPErrorResponse
// @Failure      409      {object}  platformerrors.HTTPErrorResponse
// @Security     BearerAuth
// @Router       /v1/quad-charts/{id}/approve [post]
func (h *QuadChartHandler) Approve(c *gin.Context) {
	var req requests.ReviewRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	chart, err := h.charts.Approve(actorContext(c), c.Param("id"), req.Notes)
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, responses.QuadChartResponse{Data: chart})
}

// Reject godoc
// @Summary      Reject a submitted chart
// @Tags         quad-charts
// @Accept       json
// @Produce      json
// @Param        id       path      string                  true  "Chart ID"
// @Param        request  body      requests.RejectRequest  true  "Rejection reason"
// @Success      200      {object}  responses.QuadChartResponse
// @Failure      400      {object}  platformerrors.HTTPErrorResponse
// @Failure      404      {object}  platformerrors.HTTPErrorResponse
// @Failure      409      {object}  platformerrors.HTTPErrorResponse
// @Security     BearerAuth
// @Router       /v1/quad-charts/{id}/reject [post]
func (h *QuadChartHandler) Reject(c *gin.Context) {
	var req requests.RejectRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	chart, err := h.charts.Reject(actorContext(c), c.Param("id"), req.Reason)
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, responses.QuadChartResponse{Data: chart})
}

// Comment godoc
// @Summary      Comment on a chart
// @Description  The quadrant defaults to general. parentCommentId threads a reply.
// @Tags         quad-charts
// @Accept       json
// @Produce      json
// @Param        id       path      string                   true  "Chart ID"
// @Param        request  body      requests.CommentRequest  true  "Comment"
// @Success      201      {object}  responses.EventResponse
// @Failure      400      {object}  platformerrors.HTTPErrorResponse
// @Failure      404      {object}  platformerrors.HTTPErrorResponse
// @Security     BearerAuth
// @Router       /v1/quad-charts/{id}/comment [post]
func (h *QuadChartHandler) Comment(c *gin.Context) {
	var req requests.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		platformerrors.WriteValidationError(c, err.Error())
		return
	}
	event, err := h.charts.Comment(actorContext(c), c.Param("id"), quadchart.CommentInput{
		Comment:  req.Comment,
		Quadrant: req.Quadrant,
		ParentID: req.ParentCommentID,
	})
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}
	c.JSON(http.StatusCreated, responses.EventResponse{Data: event})
}

// History godoc
// @Summary      Chart workflow history
// @Description  Newest entry first.
// @Tags         quad-charts
// @Produce      json
// @Param        id   path      string  true  "Chart ID"
// @Success      200  {object}  responses.EventList
// @Failure      404  {object}  platformerrors.HTTPErrorResponse
// @Security     BearerAuth
// @Router       /v1/quad-charts/{id}/history [get]
func (h *QuadChartHandler) History(c *gin.Context) {
	events, err := h.charts.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, responses.NewList(events, int64(len(events))))
}

// Statistics godoc
// @Summary      Chart statistics
// @Description  Status and template breakdowns, top companies, approval metrics and contract value totals.
// @Tags         quad-charts
// @Produce      json
// @Success      200  {object}  responses.StatisticsResponse
// @Security     BearerAuth
// @Router       /v1/quad-charts/statistics [get]
func (h *QuadChartHandler) Statistics(c *gin.Context) {
	stats, err := h.charts.Statistics(c.Request.Context())
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, responses.StatisticsResponse{Data: stats})
}

// GenerateSample godoc
// @Summary      Create and render a sample chart
// @Tags         quad-charts
// @Accept       json
// @Produce      json
// @Param        request  body      requests.SampleRequest  true  "Template selection"
// @Success      201      {object}  responses.SampleResponse
// @Failure      400      {object}  platformerrors.HTTPErrorResponse
// @Failure      404      {object}  platformerrors.HTTPErrorResponse
// @Failure      502      {object}  platformerrors.HTTPErrorResponse
// @Security     BearerAuth
// @Router       /v1/quad-charts/generate-sample [post]
func (h *QuadChartHandler) GenerateSample(c *gin.Context) {
	var req requests.SampleRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	if req.TemplateID == "" {
		req.TemplateID = c.Query("templateId")
	}
	sample, err := h.generator.GenerateSample(actorContext(c), req.TemplateID)
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}
	c.JSON(http.StatusCreated, responses.SampleResponse{Data: sample})
}

// actorContext carries the authenticated subject into the chart workflow.
func actorContext(c *gin.Context) context.Context {
	return quadchart.ContextWithActor(c.Request.Context(), auth.Subject(c))
}

func bindOptionalJSON(c *gin.Context, dst any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		platformerrors.WriteValidationError(c, err.Error())
		return false
	}
	return true
}

func (h *QuadChartHandler) bindGenerate(c *gin.Context) (requests.GenerateRequest, bool) {
	var req requests.GenerateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			platformerrors.WriteValidationError(c, err.Error())
			return req, false
		}
	}
	if req.TemplateID == "" {
		req.TemplateID = c.Query("templateId")
	}
	return req, true
}
