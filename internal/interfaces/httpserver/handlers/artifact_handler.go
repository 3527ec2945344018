package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"jan-server/services/quadchart-api/internal/domain/artifact"
	"jan-server/services/quadchart-api/internal/infrastructure/metrics"
	"jan-server/services/quadchart-api/internal/interfaces/httpserver/responses"
	"jan-server/services/quadchart-api/internal/utils/platformerrors"
)

const pptxContentType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"

// ArtifactHandler serves generated documents.
type ArtifactHandler struct {
	artifacts artifact.Service
	log       zerolog.Logger
}

func NewArtifactHandler(artifacts artifact.Service, log zerolog.Logger) *ArtifactHandler {
	return &ArtifactHandler{
		artifacts: artifacts,
		log:       log.With().Str("component", "artifact-handler").Logger(),
	}
}

// Download godoc
// @Summary      Download a generated document
// @Description  Streams the file once and deletes it afterwards.
// @Tags         artifacts
// @Produce      application/vnd.openxmlformats-officedocument.presentationml.presentation
// @Param        filename  path  string  true  "Generated file name"
// @Success      200  "binary data"
// @Failure      400  {object}  platformerrors.HTTPErrorResponse
// @Failure      404  {object}  platformerrors.HTTPErrorResponse
// @Security     BearerAuth
// @Router       /v1/quad-charts/download/{filename} [get]
func (h *ArtifactHandler) Download(c *gin.Context) {
	serveArtifact(c, h.artifacts, c.Param("filename"), h.log)
}

// List godoc
// @Summary      List generated documents
// @Tags         artifacts
// @Produce      json
// @Success      200  {object}  responses.ArtifactList
// @Security     BearerAuth
// @Router       /v1/artifacts [get]
func (h *ArtifactHandler) List(c *gin.Context) {
	items, err := h.artifacts.List(c.Request.Context())
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, responses.NewList(items, int64(len(items))))
}

// Delete godoc
// @Summary      Delete a generated document
// @Tags         artifacts
// @Param        filename  path  string  true  "Generated file name"
// @Success      204
// @Failure      400  {object}  platformerrors.HTTPErrorResponse
// @Failure      404  {object}  platformerrors.HTTPErrorResponse
// @Security     BearerAuth
// @Router       /v1/artifacts/{filename} [delete]
func (h *ArtifactHandler) Delete(c *gin.Context) {
	if err := h.artifacts.Delete(c.Request.Context(), c.Param("filename")); err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}
	c.Status(http.StatusNoContent)
}

// serveArtifact writes headers from the artifact's metadata and streams it once.
// After the first byte the status is committed, so copy errors are only logged.
func serveArtifact(c *gin.Context, artifacts artifact.Service, name string, log zerolog.Logger) {
	ctx := c.Request.Context()

	info, err := artifacts.Stat(ctx, name)
	if err != nil {
		status := "rejected"
		if platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
			status = "not_found"
		}
		metrics.RecordArtifactDownload(status)
		platformerrors.WriteError(c, err, log)
		return
	}

	c.Header("Content-Type", pptxContentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", info.Name))
	c.Header("Content-Length", strconv.FormatInt(info.Size, 10))
	c.Status(http.StatusOK)

	written, err := artifacts.ServeOnce(ctx, name, c.Writer)
	if err != nil {
		metrics.RecordArtifactDownload("failed")
		if written == 0 && !c.Writer.Written() {
			c.Writer.Header().Del("Content-Type")
			c.Writer.Header().Del("Content-Disposition")
			c.Writer.Header().Del("Content-Length")
			platformerrors.WriteError(c, err, log)
			return
		}
		log.Error().Err(err).Str("file", name).Int64("written", written).Msg("artifact stream interrupted")
		return
	}
	metrics.RecordArtifactDownload("ok")
}
