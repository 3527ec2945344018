package handlers

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/invopop/jsonschema"
	"github.com/rs/zerolog"

	"jan-server/services/quadchart-api/internal/domain/quadchart"
	"jan-server/services/quadchart-api/internal/domain/template"
	"jan-server/services/quadchart-api/internal/interfaces/httpserver/requests"
	"jan-server/services/quadchart-api/internal/utils/platformerrors"
)

// SchemaHandler publishes JSON Schemas of the request bodies so form builders can validate client side.
type SchemaHandler struct {
	schemas map[string][]byte
	log     zerolog.Logger
}

func NewSchemaHandler(log zerolog.Logger) *SchemaHandler {
	logger := log.With().Str("component", "schema-handler").Logger()

	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: true,
		ExpandedStruct:            true,
	}
	sources := map[string]struct {
		value any
		title string
	}{
		"quad-chart":       {value: &quadchart.QuadChart{}, title: "Quad Chart"},
		"template-patch":   {value: &template.Patch{}, title: "Template Update"},
		"template-process": {value: &requests.ProcessTemplateRequest{}, title: "Template Process Request"},
		"batch-generate":   {value: &requests.BatchGenerateRequest{}, title: "Batch Generation Request"},
	}

	schemas := make(map[string][]byte, len(sources))
	for name, src := range sources {
		schema := reflector.Reflect(src.value)
		schema.Title = src.title
		data, err := schema.MarshalJSON()
		if err != nil {
			logger.Error().Err(err).Str("schema", name).Msg("failed to build schema")
			continue
		}
		schemas[name] = data
	}

	return &SchemaHandler{schemas: schemas, log: logger}
}

// List godoc
// @Summary      List published schemas
// @Tags         schemas
// @Produce      json
// @Success      200  {object}  map[string][]string
// @Router       /v1/schemas [get]
func (h *SchemaHandler) List(c *gin.Context) {
	names := make([]string, 0, len(h.schemas))
	for name := range h.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	c.JSON(http.StatusOK, gin.H{"data": names})
}

// Get godoc
// @Summary      Get a JSON Schema
// @Tags         schemas
// @Produce      json
// @Param        name  path      string  true  "Schema name"
// @Success      200   {object}  map[string]interface{}
// @Failure      404   {object}  platformerrors.HTTPErrorResponse
// @Router       /v1/schemas/{name} [get]
func (h *SchemaHandler) Get(c *gin.Context) {
	data, ok := h.schemas[c.Param("name")]
	if !ok {
		platformerrors.WriteNotFound(c, "schema not found")
		return
	}
	c.Data(http.StatusOK, "application/schema+json", data)
}
