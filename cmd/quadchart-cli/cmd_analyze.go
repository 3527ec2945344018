package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"jan-server/services/quadchart-api/internal/domain/template"
	"jan-server/services/quadchart-api/internal/infrastructure/renderer"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <template.pptx>",
	Short: "List a template's placeholders and their default field mappings",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringP("format", "f", "yaml", "Output format (yaml, json)")
}

// templateReport is what analyze prints.
type templateReport struct {
	Path         string                           `json:"path" yaml:"path"`
	SlideCount   int                              `json:"slideCount" yaml:"slideCount"`
	Placeholders []string                         `json:"placeholders" yaml:"placeholders"`
	Mappings     map[string]template.FieldMapping `json:"mappings" yaml:"mappings"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	if format != "yaml" && format != "json" {
		return fmt.Errorf("unsupported format %q", format)
	}

	cfg, log, err := loadRuntime(cmd)
	if err != nil {
		return err
	}

	analysis, err := renderer.NewAnalyzer(analyzerOptions(cfg), log).Analyze(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return writeReport(cmd.OutOrStdout(), newTemplateReport(args[0], analysis), format)
}

func newTemplateReport(path string, analysis *template.Analysis) templateReport {
	placeholders := template.ExtractPlaceholders(analysis)
	return templateReport{
		Path:         path,
		SlideCount:   analysis.SlideCount,
		Placeholders: placeholders,
		Mappings:     template.DefaultMappings(placeholders),
	}
}

func writeReport(w io.Writer, v any, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
