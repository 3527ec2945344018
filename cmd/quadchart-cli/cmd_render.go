package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"jan-server/services/quadchart-api/internal/domain/generation"
	"jan-server/services/quadchart-api/internal/domain/template"
	"jan-server/services/quadchart-api/internal/infrastructure/renderer"
)

var renderCmd = &cobra.Command{
	Use:   "render <template.pptx>",
	Short: "Fill a template from a YAML or JSON data file using default field mappings",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

func init() {
	renderCmd.Flags().String("data", "", "YAML or JSON file of field values (required)")
	renderCmd.Flags().String("out", "", "Destination .pptx path (required)")
	renderCmd.Flags().Bool("dry-run", false, "Print the substitutions without rendering")
	_ = renderCmd.MarkFlagRequired("data")
}

func runRender(cmd *cobra.Command, args []string) error {
	dataPath, _ := cmd.Flags().GetString("data")
	outPath, _ := cmd.Flags().GetString("out")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	if !dryRun && strings.TrimSpace(outPath) == "" {
		return fmt.Errorf("--out is required unless --dry-run is set")
	}

	data, err := readFieldData(dataPath)
	if err != nil {
		return err
	}

	cfg, log, err := loadRuntime(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	analysis, err := renderer.NewAnalyzer(analyzerOptions(cfg), log).Analyze(ctx, args[0])
	if err != nil {
		return err
	}
	values := substitutionsFor(analysis, data)

	out := cmd.OutOrStdout()
	if dryRun {
		return writeReport(out, values, "yaml")
	}

	path, err := renderer.NewRenderer(rendererOptions(cfg), log).Render(ctx, args[0], values, outPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "wrote %s (%d replacements)\n", path, len(values))
	return nil
}

// substitutionsFor applies the default mappings of the analyzed placeholders to data.
func substitutionsFor(analysis *template.Analysis, data map[string]any) map[string]string {
	placeholders := template.ExtractPlaceholders(analysis)
	return generation.Restrict(template.ApplyMappings(template.DefaultMappings(placeholders), data), placeholders)
}

func readFieldData(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read data file: %w", err)
	}
	data := map[string]any{}
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse data file: %w", err)
	}
	return data, nil
}
