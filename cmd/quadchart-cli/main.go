package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"jan-server/services/quadchart-api/internal/config"
	"jan-server/services/quadchart-api/internal/infrastructure/logger"
	"jan-server/services/quadchart-api/internal/infrastructure/renderer"
)

var version = "1.0.0"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "quadchart-cli",
	Short: "Operator tooling for the quad chart service",
	Long: `quadchart-cli runs the quad chart pipeline outside the HTTP service.

It reads the same environment (and .env / QUADCHART_CONFIG_FILE) as the server.

Examples:
  # Inspect a template before uploading it
  quadchart-cli analyze ./templates/standard.pptx

  # Fill a template from a data file
  quadchart-cli render ./templates/standard.pptx --data chart.yaml --out chart.pptx

  # Remove generated documents past retention
  quadchart-cli sweep --dry-run`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(sweepCmd)

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().String("env-file", ".env", "Optional .env file loaded before reading configuration")
}

// loadRuntime loads configuration the way the server does and returns a logger writing to stderr.
func loadRuntime(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Overload(envFile); err != nil {
				return nil, zerolog.Nop(), fmt.Errorf("load %s: %w", envFile, err)
			}
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	if !verbose {
		return cfg, zerolog.Nop(), nil
	}
	return cfg, logger.New(cfg), nil
}

func analyzerOptions(cfg *config.Config) renderer.Options {
	return renderer.Options{
		PreferredInterpreter: cfg.PreferredInterpreter,
		FallbackInterpreter:  cfg.FallbackInterpreter,
		Script:               cfg.AnalyzerScript,
		Timeout:              cfg.AnalyzeTimeout,
	}
}

func rendererOptions(cfg *config.Config) renderer.Options {
	return renderer.Options{
		PreferredInterpreter: cfg.PreferredInterpreter,
		FallbackInterpreter:  cfg.FallbackInterpreter,
		Script:               cfg.RendererScript,
		Timeout:              cfg.RenderTimeout,
	}
}
