package renderer

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"jan-server/services/quadchart-api/internal/utils/platformerrors"
)

type envelope struct {
	Success *bool  `json:"success"`
	Path    string `json:"path"`
	Error   string `json:"error"`
}

// Renderer fills templates by running the generation script:
// interpreter script <template> <substitutions json> <output>.
type Renderer struct {
	proc *process
}

func NewRenderer(opts Options, log zerolog.Logger) *Renderer {
	return &Renderer{proc: &process{
		operation:   "render",
		opts:        opts,
		failureType: platformerrors.ErrorTypeRenderFailed,
		timeoutType: platformerrors.ErrorTypeRenderTimeout,
		log:         log.With().Str("component", "pptx-renderer").Logger(),
	}}
}

func (r *Renderer) Render(ctx context.Context, templatePath string, substitutions map[string]string, destPath string) (string, error) {
	if substitutions == nil {
		substitutions = map[string]string{}
	}
	payload, err := json.Marshal(substitutions)
	if err != nil {
		return "", platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeInternal,
			"failed to encode substitutions", err, "render-encode-001")
	}

	out, err := r.proc.run(ctx, templatePath, templatePath, string(payload), destPath)
	if err != nil {
		return "", err
	}

	var env envelope
	if raw := lastJSONLine(out.stdout); raw != nil && json.Unmarshal(raw, &env) == nil && env.Success != nil {
		if !*env.Success {
			message := strings.TrimSpace(env.Error)
			if message == "" {
				message = "renderer reported failure"
			}
			return "", platformerrors.NewErrorWithContext(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeRenderFailed,
				message, nil, "render-envelope-001", map[string]any{"stderr": diagnostic(string(out.stderr))})
		}
		if reported := strings.TrimSpace(env.Path); reported != "" && filepath.Clean(reported) != filepath.Clean(destPath) {
			return r.adopt(ctx, reported, destPath)
		}
		return destPath, nil
	}

	if _, err := os.Stat(destPath); err != nil {
		return "", platformerrors.NewErrorWithContext(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeRenderFailed,
			"renderer produced no output file", err, "render-missing-output-001",
			map[string]any{"dest": destPath, "stderr": diagnostic(string(out.stderr))})
	}
	return destPath, nil
}

// adopt keeps destPath as the served artifact when the script reports writing elsewhere.
// A file at the reported location is moved into place unless destPath already exists.
func (r *Renderer) adopt(ctx context.Context, reported, destPath string) (string, error) {
	log := r.proc.log.With().Str("reported", reported).Str("dest", destPath).Logger()
	if _, err := os.Stat(destPath); err == nil {
		log.Warn().Msg("renderer reported a different output path, serving the allocated file")
		return destPath, nil
	}
	if err := moveFile(reported, destPath); err != nil {
		return "", platformerrors.NewErrorWithContext(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeRenderFailed,
			"renderer output is outside the output directory and could not be moved", err, "render-adopt-001",
			map[string]any{"reported": reported, "dest": destPath})
	}
	log.Warn().Msg("moved renderer output into the output directory")
	return destPath, nil
}

func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return err
	}
	return os.Remove(src)
}
