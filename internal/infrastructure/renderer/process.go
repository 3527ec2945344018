package renderer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"jan-server/services/quadchart-api/internal/infrastructure/metrics"
	"jan-server/services/quadchart-api/internal/infrastructure/observability"
	"jan-server/services/quadchart-api/internal/utils/platformerrors"
)

const (
	maxDiagnosticLen = 2000
	waitDelay        = 2 * time.Second
)

// Options locates the interpreter and script of an out-of-process collaborator.
type Options struct {
	PreferredInterpreter string
	FallbackInterpreter  string
	Script               string
	Timeout              time.Duration
}

type output struct {
	stdout []byte
	stderr []byte
}

// process runs one script through an interpreter and maps its failures to error kinds.
type process struct {
	operation   string
	opts        Options
	failureType platformerrors.ErrorType
	timeoutType platformerrors.ErrorType
	log         zerolog.Logger
}

// interpreter prefers the configured path when it exists and falls back silently otherwise.
func (p *process) interpreter() string {
	preferred := strings.TrimSpace(p.opts.PreferredInterpreter)
	if preferred != "" {
		if info, err := os.Stat(preferred); err == nil && !info.IsDir() {
			return preferred
		}
	}
	return p.opts.FallbackInterpreter
}

// run executes the script detached from ctx cancellation; only the timeout bounds it.
func (p *process) run(ctx context.Context, templatePath string, args ...string) (*output, error) {
	interpreter := p.interpreter()

	ctx, span := observability.StartSubprocessSpan(ctx, p.operation, interpreter, templatePath)
	defer span.End()

	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.opts.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, interpreter, append([]string{p.opts.Script}, args...)...)
	cmd.WaitDelay = waitDelay
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	started := time.Now()
	err := cmd.Run()
	elapsed := time.Since(started)

	if err == nil {
		metrics.RecordSubprocess(p.operation, "success", elapsed.Seconds())
		p.log.Debug().
			Str("interpreter", interpreter).
			Dur("duration", elapsed).
			Int("stdout_bytes", stdout.Len()).
			Msg("process completed")
		return &output{stdout: stdout.Bytes(), stderr: stderr.Bytes()}, nil
	}

	var perr *platformerrors.PlatformError
	var exitErr *exec.ExitError
	switch {
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		metrics.RecordSubprocess(p.operation, "timeout", elapsed.Seconds())
		perr = platformerrors.NewErrorWithContext(ctx, platformerrors.LayerInfrastructure, p.timeoutType,
			fmt.Sprintf("%s timed out after %s", p.operation, p.opts.Timeout), err, "subprocess-timeout-001",
			map[string]any{"interpreter": interpreter, "template": templatePath})
	case errors.As(err, &exitErr) && exitErr.Exited():
		metrics.RecordSubprocess(p.operation, "failed", elapsed.Seconds())
		perr = platformerrors.NewErrorWithContext(ctx, platformerrors.LayerInfrastructure, p.failureType,
			exitMessage(p.operation, exitErr.ExitCode(), stderr.String()), err, "subprocess-exit-001",
			map[string]any{"interpreter": interpreter, "exit_code": exitErr.ExitCode(), "stderr": diagnostic(stderr.String())})
	case exitErr != nil:
		metrics.RecordSubprocess(p.operation, "failed", elapsed.Seconds())
		perr = platformerrors.NewErrorWithContext(ctx, platformerrors.LayerInfrastructure, p.failureType,
			fmt.Sprintf("%s terminated: %s", p.operation, exitErr.String()), err, "subprocess-signal-001",
			map[string]any{"interpreter": interpreter, "stderr": diagnostic(stderr.String())})
	default:
		metrics.RecordSubprocess(p.operation, "spawn_failed", elapsed.Seconds())
		perr = platformerrors.NewErrorWithContext(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeSpawnFailed,
			fmt.Sprintf("failed to start %s process", p.operation), err, "subprocess-spawn-001",
			map[string]any{"interpreter": interpreter, "script": p.opts.Script})
	}

	observability.RecordError(span, perr, string(perr.Type))
	p.log.Error().
		Err(err).
		Str("error_type", string(perr.Type)).
		Str("interpreter", interpreter).
		Str("stderr", diagnostic(stderr.String())).
		Dur("duration", elapsed).
		Msg("process failed")
	return nil, perr
}

func exitMessage(operation string, code int, stderr string) string {
	text := diagnostic(stderr)
	if text == "" {
		return fmt.Sprintf("%s exited with status %d", operation, code)
	}
	return fmt.Sprintf("%s exited with status %d: %s", operation, code, text)
}

func diagnostic(stderr string) string {
	text := strings.TrimSpace(stderr)
	if len(text) > maxDiagnosticLen {
		text = text[len(text)-maxDiagnosticLen:]
	}
	return text
}

// lastJSONLine returns stdout when it is a JSON object, otherwise its last line that is.
func lastJSONLine(stdout []byte) []byte {
	trimmed := bytes.TrimSpace(stdout)
	if len(trimmed) == 0 {
		return nil
	}
	if trimmed[0] == '{' && trimmed[len(trimmed)-1] == '}' {
		return trimmed
	}
	lines := bytes.Split(trimmed, []byte("\n"))
	for i := len(lines) - 1; i >= 0; i-- {
		line := bytes.TrimSpace(lines[i])
		if len(line) > 0 && line[0] == '{' {
			return line
		}
	}
	return nil
}
