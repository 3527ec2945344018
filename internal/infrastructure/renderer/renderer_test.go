package renderer

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jan-server/services/quadchart-api/internal/domain/template"
	"jan-server/services/quadchart-api/internal/utils/platformerrors"
)

func writeStub(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stub.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func stubOptions(script string) Options {
	return Options{
		PreferredInterpreter: "/nonexistent/venv/bin/python",
		FallbackInterpreter:  "/bin/sh",
		Script:               script,
		Timeout:              5 * time.Second,
	}
}

func TestRender_SuccessReturnsDestination(t *testing.T) {
	script := writeStub(t, `printf '%s' "$2" > "$3"`)
	dest := filepath.Join(t.TempDir(), "out.pptx")

	path, err := NewRenderer(stubOptions(script), zerolog.Nop()).Render(context.Background(), "/templates/a.pptx",
		map[string]string{"[Opportunity Name]": "Acme Radar"}, dest)
	require.NoError(t, err)
	assert.Equal(t, dest, path)

	written, err := os.ReadFile(dest)
	require.NoError(t, err)
	var got map[string]string
	require.NoError(t, json.Unmarshal(written, &got))
	assert.Equal(t, map[string]string{"[Opportunity Name]": "Acme Radar"}, got)
}

func TestRender_NonZeroExitIsRenderFailedWithStderr(t *testing.T) {
	script := writeStub(t, `echo "KeyError: slide 3" >&2
exit 1`)

	_, err := NewRenderer(stubOptions(script), zerolog.Nop()).Render(context.Background(), "/t.pptx", nil,
		filepath.Join(t.TempDir(), "out.pptx"))
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeRenderFailed))
	assert.Contains(t, err.Error(), "KeyError: slide 3")
}

func TestRender_MissingInterpreterIsSpawnFailed(t *testing.T) {
	opts := stubOptions(writeStub(t, "exit 0"))
	opts.FallbackInterpreter = filepath.Join(t.TempDir(), "no-such-interpreter")

	_, err := NewRenderer(opts, zerolog.Nop()).Render(context.Background(), "/t.pptx", nil,
		filepath.Join(t.TempDir(), "out.pptx"))
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeSpawnFailed))
	assert.False(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeRenderFailed))
}

func TestRender_Timeout(t *testing.T) {
	opts := stubOptions(writeStub(t, "exec sleep 5"))
	opts.Timeout = 200 * time.Millisecond

	_, err := NewRenderer(opts, zerolog.Nop()).Render(context.Background(), "/t.pptx", nil,
		filepath.Join(t.TempDir(), "out.pptx"))
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeRenderTimeout))
}

func TestRender_EnvelopeIsTrusted(t *testing.T) {
	ctx := context.Background()
	dest := filepath.Join(t.TempDir(), "out.pptx")

	ok := writeStub(t, `echo "loading template"
: > "$3"
echo '{"success": true, "path": "'"$3"'"}'`)
	path, err := NewRenderer(stubOptions(ok), zerolog.Nop()).Render(ctx, "/t.pptx", nil, dest)
	require.NoError(t, err)
	assert.Equal(t, dest, path)

	failed := writeStub(t, `echo '{"success": false, "error": "missing slide master"}'`)
	_, err = NewRenderer(stubOptions(failed), zerolog.Nop()).Render(ctx, "/t.pptx", nil, dest)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeRenderFailed))
	assert.Contains(t, err.Error(), "missing slide master")
}

func TestRender_ReportedPathElsewhereIsMovedIntoOutputDir(t *testing.T) {
	ctx := context.Background()
	elsewhere := filepath.Join(t.TempDir(), "custom.pptx")
	dest := filepath.Join(t.TempDir(), "quad_chart_qc_1.pptx")

	script := writeStub(t, `printf 'deck' > "`+elsewhere+`"
echo '{"success": true, "path": "`+elsewhere+`"}'`)
	path, err := NewRenderer(stubOptions(script), zerolog.Nop()).Render(ctx, "/t.pptx", nil, dest)
	require.NoError(t, err)
	assert.Equal(t, dest, path)

	written, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "deck", string(written))
	_, err = os.Stat(elsewhere)
	assert.True(t, os.IsNotExist(err))
}

func TestRender_ReportedPathElsewhereKeepsExistingDestination(t *testing.T) {
	ctx := context.Background()
	elsewhere := filepath.Join(t.TempDir(), "custom.pptx")
	dest := filepath.Join(t.TempDir(), "quad_chart_qc_1.pptx")

	script := writeStub(t, `printf 'served' > "$3"
printf 'stray' > "`+elsewhere+`"
echo '{"success": true, "path": "`+elsewhere+`"}'`)
	path, err := NewRenderer(stubOptions(script), zerolog.Nop()).Render(ctx, "/t.pptx", nil, dest)
	require.NoError(t, err)
	assert.Equal(t, dest, path)

	written, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "served", string(written))
}

func TestRender_ReportedPathMissingIsRenderFailed(t *testing.T) {
	script := writeStub(t, `echo '{"success": true, "path": "/nonexistent/custom.pptx"}'`)
	dest := filepath.Join(t.TempDir(), "out.pptx")

	_, err := NewRenderer(stubOptions(script), zerolog.Nop()).Render(context.Background(), "/t.pptx", nil, dest)
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeRenderFailed))
}

func TestRender_NonJSONOutputFallsBackToFileCheck(t *testing.T) {
	script := writeStub(t, `echo "done"`)
	dest := filepath.Join(t.TempDir(), "out.pptx")

	_, err := NewRenderer(stubOptions(script), zerolog.Nop()).Render(context.Background(), "/t.pptx", nil, dest)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeRenderFailed))
}

func TestRender_IgnoresCallerCancellation(t *testing.T) {
	script := writeStub(t, `sleep 0.2
: > "$3"`)
	dest := filepath.Join(t.TempDir(), "out.pptx")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	path, err := NewRenderer(stubOptions(script), zerolog.Nop()).Render(ctx, "/t.pptx", nil, dest)
	require.NoError(t, err)
	assert.Equal(t, dest, path)
}

func TestInterpreter_PrefersExistingPath(t *testing.T) {
	p := &process{opts: Options{PreferredInterpreter: "/bin/sh", FallbackInterpreter: "python3"}}
	assert.Equal(t, "/bin/sh", p.interpreter())

	p.opts.PreferredInterpreter = "/nonexistent/python"
	assert.Equal(t, "python3", p.interpreter())

	p.opts.PreferredInterpreter = t.TempDir()
	assert.Equal(t, "python3", p.interpreter())
}

func TestAnalyze_ParsesSlidesAndTables(t *testing.T) {
	script := writeStub(t, `cat <<'JSON'
{"slide_count": 2, "slides": [
  {"slide_number": 1,
   "placeholders": [{"type": "TITLE (1)", "text": "Program Quad Chart"}],
   "shapes": [
     {"name": "Title", "text_frame": {"text": "[A] and [B]"}},
     {"name": "Grid", "table": {"cells": [{"text": "[A]"}, {"text": "[C]"}]}},
     {"name": "Group", "shapes": [{"name": "Inner", "text_frame": {"text": "[D]"}}]}
   ]},
  {"slide_number": 2, "shapes": []}
]}
JSON`)

	analysis, err := NewAnalyzer(stubOptions(script), zerolog.Nop()).Analyze(context.Background(), "/t.pptx")
	require.NoError(t, err)
	assert.Equal(t, 2, analysis.SlideCount)
	assert.Equal(t, "Program Quad Chart", analysis.Title)
	require.Len(t, analysis.Slides, 2)
	assert.Equal(t, []string{"[A]", "[C]"}, analysis.Slides[0].Shapes[1].Cells)
	assert.ElementsMatch(t, []string{"[A]", "[B]", "[C]", "[D]"}, template.ExtractPlaceholders(analysis))
}

func TestAnalyze_Failures(t *testing.T) {
	ctx := context.Background()

	garbage := writeStub(t, `echo "not json"`)
	_, err := NewAnalyzer(stubOptions(garbage), zerolog.Nop()).Analyze(ctx, "/t.pptx")
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeAnalysisFailed))

	reported := writeStub(t, `echo '{"error": "File is not a zip file"}'`)
	_, err = NewAnalyzer(stubOptions(reported), zerolog.Nop()).Analyze(ctx, "/t.pptx")
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeAnalysisFailed))

	crashed := writeStub(t, "exit 2")
	_, err = NewAnalyzer(stubOptions(crashed), zerolog.Nop()).Analyze(ctx, "/t.pptx")
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeAnalysisFailed))
}
