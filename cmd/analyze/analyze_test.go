package analyze

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshsymonds/tyr/internal/analyzer"
	"github.com/joshsymonds/tyr/internal/batch"
	"github.com/joshsymonds/tyr/internal/cli"
	"github.com/joshsymonds/tyr/internal/cli/clitest"
	"github.com/joshsymonds/tyr/internal/models"
	"github.com/joshsymonds/tyr/internal/provider"
)

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, env *clitest.Env, args ...string) error {
	t.Helper()
	cmd := NewCommand(env.Env)
	cmd.SetArgs(args)
	cmd.SetOut(env.Stdout)
	cmd.SetErr(env.Stderr)
	return cmd.ExecuteContext(context.Background())
}

type analyzeCall struct {
	content          string
	inputType        models.InputType
	includeEducation bool
}

func recordingProvider(reply string) (*provider.MockProvider, *[]analyzeCall) {
	var calls []analyzeCall
	p := provider.NewMockProvider(reply)
	p.AnalyzeFunc = func(_ context.Context, content string, inputType models.InputType, includeEducation bool) (string, error) {
		calls = append(calls, analyzeCall{content: content, inputType: inputType, includeEducation: includeEducation})
		return reply, nil
	}
	return p, &calls
}

func TestAnalyzeJSON(t *testing.T) {
	p, calls := recordingProvider(clitest.ThreatModel)
	env := clitest.NewEnv(t, p)
	path := writeInput(t, "main.tf", `resource "aws_s3_bucket" "logs" {}`)

	require.NoError(t, execute(t, env, path, "--format", "json"))

	var doc struct {
		Threats []struct {
			ID string `json:"id"`
		} `json:"threats"`
		OverallRiskScore float64 `json:"overall_risk_score"`
	}
	require.NoError(t, json.Unmarshal(env.Stdout.Bytes(), &doc))
	assert.Len(t, doc.Threats, 4)
	assert.InDelta(t, 51, doc.OverallRiskScore, 0.001)

	require.Len(t, *calls, 1)
	assert.Equal(t, models.InputTerraform, (*calls)[0].inputType)
	assert.True(t, (*calls)[0].includeEducation)
}

func TestAnalyzeConsoleMinRisk(t *testing.T) {
	env := clitest.NewEnv(t, provider.NewMockProvider(clitest.ThreatModel))
	path := writeInput(t, "system.md", "A web app talks to a database.")

	require.NoError(t, execute(t, env, path, "--min-risk", "high"))

	out := env.Stdout.String()
	assert.Contains(t, out, "Token replay")
	assert.Contains(t, out, "Log tampering")
	assert.NotContains(t, out, "Missing rate limit")
}

func TestAnalyzeTypeFlagAndEducation(t *testing.T) {
	p, calls := recordingProvider(clitest.ThreatModel)
	env := clitest.NewEnv(t, p)
	path := writeInput(t, "notes.txt", "kind: Deployment")

	require.NoError(t, execute(t, env, path, "--type", "k8s", "--no-education", "--format", "json"))

	require.Len(t, *calls, 1)
	assert.Equal(t, models.InputKubernetes, (*calls)[0].inputType)
	assert.False(t, (*calls)[0].includeEducation)
	assert.Equal(t, "kind: Deployment", (*calls)[0].content)
}

func TestAnalyzeHTMLOutput(t *testing.T) {
	env := clitest.NewEnv(t, provider.NewMockProvider(clitest.ThreatModel))
	path := writeInput(t, "api.yaml", "openapi: 3.0.0\n")
	out := filepath.Join(t.TempDir(), "report.html")

	require.NoError(t, execute(t, env, path, "--format", "html", "--output", out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<html")
	assert.Contains(t, string(data), "Token replay")
	assert.Empty(t, env.Stdout.String())
}

func TestAnalyzeFailOn(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		wantErr bool
	}{
		{name: "critical present", level: "critical", wantErr: true},
		{name: "low present", level: "low", wantErr: true},
		{name: "no threshold", level: "", wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := clitest.NewEnv(t, provider.NewMockProvider(clitest.ThreatModel))
			path := writeInput(t, "system.md", "system")

			err := execute(t, env, path, "--format", "json", "--fail-on", tt.level)
			if tt.wantErr {
				require.ErrorIs(t, err, cli.ErrRiskThreshold)
				assert.Equal(t, 2, cli.ExitCode(err))
				// The report is still produced.
				assert.NotEmpty(t, env.Stdout.String())
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestAnalyzeFailOnBelowThreshold(t *testing.T) {
	reply := `{"threats": [{"title": "Minor", "category": "Spoofing", "risk_level": "Low", "description": "d"}]}`
	env := clitest.NewEnv(t, provider.NewMockProvider(reply))
	path := writeInput(t, "system.md", "system")

	require.NoError(t, execute(t, env, path, "--format", "json", "--fail-on", "high"))
}

func TestAnalyzeMetricsFile(t *testing.T) {
	env := clitest.NewEnv(t, provider.NewMockProvider(clitest.ThreatModel))
	path := writeInput(t, "system.md", "system")
	metricsPath := filepath.Join(t.TempDir(), "tyr.prom")

	require.NoError(t, execute(t, env, path, "--format", "json", "--metrics-file", metricsPath))

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "tyr_")
}

func TestAnalyzeErrors(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.md")
	require.NoError(t, os.WriteFile(empty, []byte("  \n"), 0o600))
	valid := filepath.Join(dir, "system.md")
	require.NoError(t, os.WriteFile(valid, []byte("system"), 0o600))

	tests := []struct {
		check func(t *testing.T, err error)
		reply string
		name  string
		args  []string
	}{
		{
			name: "missing file",
			args: []string{filepath.Join(dir, "missing.md")},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, fs.ErrNotExist)
			},
		},
		{
			name: "empty file",
			args: []string{empty},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, batch.ErrEmptyFile)
				assert.Equal(t, models.ErrorKindIO, analyzer.KindOf(err))
			},
		},
		{
			name: "unknown type",
			args: []string{valid, "--type", "diagram"},
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "unknown input type")
			},
		},
		{
			name: "unknown format",
			args: []string{valid, "--format", "pdf"},
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "unknown report format")
			},
		},
		{
			name: "bad level",
			args: []string{valid, "--min-risk", "severe"},
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "min-risk")
			},
		},
		{
			name:  "malformed reply",
			args:  []string{valid},
			reply: "I could not find any threats, sorry.",
			check: func(t *testing.T, err error) {
				assert.Equal(t, models.ErrorKindMalformed, analyzer.KindOf(err))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := tt.reply
			if reply == "" {
				reply = clitest.ThreatModel
			}
			env := clitest.NewEnv(t, provider.NewMockProvider(reply))

			err := execute(t, env, tt.args...)

			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestAnalyzeProviderFailure(t *testing.T) {
	p := provider.NewMockProvider("")
	p.AnalyzeFunc = func(context.Context, string, models.InputType, bool) (string, error) {
		return "", provider.NewError("mock", provider.ErrorTypeUnavailable, errors.New("connection refused"))
	}
	env := clitest.NewEnv(t, p)
	path := writeInput(t, "system.md", "system")

	err := execute(t, env, path)

	require.Error(t, err)
	assert.Equal(t, models.ErrorKindUnavailable, analyzer.KindOf(err))
	assert.Contains(t, err.Error(), "analyzing "+path)
	assert.Empty(t, env.Stdout.String())
}
