// Package clitest builds command environments for tests.
package clitest

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"github.com/joshsymonds/tyr/internal/cli"
	"github.com/joshsymonds/tyr/internal/config"
	"github.com/joshsymonds/tyr/internal/metrics"
	"github.com/joshsymonds/tyr/internal/provider"
	"github.com/joshsymonds/tyr/pkg/logger"
)

// ThreatModel is a provider reply with one threat at each known level.
// Its default score is 25+15+8+3 = 51.
const ThreatModel = `{
  "threats": [
    {"id": "T1", "title": "Token replay", "category": "Spoofing", "risk_level": "Critical", "description": "Stolen tokens are accepted twice."},
    {"id": "T2", "title": "Log tampering", "category": "Tampering", "risk_level": "High", "description": "Audit logs are writable."},
    {"id": "T3", "title": "Verbose errors", "category": "Information Disclosure", "risk_level": "Medium", "description": "Stack traces leak."},
    {"id": "T4", "title": "Missing rate limit", "category": "Denial of Service", "risk_level": "Low", "description": "Login is unthrottled."}
  ],
  "recommendations": ["Rotate signing keys"]
}`

// Env is a test environment and its captured output.
type Env struct {
	*cli.Env
	Stdout *bytes.Buffer
	Stderr *bytes.Buffer
	Log    *logger.MockLogger
	// Configs records every configuration a provider was built from.
	Configs []config.Config
}

// NewEnv returns an environment whose provider factory always returns p.
// The process environment is not consulted.
func NewEnv(t *testing.T, p provider.Provider) *Env {
	t.Helper()

	log := logger.NewMockLogger()
	env := &Env{
		Stdout: &bytes.Buffer{},
		Stderr: &bytes.Buffer{},
		Log:    log,
	}
	env.Env = &cli.Env{
		Viper:   viper.New(),
		Logger:  log,
		Metrics: metrics.New(),
		In:      strings.NewReader(""),
		Out:     env.Stdout,
		Err:     env.Stderr,
		NewProvider: func(cfg config.Config, _ ...provider.Option) (provider.Provider, error) {
			env.Configs = append(env.Configs, cfg)
			return p, nil
		},
		IsTerminal: func() bool { return false },
	}
	return env
}

// SetInput replaces standard input.
func (e *Env) SetInput(s string) {
	e.In = strings.NewReader(s)
}
