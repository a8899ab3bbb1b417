package report

import (
	"bytes"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshsymonds/tyr/internal/models"
)

func TestHTMLFormatSelfContained(t *testing.T) {
	f, err := NewHTMLFormat(Options{})
	require.NoError(t, err)
	f.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	var buf bytes.Buffer
	require.NoError(t, f.Render(&buf, sampleResult()))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "<style>")
	assert.NotRegexp(t, regexp.MustCompile(`(?i)<link\b`), out)
	assert.NotRegexp(t, regexp.MustCompile(`(?i)<script[^>]*\bsrc=`), out)
	assert.NotRegexp(t, regexp.MustCompile(`(?i)(src|href)="https?://`), out)

	assert.Contains(t, out, "Generated 2026-01-02 03:04:05 UTC")
	assert.Contains(t, out, "Input: Terraform Configuration")
	assert.Contains(t, out, "Provider: ollama")
	assert.Contains(t, out, "Information Disclosure")
	assert.Contains(t, out, `class="tag risk-critical"`)
	assert.Contains(t, out, "<li>Steal a session token</li>")
	assert.Contains(t, out, "Enable MFA")
	assert.Contains(t, out, "Rotate credentials quarterly")
}

func TestHTMLFormatEscapesContent(t *testing.T) {
	f, err := NewHTMLFormat(Options{})
	require.NoError(t, err)

	result := scored(models.AnalysisResult{
		Threats: []models.Threat{{
			ID:          "T1",
			Title:       `<script>alert("x")</script>`,
			Category:    models.CategoryTampering,
			RiskLevel:   models.RiskHigh,
			Description: "a & b",
		}},
	}, 15)

	var buf bytes.Buffer
	require.NoError(t, f.Render(&buf, result))
	out := buf.String()

	assert.NotContains(t, out, `<script>alert`)
	assert.Contains(t, out, "&lt;script&gt;")
	assert.Contains(t, out, "a &amp; b")
}

func TestHTMLFormatMinRisk(t *testing.T) {
	f, err := NewHTMLFormat(Options{MinRisk: models.RiskHigh})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.Render(&buf, sampleResult()))
	out := buf.String()

	assert.Contains(t, out, `data-threat-count="4"`)
	assert.Contains(t, out, "Token replay")
	assert.NotContains(t, out, "Verbose error pages")
	assert.Contains(t, out, "2 threat(s) below High not listed.")
}

func TestHTMLFormatUnknownLevel(t *testing.T) {
	f, err := NewHTMLFormat(Options{})
	require.NoError(t, err)

	result := scored(models.AnalysisResult{
		Threats: []models.Threat{{ID: "T1", Title: "Odd", Category: models.CategoryUnknown, RiskLevel: models.RiskUnknown}},
	}, 0)

	var buf bytes.Buffer
	require.NoError(t, f.Render(&buf, result))
	assert.Contains(t, buf.String(), "Unknown: 1")
	assert.Contains(t, buf.String(), `class="tag risk-unknown"`)
}
