// Package report renders analysis results. Every format renders the same
// immutable value, so threat counts and scores agree across formats.
package report

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"

	"github.com/joshsymonds/tyr/internal/models"
	"github.com/joshsymonds/tyr/pkg/logger"
)

// Built-in format names.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
	FormatHTML    = "html"
)

// ErrNilResult is returned when asked to render nothing.
var ErrNilResult = errors.New("report: nil result")

// Format represents a report rendering strategy.
type Format interface {
	// Render writes a single analysis.
	Render(w io.Writer, result *models.AnalysisResult) error
	// RenderBatch writes a directory scan.
	RenderBatch(w io.Writer, batch *models.BatchResult) error
	// Name returns the format identifier (e.g., "json").
	Name() string
	// Description returns a human-readable description of the format.
	Description() string
	// Extension returns the conventional file extension including the dot.
	Extension() string
}

// Options tune a format instance.
type Options struct {
	Logger logger.Logger
	// MinRisk hides listed threats below this level. Summaries still count
	// every threat. Empty lists everything.
	MinRisk models.RiskLevel
}

// FormatFactory creates instances of report formats.
type FormatFactory func(opts Options) (Format, error)

var (
	formatRegistry = make(map[string]FormatFactory)
	registryMutex  sync.RWMutex
)

// RegisterFormat registers a new report format factory.
func RegisterFormat(name string, factory FormatFactory) {
	registryMutex.Lock()
	defer registryMutex.Unlock()

	if factory == nil {
		panic(fmt.Sprintf("report: RegisterFormat factory is nil for format %q", name))
	}
	if _, dup := formatRegistry[name]; dup {
		panic(fmt.Sprintf("report: RegisterFormat called twice for format %q", name))
	}
	formatRegistry[name] = factory
}

// GetFormat creates an instance of the specified report format.
func GetFormat(name string, opts Options) (Format, error) {
	registryMutex.RLock()
	factory, exists := formatRegistry[name]
	registryMutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unknown report format: %s", name)
	}
	if opts.Logger == nil {
		opts.Logger = logger.GetGlobalLogger()
	}

	return factory(opts)
}

// ListFormats returns all registered format names in sorted order.
func ListFormats() []string {
	registryMutex.RLock()
	defer registryMutex.RUnlock()

	formats := make([]string, 0, len(formatRegistry))
	for name := range formatRegistry {
		formats = append(formats, name)
	}
	sort.Strings(formats)
	return formats
}

func init() {
	RegisterFormat(FormatConsole, func(opts Options) (Format, error) {
		return NewConsoleFormat(opts), nil
	})
	RegisterFormat(FormatJSON, func(opts Options) (Format, error) {
		return NewJSONFormat(opts), nil
	})
	RegisterFormat(FormatHTML, func(opts Options) (Format, error) {
		return NewHTMLFormat(opts)
	})
}

func loggerFrom(opts Options) logger.Logger {
	if opts.Logger == nil {
		return logger.GetGlobalLogger()
	}
	return opts.Logger
}

// listed returns the threats shown at minRisk, preserving order.
func listed(threats []models.Threat, minRisk models.RiskLevel) []models.Threat {
	if minRisk == "" || minRisk == models.RiskUnknown {
		return threats
	}
	out := make([]models.Threat, 0, len(threats))
	for _, t := range threats {
		if t.RiskLevel != models.RiskUnknown && t.RiskLevel.AtLeast(minRisk) {
			out = append(out, t)
		}
	}
	return out
}

// formatScore prints a score without trailing zeros.
func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}

// ScoreBand maps a score onto the risk level whose colour represents it.
func ScoreBand(score float64) models.RiskLevel {
	switch {
	case score >= 75:
		return models.RiskCritical
	case score >= 50:
		return models.RiskHigh
	case score >= 25:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}
