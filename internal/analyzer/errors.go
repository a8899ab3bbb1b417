package analyzer

import (
	"context"
	"errors"
	"io/fs"

	"github.com/joshsymonds/tyr/internal/config"
	"github.com/joshsymonds/tyr/internal/models"
	"github.com/joshsymonds/tyr/internal/parser"
	"github.com/joshsymonds/tyr/internal/provider"
)

// KindOf collapses any error produced by the analysis pipeline into a
// reporting kind.
func KindOf(err error) models.ErrorKind {
	if err == nil {
		return ""
	}

	if config.IsConfigurationError(err) {
		return models.ErrorKindConfiguration
	}

	if parser.IsMalformed(err) {
		return models.ErrorKindMalformed
	}

	switch provider.TypeOf(err) {
	case provider.ErrorTypeConfig:
		return models.ErrorKindConfiguration
	case provider.ErrorTypeAuth:
		return models.ErrorKindAuth
	case provider.ErrorTypeUnavailable:
		return models.ErrorKindUnavailable
	case provider.ErrorTypeTimeout:
		return models.ErrorKindTimeout
	case provider.ErrorTypeCanceled:
		return models.ErrorKindCanceled
	case provider.ErrorTypeResponse:
		return models.ErrorKindUnknown
	}

	switch {
	case errors.Is(err, context.Canceled):
		return models.ErrorKindCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return models.ErrorKindTimeout
	}

	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return models.ErrorKindIO
	}

	return models.ErrorKindUnknown
}

// IsFatal reports whether err means no further analysis can succeed in this
// process.
func IsFatal(err error) bool {
	switch KindOf(err) {
	case models.ErrorKindConfiguration, models.ErrorKindAuth:
		return true
	default:
		return false
	}
}
