// Package detector classifies broker export files by kind using the shared
// declarative keyword rules. It never guesses: a filename matching no rule is
// reported as unknown and the file is excluded from the pipeline.
package detector

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/rahulprajapat123/investment-manager/pkg/contracts/domain"
)

// Detector infers a file's kind from its filename.
type Detector struct {
	logger *slog.Logger
}

// New creates a file-kind detector.
func New(logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{logger: logger}
}

// DetectKind classifies the file at path. The priority order of KindRules
// decides ties; no rule matching yields FileKindUnknown.
func (d *Detector) DetectKind(ctx context.Context, path string) domain.FileKind {
	name := strings.ToLower(filepath.Base(path))

	for _, rule := range KindRules {
		if rule.Matches(name) {
			return rule.Kind
		}
	}

	d.logger.WarnContext(ctx, "file kind could not be determined, excluding file",
		slog.String("path", path))
	return domain.FileKindUnknown
}
