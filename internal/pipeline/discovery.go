package pipeline

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/rahulprajapat123/investment-manager/internal/config"
	apperrors "github.com/rahulprajapat123/investment-manager/internal/errors"
)

// FileDiscovery finds candidate broker export files under a root directory.
// It is an interface so tests and alternative sources (an upload store, an
// object bucket) can stand in for the local filesystem.
type FileDiscovery interface {
	Discover(ctx context.Context, root string) ([]string, error)
}

// FilesystemDiscovery walks a local directory tree for spreadsheet files.
type FilesystemDiscovery struct{}

// Discover returns every spreadsheet file under root, in walk order. Office
// lock files and hidden files are excluded.
func (FilesystemDiscovery) Discover(ctx context.Context, root string) ([]string, error) {
	var paths []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}

		name := d.Name()
		if strings.HasPrefix(name, "~$") || strings.HasPrefix(name, ".") {
			return nil
		}
		if !config.SpreadsheetExtensions[strings.ToLower(filepath.Ext(name))] {
			return nil
		}

		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, apperrors.NewStorageError("failed to walk data directory", err).WithContext("root", root)
	}

	return paths, nil
}
