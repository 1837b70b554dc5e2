package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ScannedFile represents a markdown file found during a scan.
type ScannedFile struct {
	RelPath string // Relative path from the scan root, forward slashes
	AbsPath string // Absolute file path
}

// Scan walks root and returns every markdown file under it, in walk order.
// Dot directories are skipped.
func Scan(ctx context.Context, root string) ([]ScannedFile, error) {
	var files []ScannedFile

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("failed to access path %s: %w", path, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if info.IsDir() {
			// The root itself may be a dot directory; only skip below it.
			if path != root && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if ext := filepath.Ext(path); ext != ".md" && ext != ".markdown" {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("failed to compute relative path for %s: %w", path, err)
		}

		files = append(files, ScannedFile{
			RelPath: filepath.ToSlash(relPath),
			AbsPath: path,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	return files, nil
}
