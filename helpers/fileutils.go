package helpers

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SaveFile writes content to name below outputDir, creating directories as
// needed. An empty outputDir means the current working directory.
func SaveFile(outputDir string, name string, content []byte) (string, error) {
	if outputDir == "" {
		currentDir, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("error getting current working directory: %v", err)
		}
		outputDir = currentDir
	}

	cleanName := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(cleanName) || cleanName == ".." || strings.HasPrefix(cleanName, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("file name %s escapes output directory %s", name, outputDir)
	}

	fullPath := filepath.Join(outputDir, cleanName)

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o755); err != nil && !os.IsExist(err) {
		return "", fmt.Errorf("error creating output folder for %s: %w", fullPath, err)
	}

	if err := os.WriteFile(fullPath, content, 0o644); err != nil {
		return "", fmt.Errorf("error saving file %s: %w", fullPath, err)
	}

	return fullPath, nil
}

// PreviewFileName is the output name used for a rendered page preview.
func PreviewFileName(segments ...string) string {
	if len(segments) == 0 {
		return "index.html"
	}
	name := strings.Join(segments, "_")
	name = strings.NewReplacer("/", "_", "\\", "_", " ", "_").Replace(name)
	return strings.TrimSuffix(name, filepath.Ext(name)) + ".html"
}
