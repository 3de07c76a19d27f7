// Package fileloader loads task definitions from a YAML file on disk.
package fileloader

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/annolab/vidmark/internal/config"
)

// FileLoader loads task definitions from a file on disk. It implements the
// TasksLoader interface.
type FileLoader struct {
	// path is the filesystem path to the task definition file.
	path string
}

// NewFileLoader creates a new FileLoader for the specified file path.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{path: path}
}

// Load reads and parses the task definition file. The context parameter
// allows for cancellation of long-running operations.
func (l *FileLoader) Load(ctx context.Context) (*config.TasksFile, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tasks file: %w", err)
	}

	var tf config.TasksFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("failed to parse tasks file: %w", err)
	}

	return &tf, nil
}
