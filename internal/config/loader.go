package config

import (
	"context"
)

// TasksLoader provides task definition loading capabilities. It abstracts
// the source of the definitions to allow for different implementations like
// files or embedded defaults.
type TasksLoader interface {
	// Load retrieves and parses the task definitions from the underlying
	// source.
	Load(ctx context.Context) (*TasksFile, error)
}
