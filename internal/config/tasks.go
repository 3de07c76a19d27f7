package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/annolab/vidmark/internal/domain/stimulus"
	"github.com/annolab/vidmark/internal/domain/task"
)

// TasksFile is the parsed task definition file.
type TasksFile struct {
	Tasks []TaskSpec `yaml:"tasks"`
}

// TaskSpec declares one annotation task. Its media directory is scanned at
// startup: matching files, sorted by name, become the task's stimulus
// sequence with zero-padded positional identifiers.
type TaskSpec struct {
	Name     string      `yaml:"name"`
	Title    string      `yaml:"title,omitempty"`
	MediaDir string      `yaml:"media_dir"`
	Pattern  string      `yaml:"pattern,omitempty"`
	Fields   []FieldSpec `yaml:"fields"`
}

// FieldSpec declares one answer field as a tagged variant.
type FieldSpec struct {
	Kind        string   `yaml:"kind"`
	Label       string   `yaml:"label"`
	Required    bool     `yaml:"required,omitempty"`
	Choices     []string `yaml:"choices,omitempty"`
	Placeholder string   `yaml:"placeholder,omitempty"`
}

// Build resolves the task specs into registered tasks, scanning each media
// directory for stimuli.
func (tf *TasksFile) Build() ([]*task.Task, error) {
	tasks := make([]*task.Task, 0, len(tf.Tasks))

	for _, spec := range tf.Tasks {
		t, err := spec.build()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}

	return tasks, nil
}

func (ts *TaskSpec) build() (*task.Task, error) {
	pattern := ts.Pattern
	if pattern == "" {
		pattern = "*.mp4"
	}

	entries, err := os.ReadDir(ts.MediaDir)
	if err != nil {
		return nil, fmt.Errorf("task %s: reading media dir: %w", ts.Name, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		match, err := filepath.Match(pattern, e.Name())
		if err != nil {
			return nil, fmt.Errorf("task %s: bad pattern %q: %w", ts.Name, pattern, err)
		}
		if match {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	refs := make([]stimulus.Ref, len(names))
	for i, name := range names {
		refs[i] = stimulus.Ref{
			ID:   stimulus.FromIndex(i),
			Path: filepath.Join(ts.MediaDir, name),
		}
	}

	fields := make([]task.Field, len(ts.Fields))
	for i, fs := range ts.Fields {
		fields[i] = task.Field{
			Kind:        task.FieldKind(fs.Kind),
			Label:       fs.Label,
			Required:    fs.Required,
			Choices:     fs.Choices,
			Placeholder: fs.Placeholder,
		}
	}

	return task.New(ts.Name, ts.Title, fields, refs)
}
