// Package task defines annotation tasks: the ordered stimuli they present
// and the answer fields they collect.
package task

import (
	"errors"
	"fmt"

	"github.com/annolab/vidmark/internal/domain/stimulus"
)

// FieldKind discriminates the answer field variants.
type FieldKind string

const (
	// SingleChoice renders as radio buttons; exactly one choice allowed.
	SingleChoice FieldKind = "single-choice"

	// MultiChoice renders as checkboxes; any number of choices allowed.
	MultiChoice FieldKind = "multi-choice"

	// FreeText renders as a text input.
	FreeText FieldKind = "free-text"
)

// Field is one answer field of a task. Kind-specific payload lives in
// Choices (single/multi choice) or Placeholder (free text).
type Field struct {
	Kind        FieldKind
	Label       string
	Required    bool
	Choices     []string
	Placeholder string
}

var (
	// ErrTaskNotFound indicates a lookup for an unregistered task name.
	ErrTaskNotFound = errors.New("task not found")

	errDuplicateTask = errors.New("duplicate task name")
	errNoName        = errors.New("task has no name")
	errBadField      = errors.New("invalid answer field")
)

// Task is one registered annotation task. Tasks are built once at startup
// and read-only afterwards.
type Task struct {
	Name     string
	Title    string
	Fields   []Field
	Sequence *stimulus.Sequence

	refs map[stimulus.ID]stimulus.Ref
}

// New constructs a task over the given stimulus references, in order.
func New(name, title string, fields []Field, refs []stimulus.Ref) (*Task, error) {
	if name == "" {
		return nil, errNoName
	}

	for _, f := range fields {
		if err := validateField(f); err != nil {
			return nil, fmt.Errorf("task %s: %w", name, err)
		}
	}

	ids := make([]stimulus.ID, len(refs))
	byID := make(map[stimulus.ID]stimulus.Ref, len(refs))
	for i, ref := range refs {
		ids[i] = ref.ID
		byID[ref.ID] = ref
	}

	seq, err := stimulus.NewSequence(ids)
	if err != nil {
		return nil, fmt.Errorf("task %s: %w", name, err)
	}

	return &Task{
		Name:     name,
		Title:    title,
		Fields:   fields,
		Sequence: seq,
		refs:     byID,
	}, nil
}

func validateField(f Field) error {
	if f.Label == "" {
		return fmt.Errorf("%w: field has no label", errBadField)
	}

	switch f.Kind {
	case SingleChoice, MultiChoice:
		if len(f.Choices) == 0 {
			return fmt.Errorf("%w: %s field %q has no choices", errBadField, f.Kind, f.Label)
		}
	case FreeText:
	default:
		return fmt.Errorf("%w: unknown kind %q on field %q", errBadField, f.Kind, f.Label)
	}

	return nil
}

// Ref returns the media reference backing id.
func (t *Task) Ref(id stimulus.ID) (stimulus.Ref, bool) {
	ref, ok := t.refs[id]
	return ref, ok
}

// Refs returns all references in sequence order.
func (t *Task) Refs() []stimulus.Ref {
	out := make([]stimulus.Ref, 0, t.Sequence.Len())
	for _, id := range t.Sequence.IDs() {
		out = append(out, t.refs[id])
	}
	return out
}

// RequiredFields returns the fields an annotator must answer.
func (t *Task) RequiredFields() []Field {
	var out []Field
	for _, f := range t.Fields {
		if f.Required {
			out = append(out, f)
		}
	}
	return out
}

// Registry is the lookup table of registered tasks, resolved once at
// startup from an explicit registration list.
type Registry struct {
	byName map[string]*Task
	names  []string
}

// NewRegistry resolves the registration list into a lookup table.
// Registration order is preserved for display.
func NewRegistry(tasks ...*Task) (*Registry, error) {
	byName := make(map[string]*Task, len(tasks))
	names := make([]string, 0, len(tasks))

	for _, t := range tasks {
		if _, exists := byName[t.Name]; exists {
			return nil, fmt.Errorf("%w: %s", errDuplicateTask, t.Name)
		}
		byName[t.Name] = t
		names = append(names, t.Name)
	}

	return &Registry{byName: byName, names: names}, nil
}

// Get returns the task registered under name.
func (r *Registry) Get(name string) (*Task, error) {
	t, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, name)
	}
	return t, nil
}

// Names returns all registered task names in registration order.
func (r *Registry) Names() []string { return r.names }
