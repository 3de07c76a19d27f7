// Package annotation is the façade the web layer calls. Every query is a
// pure function of the task registry, the process-wide exclusion registries
// (immutable after startup), and a freshly computed completion set.
package annotation

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/trace"

	"github.com/annolab/vidmark/internal/app/completion"
	"github.com/annolab/vidmark/internal/domain/exclusion"
	"github.com/annolab/vidmark/internal/domain/navigation"
	"github.com/annolab/vidmark/internal/domain/stimulus"
	"github.com/annolab/vidmark/internal/domain/task"
	"github.com/annolab/vidmark/pkg/common/logger"
)

// Service answers navigation queries for every registered task.
type Service struct {
	tasks      *task.Registry
	exclusions map[string]*exclusion.Registry
	index      *completion.Index
	logger     *logger.Logger
	tracer     trace.Tracer
}

// NewService wires the registry, the per-task exclusion registries built (or
// loaded) at startup, and the completion index.
func NewService(
	tasks *task.Registry,
	exclusions map[string]*exclusion.Registry,
	index *completion.Index,
	log *logger.Logger,
	tracer trace.Tracer,
) *Service {
	return &Service{
		tasks:      tasks,
		exclusions: exclusions,
		index:      index,
		logger:     log.With("component", "annotation_service"),
		tracer:     tracer,
	}
}

// Tasks exposes the registry for the web layer's task listing.
func (s *Service) Tasks() *task.Registry { return s.tasks }

// Task returns the named task.
func (s *Service) Task(name string) (*task.Task, error) {
	return s.tasks.Get(name)
}

// Exclusions returns the exclusion registry for the named task. A task with
// no registry (nothing excluded) yields the empty registry.
func (s *Service) Exclusions(name string) *exclusion.Registry {
	return s.exclusions[name]
}

// FirstValid returns the first presentable stimulus of the task. The bool
// is false when every stimulus is excluded.
func (s *Service) FirstValid(name string) (stimulus.ID, bool, error) {
	t, err := s.tasks.Get(name)
	if err != nil {
		return "", false, err
	}

	id, ok := navigation.FirstValid(t.Sequence, s.exclusions[name])
	return id, ok, nil
}

// Resolve applies the direct-lookup policy for a URL-requested identifier:
// excluded stimuli redirect forward, valid ones resolve to themselves.
func (s *Service) Resolve(name string, id stimulus.ID) (stimulus.ID, bool, error) {
	t, err := s.tasks.Get(name)
	if err != nil {
		return "", false, err
	}

	resolved, ok := navigation.Resolve(t.Sequence, s.exclusions[name], stimulus.Normalize(string(id)))
	return resolved, ok, nil
}

// Step walks one valid stimulus forward or backward from the current one.
func (s *Service) Step(name string, from stimulus.ID, dir navigation.Direction) (navigation.StepResult, error) {
	t, err := s.tasks.Get(name)
	if err != nil {
		return navigation.StepResult{}, err
	}

	return navigation.Step(t.Sequence, s.exclusions[name], stimulus.Normalize(string(from)), dir), nil
}

// NextUnfilled finds the next stimulus that is neither excluded nor already
// answered within the scope, scanning forward from `from` with wraparound.
// The completion set is recomputed from the result store on every call.
func (s *Service) NextUnfilled(
	ctx context.Context,
	name string,
	from stimulus.ID,
	scope completion.Scope,
	annotator string,
) (stimulus.ID, bool, error) {
	ctx, span := s.tracer.Start(ctx, "annotation.next_unfilled")
	defer span.End()

	t, err := s.tasks.Get(name)
	if err != nil {
		return "", false, err
	}

	done, err := s.index.Completed(ctx, name, scope, annotator)
	if err != nil {
		return "", false, fmt.Errorf("computing completion for %s: %w", name, err)
	}

	id, ok := navigation.NextUnfilled(t.Sequence, s.exclusions[name], done, stimulus.Normalize(string(from)))
	return id, ok, nil
}

// Progress reports the 1-based position of id within the task, for display.
func (s *Service) Progress(name string, id stimulus.ID) (string, error) {
	t, err := s.tasks.Get(name)
	if err != nil {
		return "", err
	}

	idx, ok := t.Sequence.IndexOf(id)
	if !ok {
		return "", fmt.Errorf("stimulus %s not in task %s", id, name)
	}

	return fmt.Sprintf("%d/%d", idx+1, t.Sequence.Len()), nil
}
