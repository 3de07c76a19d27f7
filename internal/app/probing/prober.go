// Package probing builds the exclusion registry by rendering every stimulus
// once, at startup, under a bounded worker pool. A stimulus that errors,
// returns nothing, or misses its deadline is marked excluded; no per-item
// failure ever aborts the probe of the others.
package probing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/annolab/vidmark/internal/domain/exclusion"
	"github.com/annolab/vidmark/internal/domain/render"
	"github.com/annolab/vidmark/internal/domain/stimulus"
	"github.com/annolab/vidmark/pkg/common"
	"github.com/annolab/vidmark/pkg/common/logger"
)

// ErrRendererUnavailable indicates the renderer collaborator itself cannot
// be reached. Unlike per-stimulus failures this aborts startup.
var ErrRendererUnavailable = errors.New("renderer unavailable")

// Policy bounds the probe.
type Policy struct {
	// Workers is the maximum number of concurrent render attempts.
	Workers int

	// PerItemTimeout bounds a single render. A render that overruns it is
	// abandoned (its result discarded, not awaited) and the stimulus is
	// marked excluded.
	PerItemTimeout time.Duration

	// OverallTimeout bounds the whole probe.
	OverallTimeout time.Duration

	// RatePerSec paces render starts. Zero disables pacing.
	RatePerSec float64
	Burst      int
}

// Prober runs the startup render probe for one task.
type Prober struct {
	policy  Policy
	limiter *common.RateLimiter
	logger  *logger.Logger
	tracer  trace.Tracer
}

// NewProber creates a prober with the given policy.
func NewProber(policy Policy, log *logger.Logger, tracer trace.Tracer) *Prober {
	if policy.Workers <= 0 {
		policy.Workers = 1
	}

	var limiter *common.RateLimiter
	if policy.RatePerSec > 0 {
		burst := policy.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = common.NewRateLimiter(policy.RatePerSec, burst)
	}

	return &Prober{
		policy:  policy,
		limiter: limiter,
		logger:  log.With("component", "prober"),
		tracer:  tracer,
	}
}

// CheckRenderer verifies the renderer collaborator is reachable, retrying
// transient failures with exponential backoff before giving up. Exhausting
// the retries is a startup abort.
func (p *Prober) CheckRenderer(ctx context.Context, renderer render.Renderer) error {
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.MaxElapsedTime = 30 * time.Second
	expBackoff.InitialInterval = time.Second

	operation := func() error {
		if err := renderer.Available(ctx); err != nil {
			p.logger.Warn(ctx, "renderer not available, will retry", "error", err)
			return err
		}
		return nil
	}

	if err := backoff.Retry(operation, expBackoff); err != nil {
		return fmt.Errorf("%w: %v", ErrRendererUnavailable, err)
	}

	return nil
}

// Build probes every reference and returns the registry of exclusions. The
// result is a function only of which items passed, failed, or timed out;
// worker count and completion order never change it.
func (p *Prober) Build(ctx context.Context, refs []stimulus.Ref, renderer render.Renderer) (*exclusion.Registry, error) {
	ctx, span := p.tracer.Start(ctx, "prober.build",
		trace.WithAttributes(attribute.Int("stimulus_count", len(refs))))
	defer span.End()

	if p.policy.OverallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.policy.OverallTimeout)
		defer cancel()
	}

	started := time.Now()
	p.logger.Info(ctx, "starting render probe",
		"stimuli", len(refs),
		"workers", p.policy.Workers,
		"per_item_timeout", p.policy.PerItemTimeout,
	)

	var (
		mu  sync.Mutex
		bad []stimulus.ID
	)
	markBad := func(id stimulus.ID) {
		mu.Lock()
		bad = append(bad, id)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.policy.Workers)

	for _, ref := range refs {
		g.Go(func() error {
			if p.limiter != nil {
				if err := p.limiter.Wait(gctx); err != nil {
					return err
				}
			}

			excluded, reason, err := p.probeOne(gctx, ref, renderer)
			if err != nil {
				return err
			}
			if excluded {
				p.logger.Warn(gctx, "stimulus excluded", "stimulus_id", ref.ID, "reason", reason)
				markBad(ref.ID)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		// Only the overall deadline or cancellation surfaces here;
		// per-item failures were converted into exclusions.
		return nil, fmt.Errorf("render probe aborted: %w", err)
	}

	span.SetAttributes(attribute.Int("excluded_count", len(bad)))
	p.logger.Info(ctx, "render probe complete",
		"stimuli", len(refs),
		"excluded", len(bad),
		"elapsed", time.Since(started),
	)

	return exclusion.NewRegistry(bad...), nil
}

// probeOne renders a single stimulus under the per-item timeout. The render
// runs in its own goroutine; on timeout it is abandoned rather than awaited.
// A non-nil error means the probe as a whole is being torn down, not that
// the stimulus is bad.
func (p *Prober) probeOne(ctx context.Context, ref stimulus.Ref, renderer render.Renderer) (bool, string, error) {
	type result struct {
		items   []render.Renderable
		elapsed time.Duration
		err     error
	}

	renderCtx := ctx
	var cancel context.CancelFunc
	if p.policy.PerItemTimeout > 0 {
		renderCtx, cancel = context.WithTimeout(ctx, p.policy.PerItemTimeout)
		defer cancel()
	}

	resCh := make(chan result, 1)
	start := time.Now()

	go func() {
		items, err := renderer.Render(renderCtx, ref)
		resCh <- result{items: items, elapsed: time.Since(start), err: err}
	}()

	select {
	case res := <-resCh:
		switch {
		case res.err != nil:
			return true, fmt.Sprintf("render error: %v", res.err), nil
		case len(res.items) == 0:
			return true, "empty render result", nil
		case p.policy.PerItemTimeout > 0 && res.elapsed > p.policy.PerItemTimeout:
			// Cooperative check: the render finished but took too long to
			// be presentable.
			return true, fmt.Sprintf("render too slow: %s", res.elapsed), nil
		default:
			return false, "", nil
		}

	case <-renderCtx.Done():
		if ctx.Err() != nil {
			// The probe itself is shutting down; this item's fate was not
			// decided.
			return false, "", ctx.Err()
		}
		return true, fmt.Sprintf("render deadline exceeded after %s", time.Since(start)), nil
	}
}
