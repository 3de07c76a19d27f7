package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/annolab/vidmark/internal/api"
	"github.com/annolab/vidmark/internal/app/annotation"
	"github.com/annolab/vidmark/internal/app/completion"
	"github.com/annolab/vidmark/internal/app/probing"
	"github.com/annolab/vidmark/internal/config"
	"github.com/annolab/vidmark/internal/config/fileloader"
	"github.com/annolab/vidmark/internal/domain/exclusion"
	"github.com/annolab/vidmark/internal/domain/render"
	"github.com/annolab/vidmark/internal/domain/stimulus"
	"github.com/annolab/vidmark/internal/domain/task"
	"github.com/annolab/vidmark/internal/infra/renderer/ffmpegrender"
	"github.com/annolab/vidmark/internal/infra/storage/exclusionstore"
	"github.com/annolab/vidmark/internal/infra/storage/resultstore"
	"github.com/annolab/vidmark/pkg/common/logger"
	"github.com/annolab/vidmark/pkg/common/otel"
)

var build = "develop"

const serviceName = "vidmark"

func main() {
	// Set the correct number of threads for the service.
	_, _ = maxprocs.Set()

	var configPath string
	flag.StringVar(&configPath, "config", "", "path to YAML config file")
	flag.Parse()

	logEvents := logger.Events{
		Error: func(ctx context.Context, r logger.Record) {
			errorAttrs := map[string]any{
				"error_message": r.Message,
				"error_time":    r.Time.UTC().Format(time.RFC3339),
				"trace_id":      otel.GetTraceID(ctx),
			}
			for k, v := range r.Attributes {
				errorAttrs[k] = v
			}

			errorAttrsJSON, err := json.Marshal(errorAttrs)
			if err != nil {
				fmt.Fprintf(os.Stderr, "failed to marshal error attributes: %v\n", err)
				return
			}

			fmt.Fprintf(os.Stderr, "Error event: %s, details: %s\n", r.Message, errorAttrsJSON)
		},
	}

	traceIDFn := func(ctx context.Context) string {
		return otel.GetTraceID(ctx)
	}

	log := logger.NewWithEvents(os.Stdout, logger.LevelInfo, serviceName, traceIDFn, logEvents)

	ctx := context.Background()

	if err := run(ctx, log, configPath); err != nil {
		log.Error(ctx, "startup", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, log *logger.Logger, configPath string) error {
	// -------------------------------------------------------------------------
	// GOMAXPROCS

	log.Info(ctx, "startup", "GOMAXPROCS", runtime.GOMAXPROCS(0), "build", build)

	// -------------------------------------------------------------------------
	// Configuration

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// -------------------------------------------------------------------------
	// Start Tracing Support

	var tracer trace.Tracer = noop.NewTracerProvider().Tracer(serviceName)
	var metrics *api.Metrics

	if cfg.Telemetry.ExporterEndpoint != "" {
		log.Info(ctx, "startup", "status", "initializing tracing support")

		traceProvider, teardown, err := otel.InitTelemetry(log, otel.Config{
			ServiceName:      cfg.Telemetry.ServiceName,
			ExporterEndpoint: cfg.Telemetry.ExporterEndpoint,
			ExcludedRoutes: map[string]struct{}{
				"/v1/readiness": {},
				"/v1/liveness":  {},
			},
			Probability:      cfg.Telemetry.Probability,
			InsecureExporter: true,
		})
		if err != nil {
			return fmt.Errorf("starting tracing: %w", err)
		}
		defer teardown(ctx)

		tracer = traceProvider.Tracer(cfg.Telemetry.ServiceName)

		metrics, err = api.NewAPIMetrics(otel.GetMeterProvider())
		if err != nil {
			return fmt.Errorf("creating metrics collector: %w", err)
		}
	}

	// -------------------------------------------------------------------------
	// Task Registry

	log.Info(ctx, "startup", "status", "loading task definitions", "path", cfg.TasksFile)

	tasksFile, err := fileloader.NewFileLoader(cfg.TasksFile).Load(ctx)
	if err != nil {
		return fmt.Errorf("loading tasks: %w", err)
	}

	tasks, err := tasksFile.Build()
	if err != nil {
		return fmt.Errorf("building tasks: %w", err)
	}

	registry, err := task.NewRegistry(tasks...)
	if err != nil {
		return fmt.Errorf("registering tasks: %w", err)
	}

	// -------------------------------------------------------------------------
	// Renderer + Exclusion Probe

	renderer := ffmpegrender.New(ffmpegrender.Config{
		FFmpegPath:  cfg.Renderer.FFmpegPath,
		FFprobePath: cfg.Renderer.FFprobePath,
		FrameCount:  cfg.Renderer.FrameCount,
		FrameWidth:  cfg.Renderer.FrameWidth,
	})

	prober := probing.NewProber(probing.Policy{
		Workers:        cfg.Probe.Workers,
		PerItemTimeout: cfg.Probe.PerItemTimeout,
		OverallTimeout: cfg.Probe.OverallTimeout,
		RatePerSec:     cfg.Probe.RatePerSec,
		Burst:          cfg.Probe.Burst,
	}, log, tracer)

	if err := prober.CheckRenderer(ctx, renderer); err != nil {
		return fmt.Errorf("renderer check: %w", err)
	}

	renderers := make(map[string]render.Renderer, len(tasks))
	exclusions := make(map[string]*exclusion.Registry, len(tasks))

	for _, t := range tasks {
		renderers[t.Name] = renderer

		reg, err := loadOrProbe(ctx, log, cfg.Storage.ExclusionsDir, t.Name, t.Refs(), prober, renderer)
		if err != nil {
			return fmt.Errorf("building exclusions for %s: %w", t.Name, err)
		}
		exclusions[t.Name] = reg
	}

	// -------------------------------------------------------------------------
	// Start API Service

	log.Info(ctx, "startup", "status", "initializing API support")

	store := resultstore.NewStore(cfg.Storage.ResultsRoot)
	index := completion.NewIndex(store, log)
	svc := annotation.NewService(registry, exclusions, index, log, tracer)

	server, err := api.NewServer(cfg.Web, log, tracer, svc, store, renderers, metrics)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-shutdown
		log.Info(serverCtx, "shutdown", "status", "shutdown started", "signal", sig.String())
		cancel()
	}()

	return server.Start(serverCtx)
}

// loadOrProbe loads the persisted exclusion set for a task, or runs the
// render probe and persists the result. Exclusions are never re-probed
// automatically; deleting the persisted file forces a fresh probe.
func loadOrProbe(
	ctx context.Context,
	log *logger.Logger,
	exclusionsDir, taskName string,
	refs []stimulus.Ref,
	prober *probing.Prober,
	renderer render.Renderer,
) (*exclusion.Registry, error) {
	path := filepath.Join(exclusionsDir, taskName+".txt")

	reg, err := exclusionstore.Load(path)
	if err == nil {
		log.Info(ctx, "startup", "status", "loaded persisted exclusions",
			"task", taskName, "excluded", reg.Len(), "path", path)
		return reg, nil
	}
	if !errors.Is(err, exclusionstore.ErrNotFound) {
		return nil, err
	}

	reg, err = prober.Build(ctx, refs, renderer)
	if err != nil {
		return nil, err
	}

	if err := exclusionstore.Save(path, reg); err != nil {
		return nil, err
	}

	return reg, nil
}
