// Package cli wires configuration into engines, stores and renderers for the
// stepflow command.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/stepflow"
	"github.com/aretw0/stepflow/internal/config"
	"github.com/aretw0/stepflow/pkg/adapters/blobstore"
	"github.com/aretw0/stepflow/pkg/adapters/memory"
	"github.com/aretw0/stepflow/pkg/adapters/process"
	"github.com/aretw0/stepflow/pkg/adapters/redis"
	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/aretw0/stepflow/pkg/observability"
	"github.com/aretw0/stepflow/pkg/persistence/middleware"
	"github.com/aretw0/stepflow/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// DefaultDetectorName is the entry used from the detector config file when
// no name is configured.
const DefaultDetectorName = "default"

// BuildOptions tune what Build wires beyond the configuration.
type BuildOptions struct {
	// DemoLabels script the in-memory detector used when no process detector
	// is configured. Empty means every object is labeled with the match literal.
	DemoLabels []string
	// Debug adds structured audit logging of every state and task.
	Debug bool
}

// Resources are the long-lived components of a command invocation.
type Resources struct {
	Engine   *stepflow.Engine
	Objects  ports.ObjectStore
	Metrics  *observability.Metrics
	Registry *prometheus.Registry

	closers []func() error
}

// Close releases store connections.
func (r *Resources) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i]())
	}
	return errors.Join(errs...)
}

// Build creates the engine and its adapters from cfg.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts BuildOptions) (*Resources, error) {
	res := &Resources{Registry: prometheus.NewRegistry()}
	res.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	res.Metrics = observability.InitMetrics(res.Registry)

	detector, err := buildDetector(cfg, opts)
	if err != nil {
		return nil, err
	}

	store, err := buildResultStore(ctx, cfg, res, logger)
	if err != nil {
		_ = res.Close()
		return nil, err
	}

	objects, err := buildObjectStore(ctx, cfg, logger)
	if err != nil {
		_ = res.Close()
		return nil, err
	}
	res.Objects = objects

	engineOpts := []stepflow.Option{
		stepflow.WithLogger(logger),
		stepflow.WithDetector(detector),
		stepflow.WithResultStore(store),
		stepflow.WithMetrics(res.Metrics),
		stepflow.WithDefaultDeadline(cfg.Deadline()),
	}
	if opts.Debug {
		engineOpts = append(engineOpts, stepflow.WithLifecycleHooks(observability.LogHooks(logger)))
	}
	res.Engine = stepflow.New(engineOpts...)
	return res, nil
}

func buildDetector(cfg *config.Config, opts BuildOptions) (ports.LabelDetector, error) {
	if cfg.Detector.Config != "" {
		name := cfg.Detector.Name
		if name == "" {
			name = DefaultDetectorName
		}
		// Commands run next to the file that declares them.
		d, err := process.FromFile(cfg.Detector.Config, name, process.WithBaseDir(filepath.Dir(cfg.Detector.Config)))
		if err != nil {
			return nil, fmt.Errorf("detector: %w", err)
		}
		return d, nil
	}

	names := opts.DemoLabels
	if len(names) == 0 {
		names = []string{cfg.MatchLiteral}
	}
	labels := make([]domain.Label, 0, len(names))
	for i, n := range names {
		// Descending confidence keeps the first name on top.
		labels = append(labels, domain.Label{Name: n, Confidence: 99 - float64(i)})
	}
	return memory.NewDetector(memory.WithDefaultLabels(labels...)), nil
}

func buildResultStore(ctx context.Context, cfg *config.Config, res *Resources, logger *slog.Logger) (ports.ResultStore, error) {
	var store ports.ResultStore = memory.NewStore()
	if cfg.Redis.Enabled() {
		rs := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, redis.WithTTL(cfg.Redis.TTL()))
		res.closers = append(res.closers, rs.Close)
		if err := rs.Ping(ctx); err != nil {
			return nil, fmt.Errorf("redis %s: %w", cfg.Redis.Addr, err)
		}
		logger.Debug("using redis result store", "addr", cfg.Redis.Addr)
		store = rs
	}

	var mws []middleware.Middleware
	if len(cfg.Store.MaskFields) > 0 {
		pii, err := middleware.NewPIIMiddleware(cfg.Store.MaskFields)
		if err != nil {
			return nil, fmt.Errorf("store: %w", err)
		}
		mws = append(mws, pii)
	}
	key, err := cfg.Store.Key()
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	if key != nil {
		enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			return nil, fmt.Errorf("store: %w", err)
		}
		mws = append(mws, enc)
	}
	return middleware.Chain(store, mws...), nil
}

func buildObjectStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ports.ObjectStore, error) {
	if !cfg.Azure.Enabled() {
		return memory.NewObjectStore(cfg.Bucket), nil
	}

	bcfg := blobstore.Config{Container: cfg.Azure.Container, ConnectionString: cfg.Azure.ConnectionString}
	if err := bcfg.Finalize(nil); err != nil {
		return nil, fmt.Errorf("azure: %w", err)
	}
	store, err := blobstore.New(bcfg, logger)
	if err != nil {
		return nil, fmt.Errorf("azure: %w", err)
	}
	if err := store.EnsureContainer(ctx); err != nil {
		return nil, fmt.Errorf("azure: %w", err)
	}
	return store, nil
}
