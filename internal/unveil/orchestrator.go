// Package unveil wires the registry, sampler and collectors into a single
// discovery run.
package unveil

import (
	"context"
	"fmt"
	"time"

	"github.com/elliotchance/orderedmap/v2"

	"github.com/dbsmedya/gounveil/internal/aggregator"
	"github.com/dbsmedya/gounveil/internal/cms"
	"github.com/dbsmedya/gounveil/internal/collector"
	"github.com/dbsmedya/gounveil/internal/config"
	"github.com/dbsmedya/gounveil/internal/database"
	"github.com/dbsmedya/gounveil/internal/logger"
	"github.com/dbsmedya/gounveil/internal/registry"
	"github.com/dbsmedya/gounveil/internal/sampler"
	"github.com/dbsmedya/gounveil/internal/types"
)

// RunResult contains the entries and statistics of one discovery run.
type RunResult struct {
	BaseURL     string
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	Entries     []types.URLEntry
	// PerCollector holds the entry count of each collector in run order.
	PerCollector *orderedmap.OrderedMap[string, int]
}

// Orchestrator runs every collector in a fixed order against one database.
type Orchestrator struct {
	config    *config.Config
	dbManager *database.Manager
	store     *cms.Store
	registry  *registry.Registry
	sampler   *sampler.Sampler
	logger    *logger.Logger

	baseURL     string
	media       *collector.MediaResolver
	collectors  []collector.Collector
	initialized bool
}

// NewOrchestrator creates an orchestrator. Initialize must be called before Run.
func NewOrchestrator(cfg *config.Config, dbManager *database.Manager, log *logger.Logger) (*Orchestrator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if dbManager == nil || dbManager.DB == nil {
		return nil, fmt.Errorf("database manager is nil or not connected")
	}
	if log == nil {
		log = logger.NewDefault()
	}

	store := cms.NewStore(dbManager.DB, log)
	return &Orchestrator{
		config:    cfg,
		dbManager: dbManager,
		store:     store,
		registry:  registry.FromConfig(cfg, store, log),
		sampler:   sampler.New(dbManager.DB, log),
		logger:    log,
	}, nil
}

// Initialize resolves the base URL and builds the collectors. The base URL is
// taken from the config when set, otherwise detected from the default site.
func (o *Orchestrator) Initialize(ctx context.Context) error {
	if o.initialized {
		return nil
	}

	o.baseURL = o.config.Site.BaseURL
	if o.baseURL == "" {
		o.baseURL = o.store.DetectBaseURL(ctx)
		o.logger.Infow("Detected base URL from default site", "base_url", o.baseURL)
	}

	env := collector.Env{
		Builder:      collector.NewBuilder(o.baseURL),
		Instances:    o.sampler,
		MaxInstances: o.config.Collection.MaxInstances,
		Log:          o.logger,
	}
	o.media = collector.NewMediaResolver(o.registry, o.config.Media.ImageModel, o.config.Media.DocumentModel, o.logger)
	features := collector.FeaturesFor(o.config.IsInstalled, o.config.Settings.Workflows)
	settings := collector.SettingsOptions{
		UserTable:     o.config.Settings.UserTable,
		FormPageTypes: o.config.Settings.FormPageTypes,
	}

	o.collectors = []collector.Collector{
		collector.NewSiteCollector(env, o.store),
		collector.NewPageCollector(env, o.registry, o.routes),
		collector.NewSnippetCollector(env, o.registry),
		collector.NewAdminRecordCollector(env, o.registry),
		collector.NewViewSetCollector(env, o.registry),
		collector.NewImageCollector(env, o.media),
		collector.NewDocumentCollector(env, o.media),
		collector.NewSettingsCollector(env, features, settings, o.store, o.registry),
	}
	o.initialized = true

	o.logger.Infow("Orchestrator initialized",
		"base_url", o.baseURL,
		"max_instances", env.MaxInstances,
		"collectors", len(o.collectors),
	)
	return nil
}

func (o *Orchestrator) routes(ctx context.Context) (collector.URLResolver, error) {
	router, err := o.store.PageRouter(ctx)
	if err != nil {
		return nil, err
	}
	return router, nil
}

// BaseURL returns the resolved base URL. Empty before Initialize.
func (o *Orchestrator) BaseURL() string {
	return o.baseURL
}

// Estimator returns an estimator over the orchestrator's registry and sampler.
func (o *Orchestrator) Estimator() (*Estimator, error) {
	if !o.initialized {
		return nil, fmt.Errorf("orchestrator not initialized")
	}
	return NewEstimator(o.registry, o.media, o.sampler, o.config.Collection.MaxInstances, o.logger), nil
}

// Run executes every collector in order and concatenates their output.
// Cancellation is checked between collectors.
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	if !o.initialized {
		return nil, fmt.Errorf("orchestrator not initialized")
	}
	return runCollectors(ctx, o.baseURL, o.collectors, o.logger)
}

// Params override the configured base URL and sampling bound for one run.
type Params struct {
	BaseURL      string // empty = configured or detected
	MaxInstances int    // 0 = unlimited
}

// Discover runs a fresh orchestrator over cfg with params applied. cfg is
// not modified.
func Discover(ctx context.Context, cfg *config.Config, dbManager *database.Manager, log *logger.Logger, params Params) (*RunResult, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	runCfg := *cfg
	runCfg.Collection.MaxInstances = params.MaxInstances
	if params.BaseURL != "" {
		runCfg.Site.BaseURL = params.BaseURL
	}

	o, err := NewOrchestrator(&runCfg, dbManager, log)
	if err != nil {
		return nil, err
	}
	if err := o.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize discovery: %w", err)
	}
	return o.Run(ctx)
}

func runCollectors(ctx context.Context, baseURL string, collectors []collector.Collector, log *logger.Logger) (*RunResult, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context is nil")
	}

	result := &RunResult{
		BaseURL:      baseURL,
		StartedAt:    time.Now(),
		PerCollector: orderedmap.NewOrderedMap[string, int](),
	}

	outputs := make([][]types.URLEntry, 0, len(collectors))
	for _, c := range collectors {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("discovery cancelled before %s: %w", c.Name(), err)
		}
		entries := c.Collect(ctx)
		log.Debugw("Collector finished", "collector", c.Name(), "entries", len(entries))
		result.PerCollector.Set(c.Name(), len(entries))
		outputs = append(outputs, entries)
	}

	result.Entries = aggregator.Aggregate(outputs...)
	result.CompletedAt = time.Now()
	result.Duration = result.CompletedAt.Sub(result.StartedAt)

	log.Infow("Discovery completed",
		"entries", len(result.Entries),
		"duration", result.Duration,
	)
	return result, nil
}
