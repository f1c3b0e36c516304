package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/samvad-hq/restprobe/internal/checks"
	"github.com/samvad-hq/restprobe/internal/config"
	"github.com/samvad-hq/restprobe/internal/domain"
	"github.com/samvad-hq/restprobe/internal/logger"
	"github.com/samvad-hq/restprobe/internal/runner"
	"github.com/samvad-hq/restprobe/internal/storage"
	"github.com/samvad-hq/restprobe/pkg/httpclient"
	"github.com/samvad-hq/restprobe/pkg/publishers"
	"github.com/samvad-hq/restprobe/pkg/rest"
)

// Prober is the restprobe runtime. It owns the probe loop and coordinates the
// checks registry, the runner, the publishers and the failure store.
type Prober struct {
	cfg           *config.Config
	checks        []checks.Check
	fanout        *publishers.Fanout
	runService    *runner.Service
	probeInterval time.Duration
	log           logger.Logger
	store         storage.Store
}

// Option customizes how a Prober is built.
type Option func(*options)

type options struct {
	checksFile string
	verbose    bool
	transport  httpclient.Client
	trace      io.Writer
}

// WithChecksFile overrides cfg.ChecksFile.
func WithChecksFile(path string) Option {
	return func(o *options) { o.checksFile = path }
}

// WithVerbose traces every check regardless of its own verbose flag.
func WithVerbose(on bool) Option {
	return func(o *options) { o.verbose = on }
}

// WithTransport replaces the default resty transport.
func WithTransport(t httpclient.Client) Option {
	return func(o *options) { o.transport = t }
}

// WithTraceWriter sets where verbose check traces are written.
func WithTraceWriter(w io.Writer) Option {
	return func(o *options) { o.trace = w }
}

// NewProber builds a prober runtime from config files.
func NewProber(ctx context.Context, cfg *config.Config, log logger.Logger, opts ...Option) (*Prober, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	o := options{checksFile: cfg.ChecksFile}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	checkReg, err := checks.LoadRegistry(o.checksFile)
	if err != nil {
		return nil, fmt.Errorf("load checks registry: %w", err)
	}
	enabled := checkReg.Enabled()
	if o.verbose {
		for i := range enabled {
			enabled[i].Verbose = true
		}
	}
	checkIDs := make([]string, 0, len(enabled))
	for _, c := range enabled {
		checkIDs = append(checkIDs, c.ID)
	}
	log.InfoObj("checks registry loaded", "checks_meta", map[string]any{
		"total":   len(checkReg.All()),
		"enabled": len(enabled),
		"ids":     checkIDs,
	})

	fanout, err := buildFanout(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	storeOpts := storage.Options{
		AlertTTL:        cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	}
	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storeOpts)
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"alert_ttl_seconds":        int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	transport := o.transport
	if transport == nil {
		transport = httpclient.NewRestyClient(cfg.RequestTimeout).SetUserAgent(cfg.UserAgent)
	}
	clientOpts := []rest.Option{rest.WithLogger(log)}
	if o.trace != nil {
		clientOpts = append(clientOpts, rest.WithTraceWriter(o.trace))
	}
	client := rest.New(transport, clientOpts...)

	runService := runner.NewService(client, log,
		runner.WithPublisher(fanout),
		runner.WithStore(store),
		runner.WithDelay(cfg.CheckDelay),
	)

	return &Prober{
		cfg:           cfg,
		checks:        enabled,
		fanout:        fanout,
		runService:    runService,
		probeInterval: cfg.ProbeInterval,
		log:           log,
		store:         store,
	}, nil
}

// buildFanout loads and builds the enabled publishers. A missing publishers
// file is tolerated unless publishers_required is set.
func buildFanout(ctx context.Context, cfg *config.Config, log logger.Logger) (*publishers.Fanout, error) {
	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		if !cfg.PublishersRequired && errors.Is(err, fs.ErrNotExist) {
			log.WarnObj("publishers file not found; failures will not be published", "publishers_file", cfg.PublishersFile)
			return publishers.NewFanout(nil), nil
		}
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}

	enabledPublishers := publisherReg.Enabled()
	if len(enabledPublishers) == 0 && cfg.PublishersRequired {
		return nil, fmt.Errorf("no publishers configured")
	}

	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabledPublishers, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	publisherSummaries := make([]map[string]string, 0, len(enabledPublishers))
	for _, pubCfg := range enabledPublishers {
		publisherSummaries = append(publisherSummaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(publisherSummaries),
		"publishers": publisherSummaries,
	})
	return publishers.NewFanout(pubClients), nil
}

// Run starts the probe loop until the context is cancelled.
func (p *Prober) Run(ctx context.Context) error {
	if p == nil || p.runService == nil {
		return fmt.Errorf("prober is not initialized")
	}
	defer p.Close()
	if len(p.checks) == 0 {
		p.log.WarnObj("no checks enabled; prober idle", "checks_file", p.cfg.ChecksFile)
		<-ctx.Done()
		return nil
	}

	p.log.InfoObj("probe loop starting", "prober_state", map[string]any{
		"checks_count":     len(p.checks),
		"publishers_count": p.fanout.Size(),
		"probe_interval":   p.probeInterval.String(),
	})

	if _, err := p.RunOnce(ctx); err != nil && ctx.Err() == nil {
		p.log.ErrorObj("initial probe failed", "error", err)
	}

	ticker := time.NewTicker(p.probeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.InfoObj("probe loop exiting", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if _, err := p.RunOnce(ctx); err != nil && ctx.Err() == nil {
				p.log.ErrorObj("scheduled probe failed", "error", err)
			}
		}
	}
}

// RunOnce performs a single pass over the enabled checks.
func (p *Prober) RunOnce(ctx context.Context) (domain.RunReport, error) {
	if p == nil || p.runService == nil {
		return domain.RunReport{}, fmt.Errorf("prober is not initialized")
	}
	if len(p.checks) == 0 {
		return domain.RunReport{}, fmt.Errorf("no checks enabled")
	}
	p.log.InfoObj("probe started", "probe_meta", map[string]any{
		"checks_count": len(p.checks),
		"started_at":   time.Now().UTC(),
	})
	return p.runService.Run(ctx, p.checks)
}

// Client exposes the REST client shared by all checks.
func (p *Prober) Client() *rest.Client {
	if p == nil || p.runService == nil {
		return nil
	}
	return p.runService.Client()
}

// Close releases the publishers and the storage backend, logging any errors.
func (p *Prober) Close() {
	if p == nil {
		return
	}
	if err := p.fanout.Close(); err != nil {
		p.log.ErrorObj("publishers close failed", "error", err)
	}
	p.fanout = nil
	if p.store != nil {
		if err := p.store.Close(); err != nil {
			p.log.ErrorObj("storage close failed", "error", err)
		}
		p.store = nil
	}
}
