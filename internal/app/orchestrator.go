// Package app wires configuration, the API client, state and the uploader
// pipeline into the operations the CLI exposes.
package app

import (
	"context"
	"fmt"
	"sort"

	"github.com/quantmind-br/wikiport/internal/config"
	"github.com/quantmind-br/wikiport/internal/domain"
	"github.com/quantmind-br/wikiport/internal/outline"
	"github.com/quantmind-br/wikiport/internal/space"
	"github.com/quantmind-br/wikiport/internal/state"
	"github.com/quantmind-br/wikiport/internal/uploader"
	"github.com/quantmind-br/wikiport/internal/utils"
)

// Orchestrator coordinates upload runs across spaces
type Orchestrator struct {
	config   *config.Config
	api      domain.API
	store    *state.Store
	loader   *space.Loader
	executor *uploader.Executor
	strategy uploader.AmbiguityStrategy
	logger   *utils.Logger
}

// OrchestratorOptions contains options for creating an orchestrator
type OrchestratorOptions struct {
	Config *config.Config

	// API overrides the default client, used by tests.
	API domain.API

	// Strategy decides ambiguous collection matches. Defaults to failing
	// the space.
	Strategy uploader.AmbiguityStrategy

	Verbose bool
}

// SpaceRequest is one space to synchronize with its per-space options.
type SpaceRequest struct {
	Key     string
	Options domain.RunOptions
}

// NewOrchestrator creates a new orchestrator with the given configuration
func NewOrchestrator(opts OrchestratorOptions) (*Orchestrator, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logLevel := cfg.Logging.Level
	if opts.Verbose {
		logLevel = "debug"
	}
	logger := utils.NewLogger(utils.LoggerOptions{
		Level:   logLevel,
		Format:  cfg.Logging.Format,
		File:    cfg.Logging.File,
		Verbose: opts.Verbose,
	})

	api := opts.API
	if api == nil {
		client, err := outline.NewClient(outline.ClientOptions{
			BaseURL: cfg.API.URL,
			Token:   cfg.API.Token,
			Timeout: cfg.API.Timeout,
			Logger:  logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create API client: %w", err)
		}
		api = client
	}

	return &Orchestrator{
		config: cfg,
		api:    api,
		store: state.NewStore(state.StoreOptions{
			Dir:    cfg.Paths.StateDir,
			Logger: logger,
		}),
		loader: space.NewLoader(cfg.Paths.SpacesDir),
		executor: uploader.NewExecutor(uploader.Policy{
			BaseDelay:        cfg.Retry.BaseDelay,
			MaxDelay:         cfg.Retry.MaxDelay,
			Multiplier:       2.0,
			RateLimitRetries: cfg.Retry.RateLimitRetries,
			TransientRetries: cfg.Retry.TransientRetries,
		}, logger),
		strategy: opts.Strategy,
		logger:   logger.WithComponent("app"),
	}, nil
}

// CheckAuth verifies the configured credential against the remote API and
// returns the authenticated user's display name.
func (o *Orchestrator) CheckAuth(ctx context.Context) (string, error) {
	var user string
	err := o.executor.Do(ctx, "auth.info", func() error {
		var opErr error
		user, opErr = o.api.AuthInfo(ctx)
		return opErr
	})
	if err != nil {
		return "", err
	}
	return user, nil
}

// Spaces returns the keys of all space exports available locally.
func (o *Orchestrator) Spaces() ([]string, error) {
	return o.loader.List()
}

// Requests builds uniform space requests for the given keys. Empty keys
// means every export in the spaces directory.
func (o *Orchestrator) Requests(keys []string, opts domain.RunOptions) ([]SpaceRequest, error) {
	if len(keys) == 0 {
		var err error
		keys, err = o.loader.List()
		if err != nil {
			return nil, err
		}
	}
	reqs := make([]SpaceRequest, len(keys))
	for i, k := range keys {
		reqs[i] = SpaceRequest{Key: k, Options: opts}
	}
	return reqs, nil
}

// Run synchronizes the requested spaces, independent spaces in parallel up
// to the configured concurrency. The credential is verified once up front;
// reports come back sorted by space key. With upload.continue_on_error off,
// spaces run one at a time and the first failed space aborts the rest.
func (o *Orchestrator) Run(ctx context.Context, reqs []SpaceRequest) ([]*uploader.Report, error) {
	if len(reqs) == 0 {
		return nil, fmt.Errorf("no spaces to synchronize")
	}

	user, err := o.CheckAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("authentication check failed: %w", err)
	}
	o.logger.Info().Str("user", user).Int("spaces", len(reqs)).Msg("Starting upload run")

	workers := o.config.Upload.Concurrency
	if workers > len(reqs) {
		workers = len(reqs)
	}
	if !o.config.Upload.ContinueOnError {
		workers = 1
	}

	syncer := uploader.NewSpaceSyncer(uploader.SpaceSyncerOptions{
		API:      o.api,
		Store:    o.store,
		Executor: o.executor,
		Strategy: o.strategy,
		Logger:   o.logger,
		// Interleaved bars from parallel spaces are unreadable.
		NoProgress: workers > 1,
	})

	if !o.config.Upload.ContinueOnError {
		return o.runUntilFailure(ctx, syncer, reqs)
	}

	pool := utils.NewPool(workers, func(ctx context.Context, req SpaceRequest) (any, error) {
		sp, err := o.loader.Load(req.Key)
		if err != nil {
			return &uploader.Report{SpaceKey: req.Key, FatalErr: err}, nil
		}
		return syncer.Run(ctx, sp, req.Options), nil
	})

	tasks := pool.Process(ctx, reqs)

	reports := make([]*uploader.Report, 0, len(tasks))
	for _, t := range tasks {
		if t.Err != nil {
			reports = append(reports, &uploader.Report{SpaceKey: t.Data.Key, FatalErr: t.Err})
			continue
		}
		reports = append(reports, t.Result.(*uploader.Report))
	}
	if err := ctx.Err(); err != nil {
		// Cancelled mid-run: spaces that never got a worker have no report.
		return reports, err
	}

	sort.Slice(reports, func(i, j int) bool { return reports[i].SpaceKey < reports[j].SpaceKey })
	return reports, nil
}

// runUntilFailure processes spaces strictly in request order and stops
// scheduling further spaces once one of them fails. Committed progress of
// the failed space survives for the next invocation.
func (o *Orchestrator) runUntilFailure(ctx context.Context, syncer *uploader.SpaceSyncer, reqs []SpaceRequest) ([]*uploader.Report, error) {
	reports := make([]*uploader.Report, 0, len(reqs))
	for _, req := range reqs {
		if err := ctx.Err(); err != nil {
			return reports, err
		}

		var report *uploader.Report
		sp, err := o.loader.Load(req.Key)
		if err != nil {
			report = &uploader.Report{SpaceKey: req.Key, FatalErr: err}
		} else {
			report = syncer.Run(ctx, sp, req.Options)
		}
		reports = append(reports, report)

		if !report.OK() {
			o.logger.Warn().
				Str("space", req.Key).
				Int("remaining", len(reqs)-len(reports)).
				Msg("Space failed, aborting remaining spaces")
			break
		}
	}
	return reports, nil
}

// SpaceStatus summarizes committed progress for one space.
type SpaceStatus struct {
	Key             string
	CollectionID    string
	Pages           int
	PagesCreated    int
	Attachments     int
	AttachmentsDone int
}

// Status reports committed progress for the given spaces (all local exports
// when keys is empty) without touching the remote.
func (o *Orchestrator) Status(keys []string) ([]SpaceStatus, error) {
	if len(keys) == 0 {
		var err error
		keys, err = o.loader.List()
		if err != nil {
			return nil, err
		}
	}

	out := make([]SpaceStatus, 0, len(keys))
	for _, key := range keys {
		sp, err := o.loader.Load(key)
		if err != nil {
			return nil, err
		}

		st, err := o.store.LoadOrCreate(key)
		if err != nil {
			return nil, err
		}

		out = append(out, SpaceStatus{
			Key:             key,
			CollectionID:    st.CollectionID,
			Pages:           sp.PageCount(),
			PagesCreated:    st.CreatedCount(),
			Attachments:     len(sp.Attachments),
			AttachmentsDone: st.UploadedCount(),
		})
	}
	return out, nil
}

// Reset destroys committed state for the given spaces. The next run starts
// from scratch and will create duplicates if the remote objects still exist.
func (o *Orchestrator) Reset(keys []string) error {
	if len(keys) == 0 {
		return fmt.Errorf("reset requires explicit space keys")
	}
	for _, key := range keys {
		if err := o.store.Reset(key); err != nil {
			return fmt.Errorf("reset space %s: %w", key, err)
		}
		o.logger.Info().Str("space", key).Msg("State reset")
	}
	return nil
}
