// Package app wires together all adapters and domain logic.
// It provides lifecycle management for the titlelab daemon: create, start, stop.
package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/corey/titlelab/internal/adapters/ahocorasick"
	"github.com/corey/titlelab/internal/adapters/bbolt"
	fsw "github.com/corey/titlelab/internal/adapters/fsnotify"
	"github.com/corey/titlelab/internal/adapters/socket"
	"github.com/corey/titlelab/internal/adapters/spreadsheet"
	"github.com/corey/titlelab/internal/adapters/web"
	"github.com/corey/titlelab/internal/domain/analyzer"
	"github.com/corey/titlelab/internal/domain/history"
	"github.com/corey/titlelab/internal/domain/keyword"
	"github.com/corey/titlelab/internal/domain/pipeline"
	"github.com/corey/titlelab/internal/ports"
)

// App is the top-level container wiring all components together.
type App struct {
	ProjectRoot string
	Workspace   string
	Paths       *Paths

	Store     ports.Storage
	Engine    *analyzer.Engine
	Watcher   ports.Watcher // nil when the inbox is disabled
	Server    *socket.Server
	WebServer *web.Server

	cfg  Config
	log  *zap.Logger
	hist *history.History
	jobs *pipeline.Runner

	// loadMu serializes dataset swaps so the engine, a.dataset and the
	// stored dataset always agree.
	loadMu sync.Mutex

	mu      sync.Mutex
	dataset *ports.Dataset        // nil = built-in sample
	recs    []ports.TitleAnalysis // most recent recommendation board
	started time.Time
}

// New creates an App with all dependencies wired. Does not start services.
// A nil logger disables logging.
func New(cfg Config, logger *zap.Logger) (*App, error) {
	if cfg.ProjectRoot == "" {
		return nil, fmt.Errorf("project root required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Workspace == "" {
		cfg.Workspace = filepath.Base(cfg.ProjectRoot)
	}
	paths := NewPaths(cfg.ProjectRoot)
	if cfg.DBPath == "" {
		cfg.DBPath = paths.DB
	}
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}

	store, err := bbolt.NewStore(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	engine := analyzer.New(analyzer.Options{
		Mode:           analyzer.Mode(cfg.MatchMode),
		SyntheticCount: cfg.SyntheticCount,
		Latency:        cfg.Latency,
		Seed:           cfg.Seed,
		NewPatternMatcher: func() ports.PatternMatcher {
			return ahocorasick.New(nil)
		},
	})

	// Restore the last imported dataset, if any
	ds, err := store.LoadDataset(cfg.Workspace)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	if ds != nil {
		engine.Use(ds.Keywords)
	}

	entries, err := store.LoadHistory(cfg.Workspace)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("load history: %w", err)
	}
	hist, stale := history.New(cfg.HistoryLimit, entries)
	for _, id := range stale {
		if err := store.DeleteAnalysis(cfg.Workspace, id); err != nil {
			store.Close()
			return nil, fmt.Errorf("prune history: %w", err)
		}
	}
	if len(stale) > 0 {
		logger.Info("history pruned", zap.Int("entries", len(stale)), zap.Int("limit", cfg.HistoryLimit))
	}

	a := &App{
		ProjectRoot: cfg.ProjectRoot,
		Workspace:   cfg.Workspace,
		Paths:       paths,
		Store:       store,
		Engine:      engine,
		cfg:         cfg,
		hist:        hist,
		log:         logger,
		dataset:     ds,
	}
	a.jobs = pipeline.NewRunner(jobBackend{a}, cfg.JobStepDelay)

	if cfg.Inbox.Enabled {
		w, err := fsw.NewWatcher(spreadsheet.Supported, 0)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("create watcher: %w", err)
		}
		a.Watcher = w
	}

	a.Server = socket.NewServer(socket.SocketPath(cfg.ProjectRoot), a, logger)
	a.WebServer = web.NewServer(a, paths.PortFile, logger)

	return a, nil
}

// Start begins the daemon (socket server + HTTP server + inbox watcher).
func (a *App) Start() error {
	a.mu.Lock()
	a.started = time.Now()
	a.mu.Unlock()

	if err := a.Paths.EnsureDirs(); err != nil {
		return fmt.Errorf("create dirs: %w", err)
	}
	// Start HTTP dashboard: non-fatal if port unavailable. Bound before the
	// socket so health requests see the final port.
	httpPort := a.cfg.HTTPPort
	if httpPort == 0 {
		httpPort = web.DefaultPort(a.ProjectRoot)
	}
	if err := a.WebServer.Start(httpPort); err != nil {
		a.log.Warn("http dashboard unavailable", zap.Error(err))
	}
	if err := a.Server.Start(); err != nil {
		a.WebServer.Stop()
		return fmt.Errorf("start server: %w", err)
	}
	// Start inbox watcher: non-fatal if setup fails
	if a.Watcher != nil {
		if err := a.Watcher.Watch(a.Paths.Inbox, a.onInboxFile); err != nil {
			a.log.Warn("inbox watcher unavailable", zap.Error(err))
		}
	}
	a.log.Info("daemon started",
		zap.String("workspace", a.Workspace),
		zap.String("mode", string(a.Engine.Mode())),
		zap.Int("keywords", len(a.Engine.Keywords())),
		zap.Int("history", a.hist.Len()),
	)
	return nil
}

// Stop gracefully shuts down all services and closes the store.
func (a *App) Stop() error {
	if a.Watcher != nil {
		a.Watcher.Stop()
	}
	a.WebServer.Stop()
	a.Server.Stop()
	a.jobs.Close()
	err := a.Store.Close()
	a.log.Info("daemon stopped")
	return err
}

// Health reports the active dataset and daemon state.
// Implements socket.AppQueries.
func (a *App) Health() socket.HealthResult {
	name, source := a.datasetInfo()
	res := socket.HealthResult{
		Status:       "ok",
		Dataset:      name,
		Source:       source,
		KeywordCount: len(a.Engine.Keywords()),
		HistoryCount: a.hist.Len(),
		Mode:         string(a.Engine.Mode()),
	}
	if a.WebServer.Port() > 0 {
		res.WebURL = a.WebServer.URL()
	}
	a.mu.Lock()
	if !a.started.IsZero() {
		res.Uptime = time.Since(a.started).Round(time.Second).String()
	}
	a.mu.Unlock()
	return res
}

// Keywords lists the active dataset, narrowed to rows containing any of
// tokens. limit 0 returns every row.
// Implements socket.AppQueries.
func (a *App) Keywords(tokens []string, limit int) socket.KeywordsResult {
	all := a.Engine.Keywords()
	kws := keyword.FilterByTokens(all, tokens)
	if limit > 0 && limit < len(kws) {
		kws = kws[:limit]
	}
	name, source := a.datasetInfo()
	return socket.KeywordsResult{
		Dataset:  name,
		Source:   source,
		Keywords: kws,
		Count:    len(kws),
		Total:    len(all),
	}
}

// Import reads a keyword export from disk and makes it the active dataset.
// Implements socket.AppQueries.
func (a *App) Import(ctx context.Context, path string) (socket.ImportResult, error) {
	return a.importFile(ctx, path, ports.SourceFile)
}

// ImportData makes an uploaded keyword export the active dataset.
func (a *App) ImportData(ctx context.Context, name string, data []byte) (socket.ImportResult, error) {
	_, res, err := a.load(ctx, name, data, ports.SourceUpload)
	return res, err
}

func (a *App) importFile(ctx context.Context, path, source string) (socket.ImportResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return socket.ImportResult{}, fmt.Errorf("read %s: %w", path, err)
	}
	_, res, err := a.load(ctx, filepath.Base(path), data, source)
	return res, err
}

// load parses data and swaps it in as the active dataset. Unreadable content
// loads the sample dataset instead when fallback is enabled; an unsupported
// file type is always an error.
func (a *App) load(ctx context.Context, name string, data []byte, source string) (*ports.Dataset, socket.ImportResult, error) {
	kws, err := spreadsheet.Read(name, bytes.NewReader(data))
	if err == nil && len(kws) == 0 {
		err = fmt.Errorf("%s: no keyword rows", name)
	}

	var res socket.ImportResult
	if err != nil {
		if errors.Is(err, spreadsheet.ErrUnsupportedFormat) || !a.cfg.Ingest.FallbackToSample {
			return nil, res, fmt.Errorf("import %s: %w", name, err)
		}
		a.log.Warn("import failed, using sample dataset", zap.String("file", name), zap.Error(err))
		res.Fallback = true
		res.Warning = err.Error()
		name, source, kws = ports.SourceSample, ports.SourceSample, keyword.Sample()
	}

	a.loadMu.Lock()
	defer a.loadMu.Unlock()

	if err := a.Engine.Load(ctx, kws); err != nil {
		return nil, socket.ImportResult{}, err
	}
	ds := &ports.Dataset{
		Name:       name,
		Source:     source,
		ImportedAt: time.Now(),
		Keywords:   kws,
	}

	a.mu.Lock()
	a.dataset = ds
	a.recs = nil
	a.mu.Unlock()

	if err := a.Store.SaveDataset(a.Workspace, ds); err != nil {
		return nil, socket.ImportResult{}, fmt.Errorf("save dataset: %w", err)
	}
	a.log.Info("dataset imported",
		zap.String("name", ds.Name),
		zap.String("source", ds.Source),
		zap.Int("keywords", len(kws)),
		zap.Bool("fallback", res.Fallback),
	)

	res.Dataset = ds.Name
	res.Source = ds.Source
	res.Count = len(kws)
	return ds, res, nil
}

// Analyze reports coverage for a custom title and records it in history.
// Implements socket.AppQueries.
func (a *App) Analyze(ctx context.Context, t string, tokens []string) (socket.AnalyzeResult, error) {
	an, err := a.Engine.Analyze(ctx, t)
	if err != nil {
		return socket.AnalyzeResult{}, err
	}

	dropped := a.hist.Add(*an)
	if err := a.Store.SaveAnalysis(a.Workspace, an); err != nil {
		return socket.AnalyzeResult{}, fmt.Errorf("save analysis: %w", err)
	}
	for _, id := range dropped {
		if err := a.Store.DeleteAnalysis(a.Workspace, id); err != nil {
			a.log.Warn("prune history", zap.String("id", id), zap.Error(err))
		}
	}

	return socket.AnalyzeResult{
		Analysis: *an,
		Filtered: toFilterResult(an.ID, analyzer.Filter(an, tokens)),
	}, nil
}

// Recommend builds the recommendation board for the active dataset.
// Implements socket.AppQueries.
func (a *App) Recommend(ctx context.Context) (socket.RecommendResult, error) {
	recs, err := a.recommend(ctx)
	if err != nil {
		return socket.RecommendResult{}, err
	}
	return socket.RecommendResult{Titles: recs, Count: len(recs)}, nil
}

func (a *App) recommend(ctx context.Context) ([]ports.TitleAnalysis, error) {
	recs, err := a.Engine.Recommend(ctx)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	a.recs = recs
	a.mu.Unlock()
	return recs, nil
}

// Filter narrows the matches of a history entry or recommended title to the
// keywords containing any of tokens.
// Implements socket.AppQueries.
func (a *App) Filter(id string, tokens []string) (socket.FilterResult, error) {
	an, err := a.lookup(id)
	if err != nil {
		return socket.FilterResult{}, err
	}
	return toFilterResult(id, analyzer.Filter(&an, tokens)), nil
}

func (a *App) lookup(id string) (ports.TitleAnalysis, error) {
	if an, ok := a.hist.Get(id); ok {
		return an, nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, r := range a.recs {
		if r.ID == id {
			return r, nil
		}
	}
	return ports.TitleAnalysis{}, fmt.Errorf("%w: %s", history.ErrNotFound, id)
}

// History lists custom analyses, newest first.
// Implements socket.AppQueries.
func (a *App) History() socket.HistoryResult {
	entries := a.hist.List()
	return socket.HistoryResult{Entries: entries, Count: len(entries)}
}

// DeleteHistory removes one custom analysis. Deleting an unknown id is not
// an error; the result reports whether anything was removed.
// Implements socket.AppQueries.
func (a *App) DeleteHistory(id string) (bool, error) {
	ok := a.hist.Delete(id)
	if err := a.Store.DeleteAnalysis(a.Workspace, id); err != nil {
		return ok, fmt.Errorf("delete analysis: %w", err)
	}
	return ok, nil
}

// WipeProject deletes all persisted data and resets in-memory state.
// Implements socket.AppQueries.
func (a *App) WipeProject() error {
	a.loadMu.Lock()
	defer a.loadMu.Unlock()

	if err := a.Store.DeleteWorkspace(a.Workspace); err != nil {
		return err
	}
	a.hist.Clear()
	a.Engine.Use(keyword.Sample())

	a.mu.Lock()
	a.dataset = nil
	a.recs = nil
	a.mu.Unlock()

	a.log.Info("workspace wiped", zap.String("workspace", a.Workspace))
	return nil
}

// SubmitJob starts an assistant pipeline run.
func (a *App) SubmitJob(in pipeline.Input) (pipeline.Job, error) {
	return a.jobs.Submit(in)
}

// Job returns a snapshot of one pipeline run.
func (a *App) Job(id string) (pipeline.Job, error) {
	return a.jobs.Get(id)
}

// Jobs lists pipeline runs.
func (a *App) Jobs() []pipeline.Job {
	return a.jobs.List()
}

func (a *App) datasetInfo() (name, source string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.dataset == nil {
		return ports.SourceSample, ports.SourceSample
	}
	return a.dataset.Name, a.dataset.Source
}

func toFilterResult(id string, f analyzer.Filtered) socket.FilterResult {
	return socket.FilterResult{
		ID:       id,
		Tokens:   f.Tokens,
		Keywords: f.Keywords,
		Count:    f.Count,
		Total:    f.Total,
	}
}

// jobBackend adapts the App to the pipeline's import and generation steps.
type jobBackend struct{ a *App }

func (b jobBackend) Import(ctx context.Context, name string, data []byte) (*ports.Dataset, error) {
	ds, _, err := b.a.load(ctx, name, data, ports.SourceJob)
	return ds, err
}

func (b jobBackend) Recommend(ctx context.Context) ([]ports.TitleAnalysis, error) {
	return b.a.recommend(ctx)
}
