/*
Package cli implements the scout-mcp command set.

Commands share one bootstrap path: load the layered configuration, open
the pattern store, open the search index, and wire the pipeline. Every
command that touches the store seeds the default affinity table first so
a fresh install routes sensibly before any learning has happened.
*/
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/codescout/scout-mcp/internal/advisor"
	"github.com/codescout/scout-mcp/internal/ai"
	"github.com/codescout/scout-mcp/internal/config"
	"github.com/codescout/scout-mcp/internal/feedback"
	"github.com/codescout/scout-mcp/internal/orchestrator"
	"github.com/codescout/scout-mcp/internal/routing"
	"github.com/codescout/scout-mcp/internal/search"
	"github.com/codescout/scout-mcp/internal/store"
)

// App bundles the wired pipeline for one CLI invocation.
type App struct {
	Config       *config.Config
	Store        store.Store
	Indexer      *search.Indexer
	Engine       *search.Engine
	Advisor      *advisor.Advisor
	Client       ai.Client
	Orchestrator *orchestrator.Orchestrator
	Learner      *feedback.Learner
}

// openApp loads configuration and wires the full pipeline. repoRoot
// overrides the configured repository when non-empty.
func openApp(repoRoot string) (*App, error) {
	cfg, err := config.LoadOrCreate()
	if err != nil {
		return nil, err
	}
	applyLogLevel(cfg.LogLevel)
	if repoRoot != "" {
		cfg.RepoRoot = repoRoot
	}
	if cfg.RepoRoot == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to determine working directory: %w", err)
		}
		cfg.RepoRoot = wd
	}

	policy, err := config.LoadPolicy(cfg.RepoRoot)
	if err != nil {
		return nil, err
	}
	cfg.ApplyPolicy(policy)

	storePath, err := cfg.StorePath()
	if err != nil {
		return nil, err
	}
	st := store.New(storePath)
	if err := st.Init(); err != nil {
		return nil, fmt.Errorf("failed to open pattern store: %w", err)
	}
	if err := st.SeedAffinities(routing.DefaultAffinities()); err != nil {
		log.Warn().Err(err).Msg("failed to seed affinity defaults")
	}

	indexPath, err := cfg.IndexPath()
	if err != nil {
		st.Close()
		return nil, err
	}
	indexer, err := search.NewIndexerWithPath(indexPath)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to open search index: %w", err)
	}

	client := ai.NewOllamaClient(cfg.AI)
	embedTimeout := time.Duration(cfg.Search.EmbedTimeoutMS) * time.Millisecond
	semantic := search.NewSemantic(client, st, indexer, embedTimeout)
	engine := search.NewEngine(indexer, semantic, search.FusionFromConfig(cfg.Search))
	adv := advisor.New(st, cfg.Advisor)

	return &App{
		Config:       cfg,
		Store:        st,
		Indexer:      indexer,
		Engine:       engine,
		Advisor:      adv,
		Client:       client,
		Orchestrator: orchestrator.New(cfg, st, engine, adv, client),
		Learner:      feedback.New(st, cfg.Learning),
	}, nil
}

// applyLogLevel applies the configured zerolog level. The SCOUT_LOG_LEVEL
// environment variable already flowed into the config via envconfig, so the
// config value is authoritative here.
func applyLogLevel(name string) {
	if name == "" {
		return
	}
	level, err := zerolog.ParseLevel(name)
	if err != nil {
		log.Warn().Str("level", name).Msg("unknown log level, keeping current")
		return
	}
	zerolog.SetGlobalLevel(level)
}

// Close releases the index and the store.
func (a *App) Close() {
	if err := a.Indexer.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close index")
	}
	if err := a.Store.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close store")
	}
}
