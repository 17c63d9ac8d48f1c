package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/historycourt/internal/adapters/driven/ai"
	"github.com/custodia-labs/historycourt/internal/adapters/driven/audit"
	"github.com/custodia-labs/historycourt/internal/adapters/driven/cache"
	"github.com/custodia-labs/historycourt/internal/adapters/driven/config/file"
	"github.com/custodia-labs/historycourt/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/historycourt/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/historycourt/internal/adapters/driving/cli"
	"github.com/custodia-labs/historycourt/internal/core/domain"
	"github.com/custodia-labs/historycourt/internal/core/ports/driven"
	"github.com/custodia-labs/historycourt/internal/core/services"
	"github.com/custodia-labs/historycourt/internal/curation"
	"github.com/custodia-labs/historycourt/internal/logger"
	"github.com/custodia-labs/historycourt/internal/metrics"
)

// envConfigDir relocates the config directory, which otherwise is
// ~/.historycourt.
const envConfigDir = "HISTORYCOURT_HOME"

// app owns the adapters behind the CLI services.
type app struct {
	services cli.Services
	closers  []func() error
}

// newApp wires adapters and services from the settings in configDir.
// An empty configDir uses the default directory.
func newApp(configDir string) (*app, error) {
	if configDir == "" {
		dir, err := file.DefaultDir()
		if err != nil {
			return nil, err
		}
		configDir = dir
	}

	var configStore driven.ConfigStore
	fileStore, err := file.NewConfigStore(configDir)
	if err != nil {
		logger.Warn("config unavailable, using defaults: %v", err)
		configStore = memory.NewConfigStore()
	} else {
		configStore = fileStore
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}

	tax, err := buildTaxonomy(settings.Taxonomy)
	if err != nil {
		return nil, err
	}

	a := &app{}
	ok := false
	defer func() {
		if !ok {
			a.Close() //nolint:errcheck // reporting the wiring error instead
		}
	}()

	stores, err := a.openStores(configDir, settings.Storage)
	if err != nil {
		return nil, err
	}

	llm, err := ai.CreateLLMService(&settings.LLM)
	if err != nil {
		logger.Warn("LLM unavailable, rounds will be generated locally: %v", err)
		llm = nil
	}
	if llm != nil {
		a.closers = append(a.closers, llm.Close)
	}

	prompts, err := file.NewPromptStore(filepath.Join(configDir, "prompts"))
	if err != nil {
		return nil, fmt.Errorf("opening prompts: %w", err)
	}

	recorder := metrics.New()

	generator := services.NewGenerationService(tax, llm, prompts, services.GenerationConfig{
		Mode:         settings.Generation.Mode,
		PickN:        settings.Generation.PickN,
		Temperature:  settings.LLM.Temperature,
		CuratorModel: settings.LLM.CuratorModel,
		LegacyTitles: settings.Generation.LegacyTitles,
	})
	poolCache, err := cache.NewPoolCache(settings.Storage.PoolCacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating pool cache: %w", err)
	}
	generator.SetPoolCache(poolCache)
	generator.SetMetrics(recorder)
	if auditLog, err := openAuditLog(configDir, settings.Storage.AuditPath); err != nil {
		logger.Warn("audit log disabled: %v", err)
	} else if auditLog != nil {
		generator.SetAuditLog(auditLog)
		a.closers = append(a.closers, auditLog.Close)
	}

	history := services.NewHistoryService(tax, stores.sessions, settings.History.StopThreshold)
	history.SetMetrics(recorder)

	game := services.NewGameService(tax, stores.sessions, stores.cases, generator)

	a.services = cli.Services{
		History:    history,
		Game:       game,
		Generator:  generator,
		Settings:   settingsService,
		Metrics:    recorder.Handler(),
		Health:     stores.ping,
		Prompts:    prompts,
		ServerAddr: settings.Server.Addr,
	}
	ok = true
	return a, nil
}

type storeSet struct {
	sessions driven.SessionStore
	cases    driven.CaseStore
	ping     func(ctx context.Context) error
}

// openStores opens the SQLite database, or in-memory stores when the
// database path is domain.InMemoryDB.
func (a *app) openStores(configDir string, cfg domain.StorageSettings) (storeSet, error) {
	if cfg.DBPath == domain.InMemoryDB {
		logger.Info("Using in-memory storage; sessions are lost on exit")
		return storeSet{
			sessions: memory.NewSessionStore(),
			cases:    memory.NewCaseStore(),
		}, nil
	}

	dbPath := cfg.DBPath
	if dbPath == "" {
		dataDir := cfg.DataDir
		if dataDir == "" {
			dataDir = configDir
		}
		dbPath = filepath.Join(dataDir, sqlite.DBFileName)
	}
	store, err := sqlite.Open(dbPath)
	if err != nil {
		return storeSet{}, fmt.Errorf("opening store: %w", err)
	}
	a.closers = append(a.closers, store.Close)
	return storeSet{
		sessions: store.SessionStore(),
		cases:    store.CaseStore(),
		ping:     store.Ping,
	}, nil
}

// buildTaxonomy applies the configured category order and type map.
func buildTaxonomy(cfg domain.TaxonomySettings) (*curation.Taxonomy, error) {
	hostTypes, err := file.LoadTypeMap(cfg.TypeMapPath)
	if err != nil {
		return nil, fmt.Errorf("loading type map: %w", err)
	}
	categories, err := curation.ReorderCategories(curation.DefaultCategories(), cfg.Order)
	if err != nil {
		return nil, fmt.Errorf("taxonomy order: %w", err)
	}
	return curation.NewTaxonomy(categories, hostTypes, curation.DefaultTypeToTag())
}

// openAuditLog returns nil when auditing is turned off.
func openAuditLog(configDir, path string) (driven.AuditLog, error) {
	switch path {
	case domain.AuditDisabled:
		return nil, nil
	case "":
		path = filepath.Join(configDir, audit.DefaultFileName)
	}
	auditLog, err := audit.NewJSONLog(path)
	if err != nil {
		return nil, err
	}
	return auditLog, nil
}

// Close releases adapters in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
