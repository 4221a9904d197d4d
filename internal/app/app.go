// Package app assembles the registry engine from one Settings value: the
// two databases, the repositories and the services built on them.
package app

import (
	"context"

	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/buildinfo"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/conf"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/dataset"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/datastore"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/datastore/repository"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/errors"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/identity"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/legacy"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/linker"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/logger"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/migration"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/observability"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/observability/metrics"
)

// App holds the open connections and the components wired over them.
type App struct {
	Settings *conf.Settings
	Info     *buildinfo.Context
	Metrics  *observability.Metrics

	Store      *datastore.Manager
	Source     legacy.Source
	Extractor  *legacy.Extractor
	Repos      migration.Repositories
	Identities repository.IdentityRepository

	logger  logger.Logger
	closers []func() error
}

// Open connects to both databases, applies the store schema and builds the
// repositories.
func Open(ctx context.Context, settings *conf.Settings, info *buildinfo.Context, log logger.Logger) (*App, error) {
	m, err := observability.NewMetrics()
	if err != nil {
		return nil, errors.New(err).
			Component("app").
			Category(errors.CategoryConfiguration).
			Build()
	}

	store, err := datastore.Open(&settings.Store, log.Module("store"))
	if err != nil {
		return nil, err
	}
	a := &App{
		Settings: settings,
		Info:     info,
		Metrics:  m,
		Store:    store,
		logger:   log,
		closers:  []func() error{store.Close},
	}

	if err := store.Initialize(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}

	source, closeSource, err := legacy.Open(&settings.Legacy, log.Module("legacy"), settings.Store.SlowQueryThreshold)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.closers = append(a.closers, closeSource)

	return a.wire(source, log), nil
}

// New wires an App over an open store and legacy source. Closing the App
// does not close either of them.
func New(settings *conf.Settings, info *buildinfo.Context, store *datastore.Manager, source legacy.Source, m *observability.Metrics, log logger.Logger) *App {
	a := &App{
		Settings: settings,
		Info:     info,
		Metrics:  m,
		Store:    store,
		logger:   log,
	}
	return a.wire(source, log)
}

func (a *App) wire(source legacy.Source, log logger.Logger) *App {
	db := a.Store.DB()
	a.Source = source
	a.Extractor = legacy.NewExtractor(source, log)
	a.Repos = migration.Repositories{
		Shelters:   repository.NewShelterRepository(db),
		Volunteers: repository.NewVolunteerRepository(db),
		Vacancies:  repository.NewVacancyRepository(db),
		Events:     repository.NewPopulationEventRepository(db),
		Ledger:     repository.NewLedgerRepository(db),
	}
	a.Identities = repository.NewIdentityRepository(db)
	return a
}

// Logger returns the root logger the App was built with.
func (a *App) Logger() logger.Logger {
	return a.logger
}

func (a *App) migrationMetrics() *metrics.MigrationMetrics {
	if a.Metrics == nil {
		return nil
	}
	return a.Metrics.Migration
}

func (a *App) linkerMetrics() *metrics.LinkerMetrics {
	if a.Metrics == nil {
		return nil
	}
	return a.Metrics.Linker
}

func (a *App) datasetMetrics() *metrics.DatasetMetrics {
	if a.Metrics == nil {
		return nil
	}
	return a.Metrics.Dataset
}

// Runner returns a migration runner.
func (a *App) Runner() *migration.Runner {
	writer := migration.NewWriter(a.Repos, a.logger)
	return migration.NewRunner(a.Extractor, writer, a.migrationMetrics(), a.logger)
}

// Linker returns the identity linker with the configured candidate policy.
func (a *App) Linker() (*linker.Linker, error) {
	policy, err := linker.PolicyByName(a.Settings.Linker.Policy)
	if err != nil {
		return nil, errors.New(err).
			Component("app").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return linker.New(a.Source, a.Repos.Shelters, a.Repos.Volunteers, policy, a.linkerMetrics(), a.logger), nil
}

// IdentityService returns the login hook service.
func (a *App) IdentityService() (*identity.Service, error) {
	l, err := a.Linker()
	if err != nil {
		return nil, err
	}
	return identity.NewService(a.Identities, l, a.logger), nil
}

// Datasets returns the dataset provider. The dashboard cache TTL applies only
// when cached is true.
func (a *App) Datasets(cached bool) dataset.Provider {
	dm := a.datasetMetrics()
	loader := dataset.NewLoader(
		a.Repos.Shelters,
		a.Repos.Events,
		a.Extractor,
		dataset.Options{IncludeDrafts: a.Settings.Migration.IncludeDrafts},
		dm,
		a.logger,
	)
	if !cached {
		return loader
	}
	return dataset.NewCachedLoader(loader, a.Settings.Dashboard.CacheTTL, dm)
}

// Close releases every connection opened by Open.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
