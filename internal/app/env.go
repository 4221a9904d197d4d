package app

import (
	"context"

	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/buildinfo"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/conf"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/errors"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/logger"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/telemetry"
)

// Env is the process state shared by the CLI commands. ConfigPath and Debug
// are bound to flags; Settings and Logger are set by Init before a command
// runs.
type Env struct {
	Info       *buildinfo.Context
	ConfigPath string
	Debug      bool

	Settings *conf.Settings
	Logger   logger.Logger

	central           *logger.CentralLogger
	telemetryShutdown func()
}

// NewEnv creates an Env for a build.
func NewEnv(info *buildinfo.Context) *Env {
	return &Env{Info: info}
}

// Init loads the settings, starts logging and installs error telemetry.
func (e *Env) Init() error {
	settings, err := conf.Load(e.ConfigPath)
	if err != nil {
		return errors.New(err).
			Component("app").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if e.Debug {
		settings.EnableDebug()
	}

	central, err := logger.NewCentralLogger(&settings.Logging)
	if err != nil {
		return errors.New(err).
			Component("app").
			Category(errors.CategoryConfiguration).
			Context("operation", "init_logging").
			Build()
	}
	log := central.Module("registry")

	shutdown, err := telemetry.Init(&settings.Telemetry, e.Info.GetVersion(), log, telemetry.Options{})
	if err != nil {
		_ = central.Close()
		return err
	}

	e.Settings = settings
	e.Logger = log
	e.central = central
	e.telemetryShutdown = shutdown

	log.Debug("settings loaded",
		logger.String("version", e.Info.GetVersion()),
		logger.String("store_driver", settings.Store.Driver),
		logger.String("legacy_driver", settings.Legacy.Driver))
	return nil
}

// Open opens the App described by the loaded settings.
func (e *Env) Open(ctx context.Context) (*App, error) {
	if e.Settings == nil {
		return nil, errors.Newf("environment is not initialized").
			Component("app").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return Open(ctx, e.Settings, e.Info, e.Logger)
}

// Close flushes telemetry and logs. It is safe to call on an Env that was
// never initialized.
func (e *Env) Close() error {
	if e.telemetryShutdown != nil {
		e.telemetryShutdown()
		e.telemetryShutdown = nil
	}
	if e.central == nil {
		return nil
	}
	err := e.central.Close()
	e.central = nil
	return err
}
