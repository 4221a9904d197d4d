// Package telemetry provides privacy-compliant error tracking. Reporting is
// opt-in: nothing is sent unless a Sentry DSN is configured.
package telemetry

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/conf"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/errors"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/logger"
)

// flushTimeout bounds how long Shutdown waits for queued events.
const flushTimeout = 2 * time.Second

// Options tweaks Init for tests.
type Options struct {
	// Transport replaces the HTTP transport when set.
	Transport sentry.Transport
}

// Init initializes the Sentry SDK and installs the error reporter. It
// returns a shutdown function that flushes pending events; the function is
// a no-op when telemetry is disabled.
func Init(settings *conf.TelemetrySettings, version string, log logger.Logger, opts Options) (func(), error) {
	log = log.Module("telemetry")

	if settings.SentryDSN == "" {
		log.Debug("error telemetry disabled")
		errors.SetTelemetryReporter(nil)
		return func() {}, nil
	}

	environment := settings.Environment
	if environment == "" {
		environment = "production"
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:        settings.SentryDSN,
		SampleRate: 1.0,

		// Privacy-compliant settings
		AttachStacktrace: false,
		Environment:      environment,
		ServerName:       "",
		Release:          fmt.Sprintf("registry@%s", version),

		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			return applyPrivacyFilters(event)
		},
		Transport: opts.Transport,
	})
	if err != nil {
		return nil, errors.New(fmt.Errorf("sentry initialization failed: %w", err)).
			Component("telemetry").
			Category(errors.CategoryConfiguration).
			Build()
	}

	errors.SetTelemetryReporter(errors.NewSentryReporter(true))
	log.Info("error telemetry enabled",
		logger.String("environment", environment),
		logger.String("release", version))

	return func() {
		errors.SetTelemetryReporter(nil)
		sentry.Flush(flushTimeout)
	}, nil
}

// applyPrivacyFilters strips host and user data from an event.
func applyPrivacyFilters(event *sentry.Event) *sentry.Event {
	event.User = sentry.User{}
	event.ServerName = ""

	if event.Contexts != nil {
		delete(event.Contexts, "device")
		delete(event.Contexts, "os")
		delete(event.Contexts, "runtime")
	}

	for k := range event.Extra {
		if k != "error_type" && k != "component" {
			delete(event.Extra, k)
		}
	}

	if event.Tags != nil {
		delete(event.Tags, "server_name")
		delete(event.Tags, "hostname")
	}
	return event
}
