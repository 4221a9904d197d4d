// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaultConfig registers default values on v. Every key must have a
// default so that AutomaticEnv overrides are picked up by Unmarshal.
func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("logging.default_level", "info")
	v.SetDefault("logging.timezone", "Local")
	v.SetDefault("logging.console.enabled", true)
	v.SetDefault("logging.console.level", "info")
	v.SetDefault("logging.file_output.enabled", false)
	v.SetDefault("logging.file_output.path", "logs/registry.log")
	v.SetDefault("logging.file_output.level", "info")

	v.SetDefault("legacy.driver", DriverMySQL)
	v.SetDefault("legacy.dsn", "")
	v.SetDefault("legacy.table_prefix", "wp_")
	v.SetDefault("legacy.chunk_size", 500)
	v.SetDefault("legacy.post_types.shelter", "abrigo")
	v.SetDefault("legacy.post_types.volunteer", "voluntario")
	v.SetDefault("legacy.post_types.vacancy", "vaga")
	v.SetDefault("legacy.post_types.population_event", "dados_populacionais")

	v.SetDefault("store.driver", DriverSQLite)
	v.SetDefault("store.dsn", "data/registry.db")
	v.SetDefault("store.slow_query_threshold", 200*time.Millisecond)
	v.SetDefault("store.max_open_conns", 10)

	v.SetDefault("migration.batch_size", 500)
	v.SetDefault("migration.include_drafts", false)

	v.SetDefault("linker.policy", PolicyFirstMatch)

	v.SetDefault("dashboard.listen", ":8080")
	v.SetDefault("dashboard.cache_ttl", time.Duration(0))

	v.SetDefault("telemetry.metrics_enabled", true)
	v.SetDefault("telemetry.sentry_dsn", "")
	v.SetDefault("telemetry.environment", "production")
}
