// conf/validate.go

package conf

import (
	"fmt"
	"slices"
	"strings"
)

// Limits enforced on numeric settings.
const (
	minBatchSize = 1
	maxBatchSize = 10000
	// SQLite limits host parameters per statement to 999 on older builds.
	maxChunkSize = 999
)

var validLogLevels = []string{"trace", "debug", "info", "warn", "error"}

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	ve.Errors = append(ve.Errors, validateLoggingSettings(settings)...)
	ve.Errors = append(ve.Errors, validateLegacySettings(&settings.Legacy)...)
	ve.Errors = append(ve.Errors, validateStoreSettings(&settings.Store)...)
	ve.Errors = append(ve.Errors, validateMigrationSettings(&settings.Migration)...)
	ve.Errors = append(ve.Errors, validateLinkerSettings(&settings.Linker)...)
	ve.Errors = append(ve.Errors, validateDashboardSettings(&settings.Dashboard)...)

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateLoggingSettings(settings *Settings) []string {
	var errs []string
	if level := settings.Logging.DefaultLevel; level != "" && !slices.Contains(validLogLevels, level) {
		errs = append(errs, fmt.Sprintf("logging.default_level %q must be one of %s", level, strings.Join(validLogLevels, ", ")))
	}
	for module, level := range settings.Logging.ModuleLevels {
		if !slices.Contains(validLogLevels, level) {
			errs = append(errs, fmt.Sprintf("logging.module_levels.%s %q is not a valid level", module, level))
		}
	}
	return errs
}

// validateLegacySettings checks the legacy source section. An empty DSN is
// allowed: commands that need the legacy source report it when they open it.
func validateLegacySettings(s *LegacySettings) []string {
	var errs []string
	if s.Driver != DriverSQLite && s.Driver != DriverMySQL {
		errs = append(errs, fmt.Sprintf("legacy.driver %q must be sqlite or mysql", s.Driver))
	}
	if s.ChunkSize < 1 || s.ChunkSize > maxChunkSize {
		errs = append(errs, fmt.Sprintf("legacy.chunk_size must be between 1 and %d", maxChunkSize))
	}

	types := map[string]string{
		"shelter":          s.PostTypes.Shelter,
		"volunteer":        s.PostTypes.Volunteer,
		"vacancy":          s.PostTypes.Vacancy,
		"population_event": s.PostTypes.PopulationEvent,
	}
	seen := make(map[string]string, len(types))
	for _, name := range []string{"shelter", "volunteer", "vacancy", "population_event"} {
		postType := strings.TrimSpace(types[name])
		if postType == "" {
			errs = append(errs, fmt.Sprintf("legacy.post_types.%s must not be empty", name))
			continue
		}
		if other, dup := seen[postType]; dup {
			errs = append(errs, fmt.Sprintf("legacy.post_types.%s and legacy.post_types.%s both map to %q", other, name, postType))
		}
		seen[postType] = name
	}
	return errs
}

func validateStoreSettings(s *StoreSettings) []string {
	var errs []string
	switch s.Driver {
	case DriverSQLite, DriverMySQL, DriverPostgres:
	default:
		errs = append(errs, fmt.Sprintf("store.driver %q must be sqlite, mysql or postgres", s.Driver))
	}
	if strings.TrimSpace(s.DSN) == "" {
		errs = append(errs, "store.dsn is required")
	}
	if s.SlowQueryThreshold < 0 {
		errs = append(errs, "store.slow_query_threshold must not be negative")
	}
	return errs
}

func validateMigrationSettings(s *MigrationSettings) []string {
	if s.BatchSize < minBatchSize || s.BatchSize > maxBatchSize {
		return []string{fmt.Sprintf("migration.batch_size must be between %d and %d", minBatchSize, maxBatchSize)}
	}
	return nil
}

func validateLinkerSettings(s *LinkerSettings) []string {
	switch s.Policy {
	case PolicyFirstMatch, PolicyMostRecentPublished:
		return nil
	default:
		return []string{fmt.Sprintf("linker.policy %q must be %s or %s", s.Policy, PolicyFirstMatch, PolicyMostRecentPublished)}
	}
}

func validateDashboardSettings(s *DashboardSettings) []string {
	if s.CacheTTL < 0 {
		return []string{"dashboard.cache_ttl must not be negative"}
	}
	return nil
}
