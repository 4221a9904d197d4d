// Package metrics defines the Prometheus collectors of the registry engine.
package metrics

// Migration record outcomes.
const (
	OutcomeCreated = "created"
	OutcomeUpdated = "updated"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// Link outcomes.
const (
	OutcomeLinked        = "linked"
	OutcomeAlreadyLinked = "already_linked"
	OutcomeNoCandidate   = "no_candidate"
)

// namespace prefixes every metric name.
const namespace = "registry"
