package migration

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/legacy"
)

// KindReport tracks the outcome of migrating one entity type.
type KindReport struct {
	Kind      legacy.EntityType
	Created   int
	Updated   int
	Skipped   int
	Failed    int
	FailedIDs []int64
	Duration  time.Duration
}

// Processed returns the number of records examined.
func (k *KindReport) Processed() int {
	return k.Created + k.Updated + k.Skipped + k.Failed
}

// Report tracks a migration run. In a dry run Created and Updated count the
// writes that would have happened.
type Report struct {
	DryRun    bool
	StartTime time.Time
	EndTime   time.Time
	Kinds     []*KindReport

	plannedShelters plannedShelters
}

// planned returns the shelters a dry run would create.
func (r *Report) planned() plannedShelters {
	if r.plannedShelters == nil {
		r.plannedShelters = make(plannedShelters)
	}
	return r.plannedShelters
}

// Kind returns the report of kind, adding it on first use.
func (r *Report) Kind(kind legacy.EntityType) *KindReport {
	for _, k := range r.Kinds {
		if k.Kind == kind {
			return k
		}
	}
	k := &KindReport{Kind: kind}
	r.Kinds = append(r.Kinds, k)
	return k
}

// Totals sums every kind.
func (r *Report) Totals() KindReport {
	var total KindReport
	for _, k := range r.Kinds {
		total.Created += k.Created
		total.Updated += k.Updated
		total.Skipped += k.Skipped
		total.Failed += k.Failed
		total.FailedIDs = append(total.FailedIDs, k.FailedIDs...)
	}
	return total
}

// HasFailures reports whether any record failed to migrate.
func (r *Report) HasFailures() bool {
	return r.Totals().Failed > 0
}

// Print writes the operator summary table to w.
func (r *Report) Print(w io.Writer) {
	title := "=== Migration Summary ==="
	if r.DryRun {
		title = "=== Migration Summary (dry run) ==="
	}
	separator := strings.Repeat("-", 72)

	fmt.Fprintf(w, "\n%s\n", title)
	fmt.Fprintf(w, "Duration: %s\n\n", r.EndTime.Sub(r.StartTime).Round(time.Millisecond))

	fmt.Fprintf(w, "%-20s %10s %10s %10s %10s %8s\n", "Kind", "Created", "Updated", "Skipped", "Failed", "Duration")
	fmt.Fprintln(w, separator)

	for _, k := range r.Kinds {
		fmt.Fprintf(w, "%-20s %10d %10d %10d %10d %8s\n",
			k.Kind, k.Created, k.Updated, k.Skipped, k.Failed, k.Duration.Round(time.Millisecond))
	}

	total := r.Totals()
	fmt.Fprintln(w, separator)
	fmt.Fprintf(w, "%-20s %10d %10d %10d %10d\n", "TOTAL", total.Created, total.Updated, total.Skipped, total.Failed)

	for _, k := range r.Kinds {
		if len(k.FailedIDs) == 0 {
			continue
		}
		ids := make([]string, len(k.FailedIDs))
		for i, id := range k.FailedIDs {
			ids[i] = strconv.FormatInt(id, 10)
		}
		fmt.Fprintf(w, "\nFailed legacy ids (%s): %s\n", k.Kind, strings.Join(ids, ", "))
	}
}
