package poller

import "github.com/Mohsinsiddi/txdash/internal/metrics"

// Phase is the engine's position in the watch lifecycle.
type Phase int

const (
	// Idle: no active watch.
	Idle Phase = iota
	// InitialFetch: a user-initiated fetch is in flight.
	InitialFetch
	// Polling: data is held and live mode is on.
	Polling
	// Static: data is held and live mode is off. No further ticks run.
	Static
	// Error: the initial fetch failed. Only a new fetch leaves this phase.
	Error
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case InitialFetch:
		return "initial-fetch"
	case Polling:
		return "polling"
	case Static:
		return "static"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// TickOutcome is the result of one poll cycle.
type TickOutcome int

const (
	// Skipped: no completed watch, or the watch changed mid-cycle.
	Skipped TickOutcome = iota
	// Unchanged: the fetched hashes were all already held.
	Unchanged
	// Updated: at least one new hash; the held set was replaced.
	Updated
	// Failed: the fetch errored and the held set was kept.
	Failed
)

func (o TickOutcome) String() string { return o.label() }

func (o TickOutcome) label() string {
	switch o {
	case Unchanged:
		return metrics.OutcomeUnchanged
	case Updated:
		return metrics.OutcomeUpdated
	case Failed:
		return metrics.OutcomeFailed
	default:
		return metrics.OutcomeSkipped
	}
}
