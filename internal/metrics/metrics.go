// Package metrics provides application-level counters using stdlib expvar.
// Counters are automatically exported on the /debug/vars HTTP endpoint
// when expvar's handler is mounted by the serve command.
package metrics

import "expvar"

// Operation counters.
var (
	CheckTotal       = expvar.NewInt("assetguard_check_total")
	ConflictsFound   = expvar.NewInt("assetguard_conflicts_found_total")
	WarningsRaised   = expvar.NewInt("assetguard_warnings_raised_total")
	EligibilityTotal = expvar.NewInt("assetguard_eligibility_total")
	AutoResolveTotal = expvar.NewInt("assetguard_auto_resolve_total")
	AutoResolveOK    = expvar.NewInt("assetguard_auto_resolve_success_total")
	ProbeTotal       = expvar.NewInt("assetguard_probe_total")
	ProbeDeferred    = expvar.NewInt("assetguard_probe_deferred_total")
	SweepRuns        = expvar.NewInt("assetguard_sweep_runs_total")
	CommitTotal      = expvar.NewInt("assetguard_commit_total")
	CommitRejected   = expvar.NewInt("assetguard_commit_rejected_total")
)

// Inc increments the given counter by 1.
func Inc(counter *expvar.Int) { counter.Add(1) }

// Add increments the given counter by n.
func Add(counter *expvar.Int, n int) { counter.Add(int64(n)) }
