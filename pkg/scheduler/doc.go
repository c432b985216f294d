/*
Package scheduler enforces the per-workspace start/stop schedules the
dashboard stores in the workspace-schedules configmap.

An entry fires when the current UTC weekday, hour and minute all match
exactly. Matching is deliberately not "at or after": the loop's interval is
expected to land within the target minute, and a missed minute is a missed
firing, not a deferred one.

Firings are at-most-once per (workspace, action, day, hour, minute) bucket.
An in-process dedup map suppresses repeat matches of the same bucket for two
minutes, which tolerates the runner ticking more often than once per minute;
the map is purged of stale keys each tick. There is no cross-process lock:
when several workers run, correctness relies on stop and start both being
idempotent (stop of an absent pod and start of a running pod are no-ops).

A stop saves the live pod's spec to the saved-spec configmap before deleting
the pod, in that order, so the workspace stays recoverable even if the loop
dies between the two calls. A start strips the cluster-assigned fields from
the saved spec and resubmits it; with no saved spec the loop defers to the
provisioning flow rather than guessing at a rebuild.
*/
package scheduler
