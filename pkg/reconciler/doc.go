/*
Package reconciler drives the background reconciliation loops.

Each loop runs on its own fixed-interval ticker, fully independent of the
others: the scheduler, the expiry checker, the creation monitor and the
orphan cleaner never call each other, and all coordination between them is
implicit through the state each leaves in the cluster.

# Tick semantics

Within one loop, ticks never overlap: a tick runs to completion, including
every per-item cluster call, before the next tick is taken from the ticker.
A slow tick therefore delays its own loop and nothing else.

The runner contains failures at two levels, matching the error design of
the loops themselves:

  - a tick returning an error is logged and counted; the ticker keeps
    going, because the next tick re-lists the cluster and is the retry;
  - a panicking tick is recovered, so a defect in one loop cannot take
    down the other loops sharing the process.

# Shutdown

Stop closes the shared stop channel and waits for in-flight ticks. Ticks
are not cancelled mid-flight; the only graceful-shutdown contract is "stop
scheduling new ticks", which is sound because every loop action is
idempotent and resumable.
*/
package reconciler
