package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/workbench-dev/workbench/pkg/cluster"
	"github.com/workbench-dev/workbench/pkg/log"
	"github.com/workbench-dev/workbench/pkg/metrics"
	"github.com/workbench-dev/workbench/pkg/types"
	"github.com/workbench-dev/workbench/pkg/workspace"
)

// dedupWindow suppresses a repeat firing of the same schedule key. It keeps
// a tick interval shorter than one minute from double-firing within the
// matched minute.
const dedupWindow = 2 * time.Minute

// stopGracePeriod is the pod deletion grace period for scheduled stops.
const stopGracePeriod int64 = 30

// fireKey identifies one firing time bucket of one schedule entry.
type fireKey struct {
	workspace string
	action    types.ScheduleAction
	day       string
	hour      int
	minute    int
}

// Scheduler fires start/stop actions for workspaces at their configured UTC
// times. Schedule entries are loaded fresh from the schedules configmap on
// every tick.
type Scheduler struct {
	cluster  *cluster.Client
	log      zerolog.Logger
	interval time.Duration

	// fired is single-writer state: ticks of one loop never overlap, so no
	// lock is needed. Entries older than the dedup window are purged each
	// tick to bound memory.
	fired map[fireKey]time.Time

	now func() time.Time
}

// New creates the schedule enforcement loop
func New(c *cluster.Client, interval time.Duration) *Scheduler {
	return &Scheduler{
		cluster:  c,
		log:      log.WithComponent("scheduler"),
		interval: interval,
		fired:    make(map[fireKey]time.Time),
		now:      time.Now,
	}
}

func (s *Scheduler) Name() string            { return "scheduler" }
func (s *Scheduler) Interval() time.Duration { return s.interval }

// Tick evaluates every schedule entry against the current UTC minute. A
// single entry's failure is logged and never blocks the remaining entries.
func (s *Scheduler) Tick(ctx context.Context) error {
	now := s.now().UTC()
	s.purge(now)

	schedules, err := s.loadSchedules(ctx)
	if err != nil {
		return err
	}

	for _, entry := range schedules {
		day, ok := matches(entry, now)
		if !ok {
			continue
		}
		key := fireKey{
			workspace: entry.Workspace,
			action:    entry.Action,
			day:       day,
			hour:      entry.Hour,
			minute:    entry.Minute,
		}
		if firedAt, ok := s.fired[key]; ok && now.Sub(firedAt) < dedupWindow {
			continue
		}
		// Record the firing before acting: scheduled actions are
		// at-most-once per time bucket, even when the action fails.
		s.fired[key] = now

		metrics.ScheduleFiringsTotal.WithLabelValues(string(entry.Action)).Inc()
		if err := s.execute(ctx, entry); err != nil {
			s.log.Error().Err(err).
				Str("workspace", entry.Workspace).
				Str("action", string(entry.Action)).
				Msg("schedule action failed")
		}
	}
	return nil
}

// loadSchedules reads the schedule entries stored by the dashboard. A
// missing configmap or malformed payload yields no entries rather than a
// failed tick.
func (s *Scheduler) loadSchedules(ctx context.Context) ([]types.Schedule, error) {
	cm, err := s.cluster.GetConfigMap(ctx, types.SchedulesConfigMap)
	if err != nil {
		return nil, fmt.Errorf("loading schedules: %w", err)
	}
	if cm == nil || cm.Data[types.SchedulesKey] == "" {
		return nil, nil
	}

	var schedules []types.Schedule
	if err := json.Unmarshal([]byte(cm.Data[types.SchedulesKey]), &schedules); err != nil {
		s.log.Warn().Err(err).Msg("malformed schedule config, treating as empty")
		return nil, nil
	}

	valid := schedules[:0]
	for _, entry := range schedules {
		if !entry.Valid() {
			s.log.Warn().Str("workspace", entry.Workspace).Msg("skipping invalid schedule entry")
			continue
		}
		valid = append(valid, entry)
	}
	return valid, nil
}

// matches reports whether the entry fires at the given instant, returning
// the matched weekday abbreviation. Matching is exact-minute: weekday, hour
// and minute must all be equal.
func matches(entry types.Schedule, now time.Time) (string, bool) {
	if now.Hour() != entry.Hour || now.Minute() != entry.Minute {
		return "", false
	}
	day := now.Weekday().String()[:3]
	for _, d := range entry.Days {
		if d == day {
			return day, true
		}
	}
	return "", false
}

// purge drops dedup entries older than the window.
func (s *Scheduler) purge(now time.Time) {
	for key, firedAt := range s.fired {
		if now.Sub(firedAt) >= dedupWindow {
			delete(s.fired, key)
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, entry types.Schedule) error {
	switch entry.Action {
	case types.ScheduleStop:
		return s.stop(ctx, entry)
	case types.ScheduleStart:
		return s.start(ctx, entry)
	default:
		return fmt.Errorf("unknown schedule action %q", entry.Action)
	}
}

// stop persists the live pod's spec as the saved-spec configmap, then
// deletes the pod. The order is load-bearing: the spec must be durable
// before the pod goes away, or a crash between the two loses the ability to
// restart the workspace. An absent pod means the workspace is already
// stopped and the whole action is a no-op.
func (s *Scheduler) stop(ctx context.Context, entry types.Schedule) error {
	pod, err := s.cluster.GetPod(ctx, entry.PodName)
	if err != nil {
		return err
	}
	if pod == nil {
		s.log.Debug().Str("pod", entry.PodName).Msg("pod already absent, nothing to stop")
		return nil
	}

	name, uid := workspace.Identity(pod)
	data, err := workspace.SavedSpecData(pod)
	if err != nil {
		return err
	}
	labels := workspace.Labels(name, uid, types.ComponentSavedSpec)
	if err := s.cluster.CreateOrReplaceConfigMap(ctx, workspace.SavedSpecName(uid), data, labels); err != nil {
		return fmt.Errorf("saving pod spec: %w", err)
	}
	if err := s.cluster.DeletePod(ctx, entry.PodName, stopGracePeriod); err != nil {
		return err
	}

	s.log.Info().Str("workspace", entry.Workspace).Str("pod", entry.PodName).Msg("stopped workspace on schedule")
	return nil
}

// start recreates the pod from its saved spec. A live pod means the
// workspace is already running and the action is a no-op. With no saved
// spec, reconstruction would need the provisioning flow's logic, which the
// worker does not have; the loop logs and defers to it.
func (s *Scheduler) start(ctx context.Context, entry types.Schedule) error {
	pod, err := s.cluster.GetPod(ctx, entry.PodName)
	if err != nil {
		return err
	}
	if pod != nil {
		s.log.Debug().Str("pod", entry.PodName).Msg("pod already running, nothing to start")
		return nil
	}

	uid, err := workspace.UIDFromPodName(entry.PodName)
	if err != nil {
		return err
	}

	savedSpec, err := s.cluster.GetConfigMap(ctx, workspace.SavedSpecName(uid))
	if err != nil {
		return err
	}
	if savedSpec == nil {
		meta, err := s.cluster.GetConfigMap(ctx, workspace.MetaName(entry.Workspace))
		if err != nil {
			return err
		}
		if meta != nil {
			s.log.Warn().Str("workspace", entry.Workspace).
				Msg("no saved spec, only meta; start deferred to the provisioning flow")
		} else {
			s.log.Warn().Str("workspace", entry.Workspace).
				Msg("no saved spec and no meta, cannot start")
		}
		return nil
	}

	saved, err := workspace.DecodeSavedSpec(savedSpec.Data)
	if err != nil {
		return err
	}
	workspace.StripClusterFields(saved)
	if err := s.cluster.CreatePod(ctx, saved); err != nil {
		return err
	}

	// The saved-spec configmap stays behind deliberately; the dashboard's
	// start path owns its deletion.
	s.log.Info().Str("workspace", entry.Workspace).Str("pod", entry.PodName).Msg("started workspace on schedule")
	return nil
}
