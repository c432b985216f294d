package expiry

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/multierr"
	corev1 "k8s.io/api/core/v1"

	"github.com/workbench-dev/workbench/pkg/cluster"
	"github.com/workbench-dev/workbench/pkg/log"
	"github.com/workbench-dev/workbench/pkg/metrics"
	"github.com/workbench-dev/workbench/pkg/types"
	"github.com/workbench-dev/workbench/pkg/workspace"
)

const evictGracePeriod int64 = 30

// Checker evicts workspaces idle longer than the configured threshold and
// warns workspaces entering their final idle day.
type Checker struct {
	cluster  *cluster.Client
	log      zerolog.Logger
	interval time.Duration

	now func() time.Time
}

// New creates the idle-expiry loop
func New(c *cluster.Client, interval time.Duration) *Checker {
	return &Checker{
		cluster:  c,
		log:      log.WithComponent("expiry"),
		interval: interval,
		now:      time.Now,
	}
}

func (c *Checker) Name() string            { return "expiry" }
func (c *Checker) Interval() time.Duration { return c.interval }

// Tick reads the expiry threshold and walks every live workspace pod. A
// threshold of zero disables the check entirely; nothing is listed.
func (c *Checker) Tick(ctx context.Context) error {
	expiryDays, err := c.loadExpiryDays(ctx)
	if err != nil {
		return err
	}
	if expiryDays == 0 {
		return nil
	}

	pods, err := c.cluster.ListPods(ctx, workspace.ComponentSelector(types.ComponentWorkspace))
	if err != nil {
		return err
	}

	now := c.now()
	for i := range pods {
		pod := &pods[i]
		if err := c.check(ctx, pod, expiryDays, now); err != nil {
			name, _ := workspace.Identity(pod)
			c.log.Error().Err(err).Str("workspace", name).Msg("expiry check failed")
		}
	}
	return nil
}

// loadExpiryDays reads the threshold from the settings configmap. Absent or
// malformed settings disable the check rather than failing the tick.
func (c *Checker) loadExpiryDays(ctx context.Context) (int, error) {
	cm, err := c.cluster.GetConfigMap(ctx, types.SettingsConfigMap)
	if err != nil {
		return 0, fmt.Errorf("loading expiry settings: %w", err)
	}
	if cm == nil {
		return 0, nil
	}
	raw, ok := cm.Data[types.ExpiryDaysKey]
	if !ok || raw == "" {
		return 0, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days < 0 {
		c.log.Warn().Str("value", raw).Msg("malformed expiry-days setting, expiry disabled")
		return 0, nil
	}
	return days, nil
}

// check applies exactly one of evict, warn, or nothing to a single pod.
func (c *Checker) check(ctx context.Context, pod *corev1.Pod, expiryDays int, now time.Time) error {
	idleDays := now.Sub(workspace.LastAccessed(pod)).Hours() / 24

	switch {
	case idleDays > float64(expiryDays):
		return c.evict(ctx, pod, idleDays)
	case idleDays > float64(expiryDays-1):
		return c.warn(ctx, pod, now)
	default:
		return nil
	}
}

// evict deletes every resource of the workspace. The five deletions are
// attempted independently; one failing must not strand the others, so the
// errors are aggregated and the action reported as a partial failure.
func (c *Checker) evict(ctx context.Context, pod *corev1.Pod, idleDays float64) error {
	name, uid := workspace.Identity(pod)
	c.log.Info().Str("workspace", name).Str("uid", uid).
		Float64("idle_days", idleDays).Msg("evicting expired workspace")

	err := multierr.Combine(
		c.cluster.DeletePod(ctx, pod.Name, evictGracePeriod),
		c.cluster.DeletePVC(ctx, workspace.PVCName(uid)),
		c.cluster.DeleteService(ctx, workspace.ServiceName(uid)),
		c.cluster.DeleteConfigMap(ctx, workspace.MetaName(name)),
		c.cluster.DeleteConfigMap(ctx, workspace.SavedSpecName(uid)),
	)
	if err != nil {
		return fmt.Errorf("partial eviction of workspace %s: %w", name, err)
	}

	metrics.WorkspacesExpiredTotal.Inc()
	return nil
}

// warn sets the expiry-warning annotation once. The annotation is never
// cleared here; it only stops re-warning, and goes away when the workspace's
// last-accessed time is refreshed externally.
func (c *Checker) warn(ctx context.Context, pod *corev1.Pod, now time.Time) error {
	if _, ok := pod.Annotations[types.AnnotationExpiryWarning]; ok {
		return nil
	}

	stamp := now.UTC().Format(time.RFC3339)
	err := c.cluster.PatchAnnotations(ctx, pod.Name, map[string]*string{
		types.AnnotationExpiryWarning: &stamp,
	})
	if err != nil {
		return err
	}

	name, _ := workspace.Identity(pod)
	c.log.Info().Str("workspace", name).Msg("workspace enters its final idle day")
	metrics.ExpiryWarningsTotal.Inc()
	return nil
}
