package creation

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	corev1 "k8s.io/api/core/v1"

	"github.com/workbench-dev/workbench/pkg/cluster"
	"github.com/workbench-dev/workbench/pkg/log"
	"github.com/workbench-dev/workbench/pkg/metrics"
	"github.com/workbench-dev/workbench/pkg/types"
	"github.com/workbench-dev/workbench/pkg/workspace"
)

// stuckAfter is how long a pod may stay unready after creation before it is
// flagged.
const stuckAfter = 10 * time.Minute

// Monitor flags workspace pods that fail to become ready within the
// creation deadline. It only annotates, for dashboard visibility; it never
// deletes or restarts anything.
type Monitor struct {
	cluster  *cluster.Client
	log      zerolog.Logger
	interval time.Duration

	now func() time.Time
}

// New creates the stuck-creation monitor loop
func New(c *cluster.Client, interval time.Duration) *Monitor {
	return &Monitor{
		cluster:  c,
		log:      log.WithComponent("creation"),
		interval: interval,
		now:      time.Now,
	}
}

func (m *Monitor) Name() string            { return "creation" }
func (m *Monitor) Interval() time.Duration { return m.interval }

// Tick flags every unready workspace pod past the deadline. Pods already
// carrying the stuck annotation are skipped, so each pod is patched at most
// once per stuck episode.
func (m *Monitor) Tick(ctx context.Context) error {
	pods, err := m.cluster.ListPods(ctx, workspace.ComponentSelector(types.ComponentWorkspace))
	if err != nil {
		return err
	}

	now := m.now()
	for i := range pods {
		pod := &pods[i]
		if workspace.Ready(pod) {
			continue
		}
		if _, flagged := pod.Annotations[types.AnnotationCreationStuck]; flagged {
			continue
		}
		if now.Sub(pod.CreationTimestamp.Time) <= stuckAfter {
			continue
		}
		if err := m.flag(ctx, pod, now); err != nil {
			m.log.Error().Err(err).Str("pod", pod.Name).Msg("flagging stuck pod failed")
		}
	}
	return nil
}

// flag patches the stuck timestamp and reason in a single call.
func (m *Monitor) flag(ctx context.Context, pod *corev1.Pod, now time.Time) error {
	reason := stuckReason(pod)
	stamp := now.UTC().Format(time.RFC3339)
	err := m.cluster.PatchAnnotations(ctx, pod.Name, map[string]*string{
		types.AnnotationCreationStuck:       &stamp,
		types.AnnotationCreationStuckReason: &reason,
	})
	if err != nil {
		return err
	}

	m.log.Warn().Str("pod", pod.Name).Str("reason", reason).Msg("pod stuck in creation")
	metrics.StuckCreationsTotal.Inc()
	return nil
}

// stuckReason extracts the most specific failure reason available: main
// container waiting/terminated reasons first, then init containers (prefixed
// to mark the init phase), then a failing pod condition, then the bare phase.
func stuckReason(pod *corev1.Pod) string {
	if reason := containerReason(pod.Status.ContainerStatuses); reason != "" {
		return reason
	}
	if reason := containerReason(pod.Status.InitContainerStatuses); reason != "" {
		return "init:" + reason
	}
	for _, condition := range pod.Status.Conditions {
		if condition.Status == corev1.ConditionFalse && condition.Reason != "" {
			return condition.Reason
		}
	}
	return string(pod.Status.Phase)
}

func containerReason(statuses []corev1.ContainerStatus) string {
	for _, status := range statuses {
		if status.State.Waiting != nil && status.State.Waiting.Reason != "" {
			return status.State.Waiting.Reason
		}
		if status.State.Terminated != nil && status.State.Terminated.Reason != "" {
			return status.State.Terminated.Reason
		}
	}
	return ""
}
