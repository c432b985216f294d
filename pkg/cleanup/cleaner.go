package cleanup

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/workbench-dev/workbench/pkg/cluster"
	"github.com/workbench-dev/workbench/pkg/log"
	"github.com/workbench-dev/workbench/pkg/metrics"
	"github.com/workbench-dev/workbench/pkg/types"
	"github.com/workbench-dev/workbench/pkg/workspace"
)

// staleMarkerAge is how old an in-progress-creation marker may get before
// it is considered abandoned. A stale marker is always safe to remove; it
// carries nothing but its own age.
const staleMarkerAge = time.Hour

// Cleaner garbage-collects resources whose owning workspace no longer
// exists in either live or stopped form, and abandoned creation markers.
type Cleaner struct {
	cluster  *cluster.Client
	log      zerolog.Logger
	interval time.Duration

	now func() time.Time
}

// New creates the orphaned-resource cleanup loop
func New(c *cluster.Client, interval time.Duration) *Cleaner {
	return &Cleaner{
		cluster:  c,
		log:      log.WithComponent("cleanup"),
		interval: interval,
		now:      time.Now,
	}
}

func (c *Cleaner) Name() string            { return "cleanup" }
func (c *Cleaner) Interval() time.Duration { return c.interval }

// Tick sweeps for orphans. Any listing failure aborts the whole sweep:
// deleting on a partial view of the cluster is how data gets lost.
// Individual deletion failures are logged and do not stop the sweep.
func (c *Cleaner) Tick(ctx context.Context) error {
	pods, err := c.cluster.ListPods(ctx, workspace.ComponentSelector(types.ComponentWorkspace))
	if err != nil {
		return fmt.Errorf("aborting sweep: %w", err)
	}
	savedSpecs, err := c.cluster.ListConfigMaps(ctx, workspace.ComponentSelector(types.ComponentSavedSpec))
	if err != nil {
		return fmt.Errorf("aborting sweep: %w", err)
	}

	live := workspace.PodUIDs(pods)
	saved := workspace.ConfigMapUIDs(savedSpecs)

	if err := c.sweepPVCs(ctx, live, saved); err != nil {
		return err
	}
	if err := c.sweepServices(ctx, live, saved); err != nil {
		return err
	}
	return c.sweepCreatingMarkers(ctx)
}

// sweepPVCs reports orphaned claims. They are never auto-deleted: a claim
// holds the workspace's files, and a correlation bug here would be
// unrecoverable. Operators act on the log line.
func (c *Cleaner) sweepPVCs(ctx context.Context, live, saved map[string]bool) error {
	pvcs, err := c.cluster.ListPVCs(ctx, workspace.ManagedSelector())
	if err != nil {
		return fmt.Errorf("aborting sweep: %w", err)
	}

	orphans := 0
	for i := range pvcs {
		pvc := &pvcs[i]
		orphaned, err := c.orphaned(ctx, pvc.Labels, live, saved)
		if err != nil {
			return fmt.Errorf("aborting sweep: %w", err)
		}
		if !orphaned {
			continue
		}
		orphans++
		name, uid := workspace.Identity(pvc)
		c.log.Warn().Str("pvc", pvc.Name).Str("workspace", name).Str("uid", uid).
			Msg("orphaned pvc, not deleting; holds workspace data, needs manual action")
	}
	metrics.OrphanPVCs.Set(float64(orphans))
	return nil
}

// sweepServices deletes orphaned services. Unlike a claim, a service holds
// no durable data, so the same correlation test that only reports a PVC
// deletes a service.
func (c *Cleaner) sweepServices(ctx context.Context, live, saved map[string]bool) error {
	services, err := c.cluster.ListServices(ctx, workspace.ManagedSelector())
	if err != nil {
		return fmt.Errorf("aborting sweep: %w", err)
	}

	for i := range services {
		svc := &services[i]
		orphaned, err := c.orphaned(ctx, svc.Labels, live, saved)
		if err != nil {
			return fmt.Errorf("aborting sweep: %w", err)
		}
		if !orphaned {
			continue
		}
		if err := c.cluster.DeleteService(ctx, svc.Name); err != nil {
			c.log.Error().Err(err).Str("service", svc.Name).Msg("deleting orphaned service failed")
			continue
		}
		c.log.Info().Str("service", svc.Name).Msg("deleted orphaned service")
		metrics.OrphansDeletedTotal.WithLabelValues("service").Inc()
	}
	return nil
}

// sweepCreatingMarkers deletes creation markers strictly older than the
// stale age, regardless of correlation.
func (c *Cleaner) sweepCreatingMarkers(ctx context.Context) error {
	markers, err := c.cluster.ListConfigMaps(ctx, workspace.ComponentSelector(types.ComponentCreating))
	if err != nil {
		return fmt.Errorf("aborting sweep: %w", err)
	}

	now := c.now()
	for i := range markers {
		marker := &markers[i]
		if now.Sub(marker.CreationTimestamp.Time) <= staleMarkerAge {
			continue
		}
		if err := c.cluster.DeleteConfigMap(ctx, marker.Name); err != nil {
			c.log.Error().Err(err).Str("configmap", marker.Name).Msg("deleting stale creation marker failed")
			continue
		}
		c.log.Info().Str("configmap", marker.Name).Msg("deleted stale creation marker")
		metrics.OrphansDeletedTotal.WithLabelValues("creating-configmap").Inc()
	}
	return nil
}

// orphaned applies the correlation test: a resource is orphaned when its
// uid matches neither a live pod nor a saved spec, and its workspace name
// has no meta configmap either.
func (c *Cleaner) orphaned(ctx context.Context, labels map[string]string, live, saved map[string]bool) (bool, error) {
	uid := labels[types.LabelWorkspaceUID]
	if uid == "" || live[uid] || saved[uid] {
		return false, nil
	}
	name := labels[types.LabelWorkspaceName]
	if name != "" {
		meta, err := c.cluster.GetConfigMap(ctx, workspace.MetaName(name))
		if err != nil {
			return false, err
		}
		if meta != nil {
			return false, nil
		}
	}
	return true, nil
}
