package metrics

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/workbench-dev/workbench/pkg/cluster"
	"github.com/workbench-dev/workbench/pkg/log"
	"github.com/workbench-dev/workbench/pkg/types"
	"github.com/workbench-dev/workbench/pkg/workspace"
)

// Collector periodically recomputes the workspace-state gauges from the
// cluster. State is derived the same way the loops derive it: from the
// correlation of live pods, saved specs and creation markers.
type Collector struct {
	cluster *cluster.Client
	log     zerolog.Logger
	stopCh  chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(c *cluster.Client) *Collector {
	return &Collector{
		cluster: c,
		log:     log.WithComponent("metrics"),
		stopCh:  make(chan struct{}),
	}
}

// Start begins collecting metrics
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		// Collect immediately on start
		c.collect()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	ctx := context.Background()

	pods, err := c.cluster.ListPods(ctx, workspace.ComponentSelector(types.ComponentWorkspace))
	if err != nil {
		c.log.Error().Err(err).Msg("listing pods for state gauges")
		return
	}
	savedSpecs, err := c.cluster.ListConfigMaps(ctx, workspace.ComponentSelector(types.ComponentSavedSpec))
	if err != nil {
		c.log.Error().Err(err).Msg("listing saved specs for state gauges")
		return
	}
	creating, err := c.cluster.ListConfigMaps(ctx, workspace.ComponentSelector(types.ComponentCreating))
	if err != nil {
		c.log.Error().Err(err).Msg("listing creation markers for state gauges")
		return
	}

	live := workspace.PodUIDs(pods)
	saved := workspace.ConfigMapUIDs(savedSpecs)

	stopped := 0
	for uid := range saved {
		if !live[uid] {
			stopped++
		}
	}

	WorkspacesTotal.WithLabelValues(string(types.WorkspaceRunning)).Set(float64(len(live)))
	WorkspacesTotal.WithLabelValues(string(types.WorkspaceStopped)).Set(float64(stopped))
	WorkspacesTotal.WithLabelValues(string(types.WorkspaceCreating)).Set(float64(len(creating)))
}
