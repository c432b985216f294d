package cluster

import (
	"context"
	"fmt"
	"sort"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// PodEvents returns the events recorded for the named pod, oldest first.
// The dashboard renders these on the workspace detail page.
func (c *Client) PodEvents(ctx context.Context, podName string) ([]corev1.Event, error) {
	list, err := c.kube.CoreV1().Events(c.namespace).List(ctx, metav1.ListOptions{
		FieldSelector: "involvedObject.name=" + podName,
	})
	if err != nil {
		return nil, fmt.Errorf("listing events for pod %s: %w", podName, err)
	}
	events := list.Items
	sort.Slice(events, func(i, j int) bool {
		return events[i].LastTimestamp.Before(&events[j].LastTimestamp)
	})
	return events, nil
}

// ContainerUsage is a point-in-time resource reading for one container.
type ContainerUsage struct {
	Container   string
	CPUMillis   int64
	MemoryBytes int64
}

// PodUsage returns the current per-container usage of the named pod from the
// cluster metrics API. It returns nil when the pod has no reading yet or the
// metrics API is not wired.
func (c *Client) PodUsage(ctx context.Context, podName string) ([]ContainerUsage, error) {
	if c.metrics == nil {
		return nil, nil
	}
	reading, err := c.metrics.MetricsV1beta1().PodMetricses(c.namespace).Get(ctx, podName, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading metrics for pod %s: %w", podName, err)
	}

	usage := make([]ContainerUsage, 0, len(reading.Containers))
	for _, container := range reading.Containers {
		usage = append(usage, ContainerUsage{
			Container:   container.Name,
			CPUMillis:   container.Usage.Cpu().MilliValue(),
			MemoryBytes: container.Usage.Memory().Value(),
		})
	}
	return usage, nil
}
