package cluster

import (
	"context"
	"encoding/json"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	ktypes "k8s.io/apimachinery/pkg/types"
)

// ListPods returns the pods matching the label selector.
func (c *Client) ListPods(ctx context.Context, selector string) ([]corev1.Pod, error) {
	list, err := c.kube.CoreV1().Pods(c.namespace).List(ctx, metav1.ListOptions{LabelSelector: selector})
	if err != nil {
		return nil, fmt.Errorf("listing pods: %w", err)
	}
	return list.Items, nil
}

// GetPod returns the named pod, or nil when it does not exist. Absence is a
// valid state, not an error.
func (c *Client) GetPod(ctx context.Context, name string) (*corev1.Pod, error) {
	pod, err := c.kube.CoreV1().Pods(c.namespace).Get(ctx, name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting pod %s: %w", name, err)
	}
	return pod, nil
}

// CreatePod submits a pod to the cluster.
func (c *Client) CreatePod(ctx context.Context, pod *corev1.Pod) error {
	_, err := c.kube.CoreV1().Pods(c.namespace).Create(ctx, pod, metav1.CreateOptions{})
	if err != nil {
		return fmt.Errorf("creating pod %s: %w", pod.Name, err)
	}
	return nil
}

// DeletePod deletes the named pod with the given grace period. Deleting an
// absent pod is a no-op.
func (c *Client) DeletePod(ctx context.Context, name string, gracePeriodSeconds int64) error {
	err := c.kube.CoreV1().Pods(c.namespace).Delete(ctx, name, metav1.DeleteOptions{
		GracePeriodSeconds: &gracePeriodSeconds,
	})
	if apierrors.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("deleting pod %s: %w", name, err)
	}
	return nil
}

// PatchAnnotations applies a merge-style partial update to a pod's
// annotations. A nil value removes the key instead of setting it.
func (c *Client) PatchAnnotations(ctx context.Context, podName string, annotations map[string]*string) error {
	patch, err := json.Marshal(map[string]any{
		"metadata": map[string]any{"annotations": annotations},
	})
	if err != nil {
		return fmt.Errorf("encoding annotation patch: %w", err)
	}
	_, err = c.kube.CoreV1().Pods(c.namespace).Patch(ctx, podName, ktypes.MergePatchType, patch, metav1.PatchOptions{})
	if err != nil {
		return fmt.Errorf("patching annotations on pod %s: %w", podName, err)
	}
	return nil
}
