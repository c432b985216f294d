package cluster

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// ListPVCs returns the persistent volume claims matching the label selector.
func (c *Client) ListPVCs(ctx context.Context, selector string) ([]corev1.PersistentVolumeClaim, error) {
	list, err := c.kube.CoreV1().PersistentVolumeClaims(c.namespace).List(ctx, metav1.ListOptions{LabelSelector: selector})
	if err != nil {
		return nil, fmt.Errorf("listing pvcs: %w", err)
	}
	return list.Items, nil
}

// CreatePVC submits a persistent volume claim to the cluster.
func (c *Client) CreatePVC(ctx context.Context, pvc *corev1.PersistentVolumeClaim) error {
	_, err := c.kube.CoreV1().PersistentVolumeClaims(c.namespace).Create(ctx, pvc, metav1.CreateOptions{})
	if err != nil {
		return fmt.Errorf("creating pvc %s: %w", pvc.Name, err)
	}
	return nil
}

// DeletePVC deletes the named claim. Deleting an absent claim is a no-op.
func (c *Client) DeletePVC(ctx context.Context, name string) error {
	err := c.kube.CoreV1().PersistentVolumeClaims(c.namespace).Delete(ctx, name, metav1.DeleteOptions{})
	if apierrors.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("deleting pvc %s: %w", name, err)
	}
	return nil
}
