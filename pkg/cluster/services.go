package cluster

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// ListServices returns the services matching the label selector.
func (c *Client) ListServices(ctx context.Context, selector string) ([]corev1.Service, error) {
	list, err := c.kube.CoreV1().Services(c.namespace).List(ctx, metav1.ListOptions{LabelSelector: selector})
	if err != nil {
		return nil, fmt.Errorf("listing services: %w", err)
	}
	return list.Items, nil
}

// CreateService submits a service to the cluster.
func (c *Client) CreateService(ctx context.Context, svc *corev1.Service) error {
	_, err := c.kube.CoreV1().Services(c.namespace).Create(ctx, svc, metav1.CreateOptions{})
	if err != nil {
		return fmt.Errorf("creating service %s: %w", svc.Name, err)
	}
	return nil
}

// DeleteService deletes the named service. Deleting an absent service is a
// no-op.
func (c *Client) DeleteService(ctx context.Context, name string) error {
	err := c.kube.CoreV1().Services(c.namespace).Delete(ctx, name, metav1.DeleteOptions{})
	if apierrors.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("deleting service %s: %w", name, err)
	}
	return nil
}
