package cluster

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// GetConfigMap returns the named configmap, or nil when it does not exist.
func (c *Client) GetConfigMap(ctx context.Context, name string) (*corev1.ConfigMap, error) {
	cm, err := c.kube.CoreV1().ConfigMaps(c.namespace).Get(ctx, name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting configmap %s: %w", name, err)
	}
	return cm, nil
}

// ListConfigMaps returns the configmaps matching the label selector.
func (c *Client) ListConfigMaps(ctx context.Context, selector string) ([]corev1.ConfigMap, error) {
	list, err := c.kube.CoreV1().ConfigMaps(c.namespace).List(ctx, metav1.ListOptions{LabelSelector: selector})
	if err != nil {
		return nil, fmt.Errorf("listing configmaps: %w", err)
	}
	return list.Items, nil
}

// CreateConfigMap submits a configmap to the cluster.
func (c *Client) CreateConfigMap(ctx context.Context, cm *corev1.ConfigMap) error {
	_, err := c.kube.CoreV1().ConfigMaps(c.namespace).Create(ctx, cm, metav1.CreateOptions{})
	if err != nil {
		return fmt.Errorf("creating configmap %s: %w", cm.Name, err)
	}
	return nil
}

// CreateOrReplaceConfigMap writes a configmap, replacing the data and labels
// of an existing one with the same name. The create-then-update fallback
// resolves the expected conflict when the target already exists.
func (c *Client) CreateOrReplaceConfigMap(ctx context.Context, name string, data, labels map[string]string) error {
	cm := &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{Name: name, Labels: labels},
		Data:       data,
	}
	_, err := c.kube.CoreV1().ConfigMaps(c.namespace).Create(ctx, cm, metav1.CreateOptions{})
	if err == nil {
		return nil
	}
	if !apierrors.IsAlreadyExists(err) {
		return fmt.Errorf("creating configmap %s: %w", name, err)
	}

	existing, err := c.kube.CoreV1().ConfigMaps(c.namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return fmt.Errorf("getting configmap %s for replace: %w", name, err)
	}
	existing.Data = data
	existing.Labels = labels
	if _, err := c.kube.CoreV1().ConfigMaps(c.namespace).Update(ctx, existing, metav1.UpdateOptions{}); err != nil {
		return fmt.Errorf("replacing configmap %s: %w", name, err)
	}
	return nil
}

// DeleteConfigMap deletes the named configmap. Deleting an absent configmap
// is a no-op.
func (c *Client) DeleteConfigMap(ctx context.Context, name string) error {
	err := c.kube.CoreV1().ConfigMaps(c.namespace).Delete(ctx, name, metav1.DeleteOptions{})
	if apierrors.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("deleting configmap %s: %w", name, err)
	}
	return nil
}
