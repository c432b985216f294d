package cluster

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	metricsclient "k8s.io/metrics/pkg/client/clientset/versioned"

	"github.com/workbench-dev/workbench/pkg/log"
)

// Client is the typed handle over one namespace of the cluster. Every
// reconciliation loop is injected with a Client; it is the only thing in the
// worker that talks to the API server.
type Client struct {
	kube      kubernetes.Interface
	metrics   metricsclient.Interface
	namespace string
	log       zerolog.Logger
}

// New builds a client from a kubeconfig path. With an empty path the
// in-cluster service account configuration is used.
func New(kubeconfig, namespace string) (*Client, error) {
	config, err := buildConfig(kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("loading cluster config: %w", err)
	}
	kube, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("building clientset: %w", err)
	}
	metrics, err := metricsclient.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("building metrics clientset: %w", err)
	}
	return NewWithClients(kube, metrics, namespace), nil
}

// NewWithClients wires pre-built clientsets. Tests use it with fakes.
func NewWithClients(kube kubernetes.Interface, metrics metricsclient.Interface, namespace string) *Client {
	return &Client{
		kube:      kube,
		metrics:   metrics,
		namespace: namespace,
		log:       log.WithComponent("cluster"),
	}
}

// Namespace returns the namespace the client is scoped to.
func (c *Client) Namespace() string {
	return c.namespace
}

// Ping verifies the API server is reachable from this client.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.kube.CoreV1().Pods(c.namespace).List(ctx, metav1.ListOptions{Limit: 1})
	if err != nil {
		return fmt.Errorf("listing pods: %w", err)
	}
	return nil
}

func buildConfig(kubeconfig string) (*rest.Config, error) {
	if kubeconfig != "" {
		return clientcmd.BuildConfigFromFlags("", kubeconfig)
	}
	return rest.InClusterConfig()
}
