package creation

import (
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/workbench-dev/workbench/pkg/cluster"
	"github.com/workbench-dev/workbench/pkg/log"
	"github.com/workbench-dev/workbench/pkg/types"
	"github.com/workbench-dev/workbench/pkg/workspace"
)

const testNamespace = "workspaces"

var testNow = time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

func TestMain(m *testing.M) {
	log.Init(log.Config{Level: log.ErrorLevel, JSONOutput: true, Output: io.Discard})
	os.Exit(m.Run())
}

func newTestMonitor(objs ...runtime.Object) (*Monitor, *cluster.Client, *fake.Clientset) {
	kube := fake.NewSimpleClientset(objs...)
	c := cluster.NewWithClients(kube, nil, testNamespace)
	m := New(c, time.Second)
	m.now = func() time.Time { return testNow }
	return m, c, kube
}

func unreadyPod(uid string, age time.Duration) *corev1.Pod {
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:              workspace.PodName(uid),
			Namespace:         testNamespace,
			Labels:            workspace.Labels("ws-"+uid, uid, types.ComponentWorkspace),
			CreationTimestamp: metav1.NewTime(testNow.Add(-age)),
		},
		Status: corev1.PodStatus{Phase: corev1.PodPending},
	}
}

// TestTickFlagsStuckPod tests that an old unready pod gets both annotations
// in one patch
func TestTickFlagsStuckPod(t *testing.T) {
	pod := unreadyPod("u1", 15*time.Minute)
	pod.Status.ContainerStatuses = []corev1.ContainerStatus{{
		State: corev1.ContainerState{Waiting: &corev1.ContainerStateWaiting{Reason: "ImagePullBackOff"}},
	}}

	m, c, kube := newTestMonitor(pod)
	require.NoError(t, m.Tick(context.Background()))

	flagged, err := c.GetPod(context.Background(), pod.Name)
	require.NoError(t, err)
	require.NotNil(t, flagged)
	assert.Equal(t, testNow.UTC().Format(time.RFC3339), flagged.Annotations[types.AnnotationCreationStuck])
	assert.Equal(t, "ImagePullBackOff", flagged.Annotations[types.AnnotationCreationStuckReason])

	patches := 0
	for _, action := range kube.Actions() {
		if action.Matches("patch", "pods") {
			patches++
		}
	}
	assert.Equal(t, 1, patches, "both annotations land in a single patch")
}

// TestTickSkips tests the pods the monitor must leave alone
func TestTickSkips(t *testing.T) {
	ready := unreadyPod("u1", 15*time.Minute)
	ready.Status = corev1.PodStatus{
		Phase:             corev1.PodRunning,
		ContainerStatuses: []corev1.ContainerStatus{{Ready: true}},
	}

	young := unreadyPod("u2", 5*time.Minute)

	flagged := unreadyPod("u3", 30*time.Minute)
	flagged.Annotations = map[string]string{
		types.AnnotationCreationStuck: testNow.Add(-10 * time.Minute).Format(time.RFC3339),
	}

	atBoundary := unreadyPod("u4", stuckAfter)

	m, _, kube := newTestMonitor(ready, young, flagged, atBoundary)
	require.NoError(t, m.Tick(context.Background()))

	for _, action := range kube.Actions() {
		assert.False(t, action.Matches("patch", "pods"))
	}
}

// TestStuckReason tests reason extraction precedence
func TestStuckReason(t *testing.T) {
	tests := []struct {
		name     string
		status   corev1.PodStatus
		expected string
	}{
		{
			name: "main container waiting reason wins",
			status: corev1.PodStatus{
				Phase: corev1.PodPending,
				ContainerStatuses: []corev1.ContainerStatus{{
					State: corev1.ContainerState{Waiting: &corev1.ContainerStateWaiting{Reason: "CrashLoopBackOff"}},
				}},
				InitContainerStatuses: []corev1.ContainerStatus{{
					State: corev1.ContainerState{Waiting: &corev1.ContainerStateWaiting{Reason: "ImagePullBackOff"}},
				}},
			},
			expected: "CrashLoopBackOff",
		},
		{
			name: "main container terminated reason",
			status: corev1.PodStatus{
				Phase: corev1.PodPending,
				ContainerStatuses: []corev1.ContainerStatus{{
					State: corev1.ContainerState{Terminated: &corev1.ContainerStateTerminated{Reason: "OOMKilled"}},
				}},
			},
			expected: "OOMKilled",
		},
		{
			name: "init container reason is prefixed",
			status: corev1.PodStatus{
				Phase: corev1.PodPending,
				InitContainerStatuses: []corev1.ContainerStatus{{
					State: corev1.ContainerState{Waiting: &corev1.ContainerStateWaiting{Reason: "ErrImagePull"}},
				}},
			},
			expected: "init:ErrImagePull",
		},
		{
			name: "failing condition reason",
			status: corev1.PodStatus{
				Phase: corev1.PodPending,
				Conditions: []corev1.PodCondition{
					{Type: corev1.PodReady, Status: corev1.ConditionTrue},
					{Type: corev1.PodScheduled, Status: corev1.ConditionFalse, Reason: "Unschedulable"},
				},
			},
			expected: "Unschedulable",
		},
		{
			name:     "bare phase as last resort",
			status:   corev1.PodStatus{Phase: corev1.PodPending},
			expected: "Pending",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pod := unreadyPod("u1", 15*time.Minute)
			pod.Status = tt.status
			assert.Equal(t, tt.expected, stuckReason(pod))
		})
	}
}
