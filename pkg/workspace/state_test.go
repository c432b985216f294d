package workspace

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/workbench-dev/workbench/pkg/types"
)

func testPod(name, uid string, annotations map[string]string) corev1.Pod {
	return corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:        PodName(uid),
			Labels:      Labels(name, uid, types.ComponentWorkspace),
			Annotations: annotations,
		},
	}
}

// TestLastAccessed tests the annotation-with-fallback read
func TestLastAccessed(t *testing.T) {
	created := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	accessed := time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name        string
		annotations map[string]string
		expected    time.Time
	}{
		{
			name:        "annotation present",
			annotations: map[string]string{types.AnnotationLastAccessed: accessed.Format(time.RFC3339)},
			expected:    accessed,
		},
		{
			name:        "annotation absent",
			annotations: nil,
			expected:    created,
		},
		{
			name:        "annotation malformed",
			annotations: map[string]string{types.AnnotationLastAccessed: "yesterday"},
			expected:    created,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pod := testPod("ws", "u1", tt.annotations)
			pod.CreationTimestamp = metav1.NewTime(created)
			assert.True(t, LastAccessed(&pod).Equal(tt.expected))
		})
	}
}

// TestStateFor tests state computation from the correlation sets
func TestStateFor(t *testing.T) {
	live := map[string]bool{"u1": true}
	saved := map[string]bool{"u2": true}

	assert.Equal(t, types.WorkspaceRunning, StateFor("u1", live, saved))
	assert.Equal(t, types.WorkspaceStopped, StateFor("u2", live, saved))
	assert.Equal(t, types.WorkspaceOrphaned, StateFor("u3", live, saved))
}

// TestUIDSets tests uid extraction from resource listings
func TestUIDSets(t *testing.T) {
	pods := []corev1.Pod{
		testPod("a", "u1", nil),
		testPod("b", "u2", nil),
		{ObjectMeta: metav1.ObjectMeta{Name: "unlabeled"}},
	}
	assert.Equal(t, map[string]bool{"u1": true, "u2": true}, PodUIDs(pods))

	cms := []corev1.ConfigMap{
		{ObjectMeta: metav1.ObjectMeta{Name: SavedSpecName("u3"), Labels: Labels("c", "u3", types.ComponentSavedSpec)}},
		{ObjectMeta: metav1.ObjectMeta{Name: "unlabeled"}},
	}
	assert.Equal(t, map[string]bool{"u3": true}, ConfigMapUIDs(cms))
}

// TestReady tests pod readiness evaluation
func TestReady(t *testing.T) {
	tests := []struct {
		name     string
		phase    corev1.PodPhase
		statuses []corev1.ContainerStatus
		expected bool
	}{
		{
			name:     "running with ready container",
			phase:    corev1.PodRunning,
			statuses: []corev1.ContainerStatus{{Ready: true}},
			expected: true,
		},
		{
			name:     "running with no ready container",
			phase:    corev1.PodRunning,
			statuses: []corev1.ContainerStatus{{Ready: false}},
			expected: false,
		},
		{
			name:     "pending with ready status",
			phase:    corev1.PodPending,
			statuses: []corev1.ContainerStatus{{Ready: true}},
			expected: false,
		},
		{
			name:     "running with no statuses",
			phase:    corev1.PodRunning,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pod := testPod("ws", "u1", nil)
			pod.Status = corev1.PodStatus{Phase: tt.phase, ContainerStatuses: tt.statuses}
			assert.Equal(t, tt.expected, Ready(&pod))
		})
	}
}

// TestFromPod tests the logical workspace view of a pod
func TestFromPod(t *testing.T) {
	pod := testPod("my-project", "u1", map[string]string{
		types.AnnotationRepoURL: "https://example.com/repo.git",
		types.AnnotationOwner:   "alex",
	})
	pod.CreationTimestamp = metav1.NewTime(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))

	ws := FromPod(&pod)
	assert.Equal(t, "u1", ws.UID)
	assert.Equal(t, "my-project", ws.Name)
	assert.Equal(t, types.WorkspaceRunning, ws.State)
	assert.Equal(t, "https://example.com/repo.git", ws.Repository)
	assert.Equal(t, "alex", ws.Owner)
	assert.True(t, ws.LastAccessed.Equal(pod.CreationTimestamp.Time))
}
