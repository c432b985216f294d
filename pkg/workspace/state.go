package workspace

import (
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/workbench-dev/workbench/pkg/types"
)

// Identity extracts the workspace name and uid from any labeled resource.
// Either value may be empty if the resource does not carry the label.
func Identity(obj metav1.Object) (name, uid string) {
	labels := obj.GetLabels()
	return labels[types.LabelWorkspaceName], labels[types.LabelWorkspaceUID]
}

// FromPod builds the logical workspace view of a live pod.
func FromPod(pod *corev1.Pod) types.Workspace {
	name, uid := Identity(pod)
	return types.Workspace{
		UID:          uid,
		Name:         name,
		State:        types.WorkspaceRunning,
		Repository:   pod.Annotations[types.AnnotationRepoURL],
		Owner:        pod.Annotations[types.AnnotationOwner],
		LastAccessed: LastAccessed(pod),
	}
}

// LastAccessed returns the pod's last-accessed annotation, falling back to
// the pod creation timestamp when the annotation is absent or malformed.
func LastAccessed(pod *corev1.Pod) time.Time {
	if raw, ok := pod.Annotations[types.AnnotationLastAccessed]; ok {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return t
		}
	}
	return pod.CreationTimestamp.Time
}

// PodUIDs returns the set of workspace uids with a live pod.
func PodUIDs(pods []corev1.Pod) map[string]bool {
	uids := make(map[string]bool, len(pods))
	for i := range pods {
		if _, uid := Identity(&pods[i]); uid != "" {
			uids[uid] = true
		}
	}
	return uids
}

// ConfigMapUIDs returns the set of workspace uids labeled on configmaps.
func ConfigMapUIDs(cms []corev1.ConfigMap) map[string]bool {
	uids := make(map[string]bool, len(cms))
	for i := range cms {
		if _, uid := Identity(&cms[i]); uid != "" {
			uids[uid] = true
		}
	}
	return uids
}

// StateFor computes the workspace state for a uid from the correlation sets.
// A uid referenced by neither a live pod nor a saved spec is orphaned.
func StateFor(uid string, live, saved map[string]bool) types.WorkspaceState {
	switch {
	case live[uid]:
		return types.WorkspaceRunning
	case saved[uid]:
		return types.WorkspaceStopped
	default:
		return types.WorkspaceOrphaned
	}
}

// Ready reports whether a pod is running with at least one ready container.
func Ready(pod *corev1.Pod) bool {
	if pod.Status.Phase != corev1.PodRunning {
		return false
	}
	for _, status := range pod.Status.ContainerStatuses {
		if status.Ready {
			return true
		}
	}
	return false
}
