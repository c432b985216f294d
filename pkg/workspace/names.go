package workspace

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/workbench-dev/workbench/pkg/types"
)

const (
	podPrefix      = "ws-"
	pvcPrefix      = "pvc-"
	servicePrefix  = "svc-"
	savedPrefix    = "saved-"
	metaPrefix     = "meta-"
	creatingPrefix = "creating-"
)

// NewUID returns a new short workspace uid. The uid is globally unique and
// immutable for the workspace's lifetime; every physical resource derives its
// name from it.
func NewUID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}

// PodName returns the pod name for a workspace uid.
func PodName(uid string) string { return podPrefix + uid }

// PVCName returns the persistent volume claim name for a workspace uid.
func PVCName(uid string) string { return pvcPrefix + uid }

// ServiceName returns the service name for a workspace uid.
func ServiceName(uid string) string { return servicePrefix + uid }

// SavedSpecName returns the saved-spec configmap name for a workspace uid.
func SavedSpecName(uid string) string { return savedPrefix + uid }

// MetaName returns the meta configmap name for a workspace name.
func MetaName(name string) string { return metaPrefix + name }

// CreatingName returns the creation marker configmap name for a workspace name.
func CreatingName(name string) string { return creatingPrefix + name }

// UIDFromPodName extracts the workspace uid from a pod name following the
// ws-{uid} convention.
func UIDFromPodName(podName string) (string, error) {
	uid := strings.TrimPrefix(podName, podPrefix)
	if uid == podName || uid == "" {
		return "", fmt.Errorf("pod name %q does not follow the ws-{uid} convention", podName)
	}
	return uid, nil
}

// Labels returns the identity labels every workspace resource carries.
func Labels(name, uid, component string) map[string]string {
	return map[string]string{
		types.LabelManagedBy:     types.ManagedByValue,
		types.LabelWorkspaceName: name,
		types.LabelWorkspaceUID:  uid,
		types.LabelComponent:     component,
	}
}

// ManagedSelector selects every resource the system owns.
func ManagedSelector() string {
	return types.LabelManagedBy + "=" + types.ManagedByValue
}

// ComponentSelector selects managed resources playing one role.
func ComponentSelector(component string) string {
	return ManagedSelector() + "," + types.LabelComponent + "=" + component
}
