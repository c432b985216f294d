package workspace

import (
	"encoding/json"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"

	"github.com/workbench-dev/workbench/pkg/types"
)

const (
	serverPort = 8080
	volumeName = "workspace"

	// cloneImage is the init container image used to populate the volume.
	cloneImage = "alpine/git:2.45.2"
)

// SpecConfig is the full input to the spec builders. Identical configs must
// produce byte-identical specifications: the scheduler recreates pods from
// specs built earlier, and any drift would make restarts diverge.
type SpecConfig struct {
	Name       string
	UID        string
	Repository string
	Image      string
	Owner      string

	CPURequest    string
	MemoryRequest string
	CPULimit      string
	MemoryLimit   string
	StorageSize   string

	ProvisionCommand string
	Features         []string
}

// BuildPod produces the desired-state pod for a workspace. The repository
// URL is validated against the scheme allow-list before any script text is
// generated.
func BuildPod(cfg SpecConfig) (*corev1.Pod, error) {
	if err := validateRepoURL(cfg.Repository); err != nil {
		return nil, err
	}
	resources, err := buildResources(cfg)
	if err != nil {
		return nil, err
	}

	mounts := []corev1.VolumeMount{{Name: volumeName, MountPath: workspaceRoot}}

	pod := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:   PodName(cfg.UID),
			Labels: Labels(cfg.Name, cfg.UID, types.ComponentWorkspace),
			Annotations: map[string]string{
				types.AnnotationRepoURL: cfg.Repository,
				types.AnnotationOwner:   cfg.Owner,
			},
		},
		Spec: corev1.PodSpec{
			InitContainers: []corev1.Container{{
				Name:         "clone",
				Image:        cloneImage,
				Command:      []string{"/bin/sh", "-c", cloneScript(cfg.Repository)},
				VolumeMounts: mounts,
			}},
			Containers: []corev1.Container{{
				Name:    "workspace",
				Image:   cfg.Image,
				Command: []string{"/bin/sh", "-c", bootScript(cfg)},
				Ports: []corev1.ContainerPort{{
					Name:          "http",
					ContainerPort: serverPort,
				}},
				Resources:    resources,
				VolumeMounts: mounts,
			}},
			Volumes: []corev1.Volume{{
				Name: volumeName,
				VolumeSource: corev1.VolumeSource{
					PersistentVolumeClaim: &corev1.PersistentVolumeClaimVolumeSource{
						ClaimName: PVCName(cfg.UID),
					},
				},
			}},
		},
	}
	return pod, nil
}

// BuildService produces the stable endpoint for a workspace's server port.
func BuildService(cfg SpecConfig) *corev1.Service {
	return &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{
			Name:   ServiceName(cfg.UID),
			Labels: Labels(cfg.Name, cfg.UID, types.ComponentWorkspace),
		},
		Spec: corev1.ServiceSpec{
			Type: corev1.ServiceTypeNodePort,
			Selector: map[string]string{
				types.LabelWorkspaceUID: cfg.UID,
			},
			Ports: []corev1.ServicePort{{
				Name:       "http",
				Port:       serverPort,
				TargetPort: intstr.FromInt32(serverPort),
			}},
		},
	}
}

// BuildPVC produces the durable volume claim for a workspace.
func BuildPVC(cfg SpecConfig) (*corev1.PersistentVolumeClaim, error) {
	size := cfg.StorageSize
	if size == "" {
		size = "10Gi"
	}
	quantity, err := resource.ParseQuantity(size)
	if err != nil {
		return nil, fmt.Errorf("invalid storage size %q: %w", size, err)
	}
	return &corev1.PersistentVolumeClaim{
		ObjectMeta: metav1.ObjectMeta{
			Name:   PVCName(cfg.UID),
			Labels: Labels(cfg.Name, cfg.UID, types.ComponentWorkspace),
		},
		Spec: corev1.PersistentVolumeClaimSpec{
			AccessModes: []corev1.PersistentVolumeAccessMode{corev1.ReadWriteOnce},
			Resources: corev1.VolumeResourceRequirements{
				Requests: corev1.ResourceList{corev1.ResourceStorage: quantity},
			},
		},
	}, nil
}

// BuildMeta produces the durable metadata configmap. It is keyed and labeled
// by workspace name only: duplication assigns a fresh uid but keeps the meta.
func BuildMeta(cfg SpecConfig) *corev1.ConfigMap {
	return &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Name: MetaName(cfg.Name),
			Labels: map[string]string{
				types.LabelManagedBy:     types.ManagedByValue,
				types.LabelWorkspaceName: cfg.Name,
				types.LabelComponent:     types.ComponentMeta,
			},
		},
		Data: map[string]string{
			types.MetaRepositoryKey: cfg.Repository,
			types.MetaImageKey:      cfg.Image,
			types.MetaProvisionKey:  cfg.ProvisionCommand,
		},
	}
}

// BuildCreatingMarker produces the in-progress-creation marker. Its age (the
// cluster-assigned creation timestamp) is the only signal it carries.
func BuildCreatingMarker(name string) *corev1.ConfigMap {
	return &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Name: CreatingName(name),
			Labels: map[string]string{
				types.LabelManagedBy:     types.ManagedByValue,
				types.LabelWorkspaceName: name,
				types.LabelComponent:     types.ComponentCreating,
			},
		},
	}
}

// SavedSpecData serializes a pod for the saved-spec configmap.
func SavedSpecData(pod *corev1.Pod) (map[string]string, error) {
	raw, err := json.Marshal(pod)
	if err != nil {
		return nil, fmt.Errorf("encoding pod spec: %w", err)
	}
	return map[string]string{types.SavedSpecKey: string(raw)}, nil
}

// DecodeSavedSpec parses a saved-spec configmap's payload back into a pod.
func DecodeSavedSpec(data map[string]string) (*corev1.Pod, error) {
	raw, ok := data[types.SavedSpecKey]
	if !ok || raw == "" {
		return nil, fmt.Errorf("saved spec has no %q key", types.SavedSpecKey)
	}
	var pod corev1.Pod
	if err := json.Unmarshal([]byte(raw), &pod); err != nil {
		return nil, fmt.Errorf("decoding pod spec: %w", err)
	}
	return &pod, nil
}

// StripClusterFields clears the cluster-assigned fields of a pod read back
// from the API so the spec can be resubmitted as a new object.
func StripClusterFields(pod *corev1.Pod) {
	pod.ResourceVersion = ""
	pod.UID = ""
	pod.CreationTimestamp = metav1.Time{}
	delete(pod.Annotations, types.AnnotationLastApplied)
}

func buildResources(cfg SpecConfig) (corev1.ResourceRequirements, error) {
	requirements := corev1.ResourceRequirements{}
	requests, err := resourceList(cfg.CPURequest, cfg.MemoryRequest)
	if err != nil {
		return requirements, err
	}
	limits, err := resourceList(cfg.CPULimit, cfg.MemoryLimit)
	if err != nil {
		return requirements, err
	}
	requirements.Requests = requests
	requirements.Limits = limits
	return requirements, nil
}

func resourceList(cpu, memory string) (corev1.ResourceList, error) {
	if cpu == "" && memory == "" {
		return nil, nil
	}
	list := corev1.ResourceList{}
	if cpu != "" {
		quantity, err := resource.ParseQuantity(cpu)
		if err != nil {
			return nil, fmt.Errorf("invalid cpu quantity %q: %w", cpu, err)
		}
		list[corev1.ResourceCPU] = quantity
	}
	if memory != "" {
		quantity, err := resource.ParseQuantity(memory)
		if err != nil {
			return nil, fmt.Errorf("invalid memory quantity %q: %w", memory, err)
		}
		list[corev1.ResourceMemory] = quantity
	}
	return list, nil
}
