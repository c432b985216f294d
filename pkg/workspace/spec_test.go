package workspace

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	ktypes "k8s.io/apimachinery/pkg/types"

	"github.com/workbench-dev/workbench/pkg/types"
)

// quantityCmp lets cmp compare resource quantities by value.
var quantityCmp = cmp.Comparer(func(a, b resource.Quantity) bool { return a.Cmp(b) == 0 })

func testSpecConfig() SpecConfig {
	return SpecConfig{
		Name:             "my-project",
		UID:              "ab12cd34",
		Repository:       "https://example.com/team/repo.git",
		Image:            "workbench/base:1.4",
		Owner:            "alex",
		CPURequest:       "500m",
		MemoryRequest:    "1Gi",
		CPULimit:         "2",
		MemoryLimit:      "4Gi",
		ProvisionCommand: "make setup",
		Features:         []string{"docker", "node-20"},
	}
}

// TestBuildPodDeterministic tests that identical inputs produce a
// byte-identical specification; the scheduler depends on this when it
// recreates pods from specs built earlier
func TestBuildPodDeterministic(t *testing.T) {
	cfg := testSpecConfig()

	first, err := BuildPod(cfg)
	require.NoError(t, err)
	second, err := BuildPod(cfg)
	require.NoError(t, err)

	assert.Empty(t, cmp.Diff(first, second, quantityCmp))

	firstRaw, err := json.Marshal(first)
	require.NoError(t, err)
	secondRaw, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, firstRaw, secondRaw)
}

// TestBuildPodShape tests the structure of the built pod
func TestBuildPodShape(t *testing.T) {
	pod, err := BuildPod(testSpecConfig())
	require.NoError(t, err)

	assert.Equal(t, "ws-ab12cd34", pod.Name)
	assert.Equal(t, Labels("my-project", "ab12cd34", types.ComponentWorkspace), pod.Labels)
	assert.Equal(t, "https://example.com/team/repo.git", pod.Annotations[types.AnnotationRepoURL])
	assert.Equal(t, "alex", pod.Annotations[types.AnnotationOwner])

	require.Len(t, pod.Spec.InitContainers, 1)
	clone := pod.Spec.InitContainers[0]
	assert.Contains(t, clone.Command[2], "git clone")
	assert.Contains(t, clone.Command[2], "'https://example.com/team/repo.git'")

	require.Len(t, pod.Spec.Containers, 1)
	main := pod.Spec.Containers[0]
	assert.Equal(t, "workbench/base:1.4", main.Image)
	assert.Equal(t, "500m", main.Resources.Requests.Cpu().String())
	assert.Equal(t, "4Gi", main.Resources.Limits.Memory().String())

	require.Len(t, pod.Spec.Volumes, 1)
	require.NotNil(t, pod.Spec.Volumes[0].PersistentVolumeClaim)
	assert.Equal(t, "pvc-ab12cd34", pod.Spec.Volumes[0].PersistentVolumeClaim.ClaimName)
}

// TestBuildPodRejectsBadRepoURL tests the scheme allow-list
func TestBuildPodRejectsBadRepoURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		ok   bool
	}{
		{name: "https allowed", url: "https://example.com/r.git", ok: true},
		{name: "ssh allowed", url: "ssh://git@example.com/r.git", ok: true},
		{name: "git allowed", url: "git://example.com/r.git", ok: true},
		{name: "file rejected", url: "file:///etc/passwd", ok: false},
		{name: "ftp rejected", url: "ftp://example.com/r", ok: false},
		{name: "schemeless rejected", url: "example.com/r.git", ok: false},
		{name: "empty rejected", url: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testSpecConfig()
			cfg.Repository = tt.url
			_, err := BuildPod(cfg)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

// TestBuildPodEscapesShellValues tests that interpolated values cannot
// break out of their quoting
func TestBuildPodEscapesShellValues(t *testing.T) {
	cfg := testSpecConfig()
	cfg.Features = []string{"x'; rm -rf / #"}
	cfg.ProvisionCommand = "echo 'hi'; touch /pwned"

	pod, err := BuildPod(cfg)
	require.NoError(t, err)

	script := pod.Spec.Containers[0].Command[2]
	assert.Contains(t, script, `'x'\''; rm -rf / #'`)
	assert.Contains(t, script, `'echo '\''hi'\''; touch /pwned'`)
	assert.NotContains(t, script, "install x';")
}

// TestBuildPodRejectsBadQuantities tests resource quantity validation
func TestBuildPodRejectsBadQuantities(t *testing.T) {
	cfg := testSpecConfig()
	cfg.CPULimit = "two cores"
	_, err := BuildPod(cfg)
	assert.Error(t, err)
}

// TestBootScriptFirstBootGuard tests the provisioning marker guard
func TestBootScriptFirstBootGuard(t *testing.T) {
	script := bootScript(testSpecConfig())

	provisionIdx := strings.Index(script, "make setup")
	guardIdx := strings.Index(script, "if [ ! -f /workspace/.workbench/provisioned ]")
	execIdx := strings.Index(script, "exec workbench-server")

	require.GreaterOrEqual(t, guardIdx, 0)
	require.GreaterOrEqual(t, provisionIdx, 0)
	require.GreaterOrEqual(t, execIdx, 0)
	assert.Less(t, guardIdx, provisionIdx, "provisioning must be inside the first-boot guard")
	assert.Less(t, provisionIdx, execIdx, "server exec must come last")
	assert.Contains(t, script, Token("ab12cd34"))
}

// TestToken tests the uid-derived token
func TestToken(t *testing.T) {
	assert.Equal(t, Token("u1"), Token("u1"))
	assert.NotEqual(t, Token("u1"), Token("u2"))
	assert.Len(t, Token("u1"), 64)
}

// TestStripClusterFields tests the fields cleared before resubmitting a
// saved spec
func TestStripClusterFields(t *testing.T) {
	pod, err := BuildPod(testSpecConfig())
	require.NoError(t, err)
	pod.ResourceVersion = "12345"
	pod.UID = ktypes.UID("cluster-assigned")
	pod.CreationTimestamp = metav1.Now()
	pod.Annotations[types.AnnotationLastApplied] = "{}"

	StripClusterFields(pod)

	assert.Empty(t, pod.ResourceVersion)
	assert.Empty(t, string(pod.UID))
	assert.True(t, pod.CreationTimestamp.IsZero())
	assert.NotContains(t, pod.Annotations, types.AnnotationLastApplied)
	// Workspace annotations survive the strip
	assert.Contains(t, pod.Annotations, types.AnnotationRepoURL)
}

// TestSavedSpecRoundTrip tests the saved-spec serialization
func TestSavedSpecRoundTrip(t *testing.T) {
	pod, err := BuildPod(testSpecConfig())
	require.NoError(t, err)

	data, err := SavedSpecData(pod)
	require.NoError(t, err)
	decoded, err := DecodeSavedSpec(data)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(pod, decoded, quantityCmp))

	_, err = DecodeSavedSpec(map[string]string{})
	assert.Error(t, err)
	_, err = DecodeSavedSpec(map[string]string{types.SavedSpecKey: "not json"})
	assert.Error(t, err)
}

// TestBuildService tests the endpoint builder
func TestBuildService(t *testing.T) {
	svc := BuildService(testSpecConfig())
	assert.Equal(t, "svc-ab12cd34", svc.Name)
	assert.Equal(t, corev1.ServiceTypeNodePort, svc.Spec.Type)
	assert.Equal(t, map[string]string{types.LabelWorkspaceUID: "ab12cd34"}, svc.Spec.Selector)
}

// TestBuildPVC tests the storage builder
func TestBuildPVC(t *testing.T) {
	cfg := testSpecConfig()
	pvc, err := BuildPVC(cfg)
	require.NoError(t, err)
	assert.Equal(t, "pvc-ab12cd34", pvc.Name)
	assert.Equal(t, "10Gi", pvc.Spec.Resources.Requests.Storage().String())

	cfg.StorageSize = "50Gi"
	pvc, err = BuildPVC(cfg)
	require.NoError(t, err)
	assert.Equal(t, "50Gi", pvc.Spec.Resources.Requests.Storage().String())

	cfg.StorageSize = "lots"
	_, err = BuildPVC(cfg)
	assert.Error(t, err)
}

// TestBuildCreatingMarker tests the in-progress-creation marker
func TestBuildCreatingMarker(t *testing.T) {
	marker := BuildCreatingMarker("my-project")
	assert.Equal(t, "creating-my-project", marker.Name)
	assert.Equal(t, types.ComponentCreating, marker.Labels[types.LabelComponent])
	assert.Empty(t, marker.Data, "the marker carries nothing but its age")
}

// TestBuildMeta tests that meta is keyed by name, not uid
func TestBuildMeta(t *testing.T) {
	meta := BuildMeta(testSpecConfig())
	assert.Equal(t, "meta-my-project", meta.Name)
	assert.NotContains(t, meta.Labels, types.LabelWorkspaceUID)
	assert.Equal(t, "https://example.com/team/repo.git", meta.Data[types.MetaRepositoryKey])
	assert.Equal(t, "make setup", meta.Data[types.MetaProvisionKey])
}
