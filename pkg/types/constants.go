package types

const (
	// ManagedByValue marks every resource the system owns.
	ManagedByValue = "workbench"

	// Labels carried by every workspace resource.

	// LabelManagedBy identifies resources owned by the system.
	LabelManagedBy = "managed-by"

	// LabelWorkspaceName carries the human-facing workspace name.
	LabelWorkspaceName = "workspace-name"

	// LabelWorkspaceUID carries the opaque workspace uid. This is the
	// correlation key between the pod, PVC, service and saved-spec.
	LabelWorkspaceUID = "workspace-uid"

	// LabelComponent distinguishes the resource's role within a workspace
	// (workspace, saved-spec, meta, creating).
	LabelComponent = "component"

	// Component label values.

	ComponentWorkspace = "workspace"
	ComponentSavedSpec = "saved-spec"
	ComponentMeta      = "meta"
	ComponentCreating  = "creating"

	// Pod annotations. Keys are bare names for compatibility with the
	// layout the dashboard reads and writes.

	// AnnotationLastAccessed is an RFC3339 timestamp refreshed by the
	// dashboard on workspace activity. Absent on pods the dashboard has
	// never touched; the pod creation timestamp is the fallback.
	AnnotationLastAccessed = "last-accessed"

	// AnnotationShutdownAt is the dashboard's one-shot shutdown timer.
	AnnotationShutdownAt = "shutdown-at"

	// AnnotationExpiryWarning is set once when a workspace enters its final
	// idle day. Cleared only when last-accessed is refreshed externally.
	AnnotationExpiryWarning = "expiry-warning"

	// AnnotationResizePending marks a resize that requires a pod restart.
	AnnotationResizePending = "resize-pending"

	// AnnotationCreationStuck is an RFC3339 timestamp set when a pod fails
	// to become ready within the creation deadline.
	AnnotationCreationStuck = "creation-stuck"

	// AnnotationCreationStuckReason carries the extracted failure reason.
	AnnotationCreationStuckReason = "creation-stuck-reason"

	// AnnotationRepoURL records the git repository the workspace was
	// created from.
	AnnotationRepoURL = "repo-url"

	// AnnotationOwner records who created the workspace.
	AnnotationOwner = "owner"

	// AnnotationLastApplied is kubectl's bookkeeping annotation; it is
	// stripped when a pod is recreated from a saved spec.
	AnnotationLastApplied = "kubectl.kubernetes.io/last-applied-configuration"

	// Policy configmaps written by the dashboard, read fresh each tick.

	// SchedulesConfigMap holds the start/stop schedule entries.
	SchedulesConfigMap = "workspace-schedules"

	// SchedulesKey is the data key holding the JSON schedule array.
	SchedulesKey = "schedules"

	// SettingsConfigMap holds cluster-wide workspace policy.
	SettingsConfigMap = "workspace-settings"

	// ExpiryDaysKey is the data key holding the idle-expiry threshold in
	// days. "0" (or absence) disables expiry.
	ExpiryDaysKey = "expiry-days"

	// Saved-spec configmap data key holding the pod JSON snapshot.
	SavedSpecKey = "spec"

	// Meta configmap data keys.

	MetaRepositoryKey = "repository"
	MetaImageKey      = "image"
	MetaProvisionKey  = "provision-command"
)
