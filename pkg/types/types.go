package types

import "time"

// WorkspaceState is the computed lifecycle state of a workspace.
//
// The state is never stored anywhere; it is recomputed on demand from the
// set of cluster resources that carry the workspace's identity.
type WorkspaceState string

const (
	// WorkspaceRunning means a live pod exists for the workspace
	WorkspaceRunning WorkspaceState = "running"
	// WorkspaceStopped means no pod exists but a saved-spec configmap does
	WorkspaceStopped WorkspaceState = "stopped"
	// WorkspaceCreating means a creation marker configmap exists
	WorkspaceCreating WorkspaceState = "creating"
	// WorkspaceOrphaned means a resource carries the identity but neither a
	// pod nor a saved-spec references it
	WorkspaceOrphaned WorkspaceState = "orphaned"
)

// Workspace is the logical dev-environment entity. It is represented, never
// stored: the fields are extracted from the cluster resources that make it up.
type Workspace struct {
	UID          string
	Name         string
	State        WorkspaceState
	Repository   string
	Owner        string
	LastAccessed time.Time
}

// ScheduleAction is a scheduled start or stop of a workspace pod.
type ScheduleAction string

const (
	ScheduleStart ScheduleAction = "start"
	ScheduleStop  ScheduleAction = "stop"
)

// Schedule is one start/stop entry as stored by the dashboard. Days holds
// three-letter weekday abbreviations ("Mon".."Sun"); Hour and Minute are UTC.
type Schedule struct {
	Workspace string         `json:"workspace"`
	PodName   string         `json:"pod_name"`
	Action    ScheduleAction `json:"action"`
	Days      []string       `json:"days"`
	Hour      int            `json:"hour"`
	Minute    int            `json:"minute"`
}

// Valid reports whether the entry could ever fire.
func (s Schedule) Valid() bool {
	if s.Workspace == "" || s.PodName == "" || len(s.Days) == 0 {
		return false
	}
	if s.Action != ScheduleStart && s.Action != ScheduleStop {
		return false
	}
	return s.Hour >= 0 && s.Hour <= 23 && s.Minute >= 0 && s.Minute <= 59
}

// Meta is the durable per-workspace metadata stored in the meta configmap.
// It is keyed by workspace name, not uid, so it survives uid churn from
// duplication.
type Meta struct {
	Repository       string
	Image            string
	ProvisionCommand string
}
