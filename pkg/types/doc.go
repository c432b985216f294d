/*
Package types defines the shared workspace model and the resource layout
conventions.

A workspace is not stored anywhere as a single object. It is the union of up
to five cluster resources named after its uid and name:

	ws-{uid}        the pod, present only while the workspace runs
	pvc-{uid}       durable storage, survives stop/start
	svc-{uid}       the stable network endpoint
	saved-{uid}     configmap snapshot of the last pod spec, present only
	                while the workspace is stopped
	meta-{name}     configmap with durable creation metadata

plus an ephemeral creating-{name} marker while provisioning is in flight.
Every resource carries the managed-by, workspace-name and workspace-uid
labels; the component label says which role it plays. The label and
annotation keys in this package are the interoperability contract with the
dashboard and must not change.
*/
package types
