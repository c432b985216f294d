/*
Package cluster wraps the Kubernetes clientsets behind the small typed
surface the reconciliation loops consume: CRUD over pods, persistent volume
claims, services and configmaps in one namespace, plus the events and
resource-usage queries the dashboard's detail views need.

Two translations define the error contract, mirroring how the loops reason
about the cluster:

  - not-found never surfaces from a get or delete. GetPod and GetConfigMap
    return nil for an absent object, and the delete calls silently succeed,
    because absence is a valid state for every resource the worker touches;
  - a create conflict on a configmap is resolved by replacing the existing
    object (CreateOrReplaceConfigMap), because writers race benignly with
    their own earlier writes.

Everything else propagates wrapped, and the caller decides whether the tick
continues. The client imposes no timeouts of its own; cancellation comes in
through the context.
*/
package cluster
