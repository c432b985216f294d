/*
Package workspace is the pure resource model: the mapping from one logical
workspace to the several physical cluster objects that represent it, and the
builders that produce those objects' desired state.

Nothing in this package performs I/O. The reconciliation loops and the
dashboard's provisioning flow both call into it, which is what keeps the two
sides' naming, labeling and spec conventions identical.

# Identity and correlation

A workspace has a short opaque uid and a human name. Resource names are
derived mechanically (ws-{uid}, pvc-{uid}, svc-{uid}, saved-{uid},
meta-{name}, creating-{name}) and every resource carries identity labels, so
the full picture of a workspace can be reassembled from a cluster listing:

	pods := ... list with ManagedSelector() ...
	live := workspace.PodUIDs(pods)
	saved := workspace.ConfigMapUIDs(savedSpecs)
	state := workspace.StateFor(uid, live, saved)

State is always recomputed this way, never stored, so it cannot drift from
the resources themselves.

# Spec building

BuildPod assembles the desired pod: an init container that clones the
workspace repository into the shared volume, and a main container that runs
a first-boot-guarded bootstrap (feature installers, the provisioning
command) before exec'ing the workspace server bound to a uid-derived token.

Two safety properties hold by construction:

  - the repository URL must use an allow-listed scheme, checked before any
    shell text is generated;
  - every value interpolated into a script is single-quote shell escaped,
    so repository URLs, feature names and provisioning commands cannot
    inject shell.

Builders are deterministic: identical SpecConfig in, byte-identical object
out. The scheduler depends on this when it recreates pods from saved specs.
*/
package workspace
