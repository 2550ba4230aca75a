/*
Package taproot persists a live, hierarchically-composed state tree whose
shape is not known in advance: it detects when any externally-visible value
in the tree changes, coalesces bursts of changes into a single debounced
durable write, and bootstraps the tree from its previous snapshot on startup
with a safety backup.

The tree is built from the nodes in pkg/tree (cells, branches, lists — or any
type implementing tree.Node). Keeper is the orchestrator: Open loads or
defaults the tree, arms change detection, and from then on every mutation
eventually lands in the configured store.

	root := tree.NewBranch()
	rig := tree.NewBranch()
	rig.Add("freq", tree.NewCell(value.Int(7_100_000)))
	root.Add("rig", rig)

	k, err := taproot.Open(ctx, root, taproot.WithStore(file.New("state.json")))
	if err != nil {
		log.Fatal(err) // refuses to run with unintentionally-reset state
	}
	defer k.Close(ctx)

	k.Set(ctx, "rig.freq", value.Int(14_200_000)) // written after the debounce window

Stores live under pkg/adapters (file, memory, redis, postgres, loam) and all
satisfy ports.SnapshotStore; pkg/persistence/middleware wraps any of them
with encryption or PII masking.
*/
package taproot
