package snapshot

import (
	"fmt"

	"github.com/aretw0/taproot/pkg/ports"
	"github.com/aretw0/taproot/pkg/tree"
	"github.com/aretw0/taproot/pkg/value"
)

// Detector pulls snapshots from a state tree and, as a side effect of each
// pull, re-establishes a fresh subscription on every node the serialization
// walk reaches. When any one of those subscriptions fires, the detector
// releases them all and invokes its callback once: a burst of mutations
// collapses into a single notification, and nothing can fire again until the
// next Get rearms the tree.
//
// Mutations landing between the release and the next Get are not lost — Get
// reads live state, so the following pull observes them directly.
type Detector struct {
	root     tree.Node
	sched    ports.Scheduler
	onChange func()
	subs     []tree.Subscription
}

// NewDetector binds a detector to root. onChange is delivered through sched,
// on the same loop every other persistence callback runs on.
func NewDetector(root tree.Node, sched ports.Scheduler, onChange func()) *Detector {
	return &Detector{root: root, sched: sched, onChange: onChange}
}

// Get serializes the tree and rearms change detection. Subscriptions held
// from the previous call are released first, whether or not they fired.
//
// Get is not re-entrant: it must not be called from inside the change
// callback, and a second call must not begin before the first returns. The
// owning loop provides that discipline.
func (d *Detector) Get() (value.Value, error) {
	d.clear()

	sc := tree.SubscribeContext{Scheduler: d.sched}
	visit := func(n tree.Node) {
		d.subs = append(d.subs, n.Subscribe(d.changed, sc))
	}

	v, err := d.root.Serialize(visit)
	if err != nil {
		// A half-walked tree must not leave phantom registrations armed.
		d.clear()
		return nil, fmt.Errorf("snapshot: serialize: %w", err)
	}
	return v, nil
}

// Armed reports how many subscriptions are currently held.
func (d *Detector) Armed() int {
	return len(d.subs)
}

// changed is the single handler behind every subscription. Releasing
// everything before the callback makes further fires from the same burst
// impossible, and tolerates handles that already went stale.
func (d *Detector) changed() {
	d.clear()
	if d.onChange != nil {
		d.onChange()
	}
}

func (d *Detector) clear() {
	for _, s := range d.subs {
		s.Unsubscribe()
	}
	d.subs = d.subs[:0]
}
