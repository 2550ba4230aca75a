package tree

import (
	"errors"

	"github.com/aretw0/taproot/pkg/ports"
	"github.com/aretw0/taproot/pkg/value"
)

var (
	// ErrReadOnly is returned when Set is called on a read-only cell.
	ErrReadOnly = errors.New("cell is read-only")

	// ErrUnknownKey is returned when a snapshot or path names a child the
	// tree does not have.
	ErrUnknownKey = errors.New("unknown key")

	// ErrLength is returned when a snapshot array does not match a list's
	// item count.
	ErrLength = errors.New("length mismatch")
)

// Node is the capability contract every member of a persistable state tree
// implements. Composite nodes recurse into their children for Serialize and
// Deserialize; Subscribe is strictly per-node.
type Node interface {
	// Serialize produces the node's current snapshot value. Before
	// serializing its own state, every node the walk reaches reports itself
	// to visit (nil visit skips reporting); composite nodes forward visit to
	// their children. That hook is how a caller obtains a handle on every
	// reachable node in a tree whose shape it does not know.
	Serialize(visit func(Node)) (value.Value, error)

	// Deserialize applies a snapshot value to the node, recursing into
	// children. It may fail per field; composite nodes report all failures.
	Deserialize(v value.Value) error

	// Subscribe registers interest in changes to this node's own externally
	// visible value. It does not recurse: each reachable sub-node must be
	// subscribed independently by whoever wants notification of its changes.
	Subscribe(onChange func(), sc SubscribeContext) Subscription
}

// Subscription is one outstanding interest registration on one node.
type Subscription interface {
	// Unsubscribe releases the registration. Calling it again, or on a
	// handle whose node already fired, is a no-op, never an error.
	Unsubscribe()
}

// SubscribeContext carries the capabilities change delivery runs on.
type SubscribeContext struct {
	// Scheduler decouples delivery: notifications are dispatched through
	// Schedule(0, ...) instead of running inside the mutating call. A nil
	// Scheduler makes delivery synchronous, which only tests should rely on.
	Scheduler ports.Scheduler
}

// subscribers tracks the live registrations on one node. Implementations
// embed it to satisfy Subscribe.
type subscribers struct {
	set map[*subscription]struct{}
}

func (ss *subscribers) Subscribe(onChange func(), sc SubscribeContext) Subscription {
	if ss.set == nil {
		ss.set = make(map[*subscription]struct{})
	}
	s := &subscription{owner: ss, fn: onChange, sched: sc.Scheduler}
	ss.set[s] = struct{}{}
	return s
}

// notify delivers a change to every live subscriber. A callback that
// unsubscribes other registrations mid-delivery (the snapshot detector does
// exactly that) suppresses their delivery: entries removed from the map are
// not produced by the range.
func (ss *subscribers) notify() {
	for s := range ss.set {
		s.deliver()
	}
}

type subscription struct {
	owner *subscribers
	fn    func()
	sched ports.Scheduler
}

func (s *subscription) deliver() {
	if s.fn == nil {
		return
	}
	if s.sched == nil {
		s.fn()
		return
	}
	s.sched.Schedule(0, func() {
		// Released between scheduling and delivery: stay silent.
		if s.fn != nil {
			s.fn()
		}
	})
}

func (s *subscription) Unsubscribe() {
	if s.owner != nil {
		delete(s.owner.set, s)
		s.owner = nil
	}
	s.fn = nil
}
