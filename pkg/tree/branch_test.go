package tree

import (
	"errors"
	"testing"

	"github.com/aretw0/taproot/pkg/value"
)

func buildRig(t *testing.T) (*Branch, *Cell, *Cell) {
	t.Helper()

	freq := NewCell(value.Int(7100000))
	gain := NewCell(value.Float(10))
	rig := NewBranch()
	if err := rig.Add("freq", freq); err != nil {
		t.Fatal(err)
	}
	if err := rig.Add("gain", gain); err != nil {
		t.Fatal(err)
	}
	return rig, freq, gain
}

func TestBranchSerialize(t *testing.T) {
	rig, _, _ := buildRig(t)

	var visited []Node
	v, err := rig.Serialize(func(n Node) { visited = append(visited, n) })
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}

	want := value.Object{"freq": value.Int(7100000), "gain": value.Float(10)}
	if !value.Equal(v, want) {
		t.Errorf("Serialize() = %v, want %v", v, want)
	}
	// Branch itself plus both cells.
	if len(visited) != 3 {
		t.Errorf("visited %d nodes, want 3", len(visited))
	}
}

func TestBranchDeserializePartial(t *testing.T) {
	rig, freq, gain := buildRig(t)

	err := rig.Deserialize(value.Object{"freq": value.Int(14200000)})
	if err != nil {
		t.Fatalf("Deserialize() error = %v", err)
	}
	if !value.Equal(freq.Get(), value.Int(14200000)) {
		t.Errorf("freq = %v", freq.Get())
	}
	if !value.Equal(gain.Get(), value.Float(10)) {
		t.Errorf("gain should be untouched, got %v", gain.Get())
	}
}

func TestBranchDeserializeUnknownKey(t *testing.T) {
	rig, _, _ := buildRig(t)

	err := rig.Deserialize(value.Object{"bogus": value.Int(1)})
	if !errors.Is(err, ErrUnknownKey) {
		t.Errorf("Deserialize() error = %v, want ErrUnknownKey", err)
	}
}

func TestBranchDeserializeAggregatesFailures(t *testing.T) {
	rig, freq, _ := buildRig(t)

	err := rig.Deserialize(value.Object{
		"freq":  value.Int(14000000),
		"extra": value.Int(1),
		"other": value.Int(2),
	})
	if err == nil {
		t.Fatal("Deserialize() expected error")
	}
	// The valid field must still land even when siblings fail.
	if !value.Equal(freq.Get(), value.Int(14000000)) {
		t.Errorf("freq = %v, want applied despite sibling failures", freq.Get())
	}
}

func TestBranchDeserializeWrongShape(t *testing.T) {
	rig, _, _ := buildRig(t)

	if err := rig.Deserialize(value.Array{}); err == nil {
		t.Error("Deserialize(array) should fail on a branch")
	}
}

func TestBranchShapeChangesNotify(t *testing.T) {
	rig, _, _ := buildRig(t)

	fired := 0
	rig.Subscribe(func() { fired++ }, syncCtx)

	if err := rig.Add("mode", NewCell(value.String("usb"))); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	rig.Remove("mode")
	rig.Remove("mode") // absent: silent, no extra notify

	if fired != 2 {
		t.Errorf("fired = %d, want 2 (one add, one remove)", fired)
	}

	if err := rig.Add("freq", NewCell(value.Int(0))); err == nil {
		t.Error("Add() over an existing name should fail")
	}
}

func TestListRoundTrip(t *testing.T) {
	a := NewCell(value.Int(1))
	b := NewCell(value.Int(2))
	l := NewList(a, b)

	v, err := l.Serialize(nil)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	if !value.Equal(v, value.Array{value.Int(1), value.Int(2)}) {
		t.Errorf("Serialize() = %v", v)
	}

	if err := l.Deserialize(value.Array{value.Int(10), value.Int(20)}); err != nil {
		t.Fatalf("Deserialize() error = %v", err)
	}
	if !value.Equal(a.Get(), value.Int(10)) || !value.Equal(b.Get(), value.Int(20)) {
		t.Errorf("items = %v, %v", a.Get(), b.Get())
	}
}

func TestListLengthMismatch(t *testing.T) {
	l := NewList(NewCell(value.Int(1)))

	err := l.Deserialize(value.Array{value.Int(1), value.Int(2)})
	if !errors.Is(err, ErrLength) {
		t.Errorf("Deserialize() error = %v, want ErrLength", err)
	}
}

func TestListAppendNotifies(t *testing.T) {
	l := NewList()

	fired := 0
	l.Subscribe(func() { fired++ }, syncCtx)

	l.Append(NewCell(value.Int(1)))
	if fired != 1 || l.Len() != 1 {
		t.Errorf("fired=%d len=%d", fired, l.Len())
	}
}
