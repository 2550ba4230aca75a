// Package value defines the snapshot wire representation: a closed,
// JSON-compatible sum type used everywhere a piece of tree state crosses a
// boundary (serialization, stores, transports).
//
// Values are plain data. They carry no identity and cannot form cycles; every
// pull from the tree produces a fresh Value. Number is backed by its decimal
// text so that large integers survive a round trip without float64 truncation.
package value
