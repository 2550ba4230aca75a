/*
Package tree defines the capability contract for persistable state trees and
a set of ready-made node implementations.

A state tree is any object graph implementing Node. The persistence core never
learns concrete shapes: it serializes, deserializes and subscribes through the
interface alone, so domain objects of unknown, dynamically-composed shape can
participate as long as they honor the contract. Cell, Branch and List cover
the common shapes; custom nodes implement Node directly.

# Concurrency

Nodes are confined to their owning reactor loop. None of the built-in nodes
lock; every method must be called from that single logical thread. Change
notifications are decoupled through the Scheduler supplied at Subscribe time,
so a mutation deep inside a Set call never runs foreign callbacks inline.
*/
package tree
