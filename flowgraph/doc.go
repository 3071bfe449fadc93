// Package flowgraph models the declarative step topology of a pipeline run.
//
// The flow configuration maps each step name to the ordered list of steps
// that consume its output. New validates the mapping up front: successor
// names must be declared steps, exactly one root (a step never referenced as
// a successor) must exist, and the graph must be acyclic. Cycles are rejected
// at construction because a cyclic flow has no terminating traversal; no step
// is ever dispatched against an invalid graph.
package flowgraph
