// Package dag provides the dependency graph of a quantum program.
//
// # Overview
//
// A [DAGCircuit] exposes the true data-dependency order between the
// operations of a linear program, independent of their textual order. Each
// wire (quantum or classical bit) gets an input terminal and an output
// terminal; edges are labelled by the wire they represent, and for a fixed
// wire they form a single path from input to output terminal through every
// operation touching that wire, in the order the operations were appended.
//
// Two operations are ordered relative to each other iff they share a wire,
// directly or transitively. Any topological order of the graph is therefore
// a valid schedule of the program.
//
// # Building
//
// Wires are added first with [DAGCircuit.AddQubits], [DAGCircuit.AddClbits]
// or the register helpers. Operations are then appended with
// [DAGCircuit.ApplyOperationBack], the single mutation primitive:
//
//	g := dag.New()
//	_ = g.AddQreg(q)
//	_, _ = g.ApplyOperationBack(circuit.NewGate("h", 1, 0), q.Bits[:1], nil)
//	_, _ = g.ApplyOperationBack(circuit.NewGate("cx", 2, 0), q.Bits, nil)
//
// Insertion splices the new node in front of each touched wire's output
// terminal. Edges are only ever added to current output terminals, so the
// graph is acyclic by construction. Nothing is deleted during construction.
//
// Converting a whole [circuit.Circuit] is the job of package convert.
//
// # Errors
//
// Malformed insertions fail before any mutation with [ErrUnknownWire],
// [ErrEmptyWireList] or [ErrDuplicateWireInOperation]. Re-adding a wire
// fails with [ErrDuplicateWire]. Errors are wrapped with context; use
// errors.Is to test for them.
//
// # Concurrency
//
// A DAGCircuit must be owned by a single goroutine while it is being built.
// A completed graph that is no longer mutated may be read concurrently.
package dag
