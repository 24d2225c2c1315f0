// Package graph provides the serialization format for converted programs.
//
// This package defines the canonical wire format of a [dag.DAGCircuit],
// used for CLI output, API responses and cache payloads.
//
// # Architecture
//
// The package sits at the serialization boundary:
//
//   - [Graph], [Node], [Edge]: Serialization types (this package)
//   - pkg/dag.DAGCircuit: Internal graph representation
//
// Use [FromDAG] to convert and [MarshalDAG] or [WriteDAG] to encode.
//
// # Graph Serialization
//
// Graphs use a node-link JSON format with wire-labelled edges:
//
//	{
//	  "name": "bell",
//	  "qubits": ["q[0]", "q[1]"],
//	  "nodes": [
//	    {"id": 0, "kind": "in", "wire": "q[0]"},
//	    {"id": 4, "kind": "op", "name": "h", "qargs": ["q[0]"]}
//	  ],
//	  "edges": [{"from": 0, "to": 4, "wire": "q[0]"}],
//	  "stats": {"size": 2, "depth": 2, "width": 2, "ops": {"cx": 1, "h": 1}}
//	}
//
// Nodes appear in ID order and edges in creation order, so converting the
// same program twice yields byte-identical output. Converted control-flow
// bodies are exported as nested graphs; bodies that were not converted are
// exported as [Program] listings.
//
// # Concurrency
//
// All functions are safe for concurrent use on a graph that is no longer
// being mutated.
package graph
