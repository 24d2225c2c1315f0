// Package pkg provides the libraries behind circuitdag.
//
// # Overview
//
// circuitdag turns a quantum program, a linear list of instructions over
// qubits and classical bits, into its dependency graph. The pkg directory
// is organized as follows:
//
//  1. [circuit] - Wires, registers, operation payloads and programs
//  2. [dag] - The dependency graph and its insertion engine
//  3. [convert] - Program to graph conversion
//  4. [io] - OpenQASM 2, TOML and JSON program loaders
//  5. [graph] - JSON and text export of converted graphs
//  6. [pipeline] - Orchestration (load → convert → export) with caching
//  7. [cache], [observability], [errors], [buildinfo] - Supporting infrastructure
//
// # Architecture
//
// The typical data flow:
//
//	OpenQASM / TOML / JSON source
//	         ↓
//	    [io] package (decode into a circuit.Circuit)
//	         ↓
//	    [convert] package (one graph node per instruction)
//	         ↓
//	    [graph] package (export)
//	         ↓
//	    JSON graph or text schedule
//
// # Quick Start
//
//	c, _, err := io.Load("teleport.qasm", "")
//	if err != nil {
//	    return err
//	}
//	g, err := convert.CircuitToDAG(c, convert.Options{Recurse: true})
//	if err != nil {
//	    return err
//	}
//	return graph.WriteDAG(g, os.Stdout)
package pkg
