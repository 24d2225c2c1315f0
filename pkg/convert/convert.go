package convert

import (
	"fmt"

	"github.com/matzehuels/circuitdag/pkg/circuit"
	"github.com/matzehuels/circuitdag/pkg/dag"
)

// Ownership selects who owns the operation payloads attached to the nodes
// of a converted graph.
type Ownership int

const (
	// CopyOperations gives every node an exclusively owned deep copy of its
	// payload. Later mutation of the source program is not visible in the
	// graph and vice versa. This is the default.
	CopyOperations Ownership = iota

	// ShareOperations attaches the source program's payloads to the nodes
	// directly. Any later mutation of a payload, including the replacement
	// of bodies by converted graphs during recursion, is visible in both the
	// graph and the source. Choose it only when the source program is
	// discarded after conversion and never converted again.
	ShareOperations
)

// String returns "copy" or "share".
func (o Ownership) String() string {
	if o == ShareOperations {
		return "share"
	}
	return "copy"
}

// ParseOwnership parses "copy" or "share".
func ParseOwnership(s string) (Ownership, error) {
	switch s {
	case "", "copy":
		return CopyOperations, nil
	case "share":
		return ShareOperations, nil
	default:
		return 0, fmt.Errorf("unknown ownership policy %q (want copy or share)", s)
	}
}

// Options configures CircuitToDAG. The zero value deep-copies payloads and
// leaves control-flow bodies untouched.
type Options struct {
	Ownership Ownership

	// Recurse converts the bodies of if_else operations into graphs. Other
	// control-flow operations (while_loop, for_loop) keep their bodies as
	// programs, and so does every control-flow operation when Recurse is
	// false.
	Recurse bool
}

// CircuitToDAG builds the dependency graph of c.
//
// Wires are added first in a fixed order: all quantum wires in declaration
// order, then all classical wires, then the quantum and classical registers.
// Instructions are then appended in program order with
// [dag.DAGCircuit.ApplyOperationBack], exactly once each. Finally the scalar
// metadata (name, global phase, calibrations, metadata, duration, unit) is
// copied onto the graph; calibration and metadata maps are shared with c.
//
// Any failure aborts the conversion and is returned wrapped with the index
// of the offending instruction. The partially built graph is not returned.
func CircuitToDAG(c *circuit.Circuit, opts Options) (*dag.DAGCircuit, error) {
	g := dag.New()

	if err := g.AddQubits(c.Qubits()...); err != nil {
		return nil, fmt.Errorf("add qubits: %w", err)
	}
	if err := g.AddClbits(c.Clbits()...); err != nil {
		return nil, fmt.Errorf("add clbits: %w", err)
	}
	for _, reg := range c.QuantumRegisters() {
		if err := g.AddQreg(reg); err != nil {
			return nil, fmt.Errorf("add qreg %s: %w", reg.Name, err)
		}
	}
	for _, reg := range c.ClassicalRegisters() {
		if err := g.AddCreg(reg); err != nil {
			return nil, fmt.Errorf("add creg %s: %w", reg.Name, err)
		}
	}

	for i, in := range c.Data() {
		op := in.Operation
		if opts.Ownership == CopyOperations {
			op = op.Clone()
		}
		if opts.Recurse && needsBodyConversion(op) {
			if err := convertBodies(op, opts); err != nil {
				return nil, fmt.Errorf("instruction %d (%s): %w", i, op.Name(), err)
			}
		}
		if _, err := g.ApplyOperationBack(op, in.Qubits, in.Clbits); err != nil {
			return nil, fmt.Errorf("instruction %d: %w", i, err)
		}
	}

	g.Name = c.Name
	g.GlobalPhase = c.GlobalPhase
	g.Calibrations = c.Calibrations
	g.Metadata = c.Metadata
	g.Duration = c.Duration
	g.Unit = c.Unit
	return g, nil
}

// needsBodyConversion reports whether op is a control-flow operation whose
// bodies are converted. Only if_else qualifies.
func needsBodyConversion(op circuit.Operation) bool {
	name := op.Name()
	return circuit.IsControlFlowName(name) && name == circuit.IfElseName
}

// convertBodies replaces every program parameter of op with its converted
// graph. Nil bodies and non-program parameters are kept as they are.
// Bodies are converted with the same ownership and recursion enabled.
func convertBodies(op circuit.Operation, opts Options) error {
	params := op.Params()
	out := make([]any, len(params))
	for i, p := range params {
		body, ok := p.(*circuit.Circuit)
		if !ok || body == nil {
			out[i] = p
			continue
		}
		sub, err := CircuitToDAG(body, Options{Ownership: opts.Ownership, Recurse: true})
		if err != nil {
			return fmt.Errorf("body %d: %w", i, err)
		}
		out[i] = sub
	}
	op.SetParams(out)
	return nil
}
