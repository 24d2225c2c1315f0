// Package circuit models the linear programs that are converted into
// dependency graphs.
//
// # Wires
//
// A wire is identified by a [Bit]: its kind (quantum or classical), the
// register it belongs to and its index. Bits are plain comparable values, so
// the same identity can be used by a program, its sub-programs and the graph
// built from it.
//
// A [Registry] declares wires, either as named registers
// ([Registry.DeclareRegister]) or as standalone bits ([Registry.DeclareBit]),
// and rejects re-declaration with [ErrDuplicateWire].
//
// # Operations
//
// Instructions carry an [Operation] payload. The graph only relies on the
// payload's name, arity, mutable parameter list and deep [Operation.Clone].
// [Gate] covers ordinary operations; [ControlFlowOp] covers the structured
// control-flow constructs (if_else, while_loop, for_loop) whose parameters
// hold sub-programs.
//
// # Programs
//
// A [Circuit] is the ordered instruction list plus its registry and scalar
// metadata (name, global phase, calibrations, metadata, duration, unit):
//
//	c := circuit.New("bell")
//	q := c.MustAddRegister(circuit.KindQubit, "q", 2)
//	c.MustAppend(circuit.NewGate("h", 1, 0), q.Bits[:1], nil)
//	c.MustAppend(circuit.NewGate("cx", 2, 0), q.Bits, nil)
package circuit
