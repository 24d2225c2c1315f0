package circuit

import (
	"fmt"
	"maps"
	"slices"
)

// Instruction is one entry of a program: an operation and the ordered wires
// it touches.
type Instruction struct {
	Operation Operation
	Qubits    []Bit
	Clbits    []Bit
}

// Wires returns the touched wires, qubits first then clbits.
func (in Instruction) Wires() []Bit {
	wires := make([]Bit, 0, len(in.Qubits)+len(in.Clbits))
	wires = append(wires, in.Qubits...)
	return append(wires, in.Clbits...)
}

// Circuit is a linear, time-ordered program over a declared set of wires,
// plus scalar metadata that carries no structural meaning.
//
// The zero value is not usable - use New.
type Circuit struct {
	Name         string
	GlobalPhase  float64
	Calibrations map[string]any
	Metadata     map[string]any
	Duration     *float64
	Unit         string

	registry *Registry
	data     []Instruction
}

// New creates an empty circuit. Unit defaults to "dt".
func New(name string) *Circuit {
	return &Circuit{
		Name:         name,
		Calibrations: map[string]any{},
		Metadata:     map[string]any{},
		Unit:         "dt",
		registry:     NewRegistry(),
	}
}

// AddRegister declares a register of the given kind and size.
func (c *Circuit) AddRegister(kind WireKind, name string, size int) (Register, error) {
	return c.registry.DeclareRegister(kind, name, size)
}

// MustAddRegister is like AddRegister but panics on error. It is intended
// for tests and static program construction.
func (c *Circuit) MustAddRegister(kind WireKind, name string, size int) Register {
	reg, err := c.AddRegister(kind, name, size)
	if err != nil {
		panic(err)
	}
	return reg
}

// AddBit declares a standalone wire.
func (c *Circuit) AddBit(kind WireKind) Bit { return c.registry.DeclareBit(kind) }

// AddBits adds existing bit identities as standalone wires.
func (c *Circuit) AddBits(bits ...Bit) error { return c.registry.AddBits(bits...) }

// Append adds an instruction at the end of the program.
//
// Append only checks that the wire counts match the operation's declared
// arity. It does not check that the wires are declared: a program naming
// unknown or repeated wires can be built and is rejected at conversion.
func (c *Circuit) Append(op Operation, qubits, clbits []Bit) error {
	if len(qubits) != op.NumQubits() || len(clbits) != op.NumClbits() {
		return fmt.Errorf("%w: %s expects %d qubits and %d clbits, got %d and %d",
			ErrArityMismatch, op.Name(), op.NumQubits(), op.NumClbits(), len(qubits), len(clbits))
	}
	c.data = append(c.data, Instruction{
		Operation: op,
		Qubits:    slices.Clone(qubits),
		Clbits:    slices.Clone(clbits),
	})
	return nil
}

// MustAppend is like Append but panics on error.
func (c *Circuit) MustAppend(op Operation, qubits, clbits []Bit) {
	if err := c.Append(op, qubits, clbits); err != nil {
		panic(err)
	}
}

// Data returns the live instruction list. Mutating the returned elements
// (for example their operations) mutates the circuit.
func (c *Circuit) Data() []Instruction { return c.data }

// Len returns the number of instructions.
func (c *Circuit) Len() int { return len(c.data) }

// Qubits returns the quantum wires in declaration order.
func (c *Circuit) Qubits() []Bit { return c.registry.Qubits() }

// Clbits returns the classical wires in declaration order.
func (c *Circuit) Clbits() []Bit { return c.registry.Clbits() }

// QuantumRegisters returns the quantum registers in declaration order.
func (c *Circuit) QuantumRegisters() []Register { return c.registry.QuantumRegisters() }

// ClassicalRegisters returns the classical registers in declaration order.
func (c *Circuit) ClassicalRegisters() []Register { return c.registry.ClassicalRegisters() }

// Register looks up a declared register.
func (c *Circuit) Register(kind WireKind, name string) (Register, bool) {
	return c.registry.Register(kind, name)
}

// HasBit reports whether the wire is declared in the circuit.
func (c *Circuit) HasBit(b Bit) bool { return c.registry.Contains(b) }

// Clone returns a deep copy: registry, instructions, operations (via
// Operation.Clone) and metadata maps.
func (c *Circuit) Clone() *Circuit {
	out := &Circuit{
		Name:         c.Name,
		GlobalPhase:  c.GlobalPhase,
		Calibrations: maps.Clone(c.Calibrations),
		Metadata:     maps.Clone(c.Metadata),
		Unit:         c.Unit,
		registry:     c.registry.Clone(),
		data:         make([]Instruction, len(c.data)),
	}
	if c.Duration != nil {
		d := *c.Duration
		out.Duration = &d
	}
	for i, in := range c.data {
		out.data[i] = Instruction{
			Operation: in.Operation.Clone(),
			Qubits:    slices.Clone(in.Qubits),
			Clbits:    slices.Clone(in.Clbits),
		}
	}
	return out
}
