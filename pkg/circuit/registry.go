package circuit

import (
	"fmt"
	"slices"
)

// Registry declares the ordered set of wires a program may address.
//
// Quantum and classical wires are kept in separate declaration-ordered
// lists; registers are kept in the order they were declared. A Registry never
// touches a graph: it only records identities.
//
// The zero value is not usable - use NewRegistry.
type Registry struct {
	qubits []Bit
	clbits []Bit
	known  map[Bit]struct{}

	qregs []Register
	cregs []Register
	names map[WireKind]map[string]struct{}

	nextStandalone map[WireKind]int
}

// NewRegistry creates an empty wire registry.
func NewRegistry() *Registry {
	return &Registry{
		known: make(map[Bit]struct{}),
		names: map[WireKind]map[string]struct{}{
			KindQubit: {},
			KindClbit: {},
		},
		nextStandalone: make(map[WireKind]int),
	}
}

// DeclareRegister declares a named register of size new wires and returns
// it. The bits are appended to the registry's wire order of that kind.
//
// Returns ErrInvalidRegister for an empty name or negative size, and
// ErrDuplicateWire if a register of the same kind and name already exists
// or any of its bits is already known.
func (r *Registry) DeclareRegister(kind WireKind, name string, size int) (Register, error) {
	if name == "" || size < 0 {
		return Register{}, fmt.Errorf("%w: %q size %d", ErrInvalidRegister, name, size)
	}
	if _, exists := r.names[kind][name]; exists {
		return Register{}, fmt.Errorf("%w: %s register %q", ErrDuplicateWire, kind, name)
	}
	reg := Register{Name: name, Kind: kind, Bits: make([]Bit, size)}
	for i := range size {
		reg.Bits[i] = Bit{Kind: kind, Register: name, Index: i}
	}
	if err := r.AddBits(reg.Bits...); err != nil {
		return Register{}, err
	}
	r.names[kind][name] = struct{}{}
	if kind == KindQubit {
		r.qregs = append(r.qregs, reg)
	} else {
		r.cregs = append(r.cregs, reg)
	}
	return reg, nil
}

// DeclareBit declares a new standalone wire of the given kind.
// Standalone indices are assigned from a per-kind counter, skipping any
// index already taken by a standalone bit added with AddBits.
func (r *Registry) DeclareBit(kind WireKind) Bit {
	for {
		b := Bit{Kind: kind, Index: r.nextStandalone[kind]}
		r.nextStandalone[kind]++
		if _, taken := r.known[b]; !taken {
			r.add(b)
			return b
		}
	}
}

// AddBits adds existing bit identities to the registry. It fails with
// ErrDuplicateWire without adding anything if any bit is already present
// or appears twice in bits.
func (r *Registry) AddBits(bits ...Bit) error {
	seen := make(map[Bit]struct{}, len(bits))
	for _, b := range bits {
		if _, dup := r.known[b]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateWire, b)
		}
		if _, dup := seen[b]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateWire, b)
		}
		seen[b] = struct{}{}
	}
	for _, b := range bits {
		r.add(b)
	}
	return nil
}

func (r *Registry) add(b Bit) {
	r.known[b] = struct{}{}
	if b.Kind == KindQubit {
		r.qubits = append(r.qubits, b)
	} else {
		r.clbits = append(r.clbits, b)
	}
}

// Contains reports whether the bit has been declared.
func (r *Registry) Contains(b Bit) bool {
	_, ok := r.known[b]
	return ok
}

// Qubits returns the quantum wires in declaration order.
func (r *Registry) Qubits() []Bit { return slices.Clone(r.qubits) }

// Clbits returns the classical wires in declaration order.
func (r *Registry) Clbits() []Bit { return slices.Clone(r.clbits) }

// QuantumRegisters returns the quantum registers in declaration order.
func (r *Registry) QuantumRegisters() []Register { return slices.Clone(r.qregs) }

// ClassicalRegisters returns the classical registers in declaration order.
func (r *Registry) ClassicalRegisters() []Register { return slices.Clone(r.cregs) }

// Register looks up a register by kind and name.
func (r *Registry) Register(kind WireKind, name string) (Register, bool) {
	regs := r.qregs
	if kind == KindClbit {
		regs = r.cregs
	}
	for _, reg := range regs {
		if reg.Name == name {
			return reg, true
		}
	}
	return Register{}, false
}

// Clone returns an independent copy of the registry.
func (r *Registry) Clone() *Registry {
	out := NewRegistry()
	out.qubits = slices.Clone(r.qubits)
	out.clbits = slices.Clone(r.clbits)
	for b := range r.known {
		out.known[b] = struct{}{}
	}
	for _, reg := range r.qregs {
		out.qregs = append(out.qregs, cloneRegister(reg))
		out.names[KindQubit][reg.Name] = struct{}{}
	}
	for _, reg := range r.cregs {
		out.cregs = append(out.cregs, cloneRegister(reg))
		out.names[KindClbit][reg.Name] = struct{}{}
	}
	for k, v := range r.nextStandalone {
		out.nextStandalone[k] = v
	}
	return out
}

func cloneRegister(reg Register) Register {
	reg.Bits = slices.Clone(reg.Bits)
	return reg
}
