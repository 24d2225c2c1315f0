package circuit

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDuplicateWire is returned by [Registry.DeclareRegister] and
	// [Registry.AddBits] when a wire or register identity is already declared.
	ErrDuplicateWire = errors.New("duplicate wire")

	// ErrInvalidRegister is returned when a register name is empty or its
	// size is negative.
	ErrInvalidRegister = errors.New("invalid register")

	// ErrArityMismatch is returned by [Circuit.Append] when the number of
	// qubits or clbits does not match the operation's declared arity.
	ErrArityMismatch = errors.New("operation arity mismatch")
)

// WireKind distinguishes quantum wires from classical wires.
type WireKind int

const (
	// KindQubit is a quantum wire.
	KindQubit WireKind = iota
	// KindClbit is a classical wire.
	KindClbit
)

// String returns "qubit" or "clbit".
func (k WireKind) String() string {
	switch k {
	case KindQubit:
		return "qubit"
	case KindClbit:
		return "clbit"
	default:
		return fmt.Sprintf("WireKind(%d)", int(k))
	}
}

// Bit is the identity of a single wire. Two bits are the same wire iff all
// three fields are equal, so Bit is usable as a map key.
//
// Bits owned by a register carry the register name and their position in it.
// Standalone bits have an empty Register and an index unique among the
// standalone bits of the same kind.
type Bit struct {
	Kind     WireKind
	Register string
	Index    int
}

// Qubit returns the quantum bit at index of the named register.
func Qubit(register string, index int) Bit {
	return Bit{Kind: KindQubit, Register: register, Index: index}
}

// Clbit returns the classical bit at index of the named register.
func Clbit(register string, index int) Bit {
	return Bit{Kind: KindClbit, Register: register, Index: index}
}

// IsStandalone reports whether the bit does not belong to a register.
func (b Bit) IsStandalone() bool { return b.Register == "" }

// String formats the bit as "q[0]" for register bits and "#q0" / "#c0" for
// standalone bits.
func (b Bit) String() string {
	if b.IsStandalone() {
		prefix := "q"
		if b.Kind == KindClbit {
			prefix = "c"
		}
		return fmt.Sprintf("#%s%d", prefix, b.Index)
	}
	return fmt.Sprintf("%s[%d]", b.Register, b.Index)
}

// Register is a named, ordered group of bits of a single kind.
type Register struct {
	Name string
	Kind WireKind
	Bits []Bit
}

// Size returns the number of bits in the register.
func (r Register) Size() int { return len(r.Bits) }

// Bit returns the i-th bit of the register.
func (r Register) Bit(i int) Bit { return r.Bits[i] }

// String formats the register as "qreg q[2]" or "creg c[2]".
func (r Register) String() string {
	kw := "qreg"
	if r.Kind == KindClbit {
		kw = "creg"
	}
	return fmt.Sprintf("%s %s[%d]", kw, r.Name, len(r.Bits))
}

// FormatBits joins bit names with ", ".
func FormatBits(bits []Bit) string {
	parts := make([]string, len(bits))
	for i, b := range bits {
		parts[i] = b.String()
	}
	return strings.Join(parts, ", ")
}
