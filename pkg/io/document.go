package io

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/circuitdag/pkg/circuit"
	apperr "github.com/matzehuels/circuitdag/pkg/errors"
)

// Document is the TOML/JSON form of a program.
type Document struct {
	Name         string         `toml:"name" json:"name,omitempty"`
	GlobalPhase  any            `toml:"global_phase" json:"global_phase,omitempty"`
	Duration     *float64       `toml:"duration" json:"duration,omitempty"`
	Unit         string         `toml:"unit" json:"unit,omitempty"`
	Metadata     map[string]any `toml:"metadata" json:"metadata,omitempty"`
	Calibrations map[string]any `toml:"calibrations" json:"calibrations,omitempty"`

	Qregs  []RegisterDoc `toml:"qreg" json:"qreg,omitempty"`
	Cregs  []RegisterDoc `toml:"creg" json:"creg,omitempty"`
	Qubits int           `toml:"qubits" json:"qubits,omitempty"`
	Clbits int           `toml:"clbits" json:"clbits,omitempty"`

	Ops []OpDoc `toml:"ops" json:"ops"`
}

// RegisterDoc declares a register.
type RegisterDoc struct {
	Name string `toml:"name" json:"name"`
	Size int    `toml:"size" json:"size"`
}

// OpDoc is one instruction. Control-flow fields are only read for
// if_else, while_loop and for_loop.
type OpDoc struct {
	Name   string   `toml:"name" json:"name"`
	Qubits []string `toml:"qubits" json:"qubits,omitempty"`
	Clbits []string `toml:"clbits" json:"clbits,omitempty"`
	Params []any    `toml:"params" json:"params,omitempty"`
	Label  string   `toml:"label" json:"label,omitempty"`

	Condition     string  `toml:"condition" json:"condition,omitempty"`
	Then          []OpDoc `toml:"then" json:"then,omitempty"`
	Else          []OpDoc `toml:"else" json:"else,omitempty"`
	Body          []OpDoc `toml:"body" json:"body,omitempty"`
	Indexset      []int   `toml:"indexset" json:"indexset,omitempty"`
	LoopParameter string  `toml:"loop_parameter" json:"loop_parameter,omitempty"`
}

// ReadTOML decodes a TOML program document from r. Unknown keys are
// rejected.
func ReadTOML(r io.Reader) (*circuit.Circuit, error) {
	var doc Document
	md, err := toml.NewDecoder(r).Decode(&doc)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeInvalidProgram, err, "decode toml")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, apperr.New(apperr.ErrCodeInvalidProgram, "unknown keys: %s", strings.Join(keys, ", "))
	}
	return doc.Build()
}

// ReadJSON decodes a JSON program document from r. Unknown fields are
// rejected.
func ReadJSON(r io.Reader) (*circuit.Circuit, error) {
	var doc Document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeInvalidProgram, err, "decode json")
	}
	return doc.Build()
}

// Build turns the document into a program.
func (d *Document) Build() (*circuit.Circuit, error) {
	c := circuit.New(d.Name)
	if d.Name != "" {
		if err := apperr.ValidateIdentifier("program", d.Name); err != nil {
			return nil, err
		}
	}
	if d.GlobalPhase != nil {
		phase, ok := normalizeParam(d.GlobalPhase).(float64)
		if !ok {
			return nil, apperr.New(apperr.ErrCodeInvalidProgram, "global_phase %v is not a number", d.GlobalPhase)
		}
		c.GlobalPhase = phase
	}
	c.Duration = d.Duration
	if d.Unit != "" {
		c.Unit = d.Unit
	}
	if d.Metadata != nil {
		c.Metadata = d.Metadata
	}
	if d.Calibrations != nil {
		c.Calibrations = d.Calibrations
	}

	if err := declareRegisters(c, circuit.KindQubit, d.Qregs); err != nil {
		return nil, err
	}
	if err := declareRegisters(c, circuit.KindClbit, d.Cregs); err != nil {
		return nil, err
	}
	if d.Qubits < 0 || d.Clbits < 0 {
		return nil, apperr.New(apperr.ErrCodeInvalidProgram, "negative standalone bit count")
	}
	for range d.Qubits {
		c.AddBit(circuit.KindQubit)
	}
	for range d.Clbits {
		c.AddBit(circuit.KindClbit)
	}

	if err := appendOps(c, d.Ops, "ops"); err != nil {
		return nil, err
	}
	return c, nil
}

func declareRegisters(c *circuit.Circuit, kind circuit.WireKind, regs []RegisterDoc) error {
	for _, r := range regs {
		if err := apperr.ValidateIdentifier("register", r.Name); err != nil {
			return err
		}
		if err := apperr.ValidateRegisterSize(r.Name, r.Size); err != nil {
			return err
		}
		if _, err := c.AddRegister(kind, r.Name, r.Size); err != nil {
			return apperr.Wrap(apperr.ErrCodeInvalidProgram, err, "declare %s %s", kind, r.Name)
		}
	}
	return nil
}

func appendOps(c *circuit.Circuit, ops []OpDoc, path string) error {
	for i, od := range ops {
		at := fmt.Sprintf("%s[%d]", path, i)
		op, qubits, clbits, err := buildOp(od, at)
		if err != nil {
			return err
		}
		if err := c.Append(op, qubits, clbits); err != nil {
			return apperr.Wrap(apperr.ErrCodeInvalidProgram, err, "%s (%s)", at, od.Name)
		}
	}
	return nil
}

func buildOp(od OpDoc, at string) (circuit.Operation, []circuit.Bit, []circuit.Bit, error) {
	if od.Name == "" {
		return nil, nil, nil, apperr.New(apperr.ErrCodeInvalidProgram, "%s: missing name", at)
	}
	qubits, err := parseBitRefs(circuit.KindQubit, od.Qubits)
	if err != nil {
		return nil, nil, nil, apperr.Wrap(apperr.ErrCodeInvalidProgram, err, "%s (%s)", at, od.Name)
	}
	clbits, err := parseBitRefs(circuit.KindClbit, od.Clbits)
	if err != nil {
		return nil, nil, nil, apperr.Wrap(apperr.ErrCodeInvalidProgram, err, "%s (%s)", at, od.Name)
	}

	if !circuit.IsControlFlowName(od.Name) {
		params := make([]any, len(od.Params))
		for i, p := range od.Params {
			params[i] = normalizeParam(p)
		}
		g := circuit.NewGate(od.Name, len(qubits), len(clbits), params...)
		g.Label = od.Label
		return g, qubits, clbits, nil
	}

	body := func(ops []OpDoc, name string) (*circuit.Circuit, error) {
		b := newBody(od.Name+"_"+name, qubits, clbits)
		if err := appendOps(b, ops, at+"."+name); err != nil {
			return nil, err
		}
		return b, nil
	}

	var op *circuit.ControlFlowOp
	switch od.Name {
	case circuit.IfElseName, circuit.WhileLoopName:
		cond, err := parseCondition(od.Condition)
		if err != nil {
			return nil, nil, nil, apperr.Wrap(apperr.ErrCodeInvalidProgram, err, "%s (%s)", at, od.Name)
		}
		if od.Name == circuit.WhileLoopName {
			b, err := body(od.Body, "body")
			if err != nil {
				return nil, nil, nil, err
			}
			op = circuit.NewWhileLoop(cond, b, len(qubits), len(clbits))
			break
		}
		trueBody, err := body(od.Then, "then")
		if err != nil {
			return nil, nil, nil, err
		}
		var falseBody *circuit.Circuit
		if od.Else != nil {
			if falseBody, err = body(od.Else, "else"); err != nil {
				return nil, nil, nil, err
			}
		}
		op = circuit.NewIfElse(cond, trueBody, falseBody, len(qubits), len(clbits))
	case circuit.ForLoopName:
		b, err := body(od.Body, "body")
		if err != nil {
			return nil, nil, nil, err
		}
		op = circuit.NewForLoop(od.Indexset, od.LoopParameter, b, len(qubits), len(clbits))
	}
	return op, qubits, clbits, nil
}

// newBody creates a program over exactly the given wires. Repeated wires
// are declared once.
func newBody(name string, qubits, clbits []circuit.Bit) *circuit.Circuit {
	b := circuit.New(name)
	for _, w := range append(append([]circuit.Bit{}, qubits...), clbits...) {
		if !b.HasBit(w) {
			_ = b.AddBits(w)
		}
	}
	return b
}

var (
	indexedRefRegex    = regexp.MustCompile(`^([A-Za-z_]\w*)\s*\[\s*(\d+)\s*\]$`)
	standaloneRefRegex = regexp.MustCompile(`^#([qc])(\d+)$`)
	conditionRegex     = regexp.MustCompile(`^([A-Za-z_]\w*)(?:\s*\[\s*(\d+)\s*\])?\s*==\s*(\d+)$`)
)

// parseBitRef parses "reg[i]" or a standalone reference "#q<i>"/"#c<i>".
func parseBitRef(kind circuit.WireKind, ref string) (circuit.Bit, error) {
	ref = strings.TrimSpace(ref)
	if m := indexedRefRegex.FindStringSubmatch(ref); m != nil {
		idx, err := strconv.Atoi(m[2])
		if err != nil {
			return circuit.Bit{}, fmt.Errorf("index of %s: %w", ref, err)
		}
		return circuit.Bit{Kind: kind, Register: m[1], Index: idx}, nil
	}
	if m := standaloneRefRegex.FindStringSubmatch(ref); m != nil {
		want := "q"
		if kind == circuit.KindClbit {
			want = "c"
		}
		if m[1] != want {
			return circuit.Bit{}, fmt.Errorf("%s is not a %s reference", ref, kind)
		}
		idx, err := strconv.Atoi(m[2])
		if err != nil {
			return circuit.Bit{}, fmt.Errorf("index of %s: %w", ref, err)
		}
		return circuit.Bit{Kind: kind, Index: idx}, nil
	}
	return circuit.Bit{}, fmt.Errorf("malformed %s reference %q", kind, ref)
}

func parseBitRefs(kind circuit.WireKind, refs []string) ([]circuit.Bit, error) {
	bits := make([]circuit.Bit, 0, len(refs))
	for _, ref := range refs {
		b, err := parseBitRef(kind, ref)
		if err != nil {
			return nil, err
		}
		bits = append(bits, b)
	}
	return bits, nil
}

// parseCondition parses "c==1" or "c[0]==1".
func parseCondition(s string) (circuit.Condition, error) {
	m := conditionRegex.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return circuit.Condition{}, fmt.Errorf("malformed condition %q", s)
	}
	val, err := strconv.Atoi(m[3])
	if err != nil {
		return circuit.Condition{}, fmt.Errorf("condition value in %q: %w", s, err)
	}
	cond := circuit.Condition{Register: m[1], Value: val}
	if m[2] != "" {
		idx, err := strconv.Atoi(m[2])
		if err != nil {
			return circuit.Condition{}, fmt.Errorf("condition index in %q: %w", s, err)
		}
		b := circuit.Clbit(m[1], idx)
		cond.Bit = &b
	}
	return cond, nil
}
