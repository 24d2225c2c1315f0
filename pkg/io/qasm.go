package io

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/circuitdag/pkg/circuit"
	apperr "github.com/matzehuels/circuitdag/pkg/errors"
)

// Pre-compiled regexps for QASM statements.
var (
	headerRegex  = regexp.MustCompile(`^OPENQASM\s+[\d.]+$`)
	includeRegex = regexp.MustCompile(`^include\s+"[^"]*"$`)
	regDeclRegex = regexp.MustCompile(`^(qreg|creg)\s+([A-Za-z_]\w*)\s*\[\s*(\d+)\s*\]$`)
	ifRegex      = regexp.MustCompile(`^if\s*\(\s*([A-Za-z_]\w*)\s*==\s*(\d+)\s*\)\s*(.+)$`)
	measureRegex = regexp.MustCompile(`^measure\s+(.+?)\s*->\s*(.+)$`)
	gateRegex    = regexp.MustCompile(`^([A-Za-z_]\w*)\s*(?:\(([^()]*)\))?\s*(.*)$`)
	argRegex     = regexp.MustCompile(`^([A-Za-z_]\w*)(?:\s*\[\s*(\d+)\s*\])?$`)
)

// statement is one ';'-terminated QASM statement and the line it starts on.
type statement struct {
	text string
	line int
}

// splitStatements strips comments and splits src on ';'. A trailing
// statement without a terminator is kept.
func splitStatements(src string) []statement {
	var (
		out   []statement
		cur   strings.Builder
		start int
	)
	for i, raw := range strings.Split(src, "\n") {
		if idx := strings.Index(raw, "//"); idx >= 0 {
			raw = raw[:idx]
		}
		for _, part := range strings.SplitAfter(raw, ";") {
			if strings.TrimSpace(cur.String()) == "" {
				start = i + 1
			}
			body, done := strings.CutSuffix(part, ";")
			cur.WriteString(body)
			cur.WriteByte(' ')
			if done {
				if text := strings.TrimSpace(cur.String()); text != "" {
					out = append(out, statement{text: text, line: start})
				}
				cur.Reset()
			}
		}
	}
	if text := strings.TrimSpace(cur.String()); text != "" {
		out = append(out, statement{text: text, line: start})
	}
	return out
}

// qasmParser holds the program being built.
type qasmParser struct {
	c *circuit.Circuit
}

// ParseQASM parses an OpenQASM 2 program.
//
// Supported statements: the OPENQASM header, include, qreg, creg, gate
// applications with optional parameter lists (numbers and pi expressions),
// measure, reset, barrier and if(creg==value) prefixes. Arguments may name
// whole registers; gates then broadcast over equally sized registers.
// Gate and opaque definitions are rejected.
func ParseQASM(src string) (*circuit.Circuit, error) {
	p := &qasmParser{c: circuit.New("")}
	for _, st := range splitStatements(src) {
		if err := p.statement(st.text); err != nil {
			return nil, apperr.Wrap(apperr.ErrCodeInvalidProgram, err, "line %d", st.line)
		}
	}
	return p.c, nil
}

func (p *qasmParser) statement(s string) error {
	switch {
	case headerRegex.MatchString(s), includeRegex.MatchString(s):
		return nil
	case strings.HasPrefix(s, "gate ") || strings.HasPrefix(s, "opaque ") || strings.HasPrefix(s, "}"):
		return fmt.Errorf("gate definitions are not supported")
	}

	if m := regDeclRegex.FindStringSubmatch(s); m != nil {
		kind := circuit.KindQubit
		if m[1] == "creg" {
			kind = circuit.KindClbit
		}
		size, err := strconv.Atoi(m[3])
		if err != nil {
			return fmt.Errorf("register %s: %w", m[2], err)
		}
		if err := apperr.ValidateRegisterSize(m[2], size); err != nil {
			return err
		}
		_, err = p.c.AddRegister(kind, m[2], size)
		return err
	}

	if m := ifRegex.FindStringSubmatch(s); m != nil {
		return p.conditioned(m[1], m[2], m[3])
	}

	instrs, err := p.instructions(s)
	if err != nil {
		return err
	}
	for _, in := range instrs {
		if err := p.c.Append(in.Operation, in.Qubits, in.Clbits); err != nil {
			return err
		}
	}
	return nil
}

// conditioned lowers "if(reg==val) stmt" into one if_else per broadcast
// instruction. Each if_else spans the instruction's wires plus every bit of
// the condition register; its true body holds the instruction alone.
func (p *qasmParser) conditioned(reg, val, inner string) error {
	creg, ok := p.c.Register(circuit.KindClbit, reg)
	if !ok {
		return fmt.Errorf("condition on undeclared creg %s", reg)
	}
	value, err := strconv.Atoi(val)
	if err != nil {
		return fmt.Errorf("condition value %q: %w", val, err)
	}
	if ifRegex.MatchString(inner) {
		return fmt.Errorf("nested if is not supported")
	}
	instrs, err := p.instructions(inner)
	if err != nil {
		return err
	}
	for _, in := range instrs {
		clbits := append([]circuit.Bit{}, in.Clbits...)
		for _, b := range creg.Bits {
			if !slices.Contains(clbits, b) {
				clbits = append(clbits, b)
			}
		}
		body := newBody("if_body", in.Qubits, clbits)
		if err := body.Append(in.Operation, in.Qubits, in.Clbits); err != nil {
			return err
		}
		op := circuit.NewIfElse(circuit.Condition{Register: reg, Value: value}, body, nil, len(in.Qubits), len(clbits))
		if err := p.c.Append(op, in.Qubits, clbits); err != nil {
			return err
		}
	}
	return nil
}

// instructions parses a measure, reset, barrier or gate application and
// expands register broadcasting.
func (p *qasmParser) instructions(s string) ([]circuit.Instruction, error) {
	if m := measureRegex.FindStringSubmatch(s); m != nil {
		src, err := p.arg(circuit.KindQubit, m[1])
		if err != nil {
			return nil, err
		}
		dst, err := p.arg(circuit.KindClbit, m[2])
		if err != nil {
			return nil, err
		}
		rows, err := broadcast(src, dst)
		if err != nil {
			return nil, err
		}
		out := make([]circuit.Instruction, len(rows))
		for i, row := range rows {
			out[i] = circuit.Instruction{Operation: circuit.Measure(), Qubits: row[:1], Clbits: row[1:]}
		}
		return out, nil
	}

	m := gateRegex.FindStringSubmatch(s)
	if m == nil {
		return nil, fmt.Errorf("cannot parse %q", s)
	}
	name, paramStr, argStr := m[1], m[2], strings.TrimSpace(m[3])
	if argStr == "" {
		return nil, fmt.Errorf("%s: missing arguments", name)
	}

	var params []any
	if strings.TrimSpace(paramStr) != "" {
		for _, ps := range strings.Split(paramStr, ",") {
			v, ok := parseParamExpr(ps)
			if !ok {
				return nil, fmt.Errorf("%s: bad parameter %q", name, strings.TrimSpace(ps))
			}
			params = append(params, v)
		}
	}

	var args [][]circuit.Bit
	for _, a := range strings.Split(argStr, ",") {
		bits, err := p.arg(circuit.KindQubit, a)
		if err != nil {
			return nil, err
		}
		args = append(args, bits)
	}

	// barrier spans all its arguments at once.
	if name == "barrier" {
		var qubits []circuit.Bit
		for _, a := range args {
			qubits = append(qubits, a...)
		}
		return []circuit.Instruction{{Operation: circuit.Barrier(len(qubits)), Qubits: qubits}}, nil
	}

	rows, err := broadcast(args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	out := make([]circuit.Instruction, len(rows))
	for i, row := range rows {
		var op circuit.Operation
		if name == "reset" && len(params) == 0 {
			op = circuit.Reset()
		} else {
			op = circuit.NewGate(name, len(row), 0, circuit.CloneParams(params)...)
		}
		out[i] = circuit.Instruction{Operation: op, Qubits: row}
	}
	return out, nil
}

// arg resolves "reg[i]" to one bit and "reg" to every bit of a declared
// register. Indexed references are not range-checked here.
func (p *qasmParser) arg(kind circuit.WireKind, s string) ([]circuit.Bit, error) {
	m := argRegex.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return nil, fmt.Errorf("malformed argument %q", strings.TrimSpace(s))
	}
	if m[2] != "" {
		idx, err := strconv.Atoi(m[2])
		if err != nil {
			return nil, fmt.Errorf("index of %s: %w", strings.TrimSpace(s), err)
		}
		return []circuit.Bit{{Kind: kind, Register: m[1], Index: idx}}, nil
	}
	reg, ok := p.c.Register(kind, m[1])
	if !ok {
		return nil, fmt.Errorf("undeclared %s register %s", kind, m[1])
	}
	return reg.Bits, nil
}

// broadcast zips argument lists: single bits repeat, registers must share
// one size. Each row holds one bit per argument.
func broadcast(args ...[]circuit.Bit) ([][]circuit.Bit, error) {
	n := 1
	for _, a := range args {
		if len(a) == 1 {
			continue
		}
		if n != 1 && len(a) != n {
			return nil, fmt.Errorf("register size mismatch (%d vs %d)", n, len(a))
		}
		n = len(a)
	}
	rows := make([][]circuit.Bit, n)
	for i := range rows {
		row := make([]circuit.Bit, len(args))
		for j, a := range args {
			if len(a) == 1 {
				row[j] = a[0]
			} else {
				row[j] = a[i]
			}
		}
		rows[i] = row
	}
	return rows, nil
}
