package io

import (
	"math"
	"testing"

	"github.com/matzehuels/circuitdag/pkg/circuit"
	apperr "github.com/matzehuels/circuitdag/pkg/errors"
)

const teleportQASM = `OPENQASM 2.0;
include "qelib1.inc";

qreg q[3];
creg c0[1];
creg c1[1];

h q[1];
cx q[1], q[2];
cx q[0], q[1];
h q[0];
measure q[0] -> c0[0];
measure q[1] -> c1[0];

if(c1==1) x q[2];
if(c0==1) z q[2]; // correction
`

func TestParseQASMTeleport(t *testing.T) {
	c, err := ParseQASM(teleportQASM)
	if err != nil {
		t.Fatalf("ParseQASM: %v", err)
	}

	if len(c.Qubits()) != 3 || len(c.Clbits()) != 2 {
		t.Fatalf("wires = %d/%d, want 3/2", len(c.Qubits()), len(c.Clbits()))
	}

	want := []string{"h", "cx", "cx", "h", "measure", "measure", "if_else", "if_else"}
	data := c.Data()
	if len(data) != len(want) {
		t.Fatalf("instructions = %d, want %d", len(data), len(want))
	}
	for i, name := range want {
		if got := data[i].Operation.Name(); got != name {
			t.Errorf("instruction %d = %s, want %s", i, got, name)
		}
	}

	cx := data[1]
	if cx.Qubits[0] != circuit.Qubit("q", 1) || cx.Qubits[1] != circuit.Qubit("q", 2) {
		t.Errorf("cx wires = %v", cx.Qubits)
	}

	ifX := data[6]
	if len(ifX.Qubits) != 1 || ifX.Qubits[0] != circuit.Qubit("q", 2) {
		t.Errorf("if qubits = %v", ifX.Qubits)
	}
	if len(ifX.Clbits) != 1 || ifX.Clbits[0] != circuit.Clbit("c1", 0) {
		t.Errorf("if clbits = %v", ifX.Clbits)
	}
	op := ifX.Operation.(*circuit.ControlFlowOp)
	if op.Condition.Register != "c1" || op.Condition.Value != 1 {
		t.Errorf("condition = %v", op.Condition)
	}
	blocks := op.Blocks()
	if len(blocks) != 1 || blocks[0].Len() != 1 || blocks[0].Data()[0].Operation.Name() != "x" {
		t.Fatalf("true body = %v", blocks)
	}
	if op.Params()[1] != nil {
		t.Error("if without else should have a nil false body")
	}
	if !blocks[0].HasBit(circuit.Qubit("q", 2)) || !blocks[0].HasBit(circuit.Clbit("c1", 0)) {
		t.Error("body must declare the wires of its operation")
	}
}

func TestParseQASMParams(t *testing.T) {
	tests := []struct {
		line string
		want []float64
	}{
		{"rz(pi/2) q[0];", []float64{math.Pi / 2}},
		{"rx(-3*pi/4) q[0];", []float64{-3 * math.Pi / 4}},
		{"u3(0.1, 2pi, 1e-3) q[0];", []float64{0.1, 2 * math.Pi, 1e-3}},
		{"p( pi ) q[0];", []float64{math.Pi}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			c, err := ParseQASM("qreg q[1];\n" + tt.line)
			if err != nil {
				t.Fatalf("ParseQASM: %v", err)
			}
			params := c.Data()[0].Operation.Params()
			if len(params) != len(tt.want) {
				t.Fatalf("params = %v, want %v", params, tt.want)
			}
			for i, w := range tt.want {
				if got := params[i].(float64); math.Abs(got-w) > 1e-12 {
					t.Errorf("param %d = %v, want %v", i, got, w)
				}
			}
		})
	}
}

func TestParseQASMBroadcast(t *testing.T) {
	src := `qreg a[2]; qreg b[2]; creg m[2];
h a;
cx a, b;
cx a[0], b;
measure b -> m;
barrier a, b[0];
reset a[1];`

	c, err := ParseQASM(src)
	if err != nil {
		t.Fatalf("ParseQASM: %v", err)
	}

	var names []string
	for _, in := range c.Data() {
		names = append(names, in.Operation.Name())
	}
	want := []string{"h", "h", "cx", "cx", "cx", "cx", "measure", "measure", "barrier", "reset"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("instruction %d = %s, want %s", i, names[i], want[i])
		}
	}

	data := c.Data()
	if data[3].Qubits[0] != circuit.Qubit("a", 1) || data[3].Qubits[1] != circuit.Qubit("b", 1) {
		t.Errorf("second zipped cx = %v", data[3].Qubits)
	}
	if data[5].Qubits[0] != circuit.Qubit("a", 0) || data[5].Qubits[1] != circuit.Qubit("b", 1) {
		t.Errorf("scalar-broadcast cx = %v", data[5].Qubits)
	}
	if data[7].Clbits[0] != circuit.Clbit("m", 1) {
		t.Errorf("measure target = %v", data[7].Clbits)
	}
	if n := data[8].Operation.NumQubits(); n != 3 {
		t.Errorf("barrier width = %d, want 3", n)
	}
}

func TestParseQASMErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"GateDefinition", "qreg q[1];\ngate foo a { h a; }"},
		{"SizeMismatch", "qreg a[2]; qreg b[3];\ncx a, b;"},
		{"UndeclaredRegister", "qreg q[1];\nh r;"},
		{"BadParameter", "qreg q[1];\nrz(theta) q[0];"},
		{"ConditionOnUnknownCreg", "qreg q[1];\nif(c==1) x q[0];"},
		{"MissingArguments", "qreg q[1];\nh;"},
		{"Garbage", "qreg q[1];\n@@@;"},
		{"DuplicateRegister", "qreg q[1]; qreg q[2];"},
		{"IndexOverflow", "qreg q[1];\nx q[99999999999999999999];"},
		{"NestedIf", "qreg q[1]; creg c[1];\nif(c==1) if(c==0) x q[0];"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseQASM(tt.src)
			if err == nil {
				t.Fatal("expected error")
			}
			if !apperr.Is(err, apperr.ErrCodeInvalidProgram) {
				t.Errorf("code = %v, want %v", apperr.GetCode(err), apperr.ErrCodeInvalidProgram)
			}
		})
	}
}

func TestParseQASMUndeclaredIndexLoads(t *testing.T) {
	c, err := ParseQASM("qreg q[1];\nx q[7];")
	if err != nil {
		t.Fatalf("ParseQASM: %v", err)
	}
	if c.HasBit(circuit.Qubit("q", 7)) {
		t.Error("q[7] should not be declared")
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestParseQASMConditionedGateNamedIf(t *testing.T) {
	c, err := ParseQASM("qreg q[1]; creg c[1];\nif(c==1) ifoo q[0];")
	if err != nil {
		t.Fatalf("ParseQASM: %v", err)
	}
	if c.Len() != 1 {
		t.Fatalf("Len = %d, want 1", c.Len())
	}
	op, ok := c.Data()[0].Operation.(*circuit.ControlFlowOp)
	if !ok || op.Name() != circuit.IfElseName {
		t.Fatalf("op = %v, want if_else", c.Data()[0].Operation)
	}
	body := op.Blocks()[0]
	if body.Len() != 1 || body.Data()[0].Operation.Name() != "ifoo" {
		t.Errorf("true body = %v", body.Data())
	}
}

func TestSplitStatementsLines(t *testing.T) {
	got := splitStatements("// header\nqreg q[2];\n\nh q[0]; x q[1];\ncx q[0],\n  q[1];")
	want := []statement{
		{"qreg q[2]", 2},
		{"h q[0]", 4},
		{"x q[1]", 4},
		{"cx q[0], q[1]", 5},
	}
	if len(got) != len(want) {
		t.Fatalf("statements = %v, want %v", got, want)
	}
	for i := range want {
		if got[i].line != want[i].line {
			t.Errorf("statement %d line = %d, want %d", i, got[i].line, want[i].line)
		}
	}
	if got[0].text != "qreg q[2]" || got[2].text != "x q[1]" {
		t.Errorf("texts = %q, %q", got[0].text, got[2].text)
	}
}

func TestParseParamExpr(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1.5", 1.5, true},
		{"pi", math.Pi, true},
		{"-pi/2", -math.Pi / 2, true},
		{"3*pi/4", 3 * math.Pi / 4, true},
		{"2pi", 2 * math.Pi, true},
		{"PI", math.Pi, true},
		{"pi/0", 0, false},
		{"theta", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseParamExpr(tt.in)
		if ok != tt.ok || (ok && math.Abs(got-tt.want) > 1e-12) {
			t.Errorf("parseParamExpr(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
