// Package io loads quantum programs into [circuit.Circuit] values.
//
// # Formats
//
// Three source formats are supported:
//
//   - [FormatQASM]: an OpenQASM 2 subset (registers, gates with parameter
//     expressions, measure, reset, barrier, register broadcasting and
//     classically conditioned gates)
//   - [FormatTOML]: a program document decoded with BurntSushi/toml
//   - [FormatJSON]: the same document as JSON
//
// # Program Documents
//
// TOML and JSON share one schema:
//
//	name = "teleport"
//	global_phase = 0.0
//	qubits = 1            # standalone qubits, referenced as "#q0"
//
//	[[qreg]]
//	name = "q"
//	size = 2
//
//	[[creg]]
//	name = "c"
//	size = 1
//
//	[[ops]]
//	name = "h"
//	qubits = ["q[0]"]
//
//	[[ops]]
//	name = "rz"
//	params = ["pi/2"]
//	qubits = ["q[1]"]
//
//	[[ops]]
//	name = "if_else"
//	condition = "c==1"
//	qubits = ["q[1]"]
//	clbits = ["c[0]"]
//	  [[ops.then]]
//	  name = "x"
//	  qubits = ["q[1]"]
//
// Wire references are resolved syntactically: "q[5]" names bit 5 of
// register q whether or not it exists. Undeclared wires are reported by the
// converter, not the loader, so a program that references them still loads.
//
// # Control Flow
//
// if_else takes a condition and "then"/"else" bodies, while_loop a
// condition and a "body", for_loop an "indexset", a "loop_parameter" and a
// "body". Each body is a program over exactly the wires of its operation.
// In QASM, "if(c==1) x q[0];" becomes an if_else whose true body holds the
// single conditioned gate and whose wires are q[0] plus every bit of c.
//
// # Errors
//
// Syntax and schema problems are reported as [errors.ErrCodeInvalidProgram]
// with the offending line or operation index.
//
// [errors.ErrCodeInvalidProgram]: github.com/matzehuels/circuitdag/pkg/errors.ErrCodeInvalidProgram
package io
