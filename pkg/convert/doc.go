// Package convert turns a linear program into its dependency graph.
//
// [CircuitToDAG] declares every wire of the program on a fresh
// [dag.DAGCircuit], appends each instruction in program order and copies
// the program's scalar metadata onto the result:
//
//	g, err := convert.CircuitToDAG(c, convert.Options{Recurse: true})
//
// # Ownership
//
// [CopyOperations] (the default) deep-copies every payload. [ShareOperations]
// aliases the source payloads and is only safe when the source program is
// thrown away after conversion.
//
// # Control flow
//
// With Options.Recurse set, the bodies of if_else operations are converted
// recursively and substituted into the operation's parameters. Other
// control-flow operations keep their bodies as programs. With recursion
// disabled every control-flow operation is inserted unchanged; this is not
// an error.
package convert
