package convert_test

import (
	"fmt"

	"github.com/matzehuels/circuitdag/pkg/circuit"
	"github.com/matzehuels/circuitdag/pkg/convert"
)

func ExampleCircuitToDAG() {
	c := circuit.New("bell")
	q := c.MustAddRegister(circuit.KindQubit, "q", 2)
	m := c.MustAddRegister(circuit.KindClbit, "c", 2)
	c.MustAppend(circuit.NewGate("h", 1, 0), q.Bits[:1], nil)
	c.MustAppend(circuit.NewGate("cx", 2, 0), q.Bits, nil)
	c.MustAppend(circuit.Measure(), q.Bits[1:], m.Bits[1:])

	g, err := convert.CircuitToDAG(c, convert.Options{})
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	for _, n := range g.NodesOnWire(q.Bits[1], false) {
		fmt.Println(n.Name())
	}
	fmt.Println("depth:", g.Depth())
	// Output:
	// in
	// cx
	// measure
	// out
	// depth: 3
}
