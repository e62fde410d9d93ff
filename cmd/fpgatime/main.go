/*
fpgatime runs static timing passes over a placed FPGA design.

Usage:

	fpgatime budget  --netlist design.json --delays delays.json
	fpgatime analyze --netlist design.json --delays delays.json --path --histogram

budget annotates every connection with its timing deadline for the
target clock period; analyze reports the achieved frequency, the
critical path, and the slack distribution.
*/
package main

import (
	"os"

	"github.com/gatefoundry/fpga-timing/internal/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
