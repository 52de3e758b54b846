// nlvr-graph turns NLVR scenes into typed entity graphs.
//
// Each scene's boxes and objects become entities linked by a fixed set of
// relations, from which the color and shape formulas a semantic parser
// grounds against are synthesized.
package main

import (
	"fmt"
	"os"

	"github.com/Benny93/nlvr-graph/cmd"
)

func main() {
	cli := cmd.NewCLI()

	if err := cli.Execute(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
