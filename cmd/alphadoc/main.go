// Command alphadoc is the terminal client for the AlphaDoc document
// intelligence service.
package main

import (
	"fmt"
	"os"
)

func main() {
	a := &app{out: os.Stdout, in: os.Stdin}
	root := newRootCmd(a)

	err := root.Execute()
	a.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, a.describe(err))
		os.Exit(1)
	}
}
