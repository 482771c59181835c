// bmrtserver serves the BMRT cache of recent benchmark results.
package main

import "github.com/lwz9103/conbench/bmrt/go/bmrtserver/cmd"

func main() {
	cmd.Execute()
}
