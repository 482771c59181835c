// Package cmd holds the bmrtserver sub-commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bmrtserver",
	Short: "Cache of recent benchmark results with baseline and regression analysis.",
	Long: `Cache of recent benchmark results with baseline and regression analysis.

The different parts are run as sub-commands, for example to run the
server against a database:

	bmrtserver run --config=instance.json5

or to try it out on generated data with no database at all:

	bmrtserver demo
`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	initSubCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func initSubCommands() {
	runInit()
	snapshotInit()
	demoInit()
}
