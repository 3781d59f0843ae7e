// Command structurer decodes a serialized program, structures every
// procedure in it, and prints the resulting pseudocode and diagnostics.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/boomslang/structurer/cmd/structurer/internal/app"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "structurer",
		Short: "Structure control-flow graphs into pseudocode",
		Long: "structurer turns a serialized program of basic-block control-flow\n" +
			"graphs into structured, goto-minimized pseudocode.",
	}

	root.PersistentFlags().String("config", "", "path to a YAML config file (indent_unit; label_prefix is read but not applied)")
	root.PersistentFlags().Int("parallel", 0, "maximum procedures to structure concurrently (0 = unbounded)")

	root.AddCommand(app.NewStructureCmd())
	root.AddCommand(app.NewDumpCmd())

	return root
}
