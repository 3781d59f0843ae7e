package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/boomslang/structurer/diag"
	"github.com/boomslang/structurer/ir/testir"
	"github.com/boomslang/structurer/serialize"
)

// NewDumpCmd builds the "dump" subcommand: decode a serialized program and
// print each procedure's blocks (kind, out- and in-edges, instructions)
// without structuring it, useful for inspecting a program file before
// committing to a structure run.
func NewDumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump <program-file>",
		Short: "Print block and edge info for every procedure in a serialized program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("structurer: %w", err)
			}
			defer f.Close()

			log := &diag.Log{}
			procs, err := serialize.DecodeProgram(f, testir.Codec, log)
			if err != nil {
				return fmt.Errorf("structurer: decoding program: %w", err)
			}

			for _, p := range procs {
				fmt.Printf("procedure %q (entry=%d, %d blocks)\n", p.Name, p.Entry, p.Len())
				for _, b := range p.Blocks() {
					fmt.Printf("  block %d: kind=%s out=%v in=%v\n", b.ID(), b.Kind(), b.OutEdges(), b.InEdges())
					for _, rtl := range b.Instructions() {
						for _, s := range rtl.Stmts {
							fmt.Printf("    %#x: %s\n", rtl.Addr, s.String())
						}
					}
				}
			}

			for _, e := range log.Entries {
				fmt.Fprintf(os.Stderr, "%s\n", e.String())
			}

			return nil
		},
	}

	return cmd
}
