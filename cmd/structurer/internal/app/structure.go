package app

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/boomslang/structurer/diag"
	"github.com/boomslang/structurer/emit"
	"github.com/boomslang/structurer/ir/testir"
	"github.com/boomslang/structurer/serialize"
	"github.com/boomslang/structurer/structure"
)

// NewStructureCmd builds the "structure" subcommand: decode a serialized
// program, structure every procedure, print pseudocode and diagnostics.
func NewStructureCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "structure <program-file>",
		Short: "Structure every procedure in a serialized program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			parallel, _ := cmd.Flags().GetInt("parallel")
			cfg, err := loadConfig(cfgPath)
			if err != nil {
				return fmt.Errorf("structurer: loading config: %w", err)
			}

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

			prog := structure.NewProgram(args[0])
			for _, p := range procs {
				prog.AddProc(p)
			}

			bar := progressbar.Default(int64(len(prog.Procs)), "structuring")
			results := prog.StructureAll(parallel, func() emit.HLLCode {
				return emit.NewPlainText(cfg.IndentUnit)
			})

			out := os.Stdout
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("structurer: %w", err)
				}
				defer f.Close()
				out = f
			}

			for _, r := range results {
				bar.Add(1)
				if r.Err != nil {
					fmt.Fprintf(out, "// %s: structuring failed: %v\n", r.Proc.Name, r.Err)
					continue
				}
				if text, ok := pseudocode(r); ok {
					fmt.Fprintln(out, text)
				}
				for _, e := range r.Log.Entries {
					fmt.Fprintf(out, "// %s\n", e.String())
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "output", "o", "", "write pseudocode to this file instead of stdout")

	return cmd
}

// pseudocode extracts the accumulated text from a procedure's HLLCode sink,
// when that sink is the CLI's own PlainText writer.
func pseudocode(r structure.Result) (string, bool) {
	pt, ok := r.HLL.(*emit.PlainText)
	if !ok {
		return "", false
	}
	return pt.String(), true
}
