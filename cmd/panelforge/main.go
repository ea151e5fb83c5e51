// panelforge is the one-shot CLI for unit-grouped IFC export: it reads a
// YAML manifest, loads the referenced meshes from disk and writes one IFC4
// file. The watch command re-runs the export whenever an input changes.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "panelforge",
		Short:         "Export unit-grouped mesh geometry to IFC",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newExportCmd())
	root.AddCommand(newWatchCmd())

	if err := root.Execute(); err != nil {
		os.Stderr.WriteString("panelforge: " + err.Error() + "\n")
		os.Exit(1)
	}
}
