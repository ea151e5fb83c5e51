package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"panelforge/internal/ifc"
	"panelforge/internal/manifest"
)

type exportFlags struct {
	manifestPath string
	outPath      string
	hierarchyCSV string
	storey       string
	elevation    float64
}

func newExportCmd() *cobra.Command {
	var flags exportFlags

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Run one export from a manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := runExport(flags)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), res.Report)
			return nil
		},
	}
	addExportFlags(cmd, &flags)
	return cmd
}

func addExportFlags(cmd *cobra.Command, flags *exportFlags) {
	cmd.Flags().StringVarP(&flags.manifestPath, "manifest", "m", "", "export manifest (YAML)")
	cmd.Flags().StringVarP(&flags.outPath, "out", "o", "", "output path (overrides manifest)")
	cmd.Flags().StringVar(&flags.hierarchyCSV, "hierarchy", "", "assembly hierarchy CSV (overrides manifest)")
	cmd.Flags().StringVar(&flags.storey, "storey", "", "storey name (overrides manifest)")
	cmd.Flags().Float64Var(&flags.elevation, "elevation", 0, "storey elevation in mm (overrides manifest)")
	cmd.MarkFlagRequired("manifest")
}

// runExport loads the manifest, resolves meshes relative to the manifest's
// directory and writes the IFC file.
func runExport(flags exportFlags) (*ifc.Result, error) {
	f, err := os.Open(flags.manifestPath)
	if err != nil {
		return nil, err
	}
	m, err := manifest.Load(f)
	f.Close()
	if err != nil {
		return nil, err
	}

	if flags.storey != "" {
		m.Storey = flags.storey
	}
	if m.Storey == "" {
		m.Storey = "Storey"
	}
	if flags.elevation != 0 {
		m.ElevationMM = flags.elevation
	}
	if flags.hierarchyCSV != "" {
		hf, err := os.Open(flags.hierarchyCSV)
		if err != nil {
			return nil, err
		}
		hierarchy, err := manifest.LoadHierarchyCSV(hf)
		hf.Close()
		if err != nil {
			return nil, err
		}
		m.Hierarchy = hierarchy
	}

	baseDir := filepath.Dir(flags.manifestPath)
	batch, err := m.Resolve(os.DirFS(baseDir))
	if err != nil {
		return nil, err
	}

	out := flags.outPath
	if out == "" {
		out = m.Output
	}
	if out == "" {
		out = baseDir
	} else if !filepath.IsAbs(out) && flags.outPath == "" {
		// Manifest-relative output paths resolve next to the manifest.
		out = filepath.Join(baseDir, out)
	}

	exporter := &ifc.Exporter{Storey: m.Storey, Elevation: m.ElevationMM}
	return exporter.Export(batch, out)
}
