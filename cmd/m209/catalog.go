package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"m209/internal/lugrules"
	"m209/internal/variant"
)

var (
	catalogVersion string
	catalogYAML    bool
)

func init() {
	cmd := newCatalogCmd()
	cmd.Flags().StringVar(&catalogVersion, "version", string(variant.V1942), "Machine version")
	cmd.Flags().BoolVar(&catalogYAML, "yaml", false, "Print as a catalog file usable with --catalog")
	rootCmd.AddCommand(cmd)
}

func newCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List the lug kick counts a version allows",
		Long: `The catalog command lists the sorted per-wheel kick count sequences
allowed by the selected machine version, in catalog order.

Example:
  m209 catalog --version 1944
  m209 catalog --version 1942 --yaml > catalog.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalog(cmd.OutOrStdout())
		},
	}
}

func runCatalog(w io.Writer) error {
	version, err := variant.ParseVersion(catalogVersion)
	if err != nil {
		return err
	}
	c, err := variant.For(version)
	if err != nil {
		return err
	}
	r, err := lugrules.New(c, nil)
	if err != nil {
		return err
	}

	if !c.UseCatalog {
		if catalogYAML {
			return fmt.Errorf("version %s has no catalog", version)
		}
		fmt.Fprintf(w, "# version %s: no catalog, lugs limited to %d-%d overlaps\n",
			version, c.MinOverlap, c.MaxOverlap)
		return nil
	}

	if catalogYAML {
		cat := lugrules.Catalog{GroupA: r.Sequences()}
		data, err := cat.Marshal()
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}

	fmt.Fprintf(w, "# version %s: %d sequences\n", version, r.Len())
	for i, s := range r.Sequences() {
		fmt.Fprintf(w, "%4d  %2d %2d %2d %2d %2d %2d  overlaps=%d\n",
			i, s[0], s[1], s[2], s[3], s[4], s[5], s.Overlaps())
	}
	return nil
}
