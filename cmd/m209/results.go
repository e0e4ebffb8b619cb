package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"m209/internal/results"
)

var (
	resultsStore string
	resultsRun   string
)

func init() {
	cmd := newResultsCmd()
	cmd.Flags().StringVar(&resultsStore, "store", "", "Result store directory")
	cmd.Flags().StringVar(&resultsRun, "run", "", "Run id (default: list runs)")
	_ = cmd.MarkFlagRequired("store")
	rootCmd.AddCommand(cmd)
}

func newResultsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "results",
		Short: "Show results saved by earlier attacks",
		Long: `The results command lists the runs held in a result store, or the
results saved by one run in the order they were accepted.

Example:
  m209 results --store runs/
  m209 results --store runs/ --run 0b6f...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResults(cmd.OutOrStdout())
		},
	}
}

func runResults(w io.Writer) error {
	store, err := results.OpenStore(results.StoreConfig{Path: resultsStore})
	if err != nil {
		return err
	}
	defer store.Close()

	if resultsRun == "" {
		runs, err := store.Runs()
		if err != nil {
			return err
		}
		for _, id := range runs {
			fmt.Fprintln(w, id)
		}
		return nil
	}
	rs, err := store.List(resultsRun)
	if err != nil {
		return err
	}
	if len(rs) == 0 {
		return fmt.Errorf("no results for run %s", resultsRun)
	}
	if err := printResults(w, rs); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "last key: %s\n", rs[len(rs)-1].Key)
	return err
}
