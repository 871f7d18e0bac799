package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/prodsearch/internal/repository/catalog"
)

var validateCmd = &cobra.Command{
	Use:   "validate <snapshot.parquet>",
	Short: "Check a parquet snapshot without writing anything",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		products, rep, err := catalog.ReadParquet(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		mem, err := catalog.NewMemory(products)
		if err != nil {
			return err
		}
		st, err := mem.AggregateStats(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "rows:       %d\n", rep.Rows)
		fmt.Fprintf(out, "accepted:   %d\n", rep.Accepted)
		fmt.Fprintf(out, "rejected:   %d\n", rep.Rejected)
		fmt.Fprintf(out, "categories: %d\n", st.Categories)
		fmt.Fprintf(out, "avg price:  %.2f\n", st.AvgPrice)
		fmt.Fprintf(out, "avg rating: %.2f\n", st.AvgRating)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
