package cmd

import (
	"github.com/spf13/cobra"

	"github.com/leftmike/chartdata/source/parquet"
)

var (
	parquetCmd = &cobra.Command{
		Use:   "parquet <file>",
		Short: "Render the rows of a parquet file",
		Args:  cobra.ExactArgs(1),
		RunE:  parquetRun,
	}
)

func init() {
	initRenderFlags(parquetCmd.Flags())

	chartdataCmd.AddCommand(parquetCmd)
}

func parquetRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := interruptContext()
	defer cancel()

	cur, err := parquet.Open(args[0])
	if err != nil {
		return err
	}
	return plot(ctx, cmd.OutOrStdout(), cur)
}
