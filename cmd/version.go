package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leftmike/chartdata/sql"
)

func init() {
	chartdataCmd.AddCommand(
		&cobra.Command{
			Use:   "version",
			Short: "Print the version number of Chartdata",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Println(sql.Version())
			},
		})
}
