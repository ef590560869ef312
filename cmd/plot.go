package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/leftmike/chartdata/source/dbsql"
)

var (
	plotCmd = &cobra.Command{
		Use:   "plot <query>",
		Short: "Run a query against a database and render the results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	driver = "postgres"
	dsn    = ""
)

func initDatabaseFlags(fs *pflag.FlagSet) {
	fs.StringVar(&driver, "driver", driver, "database/sql `driver` to use")
	cfgVars["driver"] = fs.Lookup("driver")

	fs.StringVar(&dsn, "dsn", dsn, "`data source name` of the database")
	cfgVars["dsn"] = fs.Lookup("dsn")
}

func init() {
	fs := plotCmd.Flags()
	initDatabaseFlags(fs)
	initRenderFlags(fs)

	chartdataCmd.AddCommand(plotCmd)
}

func plotRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := interruptContext()
	defer cancel()

	db, err := dbsql.Open(driver, dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	stmt := dbsql.Prepare(db, args[0])
	defer stmt.Close()

	err = stmt.Execute(ctx)
	if err != nil {
		return err
	}
	return plot(ctx, cmd.OutOrStdout(), stmt)
}
