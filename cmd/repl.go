package cmd

import (
	"context"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/leftmike/chartdata/dataset"
	"github.com/leftmike/chartdata/repl"
	"github.com/leftmike/chartdata/source/dbsql"
)

var (
	replCmd = &cobra.Command{
		Use:   "repl",
		Short: "Run queries from an interactive console session",
		Args:  cobra.NoArgs,
		RunE:  replRun,
	}
)

func init() {
	fs := replCmd.Flags()
	initDatabaseFlags(fs)
	initRenderFlags(fs)

	chartdataCmd.AddCommand(replCmd)
}

func replRun(cmd *cobra.Command, args []string) error {
	db, err := dbsql.Open(driver, dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	ses := &repl.Session{
		Mapping: mapping(),
		Format:  format,
		Options: renderOptions(),
		Query: func(ctx context.Context, query string, m *dataset.Mapping) (*dataset.Dataset,
			error) {

			return dbsql.Run(ctx, db, query, m)
		},
	}

	console := repl.Interact()
	defer func() {
		err := console.Close()
		if err != nil {
			log.Warn(err)
		}
	}()

	repl.Run(context.Background(), ses, console, cmd.OutOrStdout())
	return nil
}
