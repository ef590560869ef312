package cmd

import (
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	awsathena "github.com/aws/aws-sdk-go-v2/service/athena"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/leftmike/chartdata/source/athena"
)

var (
	athenaCmd = &cobra.Command{
		Use:   "athena <query>",
		Short: "Run a query with Amazon Athena and render the results",
		Args:  cobra.ExactArgs(1),
		RunE:  athenaRun,
	}

	athenaOpts = athena.Options{
		Workgroup:    "primary",
		MaxWait:      athena.DefaultMaxWait,
		PollInterval: athena.DefaultPollInterval,
	}
)

func init() {
	fs := athenaCmd.Flags()

	fs.StringVar(&athenaOpts.Database, "athena-database", athenaOpts.Database,
		"Athena `database` to run the query in")
	cfgVars["athena-database"] = fs.Lookup("athena-database")

	fs.StringVar(&athenaOpts.Workgroup, "athena-workgroup", athenaOpts.Workgroup,
		"Athena `workgroup` to run the query in")
	cfgVars["athena-workgroup"] = fs.Lookup("athena-workgroup")

	fs.StringVar(&athenaOpts.OutputLocation, "athena-output", athenaOpts.OutputLocation,
		"s3 `location` for query results")
	cfgVars["athena-output"] = fs.Lookup("athena-output")

	fs.DurationVar(&athenaOpts.MaxWait, "max-wait", athenaOpts.MaxWait,
		"how long to wait for the query to finish")
	fs.DurationVar(&athenaOpts.PollInterval, "poll-interval", athenaOpts.PollInterval,
		"how often to check if the query has finished")
	fs.IntVar(&athenaOpts.MaxRows, "max-rows", athenaOpts.MaxRows,
		"maximum number of `rows` to read; 0 for all")

	initRenderFlags(fs)

	chartdataCmd.AddCommand(athenaCmd)
}

func athenaRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := interruptContext()
	defer cancel()

	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return err
	}

	start := time.Now()
	stmt := athena.Prepare(awsathena.NewFromConfig(awsCfg), args[0], athenaOpts)
	defer stmt.Close()

	err = stmt.Execute(ctx)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"query_execution_id": stmt.QueryExecutionID(),
		"elapsed":            time.Since(start),
	}).Info("athena query finished")

	return plot(ctx, cmd.OutOrStdout(), stmt)
}
