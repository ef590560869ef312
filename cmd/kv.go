package cmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/leftmike/chartdata/kv"
	"github.com/leftmike/chartdata/sql"
)

var (
	kvCmd = &cobra.Command{
		Use:   "kv",
		Short: "Manage and plot tables kept in a key-value store",
	}

	kvCreateCmd = &cobra.Command{
		Use:   "create <table> <column> ...",
		Short: "Create a table",
		Args:  cobra.MinimumNArgs(2),
		RunE:  kvCreateRun,
	}

	kvLoadCmd = &cobra.Command{
		Use:   "load <table> <csv-file>",
		Short: "Append the rows of a CSV file to a table, creating it from the header if needed",
		Args:  cobra.ExactArgs(2),
		RunE:  kvLoadRun,
	}

	kvPlotCmd = &cobra.Command{
		Use:   "plot <table>",
		Short: "Render the rows of a table",
		Args:  cobra.ExactArgs(1),
		RunE:  kvPlotRun,
	}

	kvDropCmd = &cobra.Command{
		Use:   "drop <table>",
		Short: "Drop a table",
		Args:  cobra.ExactArgs(1),
		RunE:  kvDropRun,
	}

	store   = "bbolt"
	dataDir = "testdata"
)

func initStoreFlags(fs *pflag.FlagSet) {
	fs.StringVar(&store, "store", store, "key-value store to use: "+strings.Join(kv.Stores, ", "))
	cfgVars["store"] = fs.Lookup("store")

	fs.StringVar(&dataDir, "data", dataDir, "`directory` containing the store")
	cfgVars["data"] = fs.Lookup("data")
}

func init() {
	initStoreFlags(kvCmd.PersistentFlags())
	initRenderFlags(kvPlotCmd.Flags())

	kvCmd.AddCommand(kvCreateCmd, kvLoadCmd, kvPlotCmd, kvDropCmd)
	chartdataCmd.AddCommand(kvCmd)
}

func withStore(fn func(st kv.KV) error) error {
	st, err := kv.Open(store, dataDir)
	if err != nil {
		return err
	}

	err = fn(st)
	cerr := st.Close()
	if err == nil {
		err = cerr
	}
	return err
}

func kvCreateRun(cmd *cobra.Command, args []string) error {
	return withStore(
		func(st kv.KV) error {
			return kv.CreateTable(st, args[0], args[1:])
		})
}

func kvDropRun(cmd *cobra.Command, args []string) error {
	return withStore(
		func(st kv.KV) error {
			return kv.DropTable(st, args[0])
		})
}

func kvPlotRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := interruptContext()
	defer cancel()

	return withStore(
		func(st kv.KV) error {
			stmt := kv.Query(st, args[0])
			defer stmt.Close()

			err := stmt.Execute(ctx)
			if err != nil {
				return err
			}
			return plot(ctx, cmd.OutOrStdout(), stmt)
		})
}

func kvLoadRun(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[1])
	if err != nil {
		return err
	}
	defer f.Close()

	cols, rows, err := readCSV(f)
	if err != nil {
		return fmt.Errorf("chartdata: %s: %s", args[1], err)
	}

	return withStore(
		func(st kv.KV) error {
			tcols, err := kv.TableColumns(st, args[0])
			if err != nil {
				err = kv.CreateTable(st, args[0], cols)
				if err != nil {
					return err
				}
			} else if len(tcols) != len(cols) {
				return fmt.Errorf("chartdata: table %s has %d columns; %s has %d", args[0],
					len(tcols), args[1], len(cols))
			}

			err = kv.Append(st, args[0], rows)
			if err != nil {
				return err
			}
			log.WithFields(log.Fields{
				"table": args[0],
				"file":  args[1],
				"rows":  len(rows),
			}).Info("loaded table")
			return nil
		})
}

// readCSV returns the header and the rows of a CSV file.
func readCSV(r io.Reader) ([]string, [][]sql.Value, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	cols, err := cr.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("missing header")
	} else if err != nil {
		return nil, nil, err
	}

	var rows [][]sql.Value
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, nil, err
		}

		row := make([]sql.Value, len(rec))
		for fdx, fld := range rec {
			row[fdx] = parseField(fld)
		}
		rows = append(rows, row)
	}
	return cols, rows, nil
}

// parseField guesses the type of a CSV field; an empty field is NULL.
func parseField(s string) sql.Value {
	if s == "" {
		return nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return sql.Int64Value(i)
	}
	if d, err := strconv.ParseFloat(s, 64); err == nil {
		return sql.Float64Value(d)
	}
	switch s {
	case sql.TrueString:
		return sql.BoolValue(true)
	case sql.FalseString:
		return sql.BoolValue(false)
	}
	return sql.StringValue(s)
}
