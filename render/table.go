package render

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/leftmike/chartdata/dataset"
)

func Table(w io.Writer, ds *dataset.Dataset, opts Options) error {
	if opts.Title != "" {
		fmt.Fprintln(w, opts.Title)
	}

	tw := tablewriter.NewWriter(w)
	tw.SetAutoFormatHeaders(false)
	keyLabel, valueLabel := opts.labels(ds)
	tw.SetHeader([]string{keyLabel, valueLabel})

	row := make([]string, 2)
	err := ds.Each(
		func(idx int, r dataset.Row) error {
			row[0] = label(r.Key)
			row[1] = label(r.Value)
			tw.Append(row)
			return nil
		})
	if err != nil {
		return err
	}
	tw.Render()
	_, err = fmt.Fprintf(w, "(%d rows)\n", tw.NumLines())
	return err
}
