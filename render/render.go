// Package render writes datasets as tables, bar charts, or YAML.
package render

import (
	"fmt"
	"io"

	"github.com/leftmike/chartdata/dataset"
	"github.com/leftmike/chartdata/sql"
)

type Options struct {
	Title      string
	KeyLabel   string
	ValueLabel string
	// Width is the number of characters used by the longest bar.
	Width int
}

const DefaultWidth = 40

var Formats = []string{"table", "bars", "yaml"}

// Render writes ds to w using the named format.
func Render(format string, w io.Writer, ds *dataset.Dataset, opts Options) error {
	switch format {
	case "table":
		return Table(w, ds, opts)
	case "bars":
		return Bars(w, ds, opts)
	case "yaml":
		return YAML(w, ds, opts)
	}
	return fmt.Errorf("render: got %s for format; want table, bars, or yaml", format)
}

func (opts Options) labels(ds *dataset.Dataset) (string, string) {
	keyLabel, valueLabel := ds.Columns()
	if keyLabel == "" {
		keyLabel = "#"
	}
	if opts.KeyLabel != "" {
		keyLabel = opts.KeyLabel
	}
	if opts.ValueLabel != "" {
		valueLabel = opts.ValueLabel
	}
	return keyLabel, valueLabel
}

func (opts Options) width() int {
	if opts.Width <= 0 {
		return DefaultWidth
	}
	return opts.Width
}

func label(v sql.Value) string {
	return sql.FormatRaw(v)
}
