package render

import (
	"fmt"
	"io"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/leftmike/chartdata/dataset"
	"github.com/leftmike/chartdata/sql"
)

// Bars draws one horizontal bar per row, scaled so that the largest value uses the full width.
// NULL values draw an empty bar.
func Bars(w io.Writer, ds *dataset.Dataset, opts Options) error {
	nums := make([]float64, ds.Len())
	var maxVal float64
	var labelWidth int
	err := ds.Each(
		func(idx int, r dataset.Row) error {
			if n := utf8.RuneCountInString(label(r.Key)); n > labelWidth {
				labelWidth = n
			}
			if r.Value == nil {
				return nil
			}

			f, ok := sql.Numeric(r.Value)
			if !ok {
				return fmt.Errorf("render: row %d: bars need numeric values: %s", idx,
					sql.Format(r.Value))
			} else if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
				return fmt.Errorf("render: row %d: bars need non-negative values: %s", idx,
					sql.Format(r.Value))
			}
			nums[idx] = f
			if f > maxVal {
				maxVal = f
			}
			return nil
		})
	if err != nil {
		return err
	}

	if opts.Title != "" {
		fmt.Fprintln(w, opts.Title)
	}

	width := opts.width()
	return ds.Each(
		func(idx int, r dataset.Row) error {
			val := label(r.Value)
			if maxVal > 0 {
				if n := int(math.Round(nums[idx] / maxVal * float64(width))); n > 0 {
					val = strings.Repeat("#", n) + " " + val
				}
			}
			key := label(r.Key)
			key += strings.Repeat(" ", labelWidth-utf8.RuneCountInString(key))
			_, err := fmt.Fprintf(w, "%s | %s\n", key, val)
			return err
		})
}
