package dataset

import (
	"fmt"
)

// Mapping names the columns to use for the key and the value of each row. An empty Key means
// that keys are row indexes. Value is required. A nil *Mapping asks New to resolve the columns
// from the number of columns instead.
type Mapping struct {
	Key   string
	Value string
}

func ValueColumn(val string) *Mapping {
	return &Mapping{Value: val}
}

func KeyValueColumns(key, val string) *Mapping {
	return &Mapping{Key: key, Value: val}
}

func (m *Mapping) String() string {
	if m == nil {
		return "auto"
	} else if m.Key == "" {
		return fmt.Sprintf("value=%s", m.Value)
	}
	return fmt.Sprintf("key=%s value=%s", m.Key, m.Value)
}

func columnIndex(cols []string, col string) int {
	for cdx, c := range cols {
		if c == col {
			return cdx
		}
	}
	return -1
}

// resolve returns the index of the key column, or -1 for row index keys, and the index of the
// value column.
func (m *Mapping) resolve(cols []string) (int, int, error) {
	if m == nil {
		switch len(cols) {
		case 1:
			return -1, 0, nil
		case 2:
			return 0, 1, nil
		}
		return 0, 0, &Error{Kind: TooManyColumns, NumColumns: len(cols)}
	}

	if m.Value == "" {
		return 0, 0, &Error{Kind: MissingColumn}
	}
	vdx := columnIndex(cols, m.Value)
	if vdx < 0 {
		return 0, 0, &Error{Kind: MissingColumn, Column: m.Value}
	}

	if m.Key == "" {
		return -1, vdx, nil
	}
	kdx := columnIndex(cols, m.Key)
	if kdx < 0 {
		return 0, 0, &Error{Kind: MissingColumn, Column: m.Key}
	}
	return kdx, vdx, nil
}
