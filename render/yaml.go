package render

import (
	"io"

	"sigs.k8s.io/yaml"

	"github.com/leftmike/chartdata/dataset"
	"github.com/leftmike/chartdata/sql"
)

type yamlRow struct {
	Key   interface{} `json:"key"`
	Value interface{} `json:"value"`
}

type yamlDataset struct {
	Title string    `json:"title,omitempty"`
	Rows  []yamlRow `json:"rows"`
}

func native(v sql.Value) interface{} {
	if _, ok := v.(sql.BytesValue); ok {
		return sql.Format(v)
	}
	return sql.Native(v)
}

func YAML(w io.Writer, ds *dataset.Dataset, opts Options) error {
	yd := yamlDataset{
		Title: opts.Title,
		Rows:  make([]yamlRow, 0, ds.Len()),
	}
	err := ds.Each(
		func(idx int, r dataset.Row) error {
			yd.Rows = append(yd.Rows, yamlRow{Key: native(r.Key), Value: native(r.Value)})
			return nil
		})
	if err != nil {
		return err
	}

	buf, err := yaml.Marshal(yd)
	if err != nil {
		return err
	}
	_, err = w.Write(buf)
	return err
}
