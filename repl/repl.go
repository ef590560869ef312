// Package repl runs queries a line at a time and renders each result as a dataset.
package repl

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/leftmike/chartdata/dataset"
	"github.com/leftmike/chartdata/render"
)

// LineReader returns one line at a time, without the trailing newline, and io.EOF at the end.
type LineReader interface {
	ReadLine() (string, error)
}

type QueryFunc func(ctx context.Context, query string, m *dataset.Mapping) (*dataset.Dataset,
	error)

type Session struct {
	Mapping *dataset.Mapping
	Format  string
	Options render.Options
	Query   QueryFunc
}

const help = `\key <column>     use column for the keys
\value <column>   use column for the values
\index            use row indexes for the keys
\auto             pick the key and value columns from the number of columns
\format <name>    render as table, bars, or yaml
\width <n>        use n characters for the longest bar
\title [<text>]   set or clear the title
\help             show this help
`

func Run(ctx context.Context, ses *Session, lr LineReader, w io.Writer) {
	for {
		line, err := lr.ReadLine()
		if err == io.EOF {
			return
		} else if err != nil {
			fmt.Fprintln(w, err)
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line[0] == '\\' {
			err = ses.command(line[1:], w)
		} else {
			err = ses.query(ctx, line, w)
		}
		if err != nil {
			fmt.Fprintln(w, err)
		}
	}
}

func (ses *Session) query(ctx context.Context, query string, w io.Writer) error {
	log.WithFields(log.Fields{
		"query":   query,
		"mapping": ses.Mapping.String(),
	}).Debug("repl: query")

	ds, err := ses.Query(ctx, query, ses.Mapping)
	if err != nil {
		return err
	}
	return render.Render(ses.Format, w, ds, ses.Options)
}

func (ses *Session) command(line string, w io.Writer) error {
	var arg string
	cmd := line
	if idx := strings.IndexAny(line, " \t"); idx >= 0 {
		cmd = line[:idx]
		arg = strings.TrimSpace(line[idx+1:])
	}

	switch cmd {
	case "key", "value":
		if arg == "" {
			return fmt.Errorf("repl: \\%s: expected a column", cmd)
		}
		m := dataset.Mapping{}
		if ses.Mapping != nil {
			m = *ses.Mapping
		}
		if cmd == "key" {
			m.Key = arg
		} else {
			m.Value = arg
		}
		ses.Mapping = &m
	case "index":
		if ses.Mapping == nil {
			return fmt.Errorf("repl: \\index: use \\value first")
		}
		ses.Mapping = dataset.ValueColumn(ses.Mapping.Value)
	case "auto":
		ses.Mapping = nil
	case "format":
		for _, f := range render.Formats {
			if f == arg {
				ses.Format = arg
				return nil
			}
		}
		return fmt.Errorf("repl: \\format: got %q; want one of %s", arg,
			strings.Join(render.Formats, ", "))
	case "width":
		n, err := strconv.Atoi(arg)
		if err != nil || n <= 0 {
			return fmt.Errorf("repl: \\width: expected a positive number: %q", arg)
		}
		ses.Options.Width = n
	case "title":
		ses.Options.Title = arg
	case "help":
		io.WriteString(w, help)
	default:
		return fmt.Errorf("repl: unknown command: \\%s; try \\help", cmd)
	}
	return nil
}
