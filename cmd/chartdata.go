package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/hashicorp/hcl"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/leftmike/chartdata/dataset"
	"github.com/leftmike/chartdata/render"
)

var (
	chartdataCmd = &cobra.Command{
		Use:               "chartdata",
		Short:             "Chart the results of queries",
		Long:              "Chartdata turns query results into key and value datasets and renders them.",
		PersistentPreRunE: chartdataPreRun,
		PersistentPostRun: chartdataPostRun,
		SilenceUsage:      true,
	}

	logFile   = "chartdata.log"
	logLevel  = "info"
	logStderr = false
	logWriter io.WriteCloser

	configFile = "chartdata.hcl"
	noConfig   = false

	format   = "table"
	width    = render.DefaultWidth
	title    = ""
	keyCol   = ""
	valueCol = ""

	cfgVars   = map[string]*pflag.Flag{}
	cfg       = map[string]interface{}{}
	usedFlags = map[string]struct{}{}
)

func init() {
	log.SetFormatter(&log.TextFormatter{
		DisableLevelTruncation: true,
	})

	fs := chartdataCmd.PersistentFlags()

	fs.StringVar(&logFile, "log-file", logFile, "`file` to use for logging")
	cfgVars["log-file"] = fs.Lookup("log-file")

	fs.StringVar(&logLevel, "log-level", logLevel,
		"log level: trace, debug, info, warn, error, fatal, or panic")
	cfgVars["log-level"] = fs.Lookup("log-level")

	fs.BoolVarP(&logStderr, "log-stderr", "s", logStderr, "log to standard error")

	fs.StringVar(&configFile, "config-file", configFile, "`file` to load config from")
	fs.BoolVar(&noConfig, "no-config", noConfig, "don't load config file")
}

// initRenderFlags adds the flags which control how a dataset is built and rendered.
func initRenderFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&format, "format", "f", format, "render as table, bars, or yaml")
	cfgVars["format"] = fs.Lookup("format")

	fs.IntVarP(&width, "width", "w", width, "`width` of the longest bar")
	cfgVars["width"] = fs.Lookup("width")

	fs.StringVar(&title, "title", title, "`title` to render above the dataset")
	fs.StringVarP(&keyCol, "key", "k", keyCol, "`column` to use for the keys")
	fs.StringVarP(&valueCol, "value", "v", valueCol, "`column` to use for the values")
}

func Execute() error {
	return chartdataCmd.Execute()
}

func chartdataPreRun(cmd *cobra.Command, args []string) error {
	cmd.Flags().Visit(
		func(flg *pflag.Flag) {
			usedFlags[flg.Name] = struct{}{}
		})

	if configFile != "" && !noConfig {
		err := loadConfig()
		if os.IsNotExist(err) {
			if _, ok := usedFlags["config-file"]; ok {
				return fmt.Errorf("chartdata: %s", err)
			}
		} else if err != nil {
			return fmt.Errorf("chartdata: %s", err)
		}
	}

	if !logStderr && logFile != "" {
		var err error
		logWriter, err = os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
		if err != nil {
			logWriter = nil
			return fmt.Errorf("chartdata: %s", err)
		}
		log.SetOutput(logWriter)
	}

	ll, err := log.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("chartdata: %s", err)
	}
	log.SetLevel(ll)

	log.WithFields(log.Fields{
		"pid":     os.Getpid(),
		"command": cmd.Name(),
	}).Info("chartdata starting")
	return nil
}

func chartdataPostRun(cmd *cobra.Command, args []string) {
	log.WithField("pid", os.Getpid()).Info("chartdata done")

	if logWriter != nil {
		logWriter.Close()
	}
}

func loadConfig() error {
	b, err := os.ReadFile(configFile)
	if err != nil {
		return err
	}

	cfg = map[string]interface{}{}
	err = hcl.Decode(&cfg, string(b))
	if err != nil {
		return err
	}

	for name, val := range cfg {
		flg, ok := cfgVars[name]
		if !ok {
			return fmt.Errorf("%s is not a config variable", name)
		}
		if flg == nil {
			continue
		}
		if _, ok := usedFlags[flg.Name]; ok {
			continue
		}
		err := flg.Value.Set(fmt.Sprintf("%v", val))
		if err != nil {
			return fmt.Errorf("%s: %s", name, err)
		}
	}

	return nil
}

func mapping() *dataset.Mapping {
	if keyCol == "" && valueCol == "" {
		return nil
	}
	return dataset.KeyValueColumns(keyCol, valueCol)
}

func renderOptions() render.Options {
	return render.Options{
		Title: title,
		Width: width,
	}
}

// interruptContext returns a context which is canceled by an interrupt.
func interruptContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// plot builds a dataset from an executed cursor and renders it to w.
func plot(ctx context.Context, w io.Writer, cur dataset.Cursor) error {
	ds, err := dataset.New(ctx, cur, mapping())
	if err != nil {
		return err
	}
	return render.Render(format, w, ds, renderOptions())
}
