package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/andreyvit/diff"
)

func execute(args ...string) (string, error) {
	var buf bytes.Buffer
	chartdataCmd.SetOutput(&buf)
	chartdataCmd.SetArgs(append([]string{}, args...))
	err := chartdataCmd.Execute()
	return buf.String(), err
}

func TestKVCommands(t *testing.T) {
	dir := t.TempDir()
	csvFile := filepath.Join(dir, "browsers.csv")
	err := os.WriteFile(csvFile, []byte("browser,hits\nFirefox,40\nOpera,10\n"), 0644)
	if err != nil {
		t.Fatal(err)
	}

	common := []string{"--no-config", "--log-stderr", "--log-level", "warn", "--store", "bbolt",
		"--data", filepath.Join(dir, "data")}

	cases := []struct {
		args []string
		s    string
		fail bool
	}{
		{args: []string{"kv", "load", "browsers", csvFile}},
		{
			args: []string{"kv", "plot", "browsers", "--format", "bars", "--width", "4",
				"--key", "browser", "--value", "hits"},
			s: `Firefox | #### 40
Opera   | # 10
`,
		},
		{args: []string{"kv", "load", "browsers", csvFile}},
		{
			args: []string{"kv", "plot", "browsers", "--format", "yaml", "--width", "4",
				"--key=", "--value=hits"},
			s: `rows:
- key: 0
  value: 40
- key: 1
  value: 10
- key: 2
  value: 40
- key: 3
  value: 10
`,
		},
		{
			args: []string{"kv", "plot", "browsers", "--format", "yaml", "--width", "4",
				"--key=", "--value="},
			s: `rows:
- key: Firefox
  value: 40
- key: Opera
  value: 10
- key: Firefox
  value: 40
- key: Opera
  value: 10
`,
		},
		{args: []string{"kv", "create", "browsers", "id", "browser"}, fail: true},
		{args: []string{"kv", "drop", "browsers"}},
		{args: []string{"kv", "plot", "browsers"}, fail: true},
		{args: []string{"kv", "drop", "browsers"}, fail: true},
		{args: []string{"kv", "create", "hits", "hits"}},
		{args: []string{"kv", "load", "hits", csvFile}, fail: true},
	}

	for _, c := range cases {
		args := append(append([]string{}, c.args[:2]...), common...)
		args = append(args, c.args[2:]...)
		s, err := execute(args...)
		if c.fail {
			if err == nil {
				t.Errorf("execute(%v) did not fail", c.args)
			}
			continue
		}
		if err != nil {
			t.Errorf("execute(%v) failed with %s", c.args, err)
		} else if s != c.s {
			t.Errorf("execute(%v):\n%s", c.args, diff.LineDiff(c.s, s))
		}
	}
}

func TestConfigFile(t *testing.T) {
	cfgFile := filepath.Join(t.TempDir(), "chartdata.hcl")
	err := os.WriteFile(cfgFile, []byte("bogus = true\n"), 0644)
	if err != nil {
		t.Fatal(err)
	}

	_, err = execute("version", "--log-stderr", "--no-config=false", "--config-file", cfgFile)
	if err == nil {
		t.Errorf("execute(version) with bogus config did not fail")
	}

	err = os.WriteFile(cfgFile, []byte("log-level = \"warn\"\n"), 0644)
	if err != nil {
		t.Fatal(err)
	}
	_, err = execute("version", "--log-stderr", "--no-config=false", "--config-file", cfgFile)
	if err != nil {
		t.Errorf("execute(version) failed with %s", err)
	}
	if logLevel != "warn" {
		t.Errorf("execute(version) got log-level %s want warn", logLevel)
	}
}
