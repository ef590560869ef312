package main

import (
	"os"

	"github.com/leftmike/chartdata/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
