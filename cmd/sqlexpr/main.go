package main

import (
	"os"

	"github.com/satishbabariya/sqlexpr/internal/cli"
	"github.com/satishbabariya/sqlexpr/internal/ui"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		(&ui.Printer{W: os.Stderr}).Error("%v", err)
		os.Exit(1)
	}
}
